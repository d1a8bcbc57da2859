package resolver

import (
	"github.com/formcraft/backend/internal/domain/models"
	"github.com/formcraft/backend/internal/domain/ports"
	"github.com/formcraft/backend/pkg/constants"
)

// Session scopes one resolution pass. It carries the cycle-guard set of
// clone keys currently being expanded, so resolution is reentrant: two
// concurrent passes over the same definitions cannot interfere, and the
// guard never leaks across unrelated calls.
type Session struct {
	store      ports.FieldStore
	inProgress map[string]bool
}

// NewSession creates a resolution session over the given definition store.
func NewSession(store ports.FieldStore) *Session {
	return &Session{
		store:      store,
		inProgress: make(map[string]bool),
	}
}

// SubFields returns the resolved children of a composite field, expanding
// any clone children in place.
func (s *Session) SubFields(f *models.FieldDefinition) []*models.ResolvedField {
	return s.resolveList(f.SubFields)
}

// LayoutSubFields returns the resolved sub-field set of one layout of a
// flexible_content field.
func (s *Session) LayoutSubFields(l *models.Layout) []*models.ResolvedField {
	return s.resolveList(l.SubFields)
}

func (s *Session) resolveList(defs []*models.FieldDefinition) []*models.ResolvedField {
	out := make([]*models.ResolvedField, 0, len(defs))
	for _, def := range defs {
		rf := models.Resolved(def)
		if def.IsClone() {
			out = append(out, s.Expand(rf)...)
			continue
		}
		out = append(out, rf)
	}
	return out
}

// Expand resolves a clone field into the ordered, rewritten fields its
// selectors denote. A clone already being expanded higher up the call
// chain resolves to no fields at all: cycles terminate silently because
// mutually-referencing field groups are a supported authoring pattern.
func (s *Session) Expand(clone *models.ResolvedField) []*models.ResolvedField {
	guard := clone.Identity.DeclaredKey
	if s.inProgress[guard] {
		return nil
	}
	s.inProgress[guard] = true
	defer delete(s.inProgress, guard)

	var out []*models.ResolvedField
	for _, selector := range clone.CloneOf {
		if group, ok := s.store.FieldGroup(selector); ok {
			for _, f := range group.Fields {
				out = append(out, s.rewrite(clone, f)...)
			}
			continue
		}
		if field, ok := s.store.Field(selector); ok {
			out = append(out, s.rewrite(clone, field)...)
			continue
		}
		// Dangling selector (deleted field, bad identifier): dropped, so a
		// group referencing a removed field stays editable.
	}
	return out
}

// rewrite produces the resolved form of one cloned child. The child's
// definition is copied before any attribute changes; the source definition
// is never mutated. Nested clones expand through their rewritten copy, so
// composed keys and names stay correct however deep the chain goes.
func (s *Session) rewrite(clone *models.ResolvedField, src *models.FieldDefinition) []*models.ResolvedField {
	def := src.CopyDefinition()
	if def.OriginName == "" {
		def.OriginName = src.Name
	}
	ident := models.FieldIdentity{
		DeclaredKey:   src.Key,
		DeclaredName:  src.Name,
		EffectiveKey:  src.Key,
		EffectiveName: src.Name,
	}

	if clone.Display == constants.CloneDisplaySeamless {
		// The composed key keeps sibling clones of the same underlying
		// field from colliding in the shared value space.
		ident.EffectiveKey = clone.Key + "_" + src.Key
		def.Key = ident.EffectiveKey
		def.Parent = clone.Parent
		if clone.PrefixLabel {
			def.Label = clone.Label + " " + def.Label
		}
	}

	if clone.PrefixName {
		ident.EffectiveName = clone.Name + "_" + def.OriginName
		def.Name = ident.EffectiveName
	}

	if clone.Required {
		def.Required = true
	}

	rf := &models.ResolvedField{
		FieldDefinition: def,
		Identity:        ident,
		Source:          src,
	}

	if def.IsClone() {
		return s.Expand(rf)
	}
	return []*models.ResolvedField{rf}
}
