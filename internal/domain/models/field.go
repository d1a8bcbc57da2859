package models

import (
	"github.com/formcraft/backend/pkg/constants"
)

// FieldDefinition describes one field in a field group. Composite kinds
// (repeater, flexible_content) own sub-fields or layouts; clone kinds carry
// selectors pointing at other fields or whole groups.
type FieldDefinition struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	OriginName string `json:"origin_name,omitempty"` // survives name rewriting
	Label      string `json:"label"`
	Type       string `json:"type"`
	Parent     string `json:"parent,omitempty"` // key of parent field or group
	Required   bool   `json:"required,omitempty"`

	Instructions string `json:"instructions,omitempty"`

	// Leaf configuration
	DefaultValue     interface{}       `json:"default_value,omitempty"`
	Choices          map[string]string `json:"choices,omitempty"`
	ConditionalLogic string            `json:"conditional_logic,omitempty"` // expression over sibling values
	Config           map[string]interface{} `json:"config,omitempty"`

	// Composite configuration
	SubFields   []*FieldDefinition `json:"sub_fields,omitempty"`
	Layouts     []*Layout          `json:"layouts,omitempty"` // flexible_content only
	MinRows     int                `json:"min,omitempty"`
	MaxRows     int                `json:"max,omitempty"`
	ButtonLabel string             `json:"button_label,omitempty"`
	RowsPerPage int                `json:"rows_per_page,omitempty"` // 0 = not paginated
	TitleTemplate string           `json:"title_template,omitempty"` // expression rendering a row title

	// Clone configuration
	CloneOf     []string `json:"clone,omitempty"`   // selectors: field keys or group keys
	Display     string   `json:"display,omitempty"` // seamless | group
	PrefixName  bool     `json:"prefix_name,omitempty"`
	PrefixLabel bool     `json:"prefix_label,omitempty"`
}

// IsComposite reports whether the field owns rows of sub-field values.
func (f *FieldDefinition) IsComposite() bool {
	return f.Type == constants.FieldKindRepeater || f.Type == constants.FieldKindFlexible
}

// IsClone reports whether the field is replaced at resolution time by the
// fields its selectors denote.
func (f *FieldDefinition) IsClone() bool {
	return f.Type == constants.FieldKindClone
}

// OriginNameOrName returns the pre-rewrite name when one is recorded,
// falling back to the current name.
func (f *FieldDefinition) OriginNameOrName() string {
	if f.OriginName != "" {
		return f.OriginName
	}
	return f.Name
}

// LayoutByName returns the layout whose name matches the given row tag, or
// nil if the layout has been removed from the definition.
func (f *FieldDefinition) LayoutByName(name string) *Layout {
	for _, l := range f.Layouts {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// Layout is a named, independently shaped row template of a
// flexible_content field. A row's actual sub-field set is chosen at edit
// time from the available layouts.
type Layout struct {
	Key       string             `json:"key"`
	Name      string             `json:"name"`
	Label     string             `json:"label"`
	SubFields []*FieldDefinition `json:"sub_fields,omitempty"`
	MinRows   int                `json:"min,omitempty"`
	MaxRows   int                `json:"max,omitempty"`
}

// FieldGroup is a named, ordered collection of top-level field definitions.
type FieldGroup struct {
	Key    string             `json:"key"`
	Title  string             `json:"title"`
	Fields []*FieldDefinition `json:"fields"`
}

// FieldIdentity carries both sides of a field's identity after clone
// resolution: the declared (as-authored) key/name and the effective
// (as-stored) key/name. Effective identity is always derivable from the
// resolution pass; declared identity is always recoverable from here.
type FieldIdentity struct {
	DeclaredKey   string `json:"declared_key"`
	DeclaredName  string `json:"declared_name"`
	EffectiveKey  string `json:"effective_key"`
	EffectiveName string `json:"effective_name"`
}

// ResolvedField is the runtime shape produced by clone resolution: a field
// definition (possibly a rewritten copy) plus resolution metadata. Source
// points at the originating definition so look-ups by the declared key
// still succeed after rewriting.
type ResolvedField struct {
	*FieldDefinition
	Identity FieldIdentity
	Source   *FieldDefinition
}

// Resolved wraps a definition that needs no rewriting: declared and
// effective identity coincide.
func Resolved(f *FieldDefinition) *ResolvedField {
	name := f.Name
	return &ResolvedField{
		FieldDefinition: f,
		Identity: FieldIdentity{
			DeclaredKey:   f.Key,
			DeclaredName:  name,
			EffectiveKey:  f.Key,
			EffectiveName: name,
		},
		Source: f,
	}
}

// CopyDefinition returns a shallow copy of the definition suitable for
// rewriting. Sub-structures (sub-fields, layouts, choices) stay shared with
// the source; resolution never mutates them.
func (f *FieldDefinition) CopyDefinition() *FieldDefinition {
	c := *f
	return &c
}
