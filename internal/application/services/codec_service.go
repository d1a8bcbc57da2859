package services

import (
	"context"
	"fmt"
	"log"

	"github.com/formcraft/backend/internal/domain/models"
	"github.com/formcraft/backend/internal/domain/ports"
	"github.com/formcraft/backend/internal/domain/resolver"
	"github.com/formcraft/backend/pkg/condition"
	"github.com/formcraft/backend/pkg/constants"
	"github.com/formcraft/backend/pkg/errors"
	"github.com/formcraft/backend/pkg/fieldtypes"
	"github.com/formcraft/backend/pkg/utils"
)

// LoadMode selects which consumer a load serves. Disabled rows are
// excluded entirely for output but retained (flagged) for editing.
type LoadMode int

const (
	// LoadForEdit retains disabled and unresolved rows so the admin
	// surface can still present them.
	LoadForEdit LoadMode = iota
	// LoadForOutput is public-facing: disabled and unresolved rows are
	// omitted.
	LoadForOutput
)

// CodecService converts between a resolved field tree plus flat persisted
// values and the in-memory nested value structure. The row-scoped key
// derivation `{base}_{i}_{sub.Name}` is the single invariant shared by
// Load, Format, Update and Delete; every operation rederives keys rather
// than caching them, since row indices and base names shift between calls.
type CodecService struct {
	values     ports.ValueStore
	fields     ports.FieldStore
	conditions *condition.Engine
}

// NewCodecService creates a codec over the given stores.
func NewCodecService(values ports.ValueStore, fields ports.FieldStore) *CodecService {
	return &CodecService{
		values:     values,
		fields:     fields,
		conditions: condition.NewEngine(),
	}
}

// pass scopes one codec operation: a clone-resolution session and a layout
// meta cache, neither of which may leak across unrelated operations.
type pass struct {
	sess *resolver.Session
	meta *LayoutMetaRegistry
}

func (cs *CodecService) newPass() *pass {
	return &pass{
		sess: resolver.NewSession(cs.fields),
		meta: NewLayoutMetaRegistry(cs.values),
	}
}

// RowScopedName derives the storage key of one sub-field's value for one
// row: `{base}_{i}_{sub name}`.
func RowScopedName(base string, index int, subName string) string {
	return fmt.Sprintf("%s_%d_%s", base, index, subName)
}

// Load reads a composite field's value from the flat store.
func (cs *CodecService) Load(ctx context.Context, subject string, field *models.FieldDefinition, mode LoadMode) (*models.CompositeValue, error) {
	return cs.load(ctx, cs.newPass(), subject, field, mode)
}

// Update writes a composite field's value, deleting rows that shrank away
// or changed shape so a later load cannot resurrect stale data.
func (cs *CodecService) Update(ctx context.Context, subject string, field *models.FieldDefinition, value *models.CompositeValue) error {
	return cs.update(ctx, cs.newPass(), subject, field, value)
}

// Delete removes a composite field's value entirely, every row's every
// sub-field included.
func (cs *CodecService) Delete(ctx context.Context, subject string, field *models.FieldDefinition) error {
	return cs.delete(ctx, cs.newPass(), subject, field)
}

func (cs *CodecService) load(ctx context.Context, p *pass, subject string, field *models.FieldDefinition, mode LoadMode) (*models.CompositeValue, error) {
	switch field.Type {
	case constants.FieldKindRepeater:
		return cs.loadRepeater(ctx, p, subject, field, mode)
	case constants.FieldKindFlexible:
		return cs.loadFlexible(ctx, p, subject, field, mode)
	default:
		return nil, errors.NewValidationError(field.Name, fmt.Sprintf("field type '%s' is not a composite kind", field.Type))
	}
}

func (cs *CodecService) update(ctx context.Context, p *pass, subject string, field *models.FieldDefinition, value *models.CompositeValue) error {
	switch field.Type {
	case constants.FieldKindRepeater:
		return cs.updateRepeater(ctx, p, subject, field, value)
	case constants.FieldKindFlexible:
		return cs.updateFlexible(ctx, p, subject, field, value)
	default:
		return errors.NewValidationError(field.Name, fmt.Sprintf("field type '%s' is not a composite kind", field.Type))
	}
}

func (cs *CodecService) delete(ctx context.Context, p *pass, subject string, field *models.FieldDefinition) error {
	switch field.Type {
	case constants.FieldKindRepeater:
		return cs.deleteRepeater(ctx, p, subject, field)
	case constants.FieldKindFlexible:
		return cs.deleteFlexible(ctx, p, subject, field)
	default:
		return errors.NewValidationError(field.Name, fmt.Sprintf("field type '%s' is not a composite kind", field.Type))
	}
}

// loadSubValue reads one sub-field's value for one row, recursing into
// nested composites by recomputing the sub-field's name per row.
func (cs *CodecService) loadSubValue(ctx context.Context, p *pass, subject, base string, index int, sub *models.ResolvedField, mode LoadMode) (interface{}, error) {
	scoped := RowScopedName(base, index, sub.Name)

	if sub.IsComposite() {
		nested := sub.CopyDefinition()
		nested.Name = scoped
		return cs.load(ctx, p, subject, nested, mode)
	}

	raw, ok, err := cs.values.Get(ctx, subject, scoped)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return raw, nil
}

// updateSubValue writes one sub-field's value for one row.
func (cs *CodecService) updateSubValue(ctx context.Context, p *pass, subject, base string, index int, sub *models.ResolvedField, value interface{}) error {
	scoped := RowScopedName(base, index, sub.Name)

	if sub.IsComposite() {
		nested, ok := models.AsComposite(value)
		if !ok {
			return errors.NewValidationError(scoped, "expected nested rows for composite sub-field")
		}
		nestedDef := sub.CopyDefinition()
		nestedDef.Name = scoped
		return cs.update(ctx, p, subject, nestedDef, nested)
	}

	stored := value
	if plugin, ok := fieldtypes.GetPlugin(sub.Type); ok {
		transformed, err := plugin.Transform(value, leafConfig(sub.FieldDefinition))
		if err != nil {
			return errors.NewValidationError(scoped, err.Error())
		}
		stored = transformed
	}
	return cs.values.Set(ctx, subject, scoped, utils.ToString(stored))
}

// deleteRow removes one row's entire sub-field set.
func (cs *CodecService) deleteRow(ctx context.Context, p *pass, subject, base string, index int, subs []*models.ResolvedField) error {
	for _, sub := range subs {
		scoped := RowScopedName(base, index, sub.Name)
		if sub.IsComposite() {
			nested := sub.CopyDefinition()
			nested.Name = scoped
			if err := cs.delete(ctx, p, subject, nested); err != nil {
				return err
			}
			continue
		}
		if err := cs.values.Delete(ctx, subject, scoped); err != nil {
			return err
		}
	}
	return nil
}

// rowValues filters out template/preview rows, which are never persisted.
func rowValues(value *models.CompositeValue) []*models.Row {
	if value == nil {
		return nil
	}
	rows := make([]*models.Row, 0, len(value.Rows))
	for _, row := range value.Rows {
		if row == nil || row.Index == constants.RowIndexTemplate {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// lookupRowValue finds a sub-field's value in a row. Effective key first;
// the declared key still resolves after clone rewriting so posted values
// keyed the original way map back onto the definition.
func lookupRowValue(row *models.Row, sub *models.ResolvedField) (interface{}, bool) {
	if row == nil || row.Values == nil {
		return nil, false
	}
	if v, ok := row.Values[sub.Identity.EffectiveKey]; ok {
		return v, true
	}
	if v, ok := row.Values[sub.Identity.DeclaredKey]; ok {
		return v, true
	}
	return nil, false
}

// applyConditions flags sub-fields hidden by their display conditions so
// the editing surface knows their absent values must stay untouched.
func (cs *CodecService) applyConditions(row *models.Row, subs []*models.ResolvedField) {
	env := make(map[string]interface{}, len(subs))
	for _, sub := range subs {
		if v, ok := lookupRowValue(row, sub); ok {
			env[sub.OriginNameOrName()] = v
		}
	}
	for _, sub := range subs {
		if sub.ConditionalLogic == "" {
			continue
		}
		visible, err := cs.conditions.Visible(sub.ConditionalLogic, env)
		if err != nil {
			log.Printf("⚠️  Warning: display condition on '%s' failed: %v", sub.Name, err)
			continue
		}
		if !visible {
			row.HiddenSubFields = append(row.HiddenSubFields, sub.Identity.EffectiveKey)
		}
	}
}

// leafConfig assembles the plugin config map for a leaf sub-field.
func leafConfig(f *models.FieldDefinition) map[string]interface{} {
	config := make(map[string]interface{}, len(f.Config)+1)
	for k, v := range f.Config {
		config[k] = v
	}
	if len(f.Choices) > 0 {
		config["choices"] = f.Choices
	}
	return config
}
