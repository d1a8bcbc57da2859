package services

import (
	"fmt"

	"github.com/formcraft/backend/internal/domain/models"
	"github.com/formcraft/backend/internal/domain/ports"
	"github.com/formcraft/backend/internal/domain/resolver"
	"github.com/formcraft/backend/pkg/constants"
	"github.com/formcraft/backend/pkg/errors"
	"github.com/formcraft/backend/pkg/fieldtypes"
)

// ValidationService checks composite values against their field
// definitions before they are written: row-count bounds, required
// sub-fields, and per-type plugin validation. All violations are
// collected rather than failing fast so an editing surface can show
// them at once.
type ValidationService struct {
	fields ports.FieldStore
}

func NewValidationService(fields ports.FieldStore) *ValidationService {
	return &ValidationService{fields: fields}
}

// ValidateComposite returns every violation found in value, with paths
// like "gallery_list[2].caption" pointing at the offending sub-field.
func (vs *ValidationService) ValidateComposite(field *models.FieldDefinition, value *models.CompositeValue) []error {
	sess := resolver.NewSession(vs.fields)
	return vs.validate(sess, field.Name, field, value)
}

func (vs *ValidationService) validate(sess *resolver.Session, path string, field *models.FieldDefinition, value *models.CompositeValue) []error {
	var errs []error
	rows := rowValues(value)

	if field.Required && len(rows) == 0 {
		errs = append(errs, errors.NewValidationError(path, "at least one row is required"))
	}
	if field.MinRows > 0 && len(rows) < field.MinRows {
		errs = append(errs, errors.NewValidationError(path, fmt.Sprintf("requires at least %d rows, has %d", field.MinRows, len(rows))))
	}
	if field.MaxRows > 0 && len(rows) > field.MaxRows {
		errs = append(errs, errors.NewValidationError(path, fmt.Sprintf("allows at most %d rows, has %d", field.MaxRows, len(rows))))
	}

	if field.Type == constants.FieldKindFlexible {
		errs = append(errs, vs.validateLayoutCounts(path, field, rows)...)
	}

	for i, row := range rows {
		subs, ok := vs.rowSubFields(sess, field, row)
		if !ok {
			errs = append(errs, errors.NewValidationError(fmt.Sprintf("%s[%d]", path, i), fmt.Sprintf("unknown layout '%s'", row.Layout)))
			continue
		}
		errs = append(errs, vs.validateRow(sess, path, i, row, subs)...)
	}
	return errs
}

func (vs *ValidationService) rowSubFields(sess *resolver.Session, field *models.FieldDefinition, row *models.Row) ([]*models.ResolvedField, bool) {
	if field.Type != constants.FieldKindFlexible {
		return sess.SubFields(field), true
	}
	layout := field.LayoutByName(row.Layout)
	if layout == nil {
		return nil, false
	}
	return sess.LayoutSubFields(layout), true
}

// validateLayoutCounts enforces per-layout occurrence bounds across the
// whole flexible field, counting only enabled rows.
func (vs *ValidationService) validateLayoutCounts(path string, field *models.FieldDefinition, rows []*models.Row) []error {
	counts := make(map[string]int, len(field.Layouts))
	for _, row := range rows {
		if !row.Disabled {
			counts[row.Layout]++
		}
	}
	var errs []error
	for _, layout := range field.Layouts {
		n := counts[layout.Name]
		if layout.MinRows > 0 && n < layout.MinRows {
			errs = append(errs, errors.NewValidationError(path, fmt.Sprintf("layout '%s' requires at least %d rows, has %d", layout.Name, layout.MinRows, n)))
		}
		if layout.MaxRows > 0 && n > layout.MaxRows {
			errs = append(errs, errors.NewValidationError(path, fmt.Sprintf("layout '%s' allows at most %d rows, has %d", layout.Name, layout.MaxRows, n)))
		}
	}
	return errs
}

func (vs *ValidationService) validateRow(sess *resolver.Session, path string, index int, row *models.Row, subs []*models.ResolvedField) []error {
	var errs []error
	hidden := make(map[string]bool, len(row.HiddenSubFields))
	for _, key := range row.HiddenSubFields {
		hidden[key] = true
	}

	for _, sub := range subs {
		if hidden[sub.Identity.EffectiveKey] {
			continue
		}
		subPath := fmt.Sprintf("%s[%d].%s", path, index, sub.Name)
		v, present := lookupRowValue(row, sub)

		if sub.IsComposite() {
			if !present {
				continue
			}
			nested, ok := models.AsComposite(v)
			if !ok {
				errs = append(errs, errors.NewValidationError(subPath, "expected nested rows"))
				continue
			}
			errs = append(errs, vs.validate(sess, subPath, sub.FieldDefinition, nested)...)
			continue
		}

		if !present || v == nil || v == "" {
			if sub.Required {
				errs = append(errs, errors.NewValidationError(subPath, "value is required"))
			}
			continue
		}
		if plugin, ok := fieldtypes.GetPlugin(sub.Type); ok {
			if err := plugin.Validate(v, leafConfig(sub.FieldDefinition)); err != nil {
				errs = append(errs, errors.NewValidationError(subPath, err.Error()))
			}
		}
	}
	return errs
}
