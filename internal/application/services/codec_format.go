package services

import (
	"github.com/formcraft/backend/internal/domain/models"
	"github.com/formcraft/backend/internal/domain/resolver"
	"github.com/formcraft/backend/pkg/constants"
	"github.com/formcraft/backend/pkg/fieldtypes"
)

// Format renders a loaded composite value for display: each leaf value is
// passed through its type plugin's Format hook, nested composites recurse.
// The walk is purely in-memory and never touches the value store.
func (cs *CodecService) Format(field *models.FieldDefinition, value *models.CompositeValue) *models.CompositeValue {
	if value == nil {
		return nil
	}
	sess := resolver.NewSession(cs.fields)
	return cs.formatComposite(sess, field, value)
}

func (cs *CodecService) formatComposite(sess *resolver.Session, field *models.FieldDefinition, value *models.CompositeValue) *models.CompositeValue {
	out := &models.CompositeValue{Rows: make([]*models.Row, 0, len(value.Rows))}
	for _, row := range value.Rows {
		if row == nil {
			continue
		}
		var subs []*models.ResolvedField
		if field.Type == constants.FieldKindFlexible {
			if layout := field.LayoutByName(row.Layout); layout != nil {
				subs = sess.LayoutSubFields(layout)
			}
		} else {
			subs = sess.SubFields(field)
		}

		formatted := &models.Row{
			Index:    row.Index,
			Layout:   row.Layout,
			Disabled: row.Disabled,
			Label:    row.Label,
			Values:   make(models.RowValue, len(row.Values)),
		}
		for _, sub := range subs {
			v, ok := lookupRowValue(row, sub)
			if !ok {
				continue
			}
			formatted.Values[sub.Identity.EffectiveKey] = cs.formatValue(sess, sub, v)
		}
		out.Rows = append(out.Rows, formatted)
	}
	return out
}

func (cs *CodecService) formatValue(sess *resolver.Session, sub *models.ResolvedField, v interface{}) interface{} {
	if sub.IsComposite() {
		if nested, ok := models.AsComposite(v); ok {
			return cs.formatComposite(sess, sub.FieldDefinition, nested)
		}
		return v
	}
	if plugin, ok := fieldtypes.GetPlugin(sub.Type); ok {
		return plugin.Format(v, leafConfig(sub.FieldDefinition))
	}
	return v
}
