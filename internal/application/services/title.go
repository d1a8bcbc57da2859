package services

import (
	"log"

	"github.com/formcraft/backend/internal/domain/models"
	"github.com/formcraft/backend/internal/domain/resolver"
	"github.com/formcraft/backend/pkg/constants"
	"github.com/formcraft/backend/pkg/fieldtypes"
)

// RowTitle renders the collapsed-row title for one row of a composite
// field. When the field carries a title template it is evaluated against
// the row's sub-field values, keyed by each sub-field's original name so
// templates written against the source definition keep working after
// clone rewriting. Without a template (or when evaluation fails) the
// title falls back to the layout label followed by the first content
// sub-field's formatted value.
func (cs *CodecService) RowTitle(field *models.FieldDefinition, layoutTag string, values models.RowValue) string {
	sess := resolver.NewSession(cs.fields)

	var subs []*models.ResolvedField
	label := ""
	if field.Type == constants.FieldKindFlexible {
		layout := field.LayoutByName(layoutTag)
		if layout == nil {
			return layoutTag
		}
		label = layout.Label
		subs = sess.LayoutSubFields(layout)
	} else {
		label = field.Label
		subs = sess.SubFields(field)
	}

	row := &models.Row{Values: values}

	if field.TitleTemplate != "" {
		env := make(map[string]interface{}, len(subs))
		for _, sub := range subs {
			if v, ok := lookupRowValue(row, sub); ok {
				env[sub.OriginNameOrName()] = v
			}
		}
		title, err := cs.conditions.EvalString(field.TitleTemplate, env)
		if err != nil {
			log.Printf("⚠️  Warning: title template on '%s' failed: %v", field.Name, err)
		} else if title != "" {
			return title
		}
	}

	for _, sub := range subs {
		plugin, ok := fieldtypes.GetPlugin(sub.Type)
		if !ok || !plugin.IsContent() {
			continue
		}
		v, ok := lookupRowValue(row, sub)
		if !ok || v == nil {
			continue
		}
		if formatted := plugin.Format(v, leafConfig(sub.FieldDefinition)); formatted != "" {
			if label != "" {
				return label + ": " + formatted
			}
			return formatted
		}
	}
	return label
}
