package resolver

import (
	"github.com/formcraft/backend/internal/domain/models"
	"github.com/formcraft/backend/internal/domain/ports"
)

// PickerChild is one selectable entry: a field key or a field-group key.
type PickerChild struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// PickerGroup is one section of the hierarchical selector list.
type PickerGroup struct {
	GroupLabel string        `json:"group_label"`
	Children   []PickerChild `json:"children"`
}

// ListSelectors builds the hierarchical list backing the searchable clone
// selector picker. Each group contributes itself ("All fields") followed by
// its fields, with composite children indented under their parent. The
// field identified by excludeKey (the clone being edited) is omitted.
func ListSelectors(store ports.FieldStore, excludeKey string) []PickerGroup {
	groups := store.FieldGroups()
	out := make([]PickerGroup, 0, len(groups))
	for _, g := range groups {
		pg := PickerGroup{GroupLabel: g.Title}
		pg.Children = append(pg.Children, PickerChild{
			ID:    g.Key,
			Label: "All fields from " + g.Title,
		})
		appendFieldChildren(&pg, g.Fields, "", excludeKey)
		out = append(out, pg)
	}
	return out
}

func appendFieldChildren(pg *PickerGroup, fields []*models.FieldDefinition, indent, excludeKey string) {
	for _, f := range fields {
		if f.Key == excludeKey {
			continue
		}
		pg.Children = append(pg.Children, PickerChild{
			ID:    f.Key,
			Label: indent + f.Label,
		})
		if len(f.SubFields) > 0 {
			appendFieldChildren(pg, f.SubFields, indent+"— ", excludeKey)
		}
		for _, l := range f.Layouts {
			appendFieldChildren(pg, l.SubFields, indent+"— ", excludeKey)
		}
	}
}
