package models

import "github.com/formcraft/backend/pkg/utils"

// RowValue maps a resolved sub-field's effective key to that sub-field's
// value. Nested composites appear as *CompositeValue.
type RowValue map[string]interface{}

// Row is one element of a composite field's value. Rows are owned by the
// composite value and have no independent lifecycle.
type Row struct {
	Index  int    `json:"index"`
	Layout string `json:"layout,omitempty"` // flexible_content only

	// Disabled rows are hidden on the public-facing side but remain
	// editable in the admin surface.
	Disabled bool `json:"disabled,omitempty"`
	// Unresolved marks a row whose stored layout tag no longer matches any
	// defined layout. Its stored sub-values are preserved, not deleted.
	Unresolved bool `json:"unresolved,omitempty"`
	// Label is a custom display label override from the layout meta record.
	Label string `json:"label,omitempty"`

	Values RowValue `json:"values"`

	// HiddenSubFields lists effective keys of sub-fields currently hidden
	// by a display condition (edit-mode loads only). Their stored values
	// are left untouched on update: absence is not deletion.
	HiddenSubFields []string `json:"hidden_sub_fields,omitempty"`
}

// CompositeValue is the in-memory nested value of a repeater or
// flexible_content field.
type CompositeValue struct {
	Rows []*Row `json:"rows"`
}

// LayoutMeta is the auxiliary per-row record of a flexible_content field:
// which row indices are disabled and which carry a custom display label.
// It is rewritten in full on every save of the parent field.
type LayoutMeta struct {
	Disabled []int          `json:"disabled,omitempty"`
	Renamed  map[int]string `json:"renamed,omitempty"`
}

// IsDisabled reports whether the given row index is disabled.
func (m *LayoutMeta) IsDisabled(index int) bool {
	if m == nil {
		return false
	}
	for _, i := range m.Disabled {
		if i == index {
			return true
		}
	}
	return false
}

// LabelFor returns the custom label for a row index, or "".
func (m *LayoutMeta) LabelFor(index int) string {
	if m == nil || m.Renamed == nil {
		return ""
	}
	return m.Renamed[index]
}

// IsEmpty reports whether the record carries no overrides at all.
func (m *LayoutMeta) IsEmpty() bool {
	return m == nil || (len(m.Disabled) == 0 && len(m.Renamed) == 0)
}

// AsComposite coerces a generic decoded value into a CompositeValue.
// Accepts *CompositeValue, a {"rows": [...]} map, or a bare row list, so
// nested composite values survive a trip through encoding/json.
func AsComposite(v interface{}) (*CompositeValue, bool) {
	switch val := v.(type) {
	case *CompositeValue:
		return val, true
	case CompositeValue:
		return &val, true
	case map[string]interface{}:
		rows, ok := val["rows"]
		if !ok {
			return nil, false
		}
		return rowsFromList(rows)
	case []interface{}:
		return rowsFromList(val)
	}
	return nil, false
}

func rowsFromList(v interface{}) (*CompositeValue, bool) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	cv := &CompositeValue{}
	for i, item := range list {
		rowMap, ok := item.(map[string]interface{})
		if !ok {
			return nil, false
		}
		row := &Row{Index: i, Values: RowValue{}}
		if layout, ok := rowMap["layout"].(string); ok {
			row.Layout = layout
		}
		if label, ok := rowMap["label"].(string); ok {
			row.Label = label
		}
		row.Disabled = utils.ToBool(rowMap["disabled"])
		if values, ok := rowMap["values"].(map[string]interface{}); ok {
			for k, val := range values {
				row.Values[k] = val
			}
		}
		cv.Rows = append(cv.Rows, row)
	}
	return cv, true
}
