package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngine_Visible(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name    string
		logic   string
		env     map[string]interface{}
		visible bool
	}{
		{"empty condition is visible", "", nil, true},
		{"true condition", `show_caption == true`, map[string]interface{}{"show_caption": true}, true},
		{"false condition", `show_caption == true`, map[string]interface{}{"show_caption": false}, false},
		{"string comparison", `style == "wide"`, map[string]interface{}{"style": "narrow"}, false},
		{"numeric comparison", `columns > 2`, map[string]interface{}{"columns": 3}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			visible, err := e.Visible(tc.logic, tc.env)
			assert.NoError(t, err)
			assert.Equal(t, tc.visible, visible)
		})
	}
}

func TestEngine_VisibleDegradesOpen(t *testing.T) {
	e := NewEngine()

	// A condition referencing a missing variable errors at runtime; the
	// field stays visible rather than silently disappearing.
	visible, err := e.Visible(`missing_field == "x"`, map[string]interface{}{})
	assert.Error(t, err)
	assert.True(t, visible)
}

func TestEngine_EvalString(t *testing.T) {
	e := NewEngine()

	title, err := e.EvalString(`"Slide: " + heading`, map[string]interface{}{"heading": "Intro"})
	assert.NoError(t, err)
	assert.Equal(t, "Slide: Intro", title)
}

func TestEngine_Validate(t *testing.T) {
	e := NewEngine()

	assert.NoError(t, e.Validate(`a == 1`))
	assert.NoError(t, e.Validate(""))
	assert.Error(t, e.Validate(`a ==`))
}
