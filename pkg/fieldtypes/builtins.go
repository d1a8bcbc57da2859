package fieldtypes

import (
	"fmt"
	"net/mail"
	"net/url"
	"strconv"
	"strings"

	"github.com/formcraft/backend/pkg/constants"
	"github.com/formcraft/backend/pkg/utils"
)

// RegisterBuiltins registers the built-in leaf field types. Safe to call
// once at bootstrap; a duplicate registration is reported as an error.
func RegisterBuiltins() error {
	plugins := []FieldTypePlugin{
		TextPlugin{NewBasePlugin(constants.FieldKindText, "Text", "Single-line text value", true)},
		TextPlugin{NewBasePlugin(constants.FieldKindTextarea, "Text Area", "Multi-line text value", true)},
		TextPlugin{NewBasePlugin(constants.FieldKindWysiwyg, "WYSIWYG Editor", "Rich text stored as HTML", true)},
		NumberPlugin{NewBasePlugin(constants.FieldKindNumber, "Number", "Numeric value with optional bounds", true)},
		SelectPlugin{NewBasePlugin(constants.FieldKindSelect, "Select", "One choice from a configured set", true)},
		TrueFalsePlugin{NewBasePlugin(constants.FieldKindTrueFalse, "True / False", "Boolean toggle", false)},
		ImagePlugin{NewBasePlugin(constants.FieldKindImage, "Image", "Attachment reference stored by ID", true)},
		LinkPlugin{NewBasePlugin(constants.FieldKindLink, "Link", "URL with optional title", false)},
		EmailPlugin{NewBasePlugin(constants.FieldKindEmail, "Email", "Email address", true)},
		URLPlugin{NewBasePlugin(constants.FieldKindURL, "URL", "Absolute URL", true)},
	}

	for _, p := range plugins {
		if err := RegisterPlugin(p); err != nil {
			return err
		}
	}
	return nil
}

// TextPlugin backs text, textarea and wysiwyg kinds.
type TextPlugin struct{ BasePlugin }

func (p TextPlugin) Validate(value interface{}, config map[string]interface{}) error {
	if value == nil {
		return nil
	}
	s := utils.ToString(value)
	if max := utils.ToInt(config["maxlength"]); max > 0 && len(s) > max {
		return fmt.Errorf("value exceeds maximum length of %d", max)
	}
	return nil
}

func (p TextPlugin) Transform(value interface{}, config map[string]interface{}) (interface{}, error) {
	return utils.ToString(value), nil
}

// NumberPlugin validates numeric range and normalizes storage.
type NumberPlugin struct{ BasePlugin }

func (p NumberPlugin) Validate(value interface{}, config map[string]interface{}) error {
	if value == nil || utils.ToString(value) == "" {
		return nil
	}
	s := utils.ToString(value)
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("'%v' is not a number", value)
	}
	if minRaw, ok := config["min"]; ok {
		if min, err := strconv.ParseFloat(utils.ToString(minRaw), 64); err == nil && n < min {
			return fmt.Errorf("value %v is below minimum %v", n, min)
		}
	}
	if maxRaw, ok := config["max"]; ok {
		if max, err := strconv.ParseFloat(utils.ToString(maxRaw), 64); err == nil && n > max {
			return fmt.Errorf("value %v is above maximum %v", n, max)
		}
	}
	return nil
}

func (p NumberPlugin) Transform(value interface{}, config map[string]interface{}) (interface{}, error) {
	if value == nil {
		return "", nil
	}
	return utils.ToString(value), nil
}

// SelectPlugin validates membership in the configured choice set.
type SelectPlugin struct{ BasePlugin }

func (p SelectPlugin) Validate(value interface{}, config map[string]interface{}) error {
	if value == nil || utils.ToString(value) == "" {
		return nil
	}
	choices, ok := config["choices"].(map[string]string)
	if !ok {
		// Choices may also arrive as a generic decoded map.
		generic, ok := config["choices"].(map[string]interface{})
		if !ok {
			return nil
		}
		choices = make(map[string]string, len(generic))
		for k, v := range generic {
			choices[k] = utils.ToString(v)
		}
	}
	key := utils.ToString(value)
	if _, ok := choices[key]; !ok {
		return fmt.Errorf("'%s' is not an available choice", key)
	}
	return nil
}

func (p SelectPlugin) Format(value interface{}, config map[string]interface{}) string {
	key := utils.ToString(value)
	if choices, ok := config["choices"].(map[string]string); ok {
		if label, ok := choices[key]; ok {
			return label
		}
	}
	return key
}

// TrueFalsePlugin stores booleans as "1"/"0".
type TrueFalsePlugin struct{ BasePlugin }

func (p TrueFalsePlugin) Transform(value interface{}, config map[string]interface{}) (interface{}, error) {
	if utils.ToBool(value) {
		return "1", nil
	}
	return "0", nil
}

func (p TrueFalsePlugin) Format(value interface{}, config map[string]interface{}) string {
	if utils.ToBool(value) {
		return "Yes"
	}
	return "No"
}

// ImagePlugin stores an attachment reference by numeric ID.
type ImagePlugin struct{ BasePlugin }

func (p ImagePlugin) Validate(value interface{}, config map[string]interface{}) error {
	if value == nil || utils.ToString(value) == "" {
		return nil
	}
	if _, err := strconv.Atoi(utils.ToString(value)); err != nil {
		return fmt.Errorf("image value must be an attachment ID, got '%v'", value)
	}
	return nil
}

func (p ImagePlugin) Transform(value interface{}, config map[string]interface{}) (interface{}, error) {
	if value == nil {
		return "", nil
	}
	return utils.ToString(value), nil
}

// LinkPlugin stores "url|title".
type LinkPlugin struct{ BasePlugin }

func (p LinkPlugin) Format(value interface{}, config map[string]interface{}) string {
	s := utils.ToString(value)
	if i := strings.IndexByte(s, '|'); i >= 0 && i+1 < len(s) {
		return s[i+1:]
	}
	return s
}

// EmailPlugin validates address syntax.
type EmailPlugin struct{ BasePlugin }

func (p EmailPlugin) Validate(value interface{}, config map[string]interface{}) error {
	s := utils.ToString(value)
	if s == "" {
		return nil
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return fmt.Errorf("'%s' is not a valid email address", s)
	}
	return nil
}

// URLPlugin validates absolute URLs.
type URLPlugin struct{ BasePlugin }

func (p URLPlugin) Validate(value interface{}, config map[string]interface{}) error {
	s := utils.ToString(value)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("'%s' is not an absolute URL", s)
	}
	return nil
}
