package constants

// Field kind names. These are the `type` values carried by field
// definitions; composite kinds own sub-fields, leaf kinds own a value.
const (
	FieldKindText      = "text"
	FieldKindTextarea  = "textarea"
	FieldKindWysiwyg   = "wysiwyg"
	FieldKindNumber    = "number"
	FieldKindSelect    = "select"
	FieldKindTrueFalse = "true_false"
	FieldKindImage     = "image"
	FieldKindLink      = "link"
	FieldKindEmail     = "email"
	FieldKindURL       = "url"

	FieldKindRepeater = "repeater"
	FieldKindFlexible = "flexible_content"
	FieldKindClone    = "clone"
)

// Clone display modes
const (
	// CloneDisplaySeamless merges the clone's resolved sub-fields directly
	// into the clone's parent; the clone container disappears.
	CloneDisplaySeamless = "seamless"
	// CloneDisplayGroup keeps the clone visible as a grouping container.
	CloneDisplayGroup = "group"
)

// Prefixes for generated identifiers
const (
	FieldKeyPrefix  = "field_"
	GroupKeyPrefix  = "group_"
	LayoutKeyPrefix = "layout_"
)

// Storage key pieces for the flat value store
const (
	// LayoutMetaPrefix and LayoutMetaSuffix build the side-record key
	// `_{field}_layout_meta`.
	LayoutMetaPrefix = "_"
	LayoutMetaSuffix = "_layout_meta"
)

// RowIndexTemplate is the sentinel index used for template/preview rows.
// Rows carrying it are never persisted.
const RowIndexTemplate = -1
