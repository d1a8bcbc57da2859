package constants

// Storage tables
const (
	// TableFieldValues is the flat key-value store for composite field
	// values: one row per (subject, meta key).
	TableFieldValues = "_field_values"
	// TableFieldGroups stores field-group definitions as JSON documents.
	TableFieldGroups = "_field_groups"
)

// Column names
const (
	ColSubjectID  = "subject_id"
	ColMetaKey    = "meta_key"
	ColMetaValue  = "meta_value"
	ColGroupKey   = "group_key"
	ColTitle      = "title"
	ColDefinition = "definition"
)
