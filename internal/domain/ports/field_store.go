package ports

import "github.com/formcraft/backend/internal/domain/models"

// FieldStore looks up field and field-group definitions by their stable
// keys. It is a pure retrieval dependency: a missing key returns ok=false,
// never an error, because definitions and stored values can legitimately
// fall out of sync after the content model changes.
type FieldStore interface {
	// Field returns the definition for a field key, searching nested
	// sub-fields as well as top-level fields.
	Field(key string) (*models.FieldDefinition, bool)

	// FieldGroup returns a field group by its key.
	FieldGroup(key string) (*models.FieldGroup, bool)

	// FieldGroups returns all known groups in stable order.
	FieldGroups() []*models.FieldGroup
}
