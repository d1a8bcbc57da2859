package bootstrap

import (
	"log"

	"github.com/formcraft/backend/pkg/fieldtypes"
)

// InitializeFieldTypes registers the built-in leaf field type plugins.
func InitializeFieldTypes() error {
	if err := fieldtypes.RegisterBuiltins(); err != nil {
		return err
	}
	log.Printf("🔌 Registered %d field type plugins", len(fieldtypes.ListPlugins()))
	return nil
}
