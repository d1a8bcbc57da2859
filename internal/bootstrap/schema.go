package bootstrap

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/formcraft/backend/pkg/constants"
)

// InitializeSchema creates the two storage tables if they do not exist.
// Values live in a flat key-value table; definitions are JSON documents.
func InitializeSchema(db *sql.DB) error {
	log.Println("🔧 Initializing storage schema...")

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%s VARCHAR(191) NOT NULL,
			%s VARCHAR(191) NOT NULL,
			%s LONGTEXT NOT NULL,
			PRIMARY KEY (%s, %s)
		) DEFAULT CHARSET=utf8mb4`,
			constants.TableFieldValues,
			constants.ColSubjectID, constants.ColMetaKey, constants.ColMetaValue,
			constants.ColSubjectID, constants.ColMetaKey),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%s VARCHAR(191) NOT NULL,
			%s VARCHAR(255) NOT NULL,
			%s LONGTEXT NOT NULL,
			PRIMARY KEY (%s)
		) DEFAULT CHARSET=utf8mb4`,
			constants.TableFieldGroups,
			constants.ColGroupKey, constants.ColTitle, constants.ColDefinition,
			constants.ColGroupKey),
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	log.Println("✅ Storage schema ready")
	return nil
}
