package services

import (
	"context"
	"database/sql"

	"github.com/formcraft/backend/internal/infrastructure/persistence"
)

// ServiceManager orchestrates all services with dependency injection
type ServiceManager struct {
	Values      *persistence.ValueRepository
	Definitions *persistence.DefinitionRepository

	Metadata   *MetadataService
	Codec      *CodecService
	Validation *ValidationService
}

// NewServiceManager creates a new service manager with all dependencies wired
func NewServiceManager(db *sql.DB) *ServiceManager {
	sm := &ServiceManager{}

	sm.Values = persistence.NewValueRepository(db)
	sm.Definitions = persistence.NewDefinitionRepository(db)

	sm.Metadata = NewMetadataService(sm.Definitions)
	sm.Codec = NewCodecService(sm.Values, sm.Metadata)
	sm.Validation = NewValidationService(sm.Metadata)

	return sm
}

// Initialize warms the metadata cache. Called once at startup after the
// schema is in place.
func (sm *ServiceManager) Initialize(ctx context.Context) error {
	return sm.Metadata.RefreshCache(ctx)
}
