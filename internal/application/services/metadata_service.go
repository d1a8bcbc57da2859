package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/formcraft/backend/internal/domain/models"
	"github.com/formcraft/backend/pkg/condition"
	"github.com/formcraft/backend/pkg/constants"
	"github.com/formcraft/backend/pkg/errors"
	"github.com/formcraft/backend/pkg/fieldtypes"
	"github.com/formcraft/backend/pkg/utils"
)

// DefinitionStore persists field group definitions.
type DefinitionStore interface {
	LoadAll(ctx context.Context) ([]*models.FieldGroup, error)
	Save(ctx context.Context, group *models.FieldGroup) error
	Delete(ctx context.Context, key string) error
}

// MetadataService holds the in-memory definition cache and implements
// the field lookup interface the resolver and codec depend on. Groups
// are loaded once and refreshed after every mutation; lookups only take
// the read lock.
type MetadataService struct {
	store      DefinitionStore
	conditions *condition.Engine

	mu     sync.RWMutex
	groups []*models.FieldGroup
	fields map[string]*models.FieldDefinition
}

func NewMetadataService(store DefinitionStore) *MetadataService {
	return &MetadataService{
		store:      store,
		conditions: condition.NewEngine(),
		fields:     make(map[string]*models.FieldDefinition),
	}
}

// RefreshCache reloads all field groups from storage and rebuilds the
// flat field index.
func (ms *MetadataService) RefreshCache(ctx context.Context) error {
	groups, err := ms.store.LoadAll(ctx)
	if err != nil {
		return errors.NewInternalError("failed to load field groups", err)
	}

	fields := make(map[string]*models.FieldDefinition)
	for _, group := range groups {
		indexFields(fields, group.Fields)
	}

	ms.mu.Lock()
	ms.groups = groups
	ms.fields = fields
	ms.mu.Unlock()

	log.Printf("✅ Metadata cache refreshed: %d groups, %d fields", len(groups), len(fields))
	return nil
}

// indexFields registers every field in the tree by key, descending into
// sub-fields and layout sub-fields so clone selectors can target nested
// fields.
func indexFields(index map[string]*models.FieldDefinition, fields []*models.FieldDefinition) {
	for _, f := range fields {
		if f == nil || f.Key == "" {
			continue
		}
		index[f.Key] = f
		indexFields(index, f.SubFields)
		for _, layout := range f.Layouts {
			indexFields(index, layout.SubFields)
		}
	}
}

// Field implements ports.FieldStore.
func (ms *MetadataService) Field(key string) (*models.FieldDefinition, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	f, ok := ms.fields[key]
	return f, ok
}

// FieldGroup implements ports.FieldStore.
func (ms *MetadataService) FieldGroup(key string) (*models.FieldGroup, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	for _, g := range ms.groups {
		if g.Key == key {
			return g, true
		}
	}
	return nil, false
}

// FieldGroups implements ports.FieldStore.
func (ms *MetadataService) FieldGroups() []*models.FieldGroup {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	out := make([]*models.FieldGroup, len(ms.groups))
	copy(out, ms.groups)
	return out
}

// SaveFieldGroup validates and persists a field group, assigning keys to
// the group and any new fields, then refreshes the cache.
func (ms *MetadataService) SaveFieldGroup(ctx context.Context, group *models.FieldGroup) error {
	if group == nil || group.Title == "" {
		return errors.NewValidationError("title", "field group title is required")
	}
	if group.Key == "" {
		group.Key = utils.NewKey(constants.GroupKeyPrefix)
	}
	if err := ms.prepareFields(group.Fields, ""); err != nil {
		return err
	}
	if err := ms.store.Save(ctx, group); err != nil {
		return errors.NewInternalError("failed to save field group", err)
	}
	return ms.RefreshCache(ctx)
}

// prepareFields normalizes a field tree before persistence: generated
// keys, origin names, parent links, and static checks on type, layouts,
// and display condition expressions.
func (ms *MetadataService) prepareFields(fields []*models.FieldDefinition, parentKey string) error {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return errors.NewValidationError("name", "field name is required")
		}
		if seen[f.Name] {
			return errors.NewValidationError(f.Name, "duplicate field name among siblings")
		}
		seen[f.Name] = true

		if f.Key == "" {
			f.Key = utils.NewKey(constants.FieldKeyPrefix)
		}
		if f.OriginName == "" {
			f.OriginName = f.Name
		}
		f.Parent = parentKey

		if err := ms.checkFieldType(f); err != nil {
			return err
		}
		if f.ConditionalLogic != "" {
			if err := ms.conditions.Validate(f.ConditionalLogic); err != nil {
				return errors.NewValidationError(f.Name, fmt.Sprintf("invalid display condition: %v", err))
			}
		}

		if err := ms.prepareFields(f.SubFields, f.Key); err != nil {
			return err
		}
		for _, layout := range f.Layouts {
			if layout.Name == "" {
				return errors.NewValidationError(f.Name, "layout name is required")
			}
			if layout.Key == "" {
				layout.Key = utils.NewKey(constants.LayoutKeyPrefix)
			}
			if err := ms.prepareFields(layout.SubFields, f.Key); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ms *MetadataService) checkFieldType(f *models.FieldDefinition) error {
	switch f.Type {
	case constants.FieldKindRepeater:
		return nil
	case constants.FieldKindFlexible:
		if len(f.Layouts) == 0 {
			return errors.NewValidationError(f.Name, "flexible content field needs at least one layout")
		}
		return nil
	case constants.FieldKindClone:
		if len(f.CloneOf) == 0 {
			return errors.NewValidationError(f.Name, "clone field needs a source selector")
		}
		return nil
	}
	if _, ok := fieldtypes.GetPlugin(f.Type); !ok {
		return errors.NewValidationError(f.Name, fmt.Sprintf("unknown field type '%s'", f.Type))
	}
	return nil
}

// DeleteFieldGroup removes a group definition. Stored values for its
// fields are left in place; absent definitions simply stop resolving.
func (ms *MetadataService) DeleteFieldGroup(ctx context.Context, key string) error {
	if _, ok := ms.FieldGroup(key); !ok {
		return errors.NewNotFoundError("field group", key)
	}
	if err := ms.store.Delete(ctx, key); err != nil {
		return errors.NewInternalError("failed to delete field group", err)
	}
	return ms.RefreshCache(ctx)
}
