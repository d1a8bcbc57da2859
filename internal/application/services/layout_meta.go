package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/formcraft/backend/internal/domain/models"
	"github.com/formcraft/backend/internal/domain/ports"
	"github.com/formcraft/backend/pkg/constants"
)

// LayoutMetaRegistry reads and writes the auxiliary per-row record of a
// flexible_content field (disabled rows, custom labels). It is a pure
// key-value pass-through with a cache scoped to one resolution pass, so
// processing many rows of the same field costs one read. A Set fully
// replaces the previous record; there is no merge logic.
type LayoutMetaRegistry struct {
	values ports.ValueStore
	cache  map[string]*models.LayoutMeta
}

// NewLayoutMetaRegistry creates a registry for one render/save pass.
func NewLayoutMetaRegistry(values ports.ValueStore) *LayoutMetaRegistry {
	return &LayoutMetaRegistry{
		values: values,
		cache:  make(map[string]*models.LayoutMeta),
	}
}

// MetaKey derives the side-record storage key `_{field}_layout_meta`.
func MetaKey(fieldName string) string {
	return constants.LayoutMetaPrefix + fieldName + constants.LayoutMetaSuffix
}

func (r *LayoutMetaRegistry) cacheKey(subject, fieldName string) string {
	return subject + "\x00" + fieldName
}

// Get returns the layout meta for a field, reading it at most once per
// pass. A missing or corrupt record yields an empty meta.
func (r *LayoutMetaRegistry) Get(ctx context.Context, subject, fieldName string) (*models.LayoutMeta, error) {
	ck := r.cacheKey(subject, fieldName)
	if meta, ok := r.cache[ck]; ok {
		return meta, nil
	}

	meta := &models.LayoutMeta{}
	raw, ok, err := r.values.Get(ctx, subject, MetaKey(fieldName))
	if err != nil {
		return nil, err
	}
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), meta); err != nil {
			log.Printf("⚠️  Warning: corrupt layout meta for field '%s': %v", fieldName, err)
			meta = &models.LayoutMeta{}
		}
	}

	r.cache[ck] = meta
	return meta, nil
}

// Set rewrites the record in full. An empty record deletes the key rather
// than storing noise.
func (r *LayoutMetaRegistry) Set(ctx context.Context, subject, fieldName string, meta *models.LayoutMeta) error {
	ck := r.cacheKey(subject, fieldName)
	if meta.IsEmpty() {
		r.cache[ck] = &models.LayoutMeta{}
		return r.values.Delete(ctx, subject, MetaKey(fieldName))
	}

	b, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	r.cache[ck] = meta
	return r.values.Set(ctx, subject, MetaKey(fieldName), string(b))
}

// Delete removes the record entirely, e.g. when the parent field's value
// is deleted.
func (r *LayoutMetaRegistry) Delete(ctx context.Context, subject, fieldName string) error {
	delete(r.cache, r.cacheKey(subject, fieldName))
	return r.values.Delete(ctx, subject, MetaKey(fieldName))
}
