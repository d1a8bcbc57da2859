package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formcraft/backend/internal/domain/models"
	"github.com/formcraft/backend/pkg/constants"
	"github.com/formcraft/backend/pkg/fieldtypes"
)

func init() {
	if err := fieldtypes.RegisterBuiltins(); err != nil {
		panic(err)
	}
}

// memValues is an in-memory value store for codec tests.
type memValues struct {
	mu   sync.Mutex
	data map[string]string
	// failOnSet makes Set return an error for one key, to exercise
	// partial-write behavior.
	failOnSet string
}

func newMemValues() *memValues {
	return &memValues{data: make(map[string]string)}
}

func (s *memValues) Get(ctx context.Context, subject, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[subject+"|"+key]
	return v, ok, nil
}

func (s *memValues) Set(ctx context.Context, subject, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == s.failOnSet {
		return errors.New("store write failed")
	}
	s.data[subject+"|"+key] = value
	return nil
}

func (s *memValues) Delete(ctx context.Context, subject, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, subject+"|"+key)
	return nil
}

func (s *memValues) get(subject, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[subject+"|"+key]
	return v, ok
}

func (s *memValues) set(subject, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[subject+"|"+key] = value
}

func (s *memValues) keys(subject string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, subject+"|") {
			keys = append(keys, strings.TrimPrefix(k, subject+"|"))
		}
	}
	return keys
}

// fixedFields is a definition lookup over a fixed field list.
type fixedFields struct {
	fields map[string]*models.FieldDefinition
	groups []*models.FieldGroup
}

func newFixedFields(fields ...*models.FieldDefinition) *fixedFields {
	ff := &fixedFields{fields: make(map[string]*models.FieldDefinition)}
	for _, f := range fields {
		ff.add(f)
	}
	return ff
}

func (ff *fixedFields) add(f *models.FieldDefinition) {
	if f.Key != "" {
		ff.fields[f.Key] = f
	}
	for _, sub := range f.SubFields {
		ff.add(sub)
	}
	for _, layout := range f.Layouts {
		for _, sub := range layout.SubFields {
			ff.add(sub)
		}
	}
}

func (ff *fixedFields) Field(key string) (*models.FieldDefinition, bool) {
	f, ok := ff.fields[key]
	return f, ok
}

func (ff *fixedFields) FieldGroup(key string) (*models.FieldGroup, bool) {
	for _, g := range ff.groups {
		if g.Key == key {
			return g, true
		}
	}
	return nil, false
}

func (ff *fixedFields) FieldGroups() []*models.FieldGroup { return ff.groups }

func galleryField() *models.FieldDefinition {
	return &models.FieldDefinition{
		Key:  "field_gallery",
		Name: "gallery_list",
		Type: constants.FieldKindRepeater,
		SubFields: []*models.FieldDefinition{
			{Key: "field_image", Name: "image", Type: constants.FieldKindImage},
			{Key: "field_caption", Name: "caption", Type: constants.FieldKindText},
		},
	}
}

func sectionsField() *models.FieldDefinition {
	return &models.FieldDefinition{
		Key:  "field_sections",
		Name: "sections",
		Type: constants.FieldKindFlexible,
		Layouts: []*models.Layout{
			{
				Key:   "layout_text",
				Name:  "text_block",
				Label: "Text Block",
				SubFields: []*models.FieldDefinition{
					{Key: "field_content", Name: "content", Type: constants.FieldKindTextarea},
				},
			},
			{
				Key:   "layout_image",
				Name:  "image_block",
				Label: "Image Block",
				SubFields: []*models.FieldDefinition{
					{Key: "field_img", Name: "img", Type: constants.FieldKindImage},
				},
			},
		},
	}
}

func galleryValue(rows ...models.RowValue) *models.CompositeValue {
	v := &models.CompositeValue{}
	for i, r := range rows {
		v.Rows = append(v.Rows, &models.Row{Index: i, Values: r})
	}
	return v
}

func TestRepeaterRoundTrip(t *testing.T) {
	store := newMemValues()
	field := galleryField()
	codec := NewCodecService(store, newFixedFields(field))
	ctx := context.Background()

	err := codec.Update(ctx, "post-1", field, galleryValue(
		models.RowValue{"field_image": "42", "field_caption": "Sunset"},
		models.RowValue{"field_image": "43", "field_caption": "Sunrise"},
	))
	require.NoError(t, err)

	count, _ := store.get("post-1", "gallery_list")
	assert.Equal(t, "2", count)
	caption, _ := store.get("post-1", "gallery_list_0_caption")
	assert.Equal(t, "Sunset", caption)
	image, _ := store.get("post-1", "gallery_list_1_image")
	assert.Equal(t, "43", image)

	value, err := codec.Load(ctx, "post-1", field, LoadForEdit)
	require.NoError(t, err)
	require.Len(t, value.Rows, 2)
	assert.Equal(t, "Sunset", value.Rows[0].Values["field_caption"])
	assert.Equal(t, "43", value.Rows[1].Values["field_image"])
}

func TestRepeaterShrinkRemovesTrailingRows(t *testing.T) {
	store := newMemValues()
	field := galleryField()
	codec := NewCodecService(store, newFixedFields(field))
	ctx := context.Background()

	err := codec.Update(ctx, "post-1", field, galleryValue(
		models.RowValue{"field_caption": "a"},
		models.RowValue{"field_caption": "b"},
		models.RowValue{"field_caption": "c"},
	))
	require.NoError(t, err)

	err = codec.Update(ctx, "post-1", field, galleryValue(
		models.RowValue{"field_caption": "a"},
	))
	require.NoError(t, err)

	count, _ := store.get("post-1", "gallery_list")
	assert.Equal(t, "1", count)
	_, ok := store.get("post-1", "gallery_list_1_caption")
	assert.False(t, ok, "row 1 must be removed after shrink")
	_, ok = store.get("post-1", "gallery_list_2_caption")
	assert.False(t, ok, "row 2 must be removed after shrink")
}

func TestRepeaterMarkerNotAdvancedOnFailedWrite(t *testing.T) {
	store := newMemValues()
	store.failOnSet = "gallery_list_1_caption"
	field := galleryField()
	codec := NewCodecService(store, newFixedFields(field))
	ctx := context.Background()

	err := codec.Update(ctx, "post-1", field, galleryValue(
		models.RowValue{"field_caption": "a"},
		models.RowValue{"field_caption": "b"},
	))
	require.Error(t, err)

	_, ok := store.get("post-1", "gallery_list")
	assert.False(t, ok, "count marker must not be written when a row write fails")
}

func TestRepeaterAbsentValueIsNotDeletion(t *testing.T) {
	store := newMemValues()
	field := galleryField()
	codec := NewCodecService(store, newFixedFields(field))
	ctx := context.Background()

	err := codec.Update(ctx, "post-1", field, galleryValue(
		models.RowValue{"field_image": "42", "field_caption": "Sunset"},
	))
	require.NoError(t, err)

	// Same row posted without the caption: the stored caption survives.
	err = codec.Update(ctx, "post-1", field, galleryValue(
		models.RowValue{"field_image": "44"},
	))
	require.NoError(t, err)

	caption, ok := store.get("post-1", "gallery_list_0_caption")
	assert.True(t, ok)
	assert.Equal(t, "Sunset", caption)
	image, _ := store.get("post-1", "gallery_list_0_image")
	assert.Equal(t, "44", image)
}

func TestRepeaterTemplateRowSkipped(t *testing.T) {
	store := newMemValues()
	field := galleryField()
	codec := NewCodecService(store, newFixedFields(field))
	ctx := context.Background()

	value := &models.CompositeValue{Rows: []*models.Row{
		{Index: constants.RowIndexTemplate, Values: models.RowValue{"field_caption": "template"}},
		{Index: 0, Values: models.RowValue{"field_caption": "real"}},
	}}
	require.NoError(t, codec.Update(ctx, "post-1", field, value))

	count, _ := store.get("post-1", "gallery_list")
	assert.Equal(t, "1", count)
	caption, _ := store.get("post-1", "gallery_list_0_caption")
	assert.Equal(t, "real", caption)
}

func TestRepeaterEmptySubFieldsIsNoOp(t *testing.T) {
	store := newMemValues()
	field := &models.FieldDefinition{
		Key:  "field_empty",
		Name: "empty_list",
		Type: constants.FieldKindRepeater,
	}
	codec := NewCodecService(store, newFixedFields(field))
	ctx := context.Background()

	require.NoError(t, codec.Update(ctx, "post-1", field, galleryValue(models.RowValue{"x": "y"})))
	_, ok := store.get("post-1", "empty_list")
	assert.False(t, ok)

	value, err := codec.Load(ctx, "post-1", field, LoadForEdit)
	require.NoError(t, err)
	assert.Empty(t, value.Rows)
}

func TestNestedRepeaterRoundTrip(t *testing.T) {
	store := newMemValues()
	field := &models.FieldDefinition{
		Key:  "field_slides",
		Name: "slides",
		Type: constants.FieldKindRepeater,
		SubFields: []*models.FieldDefinition{
			{Key: "field_title", Name: "title", Type: constants.FieldKindText},
			{
				Key:  "field_bullets",
				Name: "bullets",
				Type: constants.FieldKindRepeater,
				SubFields: []*models.FieldDefinition{
					{Key: "field_text", Name: "text", Type: constants.FieldKindText},
				},
			},
		},
	}
	codec := NewCodecService(store, newFixedFields(field))
	ctx := context.Background()

	nested := &models.CompositeValue{Rows: []*models.Row{
		{Index: 0, Values: models.RowValue{"field_text": "first"}},
		{Index: 1, Values: models.RowValue{"field_text": "second"}},
	}}
	err := codec.Update(ctx, "post-1", field, galleryValue(
		models.RowValue{"field_title": "Slide A", "field_bullets": nested},
	))
	require.NoError(t, err)

	// Nested keys compose row scope per level.
	marker, _ := store.get("post-1", "slides_0_bullets")
	assert.Equal(t, "2", marker)
	text, _ := store.get("post-1", "slides_0_bullets_1_text")
	assert.Equal(t, "second", text)

	value, err := codec.Load(ctx, "post-1", field, LoadForEdit)
	require.NoError(t, err)
	require.Len(t, value.Rows, 1)
	inner, ok := value.Rows[0].Values["field_bullets"].(*models.CompositeValue)
	require.True(t, ok)
	require.Len(t, inner.Rows, 2)
	assert.Equal(t, "first", inner.Rows[0].Values["field_text"])
}

func TestFlexibleRoundTripWithDisabledRow(t *testing.T) {
	store := newMemValues()
	field := sectionsField()
	codec := NewCodecService(store, newFixedFields(field))
	ctx := context.Background()

	value := &models.CompositeValue{Rows: []*models.Row{
		{Index: 0, Layout: "text_block", Values: models.RowValue{"field_content": "hello"}},
		{Index: 1, Layout: "image_block", Disabled: true, Values: models.RowValue{"field_img": "9"}},
	}}
	require.NoError(t, codec.Update(ctx, "post-1", field, value))

	marker, _ := store.get("post-1", "sections")
	assert.JSONEq(t, `["text_block","image_block"]`, marker)
	meta, ok := store.get("post-1", "_sections_layout_meta")
	require.True(t, ok)
	assert.JSONEq(t, `{"disabled":[1]}`, meta)

	edit, err := codec.Load(ctx, "post-1", field, LoadForEdit)
	require.NoError(t, err)
	require.Len(t, edit.Rows, 2)
	assert.False(t, edit.Rows[0].Disabled)
	assert.True(t, edit.Rows[1].Disabled)
	assert.Equal(t, "hello", edit.Rows[0].Values["field_content"])

	output, err := codec.Load(ctx, "post-1", field, LoadForOutput)
	require.NoError(t, err)
	require.Len(t, output.Rows, 1)
	assert.Equal(t, "text_block", output.Rows[0].Layout)
}

func TestFlexibleLayoutChangeCleansOldRow(t *testing.T) {
	store := newMemValues()
	field := sectionsField()
	codec := NewCodecService(store, newFixedFields(field))
	ctx := context.Background()

	require.NoError(t, codec.Update(ctx, "post-1", field, &models.CompositeValue{Rows: []*models.Row{
		{Index: 0, Layout: "text_block", Values: models.RowValue{"field_content": "hello"}},
	}}))

	require.NoError(t, codec.Update(ctx, "post-1", field, &models.CompositeValue{Rows: []*models.Row{
		{Index: 0, Layout: "image_block", Values: models.RowValue{"field_img": "9"}},
	}}))

	_, ok := store.get("post-1", "sections_0_content")
	assert.False(t, ok, "old layout's sub-field must be deleted when the row's layout changes")
	img, _ := store.get("post-1", "sections_0_img")
	assert.Equal(t, "9", img)
	marker, _ := store.get("post-1", "sections")
	assert.JSONEq(t, `["image_block"]`, marker)
}

func TestFlexibleShrinkRemovesTrailingRows(t *testing.T) {
	store := newMemValues()
	field := sectionsField()
	codec := NewCodecService(store, newFixedFields(field))
	ctx := context.Background()

	require.NoError(t, codec.Update(ctx, "post-1", field, &models.CompositeValue{Rows: []*models.Row{
		{Index: 0, Layout: "text_block", Values: models.RowValue{"field_content": "a"}},
		{Index: 1, Layout: "text_block", Values: models.RowValue{"field_content": "b"}},
	}}))
	require.NoError(t, codec.Update(ctx, "post-1", field, &models.CompositeValue{Rows: []*models.Row{
		{Index: 0, Layout: "text_block", Values: models.RowValue{"field_content": "a"}},
	}}))

	_, ok := store.get("post-1", "sections_1_content")
	assert.False(t, ok)
	marker, _ := store.get("post-1", "sections")
	assert.JSONEq(t, `["text_block"]`, marker)
}

func TestFlexibleUnresolvedLayoutPreserved(t *testing.T) {
	store := newMemValues()
	field := sectionsField()
	codec := NewCodecService(store, newFixedFields(field))
	ctx := context.Background()

	// A row stored under a layout that has since been removed from the
	// definition.
	store.set("post-1", "sections", `["text_block","legacy_block"]`)
	store.set("post-1", "sections_0_content", "hello")
	store.set("post-1", "sections_1_old_field", "stale")

	edit, err := codec.Load(ctx, "post-1", field, LoadForEdit)
	require.NoError(t, err)
	require.Len(t, edit.Rows, 2)
	assert.True(t, edit.Rows[1].Unresolved)
	assert.Equal(t, "legacy_block", edit.Rows[1].Layout)
	assert.Empty(t, edit.Rows[1].Values)

	output, err := codec.Load(ctx, "post-1", field, LoadForOutput)
	require.NoError(t, err)
	require.Len(t, output.Rows, 1)

	// Re-saving both rows keeps the unresolved row's tag and stored
	// values untouched.
	require.NoError(t, codec.Update(ctx, "post-1", field, edit))
	stale, ok := store.get("post-1", "sections_1_old_field")
	assert.True(t, ok)
	assert.Equal(t, "stale", stale)
	marker, _ := store.get("post-1", "sections")
	assert.JSONEq(t, `["text_block","legacy_block"]`, marker)
}

func TestFlexibleDeleteRemovesRowsMetaAndMarker(t *testing.T) {
	store := newMemValues()
	field := sectionsField()
	codec := NewCodecService(store, newFixedFields(field))
	ctx := context.Background()

	require.NoError(t, codec.Update(ctx, "post-1", field, &models.CompositeValue{Rows: []*models.Row{
		{Index: 0, Layout: "text_block", Values: models.RowValue{"field_content": "a"}},
		{Index: 1, Layout: "image_block", Disabled: true, Values: models.RowValue{"field_img": "7"}},
	}}))

	require.NoError(t, codec.Delete(ctx, "post-1", field))

	for _, key := range []string{"sections", "_sections_layout_meta", "sections_0_content", "sections_1_img"} {
		_, ok := store.get("post-1", key)
		assert.False(t, ok, "key %s must be removed", key)
	}
}

func TestRepeaterDeleteRemovesEverything(t *testing.T) {
	store := newMemValues()
	field := galleryField()
	codec := NewCodecService(store, newFixedFields(field))
	ctx := context.Background()

	require.NoError(t, codec.Update(ctx, "post-1", field, galleryValue(
		models.RowValue{"field_image": "1", "field_caption": "a"},
		models.RowValue{"field_image": "2", "field_caption": "b"},
	)))
	require.NoError(t, codec.Delete(ctx, "post-1", field))

	assert.Empty(t, store.keys("post-1"))
}

func TestNonCompositeFieldRejected(t *testing.T) {
	store := newMemValues()
	field := &models.FieldDefinition{Key: "field_t", Name: "plain", Type: constants.FieldKindText}
	codec := NewCodecService(store, newFixedFields(field))

	_, err := codec.Load(context.Background(), "post-1", field, LoadForEdit)
	assert.Error(t, err)
}

func TestLoadThroughSeamlessClone(t *testing.T) {
	store := newMemValues()
	address := &models.FieldDefinition{
		Key:     "field_address",
		Name:    "address",
		Type:    constants.FieldKindClone,
		CloneOf: []string{"field_street", "field_city"},
		Display: constants.CloneDisplaySeamless,
	}
	field := &models.FieldDefinition{
		Key:  "field_offices",
		Name: "offices",
		Type: constants.FieldKindRepeater,
		SubFields: []*models.FieldDefinition{
			{Key: "field_label", Name: "label", Type: constants.FieldKindText},
			address,
		},
	}
	street := &models.FieldDefinition{Key: "field_street", Name: "street", Type: constants.FieldKindText}
	city := &models.FieldDefinition{Key: "field_city", Name: "city", Type: constants.FieldKindText}

	ff := newFixedFields(field)
	ff.fields["field_street"] = street
	ff.fields["field_city"] = city

	codec := NewCodecService(store, ff)
	ctx := context.Background()

	// Posted values keyed by rewritten effective keys.
	err := codec.Update(ctx, "post-1", field, galleryValue(models.RowValue{
		"field_label":              "HQ",
		"field_address_field_city": "Berlin",
	}))
	require.NoError(t, err)

	v, ok := store.get("post-1", "offices_0_city")
	require.True(t, ok)
	assert.Equal(t, "Berlin", v)

	value, err := codec.Load(ctx, "post-1", field, LoadForEdit)
	require.NoError(t, err)
	require.Len(t, value.Rows, 1)
	assert.Equal(t, "Berlin", value.Rows[0].Values["field_address_field_city"])
}

func TestLoadHidesConditionallyInvisibleSubFields(t *testing.T) {
	store := newMemValues()
	field := &models.FieldDefinition{
		Key:  "field_banner",
		Name: "banners",
		Type: constants.FieldKindRepeater,
		SubFields: []*models.FieldDefinition{
			{Key: "field_kind", Name: "kind", Type: constants.FieldKindSelect, Choices: map[string]string{"video": "Video", "still": "Still"}},
			{Key: "field_url", Name: "video_url", Type: constants.FieldKindURL, ConditionalLogic: `kind == "video"`},
		},
	}
	codec := NewCodecService(store, newFixedFields(field))
	ctx := context.Background()

	require.NoError(t, codec.Update(ctx, "post-1", field, galleryValue(
		models.RowValue{"field_kind": "still", "field_url": "https://example.com/v"},
	)))

	value, err := codec.Load(ctx, "post-1", field, LoadForEdit)
	require.NoError(t, err)
	require.Len(t, value.Rows, 1)
	assert.Contains(t, value.Rows[0].HiddenSubFields, "field_url")
	// The stored value itself is untouched.
	v, _ := store.get("post-1", "banners_0_video_url")
	assert.Equal(t, "https://example.com/v", v)
}
