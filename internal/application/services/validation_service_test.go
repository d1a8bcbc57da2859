package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formcraft/backend/internal/domain/models"
	"github.com/formcraft/backend/pkg/constants"
	apperrors "github.com/formcraft/backend/pkg/errors"
)

func TestValidateCompositeRowBounds(t *testing.T) {
	field := galleryField()
	field.MinRows = 1
	field.MaxRows = 3
	vs := NewValidationService(newFixedFields(field))

	errs := vs.ValidateComposite(field, galleryValue())
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "at least 1")

	errs = vs.ValidateComposite(field, galleryValue(
		models.RowValue{"field_caption": "a"},
		models.RowValue{"field_caption": "b"},
		models.RowValue{"field_caption": "c"},
		models.RowValue{"field_caption": "d"},
	))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "at most 3")

	errs = vs.ValidateComposite(field, galleryValue(models.RowValue{"field_caption": "a"}))
	assert.Empty(t, errs)
}

func TestValidateCompositeRequiredSubField(t *testing.T) {
	field := galleryField()
	field.SubFields[1].Required = true
	vs := NewValidationService(newFixedFields(field))

	errs := vs.ValidateComposite(field, galleryValue(
		models.RowValue{"field_image": "42"},
		models.RowValue{"field_image": "43", "field_caption": "ok"},
	))
	require.Len(t, errs, 1)
	verr, ok := errs[0].(*apperrors.ValidationError)
	require.True(t, ok)
	assert.Equal(t, "gallery_list[0].caption", verr.Path)
}

func TestValidateCompositeHiddenSubFieldSkipped(t *testing.T) {
	field := galleryField()
	field.SubFields[1].Required = true
	vs := NewValidationService(newFixedFields(field))

	value := &models.CompositeValue{Rows: []*models.Row{
		{Index: 0, Values: models.RowValue{"field_image": "42"}, HiddenSubFields: []string{"field_caption"}},
	}}
	assert.Empty(t, vs.ValidateComposite(field, value))
}

func TestValidateCompositePluginValidation(t *testing.T) {
	field := &models.FieldDefinition{
		Key:  "field_contacts",
		Name: "contacts",
		Type: constants.FieldKindRepeater,
		SubFields: []*models.FieldDefinition{
			{Key: "field_mail", Name: "mail", Type: constants.FieldKindEmail},
		},
	}
	vs := NewValidationService(newFixedFields(field))

	errs := vs.ValidateComposite(field, galleryValue(models.RowValue{"field_mail": "not-an-email"}))
	require.Len(t, errs, 1)
	verr, ok := errs[0].(*apperrors.ValidationError)
	require.True(t, ok)
	assert.Equal(t, "contacts[0].mail", verr.Path)

	errs = vs.ValidateComposite(field, galleryValue(models.RowValue{"field_mail": "a@example.com"}))
	assert.Empty(t, errs)
}

func TestValidateCompositeLayoutCounts(t *testing.T) {
	field := sectionsField()
	field.Layouts[1].MaxRows = 1
	vs := NewValidationService(newFixedFields(field))

	errs := vs.ValidateComposite(field, &models.CompositeValue{Rows: []*models.Row{
		{Index: 0, Layout: "image_block", Values: models.RowValue{"field_img": "1"}},
		{Index: 1, Layout: "image_block", Values: models.RowValue{"field_img": "2"}},
	}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "image_block")

	// Disabled rows do not count against layout bounds.
	errs = vs.ValidateComposite(field, &models.CompositeValue{Rows: []*models.Row{
		{Index: 0, Layout: "image_block", Values: models.RowValue{"field_img": "1"}},
		{Index: 1, Layout: "image_block", Disabled: true, Values: models.RowValue{"field_img": "2"}},
	}})
	assert.Empty(t, errs)
}

func TestValidateCompositeUnknownLayout(t *testing.T) {
	field := sectionsField()
	vs := NewValidationService(newFixedFields(field))

	errs := vs.ValidateComposite(field, &models.CompositeValue{Rows: []*models.Row{
		{Index: 0, Layout: "legacy_block", Values: models.RowValue{}},
	}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "legacy_block")
}

func TestValidateCompositeNestedPaths(t *testing.T) {
	field := &models.FieldDefinition{
		Key:  "field_slides",
		Name: "slides",
		Type: constants.FieldKindRepeater,
		SubFields: []*models.FieldDefinition{
			{
				Key:  "field_bullets",
				Name: "bullets",
				Type: constants.FieldKindRepeater,
				SubFields: []*models.FieldDefinition{
					{Key: "field_text", Name: "text", Type: constants.FieldKindText, Required: true},
				},
			},
		},
	}
	vs := NewValidationService(newFixedFields(field))

	nested := &models.CompositeValue{Rows: []*models.Row{
		{Index: 0, Values: models.RowValue{}},
	}}
	errs := vs.ValidateComposite(field, galleryValue(models.RowValue{"field_bullets": nested}))
	require.Len(t, errs, 1)
	verr, ok := errs[0].(*apperrors.ValidationError)
	require.True(t, ok)
	assert.Equal(t, "slides[0].bullets[0].text", verr.Path)
}
