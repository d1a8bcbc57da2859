package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/formcraft/backend/internal/application/services"
	"github.com/formcraft/backend/internal/domain/models"
	"github.com/formcraft/backend/pkg/errors"
)

// ValuesHandler serves composite field values: load for editing or
// display, update, and delete.
type ValuesHandler struct {
	svc *services.ServiceManager
}

func NewValuesHandler(svc *services.ServiceManager) *ValuesHandler {
	return &ValuesHandler{svc: svc}
}

func (h *ValuesHandler) field(c *gin.Context) (*models.FieldDefinition, bool) {
	key := c.Param("field")
	field, ok := h.svc.Metadata.Field(key)
	if !ok {
		RespondAppError(c, errors.NewNotFoundError("field", key))
		return nil, false
	}
	return field, true
}

// GetValue loads a composite field's value.
// GET /api/subjects/:subject/fields/:field?mode=edit|output
func (h *ValuesHandler) GetValue(c *gin.Context) {
	field, ok := h.field(c)
	if !ok {
		return
	}
	subject := c.Param("subject")

	mode := services.LoadForEdit
	if c.DefaultQuery("mode", "edit") == "output" {
		mode = services.LoadForOutput
	}

	value, err := h.svc.Codec.Load(c.Request.Context(), subject, field, mode)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if mode == services.LoadForOutput {
		value = h.svc.Codec.Format(field, value)
	}
	c.JSON(http.StatusOK, gin.H{"value": value})
}

// UpdateValue validates and writes a composite field's value.
// PUT /api/subjects/:subject/fields/:field
func (h *ValuesHandler) UpdateValue(c *gin.Context) {
	field, ok := h.field(c)
	if !ok {
		return
	}
	subject := c.Param("subject")

	var body struct {
		Value *models.CompositeValue `json:"value" binding:"required"`
	}
	if !BindJSON(c, &body) {
		return
	}

	if errs := h.svc.Validation.ValidateComposite(field, body.Value); len(errs) > 0 {
		details := make([]errors.ErrorResponse, len(errs))
		for i, err := range errs {
			details[i] = errors.ToResponse(err)
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Validation failed",
			"errors":  details,
		})
		return
	}

	if err := h.svc.Codec.Update(c.Request.Context(), subject, field, body.Value); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondMessage(c, http.StatusOK, "Value saved")
}

// DeleteValue removes a composite field's value entirely.
// DELETE /api/subjects/:subject/fields/:field
func (h *ValuesHandler) DeleteValue(c *gin.Context) {
	field, ok := h.field(c)
	if !ok {
		return
	}
	subject := c.Param("subject")

	if err := h.svc.Codec.Delete(c.Request.Context(), subject, field); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondMessage(c, http.StatusOK, "Value deleted")
}
