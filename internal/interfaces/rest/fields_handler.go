package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/formcraft/backend/internal/application/services"
	"github.com/formcraft/backend/internal/domain/models"
	"github.com/formcraft/backend/internal/domain/resolver"
	"github.com/formcraft/backend/pkg/errors"
)

// FieldsHandler serves field group definitions and the clone source
// picker.
type FieldsHandler struct {
	svc *services.ServiceManager
}

func NewFieldsHandler(svc *services.ServiceManager) *FieldsHandler {
	return &FieldsHandler{svc: svc}
}

// GetFieldGroups returns all field groups.
// GET /api/field-groups
func (h *FieldsHandler) GetFieldGroups(c *gin.Context) {
	HandleGetEnvelope(c, "field_groups", func() (interface{}, error) {
		return h.svc.Metadata.FieldGroups(), nil
	})
}

// GetFieldGroup returns one field group by key.
// GET /api/field-groups/:key
func (h *FieldsHandler) GetFieldGroup(c *gin.Context) {
	key := c.Param("key")
	HandleGetEnvelope(c, "field_group", func() (interface{}, error) {
		group, ok := h.svc.Metadata.FieldGroup(key)
		if !ok {
			return nil, errors.NewNotFoundError("field group", key)
		}
		return group, nil
	})
}

// SaveFieldGroup creates or updates a field group definition.
// POST /api/field-groups
func (h *FieldsHandler) SaveFieldGroup(c *gin.Context) {
	var group models.FieldGroup
	if !BindJSON(c, &group) {
		return
	}
	if err := h.svc.Metadata.SaveFieldGroup(c.Request.Context(), &group); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Field group saved", "field_group": group})
}

// DeleteFieldGroup removes a field group definition. Stored values of its
// fields are intentionally left untouched.
// DELETE /api/field-groups/:key
func (h *FieldsHandler) DeleteFieldGroup(c *gin.Context) {
	key := c.Param("key")
	if err := h.svc.Metadata.DeleteFieldGroup(c.Request.Context(), key); err != nil {
		RespondAppError(c, err)
		return
	}
	RespondMessage(c, http.StatusOK, "Field group deleted")
}

// GetCloneSelectors returns the grouped picker of clone source
// candidates. The field being edited is excluded so it cannot select
// itself.
// GET /api/field-groups/clone-selectors?exclude=field_xxx
func (h *FieldsHandler) GetCloneSelectors(c *gin.Context) {
	exclude := c.Query("exclude")
	HandleGetEnvelope(c, "selectors", func() (interface{}, error) {
		return resolver.ListSelectors(h.svc.Metadata, exclude), nil
	})
}
