package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/formcraft/backend/internal/application/services"
	"github.com/formcraft/backend/internal/domain/ports"
	"github.com/formcraft/backend/pkg/constants"
	"github.com/formcraft/backend/pkg/errors"
)

// RowsHandler serves paginated row pages and row titles for composite
// fields. It is the server half of the editing surface's paginator: the
// client merges these pages with its local unsaved rows.
type RowsHandler struct {
	svc *services.ServiceManager
}

func NewRowsHandler(svc *services.ServiceManager) *RowsHandler {
	return &RowsHandler{svc: svc}
}

// FetchPage returns one page of rendered rows keyed by absolute row
// index, plus the field's total row count.
// POST /api/rows/page
func (h *RowsHandler) FetchPage(c *gin.Context) {
	var req ports.PageRequest
	if !BindJSON(c, &req) {
		return
	}

	field, ok := h.svc.Metadata.Field(req.FieldKey)
	if !ok {
		RespondAppError(c, errors.NewNotFoundError("field", req.FieldKey))
		return
	}

	perPage := req.RowsPerPage
	if perPage <= 0 {
		perPage = field.RowsPerPage
	}
	if perPage <= 0 {
		perPage = constants.DefaultRowsPerPage
	}
	page := req.PageNumber
	if page < 1 {
		page = 1
	}

	value, err := h.svc.Codec.Load(c.Request.Context(), req.Subject, field, services.LoadForEdit)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	value = h.svc.Codec.Format(field, value)

	start := (page - 1) * perPage
	end := start + perPage

	result := ports.PageResult{
		Rows:      make(map[int]map[string]interface{}),
		TotalRows: len(value.Rows),
	}
	for i, row := range value.Rows {
		if i < start || i >= end {
			continue
		}
		rendered := map[string]interface{}(row.Values)
		result.Rows[i] = rendered
	}
	c.JSON(http.StatusOK, result)
}

// FetchTitle re-renders the collapsed-row title for one row from its
// current (possibly unsaved) values.
// POST /api/rows/title
func (h *RowsHandler) FetchTitle(c *gin.Context) {
	var req ports.TitleRequest
	if !BindJSON(c, &req) {
		return
	}

	field, ok := h.svc.Metadata.Field(req.FieldKey)
	if !ok {
		RespondAppError(c, errors.NewNotFoundError("field", req.FieldKey))
		return
	}

	title := h.svc.Codec.RowTitle(field, req.LayoutTag, req.RowValue)
	c.JSON(http.StatusOK, gin.H{"title": title})
}
