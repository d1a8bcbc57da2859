package ports

import "context"

// PageRequest asks an external transport for one page of rendered rows of
// a paginated composite field.
type PageRequest struct {
	Subject      string `json:"subject"`
	FieldKey     string `json:"field_key"`
	PageNumber   int    `json:"page_number"`
	RowsPerPage  int    `json:"rows_per_page"`
	ForceRefresh bool   `json:"force_refresh"`
}

// PageResult is the server's answer: rendered rows keyed by their absolute
// row index, plus the field's total row count.
type PageResult struct {
	Rows      map[int]map[string]interface{} `json:"rows"`
	TotalRows int                            `json:"total_rows"`
}

// RowSource fetches pages of rows for the reconciler. Implementations must
// honor context cancellation: a superseded fetch is cancelled, and its
// result discarded, by the caller.
type RowSource interface {
	FetchPage(ctx context.Context, req PageRequest) (*PageResult, error)
}

// TitleRequest asks for a re-rendered display title of one row.
type TitleRequest struct {
	Subject   string                 `json:"subject"`
	FieldKey  string                 `json:"field_key"`
	RowIndex  int                    `json:"row_index"`
	LayoutTag string                 `json:"layout_tag,omitempty"`
	RowValue  map[string]interface{} `json:"row_value"`
}

// TitleSource renders row titles, typically over the same transport as
// RowSource.
type TitleSource interface {
	FetchTitle(ctx context.Context, req TitleRequest) (string, error)
}
