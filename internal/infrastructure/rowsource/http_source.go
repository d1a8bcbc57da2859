package rowsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/formcraft/backend/internal/domain/ports"
)

// HTTPSource fetches row pages and row titles from a remote rendering
// endpoint. Requests carry the caller's context so a superseded page fetch
// is aborted at the transport level, not just discarded.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchPage implements ports.RowSource.
func (s *HTTPSource) FetchPage(ctx context.Context, req ports.PageRequest) (*ports.PageResult, error) {
	var result ports.PageResult
	if err := s.post(ctx, "/api/rows/page", req, &result); err != nil {
		return nil, err
	}
	if result.Rows == nil {
		result.Rows = make(map[int]map[string]interface{})
	}
	return &result, nil
}

// FetchTitle implements ports.TitleSource.
func (s *HTTPSource) FetchTitle(ctx context.Context, req ports.TitleRequest) (string, error) {
	var result struct {
		Title string `json:"title"`
	}
	if err := s.post(ctx, "/api/rows/title", req, &result); err != nil {
		return "", err
	}
	return result.Title, nil
}

func (s *HTTPSource) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("row source returned %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
