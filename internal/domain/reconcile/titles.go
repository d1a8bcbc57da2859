package reconcile

import (
	"context"
	"sync"

	"github.com/formcraft/backend/internal/domain/ports"
)

// TitleRefresher keeps collapsed-row titles current while a row is being
// edited. Refreshes are debounced per edit kind and single-flight per row:
// a newer edit of the same row supersedes the outstanding render.
type TitleRefresher struct {
	mu      sync.Mutex
	src     ports.TitleSource
	deb     *Debouncer
	subject string
	field   string

	gens    map[string]uint64
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup

	// OnTitle receives the freshly rendered title for a row key.
	OnTitle func(rowKey, title string)
	// OnError surfaces a failed render; the stale title stays visible.
	OnError func(rowKey string, err error)
}

// NewTitleRefresher creates a refresher over the given title source.
func NewTitleRefresher(src ports.TitleSource, deb *Debouncer, subject, fieldKey string) *TitleRefresher {
	return &TitleRefresher{
		src:     src,
		deb:     deb,
		subject: subject,
		field:   fieldKey,
		gens:    make(map[string]uint64),
		cancels: make(map[string]context.CancelFunc),
	}
}

// RowEdited schedules a debounced title re-render for one row from its
// current (possibly unsaved) values.
func (t *TitleRefresher) RowEdited(ctx context.Context, rowKey string, row *PendingRow, cosmeticEdit bool) {
	req := ports.TitleRequest{
		Subject:  t.subject,
		FieldKey: t.field,
		RowIndex: row.ServerOrder,
		RowValue: row.Row,
	}
	if tag, ok := row.Row["layout"].(string); ok {
		req.LayoutTag = tag
	}
	t.deb.Trigger(cosmeticEdit, func() {
		t.fetch(ctx, rowKey, req)
	})
}

func (t *TitleRefresher) fetch(ctx context.Context, rowKey string, req ports.TitleRequest) {
	t.mu.Lock()
	if cancel := t.cancels[rowKey]; cancel != nil {
		cancel()
	}
	t.gens[rowKey]++
	gen := t.gens[rowKey]
	fetchCtx, cancel := context.WithCancel(ctx)
	t.cancels[rowKey] = cancel
	t.mu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		title, err := t.src.FetchTitle(fetchCtx, req)
		t.apply(gen, rowKey, title, err)
	}()
}

func (t *TitleRefresher) apply(gen uint64, rowKey, title string, err error) {
	t.mu.Lock()
	if gen != t.gens[rowKey] {
		t.mu.Unlock()
		return
	}
	delete(t.cancels, rowKey)
	onTitle, onError := t.OnTitle, t.OnError
	t.mu.Unlock()

	if err != nil {
		if onError != nil {
			onError(rowKey, err)
		}
		return
	}
	if onTitle != nil {
		onTitle(rowKey, title)
	}
}

// Wait blocks until no render is outstanding. Intended for tests and
// teardown.
func (t *TitleRefresher) Wait() {
	t.deb.Stop()
	t.wg.Wait()
}
