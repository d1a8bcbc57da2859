package reconcile

import (
	"context"
	"sync"

	"github.com/formcraft/backend/internal/domain/ports"
)

// Pager drives paginated row fetching for one field instance. Fetches are
// single-flight: a new navigation supersedes any outstanding fetch for the
// same field, cancelling it and discarding its result even if it has
// already completed, since it may describe a different page than the one
// now requested.
type Pager struct {
	mu      sync.Mutex
	src     ports.RowSource
	rec     *Reconciler
	subject string
	field   string
	perPage int

	page   int
	gen    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// OnPage receives the merged visible rows after a successful fetch.
	OnPage func(page int, rows []*PendingRow)
	// OnError surfaces a failed fetch. The current page stays in place;
	// no retry is attempted.
	OnError func(page int, err error)
}

// NewPager creates a pager over the given row source and reconciler.
func NewPager(src ports.RowSource, rec *Reconciler, subject, fieldKey string, rowsPerPage int) *Pager {
	return &Pager{
		src:     src,
		rec:     rec,
		subject: subject,
		field:   fieldKey,
		perPage: rowsPerPage,
		page:    1,
	}
}

// Page returns the currently applied page number.
func (p *Pager) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// Goto navigates to a page. Any in-flight fetch is cancelled and its
// result, should it still arrive, is discarded.
func (p *Pager) Goto(ctx context.Context, page int) {
	p.fetch(ctx, page, false)
}

// Refresh re-fetches the current page bypassing server-side caching.
func (p *Pager) Refresh(ctx context.Context) {
	p.mu.Lock()
	page := p.page
	p.mu.Unlock()
	p.fetch(ctx, page, true)
}

// EnsureValidPage re-fetches when a row-count change has left the current
// page beyond the new last page.
func (p *Pager) EnsureValidPage(ctx context.Context) {
	p.mu.Lock()
	page := p.page
	clamped := p.rec.ClampPage(page)
	p.mu.Unlock()
	if clamped != page {
		p.fetch(ctx, clamped, false)
	}
}

func (p *Pager) fetch(ctx context.Context, page int, force bool) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
	gen := p.gen
	fetchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	req := ports.PageRequest{
		Subject:      p.subject,
		FieldKey:     p.field,
		PageNumber:   page,
		RowsPerPage:  p.perPage,
		ForceRefresh: force,
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		result, err := p.src.FetchPage(fetchCtx, req)
		p.apply(gen, page, result, err)
	}()
}

func (p *Pager) apply(gen uint64, page int, result *ports.PageResult, err error) {
	p.mu.Lock()
	if gen != p.gen {
		// Superseded by a newer navigation: discard.
		p.mu.Unlock()
		return
	}
	p.cancel = nil

	if err != nil {
		onError := p.OnError
		p.mu.Unlock()
		if onError != nil {
			onError(page, err)
		}
		return
	}

	rows := p.rec.MergePage(page, result)
	p.page = page
	onPage := p.OnPage
	p.mu.Unlock()

	if onPage != nil {
		onPage(page, rows)
	}
}

// Wait blocks until no fetch is outstanding. Intended for tests and
// teardown.
func (p *Pager) Wait() {
	p.wg.Wait()
}
