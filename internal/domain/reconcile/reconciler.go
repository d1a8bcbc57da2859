package reconcile

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/formcraft/backend/internal/domain/ports"
)

// PendingRow is one row as the editing surface sees it: the last known
// rendered payload plus the transient status tracking unsaved local edits.
type PendingRow struct {
	// Key identifies the row across merges: the server row index as a
	// string for persisted rows, a caller-generated key for new rows.
	Key    string
	Status RowStatus

	// ServerOrder is the last server-confirmed order, -1 for local-only
	// rows. TargetOrder carries a reorder destination; Provisional is the
	// order number an inserted row holds until the server renumbers.
	ServerOrder int
	TargetOrder int
	Provisional int

	// AnchorKey is the server row an inserted row is spliced before.
	AnchorKey string

	Row map[string]interface{}
}

// Reconciler merges server-fetched pages of rows with locally pending,
// unsaved edits. Local edits always win over a concurrently fetched server
// copy: data the user entered and has not saved is never silently
// discarded by a background refresh.
type Reconciler struct {
	machine     *StatusMachine
	rowsPerPage int

	serverTotal int
	rows        map[string]*PendingRow
}

// NewReconciler creates a reconciler for one composite field instance.
func NewReconciler(rowsPerPage int) *Reconciler {
	if rowsPerPage <= 0 {
		rowsPerPage = 1
	}
	return &Reconciler{
		machine:     NewStatusMachine(),
		rowsPerPage: rowsPerPage,
		rows:        make(map[string]*PendingRow),
	}
}

// Row returns the locally known row for a key, if any.
func (r *Reconciler) Row(key string) (*PendingRow, bool) {
	row, ok := r.rows[key]
	return row, ok
}

// Edit records a sub-field edit on an existing row.
func (r *Reconciler) Edit(key string, values map[string]interface{}) error {
	row, ok := r.rows[key]
	if !ok {
		return fmt.Errorf("unknown row '%s'", key)
	}
	next, err := r.machine.Transition(row.Status, ActionEdit)
	if err != nil {
		return err
	}
	row.Status = next
	for k, v := range values {
		if row.Row == nil {
			row.Row = make(map[string]interface{})
		}
		row.Row[k] = v
	}
	return nil
}

// Add appends a new, unsaved row at the end.
func (r *Reconciler) Add(key string, values map[string]interface{}) *PendingRow {
	row := &PendingRow{
		Key:         key,
		Status:      StatusAdded,
		ServerOrder: -1,
		TargetOrder: -1,
		Provisional: -1,
		Row:         values,
	}
	r.rows[key] = row
	return row
}

// InsertBefore splices a new, unsaved row before an existing row. The
// provisional order number is distinct from final row numbering, which is
// only authoritative once the server has persisted and renumbered rows.
func (r *Reconciler) InsertBefore(key string, values map[string]interface{}, anchorKey string, provisional int) *PendingRow {
	row := &PendingRow{
		Key:         key,
		Status:      StatusInserted,
		ServerOrder: -1,
		TargetOrder: -1,
		Provisional: provisional,
		AnchorKey:   anchorKey,
		Row:         values,
	}
	r.rows[key] = row
	return row
}

// Remove deletes a row from view. A row the server has never seen is
// discarded outright; a persisted row is retained hidden until the next
// successful save, enabling undo-by-navigation.
func (r *Reconciler) Remove(key string) error {
	row, ok := r.rows[key]
	if !ok {
		return fmt.Errorf("unknown row '%s'", key)
	}
	if row.Status == StatusAdded || row.Status == StatusInserted {
		delete(r.rows, key)
		return nil
	}
	next, err := r.machine.Transition(row.Status, ActionRemove)
	if err != nil {
		return err
	}
	row.Status = next
	return nil
}

// Move records a changed display order for a row, carrying the new target.
func (r *Reconciler) Move(key string, targetOrder int) error {
	row, ok := r.rows[key]
	if !ok {
		return fmt.Errorf("unknown row '%s'", key)
	}
	next, err := r.machine.Transition(row.Status, ActionMove)
	if err != nil {
		return err
	}
	row.Status = next
	row.TargetOrder = targetOrder
	return nil
}

// MergePage merges a freshly fetched page into local state and returns the
// visible row sequence for that page. For every server row key: a local row
// in any non-Clean state wins and the server copy is discarded; Deleted
// rows stay hidden but are not dropped from local state; Inserted rows are
// spliced at their recorded anchor rather than appended.
func (r *Reconciler) MergePage(page int, result *ports.PageResult) []*PendingRow {
	r.serverTotal = result.TotalRows

	indices := make([]int, 0, len(result.Rows))
	for i := range result.Rows {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	var visible []*PendingRow
	for _, idx := range indices {
		key := strconv.Itoa(idx)

		// Splice any locally inserted rows anchored to this server row.
		for _, ins := range r.insertedBefore(key) {
			visible = append(visible, ins)
		}

		local, ok := r.rows[key]
		if ok && r.machine.IsDirty(local.Status) {
			if local.Status == StatusDeleted {
				continue
			}
			visible = append(visible, local)
			continue
		}

		row := &PendingRow{
			Key:         key,
			Status:      StatusClean,
			ServerOrder: idx,
			TargetOrder: -1,
			Provisional: -1,
			Row:         result.Rows[idx],
		}
		r.rows[key] = row
		visible = append(visible, row)
	}

	// Appended rows show after the last server row of the last page.
	if page >= r.PageCount() {
		for _, key := range r.sortedLocalKeys() {
			row := r.rows[key]
			if row.Status == StatusAdded {
				visible = append(visible, row)
			}
		}
	}

	return visible
}

func (r *Reconciler) insertedBefore(anchorKey string) []*PendingRow {
	var out []*PendingRow
	for _, key := range r.sortedLocalKeys() {
		row := r.rows[key]
		if row.Status == StatusInserted && row.AnchorKey == anchorKey {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Provisional < out[j].Provisional
	})
	return out
}

func (r *Reconciler) sortedLocalKeys() []string {
	keys := make([]string, 0, len(r.rows))
	for k := range r.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CommitSave marks every row saved: Deleted rows leave local state, all
// others reset to Clean and drop their provisional order markers. The
// subsequent server reload supplies the canonical order.
func (r *Reconciler) CommitSave() {
	for key, row := range r.rows {
		if row.Status == StatusDeleted {
			delete(r.rows, key)
			continue
		}
		next, err := r.machine.Transition(row.Status, ActionSave)
		if err != nil {
			// Save is defined from every status; nothing to do but keep
			// the row as-is.
			continue
		}
		row.Status = next
		row.TargetOrder = -1
		row.Provisional = -1
		row.AnchorKey = ""
	}
}

// TotalRows returns the effective row count: the server total adjusted by
// local adds and deletes.
func (r *Reconciler) TotalRows() int {
	total := r.serverTotal
	for _, row := range r.rows {
		switch row.Status {
		case StatusAdded, StatusInserted:
			total++
		case StatusDeleted:
			total--
		}
	}
	if total < 0 {
		total = 0
	}
	return total
}

// PageCount derives the page count from the effective total. There is
// always at least one page.
func (r *Reconciler) PageCount() int {
	total := r.TotalRows()
	pages := (total + r.rowsPerPage - 1) / r.rowsPerPage
	if pages < 1 {
		pages = 1
	}
	return pages
}

// ClampPage snaps a page number into the currently valid range. A page
// that no longer exists after a row-count change maps to the new last page.
func (r *Reconciler) ClampPage(page int) int {
	if page < 1 {
		return 1
	}
	if max := r.PageCount(); page > max {
		return max
	}
	return page
}

// HasUnsavedChanges reports whether any row carries a non-Clean status.
func (r *Reconciler) HasUnsavedChanges() bool {
	for _, row := range r.rows {
		if r.machine.IsDirty(row.Status) {
			return true
		}
	}
	return false
}
