package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formcraft/backend/internal/domain/ports"
)

func serverPage(total int, indices ...int) *ports.PageResult {
	rows := make(map[int]map[string]interface{}, len(indices))
	for _, i := range indices {
		rows[i] = map[string]interface{}{"title": serverTitle(i)}
	}
	return &ports.PageResult{Rows: rows, TotalRows: total}
}

func serverTitle(i int) string {
	return "server row " + string(rune('A'+i))
}

func TestMergePage_LocalEditWinsOverServerRow(t *testing.T) {
	rec := NewReconciler(20)

	// Initial fetch: page 1 with rows 0..2
	rec.MergePage(1, serverPage(3, 0, 1, 2))

	// User edits row 1 locally.
	require.NoError(t, rec.Edit("1", map[string]interface{}{"title": "local edit"}))

	// A concurrent refetch returns the server's stale copy.
	visible := rec.MergePage(1, serverPage(3, 0, 1, 2))

	require.Len(t, visible, 3)
	assert.Equal(t, "local edit", visible[1].Row["title"], "local unsaved edit must win")
	assert.Equal(t, StatusChanged, visible[1].Status)
	assert.Equal(t, serverTitle(0), visible[0].Row["title"])
}

func TestMergePage_EditSurvivesPageNavigation(t *testing.T) {
	rec := NewReconciler(20)

	// 25 rows, page size 20: page 1 has rows 0..19.
	page1 := make([]int, 20)
	for i := range page1 {
		page1[i] = i
	}
	rec.MergePage(1, serverPage(25, page1...))

	// Edit row 5 on page 1.
	require.NoError(t, rec.Edit("5", map[string]interface{}{"title": "unsaved"}))

	// Navigate to page 2, then back to page 1.
	rec.MergePage(2, serverPage(25, 20, 21, 22, 23, 24))
	visible := rec.MergePage(1, serverPage(25, page1...))

	assert.Equal(t, "unsaved", visible[5].Row["title"], "row 5 must still show the unsaved edit")
}

func TestMergePage_DeletedRowHiddenButRetained(t *testing.T) {
	rec := NewReconciler(20)
	rec.MergePage(1, serverPage(3, 0, 1, 2))

	require.NoError(t, rec.Remove("1"))

	visible := rec.MergePage(1, serverPage(3, 0, 1, 2))

	require.Len(t, visible, 2)
	assert.Equal(t, "0", visible[0].Key)
	assert.Equal(t, "2", visible[1].Key)

	row, ok := rec.Row("1")
	require.True(t, ok, "deleted row stays in local state until save")
	assert.Equal(t, StatusDeleted, row.Status)
}

func TestMergePage_InsertedRowSplicedAtAnchor(t *testing.T) {
	rec := NewReconciler(20)
	rec.MergePage(1, serverPage(2, 0, 1))

	rec.InsertBefore("local_a", map[string]interface{}{"title": "spliced"}, "1", 100)

	visible := rec.MergePage(1, serverPage(2, 0, 1))

	require.Len(t, visible, 3)
	assert.Equal(t, "0", visible[0].Key)
	assert.Equal(t, "local_a", visible[1].Key, "inserted row sits before its anchor, not appended")
	assert.Equal(t, "1", visible[2].Key)
}

func TestMergePage_AddedRowAppendedOnLastPage(t *testing.T) {
	rec := NewReconciler(20)
	rec.MergePage(1, serverPage(2, 0, 1))

	rec.Add("local_new", map[string]interface{}{"title": "appended"})

	visible := rec.MergePage(1, serverPage(2, 0, 1))

	require.Len(t, visible, 3)
	assert.Equal(t, "local_new", visible[2].Key)
}

func TestRemove_UnsavedRowDiscardedOutright(t *testing.T) {
	rec := NewReconciler(20)
	rec.Add("local_new", nil)

	require.NoError(t, rec.Remove("local_new"))

	_, ok := rec.Row("local_new")
	assert.False(t, ok)
}

func TestCommitSave_ResetsStatuses(t *testing.T) {
	rec := NewReconciler(20)
	rec.MergePage(1, serverPage(3, 0, 1, 2))

	require.NoError(t, rec.Edit("0", map[string]interface{}{"title": "x"}))
	require.NoError(t, rec.Remove("1"))
	rec.InsertBefore("local_a", nil, "2", 50)

	rec.CommitSave()

	row0, _ := rec.Row("0")
	assert.Equal(t, StatusClean, row0.Status)

	_, ok := rec.Row("1")
	assert.False(t, ok, "deleted row leaves local state on save")

	ins, _ := rec.Row("local_a")
	assert.Equal(t, StatusClean, ins.Status)
	assert.Equal(t, -1, ins.Provisional, "provisional order discarded in favor of server order")
	assert.Empty(t, ins.AnchorKey)
	assert.False(t, rec.HasUnsavedChanges())
}

func TestPageCount_TracksLocalAddsAndDeletes(t *testing.T) {
	rec := NewReconciler(20)
	page1 := make([]int, 20)
	for i := range page1 {
		page1[i] = i
	}
	rec.MergePage(1, serverPage(21, page1...))

	assert.Equal(t, 21, rec.TotalRows())
	assert.Equal(t, 2, rec.PageCount())

	// Deleting the 21st row collapses back to one page.
	rec.MergePage(2, serverPage(21, 20))
	require.NoError(t, rec.Remove("20"))

	assert.Equal(t, 20, rec.TotalRows())
	assert.Equal(t, 1, rec.PageCount())
	assert.Equal(t, 1, rec.ClampPage(2), "vanished page snaps to the new last page")
}

func TestMove_CarriesTargetOrder(t *testing.T) {
	rec := NewReconciler(20)
	rec.MergePage(1, serverPage(3, 0, 1, 2))

	require.NoError(t, rec.Move("2", 0))

	row, _ := rec.Row("2")
	assert.Equal(t, StatusReordered, row.Status)
	assert.Equal(t, 0, row.TargetOrder)
}
