package listview

import (
	"context"
	"sync"

	"github.com/ckarsten/watchdeck/models"
)

// PageSizes are the selectable page sizes.
var PageSizes = []int{5, 10, 25, 50}

const defaultPageSize = 10

// View is the synchronized list view over the watchlist snapshot. The
// snapshot is the sole owner of optimistic state; the server record is the
// eventual source of truth and every optimistic edit is reconciled or
// reverted against it.
//
// All methods are safe for concurrent use. State transitions happen under a
// single mutex; network round trips run outside it so mutating one entry
// never blocks interaction with another.
type View struct {
	client *Client
	notify Notifier

	mu       sync.Mutex
	isAdmin  bool
	snapshot []models.Entry
	loading  bool
	fetchGen uint64 // invalidates stale fetch completions

	filters   Filters
	sortSpec  SortSpec
	pageIndex int
	pageSize  int

	inflight map[mutationKey]struct{}
}

// mutationKey identifies one in-flight mutation: at most one per entry per
// action type.
type mutationKey struct {
	id     int64
	action string
}

// NewView builds a view bound to a client. isAdmin is an opaque boolean
// resolved by the external auth collaborator (Client.CheckAdmin); the view
// never performs authentication itself.
func NewView(client *Client, notify Notifier, isAdmin bool) *View {
	if notify == nil {
		notify = slogNotifier{}
	}
	return &View{
		client:   client,
		notify:   notify,
		isAdmin:  isAdmin,
		filters:  Filters{Tab: TabAll},
		pageSize: defaultPageSize,
		inflight: make(map[mutationKey]struct{}),
	}
}

// Load fetches the snapshot from the server, replacing local state. On
// terminal fetch failure the snapshot becomes empty — stale data is never
// shown. A Load superseded by a newer Load (or by Close) does not write its
// result back.
func (v *View) Load(ctx context.Context) error {
	v.mu.Lock()
	v.loading = true
	v.fetchGen++
	gen := v.fetchGen
	v.mu.Unlock()

	entries, err := v.client.FetchAll(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.fetchGen {
		// A newer load owns the snapshot now.
		return nil
	}
	v.loading = false
	if err != nil {
		v.snapshot = []models.Entry{}
		return err
	}
	v.snapshot = entries
	v.clampPage()
	return nil
}

// Loading reports whether a fetch is in progress.
func (v *View) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// IsAdmin reports the role flag the view was built with.
func (v *View) IsAdmin() bool { return v.isAdmin }

// Snapshot returns a copy of the full in-memory entry collection.
func (v *View) Snapshot() []models.Entry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Entry(nil), v.snapshot...)
}

// Filters returns the current filter state.
func (v *View) Filters() Filters {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filters
}

// SetQuery sets the title substring filter and resets to the first page.
func (v *View) SetQuery(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters.Query = q
	v.pageIndex = 0
}

// SetTab switches the watched tab. Switching to the not-watched tab clears
// the favorite filter — an unwatched entry is never a favorite, so a stale
// favorite constraint would silently hide every row.
func (v *View) SetTab(tab Tab) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters.Tab = tab
	if tab == TabNotWatched {
		v.filters.Favorite = FavoriteAny
	}
	v.pageIndex = 0
}

// SetMediaType sets the media-type filter; empty clears it.
func (v *View) SetMediaType(mt models.MediaType) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters.MediaType = mt
	v.pageIndex = 0
}

// SetFavorite sets the favorite tri-state. Ignored on the not-watched tab,
// where the control is hidden.
func (v *View) SetFavorite(f FavoriteFilter) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.filters.Tab == TabNotWatched {
		return
	}
	v.filters.Favorite = f
	v.pageIndex = 0
}

// SetSort declares the sort column and direction.
func (v *View) SetSort(col ColumnID, desc bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sortSpec = SortSpec{Column: col, Desc: desc}
}

// Sort returns the current sort spec.
func (v *View) Sort() SortSpec {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sortSpec
}

// SetPageSize selects a page size from PageSizes; other values are ignored.
// The current page is re-clamped against the new size.
func (v *View) SetPageSize(size int) {
	allowed := false
	for _, s := range PageSizes {
		if s == size {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pageSize = size
	v.clampPage()
}

// SetPage moves to the given zero-based page index, clamped to the valid
// range for the current filtered set.
func (v *View) SetPage(index int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pageIndex = index
	v.clampPage()
}

// Page returns the current zero-based page index and the page size.
func (v *View) Page() (index, size int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clampPage()
	return v.pageIndex, v.pageSize
}

// PageCount returns the number of pages in the current filtered set. An
// empty set still has one (empty) page.
func (v *View) PageCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return pageCount(len(visibleRows(v.snapshot, v.filters)), v.pageSize)
}

// VisibleRows derives the rows the table renders: filter, stable sort, then
// slice the current page. The page index is clamped first so a filter change
// that shrinks the set never renders a dangling empty page.
func (v *View) VisibleRows() []models.Entry {
	v.mu.Lock()
	defer v.mu.Unlock()

	rows := visibleRows(v.snapshot, v.filters)
	sortEntries(rows, v.sortSpec)

	v.clampPage()
	start := v.pageIndex * v.pageSize
	if start >= len(rows) {
		return []models.Entry{}
	}
	end := start + v.pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// Columns returns the role- and tab-gated column set.
func (v *View) Columns() []ColumnID {
	v.mu.Lock()
	defer v.mu.Unlock()
	return VisibleColumns(v.isAdmin, v.filters.Tab)
}

// clampPage pulls pageIndex back into the valid range for the filtered set.
// Callers must hold mu.
func (v *View) clampPage() {
	last := pageCount(len(visibleRows(v.snapshot, v.filters)), v.pageSize) - 1
	if v.pageIndex > last {
		v.pageIndex = last
	}
	if v.pageIndex < 0 {
		v.pageIndex = 0
	}
}

func pageCount(rows, pageSize int) int {
	if rows == 0 || pageSize <= 0 {
		return 1
	}
	return (rows + pageSize - 1) / pageSize
}

// findEntry returns the index of the entry with the given ID, or -1.
// Callers must hold mu.
func (v *View) findEntry(id int64) int {
	for i := range v.snapshot {
		if v.snapshot[i].ID == id {
			return i
		}
	}
	return -1
}
