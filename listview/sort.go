package listview

import (
	"sort"
	"strings"
	"time"

	"github.com/ckarsten/watchdeck/models"
)

// SortSpec is a single-column sort declaration.
type SortSpec struct {
	Column ColumnID
	Desc   bool
}

// sortEntries stably sorts rows by the spec; ties keep their original
// relative order. An empty column leaves the order untouched.
func sortEntries(rows []models.Entry, spec SortSpec) {
	if spec.Column == "" {
		return
	}
	less := lessFunc(spec.Column)
	if less == nil {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if spec.Desc {
			return less(rows[j], rows[i])
		}
		return less(rows[i], rows[j])
	})
}

// lessFunc returns the ascending comparator for a column, or nil for
// non-sortable columns. Absent optional values order before present ones.
func lessFunc(col ColumnID) func(a, b models.Entry) bool {
	switch col {
	case ColumnTitle:
		return func(a, b models.Entry) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	case ColumnMediaType:
		return func(a, b models.Entry) bool { return a.MediaType < b.MediaType }
	case ColumnWatched:
		return func(a, b models.Entry) bool { return !a.Watched && b.Watched }
	case ColumnFavorite:
		return func(a, b models.Entry) bool { return !a.Favorite && b.Favorite }
	case ColumnDateAdded:
		return func(a, b models.Entry) bool { return a.DateAdded.Before(b.DateAdded) }
	case ColumnDateWatched:
		return func(a, b models.Entry) bool { return timePtrBefore(a.DateWatched, b.DateWatched) }
	case ColumnUserRating:
		return func(a, b models.Entry) bool { return floatPtrLess(a.UserRating, b.UserRating) }
	case ColumnPriority:
		return func(a, b models.Entry) bool { return intPtrLess(a.Priority, b.Priority) }
	case ColumnRecommendedBy:
		return func(a, b models.Entry) bool { return stringPtrLess(a.RecommendedBy, b.RecommendedBy) }
	default:
		return nil
	}
}

func timePtrBefore(a, b *time.Time) bool {
	switch {
	case a == nil:
		return b != nil
	case b == nil:
		return false
	default:
		return a.Before(*b)
	}
}

func floatPtrLess(a, b *float64) bool {
	switch {
	case a == nil:
		return b != nil
	case b == nil:
		return false
	default:
		return *a < *b
	}
}

func intPtrLess(a, b *int) bool {
	switch {
	case a == nil:
		return b != nil
	case b == nil:
		return false
	default:
		return *a < *b
	}
}

func stringPtrLess(a, b *string) bool {
	switch {
	case a == nil:
		return b != nil
	case b == nil:
		return false
	default:
		return strings.ToLower(*a) < strings.ToLower(*b)
	}
}
