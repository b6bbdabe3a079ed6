package listview

import (
	"strings"

	"github.com/ckarsten/watchdeck/models"
)

// Tab is one of the three mutually exclusive top-level filters over watched
// status.
type Tab int

const (
	TabWatched Tab = iota
	TabNotWatched
	TabAll
)

// FavoriteFilter is the tri-state favorite constraint.
type FavoriteFilter int

const (
	FavoriteAny FavoriteFilter = iota
	FavoriteOnly
	FavoriteExcluded
)

// Filters is the full filter state. All constraints compose with logical AND.
type Filters struct {
	// Query is a case-insensitive title substring; empty matches all.
	Query string
	// Tab constrains the watched flag.
	Tab Tab
	// MediaType is an exact constraint; empty means no constraint.
	MediaType models.MediaType
	// Favorite only applies when Tab != TabNotWatched — an unwatched entry is
	// never a favorite, so the control is cleared and hidden on that tab.
	Favorite FavoriteFilter
}

// ShowFavoriteFilter reports whether the favorite control is applicable for
// the given tab.
func ShowFavoriteFilter(tab Tab) bool {
	return tab != TabNotWatched
}

// visibleRows derives the display subset of the snapshot. It is a pure
// function: the result is always a subset of snapshot and re-applying the
// same filters is idempotent.
func visibleRows(snapshot []models.Entry, f Filters) []models.Entry {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	rows := make([]models.Entry, 0, len(snapshot))
	for _, e := range snapshot {
		if query != "" && !strings.Contains(strings.ToLower(e.Title), query) {
			continue
		}
		if f.MediaType != "" && e.MediaType != f.MediaType {
			continue
		}
		switch f.Tab {
		case TabWatched:
			if !e.Watched {
				continue
			}
		case TabNotWatched:
			if e.Watched {
				continue
			}
		}
		if f.Tab != TabNotWatched {
			if f.Favorite == FavoriteOnly && !e.Favorite {
				continue
			}
			if f.Favorite == FavoriteExcluded && e.Favorite {
				continue
			}
		}
		rows = append(rows, e)
	}
	return rows
}
