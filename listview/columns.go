package listview

// ColumnID identifies a declared table column.
type ColumnID string

const (
	ColumnTitle         ColumnID = "title"
	ColumnMediaType     ColumnID = "mediaType"
	ColumnWatched       ColumnID = "watched"
	ColumnDateWatched   ColumnID = "dateWatched"
	ColumnDateAdded     ColumnID = "dateAdded"
	ColumnUserRating    ColumnID = "userRating"
	ColumnPriority      ColumnID = "priority"
	ColumnFavorite      ColumnID = "favorite"
	ColumnRecommendedBy ColumnID = "recommendedBy"
	ColumnActions       ColumnID = "actions"
)

// allColumns is the declared column order.
var allColumns = []ColumnID{
	ColumnTitle, ColumnMediaType, ColumnWatched, ColumnDateWatched,
	ColumnDateAdded, ColumnUserRating, ColumnPriority, ColumnFavorite,
	ColumnRecommendedBy, ColumnActions,
}

// VisibleColumns computes which columns the table shows for a given role and
// tab. Non-admins never see the actions column. Tab-dependent suppression:
// the watched tab drops the redundant watched flag and the priority column
// (priority matters for unwatched entries); the not-watched tab drops
// watched, dateWatched and favorite, the latter two inapplicable by
// invariant.
func VisibleColumns(isAdmin bool, tab Tab) []ColumnID {
	hidden := map[ColumnID]bool{}
	switch tab {
	case TabWatched:
		hidden[ColumnWatched] = true
		hidden[ColumnPriority] = true
	case TabNotWatched:
		hidden[ColumnWatched] = true
		hidden[ColumnDateWatched] = true
		hidden[ColumnFavorite] = true
	}
	if !isAdmin {
		hidden[ColumnActions] = true
	}

	cols := make([]ColumnID, 0, len(allColumns))
	for _, col := range allColumns {
		if !hidden[col] {
			cols = append(cols, col)
		}
	}
	return cols
}

// ColumnInteractive reports whether a cell renders as an interactive control.
// For non-admins the watched and favorite cells are static text.
func ColumnInteractive(isAdmin bool, col ColumnID) bool {
	switch col {
	case ColumnWatched, ColumnFavorite, ColumnActions:
		return isAdmin
	default:
		return false
	}
}
