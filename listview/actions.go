package listview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ckarsten/watchdeck/models"
)

var (
	// ErrBusy is returned when the same action is already in flight for the
	// entry. The UI disables the affected control for the duration of the
	// call; this guard backs that up at the coordinator level.
	ErrBusy = errors.New("listview: mutation already in flight for this entry")
	// ErrNotAdmin is returned when a non-admin invokes an admin-only action.
	ErrNotAdmin = errors.New("listview: admin access required")
	// ErrNotWatched is returned when favoriting an unwatched entry; a
	// non-watched entry is never a favorite.
	ErrNotWatched = errors.New("listview: cannot favorite an unwatched entry")
	// ErrMissingRecommender is returned when a non-admin submits a
	// recommendation without a name. Caught before any network call.
	ErrMissingRecommender = errors.New("listview: recommender name is required")
)

const (
	actionWatched  = "watched"
	actionFavorite = "favorite"
	actionDelete   = "delete"
	actionEdit     = "edit"
)

// beginMutation registers an in-flight mutation for (id, action).
// Callers must hold mu.
func (v *View) beginMutation(id int64, action string) bool {
	key := mutationKey{id: id, action: action}
	if _, busy := v.inflight[key]; busy {
		return false
	}
	v.inflight[key] = struct{}{}
	return true
}

// endMutation clears the in-flight marker. Callers must hold mu.
func (v *View) endMutation(id int64, action string) {
	delete(v.inflight, mutationKey{id: id, action: action})
}

// ToggleWatched flips the watched flag optimistically, then reconciles with
// the server. Marking an entry unwatched clears dateWatched, userRating and
// favorite in the same local update, atomically with the flip, before the
// request is issued. On failure only the watched boolean is reverted — the
// cleared side effects stay cleared, matching the product's behavior.
func (v *View) ToggleWatched(ctx context.Context, id int64) error {
	v.mu.Lock()
	if !v.beginMutation(id, actionWatched) {
		v.mu.Unlock()
		return ErrBusy
	}
	idx := v.findEntry(id)
	if idx < 0 {
		v.endMutation(id, actionWatched)
		v.mu.Unlock()
		return ErrNotFound
	}

	e := &v.snapshot[idx]
	prevWatched := e.Watched
	newWatched := !prevWatched
	title := e.Title

	e.Watched = newWatched
	patch := models.Patch{Watched: models.Set(newWatched)}
	if !newWatched {
		e.DateWatched = nil
		e.UserRating = nil
		e.Favorite = false
		patch.DateWatched = models.Null[time.Time]()
		patch.UserRating = models.Null[float64]()
		patch.Favorite = models.Set(false)
	}
	v.mu.Unlock()

	updated, err := v.client.Update(ctx, id, patch)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.endMutation(id, actionWatched)
	idx = v.findEntry(id)
	if err != nil {
		// Revert strictly the toggled boolean, not the cleared side effects.
		if idx >= 0 {
			v.snapshot[idx].Watched = prevWatched
		}
		v.notify.Error("Failed to update watched status")
		return err
	}
	if idx >= 0 {
		// Server wins over the optimistic value.
		v.snapshot[idx] = updated
	}
	if newWatched {
		v.notify.Info(fmt.Sprintf("Marked %q as watched", title))
	} else {
		v.notify.Info(fmt.Sprintf("Marked %q as not watched", title))
	}
	return nil
}

// ToggleFavorite flips the favorite flag optimistically. Unwatched entries
// cannot be favorited; the call is rejected before any state change.
func (v *View) ToggleFavorite(ctx context.Context, id int64) error {
	v.mu.Lock()
	if !v.beginMutation(id, actionFavorite) {
		v.mu.Unlock()
		return ErrBusy
	}
	idx := v.findEntry(id)
	if idx < 0 {
		v.endMutation(id, actionFavorite)
		v.mu.Unlock()
		return ErrNotFound
	}
	e := &v.snapshot[idx]
	if !e.Watched {
		v.endMutation(id, actionFavorite)
		v.mu.Unlock()
		return ErrNotWatched
	}

	prev := e.Favorite
	next := !prev
	title := e.Title
	e.Favorite = next
	v.mu.Unlock()

	updated, err := v.client.Update(ctx, id, models.Patch{Favorite: models.Set(next)})

	v.mu.Lock()
	defer v.mu.Unlock()
	v.endMutation(id, actionFavorite)
	idx = v.findEntry(id)
	if err != nil {
		if idx >= 0 {
			v.snapshot[idx].Favorite = prev
		}
		v.notify.Error("Failed to update favorite status")
		return err
	}
	if idx >= 0 {
		v.snapshot[idx] = updated
	}
	if next {
		v.notify.Info(fmt.Sprintf("Added %q to favorites", title))
	} else {
		v.notify.Info(fmt.Sprintf("Removed %q from favorites", title))
	}
	return nil
}

// Delete removes an entry, admin only. The row disappears from the snapshot
// immediately; if the request fails for any reason other than not-found the
// row is restored at its original position. A not-found response means the
// server no longer has the row, so the local removal stands.
func (v *View) Delete(ctx context.Context, id int64) error {
	if !v.isAdmin {
		return ErrNotAdmin
	}

	v.mu.Lock()
	if !v.beginMutation(id, actionDelete) {
		v.mu.Unlock()
		return ErrBusy
	}
	idx := v.findEntry(id)
	if idx < 0 {
		v.endMutation(id, actionDelete)
		v.mu.Unlock()
		return ErrNotFound
	}
	removed := v.snapshot[idx]
	v.snapshot = append(v.snapshot[:idx], v.snapshot[idx+1:]...)
	v.clampPage()
	v.mu.Unlock()

	err := v.client.Delete(ctx, id)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.endMutation(id, actionDelete)
	if err != nil && !errors.Is(err, ErrNotFound) {
		// Restore the optimistically removed row.
		if idx > len(v.snapshot) {
			idx = len(v.snapshot)
		}
		v.snapshot = append(v.snapshot[:idx], append([]models.Entry{removed}, v.snapshot[idx:]...)...)
		v.notify.Error("Failed to delete item")
		return err
	}
	if err != nil {
		v.notify.Error("Item was already removed")
		return err
	}
	v.notify.Info(fmt.Sprintf("Deleted %q from watchlist", removed.Title))
	return nil
}

// Add creates an entry from a search-result selection. Admins add directly;
// visitors submit a recommendation and must supply their name, validated
// before any network call. A duplicate title yields an informational notice
// and ErrConflict with zero net change to the snapshot.
func (v *View) Add(ctx context.Context, res models.SearchResult, recommendedBy string) (models.Entry, error) {
	recommendedBy = strings.TrimSpace(recommendedBy)
	if !v.isAdmin && recommendedBy == "" {
		return models.Entry{}, ErrMissingRecommender
	}

	req := CreateRequest{
		ExternalMediaID: res.ExternalMediaID,
		MediaType:       res.MediaType,
		Title:           res.Title,
		Overview:        res.Overview,
		PosterURL:       res.PosterURL,
		ReleaseDate:     res.ReleaseDate,
		Rating:          res.Rating,
	}
	if !v.isAdmin {
		req.RecommendedBy = &recommendedBy
	}

	created, err := v.client.Create(ctx, req)
	if errors.Is(err, ErrConflict) {
		v.notify.Info(fmt.Sprintf("%q is already in your watchlist", res.Title))
		return created, err
	}
	if err != nil {
		v.notify.Error("Failed to add item to watchlist")
		return models.Entry{}, err
	}

	v.mu.Lock()
	// Newest first, matching the server's dateAdded ordering.
	v.snapshot = append([]models.Entry{created}, v.snapshot...)
	v.mu.Unlock()
	v.notify.Info(fmt.Sprintf("Added %q to watchlist", created.Title))
	return created, nil
}

// Edit submits a full replacement of the mutable fields, admin only. There
// is no optimistic update: the editor stays open until the server confirms,
// then the local entry reconciles with the authoritative response.
func (v *View) Edit(ctx context.Context, id int64, patch models.Patch) (models.Entry, error) {
	if !v.isAdmin {
		return models.Entry{}, ErrNotAdmin
	}

	v.mu.Lock()
	if !v.beginMutation(id, actionEdit) {
		v.mu.Unlock()
		return models.Entry{}, ErrBusy
	}
	v.mu.Unlock()

	updated, err := v.client.Update(ctx, id, patch)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.endMutation(id, actionEdit)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			v.notify.Error("Item not found")
		} else {
			v.notify.Error("Failed to save changes")
		}
		return models.Entry{}, err
	}
	if idx := v.findEntry(id); idx >= 0 {
		v.snapshot[idx] = updated
	}
	v.notify.Info(fmt.Sprintf("Saved changes to %q", updated.Title))
	return updated, nil
}
