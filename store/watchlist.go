package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ckarsten/watchdeck/models"
)

var (
	// ErrNotFound is returned when no entry matches the given ID.
	ErrNotFound = errors.New("store: entry not found")
	// ErrConflict is returned when an entry with the same external media ID
	// and media type already exists.
	ErrConflict = errors.New("store: entry already exists")
)

const entryColumns = `id, external_media_id, media_type, title, overview,
	poster_url, release_date, rating, watched, date_watched, date_added,
	user_rating, priority, favorite, recommended_by`

// List returns all entries ordered by date added, newest first.
func (s *Store) List(ctx context.Context) ([]models.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM watchlist_entries ORDER BY date_added DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: listing entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []models.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: listing entries: %w", err)
	}
	return entries, nil
}

// Get returns the entry with the given ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (models.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM watchlist_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, ErrNotFound
	}
	return e, err
}

// GetByMedia returns the entry for a catalog title, or ErrNotFound.
func (s *Store) GetByMedia(ctx context.Context, externalMediaID int64, mediaType models.MediaType) (models.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM watchlist_entries WHERE external_media_id = ? AND media_type = ?`,
		externalMediaID, mediaType)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, ErrNotFound
	}
	return e, err
}

// Create inserts a new entry and returns it with its assigned ID. When a row
// with the same (externalMediaId, mediaType) pair exists, the existing entry
// is returned together with ErrConflict so callers can report the duplicate.
func (s *Store) Create(ctx context.Context, e models.Entry) (models.Entry, error) {
	if e.DateAdded.IsZero() {
		e.DateAdded = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO watchlist_entries
			(external_media_id, media_type, title, overview, poster_url,
			 release_date, rating, watched, date_watched, date_added,
			 user_rating, priority, favorite, recommended_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ExternalMediaID, e.MediaType, e.Title, e.Overview, e.PosterURL,
		e.ReleaseDate, e.Rating, e.Watched, encodeTimePtr(e.DateWatched),
		encodeTime(e.DateAdded), e.UserRating, e.Priority, e.Favorite,
		e.RecommendedBy)
	if err != nil {
		if isUniqueViolation(err) {
			existing, getErr := s.GetByMedia(ctx, e.ExternalMediaID, e.MediaType)
			if getErr != nil {
				return models.Entry{}, ErrConflict
			}
			return existing, ErrConflict
		}
		return models.Entry{}, fmt.Errorf("store: creating entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.Entry{}, fmt.Errorf("store: reading insert id: %w", err)
	}
	return s.Get(ctx, id)
}

// Update applies a partial patch to the entry with the given ID and returns
// the updated row. Fields absent from the patch are left untouched; the store
// applies patches verbatim — cross-field invariants live in the mutation layer.
func (s *Store) Update(ctx context.Context, id int64, p models.Patch) (models.Entry, error) {
	sets := make([]string, 0, 8)
	args := make([]any, 0, 9)

	set := func(column string, arg any) {
		sets = append(sets, column+" = ?")
		args = append(args, arg)
	}
	if p.Title.Present && p.Title.Value != nil {
		set("title", *p.Title.Value)
	}
	if p.Watched.Present && p.Watched.Value != nil {
		set("watched", *p.Watched.Value)
	}
	if p.DateWatched.Present {
		set("date_watched", encodeTimePtr(p.DateWatched.Value))
	}
	if p.DateAdded.Present && p.DateAdded.Value != nil {
		set("date_added", encodeTime(*p.DateAdded.Value))
	}
	if p.UserRating.Present {
		set("user_rating", p.UserRating.Value)
	}
	if p.Priority.Present {
		set("priority", p.Priority.Value)
	}
	if p.Favorite.Present && p.Favorite.Value != nil {
		set("favorite", *p.Favorite.Value)
	}
	if p.RecommendedBy.Present {
		set("recommended_by", p.RecommendedBy.Value)
	}

	if len(sets) == 0 {
		return s.Get(ctx, id)
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		"UPDATE watchlist_entries SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return models.Entry{}, fmt.Errorf("store: updating entry %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Entry{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Delete removes the entry with the given ID, or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM watchlist_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: deleting entry %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (models.Entry, error) {
	var (
		e             models.Entry
		dateWatched   sql.NullString
		dateAdded     string
		userRating    sql.NullFloat64
		priority      sql.NullInt64
		recommendedBy sql.NullString
	)
	err := row.Scan(&e.ID, &e.ExternalMediaID, &e.MediaType, &e.Title,
		&e.Overview, &e.PosterURL, &e.ReleaseDate, &e.Rating, &e.Watched,
		&dateWatched, &dateAdded, &userRating, &priority, &e.Favorite,
		&recommendedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Entry{}, err
		}
		return models.Entry{}, fmt.Errorf("store: scanning entry: %w", err)
	}

	if t, err := decodeTime(dateAdded); err == nil {
		e.DateAdded = t
	} else {
		return models.Entry{}, fmt.Errorf("store: entry %d has malformed date_added: %w", e.ID, err)
	}
	if dateWatched.Valid {
		if t, err := decodeTime(dateWatched.String); err == nil {
			e.DateWatched = &t
		}
	}
	if userRating.Valid {
		e.UserRating = &userRating.Float64
	}
	if priority.Valid {
		p := int(priority.Int64)
		e.Priority = &p
	}
	if recommendedBy.Valid {
		e.RecommendedBy = &recommendedBy.String
	}
	return e, nil
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func encodeTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return encodeTime(*t)
}

func decodeTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// isUniqueViolation matches the SQLite unique-index error without depending
// on driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
