package models

import (
	"strconv"
	"time"
)

// MediaType distinguishes movies from TV shows. The pair
// (ExternalMediaID, MediaType) uniquely identifies a title in the catalog.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// Valid reports whether m is one of the two known media types.
func (m MediaType) Valid() bool {
	return m == MediaTypeMovie || m == MediaTypeTV
}

// Priority levels for unwatched / recommended entries.
const (
	PriorityLow    = 0
	PriorityMedium = 1
	PriorityHigh   = 2
)

// Entry is a persisted watchlist row. Date fields travel as ISO-8601 strings
// on the wire and are stored as RFC3339 text in SQLite.
//
// Invariants (enforced by the mutation layer, not the schema):
//   - DateWatched is nil while Watched is false.
//   - Favorite is false while Watched is false.
//   - UserRating is meaningful only when Watched is true.
type Entry struct {
	ID              int64      `json:"id"`
	ExternalMediaID int64      `json:"externalMediaId"`
	MediaType       MediaType  `json:"mediaType"`
	Title           string     `json:"title"`
	Overview        string     `json:"overview,omitempty"`
	PosterURL       string     `json:"posterUrl,omitempty"`
	ReleaseDate     string     `json:"releaseDate,omitempty"`
	Rating          float64    `json:"rating,omitempty"`
	Watched         bool       `json:"watched"`
	DateWatched     *time.Time `json:"dateWatched"`
	DateAdded       time.Time  `json:"dateAdded"`
	UserRating      *float64   `json:"userRating"`
	Priority        *int       `json:"priority"`
	Favorite        bool       `json:"favorite"`
	RecommendedBy   *string    `json:"recommendedBy"`
}

// Key returns a stable identifier combining media type and catalog ID,
// matching the store's uniqueness constraint.
func (e Entry) Key() string {
	return string(e.MediaType) + ":" + strconv.FormatInt(e.ExternalMediaID, 10)
}

// Patch carries a partial update for an entry. Absent fields are left
// untouched; Optional distinguishes "not sent" from "set to null" so the
// clearable fields (dateWatched, userRating, priority, recommendedBy) can be
// nulled explicitly.
type Patch struct {
	Title         Optional[string]    `json:"title,omitzero"`
	Watched       Optional[bool]      `json:"watched,omitzero"`
	DateWatched   Optional[time.Time] `json:"dateWatched,omitzero"`
	DateAdded     Optional[time.Time] `json:"dateAdded,omitzero"`
	UserRating    Optional[float64]   `json:"userRating,omitzero"`
	Priority      Optional[int]       `json:"priority,omitzero"`
	Favorite      Optional[bool]      `json:"favorite,omitzero"`
	RecommendedBy Optional[string]    `json:"recommendedBy,omitzero"`
}

// SearchResult is an ephemeral catalog hit produced by the search proxy.
// It is never persisted; it only seeds a new Entry.
type SearchResult struct {
	ExternalMediaID int64     `json:"id"`
	Title           string    `json:"title"`
	Overview        string    `json:"overview"`
	PosterURL       string    `json:"posterUrl"`
	ReleaseDate     string    `json:"releaseDate"`
	MediaType       MediaType `json:"mediaType"`
	Rating          float64   `json:"rating"`
}

// CastMember is a single cast credit in a Detail.
type CastMember struct {
	Name       string `json:"name"`
	Character  string `json:"character"`
	ProfileURL string `json:"profileUrl,omitempty"`
}

// Detail is the denormalized read-only detail view for one title,
// combining base metadata, credits and external IDs.
type Detail struct {
	ExternalMediaID int64        `json:"id"`
	Title           string       `json:"title"`
	Overview        string       `json:"overview"`
	PosterURL       string       `json:"posterUrl,omitempty"`
	BackdropURL     string       `json:"backdropUrl,omitempty"`
	ReleaseDate     string       `json:"releaseDate"`
	Runtime         int          `json:"runtime,omitempty"`
	Seasons         int          `json:"seasons,omitempty"`
	Episodes        int          `json:"episodes,omitempty"`
	Rating          float64      `json:"rating"`
	VoteCount       int          `json:"voteCount"`
	Genres          []string     `json:"genres"`
	Director        string       `json:"director,omitempty"`
	Creators        []string     `json:"creators,omitempty"`
	Cast            []CastMember `json:"cast"`
	IMDBID          string       `json:"imdbId,omitempty"`
	MediaType       MediaType    `json:"mediaType"`
}
