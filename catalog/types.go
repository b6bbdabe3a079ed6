package catalog

import (
	"math"
	"sort"

	"github.com/ckarsten/watchdeck/models"
)

// Wire shapes for the external catalog API. Decoding into explicit structs is
// the validation boundary: unknown fields are dropped and missing fields
// default, so malformed provider data never propagates inward untyped.

type searchResponse struct {
	Results []searchResultRaw `json:"results"`
}

type searchResultRaw struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"` // movies
	Name         string  `json:"name"`  // TV shows
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	ReleaseDate  string  `json:"release_date"`   // movies
	FirstAirDate string  `json:"first_air_date"` // TV shows
	MediaType    string  `json:"media_type"`
	VoteAverage  float64 `json:"vote_average"`
}

type genreRaw struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type castRaw struct {
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

type crewRaw struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

type creditsRaw struct {
	Cast []castRaw `json:"cast"`
	Crew []crewRaw `json:"crew"`
}

type externalIDsRaw struct {
	IMDBID string `json:"imdb_id"`
}

type personRaw struct {
	Name string `json:"name"`
}

// detailRaw covers both the movie and TV detail endpoints; the fields the
// other media type doesn't populate stay zero.
type detailRaw struct {
	ID               int64          `json:"id"`
	Title            string         `json:"title"`
	Name             string         `json:"name"`
	Overview         string         `json:"overview"`
	PosterPath       string         `json:"poster_path"`
	BackdropPath     string         `json:"backdrop_path"`
	ReleaseDate      string         `json:"release_date"`
	FirstAirDate     string         `json:"first_air_date"`
	Runtime          int            `json:"runtime"`
	NumberOfSeasons  int            `json:"number_of_seasons"`
	NumberOfEpisodes int            `json:"number_of_episodes"`
	VoteAverage      float64        `json:"vote_average"`
	VoteCount        int            `json:"vote_count"`
	Genres           []genreRaw     `json:"genres"`
	CreatedBy        []personRaw    `json:"created_by"`
	Credits          creditsRaw     `json:"credits"`
	ExternalIDs      externalIDsRaw `json:"external_ids"`
}

// maxCastMembers bounds the cast list in a detail response.
const maxCastMembers = 10

func (r searchResultRaw) toResult(imageBaseURL string) models.SearchResult {
	title := r.Title
	release := r.ReleaseDate
	if title == "" {
		title = r.Name
	}
	if release == "" {
		release = r.FirstAirDate
	}
	return models.SearchResult{
		ExternalMediaID: r.ID,
		Title:           title,
		Overview:        r.Overview,
		PosterURL:       imageURL(imageBaseURL, r.PosterPath),
		ReleaseDate:     release,
		MediaType:       models.MediaType(r.MediaType),
		Rating:          roundRating(r.VoteAverage),
	}
}

func (r detailRaw) toDetail(mediaType models.MediaType, imageBaseURL string) models.Detail {
	d := models.Detail{
		ExternalMediaID: r.ID,
		Overview:        r.Overview,
		PosterURL:       imageURL(imageBaseURL, r.PosterPath),
		BackdropURL:     imageURL(imageBaseURL, r.BackdropPath),
		Rating:          roundRating(r.VoteAverage),
		VoteCount:       r.VoteCount,
		Genres:          make([]string, 0, len(r.Genres)),
		IMDBID:          r.ExternalIDs.IMDBID,
		MediaType:       mediaType,
	}
	for _, g := range r.Genres {
		if g.Name != "" {
			d.Genres = append(d.Genres, g.Name)
		}
	}

	switch mediaType {
	case models.MediaTypeMovie:
		d.Title = r.Title
		d.ReleaseDate = r.ReleaseDate
		d.Runtime = r.Runtime
		for _, c := range r.Credits.Crew {
			if c.Job == "Director" {
				d.Director = c.Name
				break
			}
		}
	case models.MediaTypeTV:
		d.Title = r.Name
		d.ReleaseDate = r.FirstAirDate
		d.Seasons = r.NumberOfSeasons
		d.Episodes = r.NumberOfEpisodes
		for _, p := range r.CreatedBy {
			if p.Name != "" {
				d.Creators = append(d.Creators, p.Name)
			}
		}
	}

	cast := append([]castRaw(nil), r.Credits.Cast...)
	sort.SliceStable(cast, func(i, j int) bool { return cast[i].Order < cast[j].Order })
	if len(cast) > maxCastMembers {
		cast = cast[:maxCastMembers]
	}
	d.Cast = make([]models.CastMember, 0, len(cast))
	for _, c := range cast {
		d.Cast = append(d.Cast, models.CastMember{
			Name:       c.Name,
			Character:  c.Character,
			ProfileURL: imageURL(imageBaseURL, c.ProfilePath),
		})
	}
	return d
}

func imageURL(base, path string) string {
	if path == "" {
		return ""
	}
	return base + path
}

// roundRating rounds a provider vote average to one decimal place.
func roundRating(v float64) float64 {
	return math.Round(v*10) / 10
}
