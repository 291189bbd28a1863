package models

import (
	"fmt"
)

const (
	// ImageBaseURL is the TMDB image CDN prefix for poster-sized artwork
	ImageBaseURL = "https://image.tmdb.org/t/p/w500"
	// PlaceholderImageURL is served when an item carries no artwork path
	PlaceholderImageURL = "https://via.placeholder.com/500x750?text=No+Image"

	defaultTitle       = "Untitled"
	defaultOverview    = "No synopsis"
	defaultReleaseDate = "Unknown"
)

// SchemaError reports a payload that fails required-field or type validation
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid payload: field %q %s", e.Field, e.Reason)
}

// Movie is a single catalog entry. Values are immutable once constructed;
// identity (and set membership everywhere in the app) is by ID alone, since
// the remote API returns slightly different shapes for the same item across
// endpoints.
type Movie struct {
	ID           int
	Title        string
	Overview     string
	PosterPath   *string
	BackdropPath *string
	VoteAverage  float64
	ReleaseDate  string
	GenreIDs     []int
}

// MovieFromPayload builds a Movie from a decoded JSON object.
//
// Optional text fields get display placeholders and missing artwork paths
// stay nil. vote_average is deliberately NOT defaulted: a silently wrong
// rating is worse than a visible failure, so its absence (or a non-numeric
// value) is a SchemaError.
func MovieFromPayload(payload map[string]interface{}) (Movie, error) {
	id, ok := intField(payload, "id")
	if !ok {
		return Movie{}, &SchemaError{Field: "id", Reason: "is missing or not an integer"}
	}

	score, ok := floatField(payload, "vote_average")
	if !ok {
		return Movie{}, &SchemaError{Field: "vote_average", Reason: "is missing or not a number"}
	}

	m := Movie{
		ID:          id,
		Title:       stringField(payload, "title", defaultTitle),
		Overview:    stringField(payload, "overview", defaultOverview),
		VoteAverage: score,
		ReleaseDate: stringField(payload, "release_date", defaultReleaseDate),
		GenreIDs:    []int{},
	}

	m.PosterPath = optionalStringField(payload, "poster_path")
	m.BackdropPath = optionalStringField(payload, "backdrop_path")

	if raw, exists := payload["genre_ids"]; exists && raw != nil {
		ids, err := intSlice(raw)
		if err != nil {
			return Movie{}, &SchemaError{Field: "genre_ids", Reason: "contains a non-integer entry"}
		}
		m.GenreIDs = ids
	}

	return m, nil
}

// ToPayload is the inverse of MovieFromPayload: round-tripping a Movie
// through ToPayload and back yields an identical value, nil artwork paths
// included (they are emitted as JSON null).
func (m Movie) ToPayload() map[string]interface{} {
	payload := map[string]interface{}{
		"id":           m.ID,
		"title":        m.Title,
		"overview":     m.Overview,
		"vote_average": m.VoteAverage,
		"release_date": m.ReleaseDate,
		"genre_ids":    append([]int{}, m.GenreIDs...),
	}

	if m.PosterPath != nil {
		payload["poster_path"] = *m.PosterPath
	} else {
		payload["poster_path"] = nil
	}
	if m.BackdropPath != nil {
		payload["backdrop_path"] = *m.BackdropPath
	} else {
		payload["backdrop_path"] = nil
	}

	return payload
}

// PosterURL resolves the poster path against the image CDN. No I/O.
func (m Movie) PosterURL() string {
	if m.PosterPath != nil {
		return ImageBaseURL + *m.PosterPath
	}
	return PlaceholderImageURL
}

// BackdropURL resolves the backdrop path, falling back to the poster and
// then to the generic placeholder. No I/O.
func (m Movie) BackdropURL() string {
	if m.BackdropPath != nil {
		return ImageBaseURL + *m.BackdropPath
	}
	return m.PosterURL()
}

func stringField(payload map[string]interface{}, key, fallback string) string {
	if v, ok := payload[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func optionalStringField(payload map[string]interface{}, key string) *string {
	if v, ok := payload[key].(string); ok {
		return &v
	}
	return nil
}

// intField reads an integral number. JSON decoding yields float64, so both
// float64 and int are accepted.
func intField(payload map[string]interface{}, key string) (int, bool) {
	switch v := payload[key].(type) {
	case int:
		return v, true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}

func floatField(payload map[string]interface{}, key string) (float64, bool) {
	switch v := payload[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func intSlice(raw interface{}) ([]int, error) {
	switch v := raw.(type) {
	case []int:
		return append([]int{}, v...), nil
	case []interface{}:
		ids := make([]int, 0, len(v))
		for _, entry := range v {
			switch n := entry.(type) {
			case int:
				ids = append(ids, n)
			case float64:
				if n != float64(int(n)) {
					return nil, fmt.Errorf("non-integer entry: %v", n)
				}
				ids = append(ids, int(n))
			default:
				return nil, fmt.Errorf("non-integer entry: %v", entry)
			}
		}
		return ids, nil
	}
	return nil, fmt.Errorf("not an array")
}
