package tmdb

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amaumene/flickarr/internal/config"
	"github.com/amaumene/flickarr/internal/models"
	"github.com/sirupsen/logrus"
)

// Client wraps direct TMDB API HTTP calls. It holds no mutable state and is
// safe for concurrent use; callers own any retry or cancellation policy.
type Client struct {
	baseURL    string
	apiKey     string
	language   string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new TMDB client with direct HTTP calls
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.TMDBURL, "/"),
		apiKey:   cfg.TMDBAPIKey,
		language: cfg.Language,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// checkAPIKey validates the credential before any network attempt. Every
// call re-checks so a client built from a bad config fails fast and loudly.
func (c *Client) checkAPIKey() error {
	if c.apiKey == "" {
		return &ConfigError{Reason: "API key is empty"}
	}
	if c.apiKey == config.PlaceholderAPIKey {
		return &ConfigError{Reason: "API key is the sample placeholder"}
	}
	return nil
}

// getMovies performs a GET against a list endpoint and decodes the standard
// {results: [...]} envelope into movies, preserving remote order.
func (c *Client) getMovies(ctx context.Context, path string, params url.Values) ([]models.Movie, error) {
	if err := c.checkAPIKey(); err != nil {
		return nil, err
	}

	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)
	finalURL := c.baseURL + path + "?" + params.Encode()

	c.logger.WithFields(logrus.Fields{
		"path": path,
	}).Debug("Performing TMDB request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	req.Header.Set("User-Agent", "flickarr/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		reason := strings.TrimSpace(string(body))
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"path":        path,
		}).Error("TMDB returned non-OK status")
		return nil, &StatusError{Status: resp.StatusCode, Reason: reason}
	}

	var envelope map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &models.SchemaError{Field: "results", Reason: "body is not a JSON object"}
	}

	rawResults, ok := envelope["results"]
	if !ok {
		return nil, &models.SchemaError{Field: "results", Reason: "is missing"}
	}
	entries, ok := rawResults.([]interface{})
	if !ok {
		return nil, &models.SchemaError{Field: "results", Reason: "is not an array"}
	}

	movies := make([]models.Movie, 0, len(entries))
	for _, entry := range entries {
		payload, ok := entry.(map[string]interface{})
		if !ok {
			return nil, &models.SchemaError{Field: "results", Reason: "contains a non-object entry"}
		}
		movie, err := models.MovieFromPayload(payload)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}

	c.logger.WithField("count", len(movies)).Debug("TMDB request completed")

	return movies, nil
}
