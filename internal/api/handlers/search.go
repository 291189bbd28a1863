package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/amaumene/flickarr/internal/models"
	"github.com/amaumene/flickarr/internal/services/tmdb"
	"github.com/sirupsen/logrus"
)

// SearchHandler serves catalog searches. Each request is one direct client
// call; debouncing belongs to interactive consumers, not to this endpoint.
type SearchHandler struct {
	client *tmdb.Client
	logger *logrus.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(client *tmdb.Client, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{
		client: client,
		logger: logger,
	}
}

// ServeHTTP handles GET /api/search?q=...
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query().Get("q")

	movies, err := h.client.Search(r.Context(), query)
	if err != nil {
		h.logger.WithError(err).WithField("query", query).Error("Search failed")
		writeCatalogError(w, err)
		return
	}

	results := make([]map[string]interface{}, 0, len(movies))
	for _, movie := range movies {
		results = append(results, movie.ToPayload())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"query":   query,
		"results": results,
	})
}

// writeCatalogError maps catalog client errors to HTTP statuses
func writeCatalogError(w http.ResponseWriter, err error) {
	var configErr *tmdb.ConfigError
	var statusErr *tmdb.StatusError
	var networkErr *tmdb.NetworkError
	var schemaErr *models.SchemaError

	switch {
	case errors.As(err, &configErr):
		http.Error(w, "Catalog access is not configured", http.StatusInternalServerError)
	case errors.As(err, &statusErr), errors.As(err, &networkErr), errors.As(err, &schemaErr):
		http.Error(w, "Catalog is unavailable", http.StatusBadGateway)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
