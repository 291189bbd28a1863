package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/amaumene/flickarr/internal/favorites"
	"github.com/amaumene/flickarr/internal/models"
	"github.com/sirupsen/logrus"
)

// FavoritesHandler exposes the favorites store over HTTP. It is a plain
// consumer of the store: reads are snapshots, the toggle endpoint is the
// "user gesture" entry point.
type FavoritesHandler struct {
	store  *favorites.Store
	logger *logrus.Logger
}

// NewFavoritesHandler creates a new favorites handler
func NewFavoritesHandler(store *favorites.Store, logger *logrus.Logger) *FavoritesHandler {
	return &FavoritesHandler{
		store:  store,
		logger: logger,
	}
}

// List handles GET /api/favorites
func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	items := h.store.Favorites()
	results := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		results = append(results, item.ToPayload())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"initialized": h.store.Initialized(),
		"favorites":   results,
	})
}

// Toggle handles POST /api/favorites/toggle with a movie payload body
func (h *FavoritesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	movie, err := models.MovieFromPayload(payload)
	if err != nil {
		h.logger.WithError(err).Debug("Rejected toggle payload")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.store.Toggle(movie); err != nil {
		if errors.Is(err, favorites.ErrNotInitialized) {
			http.Error(w, "Favorites are still loading", http.StatusServiceUnavailable)
			return
		}
		h.logger.WithError(err).Error("Toggle failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":       movie.ID,
		"favorite": h.store.IsFavorite(movie.ID),
	})
}
