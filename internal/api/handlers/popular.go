package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/amaumene/flickarr/internal/controllers"
	"github.com/sirupsen/logrus"
)

// PopularHandler serves cached popular-catalog pages
type PopularHandler struct {
	popularCtrl *controllers.PopularController
	logger      *logrus.Logger
}

// NewPopularHandler creates a new popular handler
func NewPopularHandler(popularCtrl *controllers.PopularController, logger *logrus.Logger) *PopularHandler {
	return &PopularHandler{
		popularCtrl: popularCtrl,
		logger:      logger,
	}
}

// ServeHTTP handles GET /api/popular?page=N
func (h *PopularHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "Invalid page", http.StatusBadRequest)
			return
		}
		page = parsed
	}

	movies, err := h.popularCtrl.Get(r.Context(), page)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch popular movies")
		writeCatalogError(w, err)
		return
	}

	results := make([]map[string]interface{}, 0, len(movies))
	for _, movie := range movies {
		results = append(results, movie.ToPayload())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"page":    page,
		"results": results,
	})
}
