package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/amaumene/flickarr/internal/controllers"
	"github.com/sirupsen/logrus"
)

// LiveSearchHandler exposes the debounced search controller over the
// facade: a UI streams keystrokes to POST /api/search/live and polls GET
// for the current state. The controller collapses typing bursts and
// discards stale responses, so the state a poll returns always belongs to
// the newest accepted query.
type LiveSearchHandler struct {
	searchCtrl *controllers.SearchController
	logger     *logrus.Logger
}

// NewLiveSearchHandler creates a live search handler
func NewLiveSearchHandler(searchCtrl *controllers.SearchController, logger *logrus.Logger) *LiveSearchHandler {
	return &LiveSearchHandler{
		searchCtrl: searchCtrl,
		logger:     logger,
	}
}

func (h *LiveSearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.update(w, r)
	case http.MethodGet:
		h.state(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// update feeds one keystroke's worth of query text into the controller.
// The dispatch itself happens after the quiet period, so this returns
// immediately with 202.
func (h *LiveSearchHandler) update(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.WithError(err).Debug("Invalid live search body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.searchCtrl.OnQueryChanged(body.Query)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"query": body.Query})
}

func (h *LiveSearchHandler) state(w http.ResponseWriter, r *http.Request) {
	state := h.searchCtrl.State()

	results := make([]map[string]interface{}, 0, len(state.Results))
	for _, movie := range state.Results {
		results = append(results, movie.ToPayload())
	}

	errMsg := ""
	if state.Err != nil {
		errMsg = state.Err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"query":   state.Query,
		"loading": state.Loading,
		"error":   errMsg,
		"results": results,
	})
}
