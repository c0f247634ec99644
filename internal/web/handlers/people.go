package handlers

import (
	"net/http"

	"github.com/dormwatch/dormwatch/internal/people"
)

// PeopleHandler proxies the people-lookup service for membership pickers.
type PeopleHandler struct {
	client *people.Client
}

// NewPeopleHandler creates a new people handler.
func NewPeopleHandler(client *people.Client) *PeopleHandler {
	return &PeopleHandler{client: client}
}

// Search returns candidate identity strings for a partial name query.
func (h *PeopleHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		respondError(w, http.StatusServiceUnavailable, "people lookup is not configured")
		return
	}

	names, err := h.client.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, http.StatusBadGateway, "people lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string][]string{"people": names})
}
