package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/dormwatch/dormwatch/internal/rooms"
)

// RoomsHandler handles room directory endpoints.
type RoomsHandler struct {
	dir *rooms.Directory
}

// NewRoomsHandler creates a new rooms handler.
func NewRoomsHandler(dir *rooms.Directory) *RoomsHandler {
	return &RoomsHandler{dir: dir}
}

// respondRoomsError maps directory errors to HTTP statuses.
func respondRoomsError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rooms.ErrNotFound), errors.Is(err, rooms.ErrMemberNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, rooms.ErrPermanentRoom):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, rooms.ErrRoomExists), errors.Is(err, rooms.ErrDuplicateMember):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, rooms.ErrEmptyName):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "room operation failed")
	}
}

// List returns all rooms in display order.
func (h *RoomsHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.dir.List())
}

// Get returns a single room.
func (h *RoomsHandler) Get(w http.ResponseWriter, r *http.Request) {
	room, err := h.dir.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondRoomsError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, room)
}

// CreateRoomRequest represents a create room request.
type CreateRoomRequest struct {
	Name string `json:"name"`
}

// Create creates a new non-permanent room.
func (h *RoomsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	room, err := h.dir.Create(req.Name)
	if err != nil {
		respondRoomsError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, room)
}

// Delete removes a non-permanent room.
func (h *RoomsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.dir.Delete(chi.URLParam(r, "id")); err != nil {
		respondRoomsError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AddMemberRequest represents an add member request.
type AddMemberRequest struct {
	Name string `json:"name"`
}

// AddMember appends an identity to a room roster.
func (h *RoomsHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	room, err := h.dir.AddMember(chi.URLParam(r, "id"), req.Name)
	if err != nil {
		respondRoomsError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, room)
}

// RemoveMember removes an identity from a room roster. The member name is
// path-escaped by the caller.
func (h *RoomsHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}

	room, err := h.dir.RemoveMember(chi.URLParam(r, "id"), name)
	if err != nil {
		respondRoomsError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, room)
}
