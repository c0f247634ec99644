package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dormwatch/dormwatch/internal/capture"
	"github.com/dormwatch/dormwatch/internal/monitor"
	"github.com/dormwatch/dormwatch/internal/overlay"
	"github.com/dormwatch/dormwatch/internal/rooms"
)

// MonitorHandler exposes the capture-match-render core: camera and
// monitoring controls, the active room, display size, current state and the
// rendered overlay.
type MonitorHandler struct {
	mon *monitor.Monitor
}

// NewMonitorHandler creates a new monitor handler.
func NewMonitorHandler(mon *monitor.Monitor) *MonitorHandler {
	return &MonitorHandler{mon: mon}
}

// StartCamera acquires the camera device.
func (h *MonitorHandler) StartCamera(w http.ResponseWriter, r *http.Request) {
	if err := h.mon.StartCamera(); err != nil {
		if errors.Is(err, capture.ErrDeviceUnavailable) {
			respondError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.mon.Status())
}

// StopCamera releases the camera, which also stops monitoring and clears
// per-frame data.
func (h *MonitorHandler) StopCamera(w http.ResponseWriter, r *http.Request) {
	h.mon.StopCamera()
	respondJSON(w, http.StatusOK, h.mon.Status())
}

// StartMonitoring begins the sampling cadence.
func (h *MonitorHandler) StartMonitoring(w http.ResponseWriter, r *http.Request) {
	if err := h.mon.StartMonitoring(); err != nil {
		respondMonitorError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.mon.Status())
}

// StopMonitoring stops the sampling cadence; the camera stays live.
func (h *MonitorHandler) StopMonitoring(w http.ResponseWriter, r *http.Request) {
	if err := h.mon.StopMonitoring(); err != nil {
		respondMonitorError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.mon.Status())
}

// SetRoomRequest selects the active room; an empty id clears the selection.
type SetRoomRequest struct {
	ID string `json:"id"`
}

// SetRoom changes the active room.
func (h *MonitorHandler) SetRoom(w http.ResponseWriter, r *http.Request) {
	var req SetRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	if err := h.mon.SetActiveRoom(req.ID); err != nil {
		if errors.Is(err, rooms.ErrNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.mon.Status())
}

// SetDisplayRequest reports the on-screen size of the rendering surface.
type SetDisplayRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SetDisplay records the displayed resolution; the UI calls this on layout
// changes so overlay scaling stays consistent with the video element.
func (h *MonitorHandler) SetDisplay(w http.ResponseWriter, r *http.Request) {
	var req SetDisplayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		respondError(w, http.StatusBadRequest, "width and height must be positive")
		return
	}

	h.mon.SetDisplaySize(capture.Size{Width: req.Width, Height: req.Height})
	respondJSON(w, http.StatusOK, h.mon.Status())
}

// State returns the current monitor state, per-face authorization and the
// threat flag.
func (h *MonitorHandler) State(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.mon.Status())
}

// Overlay returns the current overlay as a PNG in displayed coordinates.
func (h *MonitorHandler) Overlay(w http.ResponseWriter, r *http.Request) {
	img, err := h.mon.Overlay()
	if err != nil {
		respondMonitorError(w, err)
		return
	}

	data, err := overlay.EncodePNG(img)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to encode overlay")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func respondMonitorError(w http.ResponseWriter, err error) {
	if errors.Is(err, monitor.ErrInvalidState) {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}
