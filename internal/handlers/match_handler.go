package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Stanmozolevskiy/Vector-sub002/internal/matching"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/middleware"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/utils"
)

// MatchHandler exposes the matching queue and confirmation handshake
// to the client poller. Every endpoint is idempotent: clients retry
// aggressively on network errors with the same arguments.
type MatchHandler struct {
	Service *matching.Service
}

func NewMatchHandler(service *matching.Service) *MatchHandler {
	return &MatchHandler{Service: service}
}

type startMatchingRequest struct {
	ScheduledRequestID string `json:"scheduledRequestId"`
}

// StartMatchingHandler enters the queue or returns the existing
// pairing state for the scheduled request.
func (h *MatchHandler) StartMatchingHandler(w http.ResponseWriter, r *http.Request) {
	var req startMatchingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ScheduledRequestID == "" {
		utils.JSONError(w, http.StatusBadRequest, "invalid_payload", "scheduledRequestId is required")
		return
	}

	result, err := h.Service.StartMatching(r.Context(), middleware.UserID(r.Context()), req.ScheduledRequestID)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, result)
}

// StatusHandler is the poller's read: current match request or session,
// no pairing side effects.
func (h *MatchHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	scheduledRequestID := r.URL.Query().Get("scheduledRequestId")
	if scheduledRequestID == "" {
		utils.JSONError(w, http.StatusBadRequest, "invalid_payload", "scheduledRequestId is required")
		return
	}

	result, err := h.Service.GetStatus(r.Context(), middleware.UserID(r.Context()), scheduledRequestID)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, result)
}

type confirmRequest struct {
	MatchRequestID string `json:"matchRequestId"`
}

// ConfirmHandler records the caller's half of the double opt-in.
func (h *MatchHandler) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MatchRequestID == "" {
		utils.JSONError(w, http.StatusBadRequest, "invalid_payload", "matchRequestId is required")
		return
	}

	result, err := h.Service.Confirm(r.Context(), middleware.UserID(r.Context()), req.MatchRequestID)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, result)
}

type cancelRequest struct {
	ScheduledRequestID string `json:"scheduledRequestId"`
}

// CancelHandler withdraws an unmerged scheduled request.
func (h *MatchHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ScheduledRequestID == "" {
		utils.JSONError(w, http.StatusBadRequest, "invalid_payload", "scheduledRequestId is required")
		return
	}

	if err := h.Service.Cancel(r.Context(), middleware.UserID(r.Context()), req.ScheduledRequestID); err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
