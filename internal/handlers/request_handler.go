package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Stanmozolevskiy/Vector-sub002/internal/middleware"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/models"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/repositories"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/utils"
)

// RequestHandler manages scheduled practice requests (the booking
// surface that feeds the matching queue).
type RequestHandler struct {
	Repo     *repositories.RequestRepository
	validate *validator.Validate
}

func NewRequestHandler(repo *repositories.RequestRepository) *RequestHandler {
	return &RequestHandler{Repo: repo, validate: validator.New()}
}

type createRequestPayload struct {
	InterviewType         string    `json:"interviewType" validate:"required,oneof=data-structures-algorithms system-design behavioral"`
	PracticeMode          string    `json:"practiceMode" validate:"required,oneof=peer single"`
	Level                 string    `json:"level" validate:"required,oneof=beginner intermediate advanced"`
	StartAt               time.Time `json:"startAt" validate:"required"`
	PreassignedQuestionID *int      `json:"preassignedQuestionId,omitempty" validate:"omitempty,gt=0"`
}

// CreateRequestHandler books a practice slot.
func (h *RequestHandler) CreateRequestHandler(w http.ResponseWriter, r *http.Request) {
	var payload createRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid_payload", "invalid request payload")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	// Pre-assigned questions only exist on the DSA track.
	if payload.PreassignedQuestionID != nil && payload.InterviewType != models.TypeDataStructures {
		utils.JSONError(w, http.StatusBadRequest, "invalid_payload",
			"preassignedQuestionId is only supported for the data-structures-algorithms track")
		return
	}

	request := &models.ScheduledRequest{
		ID:                    uuid.New().String(),
		UserID:                middleware.UserID(r.Context()),
		InterviewType:         payload.InterviewType,
		PracticeMode:          payload.PracticeMode,
		Level:                 payload.Level,
		StartAt:               payload.StartAt,
		Status:                models.RequestScheduled,
		PreassignedQuestionID: payload.PreassignedQuestionID,
	}
	if err := h.Repo.Create(request); err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, request)
}

// GetRequestHandler returns one of the caller's scheduled requests.
func (h *RequestHandler) GetRequestHandler(w http.ResponseWriter, r *http.Request) {
	request, err := h.Repo.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if request.UserID != middleware.UserID(r.Context()) {
		utils.JSONError(w, http.StatusForbidden, "forbidden", "not your request")
		return
	}
	utils.JSON(w, http.StatusOK, request)
}

// ListRequestsHandler returns the caller's scheduled requests.
func (h *RequestHandler) ListRequestsHandler(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Repo.ListByUser(middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, requests)
}
