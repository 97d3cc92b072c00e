package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Stanmozolevskiy/Vector-sub002/internal/middleware"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/sessions"
	"github.com/Stanmozolevskiy/Vector-sub002/internal/utils"
)

// SessionHandler exposes live-session operations to its participants.
type SessionHandler struct {
	Service *sessions.Service
}

func NewSessionHandler(service *sessions.Service) *SessionHandler {
	return &SessionHandler{Service: service}
}

func (h *SessionHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.GetSession(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, view)
}

func (h *SessionHandler) SwitchRolesHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.SwitchRoles(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, view)
}

func (h *SessionHandler) ChangeQuestionHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.ChangeQuestion(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, view)
}

func (h *SessionHandler) EndSessionHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.End(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, view)
}

func (h *SessionHandler) CancelSessionHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.Cancel(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, view)
}
