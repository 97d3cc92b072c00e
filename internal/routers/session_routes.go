package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Stanmozolevskiy/Vector-sub002/internal/handlers"
)

func SessionRoutes(r *chi.Mux, auth func(http.Handler) http.Handler, sessionHandler *handlers.SessionHandler) {
	r.Route("/api/v1/sessions", func(r chi.Router) {
		r.Use(auth)
		r.Get("/{id}", sessionHandler.GetSessionHandler)
		r.Post("/{id}/switch-roles", sessionHandler.SwitchRolesHandler)
		r.Post("/{id}/change-question", sessionHandler.ChangeQuestionHandler)
		r.Post("/{id}/end", sessionHandler.EndSessionHandler)
		r.Post("/{id}/cancel", sessionHandler.CancelSessionHandler)
	})
}
