package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Stanmozolevskiy/Vector-sub002/internal/handlers"
)

func MatchRoutes(r *chi.Mux, auth func(http.Handler) http.Handler, matchHandler *handlers.MatchHandler) {
	r.Route("/api/v1/match", func(r chi.Router) {
		r.Use(auth)
		r.Post("/start", matchHandler.StartMatchingHandler)
		r.Get("/status", matchHandler.StatusHandler)
		r.Post("/confirm", matchHandler.ConfirmHandler)
		r.Post("/cancel", matchHandler.CancelHandler)
	})
}
