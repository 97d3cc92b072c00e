package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Stanmozolevskiy/Vector-sub002/internal/handlers"
)

func RequestRoutes(r *chi.Mux, auth func(http.Handler) http.Handler, requestHandler *handlers.RequestHandler) {
	r.Route("/api/v1/requests", func(r chi.Router) {
		r.Use(auth)
		r.Post("/", requestHandler.CreateRequestHandler)
		r.Get("/", requestHandler.ListRequestsHandler)
		r.Get("/{id}", requestHandler.GetRequestHandler)
	})
}
