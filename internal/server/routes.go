package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"arbscan/pkg/httpx/reply"
)

func (s Server) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Route("/scans", func(r chi.Router) {
			r.Post("/", handler(s.postV1Scan))
			r.Post("/category", handler(s.postV1CategoryScan))
		})
		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", handler(s.getV1Schedules))
			r.Post("/", handler(s.postV1Schedule))
		})
		r.Get("/opportunities", handler(s.getV1Opportunities))
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			reply.Error(r.Context(), w, err)
		}
	}
}
