package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/NAGA-29/MotionFormatConverter-GAMMA/internal/transport/handler"
)

func NewRouter(h *handler.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/convert", h.Convert)
	r.Get("/health", h.Health)

	return r
}
