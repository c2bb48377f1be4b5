package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dcoutinho/notacheck/internal/http/catalogadmin"
	"github.com/dcoutinho/notacheck/internal/http/imports"
	"github.com/dcoutinho/notacheck/internal/http/records"
	"github.com/dcoutinho/notacheck/internal/http/verifications"
)

func New(
	verificationsV1 *verifications.Handler,
	recordsV1 *records.Handler,
	catalogV1 *catalogadmin.Handler,
	importsV1 *imports.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/verifications", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			verificationsV1.Routes(r)
		})

		r.Route("/records", recordsV1.Routes)

		r.Route("/catalog", catalogV1.Routes)

		r.Route("/import", importsV1.Routes)
	})

	return router
}
