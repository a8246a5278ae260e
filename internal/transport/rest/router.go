package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/construction-crm/internal"
	"github.com/frahmantamala/construction-crm/internal/material"
	"github.com/frahmantamala/construction-crm/internal/payroll"
	"github.com/frahmantamala/construction-crm/internal/transport/middleware"
	"github.com/frahmantamala/construction-crm/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// RegisterAllRoutes wires the reconciliation API. Payroll writes are gated
// on back-office roles; reads only need a verified identity.
func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	cfg *internal.Config,
	payrollHandler *payroll.Handler,
	materialHandler *material.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Group(func(pr chi.Router) {
			pr.Use(middleware.Authenticator(cfg.Security.JWTVerifyKey, logger))

			if payrollHandler != nil {
				pr.Route("/payroll", func(sr chi.Router) {
					sr.Get("/view", payrollHandler.GetView)
					sr.Get("/records/{employeeID}/{month}", payrollHandler.GetRecord)

					sr.Group(func(wr chi.Router) {
						wr.Use(middleware.RequireRoles("admin", "hr", "finance"))
						wr.Put("/records/{employeeID}/{month}", payrollHandler.SaveRecord)
						wr.Post("/mark-paid", payrollHandler.BulkMarkPaid)
					})
				})
			}

			if materialHandler != nil {
				pr.Route("/materials", func(sr chi.Router) {
					sr.Get("/", materialHandler.ListMaterials)
					sr.Get("/costs", materialHandler.GetCosts)
					sr.Get("/requests", materialHandler.ListRequests)
					sr.Get("/requests/{id}", materialHandler.GetRequest)
					sr.Post("/requests", materialHandler.CreateRequest)

					sr.Group(func(wr chi.Router) {
						wr.Use(middleware.RequireRoles("admin", "engineer"))
						wr.Post("/requests/{id}/respond", materialHandler.RespondToRequest)
						wr.Patch("/{id}/price", materialHandler.UpdatePrice)
					})
				})
			}
		})
	})
}
