package server

import (
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"studyplan/internal/handlers"
	"studyplan/internal/handlers/api"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Pages     *handlers.PageHandler
	Plans     *handlers.PlanHandler
	Resources *handlers.ResourceHandler
	Probe     *handlers.ProbeHandler
	Search    *api.SearchHandler
	History   *api.PlansHandler
}

// RegisterRoutes sets up all application routes.
func (s *Server) RegisterRoutes(h Handlers) {
	app := s.App

	// Health probes (no auth, outside the limiter)
	app.Get("/healthz", h.Probe.Liveness)
	app.Get("/readyz", h.Probe.Readiness)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Pages
	app.Get("/", h.Pages.Index)
	app.Get("/about", h.Pages.About)
	app.Get("/faq", h.Pages.FAQ)
	app.Get("/chatbot", h.Pages.Chatbot)

	// Plans
	app.Post("/generate", h.Plans.Generate)
	app.Get("/download/:filename", h.Plans.Download)

	// Learning resources
	app.Get("/resources", h.Resources.Page)
	app.Post("/resources", h.Resources.Search)

	// JSON API
	apiGroup := app.Group("/api")
	apiGroup.Get("/search", h.Search.Search)
	apiGroup.Get("/plans", h.History.List)
	apiGroup.Get("/plans/:id", h.History.Get)
}
