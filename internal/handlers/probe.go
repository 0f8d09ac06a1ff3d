package handlers

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"studyplan/internal/models"
)

// Pinger checks a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatasetState reports whether an in-memory dataset is ready.
type DatasetState interface {
	Loaded() bool
}

// ProbeHandler handles Kubernetes health probe endpoints.
type ProbeHandler struct {
	db      Pinger
	dataset DatasetState
}

// NewProbeHandler creates a new probe handler. Both arguments may be nil:
// without a database the readiness check skips it, and without an
// in-memory dataset the dataset is reported as streamed.
func NewProbeHandler(database Pinger, dataset DatasetState) *ProbeHandler {
	return &ProbeHandler{db: database, dataset: dataset}
}

// Liveness handles the /healthz endpoint for Kubernetes liveness probes.
// Returns 200 OK if the application is running.
func (h *ProbeHandler) Liveness(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// Readiness handles the /readyz endpoint for Kubernetes readiness probes.
// Only an unreachable database makes the service unready; a dataset that is
// still loading degrades personalization, not availability.
func (h *ProbeHandler) Readiness(c fiber.Ctx) error {
	resp := models.HealthResponse{
		Status:   "ok",
		Checks:   map[string]string{},
		Database: h.db != nil,
		Dataset:  "stream",
	}

	if h.dataset != nil {
		resp.Dataset = "loading"
		if h.dataset.Loaded() {
			resp.Dataset = "loaded"
		}
	}

	if h.db != nil {
		if err := h.db.Ping(c.Context()); err != nil {
			resp.Status = "error"
			resp.Checks["database"] = "database unavailable"
			return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
		}
		resp.Checks["database"] = "ok"
	}

	return c.JSON(resp)
}
