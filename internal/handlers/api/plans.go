package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"studyplan/internal/db"
	"studyplan/internal/models"
	"studyplan/internal/validation"
)

// PlanStore reads the plan history.
type PlanStore interface {
	ListRecentPlans(ctx context.Context, limit int) ([]models.Plan, error)
	GetPlan(ctx context.Context, id uuid.UUID) (*models.Plan, error)
}

// PlansHandler exposes the plan history via JSON API.
type PlansHandler struct {
	store PlanStore
}

// NewPlansHandler creates a new API plans handler. A nil store means no
// database is configured and every call answers 503.
func NewPlansHandler(store PlanStore) *PlansHandler {
	return &PlansHandler{store: store}
}

// List handles GET /api/plans?limit=.
func (h *PlansHandler) List(c fiber.Ctx) error {
	if h.store == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "plan history is not enabled")
	}

	var q validation.PlansQuery
	if err := c.Bind().Query(&q); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid query")
	}
	if err := validation.ValidateStruct(&q); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "limit must be between 1 and 100")
	}

	plans, err := h.store.ListRecentPlans(c.Context(), q.Limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch plans")
	}
	return jsonSuccess(c, plans)
}

// Get handles GET /api/plans/:id.
func (h *PlansHandler) Get(c fiber.Ctx) error {
	if h.store == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "plan history is not enabled")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid plan id")
	}

	plan, err := h.store.GetPlan(c.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrPlanNotFound) {
			return jsonError(c, fiber.StatusNotFound, "plan not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch plan")
	}
	return jsonSuccess(c, plan)
}
