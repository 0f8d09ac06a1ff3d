package api

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"studyplan/internal/dataset"
	"studyplan/internal/models"
	"studyplan/internal/validation"
)

// Searcher finds dataset rows for a topic.
type Searcher interface {
	Search(ctx context.Context, topic string) dataset.Outcome
}

// SearchHandler exposes dataset searches via JSON API.
type SearchHandler struct {
	searcher Searcher
}

// NewSearchHandler creates a new API search handler.
func NewSearchHandler(searcher Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// Search handles GET /api/search?topic=. The scan itself never fails; a
// broken dataset shows up as an empty result with stats.error set.
func (h *SearchHandler) Search(c fiber.Ctx) error {
	var q validation.TopicRequest
	if err := c.Bind().Query(&q); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid query")
	}
	if err := validation.ValidateStruct(&q); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "topic is required")
	}

	outcome := h.searcher.Search(c.Context(), q.Topic)
	assessment := dataset.Assess(outcome.Rows(), dataset.DefaultHardestProblems)
	return jsonSuccess(c, models.NewSearchResponse(outcome, assessment))
}
