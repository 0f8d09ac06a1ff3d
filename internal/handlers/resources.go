package handlers

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"studyplan/internal/config"
	"studyplan/internal/resources"
	"studyplan/internal/validation"
)

// ResourceFinder gathers learning resources for a topic.
type ResourceFinder interface {
	Lookup(ctx context.Context, topic string) (*resources.Result, error)
}

// ResourceHandler serves the learning resources page and its JSON form.
type ResourceHandler struct {
	finder ResourceFinder
	cfg    *config.Config
}

// NewResourceHandler creates a new resource handler.
func NewResourceHandler(finder ResourceFinder, cfg *config.Config) *ResourceHandler {
	return &ResourceHandler{finder: finder, cfg: cfg}
}

// Page renders the empty resources form.
func (h *ResourceHandler) Page(c fiber.Ctx) error {
	return c.Render("resources", MergeBranding(fiber.Map{"Title": "Kaynaklar"}, h.cfg))
}

// Search looks up resources for the submitted topic.
func (h *ResourceHandler) Search(c fiber.Ctx) error {
	isJSON := wantsJSON(c)

	var req validation.TopicRequest
	bindErr := c.Bind().Body(&req)
	if bindErr != nil || validation.ValidateStruct(&req) != nil {
		if isJSON {
			return errorJSON(c, fiber.StatusBadRequest, msgEmptyTopic)
		}
		return c.Status(fiber.StatusBadRequest).Render("resources", MergeBranding(fiber.Map{
			"Title": "Kaynaklar",
			"Error": msgEnterTopic,
		}, h.cfg))
	}

	res, err := h.finder.Lookup(c.Context(), req.Topic)
	if err != nil {
		if isJSON {
			return errorJSON(c, fiber.StatusBadRequest, msgEmptyTopic)
		}
		return c.Status(fiber.StatusBadRequest).Render("resources", MergeBranding(fiber.Map{
			"Title": "Kaynaklar",
			"Error": msgEnterTopic,
		}, h.cfg))
	}

	if isJSON {
		return c.JSON(res)
	}
	return c.Render("resources", MergeBranding(fiber.Map{
		"Title":     "Kaynaklar",
		"Topic":     res.Topic,
		"Resources": res,
	}, h.cfg))
}
