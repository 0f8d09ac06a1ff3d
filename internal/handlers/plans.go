package handlers

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v3"

	"studyplan/internal/config"
	"studyplan/internal/models"
	"studyplan/internal/planner"
	"studyplan/internal/render"
	"studyplan/internal/validation"
)

// Generator produces study plans.
type Generator interface {
	Generate(ctx context.Context, req planner.Request) (*planner.Result, error)
}

// PlanHandler handles plan generation and document downloads.
type PlanHandler struct {
	generator Generator
	outputDir string
	cfg       *config.Config
}

// NewPlanHandler creates a new plan handler.
func NewPlanHandler(generator Generator, outputDir string, cfg *config.Config) *PlanHandler {
	return &PlanHandler{generator: generator, outputDir: outputDir, cfg: cfg}
}

// Generate handles POST /generate for both the web form and JSON clients.
func (h *PlanHandler) Generate(c fiber.Ctx) error {
	var req validation.GenerateRequest
	if err := c.Bind().Body(&req); err != nil && len(c.Body()) > 0 {
		return errorJSON(c, fiber.StatusBadRequest, msgBadBody)
	}
	if err := validation.ValidateStruct(&req); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) && verr.Has("Topic") {
			return errorJSON(c, fiber.StatusBadRequest, msgNoTopic)
		}
		return errorJSON(c, fiber.StatusBadRequest, msgBadBody)
	}

	source := models.SourceWeb
	if strings.EqualFold(strings.TrimSpace(req.Source), models.SourceMobile) {
		source = models.SourceMobile
	}

	res, err := h.generator.Generate(c.Context(), planner.Request{
		Topic:    req.Topic,
		Duration: req.Duration,
		Source:   source,
	})
	if errors.Is(err, planner.ErrEmptyTopic) {
		return errorJSON(c, fiber.StatusBadRequest, msgNoTopic)
	}
	if err != nil {
		slog.Error("plan generation failed", "topic", req.Topic, "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, msgGenerateFailed)
	}

	plan := res.Plan
	rememberPlan(c, RecentPlan{
		Topic:        plan.Topic,
		ResourceFile: plan.ResourceFile,
		RoadmapFile:  plan.RoadmapFile,
		DocxFile:     plan.DocxFile,
	})

	if wantsJSON(c) {
		return c.JSON(models.GenerateResponse{
			ResourceURL: h.downloadURL(c, plan.ResourceFile),
			RoadmapURL:  h.downloadURL(c, plan.RoadmapFile),
			DocxURL:     h.downloadURL(c, plan.DocxFile),
		})
	}

	return c.Render("results", MergeBranding(fiber.Map{
		"Title":      plan.Topic,
		"Topic":      plan.Topic,
		"Plan":       plan,
		"Steps":      res.Steps,
		"Assessment": res.Assessment,
	}, h.cfg))
}

// downloadURL builds an absolute download link, or "" when name is empty.
func (h *PlanHandler) downloadURL(c fiber.Ctx, name string) string {
	if name == "" {
		return ""
	}
	base := strings.TrimRight(h.cfg.BaseURL, "/")
	if base == "" {
		base = c.BaseURL()
	}
	return base + "/download/" + name
}

// Download serves a generated document as an attachment.
func (h *PlanHandler) Download(c fiber.Ctx) error {
	name := c.Params("filename")
	if !render.ValidName(name) {
		return errorJSON(c, fiber.StatusNotFound, msgFileNotFound)
	}

	path := filepath.Join(h.outputDir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return errorJSON(c, fiber.StatusNotFound, msgFileNotFound)
	}

	return c.Download(path, name)
}
