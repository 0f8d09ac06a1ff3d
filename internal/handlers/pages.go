package handlers

import (
	"github.com/gofiber/fiber/v3"

	"studyplan/internal/config"
)

// PageHandler renders the static site pages.
type PageHandler struct {
	cfg *config.Config
}

// NewPageHandler creates a new page handler.
func NewPageHandler(cfg *config.Config) *PageHandler {
	return &PageHandler{cfg: cfg}
}

// Index renders the home page with the plan form and recent plans.
func (h *PageHandler) Index(c fiber.Ctx) error {
	return c.Render("index", MergeBranding(fiber.Map{
		"Title":  "Ana Sayfa",
		"Recent": recentPlans(c),
	}, h.cfg))
}

// About renders the about page.
func (h *PageHandler) About(c fiber.Ctx) error {
	return c.Render("about", MergeBranding(fiber.Map{"Title": "Hakkında"}, h.cfg))
}

// FAQ renders the frequently asked questions page.
func (h *PageHandler) FAQ(c fiber.Ctx) error {
	return c.Render("faq", MergeBranding(fiber.Map{"Title": "SSS"}, h.cfg))
}

// Chatbot renders the chat page.
func (h *PageHandler) Chatbot(c fiber.Ctx) error {
	return c.Render("chatbot", MergeBranding(fiber.Map{"Title": "Sohbet"}, h.cfg))
}
