package handlers

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
)

// User-facing messages.
const (
	msgNoTopic        = "Konu girilmedi."
	msgGenerateFailed = "PDF oluşturulamadı, sistem yoğun."
	msgFileNotFound   = "Dosya bulunamadı."
	msgEmptyTopic     = "Konu boş olamaz."
	msgEnterTopic     = "Lütfen bir konu girin."
	msgBadBody        = "Geçersiz istek."
)

const (
	recentSessionKey = "recent_plans"
	maxRecentPlans   = 5
)

// RecentPlan is a generated plan remembered in the visitor's session.
type RecentPlan struct {
	Topic        string `json:"topic"`
	ResourceFile string `json:"resource_file"`
	RoadmapFile  string `json:"roadmap_file,omitempty"`
	DocxFile     string `json:"docx_file,omitempty"`
}

// wantsJSON reports whether the request body is JSON.
func wantsJSON(c fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEApplicationJSON)
}

// errorJSON answers with the bare {"error": message} body the clients expect.
func errorJSON(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// recentPlans reads the session's recent plans, newest first.
func recentPlans(c fiber.Ctx) []RecentPlan {
	sess := session.FromContext(c)
	if sess == nil {
		return nil
	}
	raw, _ := sess.Get(recentSessionKey).(string)
	if raw == "" {
		return nil
	}
	var plans []RecentPlan
	if err := json.Unmarshal([]byte(raw), &plans); err != nil {
		return nil
	}
	return plans
}

// rememberPlan prepends p to the session's recent plans.
func rememberPlan(c fiber.Ctx, p RecentPlan) {
	sess := session.FromContext(c)
	if sess == nil {
		return
	}
	plans := []RecentPlan{p}
	for _, old := range recentPlans(c) {
		if len(plans) == maxRecentPlans {
			break
		}
		if old.ResourceFile != p.ResourceFile {
			plans = append(plans, old)
		}
	}
	data, err := json.Marshal(plans)
	if err != nil {
		return
	}
	sess.Set(recentSessionKey, string(data))
}
