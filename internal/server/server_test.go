package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/encryptcookie"
	"github.com/gofiber/fiber/v3/middleware/session"

	"studyplan/internal/config"
	"studyplan/internal/handlers"
	"studyplan/internal/handlers/api"
	"studyplan/internal/planner"
)

// TestEncryptCookieSessionRoundTrip replays encrypted session cookies across
// requests the way the recent-plans list on the home page relies on.
func TestEncryptCookieSessionRoundTrip(t *testing.T) {
	encryptionKey := deriveEncryptionKey("test-secret-that-is-long-enough-for-production")

	app := fiber.New()
	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: encryptionKey,
	}))
	sessionMiddleware, _ := session.NewWithStore(session.Config{
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})
	app.Use(sessionMiddleware)

	app.Post("/session-set", func(c fiber.Ctx) error {
		sess := session.FromContext(c)
		if sess == nil {
			return c.Status(500).SendString("no session")
		}
		sess.Set("recent_plans", `[{"topic":"türev"}]`)
		return c.SendString("ok")
	})
	app.Get("/session-get", func(c fiber.Ctx) error {
		sess := session.FromContext(c)
		if sess == nil {
			return c.Status(500).SendString("no session")
		}
		val, _ := sess.Get("recent_plans").(string)
		return c.SendString(val)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/session-set", nil))
	if err != nil {
		t.Fatalf("set request failed: %v", err)
	}
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		t.Fatal("no cookies returned")
	}

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/session-get", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("get request %d failed: %v", i, err)
		}
		body, _ := io.ReadAll(resp.Body)
		if string(body) != `[{"topic":"türev"}]` {
			t.Errorf("get request %d: session value = %q", i, body)
		}
		if next := resp.Cookies(); len(next) > 0 {
			cookies = next
		}
	}
}

type noopGenerator struct{}

func (noopGenerator) Generate(context.Context, planner.Request) (*planner.Result, error) {
	return nil, planner.ErrEmptyTopic
}

func newTestServer(t *testing.T, rateLimit int) *Server {
	t.Helper()
	cfg := &config.Config{
		Env:           "test",
		SessionSecret: "test-secret-that-is-long-enough-for-production",
		CORSOrigins:   "*",
		RateLimit:     rateLimit,
		SiteTitle:     "StudyPlan",
	}
	s := New(cfg, nil)
	s.RegisterRoutes(Handlers{
		Pages:     handlers.NewPageHandler(cfg),
		Plans:     handlers.NewPlanHandler(noopGenerator{}, t.TempDir(), cfg),
		Resources: handlers.NewResourceHandler(nil, cfg),
		Probe:     handlers.NewProbeHandler(nil, nil),
		Search:    api.NewSearchHandler(nil),
		History:   api.NewPlansHandler(nil),
	})
	return s
}

func TestRoutes_ProbesAndMetrics(t *testing.T) {
	s := newTestServer(t, 100)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, path, nil))
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d", path, resp.StatusCode)
		}
	}
}

func TestRoutes_APIErrorsUseEnvelope(t *testing.T) {
	s := newTestServer(t, 100)

	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"status":"error"`) {
		t.Errorf("body = %s", body)
	}

	resp, err = s.App.Test(httptest.NewRequest(http.MethodGet, "/api/plans", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("/api/plans status = %d, want 503", resp.StatusCode)
	}
}

func TestRateLimiter(t *testing.T) {
	s := newTestServer(t, 2)

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"topic":""}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.App.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", last)
	}

	// Probes are not limited.
	resp, _ := s.App.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
}
