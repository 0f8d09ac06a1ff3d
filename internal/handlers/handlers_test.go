package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"

	"studyplan/internal/config"
	"studyplan/internal/dataset"
	"studyplan/internal/fn"
	"studyplan/internal/models"
	"studyplan/internal/planner"
	"studyplan/internal/resources"
)

// fakeViews renders the template name plus a few bindings the tests check.
type fakeViews struct{}

func (fakeViews) Load() error { return nil }

func (fakeViews) Render(w io.Writer, name string, binding any, _ ...string) error {
	fmt.Fprintf(w, "view=%s", name)
	if m, ok := binding.(fiber.Map); ok {
		if msg, ok := m["Error"].(string); ok {
			fmt.Fprintf(w, " error=%s", msg)
		}
		if recent, ok := m["Recent"].([]RecentPlan); ok {
			fmt.Fprintf(w, " recent=%d", len(recent))
			for _, r := range recent {
				fmt.Fprintf(w, " %s", r.ResourceFile)
			}
		}
		if title, ok := m["SiteTitle"].(string); ok {
			fmt.Fprintf(w, " site=%s", title)
		}
	}
	return nil
}

type fakeGenerator struct {
	got planner.Request
	err error
}

func (g *fakeGenerator) Generate(_ context.Context, req planner.Request) (*planner.Result, error) {
	g.got = req
	if g.err != nil {
		return nil, g.err
	}
	stem := strings.ToLower(strings.TrimSpace(req.Topic))
	return &planner.Result{
		Plan: &models.Plan{
			Topic:        strings.TrimSpace(req.Topic),
			Source:       req.Source,
			ResourceFile: stem + "_resources.pdf",
			RoadmapFile:  stem + "_roadmap.pdf",
		},
		Steps: []string{"Temeller"},
	}, nil
}

func testConfig() *config.Config {
	return &config.Config{SiteTitle: "StudyPlan", BaseURL: "https://plan.example"}
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{Views: fakeViews{}})
	mw, _ := session.NewWithStore(session.Config{})
	app.Use(mw)
	return app
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func errorBody(t *testing.T, body string) string {
	t.Helper()
	var out map[string]string
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("body %q is not JSON: %v", body, err)
	}
	return out["error"]
}

func TestGenerate_JSON(t *testing.T) {
	gen := &fakeGenerator{}
	h := NewPlanHandler(gen, t.TempDir(), testConfig())
	app := newTestApp(t)
	app.Post("/generate", h.Generate)

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"topic":"turev","duration":"2 hafta","source":"Mobile"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, readBody(t, resp))
	}

	var got models.GenerateResponse
	if err := json.Unmarshal([]byte(readBody(t, resp)), &got); err != nil {
		t.Fatal(err)
	}
	if got.ResourceURL != "https://plan.example/download/turev_resources.pdf" {
		t.Errorf("ResourceURL = %q", got.ResourceURL)
	}
	if got.RoadmapURL != "https://plan.example/download/turev_roadmap.pdf" {
		t.Errorf("RoadmapURL = %q", got.RoadmapURL)
	}
	if got.DocxURL != "" {
		t.Errorf("DocxURL = %q, want empty", got.DocxURL)
	}
	if gen.got.Source != models.SourceMobile || gen.got.Duration != "2 hafta" {
		t.Errorf("request = %+v", gen.got)
	}
}

func TestGenerate_MissingTopic(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"blank json topic", "application/json", `{"topic":"   "}`},
		{"json without topic", "application/json", `{"duration":"1 ay"}`},
		{"empty form", "application/x-www-form-urlencoded", "topic="},
		{"no body", "", ""},
	}

	gen := &fakeGenerator{}
	h := NewPlanHandler(gen, t.TempDir(), testConfig())
	app := newTestApp(t)
	app.Post("/generate", h.Generate)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			if got := errorBody(t, readBody(t, resp)); got != msgNoTopic {
				t.Errorf("error = %q, want %q", got, msgNoTopic)
			}
		})
	}
}

func TestGenerate_Failure(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("%w: boom", planner.ErrRenderFailed)}
	h := NewPlanHandler(gen, t.TempDir(), testConfig())
	app := newTestApp(t)
	app.Post("/generate", h.Generate)

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"topic":"türev"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	if got := errorBody(t, readBody(t, resp)); got != msgGenerateFailed {
		t.Errorf("error = %q", got)
	}
}

func TestGenerate_FormRendersResultsAndRemembersPlan(t *testing.T) {
	gen := &fakeGenerator{}
	cfg := testConfig()
	h := NewPlanHandler(gen, t.TempDir(), cfg)
	pages := NewPageHandler(cfg)
	app := newTestApp(t)
	app.Post("/generate", h.Generate)
	app.Get("/", pages.Index)

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader("topic=oran&duration=1+hafta"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if body := readBody(t, resp); !strings.HasPrefix(body, "view=results") {
		t.Fatalf("body = %q", body)
	}
	if gen.got.Source != models.SourceWeb {
		t.Errorf("Source = %q, want web", gen.got.Source)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range resp.Cookies() {
		req2.AddCookie(c)
	}
	resp2, err := app.Test(req2)
	if err != nil {
		t.Fatal(err)
	}
	body := readBody(t, resp2)
	if !strings.Contains(body, "recent=1 oran_resources.pdf") {
		t.Errorf("index body = %q", body)
	}
	if !strings.Contains(body, "site=StudyPlan") {
		t.Errorf("branding missing: %q", body)
	}
}

func TestDownload(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "oran_resources.pdf"), []byte("%PDF-1.3"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	h := NewPlanHandler(&fakeGenerator{}, dir, testConfig())
	app := fiber.New()
	app.Get("/download/:filename", h.Download)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"existing file", "/download/oran_resources.pdf", http.StatusOK},
		{"missing file", "/download/nope.pdf", http.StatusNotFound},
		{"dot file", "/download/.env", http.StatusNotFound},
		{"directory", "/download/sub", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			body := readBody(t, resp)
			if tt.status == http.StatusOK {
				if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
					t.Errorf("Content-Disposition = %q", cd)
				}
				if body != "%PDF-1.3" {
					t.Errorf("body = %q", body)
				}
				return
			}
			if got := errorBody(t, body); got != msgFileNotFound {
				t.Errorf("error = %q", got)
			}
		})
	}
}

type fakeFinder struct{}

func (fakeFinder) Lookup(_ context.Context, topic string) (*resources.Result, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, resources.ErrEmptyTopic
	}
	res := resources.SearchLinks(topic)
	res.Wikipedia = resources.Wiki{Title: topic, Summary: "Özet."}
	return res, nil
}

func TestResources(t *testing.T) {
	h := NewResourceHandler(fakeFinder{}, testConfig())
	app := newTestApp(t)
	app.Get("/resources", h.Page)
	app.Post("/resources", h.Search)

	t.Run("page", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/resources", nil))
		if body := readBody(t, resp); !strings.HasPrefix(body, "view=resources") {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("json empty topic", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/resources", strings.NewReader(`{"topic":""}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d", resp.StatusCode)
		}
		if got := errorBody(t, readBody(t, resp)); got != msgEmptyTopic {
			t.Errorf("error = %q", got)
		}
	})

	t.Run("form empty topic", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/resources", strings.NewReader("topic=+"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, _ := app.Test(req)
		if body := readBody(t, resp); !strings.Contains(body, "error="+msgEnterTopic) {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("json lookup", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/resources", strings.NewReader(`{"topic":"Probability"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		var got resources.Result
		if err := json.Unmarshal([]byte(readBody(t, resp)), &got); err != nil {
			t.Fatal(err)
		}
		if got.Wikipedia.Summary != "Özet." || len(got.Videos) != 1 {
			t.Errorf("result = %+v", got)
		}
	})
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeDataset bool

func (d fakeDataset) Loaded() bool { return bool(d) }

func TestReadiness(t *testing.T) {
	tests := []struct {
		name        string
		db          Pinger
		dataset     DatasetState
		wantStatus  int
		wantDataset string
	}{
		{"no backing services", nil, nil, http.StatusOK, "stream"},
		{"database ok", fakePinger{}, fakeDataset(true), http.StatusOK, "loaded"},
		{"dataset loading", nil, fakeDataset(false), http.StatusOK, "loading"},
		{"database down", fakePinger{err: errors.New("refused")}, nil, http.StatusServiceUnavailable, "stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewProbeHandler(tt.db, tt.dataset)
			app := fiber.New()
			app.Get("/readyz", h.Readiness)
			app.Get("/healthz", h.Liveness)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			var got models.HealthResponse
			if err := json.Unmarshal([]byte(readBody(t, resp)), &got); err != nil {
				t.Fatal(err)
			}
			if got.Dataset != tt.wantDataset {
				t.Errorf("dataset = %q, want %q", got.Dataset, tt.wantDataset)
			}

			live, _ := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if live.StatusCode != http.StatusOK {
				t.Errorf("liveness status = %d", live.StatusCode)
			}
		})
	}
}

// stalledOpener never delivers the dataset until release is closed.
type stalledOpener struct{ release chan struct{} }

func (o stalledOpener) Open(ctx context.Context) fn.Result[io.ReadCloser] {
	select {
	case <-o.release:
		return fn.Ok(io.NopCloser(strings.NewReader("problem_id,skills,correct\n")))
	case <-ctx.Done():
		return fn.Err[io.ReadCloser](ctx.Err())
	}
}

func TestReadiness_DuringDatasetLoad(t *testing.T) {
	opener := stalledOpener{release: make(chan struct{})}
	defer close(opener.release)

	src := dataset.NewCachedSource(opener, dataset.ScannerConfig{}, nil)
	loadCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = src.Load(loadCtx) }()

	app := fiber.New()
	app.Get("/readyz", NewProbeHandler(nil, src).Readiness)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if err != nil {
		t.Fatalf("readiness did not answer while the dataset loads: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var got models.HealthResponse
	if err := json.Unmarshal([]byte(readBody(t, resp)), &got); err != nil {
		t.Fatal(err)
	}
	if got.Dataset != "loading" {
		t.Errorf("dataset = %q, want loading", got.Dataset)
	}
}
