package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"studyplan/internal/dataset"
	"studyplan/internal/db"
	"studyplan/internal/models"
)

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

func doGet(t *testing.T, app *fiber.App, path string) (int, envelope) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("body %q: %v", body, err)
	}
	return resp.StatusCode, env
}

type fakeSearcher struct{ topic string }

func (s *fakeSearcher) Search(_ context.Context, topic string) dataset.Outcome {
	s.topic = topic
	return dataset.Outcome{
		Topic: topic,
		Terms: dataset.Terms{Values: []string{"7.SP.C.5"}, Strategy: dataset.StrategyMapped},
		Scan: dataset.ScanResult{
			Rows: []dataset.Row{
				{Skill: "7.SP.C.5", ProblemID: "p1", Correct: "0"},
				{Skill: "7.SP.C.5", ProblemID: "p1", Correct: "1"},
				{Skill: "7.SP.C.5", ProblemID: "p2", Correct: "0"},
			},
			RowsScanned: 1200,
			Stop:        dataset.StopExhausted,
			Elapsed:     1500 * time.Millisecond,
		},
	}
}

func TestSearch(t *testing.T) {
	s := &fakeSearcher{}
	app := fiber.New()
	app.Get("/api/search", NewSearchHandler(s).Search)

	status, env := doGet(t, app, "/api/search?topic=olas%C4%B1l%C4%B1k")
	if status != http.StatusOK || env.Status != "ok" {
		t.Fatalf("status = %d, env = %+v", status, env)
	}
	if s.topic != "olasılık" {
		t.Errorf("searched %q", s.topic)
	}

	var got models.SearchResponse
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Strategy != "mapped" || len(got.Rows) != 3 {
		t.Errorf("response = %+v", got)
	}
	if got.Stats.RowsScanned != 1200 || got.Stats.ElapsedMS != 1500 || got.Stats.Stop != "exhausted" {
		t.Errorf("stats = %+v", got.Stats)
	}
	if len(got.Assessment.Problems) != 2 || got.Assessment.Problems[0].ID != "p2" {
		t.Errorf("assessment = %+v", got.Assessment)
	}
}

func TestSearch_MissingTopic(t *testing.T) {
	s := &fakeSearcher{}
	app := fiber.New()
	app.Get("/api/search", NewSearchHandler(s).Search)

	status, env := doGet(t, app, "/api/search?topic=%20")
	if status != http.StatusBadRequest || env.Status != "error" {
		t.Errorf("status = %d, env = %+v", status, env)
	}
	if s.topic != "" {
		t.Error("searcher should not be called")
	}
}

type fakePlanStore struct {
	plans []models.Plan
	err   error
	limit int
}

func (s *fakePlanStore) ListRecentPlans(_ context.Context, limit int) ([]models.Plan, error) {
	s.limit = limit
	return s.plans, s.err
}

func (s *fakePlanStore) GetPlan(_ context.Context, id uuid.UUID) (*models.Plan, error) {
	for i := range s.plans {
		if s.plans[i].ID == id {
			return &s.plans[i], nil
		}
	}
	return nil, db.ErrPlanNotFound
}

func TestPlans(t *testing.T) {
	known := uuid.New()
	store := &fakePlanStore{plans: []models.Plan{{ID: known, Topic: "türev"}}}

	app := fiber.New()
	h := NewPlansHandler(store)
	app.Get("/api/plans", h.List)
	app.Get("/api/plans/:id", h.Get)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"list", "/api/plans?limit=10", http.StatusOK},
		{"limit too large", "/api/plans?limit=1000", http.StatusBadRequest},
		{"get", "/api/plans/" + known.String(), http.StatusOK},
		{"bad id", "/api/plans/not-a-uuid", http.StatusBadRequest},
		{"unknown id", "/api/plans/" + uuid.New().String(), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := doGet(t, app, tt.path)
			if status != tt.status {
				t.Errorf("status = %d, want %d (%+v)", status, tt.status, env)
			}
		})
	}
	if store.limit != 10 {
		t.Errorf("limit = %d, want 10", store.limit)
	}
}

func TestPlans_StoreError(t *testing.T) {
	app := fiber.New()
	app.Get("/api/plans", NewPlansHandler(&fakePlanStore{err: errors.New("db down")}).List)

	status, env := doGet(t, app, "/api/plans")
	if status != http.StatusInternalServerError || env.Error != "failed to fetch plans" {
		t.Errorf("status = %d, env = %+v", status, env)
	}
}

func TestPlans_Disabled(t *testing.T) {
	app := fiber.New()
	h := NewPlansHandler(nil)
	app.Get("/api/plans", h.List)

	status, env := doGet(t, app, "/api/plans")
	if status != http.StatusServiceUnavailable || env.Error != "plan history is not enabled" {
		t.Errorf("status = %d, env = %+v", status, env)
	}
}
