// Package planner turns a topic into a rendered study plan: it scans the
// dataset for the learner's weak spots, asks the language model for a plan
// and renders the documents.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyplan/internal/dataset"
	"studyplan/internal/fn"
	"studyplan/internal/llm"
	"studyplan/internal/models"
	"studyplan/internal/render"
)

var (
	ErrEmptyTopic   = errors.New("topic is required")
	ErrPlanFailed   = errors.New("plan generation failed")
	ErrRenderFailed = errors.New("document rendering failed")
)

// Searcher finds dataset rows for a topic.
type Searcher interface {
	Search(ctx context.Context, topic string) dataset.Outcome
}

// Completer drafts text with a language model.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) fn.Result[string]
}

// Renderer writes the plan documents and returns their file names.
type Renderer interface {
	Resources(stem string, doc render.Document) (string, error)
	Roadmap(stem, topic string, steps []string) (string, error)
	Docx(stem string, doc render.Document) (string, error)
}

// History stores generated plans.
type History interface {
	CreatePlan(ctx context.Context, p *models.Plan) error
}

// Observer is told how each generation ended.
type Observer interface {
	ObserveGenerate(outcome string, elapsed time.Duration)
}

// Config wires a Service. Searcher, History and Observer are optional.
type Config struct {
	Searcher  Searcher
	Completer Completer
	Renderer  Renderer
	History   History
	Observer  Observer
	Model     string
	Logger    *slog.Logger
}

// Service generates study plans.
type Service struct {
	searcher  Searcher
	completer Completer
	renderer  Renderer
	history   History
	observer  Observer
	model     string
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a plan Service.
func NewService(cfg Config) *Service {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		searcher:  cfg.Searcher,
		completer: cfg.Completer,
		renderer:  cfg.Renderer,
		history:   cfg.History,
		observer:  cfg.Observer,
		model:     cfg.Model,
		logger:    cfg.Logger,
		now:       time.Now,
	}
}

// Request is one plan generation request.
type Request struct {
	Topic    string
	Duration string
	Source   string
}

// Result describes a generated plan.
type Result struct {
	Plan       *models.Plan
	Assessment dataset.Assessment
	Search     *dataset.Outcome
	Steps      []string
}

// Generate runs a full generation. A failed dataset scan never fails the
// request; only the language model or the resources document can.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	start := s.now()
	res, err := s.generate(ctx, req)

	outcome := "success"
	switch {
	case errors.Is(err, ErrEmptyTopic):
		outcome = "invalid"
	case errors.Is(err, ErrPlanFailed):
		outcome = "llm_error"
	case errors.Is(err, ErrRenderFailed):
		outcome = "render_error"
	case err != nil:
		outcome = "error"
	}
	if s.observer != nil {
		s.observer.ObserveGenerate(outcome, s.now().Sub(start))
	}
	return res, err
}

func (s *Service) generate(ctx context.Context, req Request) (*Result, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	source := req.Source
	if source == "" {
		source = models.SourceWeb
	}

	plan := &models.Plan{
		ID:        uuid.New(),
		Topic:     topic,
		Source:    source,
		Duration:  strings.TrimSpace(req.Duration),
		Terms:     []string{},
		Tier:      dataset.TierNone.String(),
		CreatedAt: s.now().UTC(),
	}
	result := &Result{Plan: plan, Assessment: dataset.Assessment{Problems: []dataset.Problem{}}}

	if source == models.SourceMobile || s.searcher == nil {
		s.logger.Info("skipping dataset scan", "topic", topic, "source", source)
	} else {
		outcome := s.searcher.Search(ctx, topic)
		result.Search = &outcome
		result.Assessment = dataset.Assess(outcome.Rows(), dataset.DefaultHardestProblems)

		plan.Strategy = string(outcome.Terms.Strategy)
		plan.Terms = outcome.Terms.Values
		plan.Matches = len(outcome.Rows())
		plan.Tier = result.Assessment.Tier.String()
	}

	content, err := s.completer.Complete(ctx, llm.Request{
		Model:       s.model,
		System:      systemPrompt,
		Prompt:      BuildPrompt(topic, plan.Duration, result.Assessment),
		Temperature: 0.7,
	}).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlanFailed, err)
	}

	parsed := ParseResponse(content)
	blocks := render.ParseBlocks(parsed.HTML)
	if len(blocks) == 0 {
		// The model ignored the markers; keep its whole answer as the plan.
		blocks = render.ParseBlocks(content)
	}
	result.Steps = parsed.Steps
	plan.Steps = parsed.Steps

	doc := render.Document{
		Topic:  topic,
		Date:   plan.CreatedAt,
		Blocks: blocks,
	}
	if result.Assessment.HasData() {
		doc.Guidance = result.Assessment.Guidance
		doc.Problems = result.Assessment.ProblemIDs()
	}

	stem := fileStem(topic, plan.ID)
	if plan.ResourceFile, err = s.renderer.Resources(stem, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	if len(parsed.Steps) > 0 {
		if plan.RoadmapFile, err = s.renderer.Roadmap(stem, topic, parsed.Steps); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
		}
	}
	if name, err := s.renderer.Docx(stem, doc); err != nil {
		s.logger.Warn("docx export failed", "topic", topic, "error", err)
	} else {
		plan.DocxFile = name
	}

	if s.history != nil {
		if err := s.history.CreatePlan(ctx, plan); err != nil {
			s.logger.Warn("failed to record plan", "plan_id", plan.ID, "error", err)
		}
	}

	s.logger.Info("plan generated",
		"plan_id", plan.ID,
		"topic", topic,
		"source", source,
		"matches", plan.Matches,
		"tier", plan.Tier,
		"steps", len(parsed.Steps),
	)
	return result, nil
}

// fileStem names a plan's documents. The plan ID suffix keeps topics that
// sanitize alike, and repeated generations of one topic, from sharing files.
func fileStem(topic string, id uuid.UUID) string {
	return render.SanitizeFilename(topic) + "_" + id.String()[:8]
}
