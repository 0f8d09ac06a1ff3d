// Package llm talks to OpenAI-compatible chat completion APIs.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"studyplan/internal/fn"
)

const (
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	OpenAIBaseURL = "https://api.openai.com/v1"
)

// Outcome labels reported to an Observer.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// Observer receives one call per completion attempt.
type Observer interface {
	ObserveCompletion(client, outcome string, elapsed time.Duration)
}

// BreakerObserver is optionally implemented by an Observer that tracks
// circuit breaker state.
type BreakerObserver interface {
	ObserveBreaker(client string, open bool)
}

// Config configures a Client.
type Config struct {
	Name       string
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
	Observer   Observer
	Logger     *slog.Logger
}

// Client sends chat completions. Calls are rate limited and pass through a
// circuit breaker so a failing provider is not hammered by every request.
type Client struct {
	name     string
	baseURL  string
	apiKey   string
	model    string
	http     *http.Client
	limiter  *rate.Limiter
	cb       *gobreaker.CircuitBreaker[string]
	observer Observer
	logger   *slog.Logger
}

// NewClient creates a Client. A client without an API key is valid and
// fails every call with ErrNotConfigured.
func NewClient(cfg Config) *Client {
	if cfg.Name == "" {
		cfg.Name = "llm"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenAIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}

	logger := cfg.Logger.With("client", cfg.Name)
	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Cancelled callers say nothing about provider health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("llm circuit breaker state change", "from", from.String(), "to", to.String())
			if bo, ok := cfg.Observer.(BreakerObserver); ok {
				bo.ObserveBreaker(name, to == gobreaker.StateOpen)
			}
		},
	})

	return &Client{
		name:    cfg.Name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter:  rate.NewLimiter(limit, cfg.Burst),
		cb:       cb,
		observer: cfg.Observer,
		logger:   logger,
	}
}

// Configured reports whether the client has credentials.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Request is a single-turn chat completion.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete returns the first choice's message content, trimmed.
func (c *Client) Complete(ctx context.Context, req Request) fn.Result[string] {
	if !c.Configured() {
		return fn.Err[string](ErrNotConfigured)
	}
	if req.Model == "" {
		req.Model = c.model
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fn.Errf[string]("llm: rate limiter: %w", err)
	}

	start := time.Now()
	out, err := c.cb.Execute(func() (string, error) {
		return c.do(ctx, req)
	})
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.observe(OutcomeRejected, elapsed)
		return fn.Err[string](fmt.Errorf("%w: %v", ErrUnavailable, err))
	case err != nil:
		c.observe(OutcomeFailure, elapsed)
		c.logger.Warn("llm completion failed", "model", req.Model, "error", err, "elapsed", elapsed)
		return fn.Err[string](err)
	}

	c.observe(OutcomeSuccess, elapsed)
	return fn.Ok(out)
}

func (c *Client) do(ctx context.Context, req Request) (string, error) {
	body := chatRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.Prompt})

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("llm: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("llm: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("llm %s: %w", c.name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("llm %s: read response: %w", c.name, err)
	}

	var decoded chatResponse
	decodeErr := json.Unmarshal(data, &decoded)

	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if decodeErr == nil && decoded.Error != nil && decoded.Error.Message != "" {
			msg = decoded.Error.Message
		}
		return "", fmt.Errorf("%w %d: %s", ErrBadStatus, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("llm %s: decode response: %w", c.name, decodeErr)
	}
	if len(decoded.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func (c *Client) observe(outcome string, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveCompletion(c.name, outcome, elapsed)
	}
}
