package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *outcomeRecorder) ObserveCompletion(_, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func completionServer(t *testing.T, status int, body string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if seen != nil {
			data, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(data, seen); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Complete(t *testing.T) {
	var seen chatRequest
	srv := completionServer(t, http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"  merhaba  "}}]}`, &seen)
	rec := &outcomeRecorder{}

	c := NewClient(Config{Name: "test", BaseURL: srv.URL + "/", APIKey: "test-key", Model: "m1", Observer: rec})
	got, err := c.Complete(context.Background(), Request{System: "sys", Prompt: "hi", Temperature: 0.7}).Unwrap()
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "merhaba" {
		t.Errorf("Complete() = %q, want %q", got, "merhaba")
	}

	if seen.Model != "m1" {
		t.Errorf("model = %q, want default m1", seen.Model)
	}
	if len(seen.Messages) != 2 || seen.Messages[0].Role != "system" || seen.Messages[1].Content != "hi" {
		t.Errorf("messages = %+v", seen.Messages)
	}
	if seen.Temperature != 0.7 {
		t.Errorf("temperature = %v", seen.Temperature)
	}
	if len(rec.outcomes) != 1 || rec.outcomes[0] != OutcomeSuccess {
		t.Errorf("outcomes = %v", rec.outcomes)
	}
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `{"error":{"message":"overloaded"}}`, ErrBadStatus},
		{"unauthorized", http.StatusUnauthorized, `not json`, ErrBadStatus},
		{"no choices", http.StatusOK, `{"choices":[]}`, ErrEmptyResponse},
		{"blank content", http.StatusOK, `{"choices":[{"message":{"content":"   "}}]}`, ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := completionServer(t, tt.status, tt.body, nil)
			c := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"})

			err := c.Complete(context.Background(), Request{Prompt: "x"}).Error()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Complete() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_NotConfigured(t *testing.T) {
	c := NewClient(Config{})
	if c.Configured() {
		t.Fatal("Configured() = true without key")
	}
	if err := c.Complete(context.Background(), Request{Prompt: "x"}).Error(); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Complete() error = %v, want ErrNotConfigured", err)
	}
}

func TestClient_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	rec := &outcomeRecorder{}
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Observer: rec})

	for i := 0; i < 5; i++ {
		if err := c.Complete(context.Background(), Request{Prompt: "x"}).Error(); !errors.Is(err, ErrBadStatus) {
			t.Fatalf("call %d error = %v, want ErrBadStatus", i, err)
		}
	}

	err := c.Complete(context.Background(), Request{Prompt: "x"}).Error()
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error after trip = %v, want ErrUnavailable", err)
	}
	if hits.Load() != 5 {
		t.Errorf("server hit %d times, want 5", hits.Load())
	}
	if last := rec.outcomes[len(rec.outcomes)-1]; last != OutcomeRejected {
		t.Errorf("last outcome = %q, want %q", last, OutcomeRejected)
	}
}

func TestTranslator_Translate(t *testing.T) {
	var seen chatRequest
	srv := completionServer(t, http.StatusOK,
		`{"choices":[{"message":{"content":"\"Derivative.\""}}]}`, &seen)

	tr := NewTranslator(NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"}), "")
	got, err := tr.Translate(context.Background(), "Türev").Unwrap()
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if got != "Derivative" {
		t.Errorf("Translate() = %q, want %q", got, "Derivative")
	}
	if seen.Model != DefaultTranslateModel {
		t.Errorf("model = %q, want %q", seen.Model, DefaultTranslateModel)
	}
	if seen.Temperature != 0.1 {
		t.Errorf("temperature = %v, want 0.1", seen.Temperature)
	}
}

func TestCleanTerm(t *testing.T) {
	tests := map[string]string{
		`"Probability"`:  "Probability",
		"Derivative.":    "Derivative",
		"  Ratio  ":      "Ratio",
		`"."`:            "",
		"Newton's laws.": "Newton's laws",
	}
	for in, want := range tests {
		if got := CleanTerm(in); got != want {
			t.Errorf("CleanTerm(%q) = %q, want %q", in, got, want)
		}
	}
}
