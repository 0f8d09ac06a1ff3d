package llm

import (
	"context"
	"strings"

	"studyplan/internal/fn"
)

const (
	DefaultTranslateModel = "llama-3.3-70b-versatile"
	translateSystem       = "Translate to English technical term. Only output the word."
)

// Translator turns a topic into a one-word English technical term.
type Translator struct {
	client *Client
	model  string
}

// NewTranslator creates a Translator on top of client.
func NewTranslator(client *Client, model string) *Translator {
	if model == "" {
		model = DefaultTranslateModel
	}
	return &Translator{client: client, model: model}
}

// Translate returns the cleaned translation of text.
func (t *Translator) Translate(ctx context.Context, text string) fn.Result[string] {
	out, err := t.client.Complete(ctx, Request{
		Model:       t.model,
		System:      translateSystem,
		Prompt:      text,
		Temperature: 0.1,
		MaxTokens:   16,
	}).Unwrap()
	if err != nil {
		return fn.Err[string](err)
	}

	cleaned := CleanTerm(out)
	if cleaned == "" {
		return fn.Err[string](ErrEmptyResponse)
	}
	return fn.Ok(cleaned)
}

// CleanTerm strips double quotes and periods from a model answer.
func CleanTerm(s string) string {
	s = strings.NewReplacer(`"`, "", ".", "").Replace(s)
	return strings.TrimSpace(s)
}
