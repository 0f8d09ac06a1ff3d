package llm

import "errors"

var (
	ErrNotConfigured = errors.New("llm: api key not configured")
	ErrBadStatus     = errors.New("llm: unexpected status")
	ErrEmptyResponse = errors.New("llm: empty completion")
	ErrUnavailable   = errors.New("llm: circuit open")
)
