package dataset

import "errors"

// Failure kinds. Each is wrapped with detail before it is returned.
var (
	ErrTransport      = errors.New("dataset transport failure")
	ErrBadStatus      = errors.New("dataset host returned non-success status")
	ErrNotCSV         = errors.New("dataset host did not return csv content")
	ErrNoConfirmToken = errors.New("confirmation page has no confirm token")
	ErrMissingColumn  = errors.New("dataset header is missing the skill column")
	ErrTranslation    = errors.New("topic translation failed")
)
