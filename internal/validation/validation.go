// Package validation checks request payloads with go-playground/validator.
package validation

import (
	"errors"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// MaxTopicLength bounds a topic in runes.
const MaxTopicLength = 200

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GenerateRequest is the plan generation form or JSON body.
type GenerateRequest struct {
	Topic    string `json:"topic" form:"topic" validate:"topic"`
	Duration string `json:"duration" form:"duration" validate:"max=100"`
	Source   string `json:"source" form:"source" validate:"max=20"`
}

// TopicRequest carries a single topic, as a form field, JSON body or query.
type TopicRequest struct {
	Topic string `json:"topic" form:"topic" query:"topic" validate:"topic"`
}

// PlansQuery pages the plan history.
type PlansQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

// FieldError is one failed rule.
type FieldError struct {
	Field string
	Tag   string
}

// Error is returned when a struct fails validation.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Tag
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field failed any rule.
func (e *Error) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// GetValidator returns the shared validator with custom rules registered.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterValidation("topic", func(fl validator.FieldLevel) bool {
			return ValidTopic(fl.Field().String())
		})
	})
	return validate
}

// ValidTopic reports whether s is a usable topic: not blank, not too long
// and free of control characters.
func ValidTopic(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > MaxTopicLength {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// ValidateStruct validates s. It returns nil or an error; rule failures
// are reported as *Error.
func ValidateStruct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Fields: make([]FieldError, len(verrs))}
	for i, fe := range verrs {
		out.Fields[i] = FieldError{Field: fe.Field(), Tag: fe.Tag()}
	}
	return out
}
