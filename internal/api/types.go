package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"portfolio-api/internal/admission"
)

// SubmitRequest is the body of POST /api/submissions/.
type SubmitRequest struct {
	Kind           string `json:"kind" validate:"required,oneof=contact feedback"`
	Name           string `json:"name" validate:"required_if=Kind contact,max=120"`
	Email          string `json:"email" validate:"required_if=Kind contact,omitempty,max=254,email"`
	Subject        string `json:"subject" validate:"required_if=Kind contact,max=200"`
	Message        string `json:"message" validate:"required,max=4000"`
	PageURL        string `json:"page_url" validate:"omitempty,max=200,url"`
	TurnstileToken string `json:"turnstile_token" validate:"required"`
	Honeypot       string `json:"honeypot"`
}

func (r *SubmitRequest) Normalize() {
	r.Kind = strings.TrimSpace(r.Kind)
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Message = strings.TrimSpace(r.Message)
	r.PageURL = strings.TrimSpace(r.PageURL)
	r.TurnstileToken = strings.TrimSpace(r.TurnstileToken)
}

// Validate returns field-keyed messages, or nil when the request is valid.
func (r *SubmitRequest) Validate() fieldErrors {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return fieldErrors{"non_field_errors": {err.Error()}}
	}

	out := fieldErrors{}
	for _, fe := range invalid {
		out.add(fe.Field(), messageFor(fe))
	}
	return out
}

func (r *SubmitRequest) admissionRequest(origin, userAgent string) admission.Request {
	return admission.Request{
		Kind:           r.Kind,
		Name:           r.Name,
		Email:          r.Email,
		Subject:        r.Subject,
		Message:        r.Message,
		PageURL:        r.PageURL,
		TurnstileToken: r.TurnstileToken,
		Honeypot:       r.Honeypot,
		OriginAddress:  origin,
		UserAgent:      userAgent,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type MarkHandledRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,max=500,dive,required"`
}

// fieldErrors is rendered as {"field": ["message", ...]}.
type fieldErrors map[string][]string

func (f fieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "required_if":
		return fmt.Sprintf("%s is required for contact.", capitalize(fe.Field()))
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fe.Value())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	default:
		return "Invalid value."
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
