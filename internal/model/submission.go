package model

import "time"

const (
	KindContact  = "contact"
	KindFeedback = "feedback"
)

// CaptchaProviderTurnstile is recorded on submissions verified by Cloudflare Turnstile.
const CaptchaProviderTurnstile = "turnstile"

// Submission is an accepted contact or feedback entry.
// Only IsHandled and HandledAt change after creation.
type Submission struct {
	ID                string     `json:"id"`
	Kind              string     `json:"kind"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Subject           string     `json:"subject"`
	Message           string     `json:"message"`
	PageURL           string     `json:"page_url"`
	OriginAddress     string     `json:"origin_address,omitempty"`
	UserAgent         string     `json:"user_agent"`
	CaptchaProvider   *string    `json:"captcha_provider"`
	CaptchaVerified   bool       `json:"captcha_verified"`
	CaptchaErrorCodes []string   `json:"captcha_error_codes"`
	ContentHash       string     `json:"content_hash"`
	CreatedAt         time.Time  `json:"created_at"`
	IsHandled         bool       `json:"is_handled"`
	HandledAt         *time.Time `json:"handled_at"`
}

// SubmissionListOptions filters the admin submission listing.
type SubmissionListOptions struct {
	// Handled is nil for all submissions.
	Handled *bool
	Kind    string
	Limit   int
	Offset  int
}
