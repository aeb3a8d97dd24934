package admission

import (
	"fmt"
	"strings"
)

// Reason identifies which gate rejected a submission.
type Reason string

const (
	ReasonCooldown            Reason = "COOLDOWN"
	ReasonDuplicate           Reason = "DUPLICATE_SUBMISSION"
	ReasonCaptchaFailed       Reason = "CAPTCHA_FAILED"
	ReasonCaptchaUnconfigured Reason = "CAPTCHA_UNCONFIGURED"
	ReasonSecretMissing       Reason = "SECRET_MISSING"
)

// Rejection is returned by Admit when a gate refuses the submission.
// RetryAfter is in seconds and only set for cooldown and duplicate rejections.
type Rejection struct {
	Reason     Reason
	RetryAfter int
	ErrorCodes []string
}

func (r *Rejection) label() string {
	switch r.Reason {
	case ReasonDuplicate:
		return "duplicate"
	default:
		return strings.ToLower(string(r.Reason))
	}
}

func (r *Rejection) Error() string {
	if r.RetryAfter > 0 {
		return fmt.Sprintf("submission rejected: %s (retry after %ds)", r.Reason, r.RetryAfter)
	}
	return fmt.Sprintf("submission rejected: %s", r.Reason)
}
