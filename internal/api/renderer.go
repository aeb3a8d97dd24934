package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"portfolio-api/internal/admission"
)

const (
	detailInternal             = "Internal server error."
	detailCaptchaUnconfigured  = "CAPTCHA verification is not configured on the server."
	detailSecretMissing        = "TURNSTILE_SECRET_KEY is not set"
	detailThrottled            = "Request was throttled."
	detailMalformedBody        = "Malformed request body."
	detailNotFound             = "Not found."
	detailInvalidCredentials   = "Invalid username or password."
	detailAuthenticationNeeded = "Authentication credentials were not provided."
)

// renderAdmissionError maps a pipeline failure to its HTTP response.
func renderAdmissionError(c *gin.Context, logger *slog.Logger, err error) {
	var rejection *admission.Rejection
	if !errors.As(err, &rejection) {
		logger.Error("submission failed", "error", err, "request_id", requestIDFrom(c))
		writeDetail(c, http.StatusInternalServerError, detailInternal)
		return
	}

	switch rejection.Reason {
	case admission.ReasonCooldown:
		c.Header("Retry-After", strconv.Itoa(rejection.RetryAfter))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"detail":              string(rejection.Reason),
			"retry_after_seconds": rejection.RetryAfter,
		})
	case admission.ReasonDuplicate:
		c.JSON(http.StatusConflict, gin.H{
			"detail":              string(rejection.Reason),
			"retry_after_seconds": rejection.RetryAfter,
		})
	case admission.ReasonCaptchaFailed:
		codes := rejection.ErrorCodes
		if codes == nil {
			codes = []string{}
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"detail":      string(rejection.Reason),
			"error_codes": codes,
		})
	case admission.ReasonCaptchaUnconfigured:
		logger.Error("captcha enabled but not configured")
		writeDetail(c, http.StatusServiceUnavailable, detailCaptchaUnconfigured)
	case admission.ReasonSecretMissing:
		logger.Error("captcha configured without a secret key")
		writeDetail(c, http.StatusInternalServerError, detailSecretMissing)
	default:
		logger.Error("unhandled rejection", "reason", rejection.Reason)
		writeDetail(c, http.StatusInternalServerError, detailInternal)
	}
}

func writeDetail(c *gin.Context, code int, detail string) {
	c.JSON(code, gin.H{"detail": detail})
}

func writeFieldErrors(c *gin.Context, errs fieldErrors) {
	c.JSON(http.StatusBadRequest, errs)
}

func writeMethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{
		"error": gin.H{
			"code":    "method_not_allowed",
			"message": "Method " + c.Request.Method + " not allowed.",
			"details": nil,
		},
	})
}
