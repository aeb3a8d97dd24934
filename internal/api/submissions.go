package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-api/internal/admission"
	"portfolio-api/internal/metrics"
)

const maxSubmitBodyBytes = 64 << 10

func (s *Server) handleSubmit(c *gin.Context) {
	req, ok := s.decodeSubmit(c)
	if !ok {
		return
	}

	origin := c.ClientIP()
	ctx := c.Request.Context()

	// A filled honeypot answers 204 before throttling or validation so bots
	// learn nothing from the response.
	if admission.IsHoneypot(req.Honeypot) {
		if _, err := s.admitter.Admit(ctx, req.admissionRequest(origin, "")); err != nil {
			renderAdmissionError(c, s.logger, err)
			return
		}
		c.Status(http.StatusNoContent)
		return
	}

	if quota := s.limiter.Take(ctx, "submissions:"+origin, s.cfg.SubmitLimitPerWindow, s.cfg.RateWindow); !quota.Allowed {
		metrics.ThrottleHits.WithLabelValues("submissions").Inc()
		c.Header("Retry-After", strconv.Itoa(ceilSeconds(quota.ResetIn)))
		writeDetail(c, http.StatusTooManyRequests, detailThrottled)
		return
	}

	req.Normalize()
	if errs := req.Validate(); errs != nil {
		metrics.SubmissionsTotal.WithLabelValues("invalid").Inc()
		writeFieldErrors(c, errs)
		return
	}

	decision, err := s.admitter.Admit(ctx, req.admissionRequest(origin, c.Request.UserAgent()))
	if err != nil {
		renderAdmissionError(c, s.logger, err)
		return
	}
	if decision.Outcome == admission.OutcomeDropped {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":           "ok",
		"cooldown_seconds": decision.CooldownSeconds,
	})
}

// decodeSubmit reads the JSON body. On failure it has already responded.
func (s *Server) decodeSubmit(c *gin.Context) (SubmitRequest, bool) {
	var req SubmitRequest

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxSubmitBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(c, http.StatusRequestEntityTooLarge, "Request body too large.")
			return req, false
		}
		writeDetail(c, http.StatusBadRequest, detailMalformedBody)
		return req, false
	}

	if err := json.Unmarshal(body, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			writeFieldErrors(c, fieldErrors{typeErr.Field: {"Not a valid string."}})
			return req, false
		}
		writeDetail(c, http.StatusBadRequest, detailMalformedBody)
		return req, false
	}
	return req, true
}

func ceilSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	return max(secs, 1)
}
