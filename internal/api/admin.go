package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-api/internal/auth"
	"portfolio-api/internal/model"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func (s *Server) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeDetail(c, http.StatusBadRequest, "username and password are required.")
		return
	}

	admin, err := auth.Authenticate(c.Request.Context(), s.store, strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Warn("admin login failed", "username", req.Username, "client_ip", c.ClientIP())
			writeDetail(c, http.StatusUnauthorized, detailInvalidCredentials)
			return
		}
		s.logger.Error("admin login", "error", err, "request_id", requestIDFrom(c))
		writeDetail(c, http.StatusInternalServerError, detailInternal)
		return
	}

	token, expiresAt, err := s.sessions.Issue(admin)
	if err != nil {
		s.logger.Error("issue session", "error", err, "request_id", requestIDFrom(c))
		writeDetail(c, http.StatusInternalServerError, detailInternal)
		return
	}

	s.setSessionCookie(c, token, int(s.sessions.TTL()/time.Second))
	s.logger.Info("admin logged in", "username", admin.Username)
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"token":      token,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	s.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, value, maxAge, "/", "", !s.cfg.Relaxed(), true)
}

func (s *Server) handleListSubmissions(c *gin.Context) {
	opts, errs := parseListOptions(c)
	if errs != nil {
		writeFieldErrors(c, errs)
		return
	}

	subs, err := s.store.ListSubmissions(c.Request.Context(), opts)
	if err != nil {
		s.logger.Error("list submissions", "error", err, "request_id", requestIDFrom(c))
		writeDetail(c, http.StatusInternalServerError, detailInternal)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"results": subs,
		"limit":   opts.Limit,
		"offset":  opts.Offset,
	})
}

func (s *Server) handleMarkHandled(c *gin.Context) {
	var req MarkHandledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeFieldErrors(c, fieldErrors{"ids": {"Provide a non-empty list of submission ids."}})
		return
	}

	updated, err := s.store.MarkHandled(c.Request.Context(), req.IDs, time.Now().UTC())
	if err != nil {
		s.logger.Error("mark submissions handled", "error", err, "request_id", requestIDFrom(c))
		writeDetail(c, http.StatusInternalServerError, detailInternal)
		return
	}

	if claims, ok := auth.ClaimsFrom(c); ok {
		s.logger.Info("submissions marked handled", "count", updated, "by", claims.Username)
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func parseListOptions(c *gin.Context) (model.SubmissionListOptions, fieldErrors) {
	opts := model.SubmissionListOptions{Limit: defaultListLimit}
	errs := fieldErrors{}

	if raw := c.Query("handled"); raw != "" {
		handled, err := strconv.ParseBool(raw)
		if err != nil {
			errs.add("handled", "Must be true or false.")
		} else {
			opts.Handled = &handled
		}
	}

	if kind := c.Query("kind"); kind != "" {
		if kind != model.KindContact && kind != model.KindFeedback {
			errs.add("kind", strconv.Quote(kind)+" is not a valid choice.")
		} else {
			opts.Kind = kind
		}
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			errs.add("limit", "Must be an integer between 1 and "+strconv.Itoa(maxListLimit)+".")
		} else {
			opts.Limit = limit
		}
	}

	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			errs.add("offset", "Must be a non-negative integer.")
		} else {
			opts.Offset = offset
		}
	}

	if len(errs) > 0 {
		return opts, errs
	}
	return opts, nil
}
