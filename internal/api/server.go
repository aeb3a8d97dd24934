package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"portfolio-api/internal/admission"
	"portfolio-api/internal/auth"
	"portfolio-api/internal/config"
	"portfolio-api/internal/security"
	"portfolio-api/internal/store"
)

// Admitter runs a submission through the admission gates.
type Admitter interface {
	Admit(ctx context.Context, req admission.Request) (admission.Decision, error)
}

// Server wires the HTTP routes to the store and the admission pipeline.
type Server struct {
	cfg      config.Config
	store    store.Store
	admitter Admitter
	limiter  security.Limiter
	sessions *auth.Sessions
	logger   *slog.Logger
	engine   *gin.Engine
}

func NewServer(
	cfg config.Config,
	st store.Store,
	admitter Admitter,
	limiter security.Limiter,
	sessions *auth.Sessions,
	logger *slog.Logger,
) (*Server, error) {
	if !cfg.Relaxed() {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = slog.Default()
	}

	server := &Server{
		cfg:      cfg,
		store:    st,
		admitter: admitter,
		limiter:  limiter,
		sessions: sessions,
		logger:   logger,
		engine:   gin.New(),
	}

	if err := server.engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	server.engine.HandleMethodNotAllowed = true

	server.engine.Use(requestID(), requestLogger(logger), recovery(logger), cors(cfg.FrontendURL))
	server.registerRoutes()

	return server, nil
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.NoMethod(writeMethodNotAllowed)
	s.engine.NoRoute(func(c *gin.Context) {
		writeDetail(c, http.StatusNotFound, detailNotFound)
	})

	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	api.Any("/health/", s.handleHealth)
	api.GET("/auth-check/", auth.RequireSession(s.sessions), s.handleAuthCheck)
	api.GET("/content/projects/", s.handleListProjects)
	api.POST("/submissions/", s.handleSubmit)

	admin := api.Group("/admin")
	admin.POST("/login", s.handleLogin)
	admin.POST("/logout", s.handleLogout)

	private := admin.Group("", auth.RequireSession(s.sessions))
	private.GET("/submissions", s.handleListSubmissions)
	private.POST("/submissions/handled", s.handleMarkHandled)
}

func (s *Server) handleHealth(c *gin.Context) {
	if c.Request.Method != http.MethodGet {
		writeMethodNotAllowed(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleAuthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context())
	if err != nil {
		s.logger.Error("list projects", "error", err, "request_id", requestIDFrom(c))
		writeDetail(c, http.StatusInternalServerError, detailInternal)
		return
	}
	c.JSON(http.StatusOK, projects)
}
