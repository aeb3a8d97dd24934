package admission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"portfolio-api/internal/metrics"
	"portfolio-api/internal/model"
	"portfolio-api/internal/store"
)

const maxUserAgentLength = 300

// Store is the persistence the pipeline needs. Only the final step writes.
type Store interface {
	LatestByOrigin(ctx context.Context, origin string) (time.Time, bool, error)
	LatestDuplicate(ctx context.Context, q store.DuplicateQuery) (time.Time, bool, error)
	CreateSubmission(ctx context.Context, sub *model.Submission) error
}

// OriginClaimer grants one in-flight admission per origin at a time.
type OriginClaimer interface {
	Claim(ctx context.Context, origin string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, origin string) error
}

type Config struct {
	Cooldown        time.Duration
	DuplicateWindow time.Duration
	Captcha         CaptchaConfig
	// ClaimTTL bounds how long a crashed admission can hold its origin claim.
	ClaimTTL time.Duration
}

// Request is a structurally valid submission plus the caller's transport details.
type Request struct {
	Kind           string
	Name           string
	Email          string
	Subject        string
	Message        string
	PageURL        string
	TurnstileToken string
	Honeypot       string
	OriginAddress  string
	UserAgent      string
}

type Outcome int

const (
	// OutcomeAccepted means the submission was persisted.
	OutcomeAccepted Outcome = iota
	// OutcomeDropped means the honeypot fired; nothing was persisted.
	OutcomeDropped
)

type Decision struct {
	Outcome         Outcome
	Submission      *model.Submission
	CooldownSeconds int
}

// Pipeline runs the admission gates in order and persists what passes.
type Pipeline struct {
	store    Store
	cooldown *CooldownGate
	dupes    *DuplicateDetector
	captcha  *CaptchaPolicy
	claimer  OriginClaimer
	claimTTL time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*Pipeline)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func WithOriginClaim(claimer OriginClaimer) Option {
	return func(p *Pipeline) { p.claimer = claimer }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

func NewPipeline(st Store, verifier Verifier, cfg Config, opts ...Option) *Pipeline {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.DuplicateWindow <= 0 {
		cfg.DuplicateWindow = DefaultDuplicateWindow
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = 30 * time.Second
	}

	p := &Pipeline{
		store:    st,
		cooldown: NewCooldownGate(st, cfg.Cooldown),
		dupes:    NewDuplicateDetector(st, cfg.DuplicateWindow),
		claimTTL: cfg.ClaimTTL,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.captcha = NewCaptchaPolicy(cfg.Captcha, verifier, p.logger)
	return p
}

// IsHoneypot reports whether the hidden form field was filled in.
func IsHoneypot(value string) bool {
	return strings.TrimSpace(value) != ""
}

// Admit decides on req. Gate refusals are returned as *Rejection; any other
// error is an infrastructure fault.
func (p *Pipeline) Admit(ctx context.Context, req Request) (Decision, error) {
	decision, err := p.admit(ctx, req)
	metrics.SubmissionsTotal.WithLabelValues(outcomeLabel(decision, err)).Inc()
	return decision, err
}

func (p *Pipeline) admit(ctx context.Context, req Request) (Decision, error) {
	if IsHoneypot(req.Honeypot) {
		return Decision{Outcome: OutcomeDropped}, nil
	}

	origin := strings.TrimSpace(req.OriginAddress)
	if origin != "" && p.claimer != nil {
		claimed, err := p.claimer.Claim(ctx, origin, p.claimTTL)
		if err != nil {
			p.logger.Warn("origin claim failed, continuing without it", "error", err)
		} else if !claimed {
			return Decision{}, &Rejection{Reason: ReasonCooldown, RetryAfter: p.cooldown.Seconds()}
		} else {
			defer func() {
				if err := p.claimer.Release(context.WithoutCancel(ctx), origin); err != nil {
					p.logger.Warn("release origin claim", "error", err)
				}
			}()
		}
	}

	now := p.now().UTC()

	if err := p.cooldown.Check(ctx, origin, now); err != nil {
		return Decision{}, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)

	hashEmail := email
	if hashEmail == "" {
		hashEmail = AnonymousEmail
	}
	contentHash := Fingerprint(req.Kind, hashEmail, subject, message)

	if err := p.dupes.Check(ctx, email, origin, contentHash, now); err != nil {
		return Decision{}, err
	}

	captcha, err := p.captcha.Evaluate(ctx, req.TurnstileToken, origin)
	if err != nil {
		return Decision{}, err
	}

	sub := &model.Submission{
		Kind:            req.Kind,
		Name:            strings.TrimSpace(req.Name),
		Email:           email,
		Subject:         subject,
		Message:         message,
		PageURL:         strings.TrimSpace(req.PageURL),
		OriginAddress:   origin,
		UserAgent:       truncateRunes(req.UserAgent, maxUserAgentLength),
		CaptchaProvider: captcha.Provider,
		CaptchaVerified: captcha.Verified,
		ContentHash:     contentHash,
		CreatedAt:       now,
	}
	if err := p.store.CreateSubmission(ctx, sub); err != nil {
		return Decision{}, fmt.Errorf("persist submission: %w", err)
	}

	p.logger.Info("submission accepted",
		"id", sub.ID,
		"kind", sub.Kind,
		"captcha_verified", sub.CaptchaVerified,
	)
	return Decision{
		Outcome:         OutcomeAccepted,
		Submission:      sub,
		CooldownSeconds: p.cooldown.Seconds(),
	}, nil
}

func outcomeLabel(decision Decision, err error) string {
	var rejection *Rejection
	switch {
	case errors.As(err, &rejection):
		return rejection.label()
	case err != nil:
		return "error"
	case decision.Outcome == OutcomeDropped:
		return "dropped"
	default:
		return "accepted"
	}
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
