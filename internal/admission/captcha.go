package admission

import (
	"context"
	"log/slog"
	"time"

	"portfolio-api/internal/metrics"
	"portfolio-api/internal/model"
	"portfolio-api/internal/turnstile"
)

// Verifier checks a CAPTCHA token with an external service.
type Verifier interface {
	Verify(ctx context.Context, secret, token, remoteIP string) (turnstile.Result, error)
}

// CaptchaConfig is the deployment's CAPTCHA setup. Debug covers both debug and
// test modes, where a missing configuration is tolerated.
type CaptchaConfig struct {
	Enabled    bool
	Configured bool
	Debug      bool
	Secret     string
}

// CaptchaOutcome is recorded on the persisted submission.
type CaptchaOutcome struct {
	Provider *string
	Verified bool
}

// CaptchaPolicy decides whether and how a token is verified.
type CaptchaPolicy struct {
	cfg      CaptchaConfig
	verifier Verifier
	logger   *slog.Logger
}

func NewCaptchaPolicy(cfg CaptchaConfig, verifier Verifier, logger *slog.Logger) *CaptchaPolicy {
	if logger == nil {
		logger = slog.Default()
	}
	return &CaptchaPolicy{cfg: cfg, verifier: verifier, logger: logger}
}

// Evaluate applies the policy table. Rejections are returned as *Rejection.
func (p *CaptchaPolicy) Evaluate(ctx context.Context, token, remoteIP string) (CaptchaOutcome, error) {
	if !p.cfg.Enabled {
		return CaptchaOutcome{}, nil
	}
	if !p.cfg.Configured {
		if p.cfg.Debug {
			return CaptchaOutcome{}, nil
		}
		return CaptchaOutcome{}, &Rejection{Reason: ReasonCaptchaUnconfigured}
	}
	if p.cfg.Secret == "" {
		return CaptchaOutcome{}, &Rejection{Reason: ReasonSecretMissing}
	}

	start := time.Now()
	result, err := p.verifier.Verify(ctx, p.cfg.Secret, token, remoteIP)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		metrics.CaptchaVerifyDuration.WithLabelValues("error").Observe(elapsed)
		p.logger.Warn("captcha verification unavailable", "error", err)
		return CaptchaOutcome{}, &Rejection{Reason: ReasonCaptchaFailed, ErrorCodes: []string{"internal-error"}}
	}
	if !result.Success {
		metrics.CaptchaVerifyDuration.WithLabelValues("failed").Observe(elapsed)
		codes := result.ErrorCodes
		if codes == nil {
			codes = []string{}
		}
		return CaptchaOutcome{}, &Rejection{Reason: ReasonCaptchaFailed, ErrorCodes: codes}
	}

	metrics.CaptchaVerifyDuration.WithLabelValues("success").Observe(elapsed)
	provider := model.CaptchaProviderTurnstile
	return CaptchaOutcome{Provider: &provider, Verified: true}, nil
}
