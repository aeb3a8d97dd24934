package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Submission admission outcomes: accepted, dropped, cooldown, duplicate,
	// captcha_failed, captcha_unconfigured, secret_missing, invalid, error.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_submissions_total",
			Help: "Total number of submission attempts by admission outcome",
		},
		[]string{"outcome"},
	)

	CaptchaVerifyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_captcha_verify_seconds",
			Help:    "Duration of CAPTCHA verification calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"result"},
	)

	ThrottleHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfolio_throttle_hits_total",
			Help: "Total number of requests rejected by the request throttle",
		},
		[]string{"scope"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfolio_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
