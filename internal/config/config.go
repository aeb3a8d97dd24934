package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"portfolio-api/internal/admission"
)

// Config is the runtime configuration. Every key can be set from the
// environment using its upper-case name, e.g. DATABASE_URL.
type Config struct {
	Port           string
	DatabaseURL    string
	DataDir        string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
	TrustedProxies []string
	FrontendURL    string

	Debug  bool
	AppEnv string

	SessionSecret string
	SessionTTL    time.Duration

	TurnstileEnabled    bool
	TurnstileSecretKey  string
	TurnstileConfigured bool

	SubmitLimitPerWindow int
	RateWindow           time.Duration
	Cooldown             time.Duration
	DuplicateWindow      time.Duration

	LogLevel  string
	LogFormat string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8000")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_key_prefix", "portfolio")
	v.SetDefault("frontend_url", "http://localhost:5173")
	v.SetDefault("debug", false)
	v.SetDefault("app_env", "production")
	v.SetDefault("session_ttl", "12h")
	v.SetDefault("turnstile_enabled", true)
	v.SetDefault("submit_limit_per_window", 10)
	v.SetDefault("rate_window", "1h")
	v.SetDefault("cooldown", "60s")
	v.SetDefault("duplicate_window", "10m")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

// Load reads configuration from the environment and, when configPath is not
// empty, from that file. Environment values win.
func Load(configPath string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	secret := strings.TrimSpace(v.GetString("turnstile_secret_key"))
	configured := secret != ""
	if v.IsSet("turnstile_configured") {
		configured = v.GetBool("turnstile_configured")
	}

	cfg := Config{
		Port:                 v.GetString("port"),
		DatabaseURL:          strings.TrimSpace(v.GetString("database_url")),
		DataDir:              v.GetString("data_dir"),
		RedisAddr:            strings.TrimSpace(v.GetString("redis_addr")),
		RedisPassword:        v.GetString("redis_password"),
		RedisDB:              v.GetInt("redis_db"),
		RedisKeyPrefix:       v.GetString("redis_key_prefix"),
		TrustedProxies:       splitList(v.GetString("trusted_proxies")),
		FrontendURL:          strings.TrimRight(strings.TrimSpace(v.GetString("frontend_url")), "/"),
		Debug:                v.GetBool("debug"),
		AppEnv:               strings.ToLower(strings.TrimSpace(v.GetString("app_env"))),
		SessionSecret:        v.GetString("session_secret"),
		SessionTTL:           v.GetDuration("session_ttl"),
		TurnstileEnabled:     v.GetBool("turnstile_enabled"),
		TurnstileSecretKey:   secret,
		TurnstileConfigured:  configured,
		SubmitLimitPerWindow: v.GetInt("submit_limit_per_window"),
		RateWindow:           v.GetDuration("rate_window"),
		Cooldown:             v.GetDuration("cooldown"),
		DuplicateWindow:      v.GetDuration("duplicate_window"),
		LogLevel:             v.GetString("log_level"),
		LogFormat:            v.GetString("log_format"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Cooldown < time.Second {
		return errors.New("COOLDOWN must be at least 1s")
	}
	if c.DuplicateWindow <= 0 {
		return errors.New("DUPLICATE_WINDOW must be positive")
	}
	if c.RateWindow <= 0 {
		return errors.New("RATE_WINDOW must be positive")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	return nil
}

// ErrSessionSecretRequired is returned by ServeReady in production without a secret.
var ErrSessionSecretRequired = errors.New("SESSION_SECRET is required outside debug and test modes")

// ServeReady checks what the HTTP server needs beyond what Load validates.
func (c Config) ServeReady() error {
	if c.SessionSecret == "" && !c.Relaxed() {
		return ErrSessionSecretRequired
	}
	return nil
}

// Testing reports whether the process runs under APP_ENV=test.
func (c Config) Testing() bool {
	return c.AppEnv == "test"
}

// Relaxed is true in debug or test mode, where missing secrets are tolerated.
func (c Config) Relaxed() bool {
	return c.Debug || c.Testing()
}

// Captcha is the CAPTCHA policy input handed to the admission pipeline.
func (c Config) Captcha() admission.CaptchaConfig {
	return admission.CaptchaConfig{
		Enabled:    c.TurnstileEnabled,
		Configured: c.TurnstileConfigured,
		Debug:      c.Relaxed(),
		Secret:     c.TurnstileSecretKey,
	}
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
