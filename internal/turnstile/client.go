package turnstile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// VerifyURL is Cloudflare's siteverify endpoint.
const VerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// DefaultTimeout bounds a single verification call.
const DefaultTimeout = 5 * time.Second

// ErrVerifyUnavailable wraps transport failures, timeouts, non-2xx answers and
// undecodable bodies. None of them may be treated as a pass.
var ErrVerifyUnavailable = errors.New("turnstile verification unavailable")

// Result is the outcome reported by the verification service.
type Result struct {
	Success    bool
	ErrorCodes []string
}

// Client talks to the Turnstile siteverify API.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

type Option func(*Client)

// WithEndpoint points the client at another siteverify URL (tests, proxies).
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint: VerifyURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Verify checks token with the verification service. remoteIP is optional.
func (c *Client) Verify(ctx context.Context, secret, token, remoteIP string) (Result, error) {
	form := url.Values{}
	form.Set("secret", secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, fmt.Errorf("build siteverify request: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrVerifyUnavailable, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 64<<10))
	if err != nil {
		return Result{}, fmt.Errorf("%w: read body: %v", ErrVerifyUnavailable, err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return Result{}, fmt.Errorf("%w: HTTP %d", ErrVerifyUnavailable, response.StatusCode)
	}

	return parseResult(body)
}

func parseResult(body []byte) (Result, error) {
	var payload struct {
		Success       bool            `json:"success"`
		ErrorCodes    json.RawMessage `json:"error-codes"`
		ErrorCodesAlt json.RawMessage `json:"error_codes"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Result{}, fmt.Errorf("%w: decode body: %v", ErrVerifyUnavailable, err)
	}

	raw := payload.ErrorCodes
	if isEmptyJSON(raw) {
		raw = payload.ErrorCodesAlt
	}
	return Result{Success: payload.Success, ErrorCodes: normalizeErrorCodes(raw)}, nil
}

// normalizeErrorCodes accepts a list or a scalar and always returns a slice.
func normalizeErrorCodes(raw json.RawMessage) []string {
	codes := []string{}
	if isEmptyJSON(raw) {
		return codes
	}

	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			codes = append(codes, stringify(item))
		}
		return codes
	}

	var scalar any
	if err := json.Unmarshal(raw, &scalar); err == nil {
		codes = append(codes, stringify(scalar))
	}
	return codes
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null" || trimmed == "[]" || trimmed == `""`
}

func stringify(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return fmt.Sprint(typed)
	}
}
