package apifootball

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday-advisor/internal/platform/logging"
	"github.com/riskibarqy/matchday-advisor/internal/platform/resilience"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultBaseURL = "https://v3.football.api-sports.io"
	authHeader     = "x-apisports-key"
	maxBodyBytes   = 8 << 20
)

type ClientConfig struct {
	HTTPClient      *http.Client
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	MaxRetries      int
	RetryDelay      time.Duration
	ErrorRetryDelay time.Duration
	Governor        *resilience.RateGovernor
	Logger          *logging.Logger
	CircuitBreaker  resilience.CircuitBreakerConfig
}

// Client talks to the API-Football v3 REST API. Every network attempt first
// takes a slot from the shared RateGovernor.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	apiKey          string
	maxRetries      int
	retryDelay      time.Duration
	errorRetryDelay time.Duration
	governor        *resilience.RateGovernor
	logger          *logging.Logger
	breaker         *resilience.CircuitBreaker
	circuitEnabled  bool
	flight          resilience.SingleFlight[[]byte]
	sleep           func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	governor := cfg.Governor
	if governor == nil {
		governor = resilience.NewRateGovernor(8)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 3
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	errorRetryDelay := cfg.ErrorRetryDelay
	if errorRetryDelay <= 0 {
		errorRetryDelay = time.Second
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:      httpClient,
		baseURL:         baseURL,
		apiKey:          strings.TrimSpace(cfg.APIKey),
		maxRetries:      maxRetries,
		retryDelay:      retryDelay,
		errorRetryDelay: errorRetryDelay,
		governor:        governor,
		logger:          logger,
		breaker:         breakerCfg.Build(),
		circuitEnabled:  breakerCfg.Enabled,
		sleep:           sleepContext,
	}
}

func (c *Client) BreakerStats() resilience.BreakerStats {
	return c.breaker.Stats()
}

// Fetch issues a GET for path with params and returns the raw "response"
// field of the provider envelope. Any error is a *Failure.
func (c *Client) Fetch(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "api-football circuit breaker rejected request", "path", path, "state", c.breaker.State())
			return nil, &Failure{Path: path, Cause: crerr.Mark(crerr.Wrap(err, "sport data provider is temporarily unavailable"), ErrTransient)}
		}
	}

	fullURL := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	raw, err, _ := c.flight.Do(fullURL, func() ([]byte, error) {
		out, reqErr := c.executeRequest(ctx, path, fullURL)
		if c.circuitEnabled {
			if isCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return out, reqErr
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// executeRequest runs the bounded retry loop. 429 backs off RetryDelay*attempt
// up to MaxRetries attempts; any other failure gets one more attempt after
// ErrorRetryDelay.
func (c *Client) executeRequest(ctx context.Context, path, fullURL string) ([]byte, error) {
	attempts := 0
	errorRetried := false

	for {
		attempts++
		if err := c.governor.Acquire(ctx); err != nil {
			return nil, &Failure{Path: path, Attempts: attempts - 1, Cause: err}
		}

		status, body, err := c.roundTrip(ctx, fullURL)
		switch {
		case err == nil && status == http.StatusOK:
			payload, decodeErr := decodeEnvelope(body)
			if decodeErr != nil {
				return nil, &Failure{Path: path, Attempts: attempts, StatusCode: status, Cause: decodeErr}
			}
			return payload, nil

		case err == nil && status == http.StatusTooManyRequests:
			c.logger.WarnContext(ctx, "api-football rate limit hit", "path", path, "attempt", attempts, "max_attempts", c.maxRetries)
			if attempts >= c.maxRetries {
				failure := &Failure{
					Path:       path,
					Attempts:   attempts,
					StatusCode: status,
					Throttled:  true,
					Cause:      crerr.Mark(crerr.Newf("provider status=%d after %d attempts", status, attempts), ErrThrottled),
				}
				c.logger.ErrorContext(ctx, "api-football max retries reached", "path", path, "error", failure)
				return nil, failure
			}
			if sleepErr := c.sleep(ctx, c.retryDelay*time.Duration(attempts)); sleepErr != nil {
				return nil, &Failure{Path: path, Attempts: attempts, StatusCode: status, Throttled: true, Cause: sleepErr}
			}
			continue
		}

		var cause error
		if err != nil {
			if ctx.Err() != nil {
				return nil, &Failure{Path: path, Attempts: attempts, Cause: ctx.Err()}
			}
			cause = crerr.Mark(crerr.Newf("send request: %s", c.sanitize(err.Error())), ErrTransient)
		} else if status >= http.StatusInternalServerError {
			cause = crerr.Mark(crerr.Newf("provider status=%d body=%s", status, abbreviateBody(body)), ErrTransient)
		} else {
			cause = crerr.Newf("provider status=%d body=%s", status, abbreviateBody(body))
		}

		if errorRetried {
			failure := &Failure{Path: path, Attempts: attempts, StatusCode: status, Cause: cause}
			c.logger.ErrorContext(ctx, "api-football request failed", "path", path, "url", redactAPIURL(fullURL), "error", failure)
			return nil, failure
		}
		errorRetried = true
		c.logger.WarnContext(ctx, "api-football request error, retrying once", "path", path, "attempt", attempts, "error", cause)
		if sleepErr := c.sleep(ctx, c.errorRetryDelay); sleepErr != nil {
			return nil, &Failure{Path: path, Attempts: attempts, StatusCode: status, Cause: sleepErr}
		}
	}
}

func (c *Client) roundTrip(ctx context.Context, fullURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set(authHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

type envelope struct {
	Errors   any             `json:"errors"`
	Results  int             `json:"results"`
	Response json.RawMessage `json:"response"`
}

func decodeEnvelope(body []byte) ([]byte, error) {
	var env envelope
	if err := sonic.Unmarshal(body, &env); err != nil {
		return nil, crerr.Wrap(err, "decode provider envelope")
	}
	if hasProviderErrors(env.Errors) {
		text, _ := sonic.MarshalString(env.Errors)
		return nil, crerr.Mark(crerr.Newf("provider errors: %s", abbreviateBody([]byte(text))), ErrRejected)
	}
	if len(env.Response) == 0 {
		return []byte("[]"), nil
	}
	return env.Response, nil
}

// hasProviderErrors treats [] and {} as "no errors"; the provider sends
// either shape.
func hasProviderErrors(v any) bool {
	switch typed := v.(type) {
	case nil:
		return false
	case []any:
		return len(typed) > 0
	case map[string]any:
		return len(typed) > 0
	case string:
		return strings.TrimSpace(typed) != ""
	default:
		return true
	}
}

func (c *Client) sanitize(value string) string {
	value = strings.TrimSpace(value)
	if c.apiKey != "" {
		value = strings.ReplaceAll(value, c.apiKey, "REDACTED")
	}
	return value
}

func redactAPIURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.User = nil
	return parsed.String()
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
