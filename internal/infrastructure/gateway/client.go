package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/Zhima-Mochi/simplepay/internal/observability"
)

// ErrDenied is returned when the authorization service rejects the request or
// cannot be reached within the retry budget.
var ErrDenied = errors.New("gateway: authorization denied")

const (
	targetAuthorize = "authorization_gateway"

	defaultTimeout     = 2 * time.Second
	defaultMaxAttempts = 3
	defaultBackoffBase = 100 * time.Millisecond
	defaultApproval    = "approved"
)

type Config struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	BackoffBase time.Duration
	// Approval is the canonical value the response message must equal
	// (case-insensitively) for the transfer to proceed.
	Approval string
}

// Client calls the external authorization service. The request carries no
// transfer-specific payload; the gateway returns an opaque approval signal.
type Client struct {
	baseURL     string
	approval    string
	maxAttempts int
	backoffBase time.Duration
	httpc       *http.Client
	log         observability.Logger
	tel         observability.Telemetry
}

func New(cfg Config, tel observability.Telemetry) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.Approval == "" {
		cfg.Approval = defaultApproval
	}
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		approval:    cfg.Approval,
		maxAttempts: cfg.MaxAttempts,
		backoffBase: cfg.BackoffBase,
		httpc:       &http.Client{Timeout: cfg.Timeout},
		log:         tel.Logger().With(observability.F("component", "authorization_gateway")),
		tel:         tel,
	}
}

type authorizeResponse struct {
	Message string `json:"message"`
}

// Authorize asks the gateway for approval. Transport failures and non-2xx
// responses are retried with exponential backoff and full jitter; an explicit
// non-approval answer is authoritative and is not retried. Every failure mode
// collapses into ErrDenied for the caller.
func (c *Client) Authorize(ctx context.Context) error {
	start := time.Now()
	outcome := "success"
	defer func() {
		c.tel.Counter("external_requests_total").Add(1,
			observability.L("target", targetAuthorize),
			observability.L("outcome", outcome),
		)
		c.tel.Histogram("external_request_duration_seconds").Observe(time.Since(start).Seconds(),
			observability.L("target", targetAuthorize),
		)
	}()

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := c.sleepBackoff(ctx, attempt); err != nil {
				outcome = "error"
				return fmt.Errorf("%w: %v", ErrDenied, err)
			}
		}

		approved, retryable, err := c.authorizeOnce(ctx)
		if err == nil {
			if approved {
				return nil
			}
			outcome = "denied"
			return ErrDenied
		}

		lastErr = err
		c.log.Warn("authorize_attempt_failed",
			observability.F("attempt", attempt+1),
			observability.F("error", err.Error()),
		)
		if !retryable {
			break
		}
	}

	outcome = "error"
	return fmt.Errorf("%w: %v", ErrDenied, lastErr)
}

func (c *Client) authorizeOnce(ctx context.Context) (approved bool, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/authorize", nil)
	if err != nil {
		return false, false, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return false, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, resp.StatusCode >= 500, fmt.Errorf("gateway: unexpected status %d", resp.StatusCode)
	}

	var body authorizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, true, fmt.Errorf("gateway: decode response: %w", err)
	}

	return strings.EqualFold(body.Message, c.approval), false, nil
}

// sleepBackoff waits base * 2^(attempt-1) with full jitter, or returns early
// when the context is done.
func (c *Client) sleepBackoff(ctx context.Context, attempt int) error {
	delay := c.backoffBase << (attempt - 1)
	if delay > 0 {
		delay = time.Duration(rand.Int63n(int64(delay)) + 1)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
