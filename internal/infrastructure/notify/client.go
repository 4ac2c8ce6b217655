package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Zhima-Mochi/simplepay/internal/observability"
)

const (
	targetNotify   = "notification_sink"
	defaultTimeout = 5 * time.Second
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client posts payee notifications to the external sink. The response body is
// not interpreted; callers treat any returned error as best-effort only.
type Client struct {
	baseURL string
	httpc   *http.Client
	tel     observability.Telemetry
}

func New(cfg Config, tel observability.Telemetry) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   &http.Client{Timeout: cfg.Timeout},
		tel:     tel,
	}
}

type notifyRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func (c *Client) Notify(ctx context.Context, to, message string) error {
	start := time.Now()
	outcome := "success"
	defer func() {
		c.tel.Counter("external_requests_total").Add(1,
			observability.L("target", targetNotify),
			observability.L("outcome", outcome),
		)
		c.tel.Histogram("external_request_duration_seconds").Observe(time.Since(start).Seconds(),
			observability.L("target", targetNotify),
		)
	}()

	payload, err := json.Marshal(notifyRequest{To: to, Message: message})
	if err != nil {
		outcome = "error"
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notify", bytes.NewReader(payload))
	if err != nil {
		outcome = "error"
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		outcome = "error"
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome = "error"
		return fmt.Errorf("notify: unexpected status %d", resp.StatusCode)
	}
	return nil
}
