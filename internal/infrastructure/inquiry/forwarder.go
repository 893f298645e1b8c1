// Package inquiry relays checkout inquiries to the external form collector (a Google
// Apps Script webhook in production).
package inquiry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/bekkerfineart/gallery/internal/infrastructure/breaker"
	"github.com/bekkerfineart/gallery/internal/infrastructure/config"
	"github.com/bekkerfineart/gallery/internal/infrastructure/logger"
	"github.com/bekkerfineart/gallery/internal/ports"
)

// Forwarder posts inquiries as JSON to a webhook
type Forwarder struct {
	url    string
	client *http.Client
	cb     *gobreaker.CircuitBreaker[struct{}]
	logger *logger.Logger
}

var _ ports.InquiryForwarder = (*Forwarder)(nil)

// New creates a forwarder, or returns nil when no webhook is configured
func New(cfg config.InquiryConfig, log *logger.Logger) *Forwarder {
	if cfg.WebhookURL == "" {
		return nil
	}
	if log == nil {
		log = logger.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	log = log.WithComponent("inquiry-forwarder")
	return &Forwarder{
		url:    cfg.WebhookURL,
		client: &http.Client{Timeout: timeout},
		cb:     breaker.New[struct{}](breaker.Defaults("inquiry-webhook"), log),
		logger: log,
	}
}

// Forward sends the payload. Any non-2xx response counts as a failure.
func (f *Forwarder) Forward(ctx context.Context, payload *ports.InquiryPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode inquiry: %w", err)
	}

	_, err = f.cb.Execute(func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
		if err != nil {
			return struct{}{}, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := f.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return struct{}{}, fmt.Errorf("webhook responded %d", resp.StatusCode)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("forward inquiry: %w", err)
	}

	f.logger.Debugw("Inquiry forwarded", "items", len(payload.Items), "total", payload.Total)
	return nil
}
