package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
)

// HTTPAPIConfig holds settings for a hosted transactional-email endpoint.
// The payload shape follows the common {from, to, subject, html} convention
// used by Resend-style APIs.
type HTTPAPIConfig struct {
	Endpoint string
	APIKey   string
	From     string
	Timeout  time.Duration
}

// HTTPAPITransport delivers receipts by POSTing JSON to a transactional
// email API. Compared to raw SMTP it trades a TLS-dial per message for a
// single HTTPS round trip, which behaves far better under tight request
// deadlines on shared hosting.
type HTTPAPITransport struct {
	cfg    HTTPAPIConfig
	client *http.Client
}

var _ Transport = (*HTTPAPITransport)(nil)

// NewHTTPAPITransport creates the transport with its own bounded client.
func NewHTTPAPITransport(cfg HTTPAPIConfig) *HTTPAPITransport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &HTTPAPITransport{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name implements Transport.
func (t *HTTPAPITransport) Name() string { return "http-api" }

type apiPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send implements Transport.
func (t *HTTPAPITransport) Send(ctx context.Context, msg Message) error {
	to := []string{msg.Recipient}
	if msg.OperatorCopy != "" && msg.OperatorCopy != msg.Recipient {
		to = append(to, msg.OperatorCopy)
	}

	body, err := json.Marshal(apiPayload{
		From:    t.cfg.From,
		To:      to,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "post to %s", t.cfg.Endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		// Read a bounded chunk of the body for diagnostics.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("email api returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
