// Package sms sends text messages. Destination numbers are chosen by a Router
// so that non-production deployments never text real people.
package sms

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sankalp/internal/platform/config"
	"sankalp/pkg/requestcontext"
)

type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// Router maps the logical recipient of a message to the number actually
// texted. ok is false when there is nowhere to send.
type Router interface {
	Route(logical string) (to string, ok bool)
}

// FixedRecipient sends every message to one configured number.
type FixedRecipient struct {
	Number string
}

func (f FixedRecipient) Route(string) (string, bool) {
	return f.Number, f.Number != ""
}

// DirectRecipient sends to the logical recipient's own number.
type DirectRecipient struct{}

func (DirectRecipient) Route(logical string) (string, bool) {
	logical = strings.TrimSpace(logical)
	return logical, logical != ""
}

// NewRouter picks DirectRecipient in production. Elsewhere a configured test
// number catches every message; without one the logical recipient passes
// through, which only reaches the log sender because config validation
// demands a test number whenever Twilio credentials are set outside
// production.
func NewRouter(environment string, cfg config.SMSConfig) Router {
	if environment != config.Production && cfg.TestRecipient != "" {
		return FixedRecipient{Number: cfg.TestRecipient}
	}
	return DirectRecipient{}
}

// TwilioSender posts to the Twilio Messages API.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
}

func NewTwilioSender(cfg config.SMSConfig, client *http.Client) *TwilioSender {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &TwilioSender{
		accountSID: cfg.TwilioAccountSID,
		authToken:  cfg.TwilioAuthToken,
		from:       cfg.TwilioFrom,
		baseURL:    strings.TrimRight(cfg.TwilioBaseURL, "/"),
		client:     client,
	}
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, url.PathEscape(s.accountSID))
	form := url.Values{
		"To":   {to},
		"From": {s.from},
		"Body": {body},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build twilio request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("twilio returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// LogSender logs text messages instead of sending them.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to, body string) error {
	s.logger.InfoContext(ctx, "sms (not sent)",
		"to", to,
		"chars", len(body),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}
