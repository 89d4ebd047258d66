package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/tarabot/scheduler/backend/internal/model/schedule"
)

// CalendarConfig points the client at the external calendar service.
type CalendarConfig struct {
	WebhookURL string
	CalendarID string
	AuthToken  string
	Timeout    time.Duration
}

// CalendarClient posts confirmed bookings to a calendar webhook. It is
// the production Booker; failures come back as plain reasons and never
// panic the conversation.
type CalendarClient struct {
	cfg    CalendarConfig
	client *http.Client
}

// NewCalendarClient builds the webhook client with a bounded-timeout
// HTTP client.
func NewCalendarClient(cfg CalendarConfig) *CalendarClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &CalendarClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type eventBody struct {
	CalendarID  string    `json:"calendarId,omitempty"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Start       eventTime `json:"start"`
	End         eventTime `json:"end"`
}

// Book creates a calendar event covering the requested slot.
func (c *CalendarClient) Book(ctx context.Context, req schedule.Request) error {
	end := req.Start.Add(req.Duration)
	body := eventBody{
		CalendarID:  c.cfg.CalendarID,
		Summary:     req.Title,
		Description: fmt.Sprintf("Scheduled via Tara for %s", req.Name),
		Start:       eventTime{DateTime: req.Start.UTC().Format(time.RFC3339), TimeZone: "UTC"},
		End:         eventTime{DateTime: end.UTC().Format(time.RFC3339), TimeZone: "UTC"},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build event request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("calendar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("calendar service returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}

// LogBooker records bookings to the log instead of an external
// calendar. Used when no webhook is configured, e.g. local development.
type LogBooker struct{}

// Book logs the request and reports success.
func (LogBooker) Book(_ context.Context, req schedule.Request) error {
	log.Printf("[booking] dry-run event %q for %s at %s", req.Title, req.Name, req.Start.Format(time.RFC3339))
	return nil
}
