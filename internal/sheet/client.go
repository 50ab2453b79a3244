package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/KarenSyu/travel/internal/domain"
)

// maxSheetBytes bounds how much of a remote response is read into memory.
const maxSheetBytes = 10 << 20

// ClientConfig holds the endpoints and tuning knobs of a Client.
type ClientConfig struct {
	// CSVURL is the published CSV export of the sheet. Required for Load.
	CSVURL string

	// WriteURL receives the batch write. When empty, Save always fails.
	WriteURL string

	// Title is the itinerary title attached to loaded data; the sheet has no title column.
	Title string

	// Timeout bounds each HTTP round trip. Defaults to 15s.
	Timeout time.Duration

	// MaxTries is the number of attempts for Load. Defaults to 3.
	MaxTries uint

	// RetryInitialInterval is the first backoff delay between Load attempts. Defaults to 200ms.
	RetryInitialInterval time.Duration
}

// Client talks to the spreadsheet. Load reads the published CSV export; Save
// posts the full flattened itinerary to the write endpoint as one batch.
type Client struct {
	cfg  ClientConfig
	http *http.Client
	log  *slog.Logger
}

// NewClient constructs a Client. A nil logger falls back to slog.Default().
func NewClient(cfg ClientConfig, log *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxTries == 0 {
		cfg.MaxTries = 3
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = 200 * time.Millisecond
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

// saveRequest is the JSON body posted to the write endpoint.
type saveRequest struct {
	Rows []domain.SheetRow `json:"rows"`
}

// saveAck is the structured acknowledgment expected from the write endpoint.
type saveAck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Load fetches the sheet and groups its rows into an itinerary.
// Transport errors and 5xx responses are retried with exponential backoff; any
// final failure wraps domain.ErrRemoteLoad. A document that cannot be decoded
// degrades to an empty itinerary instead of failing.
func (c *Client) Load(ctx context.Context) (domain.Itinerary, error) {
	if c.cfg.CSVURL == "" {
		return domain.Itinerary{}, fmt.Errorf("sheet.Client.Load: %w: csv url not configured", domain.ErrRemoteLoad)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryInitialInterval

	attempt := 0
	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		data, err := c.fetch(ctx)
		if err != nil {
			c.log.WarnContext(ctx, "sheet fetch attempt failed", "attempt", attempt, "error", err)
		}
		return data, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.cfg.MaxTries))
	if err != nil {
		return domain.Itinerary{}, fmt.Errorf("sheet.Client.Load: %w: %w", domain.ErrRemoteLoad, err)
	}

	rows, err := DecodeCSV(bytes.NewReader(body))
	if err != nil {
		c.log.WarnContext(ctx, "sheet decode failed, using empty itinerary", "error", err)
		return Group(c.cfg.Title, nil), nil
	}
	return Group(c.cfg.Title, rows), nil
}

// fetch performs one GET of the CSV export. 4xx responses are permanent.
func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.CSVURL, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	case resp.StatusCode >= 300:
		return nil, backoff.Permanent(fmt.Errorf("unexpected status %s", resp.Status))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSheetBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// Save flattens it and submits all rows as one batch write. The endpoint must
// answer with {"status":"success"}; anything else, including transport failure,
// wraps domain.ErrRemoteSave. Save is not retried: the caller keeps the draft
// and decides when to try again.
func (c *Client) Save(ctx context.Context, it domain.Itinerary) error {
	if c.cfg.WriteURL == "" {
		return fmt.Errorf("sheet.Client.Save: %w: write url not configured", domain.ErrRemoteSave)
	}

	payload, err := json.Marshal(saveRequest{Rows: Flatten(it)})
	if err != nil {
		return fmt.Errorf("sheet.Client.Save: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.WriteURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("sheet.Client.Save: %w: %w", domain.ErrRemoteSave, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sheet.Client.Save: %w: %w", domain.ErrRemoteSave, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSheetBytes))
	if err != nil {
		return fmt.Errorf("sheet.Client.Save: %w: read ack: %w", domain.ErrRemoteSave, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sheet.Client.Save: %w: unexpected status %s", domain.ErrRemoteSave, resp.Status)
	}

	var ack saveAck
	if err := json.Unmarshal(data, &ack); err != nil {
		return fmt.Errorf("sheet.Client.Save: %w: malformed ack: %w", domain.ErrRemoteSave, err)
	}
	if ack.Status != "success" {
		msg := ack.Message
		if msg == "" {
			msg = fmt.Sprintf("status %q", ack.Status)
		}
		return fmt.Errorf("sheet.Client.Save: %w: %s", domain.ErrRemoteSave, msg)
	}
	return nil
}
