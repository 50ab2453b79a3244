package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/patrickmn/go-cache"

	"github.com/KarenSyu/travel/internal/domain"
	"github.com/KarenSyu/travel/internal/sheet"
)

// ExportFormat names one rendering of the draft.
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
	FormatICS  ExportFormat = "ics"
)

// eventDuration is the length given to a timed calendar event.
const eventDuration = time.Hour

// ParseExportFormat maps a query value to an ExportFormat. An empty value is JSON.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatICS:
		return f, nil
	default:
		return "", fmt.Errorf("service.ParseExportFormat: %w: unknown format %q", domain.ErrValidation, s)
	}
}

// Export is a rendered document ready to be written to a response.
type Export struct {
	Format      ExportFormat
	ContentType string
	Filename    string
	Body        []byte
	Revision    uint64
}

// StateReader is the part of ItineraryService the exporter needs.
type StateReader interface {
	State() State
}

// ExportService renders the current draft as JSON rows, sheet-shaped CSV, or
// iCalendar. Rendered bodies are cached per format and draft revision.
type ExportService struct {
	source StateReader
	loc    *time.Location
	cache  *cache.Cache
	now    func() time.Time
	log    *slog.Logger
}

// NewExportService builds an exporter over source. Calendar times are read in
// loc; nil means UTC.
func NewExportService(source StateReader, loc *time.Location, log *slog.Logger) *ExportService {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &ExportService{
		source: source,
		loc:    loc,
		cache:  cache.New(30*time.Minute, time.Hour),
		now:    time.Now,
		log:    log,
	}
}

// Export renders the draft in the requested format.
func (s *ExportService) Export(ctx context.Context, format ExportFormat) (Export, error) {
	st := s.source.State()
	key := fmt.Sprintf("%s:%d", format, st.Revision)
	if v, ok := s.cache.Get(key); ok {
		return v.(Export), nil
	}

	var (
		body []byte
		err  error
		out  = Export{Format: format, Revision: st.Revision}
	)
	switch format {
	case FormatJSON:
		out.ContentType, out.Filename = "application/json", "itinerary.json"
		body, err = json.Marshal(st.Itinerary.ExportRows())
	case FormatCSV:
		out.ContentType, out.Filename = "text/csv; charset=utf-8", "itinerary.csv"
		body, err = renderCSV(st.Itinerary)
	case FormatICS:
		out.ContentType, out.Filename = "text/calendar; charset=utf-8", "itinerary.ics"
		body = []byte(s.renderICS(st.Itinerary))
	default:
		return Export{}, fmt.Errorf("service.ExportService.Export: %w: unknown format %q", domain.ErrValidation, format)
	}
	if err != nil {
		return Export{}, fmt.Errorf("service.ExportService.Export: %s: %w", format, err)
	}

	out.Body = body
	s.cache.SetDefault(key, out)
	s.log.DebugContext(ctx, "export rendered", "format", format, "revision", st.Revision, "bytes", len(body))
	return out, nil
}

func renderCSV(it domain.Itinerary) ([]byte, error) {
	var buf bytes.Buffer
	if err := sheet.EncodeCSV(&buf, sheet.Flatten(it)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderICS emits one VEVENT per activity. Activities with an HH:MM time become
// timed events in s.loc; anything else (usually "TBD") becomes an all-day event.
// Days whose date does not parse are left out.
func (s *ExportService) renderICS(it domain.Itinerary) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//KarenSyu//travel//ZH-TW")
	cal.SetXWRCalName(it.Title)
	cal.SetXWRTimezone(s.loc.String())

	stamp := s.now().UTC()
	for _, d := range it.Days {
		day, err := time.ParseInLocation(time.DateOnly, d.Date, s.loc)
		if err != nil {
			continue
		}
		for _, a := range d.Activities {
			ev := cal.AddEvent(a.ID)
			ev.SetDtStampTime(stamp)
			ev.SetSummary(strings.TrimSpace(a.Icon + " " + a.Title))
			if desc := eventDescription(a); desc != "" {
				ev.SetDescription(desc)
			}
			if a.Location != "" {
				ev.SetLocation(a.Location)
			}

			if at, ok := clockOn(day, a.Time); ok {
				ev.SetStartAt(at)
				ev.SetEndAt(at.Add(eventDuration))
				continue
			}
			ev.SetAllDayStartAt(day)
			ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		}
	}
	return cal.Serialize()
}

func eventDescription(a domain.Activity) string {
	parts := make([]string, 0, 2)
	if a.Description != "" {
		parts = append(parts, a.Description)
	}
	if a.TransportSuggestion != "" {
		parts = append(parts, "交通："+a.TransportSuggestion)
	}
	return strings.Join(parts, "\n")
}

// clockOn combines a calendar day with an "HH:MM" time of day.
func clockOn(day time.Time, hhmm string) (time.Time, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(hhmm))
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), true
}
