// Package sheet is the remote store adapter for the spreadsheet that holds the
// itinerary. The sheet is flat (one row per activity, day fields repeated); this
// package converts between that shape and the nested domain.Itinerary and talks
// to the published CSV export and the batch write endpoint.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/unicode/norm"

	"github.com/KarenSyu/travel/internal/domain"
)

// Flatten converts an itinerary into sheet rows: one row per activity, day
// metadata repeated on each row, in day then activity order. Days with no
// activities produce no rows, matching what the sheet can represent.
func Flatten(it domain.Itinerary) []domain.SheetRow {
	return lo.FlatMap(it.Days, func(d domain.DayPlan, _ int) []domain.SheetRow {
		return lo.Map(d.Activities, func(a domain.Activity, _ int) domain.SheetRow {
			return domain.SheetRow{
				DayNumber:           strconv.Itoa(d.DayNumber),
				Date:                d.Date,
				DayTitle:            d.Title,
				Time:                a.Time,
				ActivityTitle:       a.Title,
				Description:         a.Description,
				Location:            a.Location,
				Icon:                a.Icon,
				TransportSuggestion: a.TransportSuggestion,
			}
		})
	})
}

// Group rebuilds an itinerary from sheet rows.
//   - Rows without a positive integer dayNumber or without an activityTitle are skipped.
//   - The first row seen for a day decides that day's date and title.
//   - Activities keep row order within their day; days are sorted by dayNumber.
//   - Every activity receives a synthetic ID, since the sheet carries none.
//
// An empty row set yields an itinerary with zero days.
func Group(title string, rows []domain.SheetRow) domain.Itinerary {
	byNumber := make(map[int]*domain.DayPlan)
	var order []int

	for _, raw := range rows {
		r := normalizeRow(raw)
		n, err := strconv.Atoi(r.DayNumber)
		if err != nil || n < 1 || r.ActivityTitle == "" {
			continue
		}

		day, ok := byNumber[n]
		if !ok {
			day = &domain.DayPlan{
				Date:       r.Date,
				DayNumber:  n,
				Title:      r.DayTitle,
				Activities: []domain.Activity{},
			}
			byNumber[n] = day
			order = append(order, n)
		}
		day.Activities = append(day.Activities, domain.Activity{
			ID:                  domain.NewActivityID(),
			Time:                r.Time,
			Title:               r.ActivityTitle,
			Description:         r.Description,
			Location:            r.Location,
			Icon:                r.Icon,
			TransportSuggestion: r.TransportSuggestion,
		})
	}

	sort.Ints(order)
	it := domain.Itinerary{Title: title, Days: make([]domain.DayPlan, 0, len(order))}
	for _, n := range order {
		it.Days = append(it.Days, *byNumber[n])
	}
	return it
}

// normalizeRow trims every cell and converts it to Unicode NFC. Sheets edited on
// different platforms mix composed and decomposed forms, which would otherwise
// defeat substring title matching.
func normalizeRow(r domain.SheetRow) domain.SheetRow {
	clean := func(s string) string { return norm.NFC.String(strings.TrimSpace(s)) }
	return domain.SheetRow{
		DayNumber:           clean(r.DayNumber),
		Date:                clean(r.Date),
		DayTitle:            clean(r.DayTitle),
		Time:                clean(r.Time),
		ActivityTitle:       clean(r.ActivityTitle),
		Description:         clean(r.Description),
		Location:            clean(r.Location),
		Icon:                clean(r.Icon),
		TransportSuggestion: clean(r.TransportSuggestion),
	}
}

// DecodeCSV reads sheet rows from a CSV document whose first record is a header.
// Columns are located by header name (case-insensitive, any order); unknown
// columns are ignored and missing optional columns read as empty. Quotes are
// parsed leniently and ragged rows are accepted.
//
// An empty document yields no rows and no error. A header lacking dayNumber or
// activityTitle is a domain.ErrValidation.
func DecodeCSV(r io.Reader) ([]domain.SheetRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sheet.DecodeCSV: header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff") // Excel and Sheets may emit a BOM
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"daynumber", "activitytitle"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("sheet.DecodeCSV: %w: missing column %q", domain.ErrValidation, required)
		}
	}

	cell := func(rec []string, name string) string {
		i, ok := index[strings.ToLower(name)]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []domain.SheetRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sheet.DecodeCSV: %w", err)
		}
		rows = append(rows, domain.SheetRow{
			DayNumber:           cell(rec, "dayNumber"),
			Date:                cell(rec, "date"),
			DayTitle:            cell(rec, "dayTitle"),
			Time:                cell(rec, "time"),
			ActivityTitle:       cell(rec, "activityTitle"),
			Description:         cell(rec, "description"),
			Location:            cell(rec, "location"),
			Icon:                cell(rec, "icon"),
			TransportSuggestion: cell(rec, "transportSuggestion"),
		})
	}
	return rows, nil
}

// EncodeCSV writes rows as CSV with a header record of domain.SheetColumns.
func EncodeCSV(w io.Writer, rows []domain.SheetRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(domain.SheetColumns); err != nil {
		return fmt.Errorf("sheet.EncodeCSV: header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Values()); err != nil {
			return fmt.Errorf("sheet.EncodeCSV: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("sheet.EncodeCSV: flush: %w", err)
	}
	return nil
}
