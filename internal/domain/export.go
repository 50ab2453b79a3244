package domain

// ExportRow is a single row in the full-data export.
// It is a flat, denormalized view: one row per activity, with the day fields
// repeated for every activity of that day. Days with no activities yield no rows.
type ExportRow struct {
	// Day fields, repeated for every activity of the day.
	DayNumber int    `json:"dayNumber"`
	Date      string `json:"date"`
	DayTitle  string `json:"dayTitle"`

	// Index is the activity's position within its day, starting at 0.
	Index               int    `json:"index"`
	ActivityID          string `json:"activityId"`
	Time                string `json:"time"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	Location            string `json:"location"`
	Icon                string `json:"icon"`
	TransportSuggestion string `json:"transportSuggestion,omitempty"`
}

// ExportRows flattens the itinerary in day then activity order.
func (it Itinerary) ExportRows() []ExportRow {
	rows := make([]ExportRow, 0, it.ActivityCount())
	for _, d := range it.Days {
		for i, a := range d.Activities {
			rows = append(rows, ExportRow{
				DayNumber:           d.DayNumber,
				Date:                d.Date,
				DayTitle:            d.Title,
				Index:               i,
				ActivityID:          a.ID,
				Time:                a.Time,
				Title:               a.Title,
				Description:         a.Description,
				Location:            a.Location,
				Icon:                a.Icon,
				TransportSuggestion: a.TransportSuggestion,
			})
		}
	}
	return rows
}
