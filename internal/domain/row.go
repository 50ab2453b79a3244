package domain

// SheetRow is a single row of the remote itinerary spreadsheet.
// It is a flat, denormalized view: one row per activity, with the day fields
// repeated for every activity of that day. DayNumber stays a string because the
// sheet is free-form; the sheet package parses and validates it.
type SheetRow struct {
	// Day fields, repeated for every activity of the day.
	DayNumber string `json:"dayNumber"`
	Date      string `json:"date"`
	DayTitle  string `json:"dayTitle"`

	// Activity fields.
	Time                string `json:"time"`
	ActivityTitle       string `json:"activityTitle"`
	Description         string `json:"description"`
	Location            string `json:"location"`
	Icon                string `json:"icon"`
	TransportSuggestion string `json:"transportSuggestion"`
}

// SheetColumns lists the column names of the sheet, in the order they are written.
var SheetColumns = []string{
	"dayNumber", "date", "dayTitle",
	"time", "activityTitle", "description", "location", "icon", "transportSuggestion",
}

// Values returns the row's cells in SheetColumns order.
func (r SheetRow) Values() []string {
	return []string{
		r.DayNumber, r.Date, r.DayTitle,
		r.Time, r.ActivityTitle, r.Description, r.Location, r.Icon, r.TransportSuggestion,
	}
}
