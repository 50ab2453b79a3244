package sheet_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KarenSyu/travel/internal/domain"
	"github.com/KarenSyu/travel/internal/sheet"
)

const sampleCSV = `dayNumber,date,dayTitle,time,activityTitle,description,location,icon,transportSuggestion
2,2026-01-10,那霸市區,09:00,首里城,世界遺產,首里城公園,🏯,單軌列車 15 分鐘
1,2026-01-09,出發與抵達,07:30,住家,起床！,,🏠,
1,2026-01-09-ignored,ignored title,08:15,住家-> 台鐵太原站,,台鐵太原站,🚆,步行 10 分鍾
,2026-01-09,x,09:00,no day number,,,,
1,2026-01-09,x,09:30,,no title,,,
abc,2026-01-09,x,09:30,bad day number,,,,
`

// stripIDs clears synthetic IDs so grouped itineraries can be compared by value.
func stripIDs(it domain.Itinerary) domain.Itinerary {
	out := it.Clone()
	for i := range out.Days {
		for j := range out.Days[i].Activities {
			out.Days[i].Activities[j].ID = ""
		}
	}
	return out
}

// ---- DecodeCSV + Group -----------------------------------------------------

func TestGroup_SampleSheet(t *testing.T) {
	rows, err := sheet.DecodeCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, rows, 6)

	it := sheet.Group("沖繩之旅", rows)

	require.Len(t, it.Days, 2)
	assert.Equal(t, "沖繩之旅", it.Title)

	day1 := it.Days[0]
	assert.Equal(t, 1, day1.DayNumber)
	assert.Equal(t, "2026-01-09", day1.Date, "first row wins day metadata")
	assert.Equal(t, "出發與抵達", day1.Title)
	require.Len(t, day1.Activities, 2)
	assert.Equal(t, "住家", day1.Activities[0].Title)
	assert.Equal(t, "步行 10 分鍾", day1.Activities[1].TransportSuggestion)

	day2 := it.Days[1]
	assert.Equal(t, 2, day2.DayNumber)
	assert.Equal(t, "首里城", day2.Activities[0].Title)

	for _, d := range it.Days {
		for _, a := range d.Activities {
			assert.NotEmpty(t, a.ID, "loaded activities get synthetic IDs")
		}
	}
}

func TestDecodeCSV_HeaderOrderAndCase(t *testing.T) {
	doc := "\ufeffActivityTitle,DAYNUMBER,time\nlunch,3,12:00\n"

	rows, err := sheet.DecodeCSV(strings.NewReader(doc))

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.SheetRow{DayNumber: "3", Time: "12:00", ActivityTitle: "lunch"}, rows[0])
}

func TestDecodeCSV_Empty(t *testing.T) {
	rows, err := sheet.DecodeCSV(strings.NewReader(""))

	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, sheet.Group("t", rows).Days, "empty result set yields zero days")
}

func TestDecodeCSV_MissingRequiredColumn(t *testing.T) {
	_, err := sheet.DecodeCSV(strings.NewReader("date,time\n2026-01-09,10:00\n"))

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGroup_NormalizesCells(t *testing.T) {
	decomposed := "Cafe\u0301" // "Café" with a combining accent
	rows := []domain.SheetRow{{DayNumber: " 1 ", ActivityTitle: "  " + decomposed + " "}}

	it := sheet.Group("", rows)

	require.Len(t, it.Days, 1)
	assert.Equal(t, "Café", it.Days[0].Activities[0].Title)
}

// ---- Flatten ---------------------------------------------------------------

func TestFlatten_RepeatsDayMetadata(t *testing.T) {
	it := domain.Itinerary{Days: []domain.DayPlan{
		{DayNumber: 1, Date: "2026-01-09", Title: "D1", Activities: []domain.Activity{
			{Time: "08:00", Title: "a"}, {Time: "09:00", Title: "b", TransportSuggestion: "walk"},
		}},
		{DayNumber: 2, Date: "2026-01-10", Title: "D2", Activities: []domain.Activity{}},
	}}

	rows := sheet.Flatten(it)

	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, "1", r.DayNumber)
		assert.Equal(t, "2026-01-09", r.Date)
		assert.Equal(t, "D1", r.DayTitle)
	}
	assert.Equal(t, "walk", rows[1].TransportSuggestion)
}

// ---- round trip ------------------------------------------------------------

// buildItinerary spreads titles over up to three days so each generated day
// has at least one activity (empty days cannot be represented in the sheet).
func buildItinerary(titles, times []string) domain.Itinerary {
	days := map[int]*domain.DayPlan{}
	var it domain.Itinerary
	for i, title := range titles {
		n := i%3 + 1
		d, ok := days[n]
		if !ok {
			it.Days = append(it.Days, domain.DayPlan{
				DayNumber: n, Date: fmt.Sprintf("2026-01-%02d", 8+n), Title: fmt.Sprintf("Day %d", n),
				Activities: []domain.Activity{},
			})
			d = &it.Days[len(it.Days)-1]
			days[n] = d
		}
		tm := ""
		if i < len(times) {
			tm = times[i]
		}
		d.Activities = append(d.Activities, domain.Activity{
			Time: tm, Title: "t" + title, Description: title, Location: tm, Icon: "📍",
		})
	}
	return it
}

// TestRoundTrip_FlattenCSVGroup verifies load∘save∘load idempotence at the codec level.
// Property: Group(Decode(Encode(Flatten(it)))) == it, ignoring synthetic IDs.
func TestRoundTrip_FlattenCSVGroup(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("flatten then group reconstructs the itinerary", prop.ForAll(
		func(titles, times []string) bool {
			if len(titles) > 12 {
				titles = titles[:12]
			}
			// Keep day slots in DayNumber order so the expected value matches Group's sort.
			it := buildItinerary(titles, times)
			sortDays(&it)

			var buf bytes.Buffer
			if err := sheet.EncodeCSV(&buf, sheet.Flatten(it)); err != nil {
				return false
			}
			rows, err := sheet.DecodeCSV(&buf)
			if err != nil {
				return false
			}
			got := stripIDs(sheet.Group(it.Title, rows))

			return assert.ObjectsAreEqual(stripIDs(it), got)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.RegexMatch(`[0-2][0-9]:[0-5][0-9]`)),
	))

	properties.TestingRun(t)
}

func TestRoundTrip_DayWithoutActivitiesIsDropped(t *testing.T) {
	it := domain.Itinerary{Title: "沖繩之旅", Days: []domain.DayPlan{
		{DayNumber: 1, Date: "2026-01-09", Title: "D1", Activities: []domain.Activity{{Time: "08:00", Title: "a"}}},
		{DayNumber: 2, Date: "2026-01-10", Title: "D2", Activities: []domain.Activity{}},
		{DayNumber: 3, Date: "2026-01-11", Title: "D3", Activities: []domain.Activity{{Time: "10:00", Title: "c"}}},
	}}

	var buf bytes.Buffer
	require.NoError(t, sheet.EncodeCSV(&buf, sheet.Flatten(it)))
	rows, err := sheet.DecodeCSV(&buf)
	require.NoError(t, err)
	got := sheet.Group(it.Title, rows)

	require.Len(t, got.Days, 2, "the sheet has no row to carry an empty day")
	assert.Equal(t, 1, got.Days[0].DayNumber)
	assert.Equal(t, 3, got.Days[1].DayNumber)
}

func sortDays(it *domain.Itinerary) {
	for i := 1; i < len(it.Days); i++ {
		for j := i; j > 0 && it.Days[j].DayNumber < it.Days[j-1].DayNumber; j-- {
			it.Days[j], it.Days[j-1] = it.Days[j-1], it.Days[j]
		}
	}
}
