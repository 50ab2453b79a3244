package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KarenSyu/travel/internal/domain"
)

func TestExportRows_RepeatsDayFieldsAndIndexes(t *testing.T) {
	it := domain.Itinerary{Days: []domain.DayPlan{
		{Date: "2026-01-09", DayNumber: 1, Title: "抵達", Activities: []domain.Activity{
			{ID: "a", Title: "A"}, {ID: "b", Title: "B", TransportSuggestion: "步行"},
		}},
		{Date: "2026-01-10", DayNumber: 2, Title: "空白", Activities: []domain.Activity{}},
		{Date: "2026-01-11", DayNumber: 3, Title: "北部", Activities: []domain.Activity{{ID: "c", Title: "C"}}},
	}}

	rows := it.ExportRows()

	require.Len(t, rows, 3)
	assert.Equal(t, domain.ExportRow{
		DayNumber: 1, Date: "2026-01-09", DayTitle: "抵達",
		Index: 1, ActivityID: "b", Title: "B", TransportSuggestion: "步行",
	}, rows[1])
	assert.Equal(t, 3, rows[2].DayNumber)
	assert.Equal(t, 0, rows[2].Index)
}

func TestExportRows_Empty(t *testing.T) {
	rows := domain.Itinerary{}.ExportRows()

	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
