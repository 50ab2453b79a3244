package chat_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KarenSyu/travel/internal/chat"
	"github.com/KarenSyu/travel/internal/domain"
	"github.com/KarenSyu/travel/internal/service"
)

// fakeRemote serves a fixed itinerary and accepts every save.
type fakeRemote struct {
	it domain.Itinerary
}

func (f *fakeRemote) Load(context.Context) (domain.Itinerary, error) { return f.it.Clone(), nil }
func (f *fakeRemote) Save(context.Context, domain.Itinerary) error  { return nil }

// busyMutator rejects every mutation as if a save were in flight.
type busyMutator struct{}

func (busyMutator) Apply(context.Context, service.Mutation) (service.State, error) {
	return service.State{}, domain.ErrBusy
}

var (
	_ service.RemoteStore = (*fakeRemote)(nil)
	_ chat.Mutator        = busyMutator{}
)

// ---- helpers ---------------------------------------------------------------

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func strp(s string) *string { return &s }

func chatFixture() domain.Itinerary {
	return domain.Itinerary{
		Title: "沖繩之旅 Okinawa",
		Days: []domain.DayPlan{
			{Date: "2026-01-09", DayNumber: 1, Title: "出發與抵達", Activities: []domain.Activity{
				{ID: "1", Time: "09:00", Title: "首里城", Icon: "🏯"},
				{ID: "2", Time: "12:30", Title: "午餐 沖繩麵", Icon: "🍜"},
				{ID: "3", Time: "19:00", Title: "晚餐", Location: "國際通", Icon: "🍽️"},
			}},
			{Date: "2026-01-10", DayNumber: 2, Title: "那霸", Activities: []domain.Activity{}},
		},
	}
}

func newLoadedService(t *testing.T) *service.ItineraryService {
	t.Helper()
	svc := service.NewItineraryService(&fakeRemote{it: chatFixture()}, nil, "test", quietLogger())
	_, err := svc.Load(context.Background())
	require.NoError(t, err)
	return svc
}

func updateCall(day int, find string, details domain.ActivityPatch) chat.ToolCall {
	return chat.ToolCall{Name: chat.ToolName, Args: chat.UpdateArgs{
		DayNumber: day, ActivityTitleToFind: find, NewDetails: details,
	}}
}

func dayTitles(it domain.Itinerary, day int) []string {
	d, _, err := it.Day(day)
	if err != nil {
		return nil
	}
	out := make([]string, len(d.Activities))
	for i, a := range d.Activities {
		out[i] = a.Title
	}
	return out
}

// ---- scenarios -------------------------------------------------------------

func TestBridge_EditsMatchedActivityInPlace(t *testing.T) {
	svc := newLoadedService(t)
	b := chat.NewBridge(svc, quietLogger())

	msgs := b.Apply(context.Background(), []chat.ToolCall{
		updateCall(1, "晚餐", domain.ActivityPatch{Title: strp("燒肉")}),
	})

	require.Len(t, msgs, 1)
	assert.Equal(t, "已更新第 1 天的「燒肉」。", msgs[0])
	draft := svc.Draft()
	assert.Equal(t, []string{"首里城", "午餐 沖繩麵", "燒肉"}, dayTitles(draft, 1))
	edited := draft.Days[0].Activities[2]
	assert.Equal(t, "3", edited.ID)
	assert.Equal(t, "19:00", edited.Time, "omitted fields keep their values")
	assert.Equal(t, "國際通", edited.Location)
	assert.True(t, svc.IsDirty())
}

func TestBridge_AddsAndResortsWhenNoMatch(t *testing.T) {
	svc := newLoadedService(t)
	b := chat.NewBridge(svc, quietLogger())

	msgs := b.Apply(context.Background(), []chat.ToolCall{
		updateCall(1, "早午餐", domain.ActivityPatch{Time: strp("11:00"), Title: strp("早午餐")}),
	})

	assert.Equal(t, []string{"已在第 1 天新增行程「早午餐」。"}, msgs)
	draft := svc.Draft()
	assert.Equal(t, []string{"首里城", "早午餐", "午餐 沖繩麵", "晚餐"}, dayTitles(draft, 1))
	added := draft.Days[0].Activities[1]
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, chat.DefaultIcon, added.Icon)
}

func TestBridge_AddWithDefaults(t *testing.T) {
	svc := newLoadedService(t)
	b := chat.NewBridge(svc, quietLogger())

	msgs := b.Apply(context.Background(), []chat.ToolCall{updateCall(1, "", domain.ActivityPatch{})})

	assert.Equal(t, []string{"已在第 1 天新增行程「New Activity」。"}, msgs)
	acts := svc.Draft().Days[0].Activities
	last := acts[len(acts)-1]
	assert.Equal(t, chat.DefaultTime, last.Time, "placeholder time sorts last")
	assert.Equal(t, chat.DefaultTitle, last.Title)
	assert.Equal(t, chat.DefaultIcon, last.Icon)
	assert.Empty(t, last.Description)
}

func TestBridge_FirstSubstringMatchWins(t *testing.T) {
	svc := newLoadedService(t)
	b := chat.NewBridge(svc, quietLogger())

	b.Apply(context.Background(), []chat.ToolCall{
		updateCall(1, "餐", domain.ActivityPatch{Description: strp("訂位")}),
	})

	acts := svc.Draft().Days[0].Activities
	assert.Equal(t, "訂位", acts[1].Description)
	assert.Empty(t, acts[2].Description)
}

func TestBridge_DayNotFound(t *testing.T) {
	svc := newLoadedService(t)
	b := chat.NewBridge(svc, quietLogger())
	before := svc.State()

	msgs := b.Apply(context.Background(), []chat.ToolCall{
		updateCall(9, "晚餐", domain.ActivityPatch{Title: strp("燒肉")}),
	})

	assert.Equal(t, []string{"找不到第 9 天的行程。"}, msgs)
	assert.Equal(t, before.Itinerary, svc.Draft())
	assert.False(t, svc.IsDirty())
}

func TestBridge_LaterCallsSeeEarlierOnes(t *testing.T) {
	svc := newLoadedService(t)
	b := chat.NewBridge(svc, quietLogger())

	msgs := b.Apply(context.Background(), []chat.ToolCall{
		updateCall(2, "", domain.ActivityPatch{Time: strp("10:00"), Title: strp("美麗海水族館")}),
		updateCall(2, "水族館", domain.ActivityPatch{Location: strp("本部町")}),
		updateCall(7, "", domain.ActivityPatch{}),
	})

	assert.Equal(t, []string{
		"已在第 2 天新增行程「美麗海水族館」。",
		"已更新第 2 天的「美麗海水族館」。",
		"找不到第 7 天的行程。",
	}, msgs)
	day2 := svc.Draft().Days[1]
	require.Len(t, day2.Activities, 1)
	assert.Equal(t, "本部町", day2.Activities[0].Location)
}

func TestBridge_UnsupportedTool(t *testing.T) {
	svc := newLoadedService(t)
	b := chat.NewBridge(svc, quietLogger())

	msgs := b.Apply(context.Background(), []chat.ToolCall{{Name: "book_flight"}})

	assert.Equal(t, []string{"不支援的操作：book_flight"}, msgs)
	assert.False(t, svc.IsDirty())
}

func TestBridge_Busy(t *testing.T) {
	b := chat.NewBridge(busyMutator{}, quietLogger())

	msgs := b.Apply(context.Background(), []chat.ToolCall{updateCall(1, "", domain.ActivityPatch{})})

	assert.Equal(t, []string{"行程正在同步中，請稍後再試。"}, msgs)
}
