package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/KarenSyu/travel/internal/domain"
	"github.com/KarenSyu/travel/internal/service"
)

// Defaults for fields missing from a tool call that adds an activity.
const (
	DefaultTime  = "TBD"
	DefaultTitle = "New Activity"
	DefaultIcon  = "📍"
)

// Mutator is the write path of the itinerary service used by the bridge.
type Mutator interface {
	Apply(ctx context.Context, m service.Mutation) (service.State, error)
}

// Bridge turns tool calls into itinerary mutations. It never touches state
// directly: each call becomes one Mutation run against the live draft, so a
// later call in a batch sees the effect of earlier ones.
type Bridge struct {
	svc Mutator
	log *slog.Logger
}

// NewBridge constructs a Bridge. A nil logger falls back to slog.Default().
func NewBridge(svc Mutator, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{svc: svc, log: log}
}

// Apply runs calls in order and returns one confirmation per call.
func (b *Bridge) Apply(ctx context.Context, calls []ToolCall) []string {
	return lo.Map(calls, func(c ToolCall, _ int) string {
		return b.apply(ctx, c)
	})
}

func (b *Bridge) apply(ctx context.Context, call ToolCall) string {
	if call.Name != ToolName {
		b.log.WarnContext(ctx, "unsupported tool call", "tool", call.Name)
		return fmt.Sprintf("不支援的操作：%s", call.Name)
	}

	args := call.Args
	var confirmation string
	_, err := b.svc.Apply(ctx, func(it domain.Itinerary) (domain.Itinerary, error) {
		day, _, err := it.Day(args.DayNumber)
		if err != nil {
			return domain.Itinerary{}, err
		}

		if idx := findByTitle(day.Activities, args.ActivityTitleToFind); idx >= 0 {
			updated := args.NewDetails.Apply(day.Activities[idx])
			next, err := domain.EditActivity(it, args.DayNumber, idx, updated)
			if err != nil {
				return domain.Itinerary{}, err
			}
			confirmation = fmt.Sprintf("已更新第 %d 天的「%s」。", args.DayNumber, updated.Title)
			return next, nil
		}

		added := newActivity(args.NewDetails)
		next, err := domain.AddActivity(it, args.DayNumber, added)
		if err != nil {
			return domain.Itinerary{}, err
		}
		d, _, _ := next.Day(args.DayNumber)
		domain.SortActivitiesByTime(d)
		confirmation = fmt.Sprintf("已在第 %d 天新增行程「%s」。", args.DayNumber, added.Title)
		return next, nil
	})

	switch {
	case err == nil:
		b.log.InfoContext(ctx, "tool call applied",
			"tool", call.Name, "day", args.DayNumber, "find", args.ActivityTitleToFind)
		return confirmation
	case errors.Is(err, domain.ErrDayNotFound):
		return fmt.Sprintf("找不到第 %d 天的行程。", args.DayNumber)
	case errors.Is(err, domain.ErrBusy):
		return "行程正在同步中，請稍後再試。"
	default:
		b.log.ErrorContext(ctx, "tool call failed", "tool", call.Name, "error", err)
		return fmt.Sprintf("無法更新第 %d 天的行程。", args.DayNumber)
	}
}

// findByTitle returns the index of the first activity whose title contains
// needle, or -1. An empty needle matches nothing.
func findByTitle(acts []domain.Activity, needle string) int {
	if needle == "" {
		return -1
	}
	_, idx, ok := lo.FindIndexOf(acts, func(a domain.Activity) bool {
		return strings.Contains(a.Title, needle)
	})
	if !ok {
		return -1
	}
	return idx
}

// newActivity builds the activity added when no existing one matched.
// Empty time, title, and icon take their defaults.
func newActivity(p domain.ActivityPatch) domain.Activity {
	orDefault := func(v *string, def string) string {
		if v == nil || *v == "" {
			return def
		}
		return *v
	}
	return domain.Activity{
		ID:                  domain.NewActivityID(),
		Time:                orDefault(p.Time, DefaultTime),
		Title:               orDefault(p.Title, DefaultTitle),
		Description:         orDefault(p.Description, ""),
		Location:            orDefault(p.Location, ""),
		Icon:                orDefault(p.Icon, DefaultIcon),
		TransportSuggestion: orDefault(p.TransportSuggestion, ""),
	}
}
