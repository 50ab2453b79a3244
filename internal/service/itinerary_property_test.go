package service_test

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/KarenSyu/travel/internal/domain"
	"github.com/KarenSyu/travel/internal/service"
)

// op is one generated mutation request. Arguments are drawn from a small range
// so that valid and invalid targets both occur.
type op struct {
	Kind             int
	Day, Index       int
	DstDay, DstIndex int
}

func genOp() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 3),
		gen.IntRange(0, 3),
		gen.IntRange(-1, 5),
		gen.IntRange(0, 3),
		gen.IntRange(-1, 5),
	).Map(func(v []any) op {
		return op{Kind: v[0].(int), Day: v[1].(int), Index: v[2].(int), DstDay: v[3].(int), DstIndex: v[4].(int)}
	})
}

func (o op) run(ctx context.Context, svc *service.ItineraryService) error {
	var err error
	switch o.Kind {
	case 0:
		_, err = svc.AddActivity(ctx, o.Day, domain.Activity{Title: "gen"})
	case 1:
		_, err = svc.EditActivity(ctx, o.Day, o.Index, domain.Activity{Title: "edited"})
	case 2:
		_, err = svc.DeleteActivity(ctx, o.Day, o.Index)
	default:
		_, err = svc.MoveActivity(ctx, o.Day, o.Index, o.DstDay, o.DstIndex)
	}
	return err
}

func newPropertyService() *service.ItineraryService {
	svc := service.NewItineraryService(staticRemote(remoteFixture()), nil, cacheKey, quietLogger())
	_, _ = svc.Load(context.Background())
	return svc
}

// TestProperty_DirtyUntilSaveOrRevert checks the dirty lifecycle over arbitrary
// mutation sequences:
//   - dirty is true from the first successful mutation on
//   - a failed mutation never changes the draft
//   - revert clears dirty and restores the baseline exactly
func TestProperty_DirtyUntilSaveOrRevert(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("dirty tracks successful mutations until revert", prop.ForAll(
		func(ops []op) bool {
			ctx := context.Background()
			svc := newPropertyService()
			baseline := svc.Baseline()
			mutated := false

			for _, o := range ops {
				before := svc.Draft()
				if err := o.run(ctx, svc); err != nil {
					if !assert.ObjectsAreEqual(before, svc.Draft()) {
						return false
					}
				} else {
					mutated = true
				}
				if svc.IsDirty() != mutated {
					return false
				}
			}

			st, err := svc.Revert(ctx)
			if err != nil || st.Dirty || svc.IsDirty() {
				return false
			}
			return assert.ObjectsAreEqual(baseline, st.Itinerary)
		},
		gen.SliceOf(genOp()),
	))

	properties.TestingRun(t)
}

// TestProperty_SaveCommitsDraft checks that after any mutation sequence a
// successful save makes baseline equal to the saved draft and a following
// revert is a no-op.
func TestProperty_SaveCommitsDraft(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("save then revert is a no-op", prop.ForAll(
		func(ops []op) bool {
			ctx := context.Background()
			svc := newPropertyService()
			for _, o := range ops {
				_ = o.run(ctx, svc)
			}
			draft := svc.Draft()

			if _, err := svc.Save(ctx); err != nil {
				return false
			}
			if svc.IsDirty() || !assert.ObjectsAreEqual(draft, svc.Baseline()) {
				return false
			}
			st, err := svc.Revert(ctx)
			return err == nil && assert.ObjectsAreEqual(draft, st.Itinerary)
		},
		gen.SliceOf(genOp()),
	))

	properties.TestingRun(t)
}
