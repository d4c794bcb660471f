package lifecycle

import (
	"testing"
	"time"

	"alcyxob/plan-tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 1, 22, 9, 30, 0, 0, time.UTC)

func newActive(start, end time.Time) *domain.Assignment {
	a := &domain.Assignment{
		Kind:      domain.PlanKindWorkout,
		StartDate: start,
		EndDate:   end,
	}
	Start(a, start)
	return a
}

func threeWeekWindow() *domain.Assignment {
	return newActive(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC),
	)
}

func TestStart(t *testing.T) {
	a := &domain.Assignment{IsCompleted: true, Progress: 50, CompletedDays: 4}
	Start(a, now)
	require.Equal(t, domain.StateActive, a.State())
	require.Zero(t, a.Progress)
	require.Zero(t, a.CompletedDays)
	require.Equal(t, now, a.LastUpdate)
}

func TestReport_AdvancesProgress(t *testing.T) {
	a := threeWeekWindow()

	require.NoError(t, Report(a, 3, now))
	assert.Equal(t, 1, a.CompletedDays)
	assert.InDelta(t, 11.11, a.Progress, 1e-9)
	assert.Equal(t, domain.StateActive, a.State())
	assert.True(t, a.IsActual)
	assert.Equal(t, now, a.LastUpdate)
}

func TestReport_CompletesAtHundredPercent(t *testing.T) {
	a := threeWeekWindow()

	for i := 0; i < 8; i++ {
		require.NoError(t, Report(a, 3, now))
		require.Equal(t, domain.StateActive, a.State())
	}
	require.NoError(t, Report(a, 3, now))

	require.Equal(t, 9, a.CompletedDays)
	require.InDelta(t, 100.0, a.Progress, 1e-9)
	require.Equal(t, domain.StateCompleted, a.State())
	require.False(t, a.IsActual)
	require.True(t, a.IsCompleted)
}

func TestReport_RejectsNonActive(t *testing.T) {
	completed := threeWeekWindow()
	require.NoError(t, Complete(completed, now))

	inactive := threeWeekWindow()
	require.NoError(t, Supersede(inactive, now))

	for name, a := range map[string]*domain.Assignment{"completed": completed, "inactive": inactive, "missing": nil} {
		t.Run(name, func(t *testing.T) {
			var before domain.Assignment
			if a != nil {
				before = *a
			}
			err := Report(a, 3, now.Add(time.Hour))
			require.ErrorIs(t, err, ErrInvalidState)

			var stateErr *StateError
			require.ErrorAs(t, err, &stateErr)
			require.Equal(t, "report", stateErr.Op)
			if a != nil {
				require.Equal(t, before, *a, "rejected report must not mutate the assignment")
			}
		})
	}
}

func TestReport_ScheduleExhausted(t *testing.T) {
	// end before start: no units at all
	a := newActive(
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	)
	err := Report(a, 3, now)
	require.ErrorIs(t, err, ErrScheduleExhausted)
	require.Zero(t, a.CompletedDays)
	require.Equal(t, domain.StateActive, a.State())
}

func TestReport_CounterPastShrunkScheduleCompletes(t *testing.T) {
	// Four units reported at three days a week, then measured at one day a week (3 units).
	a := threeWeekWindow()
	a.CompletedDays = 4
	a.Progress = 44.44

	require.NoError(t, Report(a, 1, now))
	assert.Equal(t, 3, a.CompletedDays)
	assert.Equal(t, 100.0, a.Progress)
	assert.Equal(t, domain.StateCompleted, a.State())
	assert.Equal(t, now, a.LastUpdate)
}

func TestReport_ProgressNeverDecreases(t *testing.T) {
	a := threeWeekWindow()
	a.Progress = 40 // e.g. carried over from an earlier formula
	require.NoError(t, Report(a, 3, now))
	require.Equal(t, 40.0, a.Progress)
}

func TestComplete(t *testing.T) {
	a := threeWeekWindow()
	require.NoError(t, Complete(a, now))
	require.Equal(t, domain.StateCompleted, a.State())
	require.Equal(t, CompletionThreshold, a.Progress)

	require.ErrorIs(t, Complete(a, now), ErrInvalidState)
}

func TestSupersede(t *testing.T) {
	a := threeWeekWindow()
	require.NoError(t, Supersede(a, now))
	require.Equal(t, domain.StateInactive, a.State())
	require.False(t, a.IsCompleted)

	require.ErrorIs(t, Supersede(a, now), ErrInvalidState)
}
