// Package lifecycle governs the IsActual / IsCompleted flags of an assignment.
//
//	ACTIVE --Report (progress >= 100)--> COMPLETED
//	ACTIVE --Complete--> COMPLETED
//	ACTIVE --Supersede--> INACTIVE
//
// Every transition requires ACTIVE; anything else fails with ErrInvalidState.
// Transitions mutate the assignment in memory only; persisting it is the caller's job.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"alcyxob/plan-tracker/internal/domain"
	"alcyxob/plan-tracker/internal/schedule"
)

// CompletionThreshold is the progress percentage at which an assignment is finished.
const CompletionThreshold = 100.0

var (
	// ErrInvalidState is matched (via errors.Is) by every StateError.
	ErrInvalidState = errors.New("invalid assignment state")
	// ErrScheduleExhausted is returned when the schedule has no training units at all.
	ErrScheduleExhausted = errors.New("no training units in schedule")
)

// StateError reports a transition attempted from the wrong state.
type StateError struct {
	Op   string
	From domain.AssignmentState
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: cannot %s an assignment in state %q", ErrInvalidState, e.Op, e.From)
}

func (e *StateError) Unwrap() error {
	return ErrInvalidState
}

func requireActive(a *domain.Assignment, op string) error {
	if a == nil {
		return &StateError{Op: op, From: "missing"}
	}
	if s := a.State(); s != domain.StateActive {
		return &StateError{Op: op, From: s}
	}
	return nil
}

// Start puts a freshly built assignment in the ACTIVE state.
func Start(a *domain.Assignment, now time.Time) {
	a.IsActual = true
	a.IsCompleted = false
	a.Progress = 0
	a.CompletedDays = 0
	a.LastUpdate = now
}

// Report records one completed training unit, recomputes progress and finishes the
// assignment once progress reaches CompletionThreshold. Progress is stored as computed,
// so it may exceed 100.
//
// The completed-unit counter never passes the schedule's total. An ACTIVE assignment
// whose counter already reached it (the cadence shrank underneath it) is clamped to the
// total and completed. A schedule with zero units is rejected with ErrScheduleExhausted.
func Report(a *domain.Assignment, daysPerWeek int, now time.Time) error {
	if err := requireActive(a, "report"); err != nil {
		return err
	}

	total := schedule.TotalTrainingUnits(a.StartDate, a.EndDate, daysPerWeek)
	if total == 0 {
		return fmt.Errorf("%w: %s to %s at %d days a week", ErrScheduleExhausted,
			a.StartDate.Format(time.DateOnly), a.EndDate.Format(time.DateOnly), daysPerWeek)
	}

	a.CompletedDays = min(a.CompletedDays+1, total)
	progress := schedule.Progress(a.StartDate, a.EndDate, daysPerWeek, a.CompletedDays)
	if progress > a.Progress {
		a.Progress = progress
	}

	if a.Progress >= CompletionThreshold {
		a.IsCompleted = true
		a.IsActual = false
	}
	a.LastUpdate = now
	return nil
}

// Complete finishes an assignment by hand (diets have no unit reports).
func Complete(a *domain.Assignment, now time.Time) error {
	if err := requireActive(a, "complete"); err != nil {
		return err
	}
	a.IsCompleted = true
	a.IsActual = false
	if a.Progress < CompletionThreshold {
		a.Progress = CompletionThreshold
	}
	a.LastUpdate = now
	return nil
}

// Supersede retires the current assignment when a new one of the same kind starts.
func Supersede(a *domain.Assignment, now time.Time) error {
	if err := requireActive(a, "supersede"); err != nil {
		return err
	}
	a.IsActual = false
	a.LastUpdate = now
	return nil
}
