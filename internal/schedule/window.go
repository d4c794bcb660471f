package schedule

import (
	"time"

	"alcyxob/plan-tracker/internal/domain"
)

const day = 24 * time.Hour

// Date truncates t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths adds n calendar months to t, keeping the day of month when the target
// month has it and clamping to the target month's last day otherwise
// (2024-01-31 + 1 month = 2024-02-29). time.AddDate would overflow into the next month instead.
func AddMonths(t time.Time, n int) time.Time {
	t = Date(t)
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween returns the number of whole calendar days from start to end (negative if end is earlier).
func DaysBetween(start, end time.Time) int {
	return int(Date(end).Sub(Date(start)) / day)
}

// DietEndDate is start plus monthsValid calendar months.
func DietEndDate(start time.Time, monthsValid int) (time.Time, error) {
	if monthsValid < 0 {
		return time.Time{}, &ConfigurationError{Field: "monthsValid", Value: monthsValid}
	}
	return AddMonths(start, monthsValid), nil
}

// WorkoutEndDate bounds the window at start+monthsValid months, counts the full weeks in it,
// and walks a training cadence of 7/daysPerWeek days per workout from start until
// fullWeeks*daysPerWeek workouts have been simulated. The date of the last simulated workout
// is the end date, which usually falls before the month bound.
//
// A window shorter than one week simulates no workout and ends on start.
func WorkoutEndDate(start time.Time, monthsValid, daysPerWeek int) (time.Time, error) {
	if daysPerWeek <= 0 {
		return time.Time{}, &ConfigurationError{Field: "daysPerWeek", Value: daysPerWeek}
	}
	if monthsValid < 0 {
		return time.Time{}, &ConfigurationError{Field: "monthsValid", Value: monthsValid}
	}

	start = Date(start)
	limit := AddMonths(start, monthsValid)
	fullWeeks := DaysBetween(start, limit) / 7
	totalWorkouts := fullWeeks * daysPerWeek

	step := 7 * day / time.Duration(daysPerWeek)
	current := start
	for done := 0; done < totalWorkouts; done++ {
		current = current.Add(step)
	}
	return Date(current), nil
}

// EndDate dispatches on the plan kind.
func EndDate(start time.Time, plan *domain.Plan) (time.Time, error) {
	if plan.Kind == domain.PlanKindWorkout {
		return WorkoutEndDate(start, plan.MonthsValid, plan.DaysPerWeek)
	}
	return DietEndDate(start, plan.MonthsValid)
}
