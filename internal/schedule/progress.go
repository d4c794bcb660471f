package schedule

import (
	"math"
	"time"
)

// TotalTrainingUnits estimates the workouts scheduled between start and end, both inclusive:
// daysPerWeek per full week plus up to daysPerWeek of the remaining days.
// Degenerate inputs (end before start, non-positive daysPerWeek) yield 0.
func TotalTrainingUnits(start, end time.Time, daysPerWeek int) int {
	if daysPerWeek <= 0 || Date(start).After(Date(end)) {
		return 0
	}
	totalDays := DaysBetween(start, end) + 1
	fullWeeks := totalDays / 7
	remaining := totalDays % 7
	return fullWeeks*daysPerWeek + min(remaining, daysPerWeek)
}

// Progress returns completedUnits as a percentage of TotalTrainingUnits, rounded to two
// decimals. It is not clamped, so over-reporting yields values above 100.
// When the schedule has no units it returns 0 rather than an error; a 0 result therefore
// does not prove the schedule is valid.
func Progress(start, end time.Time, daysPerWeek, completedUnits int) float64 {
	total := TotalTrainingUnits(start, end, daysPerWeek)
	if total == 0 {
		return 0.0
	}
	return math.Round(float64(completedUnits)/float64(total)*100*100) / 100
}
