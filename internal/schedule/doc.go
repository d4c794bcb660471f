// Package schedule holds the pure date and progress arithmetic behind plan assignments:
// the end date of an assignment window and the completion percentage of a workout schedule.
//
// All functions are deterministic and side-effect free. Dates are handled as UTC calendar
// days; any time-of-day component of an input is discarded.
package schedule
