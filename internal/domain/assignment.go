package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentState is derived from the IsActual / IsCompleted flags.
type AssignmentState string

const (
	StateActive    AssignmentState = "active"    // isActual=true,  isCompleted=false
	StateCompleted AssignmentState = "completed" // isActual=false, isCompleted=true
	StateInactive  AssignmentState = "inactive"  // isActual=false, isCompleted=false (superseded)
)

// DefaultTimeToWorkout is stored when a workout assignment is created without a schedule hint.
const DefaultTimeToWorkout = "00:00"

// Assignment links one user to one Plan over a bounded time window.
// EndDate is always computed from StartDate and the plan, never taken from the caller.
// EndDate and DaysPerWeek are fixed at creation, so later plan edits do not reach them.
type Assignment struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind           PlanKind           `bson:"kind" json:"kind"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	PlanID         primitive.ObjectID `bson:"planId" json:"planId"`
	ProfessionalID primitive.ObjectID `bson:"professionalId" json:"professionalId"` // Plan creator (denormalized for listing queries)
	StartDate      time.Time          `bson:"startDate" json:"startDate"`
	EndDate        time.Time          `bson:"endDate" json:"endDate"`
	IsActual       bool               `bson:"isActual" json:"isActual"`
	IsCompleted    bool               `bson:"isCompleted" json:"isCompleted"`
	Progress       float64            `bson:"progress" json:"progress"`

	// --- Workout-specific ---
	DaysPerWeek   int    `bson:"daysPerWeek,omitempty" json:"daysPerWeek,omitempty"` // Plan cadence at assignment time
	CompletedDays int    `bson:"completedDays" json:"completedDays"`
	DailyTraining int    `bson:"dailyTraining" json:"dailyTraining"` // Last reported activity index
	TimeToWorkout string `bson:"timeToWorkout,omitempty" json:"timeToWorkout,omitempty"`

	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	LastUpdate time.Time `bson:"lastUpdate" json:"lastUpdate"`
}

// State derives the lifecycle state from the stored flags.
func (a Assignment) State() AssignmentState {
	switch {
	case a.IsCompleted:
		return StateCompleted
	case a.IsActual:
		return StateActive
	default:
		return StateInactive
	}
}

// CurrentAssignment joins the current assignment with its plan for display.
type CurrentAssignment struct {
	Assignment
	Plan *Plan `json:"plan"`
}

// AssignmentSummary is the compact start/end view of the current assignment.
type AssignmentSummary struct {
	PlanID    primitive.ObjectID `json:"planId"`
	StartDate time.Time          `json:"startDate"`
	EndDate   time.Time          `json:"endDate"`
}

// AssignmentPeriod feeds the calendar view.
type AssignmentPeriod struct {
	PlanID        primitive.ObjectID `json:"planId"`
	StartDate     time.Time          `json:"startDate"`
	EndDate       time.Time          `json:"endDate"`
	DaysPerWeek   int                `json:"daysPerWeek,omitempty"`
	TimeToWorkout string             `json:"timeToWorkout,omitempty"`
}

// FinishedAssignment is one entry in the finished listing.
type FinishedAssignment struct {
	AssignmentID primitive.ObjectID `json:"assignmentId"`
	PlanID       primitive.ObjectID `json:"planId"`
	Title        string             `json:"title"`
	StartDate    time.Time          `json:"startDate"`
	EndDate      time.Time          `json:"endDate"`
	Progress     float64            `json:"progress"`
}

// ExpiringAssignment is one entry in a professional's expiring listing.
type ExpiringAssignment struct {
	AssignmentID  primitive.ObjectID `json:"assignmentId"`
	PlanID        primitive.ObjectID `json:"planId"`
	UserID        primitive.ObjectID `json:"userId"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	EndDate       time.Time          `json:"endDate"`
	DaysRemaining int                `json:"daysRemaining"`
}
