// internal/domain/plan.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanKind distinguishes diet menus from workout routines.
type PlanKind string

const (
	PlanKindDiet    PlanKind = "diet"
	PlanKindWorkout PlanKind = "workout"
)

// Valid reports whether k is a known plan kind.
func (k PlanKind) Valid() bool {
	return k == PlanKindDiet || k == PlanKindWorkout
}

// Default values applied to workout plans when the creator leaves them out.
const (
	DefaultWorkoutMonthsValid = 3
	DefaultDaysPerWeek        = 5
	DefaultWorkoutType        = "strength"
)

// Plan is a reusable diet menu or workout routine owned by its creator.
// Content is the menu (diet) or exercise routine (workout); the scheduler never looks inside it.
type Plan struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind        PlanKind           `bson:"kind" json:"kind"`
	CreatorID   primitive.ObjectID `bson:"creatorId" json:"creatorId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Content     []bson.M           `bson:"content,omitempty" json:"content,omitempty"`
	MonthsValid int                `bson:"monthsValid" json:"monthsValid"`
	DaysPerWeek int                `bson:"daysPerWeek,omitempty" json:"daysPerWeek,omitempty"` // Workout only
	WorkoutType string             `bson:"workoutType,omitempty" json:"workoutType,omitempty"` // Workout only, e.g. "strength"
	IsPublic    bool               `bson:"isPublic" json:"isPublic"`
	IsDeleted   bool               `bson:"isDeleted" json:"-"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PlanPatch carries only the fields a caller explicitly sent.
// A nil field is left untouched; it never resets the stored value.
type PlanPatch struct {
	Title       *string
	Description *string
	Content     *[]bson.M
	MonthsValid *int
	DaysPerWeek *int
	WorkoutType *string
	IsPublic    *bool
}

// IsEmpty reports whether the patch sets nothing.
func (p PlanPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Fields returns the bson field set for a $set update.
func (p PlanPatch) Fields() bson.M {
	fields := bson.M{}
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.Content != nil {
		fields["content"] = *p.Content
	}
	if p.MonthsValid != nil {
		fields["monthsValid"] = *p.MonthsValid
	}
	if p.DaysPerWeek != nil {
		fields["daysPerWeek"] = *p.DaysPerWeek
	}
	if p.WorkoutType != nil {
		fields["workoutType"] = *p.WorkoutType
	}
	if p.IsPublic != nil {
		fields["isPublic"] = *p.IsPublic
	}
	return fields
}

// Apply copies the set fields onto plan. Used to validate the merged result before saving.
func (p PlanPatch) Apply(plan *Plan) {
	if p.Title != nil {
		plan.Title = *p.Title
	}
	if p.Description != nil {
		plan.Description = *p.Description
	}
	if p.Content != nil {
		plan.Content = *p.Content
	}
	if p.MonthsValid != nil {
		plan.MonthsValid = *p.MonthsValid
	}
	if p.DaysPerWeek != nil {
		plan.DaysPerWeek = *p.DaysPerWeek
	}
	if p.WorkoutType != nil {
		plan.WorkoutType = *p.WorkoutType
	}
	if p.IsPublic != nil {
		plan.IsPublic = *p.IsPublic
	}
}

// PublicPlan is a catalogue entry for the public plan listing.
type PublicPlan struct {
	ID               primitive.ObjectID `json:"id"`
	Kind             PlanKind           `json:"kind"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	ProfessionalName string             `json:"professionalName,omitempty"`
}
