package repository

import (
	"alcyxob/plan-tracker/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDuplicateKey = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Transactor runs fn inside one transaction: commit when fn returns nil, abort otherwise.
// Repository calls made with the ctx handed to fn join the transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	AddClientToProfessional(ctx context.Context, professionalID, clientID primitive.ObjectID) error
	SetProfessionalForClient(ctx context.Context, clientID, professionalID primitive.ObjectID) error
	GetClientsByProfessionalID(ctx context.Context, professionalID primitive.ObjectID) ([]domain.User, error)
}

// PlanRepository defines the interface for interacting with plan templates.
// Soft-deleted plans are invisible to every read method except GetByIDs.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Plan, error)
	ListPublic(ctx context.Context, kind domain.PlanKind) ([]domain.Plan, error)
	CountPublic(ctx context.Context, kind domain.PlanKind) (int64, error)
	ListPublicByCreator(ctx context.Context, creatorID primitive.ObjectID, kind domain.PlanKind) ([]domain.Plan, error)
	Update(ctx context.Context, id primitive.ObjectID, patch domain.PlanPatch) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
}

// AssignmentRepository defines the interface for interacting with plan assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.Assignment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error)
	// GetActive returns the user's assignment of this kind with isActual=true and isCompleted=false.
	GetActive(ctx context.Context, userID primitive.ObjectID, kind domain.PlanKind) (*domain.Assignment, error)
	// ListFinished returns completed assignments ordered by endDate descending; limit <= 0 means all.
	ListFinished(ctx context.Context, userID primitive.ObjectID, kind domain.PlanKind, limit int64) ([]domain.Assignment, error)
	// ListExpiring returns unfinished assignments created from the professional's plans for the
	// given users whose endDate lies in [from, to).
	ListExpiring(ctx context.Context, professionalID primitive.ObjectID, userIDs []primitive.ObjectID, kind domain.PlanKind, from, to time.Time) ([]domain.Assignment, error)
	// Save overwrites the mutable lifecycle fields of an existing assignment.
	Save(ctx context.Context, assignment *domain.Assignment) error
}

// PlanImageRepository defines the interface for interacting with plan image metadata.
type PlanImageRepository interface {
	Create(ctx context.Context, image *domain.PlanImage) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PlanImage, error)
	GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanImage, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}
