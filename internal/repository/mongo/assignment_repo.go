package mongo

import (
	"alcyxob/plan-tracker/internal/domain"
	"alcyxob/plan-tracker/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const assignmentCollectionName = "assignments"

// mongoAssignmentRepository implements repository.AssignmentRepository
type mongoAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAssignmentRepository creates a new Assignment repository backed by MongoDB.
func NewMongoAssignmentRepository(db *mongo.Database) repository.AssignmentRepository {
	return &mongoAssignmentRepository{
		collection: db.Collection(assignmentCollectionName),
	}
}

// Create inserts a new assignment into the database.
func (r *mongoAssignmentRepository) Create(ctx context.Context, assignment *domain.Assignment) (primitive.ObjectID, error) {
	if assignment.UserID == primitive.NilObjectID || assignment.PlanID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("assignment requires userId and planId")
	}

	assignment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	assignment.CreatedAt = now
	if assignment.LastUpdate.IsZero() {
		assignment.LastUpdate = now
	}

	result, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted assignment ID")
	}
	return insertedID, nil
}

// GetByID retrieves an assignment by its ID.
func (r *mongoAssignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Assignment, error) {
	return r.findOne(ctx, bson.M{"_id": id}, nil)
}

// GetActive retrieves the user's current assignment of a kind. If several records are
// flagged current (data written before supersede existed), the most recent start wins.
func (r *mongoAssignmentRepository) GetActive(ctx context.Context, userID primitive.ObjectID, kind domain.PlanKind) (*domain.Assignment, error) {
	filter := bson.M{
		"userId":      userID,
		"kind":        kind,
		"isActual":    true,
		"isCompleted": false,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "startDate", Value: -1}})
	return r.findOne(ctx, filter, opts)
}

func (r *mongoAssignmentRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*domain.Assignment, error) {
	var assignment domain.Assignment
	err := r.collection.FindOne(ctx, filter, opts).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// ListFinished retrieves completed assignments, most recent end date first.
func (r *mongoAssignmentRepository) ListFinished(ctx context.Context, userID primitive.ObjectID, kind domain.PlanKind, limit int64) ([]domain.Assignment, error) {
	filter := bson.M{
		"userId":      userID,
		"kind":        kind,
		"isCompleted": true,
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "endDate", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}
	return r.find(ctx, filter, findOptions)
}

// ListExpiring retrieves unfinished assignments of the professional's plans for the given
// users whose end date lies in [from, to).
func (r *mongoAssignmentRepository) ListExpiring(ctx context.Context, professionalID primitive.ObjectID, userIDs []primitive.ObjectID, kind domain.PlanKind, from, to time.Time) ([]domain.Assignment, error) {
	if len(userIDs) == 0 {
		return []domain.Assignment{}, nil
	}
	filter := bson.M{
		"professionalId": professionalID,
		"userId":         bson.M{"$in": userIDs},
		"kind":           kind,
		"isCompleted":    false,
		"endDate":        bson.M{"$gte": from, "$lt": to},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "endDate", Value: 1}})
	return r.find(ctx, filter, findOptions)
}

func (r *mongoAssignmentRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Assignment, error) {
	var assignments []domain.Assignment
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return assignments, nil
}

// Save writes the lifecycle fields of an existing assignment. There is no version check:
// two concurrent saves of the same record are last-writer-wins.
func (r *mongoAssignmentRepository) Save(ctx context.Context, assignment *domain.Assignment) error {
	if assignment.ID == primitive.NilObjectID {
		return errors.New("assignment ID is required for update")
	}

	filter := bson.M{"_id": assignment.ID}
	update := bson.M{
		"$set": bson.M{
			"isActual":      assignment.IsActual,
			"isCompleted":   assignment.IsCompleted,
			"progress":      assignment.Progress,
			"completedDays": assignment.CompletedDays,
			"dailyTraining": assignment.DailyTraining,
			"timeToWorkout": assignment.TimeToWorkout,
			"lastUpdate":    assignment.LastUpdate,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureAssignmentIndexes creates necessary indexes for the assignments collection.
func EnsureAssignmentIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// Current assignment lookup
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "kind", Value: 1}, {Key: "isActual", Value: 1}, {Key: "isCompleted", Value: 1}},
			Options: options.Index(),
		},
		{
			// Finished listing sorted by end date
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "kind", Value: 1}, {Key: "endDate", Value: -1}},
			Options: options.Index(),
		},
		{
			// Expiring listing for a professional
			Keys:    bson.D{{Key: "professionalId", Value: 1}, {Key: "isCompleted", Value: 1}, {Key: "endDate", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "planId", Value: 1}},
			Options: options.Index(),
		},
	})
}
