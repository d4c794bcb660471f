// internal/repository/mongo/plan_repo.go
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

const planCollectionName = "plans"

// notDeleted is merged into every read filter.
var notDeleted = bson.M{"$ne": true}

// mongoPlanRepository implements repository.PlanRepository
type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new Plan repository.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// Create inserts a new plan.
func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	if plan.CreatorID == primitive.NilObjectID || plan.Title == "" || !plan.Kind.Valid() {
		return primitive.NilObjectID, errors.New("plan requires creatorId, title, and a valid kind")
	}
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted plan ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single plan by its ID.
func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	var plan domain.Plan
	filter := bson.M{"_id": id, "isDeleted": notDeleted}
	err := r.collection.FindOne(ctx, filter).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// GetByIDs retrieves the plans whose ID is in ids, including soft-deleted ones,
// so that historical assignments can still show their plan's title.
func (r *mongoPlanRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Plan, error) {
	if len(ids) == 0 {
		return []domain.Plan{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

// ListPublic retrieves every public plan of a kind, newest first.
func (r *mongoPlanRepository) ListPublic(ctx context.Context, kind domain.PlanKind) ([]domain.Plan, error) {
	filter := bson.M{"kind": kind, "isPublic": true, "isDeleted": notDeleted}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

// CountPublic counts the public plans of a kind.
func (r *mongoPlanRepository) CountPublic(ctx context.Context, kind domain.PlanKind) (int64, error) {
	filter := bson.M{"kind": kind, "isPublic": true, "isDeleted": notDeleted}
	return r.collection.CountDocuments(ctx, filter)
}

// ListPublicByCreator retrieves the public plans of a kind created by one professional.
func (r *mongoPlanRepository) ListPublicByCreator(ctx context.Context, creatorID primitive.ObjectID, kind domain.PlanKind) ([]domain.Plan, error) {
	filter := bson.M{"creatorId": creatorID, "kind": kind, "isPublic": true, "isDeleted": notDeleted}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *mongoPlanRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Plan, error) {
	var plans []domain.Plan
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

// Update applies a patch: only the fields present in it are $set.
func (r *mongoPlanRepository) Update(ctx context.Context, id primitive.ObjectID, patch domain.PlanPatch) error {
	if id == primitive.NilObjectID {
		return errors.New("plan ID is required for update")
	}

	fields := patch.Fields()
	fields["updatedAt"] = time.Now().UTC()

	filter := bson.M{"_id": id, "isDeleted": notDeleted}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SoftDelete flags the plan as deleted. Assignments referencing it are left untouched.
func (r *mongoPlanRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{"_id": id, "isDeleted": notDeleted}
	update := bson.M{"$set": bson.M{"isDeleted": true, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsurePlanIndexes creates necessary indexes. Call during startup.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// Public catalogue listing and count
			Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "isPublic", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "creatorId", Value: 1}, {Key: "kind", Value: 1}},
			Options: options.Index(),
		},
	})
}
