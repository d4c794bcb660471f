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

const planImageCollectionName = "plan_images"

// mongoPlanImageRepository implements repository.PlanImageRepository
type mongoPlanImageRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanImageRepository creates a new PlanImage repository backed by MongoDB.
func NewMongoPlanImageRepository(db *mongo.Database) repository.PlanImageRepository {
	return &mongoPlanImageRepository{
		collection: db.Collection(planImageCollectionName),
	}
}

// Create inserts new image metadata into the database.
func (r *mongoPlanImageRepository) Create(ctx context.Context, image *domain.PlanImage) (primitive.ObjectID, error) {
	if image.PlanID == primitive.NilObjectID ||
		image.UploaderID == primitive.NilObjectID ||
		image.S3ObjectKey == "" {
		return primitive.NilObjectID, errors.New("plan image requires planId, uploaderId, and s3ObjectKey")
	}

	image.ID = primitive.NewObjectID()
	image.UploadedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, image)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves image metadata by its ID.
func (r *mongoPlanImageRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PlanImage, error) {
	var image domain.PlanImage
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&image)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &image, nil
}

// GetByPlanID retrieves every image attached to a plan, oldest first.
func (r *mongoPlanImageRepository) GetByPlanID(ctx context.Context, planID primitive.ObjectID) ([]domain.PlanImage, error) {
	var images []domain.PlanImage
	findOptions := options.Find().SetSort(bson.D{{Key: "uploadedAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"planId": planID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &images); err != nil {
		return nil, err
	}
	return images, nil
}

// Delete removes image metadata. Call after the S3 object is gone.
func (r *mongoPlanImageRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsurePlanImageIndexes creates necessary indexes for the plan_images collection.
func EnsurePlanImageIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "uploadedAt", Value: 1}},
			Options: options.Index(),
		},
		{
			// A confirmed object key maps to exactly one metadata record
			Keys:    bson.D{{Key: "s3ObjectKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
}
