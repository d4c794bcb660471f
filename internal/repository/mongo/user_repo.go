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

const userCollectionName = "users"

// withoutPassword is the projection for every multi-user read.
var withoutPassword = bson.M{"passwordHash": 0}

// mongoUserRepository implements repository.UserRepository.
type mongoUserRepository struct {
	collection *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{collection: db.Collection(userCollectionName)}
}

// Create inserts a user. The unique email index turns a concurrent duplicate into ErrDuplicateKey.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || !user.Role.Valid() {
		return primitive.NilObjectID, errors.New("user needs an email, a password hash and a valid role")
	}

	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
		return primitive.NilObjectID, err
	}
	return user.ID, nil
}

// GetByEmail expects the normalized (lowercase) email.
func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByIDs returns the users found among ids, without password hashes. Unknown IDs are skipped.
func (r *mongoUserRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(withoutPassword))
}

// GetClientsByProfessionalID lists the clients whose professionalId points at the professional,
// sorted by name.
func (r *mongoUserRepository) GetClientsByProfessionalID(ctx context.Context, professionalID primitive.ObjectID) ([]domain.User, error) {
	filter := bson.M{"role": domain.RoleClient, "professionalId": professionalID}
	opts := options.Find().
		SetProjection(withoutPassword).
		SetSort(bson.D{{Key: "name", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *mongoUserRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.User, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []domain.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AddClientToProfessional records the client on the professional's side of the relation.
func (r *mongoUserRepository) AddClientToProfessional(ctx context.Context, professionalID, clientID primitive.ObjectID) error {
	return r.updateOne(ctx,
		bson.M{"_id": professionalID, "role": domain.RoleProfessional},
		bson.M{"$addToSet": bson.M{"clientIds": clientID}},
	)
}

// SetProfessionalForClient records the professional on the client's side of the relation.
func (r *mongoUserRepository) SetProfessionalForClient(ctx context.Context, clientID, professionalID primitive.ObjectID) error {
	return r.updateOne(ctx,
		bson.M{"_id": clientID, "role": domain.RoleClient},
		bson.M{"$set": bson.M{"professionalId": professionalID}},
	)
}

// updateOne applies update to the single user matching filter and bumps updatedAt.
func (r *mongoUserRepository) updateOne(ctx context.Context, filter, update bson.M) error {
	set, _ := update["$set"].(bson.M)
	if set == nil {
		set = bson.M{}
		update["$set"] = set
	}
	set["updatedAt"] = time.Now().UTC()

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureUserIndexes creates the users collection indexes.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Client roster of a professional; sparse because only clients carry professionalId
			Keys:    bson.D{{Key: "professionalId", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
}
