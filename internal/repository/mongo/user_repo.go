package mongo

import (
	"context"
	"errors"
	"time"

	"fitcoach/coach-app/internal/domain"
	"fitcoach/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCollectionName = "users"

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
// It expects a connected *mongo.Database instance.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// Create inserts a new user into the database.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, password hash, and role are required")
	}

	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		// Unique index on email turns a duplicate registration into a conflict.
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrConflict
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByEmail retrieves a user by their email address.
func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by their MongoDB ObjectID.
func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var user domain.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByRole retrieves all users with the given role.
func (r *mongoUserRepository) GetByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"role": role})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []domain.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetByIDs retrieves all users whose ID is in the given list.
func (r *mongoUserRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []domain.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetProfilePicture stores the opaque picture URL on the user.
func (r *mongoUserRepository) SetProfilePicture(ctx context.Context, id primitive.ObjectID, pictureURL string) error {
	update := bson.M{"$set": bson.M{
		"profilePicture": pictureURL,
		"updatedAt":      time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the user document.
func (r *mongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddTraineeToPT adds a trainee's ID to a PT's supervision list.
// $addToSet keeps the list duplicate-free.
func (r *mongoUserRepository) AddTraineeToPT(ctx context.Context, ptID, traineeID primitive.ObjectID) error {
	filter := bson.M{"_id": ptID, "role": domain.RolePT}
	update := bson.M{
		"$addToSet": bson.M{"trainees": traineeID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
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

// RemoveTraineeFromPT pulls a trainee from a PT's supervision list. The
// membership check is part of the write predicate, so removing a trainee
// who is not supervised reports not found.
func (r *mongoUserRepository) RemoveTraineeFromPT(ctx context.Context, ptID, traineeID primitive.ObjectID) error {
	filter := bson.M{"_id": ptID, "role": domain.RolePT, "trainees": traineeID}
	update := bson.M{
		"$pull": bson.M{"trainees": traineeID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
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

// SetPersonalTrainer sets the PT reference for a specific trainee user.
func (r *mongoUserRepository) SetPersonalTrainer(ctx context.Context, traineeID, ptID primitive.ObjectID) error {
	filter := bson.M{"_id": traineeID, "role": domain.RoleTrainee}
	update := bson.M{"$set": bson.M{
		"personalTrainer": ptID,
		"updatedAt":       time.Now().UTC(),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ClearPersonalTrainer unsets the trainee's PT reference, but only when it
// currently points at ptID.
func (r *mongoUserRepository) ClearPersonalTrainer(ctx context.Context, traineeID, ptID primitive.ObjectID) error {
	filter := bson.M{"_id": traineeID, "personalTrainer": ptID}
	update := bson.M{
		"$unset": bson.M{"personalTrainer": 1},
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
	}

	// Zero matches here is fine: the trainee either switched PT already or
	// never had one.
	_, err := r.collection.UpdateOne(ctx, filter, update)
	return err
}

// RemoveTraineeEverywhere pulls the trainee from every PT's supervision list.
func (r *mongoUserRepository) RemoveTraineeEverywhere(ctx context.Context, traineeID primitive.ObjectID) error {
	filter := bson.M{"role": domain.RolePT, "trainees": traineeID}
	update := bson.M{
		"$pull": bson.M{"trainees": traineeID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

// ClearTrainerEverywhere unsets the PT reference on every trainee pointing at ptID.
func (r *mongoUserRepository) ClearTrainerEverywhere(ctx context.Context, ptID primitive.ObjectID) error {
	filter := bson.M{"personalTrainer": ptID}
	update := bson.M{
		"$unset": bson.M{"personalTrainer": 1},
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
	}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

// AppendTraineeRequest pushes a new pending request onto the PT's request
// list. The filter excludes documents that already hold a pending request
// from the same trainee, making the no-duplicate-pending rule part of the
// single atomic write.
func (r *mongoUserRepository) AppendTraineeRequest(ctx context.Context, ptID primitive.ObjectID, req domain.TraineeRequest) error {
	filter := bson.M{
		"_id":  ptID,
		"role": domain.RolePT,
		"traineeRequests": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"traineeId": req.TraineeID,
			"status":    domain.RequestPending,
		}}},
	}
	update := bson.M{
		"$push": bson.M{"traineeRequests": req},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// The PT exists (callers verify first), so the only way to miss is a
		// pending request already being there.
		return repository.ErrConflict
	}
	return nil
}

// ResolveTraineeRequest transitions the identified request out of pending.
// Matching on status=pending inside $elemMatch makes the transition
// conditional: once resolved, a second resolution matches nothing.
func (r *mongoUserRepository) ResolveTraineeRequest(ctx context.Context, ptID, requestID primitive.ObjectID, status domain.RequestStatus, respondedAt time.Time) (*domain.TraineeRequest, error) {
	filter := bson.M{
		"_id": ptID,
		"traineeRequests": bson.M{"$elemMatch": bson.M{
			"_id":    requestID,
			"status": domain.RequestPending,
		}},
	}
	update := bson.M{"$set": bson.M{
		"traineeRequests.$.status":       status,
		"traineeRequests.$.responseDate": respondedAt,
		"updatedAt":                      time.Now().UTC(),
	}}

	var pt domain.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&pt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	for i := range pt.TraineeRequests {
		if pt.TraineeRequests[i].ID == requestID {
			return &pt.TraineeRequests[i], nil
		}
	}
	// The update matched, so the request has to be in the returned document.
	return nil, repository.ErrUpdateFailed
}

// EnsureUserIndexes creates necessary indexes for the users collection.
// Call this once during application startup. The collection is resolved here
// so the indexes always land where the repository reads and writes.
func EnsureUserIndexes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection(userCollectionName)
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "personalTrainer", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
