package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitcoach/coach-app/internal/domain"
	"fitcoach/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const assignmentCollectionName = "workout_assignments"

// mongoAssignmentRepository implements repository.AssignmentRepository using MongoDB.
type mongoAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAssignmentRepository creates a new instance of mongoAssignmentRepository.
func NewMongoAssignmentRepository(db *mongo.Database) repository.AssignmentRepository {
	return &mongoAssignmentRepository{
		collection: db.Collection(assignmentCollectionName),
	}
}

// Create inserts a new workout assignment.
func (r *mongoAssignmentRepository) Create(ctx context.Context, assignment *domain.WorkoutAssignment) (primitive.ObjectID, error) {
	assignment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	if assignment.AssignedDate.IsZero() {
		assignment.AssignedDate = now
	}

	result, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves an assignment by ID.
func (r *mongoAssignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutAssignment, error) {
	var assignment domain.WorkoutAssignment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// GetByTrainee retrieves a trainee's assignments, newest first, optionally
// filtered by status.
func (r *mongoAssignmentRepository) GetByTrainee(ctx context.Context, traineeID primitive.ObjectID, status *domain.AssignmentStatus) ([]domain.WorkoutAssignment, error) {
	filter := bson.M{"assignedTo": traineeID}
	if status != nil {
		filter["status"] = *status
	}

	opts := options.Find().SetSort(bson.D{{Key: "assignedDate", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assignments []domain.WorkoutAssignment
	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// GetByAssigner retrieves all assignments created by a PT, newest first.
func (r *mongoAssignmentRepository) GetByAssigner(ctx context.Context, ptID primitive.ObjectID) ([]domain.WorkoutAssignment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "assignedDate", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"assignedBy": ptID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var assignments []domain.WorkoutAssignment
	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, err
	}
	return assignments, nil
}

// SetExerciseProgress overwrites one progress slot and returns the updated
// document. Writing a single array index means concurrent calls for
// different indices never clobber each other, and the caller derives the
// aggregate status from the returned post-image rather than any stale copy.
func (r *mongoAssignmentRepository) SetExerciseProgress(ctx context.Context, id primitive.ObjectID, entry domain.ExerciseProgress) (*domain.WorkoutAssignment, error) {
	field := fmt.Sprintf("progress.%d", entry.ExerciseIndex)
	filter := bson.M{
		"_id": id,
		// Guard against writing past the snapshot length.
		field + ".exerciseIndex": entry.ExerciseIndex,
	}
	update := bson.M{"$set": bson.M{
		field:       entry,
		"updatedAt": time.Now().UTC(),
	}}

	var assignment domain.WorkoutAssignment
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// SetDerivedStatus writes a re-derived aggregate status. Skipped documents
// are excluded by the filter so the explicit override stays sticky, and the
// stored progress array must still equal the post-image the status was
// derived from. If a concurrent SetExerciseProgress landed in between, the
// filter misses and this stale derivation is dropped; the concurrent writer
// derives from its own post-image and writes the status that matches it.
func (r *mongoAssignmentRepository) SetDerivedStatus(ctx context.Context, id primitive.ObjectID, status domain.AssignmentStatus, completedAt *time.Time, derivedFrom []domain.ExerciseProgress) error {
	filter := bson.M{
		"_id":      id,
		"status":   bson.M{"$ne": domain.StatusSkipped},
		"progress": derivedFrom,
	}

	set := bson.M{
		"status":    status,
		"updatedAt": time.Now().UTC(),
	}
	if completedAt != nil {
		set["completedAt"] = *completedAt
	}

	_, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	return err
}

// SetStatus is the explicit update path for status overrides and trainee notes.
func (r *mongoAssignmentRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status *domain.AssignmentStatus, traineeNotes *string, completedAt *time.Time) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if status != nil {
		set["status"] = *status
	}
	if traineeNotes != nil {
		set["traineeNotes"] = *traineeNotes
	}
	if completedAt != nil {
		set["completedAt"] = *completedAt
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteByWorkoutID removes every assignment referencing the given template.
func (r *mongoAssignmentRepository) DeleteByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"workoutId": workoutID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// DeleteByUser removes every assignment the user appears in, as assignee or
// assigner.
func (r *mongoAssignmentRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	filter := bson.M{"$or": []bson.M{
		{"assignedTo": userID},
		{"assignedBy": userID},
	}}
	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// EnsureAssignmentIndexes creates necessary indexes for the assignments
// collection. The collection is resolved here so the indexes always land
// where the repository reads and writes.
func EnsureAssignmentIndexes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection(assignmentCollectionName)
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "assignedTo", Value: 1}, {Key: "assignedDate", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "assignedBy", Value: 1}, {Key: "assignedDate", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "workoutId", Value: 1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
