package repository

import (
	"context"
	"time"

	"fitcoach/coach-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrConflict     = RepositoryError("conflict")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data,
// including the embedded trainee-request history and supervision links.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	SetProfilePicture(ctx context.Context, id primitive.ObjectID, pictureURL string) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// Supervision list maintenance. Each call is a single atomic
	// per-document update.
	AddTraineeToPT(ctx context.Context, ptID, traineeID primitive.ObjectID) error
	RemoveTraineeFromPT(ctx context.Context, ptID, traineeID primitive.ObjectID) error
	SetPersonalTrainer(ctx context.Context, traineeID, ptID primitive.ObjectID) error
	// ClearPersonalTrainer unsets the trainee's PT reference only when it
	// currently equals ptID.
	ClearPersonalTrainer(ctx context.Context, traineeID, ptID primitive.ObjectID) error
	// RemoveTraineeEverywhere pulls the trainee from every PT's supervision
	// list (cascade support for user deletion).
	RemoveTraineeEverywhere(ctx context.Context, traineeID primitive.ObjectID) error
	// ClearTrainerEverywhere unsets the PT reference on every trainee that
	// points at ptID (cascade support for user deletion).
	ClearTrainerEverywhere(ctx context.Context, ptID primitive.ObjectID) error

	// AppendTraineeRequest pushes a new pending request onto the PT's
	// request list. Fails with ErrConflict when a pending request from the
	// same trainee already exists; the existence guard is part of the write
	// predicate so two concurrent submissions cannot both land.
	AppendTraineeRequest(ctx context.Context, ptID primitive.ObjectID, req domain.TraineeRequest) error
	// ResolveTraineeRequest transitions the identified request out of
	// pending. The status=pending match is part of the write predicate, so
	// at most one resolution can ever succeed; a second call fails with
	// ErrNotFound. Returns the resolved request.
	ResolveTraineeRequest(ctx context.Context, ptID, requestID primitive.ObjectID, status domain.RequestStatus, respondedAt time.Time) (*domain.TraineeRequest, error)
}

// WorkoutRepository defines the interface for interacting with workout
// template data.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.WorkoutTemplate) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error)
	// GetByCreator returns the PT's templates, newest first.
	GetByCreator(ctx context.Context, ptID primitive.ObjectID) ([]domain.WorkoutTemplate, error)
	Update(ctx context.Context, workout *domain.WorkoutTemplate) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByCreator(ctx context.Context, ptID primitive.ObjectID) (int64, error)
}

// AssignmentRepository defines the interface for interacting with workout
// assignment data.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.WorkoutAssignment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutAssignment, error)
	// GetByTrainee returns the trainee's assignments, newest first,
	// optionally filtered by status.
	GetByTrainee(ctx context.Context, traineeID primitive.ObjectID, status *domain.AssignmentStatus) ([]domain.WorkoutAssignment, error)
	GetByAssigner(ctx context.Context, ptID primitive.ObjectID) ([]domain.WorkoutAssignment, error)

	// SetExerciseProgress overwrites a single progress slot and returns the
	// post-update document. Targeting one array index keeps concurrent
	// writes to different indices from losing either update, and the
	// returned post-image is what status re-derivation must read.
	SetExerciseProgress(ctx context.Context, id primitive.ObjectID, entry domain.ExerciseProgress) (*domain.WorkoutAssignment, error)
	// SetDerivedStatus writes a re-derived status. The write predicate
	// excludes skipped assignments so the sticky override survives
	// concurrent progress edits, and requires the progress array to still
	// equal derivedFrom (the post-image the status was computed from): a
	// derivation racing a newer progress write is dropped rather than
	// overwriting the newer writer's status.
	SetDerivedStatus(ctx context.Context, id primitive.ObjectID, status domain.AssignmentStatus, completedAt *time.Time, derivedFrom []domain.ExerciseProgress) error
	// SetStatus is the explicit path (skip/un-skip, advisory statuses,
	// trainee notes).
	SetStatus(ctx context.Context, id primitive.ObjectID, status *domain.AssignmentStatus, traineeNotes *string, completedAt *time.Time) error

	DeleteByWorkoutID(ctx context.Context, workoutID primitive.ObjectID) (int64, error)
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
}
