package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentStatus type for assignment lifecycle
type AssignmentStatus string

const (
	StatusAssigned   AssignmentStatus = "assigned"
	StatusInProgress AssignmentStatus = "in_progress"
	StatusCompleted  AssignmentStatus = "completed"
	StatusSkipped    AssignmentStatus = "skipped" // Explicit override, never derived
)

// ValidStatus reports whether s is one of the known assignment statuses.
func ValidStatus(s AssignmentStatus) bool {
	switch s {
	case StatusAssigned, StatusInProgress, StatusCompleted, StatusSkipped:
		return true
	}
	return false
}

// ExerciseProgress is the per-exercise completion record inside an
// assignment. One entry exists per template exercise, indexed by position.
type ExerciseProgress struct {
	ExerciseIndex int        `bson:"exerciseIndex" json:"exerciseIndex"`
	Completed     bool       `bson:"completed" json:"completed"`
	CompletedAt   *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	ActualSets    int        `bson:"actualSets,omitempty" json:"actualSets,omitempty"`
	ActualReps    string     `bson:"actualReps,omitempty" json:"actualReps,omitempty"`
	Notes         string     `bson:"notes,omitempty" json:"notes,omitempty"`
}

// WorkoutAssignment is an instance of a template given to a trainee by a PT.
// The progress slice is snapshotted at creation to the template's exercise
// count and is not recomputed if the template later changes.
type WorkoutAssignment struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutID    primitive.ObjectID `bson:"workoutId" json:"workoutId"`   // Template being assigned
	AssignedTo   primitive.ObjectID `bson:"assignedTo" json:"assignedTo"` // Trainee
	AssignedBy   primitive.ObjectID `bson:"assignedBy" json:"assignedBy"` // PT, denormalized for queries/auth
	AssignedDate time.Time          `bson:"assignedDate" json:"assignedDate"`
	DueDate      *time.Time         `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	Status       AssignmentStatus   `bson:"status" json:"status"`
	Progress     []ExerciseProgress `bson:"progress" json:"progress"`
	CompletedAt  *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	TraineeNotes string             `bson:"traineeNotes,omitempty" json:"traineeNotes,omitempty"`
	PTNotes      string             `bson:"ptNotes,omitempty" json:"ptNotes,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewProgressSnapshot builds one zero-valued progress entry per exercise.
func NewProgressSnapshot(exerciseCount int) []ExerciseProgress {
	progress := make([]ExerciseProgress, exerciseCount)
	for i := range progress {
		progress[i] = ExerciseProgress{ExerciseIndex: i}
	}
	return progress
}

// DeriveStatus computes the aggregate status from the progress entries:
// no exercise completed means assigned, some completed means in_progress,
// all completed means completed. Skipped is never derived.
func DeriveStatus(progress []ExerciseProgress) AssignmentStatus {
	completed := 0
	for _, p := range progress {
		if p.Completed {
			completed++
		}
	}
	switch {
	case completed == 0:
		return StatusAssigned
	case completed == len(progress):
		return StatusCompleted
	default:
		return StatusInProgress
	}
}

// RecomputeStatus re-derives the aggregate status from the progress entries
// and updates CompletedAt accordingly. Skipped is a sticky explicit override:
// a skipped assignment keeps its status until an explicit status change, so
// re-derivation leaves it alone. Returns true if the status changed.
func (a *WorkoutAssignment) RecomputeStatus(now time.Time) bool {
	if a.Status == StatusSkipped {
		return false
	}
	derived := DeriveStatus(a.Progress)
	if derived == StatusCompleted && a.CompletedAt == nil {
		a.CompletedAt = &now
	}
	if derived == a.Status {
		return false
	}
	a.Status = derived
	return true
}
