package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitcoach/coach-app/internal/domain"
	"fitcoach/coach-app/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrWorkoutNotFound        = errors.New("workout template not found")
	ErrWorkoutAccessDenied    = errors.New("workout template belongs to another trainer")
	ErrAssignmentNotFound     = errors.New("workout assignment not found")
	ErrAssignmentAccessDenied = errors.New("this workout is not assigned to you")
	ErrExerciseValidation     = errors.New("each exercise needs a name, at least one set, and a reps specification")
	ErrNoExercises            = errors.New("a workout template needs at least one exercise")
	ErrExerciseIndexRange     = errors.New("exercise index is out of range")
	ErrInvalidStatus          = errors.New("invalid assignment status")
)

// TemplateInput carries the writable fields of a workout template.
type TemplateInput struct {
	Title             string
	Description       string
	Difficulty        domain.FitnessLevel
	EstimatedDuration int
	Exercises         []domain.TemplateExercise
}

// ProgressInput carries one per-exercise progress update. A nil Completed
// means "mark completed".
type ProgressInput struct {
	ExerciseIndex int
	Completed     *bool
	ActualSets    int
	ActualReps    string
	Notes         string
}

// --- Service Interface ---

// WorkoutService manages workout templates and the assignment engine built
// on top of them.
type WorkoutService interface {
	CreateTemplate(ctx context.Context, ptID primitive.ObjectID, input TemplateInput) (*domain.WorkoutTemplate, error)
	UpdateTemplate(ctx context.Context, ptID, templateID primitive.ObjectID, input TemplateInput) (*domain.WorkoutTemplate, error)
	ListTemplates(ctx context.Context, ptID primitive.ObjectID) ([]domain.WorkoutTemplate, error)
	DeleteTemplate(ctx context.Context, ptID, templateID primitive.ObjectID) error

	Assign(ctx context.Context, ptID, templateID, traineeID primitive.ObjectID, dueDate *time.Time, ptNotes string) (*domain.WorkoutAssignment, error)
	TraineeAssignments(ctx context.Context, traineeID primitive.ObjectID, status *domain.AssignmentStatus) ([]domain.WorkoutAssignment, error)
	GetAssignment(ctx context.Context, callerID, assignmentID primitive.ObjectID) (*domain.WorkoutAssignment, error)
	MarkExerciseProgress(ctx context.Context, traineeID, assignmentID primitive.ObjectID, input ProgressInput) (*domain.WorkoutAssignment, error)
	UpdateAssignment(ctx context.Context, traineeID, assignmentID primitive.ObjectID, status *domain.AssignmentStatus, traineeNotes *string) (*domain.WorkoutAssignment, error)
}

// workoutService implements the WorkoutService interface.
type workoutService struct {
	userRepo       repository.UserRepository
	workoutRepo    repository.WorkoutRepository
	assignmentRepo repository.AssignmentRepository
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(
	userRepo repository.UserRepository,
	workoutRepo repository.WorkoutRepository,
	assignmentRepo repository.AssignmentRepository,
) WorkoutService {
	return &workoutService{
		userRepo:       userRepo,
		workoutRepo:    workoutRepo,
		assignmentRepo: assignmentRepo,
	}
}

// CreateTemplate validates and stores a new workout template owned by the PT.
func (s *workoutService) CreateTemplate(ctx context.Context, ptID primitive.ObjectID, input TemplateInput) (*domain.WorkoutTemplate, error) {
	pt, err := s.requireUser(ctx, ptID)
	if err != nil {
		return nil, err
	}
	if !pt.IsPT() {
		return nil, ErrNotPersonalTrainer
	}
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrExerciseValidation)
	}
	if err := validateExercises(input.Exercises); err != nil {
		return nil, err
	}

	workout := &domain.WorkoutTemplate{
		Title:             input.Title,
		Description:       input.Description,
		Difficulty:        input.Difficulty,
		EstimatedDuration: input.EstimatedDuration,
		Exercises:         input.Exercises,
		CreatedBy:         ptID,
	}

	workoutID, err := s.workoutRepo.Create(ctx, workout)
	if err != nil {
		return nil, err
	}
	workout.ID = workoutID
	return workout, nil
}

// UpdateTemplate applies a patch to an owned template. Exercises are
// re-validated when the patch includes them.
func (s *workoutService) UpdateTemplate(ctx context.Context, ptID, templateID primitive.ObjectID, input TemplateInput) (*domain.WorkoutTemplate, error) {
	workout, err := s.requireOwnedTemplate(ctx, ptID, templateID)
	if err != nil {
		return nil, err
	}

	if input.Title != "" {
		workout.Title = input.Title
	}
	if input.Description != "" {
		workout.Description = input.Description
	}
	if input.Difficulty != "" {
		workout.Difficulty = input.Difficulty
	}
	if input.EstimatedDuration > 0 {
		workout.EstimatedDuration = input.EstimatedDuration
	}
	if input.Exercises != nil {
		if err := validateExercises(input.Exercises); err != nil {
			return nil, err
		}
		workout.Exercises = input.Exercises
	}

	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return workout, nil
}

// ListTemplates returns the PT's templates, newest first.
func (s *workoutService) ListTemplates(ctx context.Context, ptID primitive.ObjectID) ([]domain.WorkoutTemplate, error) {
	return s.workoutRepo.GetByCreator(ctx, ptID)
}

// DeleteTemplate removes an owned template and every assignment referencing
// it, as one logical unit of sequential deletes. The store is single-node,
// so there is no distributed transaction to lean on; assignments go first so
// a failure cannot leave assignments pointing at a deleted template.
func (s *workoutService) DeleteTemplate(ctx context.Context, ptID, templateID primitive.ObjectID) error {
	if _, err := s.requireOwnedTemplate(ctx, ptID, templateID); err != nil {
		return err
	}

	deleted, err := s.assignmentRepo.DeleteByWorkoutID(ctx, templateID)
	if err != nil {
		return err
	}
	if err := s.workoutRepo.Delete(ctx, templateID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWorkoutNotFound
		}
		return err
	}

	logrus.WithFields(logrus.Fields{
		"workoutId":   templateID.Hex(),
		"assignments": deleted,
	}).Info("deleted workout template with cascade")
	return nil
}

// Assign instantiates a template for a supervised trainee, snapshotting one
// progress slot per exercise. The snapshot is frozen: later template edits
// do not change existing assignments.
func (s *workoutService) Assign(ctx context.Context, ptID, templateID, traineeID primitive.ObjectID, dueDate *time.Time, ptNotes string) (*domain.WorkoutAssignment, error) {
	pt, err := s.requireUser(ctx, ptID)
	if err != nil {
		return nil, err
	}
	if !pt.IsPT() {
		return nil, ErrNotPersonalTrainer
	}

	trainee, err := s.requireUser(ctx, traineeID)
	if err != nil {
		return nil, err
	}
	if !trainee.IsTrainee() {
		return nil, ErrNotTrainee
	}
	if !pt.Supervises(traineeID) {
		return nil, ErrNotSupervised
	}

	workout, err := s.requireOwnedTemplate(ctx, ptID, templateID)
	if err != nil {
		return nil, err
	}

	assignment := &domain.WorkoutAssignment{
		WorkoutID:    templateID,
		AssignedTo:   traineeID,
		AssignedBy:   ptID,
		AssignedDate: time.Now().UTC(),
		DueDate:      dueDate,
		Status:       domain.StatusAssigned,
		Progress:     domain.NewProgressSnapshot(len(workout.Exercises)),
		PTNotes:      ptNotes,
	}

	assignmentID, err := s.assignmentRepo.Create(ctx, assignment)
	if err != nil {
		return nil, err
	}
	assignment.ID = assignmentID
	return assignment, nil
}

// TraineeAssignments lists a trainee's assignments, optionally filtered by
// status.
func (s *workoutService) TraineeAssignments(ctx context.Context, traineeID primitive.ObjectID, status *domain.AssignmentStatus) ([]domain.WorkoutAssignment, error) {
	if status != nil && !domain.ValidStatus(*status) {
		return nil, ErrInvalidStatus
	}
	return s.assignmentRepo.GetByTrainee(ctx, traineeID, status)
}

// GetAssignment returns one assignment, visible only to the assigned trainee
// and the assigning PT.
func (s *workoutService) GetAssignment(ctx context.Context, callerID, assignmentID primitive.ObjectID) (*domain.WorkoutAssignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	if assignment.AssignedTo != callerID && assignment.AssignedBy != callerID {
		return nil, ErrAssignmentAccessDenied
	}
	return assignment, nil
}

// MarkExerciseProgress overwrites one progress slot and re-derives the
// aggregate status. The status is derived from the post-update document the
// store hands back, not from any pre-write copy, so concurrent updates to
// other slots are observed. A skipped assignment keeps its status.
func (s *workoutService) MarkExerciseProgress(ctx context.Context, traineeID, assignmentID primitive.ObjectID, input ProgressInput) (*domain.WorkoutAssignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	if assignment.AssignedTo != traineeID {
		return nil, ErrAssignmentAccessDenied
	}
	if input.ExerciseIndex < 0 || input.ExerciseIndex >= len(assignment.Progress) {
		return nil, ErrExerciseIndexRange
	}

	now := time.Now().UTC()
	completed := true
	if input.Completed != nil {
		completed = *input.Completed
	}
	entry := domain.ExerciseProgress{
		ExerciseIndex: input.ExerciseIndex,
		Completed:     completed,
		ActualSets:    input.ActualSets,
		ActualReps:    input.ActualReps,
		Notes:         input.Notes,
	}
	if completed {
		entry.CompletedAt = &now
	}

	updated, err := s.assignmentRepo.SetExerciseProgress(ctx, assignmentID, entry)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	if updated.RecomputeStatus(now) || updated.Status == domain.StatusCompleted {
		if err := s.assignmentRepo.SetDerivedStatus(ctx, assignmentID, updated.Status, updated.CompletedAt, updated.Progress); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// UpdateAssignment is the explicit status/notes path. Setting skipped is a
// sticky override that survives later progress edits; any other explicit
// status is advisory only and the next progress edit re-derives it.
func (s *workoutService) UpdateAssignment(ctx context.Context, traineeID, assignmentID primitive.ObjectID, status *domain.AssignmentStatus, traineeNotes *string) (*domain.WorkoutAssignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	if assignment.AssignedTo != traineeID {
		return nil, ErrAssignmentAccessDenied
	}

	var completedAt *time.Time
	if status != nil {
		if !domain.ValidStatus(*status) {
			return nil, ErrInvalidStatus
		}
		if *status == domain.StatusCompleted && assignment.CompletedAt == nil {
			now := time.Now().UTC()
			completedAt = &now
		}
	}

	if err := s.assignmentRepo.SetStatus(ctx, assignmentID, status, traineeNotes, completedAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	return s.assignmentRepo.GetByID(ctx, assignmentID)
}

func validateExercises(exercises []domain.TemplateExercise) error {
	if len(exercises) == 0 {
		return ErrNoExercises
	}
	for i, ex := range exercises {
		if ex.Name == "" || ex.Sets < 1 || ex.Reps == "" {
			return fmt.Errorf("%w (exercise %d)", ErrExerciseValidation, i+1)
		}
	}
	return nil
}

func (s *workoutService) requireUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *workoutService) requireOwnedTemplate(ctx context.Context, ptID, templateID primitive.ObjectID) (*domain.WorkoutTemplate, error) {
	workout, err := s.workoutRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	if workout.CreatedBy != ptID {
		return nil, ErrWorkoutAccessDenied
	}
	return workout, nil
}
