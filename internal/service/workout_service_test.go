package service

import (
	"context"
	"testing"
	"time"

	"fitcoach/coach-app/internal/domain"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type workoutFixture struct {
	svc            WorkoutService
	userRepo       *memUserRepo
	workoutRepo    *memWorkoutRepo
	assignmentRepo *memAssignmentRepo
	pt             domain.User
	trainee        domain.User
}

// newWorkoutFixture seeds a PT already supervising one trainee.
func newWorkoutFixture(t *testing.T) *workoutFixture {
	t.Helper()
	userRepo := newMemUserRepo()
	workoutRepo := newMemWorkoutRepo()
	assignmentRepo := newMemAssignmentRepo()

	pt := newTestPT()
	trainee := newTestTrainee("trainee@example.com")
	pt.Trainees = []primitive.ObjectID{trainee.ID}
	trainee.PersonalTrainer = &pt.ID
	userRepo.seed(pt)
	userRepo.seed(trainee)

	return &workoutFixture{
		svc:            NewWorkoutService(userRepo, workoutRepo, assignmentRepo),
		userRepo:       userRepo,
		workoutRepo:    workoutRepo,
		assignmentRepo: assignmentRepo,
		pt:             pt,
		trainee:        trainee,
	}
}

func benchPressTemplate() TemplateInput {
	return TemplateInput{
		Title:             "Push Day",
		Description:       "Chest and triceps",
		Difficulty:        domain.LevelIntermediate,
		EstimatedDuration: 60,
		Exercises: []domain.TemplateExercise{
			{Name: "Bench Press", Sets: 4, Reps: "8-10"},
			{Name: "Overhead Press", Sets: 3, Reps: "10"},
			{Name: "Dips", Sets: 3, Reps: "to failure"},
		},
	}
}

func (f *workoutFixture) assign(t *testing.T) *domain.WorkoutAssignment {
	t.Helper()
	ctx := context.Background()
	workout, err := f.svc.CreateTemplate(ctx, f.pt.ID, benchPressTemplate())
	require.NoError(t, err)
	assignment, err := f.svc.Assign(ctx, f.pt.ID, workout.ID, f.trainee.ID, nil, "Focus on form")
	require.NoError(t, err)
	return assignment
}

func TestCreateTemplateValidation(t *testing.T) {
	ctx := context.Background()
	f := newWorkoutFixture(t)

	workout, err := f.svc.CreateTemplate(ctx, f.pt.ID, benchPressTemplate())
	require.NoError(t, err)
	require.False(t, workout.ID.IsZero())
	require.Equal(t, f.pt.ID, workout.CreatedBy)
	require.Len(t, workout.Exercises, 3)

	_, err = f.svc.CreateTemplate(ctx, f.pt.ID, TemplateInput{Title: "Empty"})
	require.ErrorIs(t, err, ErrNoExercises)

	bad := benchPressTemplate()
	bad.Exercises[1].Sets = 0
	_, err = f.svc.CreateTemplate(ctx, f.pt.ID, bad)
	require.ErrorIs(t, err, ErrExerciseValidation)

	// A trainee cannot author templates.
	_, err = f.svc.CreateTemplate(ctx, f.trainee.ID, benchPressTemplate())
	require.ErrorIs(t, err, ErrNotPersonalTrainer)
}

func TestUpdateTemplateOwnership(t *testing.T) {
	ctx := context.Background()
	f := newWorkoutFixture(t)

	workout, err := f.svc.CreateTemplate(ctx, f.pt.ID, benchPressTemplate())
	require.NoError(t, err)

	otherPT := newTestPT()
	otherPT.Email = "coach2@example.com"
	f.userRepo.seed(otherPT)

	_, err = f.svc.UpdateTemplate(ctx, otherPT.ID, workout.ID, TemplateInput{Title: "Hijacked"})
	require.ErrorIs(t, err, ErrWorkoutAccessDenied)

	updated, err := f.svc.UpdateTemplate(ctx, f.pt.ID, workout.ID, TemplateInput{Title: "Push Day v2"})
	require.NoError(t, err)
	require.Equal(t, "Push Day v2", updated.Title)
	require.Equal(t, "Chest and triceps", updated.Description)
}

func TestAssignSnapshotsProgress(t *testing.T) {
	f := newWorkoutFixture(t)
	assignment := f.assign(t)

	require.Equal(t, domain.StatusAssigned, assignment.Status)
	require.Len(t, assignment.Progress, 3)
	for i, p := range assignment.Progress {
		require.Equal(t, i, p.ExerciseIndex)
		require.False(t, p.Completed)
		require.Nil(t, p.CompletedAt)
	}
	require.Nil(t, assignment.CompletedAt)
	require.Equal(t, "Focus on form", assignment.PTNotes)
}

func TestAssignSnapshotFrozenAgainstTemplateEdits(t *testing.T) {
	ctx := context.Background()
	f := newWorkoutFixture(t)
	assignment := f.assign(t)

	// Shrinking the template does not touch existing assignments.
	shrunk := TemplateInput{Exercises: []domain.TemplateExercise{
		{Name: "Bench Press", Sets: 4, Reps: "8-10"},
	}}
	_, err := f.svc.UpdateTemplate(ctx, f.pt.ID, assignment.WorkoutID, shrunk)
	require.NoError(t, err)

	stored, err := f.svc.GetAssignment(ctx, f.trainee.ID, assignment.ID)
	require.NoError(t, err)
	require.Len(t, stored.Progress, 3)
}

func TestAssignRequiresSupervision(t *testing.T) {
	ctx := context.Background()
	f := newWorkoutFixture(t)

	workout, err := f.svc.CreateTemplate(ctx, f.pt.ID, benchPressTemplate())
	require.NoError(t, err)

	stranger := newTestTrainee("stranger@example.com")
	f.userRepo.seed(stranger)

	_, err = f.svc.Assign(ctx, f.pt.ID, workout.ID, stranger.ID, nil, "")
	require.ErrorIs(t, err, ErrNotSupervised)
}

func TestMarkExerciseProgressDerivesStatus(t *testing.T) {
	ctx := context.Background()
	f := newWorkoutFixture(t)
	assignment := f.assign(t)

	// First exercise done: assigned -> in_progress.
	updated, err := f.svc.MarkExerciseProgress(ctx, f.trainee.ID, assignment.ID, ProgressInput{
		ExerciseIndex: 0,
		ActualSets:    4,
		ActualReps:    "10,9,8,8",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusInProgress, updated.Status)
	require.True(t, updated.Progress[0].Completed)
	require.NotNil(t, updated.Progress[0].CompletedAt)
	require.Equal(t, 4, updated.Progress[0].ActualSets)
	require.Nil(t, updated.CompletedAt)

	// Remaining exercises done: -> completed with a completion timestamp.
	_, err = f.svc.MarkExerciseProgress(ctx, f.trainee.ID, assignment.ID, ProgressInput{ExerciseIndex: 1})
	require.NoError(t, err)
	updated, err = f.svc.MarkExerciseProgress(ctx, f.trainee.ID, assignment.ID, ProgressInput{ExerciseIndex: 2})
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)
}

func TestMarkExerciseProgressIdempotentRemark(t *testing.T) {
	ctx := context.Background()
	f := newWorkoutFixture(t)
	assignment := f.assign(t)

	first, err := f.svc.MarkExerciseProgress(ctx, f.trainee.ID, assignment.ID, ProgressInput{ExerciseIndex: 0})
	require.NoError(t, err)
	require.Equal(t, domain.StatusInProgress, first.Status)

	// Re-marking the same slot overwrites it and leaves the status alone.
	again, err := f.svc.MarkExerciseProgress(ctx, f.trainee.ID, assignment.ID, ProgressInput{
		ExerciseIndex: 0,
		Notes:         "felt heavy today",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusInProgress, again.Status)
	require.Equal(t, "felt heavy today", again.Progress[0].Notes)
}

func TestMarkExerciseProgressUnmarkRegresses(t *testing.T) {
	ctx := context.Background()
	f := newWorkoutFixture(t)
	assignment := f.assign(t)

	_, err := f.svc.MarkExerciseProgress(ctx, f.trainee.ID, assignment.ID, ProgressInput{ExerciseIndex: 0})
	require.NoError(t, err)

	notDone := false
	updated, err := f.svc.MarkExerciseProgress(ctx, f.trainee.ID, assignment.ID, ProgressInput{
		ExerciseIndex: 0,
		Completed:     &notDone,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusAssigned, updated.Status)
	require.False(t, updated.Progress[0].Completed)
	require.Nil(t, updated.Progress[0].CompletedAt)
}

func TestMarkExerciseProgressIndexBounds(t *testing.T) {
	ctx := context.Background()
	f := newWorkoutFixture(t)
	assignment := f.assign(t)

	_, err := f.svc.MarkExerciseProgress(ctx, f.trainee.ID, assignment.ID, ProgressInput{ExerciseIndex: -1})
	require.ErrorIs(t, err, ErrExerciseIndexRange)

	_, err = f.svc.MarkExerciseProgress(ctx, f.trainee.ID, assignment.ID, ProgressInput{ExerciseIndex: len(assignment.Progress)})
	require.ErrorIs(t, err, ErrExerciseIndexRange)
}

func TestMarkExerciseProgressAccessControl(t *testing.T) {
	ctx := context.Background()
	f := newWorkoutFixture(t)
	assignment := f.assign(t)

	other := newTestTrainee("other@example.com")
	f.userRepo.seed(other)

	_, err := f.svc.MarkExerciseProgress(ctx, other.ID, assignment.ID, ProgressInput{ExerciseIndex: 0})
	require.ErrorIs(t, err, ErrAssignmentAccessDenied)

	_, err = f.svc.MarkExerciseProgress(ctx, f.trainee.ID, primitive.NewObjectID(), ProgressInput{ExerciseIndex: 0})
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestStaleDerivedStatusWriteIsDropped(t *testing.T) {
	ctx := context.Background()
	f := newWorkoutFixture(t)
	assignment := f.assign(t)
	now := time.Now().UTC()

	// One writer marks exercise 0 and holds on to its post-image without
	// having written its derived status yet.
	first, err := f.assignmentRepo.SetExerciseProgress(ctx, assignment.ID, domain.ExerciseProgress{
		ExerciseIndex: 0,
		Completed:     true,
		CompletedAt:   &now,
	})
	require.NoError(t, err)

	// A concurrent writer finishes the remaining exercises; its derivation
	// lands and the document is completed.
	for i := 1; i < len(assignment.Progress); i++ {
		_, err = f.svc.MarkExerciseProgress(ctx, f.trainee.ID, assignment.ID, ProgressInput{ExerciseIndex: i})
		require.NoError(t, err)
	}
	stored, err := f.assignmentRepo.GetByID(ctx, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, stored.Status)

	// The first writer's derivation arrives last. Its post-image no longer
	// matches the stored progress, so the write is dropped and the status
	// stays consistent with the progress array.
	require.NoError(t, f.assignmentRepo.SetDerivedStatus(ctx, assignment.ID, domain.StatusInProgress, nil, first.Progress))

	stored, err = f.assignmentRepo.GetByID(ctx, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, stored.Status)
	require.Equal(t, stored.Status, domain.DeriveStatus(stored.Progress))
}

func TestSkippedStatusIsSticky(t *testing.T) {
	ctx := context.Background()
	f := newWorkoutFixture(t)
	assignment := f.assign(t)

	skipped := domain.StatusSkipped
	updated, err := f.svc.UpdateAssignment(ctx, f.trainee.ID, assignment.ID, &skipped, nil)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSkipped, updated.Status)

	// Progress edits still record, but re-derivation leaves skipped alone.
	updated, err = f.svc.MarkExerciseProgress(ctx, f.trainee.ID, assignment.ID, ProgressInput{ExerciseIndex: 0})
	require.NoError(t, err)
	require.Equal(t, domain.StatusSkipped, updated.Status)
	require.True(t, updated.Progress[0].Completed)

	// An explicit status change clears the override and the next progress
	// edit derives again.
	inProgress := domain.StatusInProgress
	_, err = f.svc.UpdateAssignment(ctx, f.trainee.ID, assignment.ID, &inProgress, nil)
	require.NoError(t, err)
	updated, err = f.svc.MarkExerciseProgress(ctx, f.trainee.ID, assignment.ID, ProgressInput{ExerciseIndex: 1})
	require.NoError(t, err)
	require.Equal(t, domain.StatusInProgress, updated.Status)
}

func TestUpdateAssignmentExplicitStatusAndNotes(t *testing.T) {
	ctx := context.Background()
	f := newWorkoutFixture(t)
	assignment := f.assign(t)

	completed := domain.StatusCompleted
	notes := "Great session"
	updated, err := f.svc.UpdateAssignment(ctx, f.trainee.ID, assignment.ID, &completed, &notes)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, updated.Status)
	require.Equal(t, "Great session", updated.TraineeNotes)
	require.NotNil(t, updated.CompletedAt)

	bogus := domain.AssignmentStatus("paused")
	_, err = f.svc.UpdateAssignment(ctx, f.trainee.ID, assignment.ID, &bogus, nil)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTraineeAssignmentsStatusFilter(t *testing.T) {
	ctx := context.Background()
	f := newWorkoutFixture(t)
	first := f.assign(t)
	second := f.assign(t)

	_, err := f.svc.MarkExerciseProgress(ctx, f.trainee.ID, second.ID, ProgressInput{ExerciseIndex: 0})
	require.NoError(t, err)

	all, err := f.svc.TraineeAssignments(ctx, f.trainee.ID, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	assigned := domain.StatusAssigned
	onlyAssigned, err := f.svc.TraineeAssignments(ctx, f.trainee.ID, &assigned)
	require.NoError(t, err)
	require.Len(t, onlyAssigned, 1)
	require.Equal(t, first.ID, onlyAssigned[0].ID)

	bogus := domain.AssignmentStatus("paused")
	_, err = f.svc.TraineeAssignments(ctx, f.trainee.ID, &bogus)
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestGetAssignmentVisibility(t *testing.T) {
	ctx := context.Background()
	f := newWorkoutFixture(t)
	assignment := f.assign(t)

	// Both parties of the assignment can read it.
	_, err := f.svc.GetAssignment(ctx, f.trainee.ID, assignment.ID)
	require.NoError(t, err)
	_, err = f.svc.GetAssignment(ctx, f.pt.ID, assignment.ID)
	require.NoError(t, err)

	_, err = f.svc.GetAssignment(ctx, primitive.NewObjectID(), assignment.ID)
	require.ErrorIs(t, err, ErrAssignmentAccessDenied)
}

func TestDeleteTemplateCascadesToAssignments(t *testing.T) {
	ctx := context.Background()
	f := newWorkoutFixture(t)
	assignment := f.assign(t)

	require.NoError(t, f.svc.DeleteTemplate(ctx, f.pt.ID, assignment.WorkoutID))

	_, err := f.svc.GetAssignment(ctx, f.trainee.ID, assignment.ID)
	require.ErrorIs(t, err, ErrAssignmentNotFound)

	templates, err := f.svc.ListTemplates(ctx, f.pt.ID)
	require.NoError(t, err)
	require.Empty(t, templates)
}
