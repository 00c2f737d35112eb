package service

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"

	"fitcoach/coach-app/internal/domain"
	"fitcoach/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repositories for service tests. The conditional writes mirror
// the Mongo implementations: the same guard that is part of the write
// predicate there is checked under the same lock here, so the services see
// identical error behavior.

// --- user repo ---

type memUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[primitive.ObjectID]*domain.User{}}
}

// seed stores the user directly, assigning an ID when missing.
func (r *memUserRepo) seed(u domain.User) primitive.ObjectID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.users[u.ID] = &u
	return u.ID
}

func copyUser(u *domain.User) *domain.User {
	cp := *u
	cp.Trainees = append([]primitive.ObjectID(nil), u.Trainees...)
	cp.TraineeRequests = append([]domain.TraineeRequest(nil), u.TraineeRequests...)
	return &cp
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrConflict
		}
	}
	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = copyUser(user)
	return user.ID, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *memUserRepo) GetByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []domain.User
	for _, u := range r.users {
		if u.Role == role {
			users = append(users, *copyUser(u))
		}
	}
	return users, nil
}

func (r *memUserRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := []domain.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			users = append(users, *copyUser(u))
		}
	}
	return users, nil
}

func (r *memUserRepo) SetProfilePicture(_ context.Context, id primitive.ObjectID, pictureURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.ProfilePicture = pictureURL
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) AddTraineeToPT(_ context.Context, ptID, traineeID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pt, ok := r.users[ptID]
	if !ok || pt.Role != domain.RolePT {
		return repository.ErrNotFound
	}
	for _, id := range pt.Trainees {
		if id == traineeID {
			return nil
		}
	}
	pt.Trainees = append(pt.Trainees, traineeID)
	return nil
}

func (r *memUserRepo) RemoveTraineeFromPT(_ context.Context, ptID, traineeID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pt, ok := r.users[ptID]
	if !ok || pt.Role != domain.RolePT {
		return repository.ErrNotFound
	}
	for i, id := range pt.Trainees {
		if id == traineeID {
			pt.Trainees = append(pt.Trainees[:i], pt.Trainees[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memUserRepo) SetPersonalTrainer(_ context.Context, traineeID, ptID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	trainee, ok := r.users[traineeID]
	if !ok || trainee.Role != domain.RoleTrainee {
		return repository.ErrNotFound
	}
	trainee.PersonalTrainer = &ptID
	return nil
}

func (r *memUserRepo) ClearPersonalTrainer(_ context.Context, traineeID, ptID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	trainee, ok := r.users[traineeID]
	if ok && trainee.PersonalTrainer != nil && *trainee.PersonalTrainer == ptID {
		trainee.PersonalTrainer = nil
	}
	return nil
}

func (r *memUserRepo) RemoveTraineeEverywhere(_ context.Context, traineeID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		for i, id := range u.Trainees {
			if id == traineeID {
				u.Trainees = append(u.Trainees[:i], u.Trainees[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (r *memUserRepo) ClearTrainerEverywhere(_ context.Context, ptID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PersonalTrainer != nil && *u.PersonalTrainer == ptID {
			u.PersonalTrainer = nil
		}
	}
	return nil
}

func (r *memUserRepo) AppendTraineeRequest(_ context.Context, ptID primitive.ObjectID, req domain.TraineeRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pt, ok := r.users[ptID]
	if !ok || pt.Role != domain.RolePT {
		return repository.ErrConflict
	}
	for _, existing := range pt.TraineeRequests {
		if existing.TraineeID == req.TraineeID && existing.Status == domain.RequestPending {
			return repository.ErrConflict
		}
	}
	pt.TraineeRequests = append(pt.TraineeRequests, req)
	return nil
}

func (r *memUserRepo) ResolveTraineeRequest(_ context.Context, ptID, requestID primitive.ObjectID, status domain.RequestStatus, respondedAt time.Time) (*domain.TraineeRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pt, ok := r.users[ptID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for i := range pt.TraineeRequests {
		req := &pt.TraineeRequests[i]
		if req.ID == requestID && req.Status == domain.RequestPending {
			req.Status = status
			req.ResponseDate = &respondedAt
			resolved := *req
			return &resolved, nil
		}
	}
	return nil, repository.ErrNotFound
}

// --- workout repo ---

type memWorkoutRepo struct {
	mu       sync.Mutex
	workouts map[primitive.ObjectID]*domain.WorkoutTemplate
}

func newMemWorkoutRepo() *memWorkoutRepo {
	return &memWorkoutRepo{workouts: map[primitive.ObjectID]*domain.WorkoutTemplate{}}
}

func copyWorkout(w *domain.WorkoutTemplate) *domain.WorkoutTemplate {
	cp := *w
	cp.Exercises = append([]domain.TemplateExercise(nil), w.Exercises...)
	return &cp
}

func (r *memWorkoutRepo) Create(_ context.Context, workout *domain.WorkoutTemplate) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	workout.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now
	r.workouts[workout.ID] = copyWorkout(workout)
	return workout.ID, nil
}

func (r *memWorkoutRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyWorkout(w), nil
}

func (r *memWorkoutRepo) GetByCreator(_ context.Context, ptID primitive.ObjectID) ([]domain.WorkoutTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var workouts []domain.WorkoutTemplate
	for _, w := range r.workouts {
		if w.CreatedBy == ptID {
			workouts = append(workouts, *copyWorkout(w))
		}
	}
	sort.Slice(workouts, func(i, j int) bool {
		return workouts[i].CreatedAt.After(workouts[j].CreatedAt)
	})
	return workouts, nil
}

func (r *memWorkoutRepo) Update(_ context.Context, workout *domain.WorkoutTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.workouts[workout.ID]
	if !ok || existing.CreatedBy != workout.CreatedBy {
		return repository.ErrNotFound
	}
	workout.UpdatedAt = time.Now().UTC()
	r.workouts[workout.ID] = copyWorkout(workout)
	return nil
}

func (r *memWorkoutRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workouts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.workouts, id)
	return nil
}

func (r *memWorkoutRepo) DeleteByCreator(_ context.Context, ptID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, w := range r.workouts {
		if w.CreatedBy == ptID {
			delete(r.workouts, id)
			deleted++
		}
	}
	return deleted, nil
}

// --- assignment repo ---

type memAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[primitive.ObjectID]*domain.WorkoutAssignment
}

func newMemAssignmentRepo() *memAssignmentRepo {
	return &memAssignmentRepo{assignments: map[primitive.ObjectID]*domain.WorkoutAssignment{}}
}

func copyAssignment(a *domain.WorkoutAssignment) *domain.WorkoutAssignment {
	cp := *a
	cp.Progress = append([]domain.ExerciseProgress(nil), a.Progress...)
	return &cp
}

func (r *memAssignmentRepo) Create(_ context.Context, assignment *domain.WorkoutAssignment) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	assignment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	if assignment.AssignedDate.IsZero() {
		assignment.AssignedDate = now
	}
	r.assignments[assignment.ID] = copyAssignment(assignment)
	return assignment.ID, nil
}

func (r *memAssignmentRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.WorkoutAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyAssignment(a), nil
}

func (r *memAssignmentRepo) GetByTrainee(_ context.Context, traineeID primitive.ObjectID, status *domain.AssignmentStatus) ([]domain.WorkoutAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var assignments []domain.WorkoutAssignment
	for _, a := range r.assignments {
		if a.AssignedTo != traineeID {
			continue
		}
		if status != nil && a.Status != *status {
			continue
		}
		assignments = append(assignments, *copyAssignment(a))
	}
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].AssignedDate.After(assignments[j].AssignedDate)
	})
	return assignments, nil
}

func (r *memAssignmentRepo) GetByAssigner(_ context.Context, ptID primitive.ObjectID) ([]domain.WorkoutAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var assignments []domain.WorkoutAssignment
	for _, a := range r.assignments {
		if a.AssignedBy == ptID {
			assignments = append(assignments, *copyAssignment(a))
		}
	}
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].AssignedDate.After(assignments[j].AssignedDate)
	})
	return assignments, nil
}

func (r *memAssignmentRepo) SetExerciseProgress(_ context.Context, id primitive.ObjectID, entry domain.ExerciseProgress) (*domain.WorkoutAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok || entry.ExerciseIndex < 0 || entry.ExerciseIndex >= len(a.Progress) {
		return nil, repository.ErrNotFound
	}
	a.Progress[entry.ExerciseIndex] = entry
	a.UpdatedAt = time.Now().UTC()
	return copyAssignment(a), nil
}

func (r *memAssignmentRepo) SetDerivedStatus(_ context.Context, id primitive.ObjectID, status domain.AssignmentStatus, completedAt *time.Time, derivedFrom []domain.ExerciseProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok || a.Status == domain.StatusSkipped || !reflect.DeepEqual(a.Progress, derivedFrom) {
		return nil
	}
	a.Status = status
	if completedAt != nil {
		a.CompletedAt = completedAt
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memAssignmentRepo) SetStatus(_ context.Context, id primitive.ObjectID, status *domain.AssignmentStatus, traineeNotes *string, completedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if status != nil {
		a.Status = *status
	}
	if traineeNotes != nil {
		a.TraineeNotes = *traineeNotes
	}
	if completedAt != nil {
		a.CompletedAt = completedAt
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memAssignmentRepo) DeleteByWorkoutID(_ context.Context, workoutID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, a := range r.assignments {
		if a.WorkoutID == workoutID {
			delete(r.assignments, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memAssignmentRepo) DeleteByUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, a := range r.assignments {
		if a.AssignedTo == userID || a.AssignedBy == userID {
			delete(r.assignments, id)
			deleted++
		}
	}
	return deleted, nil
}

// --- test fixtures ---

func newTestPT() domain.User {
	return domain.User{
		ID:        primitive.NewObjectID(),
		Email:     "coach@example.com",
		FirstName: "Pat",
		LastName:  "Trainer",
		Role:      domain.RolePT,
		Coach: &domain.CoachProfile{
			Bio: "Strength and conditioning coach.",
			Services: []domain.CoachService{
				{Name: "1:1 Coaching", Description: "Weekly programming", Price: "100"},
			},
		},
	}
}

func newTestTrainee(email string) domain.User {
	return domain.User{
		ID:        primitive.NewObjectID(),
		Email:     email,
		FirstName: "Taylor",
		LastName:  "Trainee",
		Role:      domain.RoleTrainee,
		Fitness: &domain.FitnessProfile{
			Age:              30,
			Weight:           75,
			Height:           180,
			FitnessLevel:     domain.LevelBeginner,
			FitnessGoal:      domain.GoalBuildMuscle,
			WorkoutFrequency: 3,
		},
	}
}
