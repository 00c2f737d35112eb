package service

import (
	"context"
	"errors"
	"time"

	"fitcoach/coach-app/internal/domain"
	"fitcoach/coach-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrNotPersonalTrainer = errors.New("user is not a personal trainer")
	ErrNotTrainee         = errors.New("user is not a trainee")
	ErrRequestNotFound    = errors.New("no pending request found")
	ErrDuplicateRequest   = errors.New("a pending request to this trainer already exists")
	ErrNotSupervised      = errors.New("trainee is not supervised by this trainer")
)

// --- Service Interface ---

// CoachingService manages the trainee-PT relationship: request submission,
// approval/rejection, and the supervision list.
type CoachingService interface {
	ListPTs(ctx context.Context) ([]domain.User, error)
	SubmitRequest(ctx context.Context, traineeID, ptID primitive.ObjectID, serviceName string) (*domain.TraineeRequest, error)
	ApproveRequest(ctx context.Context, ptID, requestID primitive.ObjectID) (*domain.TraineeRequest, error)
	RejectRequest(ctx context.Context, ptID, requestID primitive.ObjectID) (*domain.TraineeRequest, error)
	PendingRequests(ctx context.Context, ptID primitive.ObjectID) ([]domain.TraineeRequest, error)
	GetTrainees(ctx context.Context, ptID primitive.ObjectID) ([]domain.User, error)
	GetTrainee(ctx context.Context, ptID, traineeID primitive.ObjectID) (*domain.User, error)
	RemoveSupervision(ctx context.Context, ptID, traineeID primitive.ObjectID) error
}

// coachingService implements the CoachingService interface.
type coachingService struct {
	userRepo repository.UserRepository
}

// NewCoachingService creates a new instance of coachingService.
func NewCoachingService(userRepo repository.UserRepository) CoachingService {
	return &coachingService{userRepo: userRepo}
}

// ListPTs returns every personal trainer, including their public coach
// profile, so trainees can browse coaches.
func (s *coachingService) ListPTs(ctx context.Context) ([]domain.User, error) {
	pts, err := s.userRepo.GetByRole(ctx, domain.RolePT)
	if err != nil {
		return nil, err
	}
	for i := range pts {
		pts[i].PasswordHash = ""
	}
	return pts, nil
}

// SubmitRequest files a new pending supervision request from a trainee to a
// PT. A second submission while one is still pending is rejected; the
// duplicate guard lives in the same atomic write that appends the request.
func (s *coachingService) SubmitRequest(ctx context.Context, traineeID, ptID primitive.ObjectID, serviceName string) (*domain.TraineeRequest, error) {
	trainee, err := s.getUser(ctx, traineeID)
	if err != nil {
		return nil, err
	}
	if !trainee.IsTrainee() {
		return nil, ErrNotTrainee
	}

	pt, err := s.getUser(ctx, ptID)
	if err != nil {
		return nil, err
	}
	if !pt.IsPT() {
		return nil, ErrNotPersonalTrainer
	}

	req := domain.TraineeRequest{
		ID:          primitive.NewObjectID(),
		TraineeID:   traineeID,
		Status:      domain.RequestPending,
		ServiceName: serviceName,
		RequestDate: time.Now().UTC(),
	}

	if err := s.userRepo.AppendTraineeRequest(ctx, ptID, req); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDuplicateRequest
		}
		return nil, err
	}
	return &req, nil
}

// ApproveRequest transitions a pending request to approved and establishes
// supervision: the trainee joins the PT's list and the PT becomes the
// trainee's personal trainer. Only one of two concurrent approvals can win
// the pending-state transition; the loser sees the request as missing.
func (s *coachingService) ApproveRequest(ctx context.Context, ptID, requestID primitive.ObjectID) (*domain.TraineeRequest, error) {
	req, err := s.userRepo.ResolveTraineeRequest(ctx, ptID, requestID, domain.RequestApproved, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	if err := s.userRepo.AddTraineeToPT(ctx, ptID, req.TraineeID); err != nil {
		return nil, err
	}
	if err := s.userRepo.SetPersonalTrainer(ctx, req.TraineeID, ptID); err != nil {
		// The trainee may have been deleted between resolution and here;
		// supervision-list membership alone is still consistent enough for
		// the next cascade to clean up.
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	return req, nil
}

// RejectRequest transitions a pending request to rejected. No side effects
// beyond the status change; the request stays on file as history.
func (s *coachingService) RejectRequest(ctx context.Context, ptID, requestID primitive.ObjectID) (*domain.TraineeRequest, error) {
	req, err := s.userRepo.ResolveTraineeRequest(ctx, ptID, requestID, domain.RequestRejected, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

// PendingRequests lists the PT's requests still awaiting a response.
func (s *coachingService) PendingRequests(ctx context.Context, ptID primitive.ObjectID) ([]domain.TraineeRequest, error) {
	pt, err := s.getUser(ctx, ptID)
	if err != nil {
		return nil, err
	}
	if !pt.IsPT() {
		return nil, ErrNotPersonalTrainer
	}

	pending := []domain.TraineeRequest{}
	for _, r := range pt.TraineeRequests {
		if r.Status == domain.RequestPending {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

// GetTrainees resolves the PT's supervision list into user summaries.
func (s *coachingService) GetTrainees(ctx context.Context, ptID primitive.ObjectID) ([]domain.User, error) {
	pt, err := s.getUser(ctx, ptID)
	if err != nil {
		return nil, err
	}
	if !pt.IsPT() {
		return nil, ErrNotPersonalTrainer
	}

	trainees, err := s.userRepo.GetByIDs(ctx, pt.Trainees)
	if err != nil {
		return nil, err
	}
	for i := range trainees {
		trainees[i].PasswordHash = ""
	}
	return trainees, nil
}

// GetTrainee returns a single supervised trainee.
func (s *coachingService) GetTrainee(ctx context.Context, ptID, traineeID primitive.ObjectID) (*domain.User, error) {
	pt, err := s.getUser(ctx, ptID)
	if err != nil {
		return nil, err
	}
	if !pt.IsPT() {
		return nil, ErrNotPersonalTrainer
	}
	if !pt.Supervises(traineeID) {
		return nil, ErrNotSupervised
	}

	trainee, err := s.getUser(ctx, traineeID)
	if err != nil {
		return nil, err
	}
	trainee.PasswordHash = ""
	return trainee, nil
}

// RemoveSupervision ends the PT-trainee relationship: the trainee leaves the
// PT's list and the back-reference is cleared if it still points at this PT.
func (s *coachingService) RemoveSupervision(ctx context.Context, ptID, traineeID primitive.ObjectID) error {
	if err := s.userRepo.RemoveTraineeFromPT(ctx, ptID, traineeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotSupervised
		}
		return err
	}
	return s.userRepo.ClearPersonalTrainer(ctx, traineeID, ptID)
}

func (s *coachingService) getUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
