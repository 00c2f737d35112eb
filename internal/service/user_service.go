package service

import (
	"context"
	"errors"
	"fmt"

	"fitcoach/coach-app/internal/domain"
	"fitcoach/coach-app/internal/repository"
	"fitcoach/coach-app/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrCascadeIncomplete = errors.New("user dependencies could not be cleaned up")
)

// UserWithSupervision is a user together with their resolved supervision
// side: supervised trainees for a PT, the supervising PT for a trainee.
type UserWithSupervision struct {
	User            domain.User   `json:"user"`
	Trainees        []domain.User `json:"trainees,omitempty"`
	PersonalTrainer *domain.User  `json:"personalTrainer,omitempty"`
}

// --- Service Interface ---
type UserService interface {
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	GetWithSupervision(ctx context.Context, id primitive.ObjectID) (*UserWithSupervision, error)
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
	ProfilePictureUploadURL(ctx context.Context, userID primitive.ObjectID, contentType string) (uploadURL, objectKey string, err error)
	SetProfilePicture(ctx context.Context, userID primitive.ObjectID, pictureURL string) error
}

// userService implements the UserService interface.
type userService struct {
	userRepo       repository.UserRepository
	workoutRepo    repository.WorkoutRepository
	assignmentRepo repository.AssignmentRepository
	fileStorage    storage.FileStorage
}

// NewUserService creates a new instance of userService.
func NewUserService(
	userRepo repository.UserRepository,
	workoutRepo repository.WorkoutRepository,
	assignmentRepo repository.AssignmentRepository,
	fileStorage storage.FileStorage,
) UserService {
	return &userService{
		userRepo:       userRepo,
		workoutRepo:    workoutRepo,
		assignmentRepo: assignmentRepo,
		fileStorage:    fileStorage,
	}
}

// ListByRole returns all users holding the given role. Password hashes never
// leave the service layer.
func (s *userService) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	users, err := s.userRepo.GetByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// GetWithSupervision returns the user plus the resolved other side of their
// supervision relationship.
func (s *userService) GetWithSupervision(ctx context.Context, id primitive.ObjectID) (*UserWithSupervision, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""

	result := &UserWithSupervision{User: *user}

	switch {
	case user.IsPT():
		trainees, err := s.userRepo.GetByIDs(ctx, user.Trainees)
		if err != nil {
			return nil, err
		}
		for i := range trainees {
			trainees[i].PasswordHash = ""
		}
		result.Trainees = trainees
	case user.IsTrainee() && user.PersonalTrainer != nil:
		pt, err := s.userRepo.GetByID(ctx, *user.PersonalTrainer)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if pt != nil {
			pt.PasswordHash = ""
			result.PersonalTrainer = pt
		}
	}

	return result, nil
}

// DeleteUser removes a user after cleaning up everything that references
// them: assignments they appear in, templates they authored (with their own
// assignment cascade covered by the assignment delete), and supervision
// back-references on other users. Each step is its own atomic operation;
// there is no cross-collection transaction, so a mid-cascade failure leaves
// the user document in place and reports the cleanup failure.
func (s *userService) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	deleted, err := s.assignmentRepo.DeleteByUser(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCascadeIncomplete, err)
	}

	switch user.Role {
	case domain.RolePT:
		templates, err := s.workoutRepo.DeleteByCreator(ctx, id)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCascadeIncomplete, err)
		}
		if err := s.userRepo.ClearTrainerEverywhere(ctx, id); err != nil {
			return fmt.Errorf("%w: %v", ErrCascadeIncomplete, err)
		}
		logrus.WithFields(logrus.Fields{
			"userId":      id.Hex(),
			"assignments": deleted,
			"templates":   templates,
		}).Info("deleted PT with cascade")
	case domain.RoleTrainee:
		if err := s.userRepo.RemoveTraineeEverywhere(ctx, id); err != nil {
			return fmt.Errorf("%w: %v", ErrCascadeIncomplete, err)
		}
		logrus.WithFields(logrus.Fields{
			"userId":      id.Hex(),
			"assignments": deleted,
		}).Info("deleted trainee with cascade")
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// ProfilePictureUploadURL issues a presigned PUT URL for a new profile
// picture. The object key is generated here; the client uploads directly to
// object storage and then stores the resulting URL via SetProfilePicture.
func (s *userService) ProfilePictureUploadURL(ctx context.Context, userID primitive.ObjectID, contentType string) (string, string, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", ErrUserNotFound
		}
		return "", "", err
	}

	objectKey := fmt.Sprintf("profile-pictures/%s/%s", userID.Hex(), uuid.NewString())
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", "", err
	}
	return uploadURL, objectKey, nil
}

// SetProfilePicture stores the opaque picture URL/path on the user.
func (s *userService) SetProfilePicture(ctx context.Context, userID primitive.ObjectID, pictureURL string) error {
	if pictureURL == "" {
		return errors.New("picture URL cannot be empty")
	}
	err := s.userRepo.SetProfilePicture(ctx, userID, pictureURL)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
