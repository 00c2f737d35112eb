package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RolePT      Role = "pt"
	RoleTrainee Role = "trainee"
)

// FitnessLevel of a trainee.
type FitnessLevel string

const (
	LevelBeginner     FitnessLevel = "beginner"
	LevelIntermediate FitnessLevel = "intermediate"
	LevelAdvanced     FitnessLevel = "advanced"
)

// FitnessGoal a trainee is working towards.
type FitnessGoal string

const (
	GoalLoseWeight  FitnessGoal = "lose_weight"
	GoalBuildMuscle FitnessGoal = "build_muscle"
	GoalStayFit     FitnessGoal = "stay_fit"
	GoalEndurance   FitnessGoal = "endurance"
	GoalFlexibility FitnessGoal = "flexibility"
)

// FitnessProfile holds the trainee-specific onboarding data.
// Required when role=trainee, never present for a PT.
type FitnessProfile struct {
	Age              int          `bson:"age" json:"age"`
	Weight           int          `bson:"weight" json:"weight"` // kg
	Height           int          `bson:"height" json:"height"` // cm
	FitnessLevel     FitnessLevel `bson:"fitnessLevel" json:"fitnessLevel"`
	FitnessGoal      FitnessGoal  `bson:"fitnessGoal" json:"fitnessGoal"`
	WorkoutFrequency int          `bson:"workoutFrequency" json:"workoutFrequency"` // sessions per week
}

// CoachService is a single offering on a PT's public profile.
type CoachService struct {
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description" json:"description"`
	Price       string `bson:"price" json:"price"`
	IsPopular   bool   `bson:"isPopular,omitempty" json:"isPopular,omitempty"`
}

// CoachStats is the headline stats block on a PT's public profile.
type CoachStats struct {
	ClientsCoached  string  `bson:"clientsCoached" json:"clientsCoached"`
	YearsExperience int     `bson:"yearsExperience" json:"yearsExperience"`
	Rating          float64 `bson:"rating" json:"rating"`
	Certifications  int     `bson:"certifications" json:"certifications"`
}

// CoachProfile holds the PT-specific public profile data.
// Only present when role=pt.
type CoachProfile struct {
	Bio       string         `bson:"bio,omitempty" json:"bio,omitempty"`
	Instagram string         `bson:"instagram,omitempty" json:"instagram,omitempty"`
	Services  []CoachService `bson:"services,omitempty" json:"services,omitempty"`
	Stats     *CoachStats    `bson:"stats,omitempty" json:"stats,omitempty"`
}

// RequestStatus type for the trainee request lifecycle
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// TraineeRequest is a supervision request from a trainee, embedded in the
// PT's user document. Each request carries its own ID assigned at creation;
// requests are always addressed by that ID, never by array position.
// Approved and rejected requests are kept as history.
type TraineeRequest struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	TraineeID    primitive.ObjectID `bson:"traineeId" json:"traineeId"`
	Status       RequestStatus      `bson:"status" json:"status"`
	ServiceName  string             `bson:"serviceName" json:"serviceName"`
	RequestDate  time.Time          `bson:"requestDate" json:"requestDate"`
	ResponseDate *time.Time         `bson:"responseDate,omitempty" json:"responseDate,omitempty"`
}

// User represents a user in the system (either a PT or a Trainee).
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email          string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash   string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	FirstName      string             `bson:"firstName" json:"firstName"`
	LastName       string             `bson:"lastName" json:"lastName"`
	Role           Role               `bson:"role" json:"role"`
	ProfilePicture string             `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"` // Opaque URL; the file itself lives in object storage
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Trainee-specific ---
	Fitness *FitnessProfile `bson:"fitness,omitempty" json:"fitness,omitempty"`
	// The PT currently supervising this trainee, if any.
	PersonalTrainer *primitive.ObjectID `bson:"personalTrainer,omitempty" json:"personalTrainer,omitempty"`

	// --- PT-specific ---
	Coach *CoachProfile `bson:"coach,omitempty" json:"coach,omitempty"`
	// IDs of trainees supervised by this PT. Set semantics, no duplicates.
	Trainees []primitive.ObjectID `bson:"trainees,omitempty" json:"trainees,omitempty"`
	// Supervision requests received by this PT, pending and historical.
	TraineeRequests []TraineeRequest `bson:"traineeRequests,omitempty" json:"traineeRequests,omitempty"`
}

func (u *User) IsPT() bool {
	return u.Role == RolePT
}

func (u *User) IsTrainee() bool {
	return u.Role == RoleTrainee
}

// FullName combines first and last name for display.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Supervises reports whether the given trainee is on this PT's supervision list.
func (u *User) Supervises(traineeID primitive.ObjectID) bool {
	for _, id := range u.Trainees {
		if id == traineeID {
			return true
		}
	}
	return false
}

// PendingRequestFrom returns the pending request submitted by the given
// trainee, or nil if there is none.
func (u *User) PendingRequestFrom(traineeID primitive.ObjectID) *TraineeRequest {
	for i := range u.TraineeRequests {
		r := &u.TraineeRequests[i]
		if r.TraineeID == traineeID && r.Status == RequestPending {
			return r
		}
	}
	return nil
}
