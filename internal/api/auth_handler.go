package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"fitcoach/coach-app/internal/domain"
	"fitcoach/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- Request/Response Structs ---

type FitnessProfileRequest struct {
	Age              int    `json:"age" binding:"required,min=1"`
	Weight           int    `json:"weight" binding:"required,min=1"`
	Height           int    `json:"height" binding:"required,min=1"`
	FitnessLevel     string `json:"fitnessLevel" binding:"required,oneof=beginner intermediate advanced"`
	FitnessGoal      string `json:"fitnessGoal" binding:"required,oneof=lose_weight build_muscle stay_fit endurance flexibility"`
	WorkoutFrequency int    `json:"workoutFrequency" binding:"required,min=1"`
}

type RegisterRequest struct {
	Email     string                 `json:"email" binding:"required,email"`
	Password  string                 `json:"password" binding:"required,min=8"`
	FirstName string                 `json:"firstName" binding:"required"`
	LastName  string                 `json:"lastName" binding:"required"`
	Role      domain.Role            `json:"role" binding:"required,oneof=pt trainee"`
	Fitness   *FitnessProfileRequest `json:"fitness,omitempty"`
	Bio       string                 `json:"bio,omitempty"`
	Instagram string                 `json:"instagram,omitempty"`
}

// UserResponse excludes sensitive info like the password hash.
type UserResponse struct {
	ID              string                 `json:"id"`
	Email           string                 `json:"email"`
	FirstName       string                 `json:"firstName"`
	LastName        string                 `json:"lastName"`
	Name            string                 `json:"name"`
	Role            domain.Role            `json:"role"`
	ProfilePicture  string                 `json:"profilePicture,omitempty"`
	Fitness         *domain.FitnessProfile `json:"fitness,omitempty"`
	Coach           *domain.CoachProfile   `json:"coach,omitempty"`
	Trainees        []string               `json:"trainees,omitempty"`
	PersonalTrainer *string                `json:"personalTrainer,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// --- Handler Methods ---

// Register godoc
// @Summary Register a new user (PT or Trainee)
// @Description Creates a new user account. Trainees must submit a complete fitness profile.
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Registration details"
// @Success 201 {object} UserResponse "User created successfully"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 409 {object} gin.H "Conflict (email already exists)"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	input := service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	}
	if req.Fitness != nil {
		input.Fitness = &domain.FitnessProfile{
			Age:              req.Fitness.Age,
			Weight:           req.Fitness.Weight,
			Height:           req.Fitness.Height,
			FitnessLevel:     domain.FitnessLevel(req.Fitness.FitnessLevel),
			FitnessGoal:      domain.FitnessGoal(req.Fitness.FitnessGoal),
			WorkoutFrequency: req.Fitness.WorkoutFrequency,
		}
	}
	if req.Role == domain.RolePT && (req.Bio != "" || req.Instagram != "") {
		input.Coach = &domain.CoachProfile{Bio: req.Bio, Instagram: req.Instagram}
	}

	user, err := h.authService.Register(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserAlreadyExists):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrFitnessProfile), errors.Is(err, service.ErrInvalidRole):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrHashingFailed):
			abortWithError(c, http.StatusInternalServerError, "Could not process registration")
		default:
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred during registration")
		}
		return
	}

	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// Login godoc
// @Summary Log in a user
// @Description Authenticates a user and returns a JWT token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse "Login successful"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 401 {object} gin.H "Unauthorized (invalid credentials)"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAuthenticationFailed):
			abortWithError(c, http.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrTokenGeneration):
			abortWithError(c, http.StatusInternalServerError, "Could not process login")
		default:
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred during login")
		}
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User:  MapUserToResponse(user),
	})
}

// MapUserToResponse converts a domain User to a UserResponse DTO, excluding
// the password hash and converting ObjectIDs to strings.
func MapUserToResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		ID:             user.ID.Hex(),
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Name:           user.FullName(),
		Role:           user.Role,
		ProfilePicture: user.ProfilePicture,
		Fitness:        user.Fitness,
		Coach:          user.Coach,
		CreatedAt:      user.CreatedAt,
	}
	for _, id := range user.Trainees {
		resp.Trainees = append(resp.Trainees, id.Hex())
	}
	if user.PersonalTrainer != nil {
		pt := user.PersonalTrainer.Hex()
		resp.PersonalTrainer = &pt
	}
	return resp
}
