package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"fitcoach/coach-app/internal/domain"
	"fitcoach/coach-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutHandler exposes template management and assignment creation for PTs.
type WorkoutHandler struct {
	workoutService service.WorkoutService
}

// NewWorkoutHandler creates a new WorkoutHandler.
func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- Request Structs ---

type ExerciseRequest struct {
	Name  string `json:"name" binding:"required"`
	Sets  int    `json:"sets" binding:"required,min=1"`
	Reps  string `json:"reps" binding:"required"`
	Notes string `json:"notes,omitempty"`
}

type CreateTemplateRequest struct {
	Title             string            `json:"title" binding:"required"`
	Description       string            `json:"description,omitempty"`
	Difficulty        string            `json:"difficulty,omitempty" binding:"omitempty,oneof=beginner intermediate advanced"`
	EstimatedDuration int               `json:"estimatedDuration,omitempty"`
	Exercises         []ExerciseRequest `json:"exercises" binding:"required,min=1,dive"`
}

type UpdateTemplateRequest struct {
	Title             string            `json:"title,omitempty"`
	Description       string            `json:"description,omitempty"`
	Difficulty        string            `json:"difficulty,omitempty" binding:"omitempty,oneof=beginner intermediate advanced"`
	EstimatedDuration int               `json:"estimatedDuration,omitempty"`
	Exercises         []ExerciseRequest `json:"exercises,omitempty" binding:"omitempty,min=1,dive"`
}

type AssignWorkoutRequest struct {
	TraineeID string     `json:"traineeId" binding:"required"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
	PTNotes   string     `json:"ptNotes,omitempty"`
}

func mapExercises(reqs []ExerciseRequest) []domain.TemplateExercise {
	if reqs == nil {
		return nil
	}
	exercises := make([]domain.TemplateExercise, len(reqs))
	for i, ex := range reqs {
		exercises[i] = domain.TemplateExercise{
			Name:  ex.Name,
			Sets:  ex.Sets,
			Reps:  ex.Reps,
			Notes: ex.Notes,
		}
	}
	return exercises
}

// --- Handler Methods ---

// CreateTemplate godoc
// @Summary Create a workout template
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param template body CreateTemplateRequest true "Template definition"
// @Success 201 {object} domain.WorkoutTemplate
// @Failure 400 {object} gin.H "Invalid exercises"
// @Router /pt/workouts [post]
func (h *WorkoutHandler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	ptID, err := callerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token")
		return
	}

	workout, err := h.workoutService.CreateTemplate(c.Request.Context(), ptID, service.TemplateInput{
		Title:             req.Title,
		Description:       req.Description,
		Difficulty:        domain.FitnessLevel(req.Difficulty),
		EstimatedDuration: req.EstimatedDuration,
		Exercises:         mapExercises(req.Exercises),
	})
	if err != nil {
		h.mapWorkoutError(c, err, "Failed to create workout template")
		return
	}
	c.JSON(http.StatusCreated, workout)
}

// ListTemplates godoc
// @Summary List the authenticated PT's workout templates, newest first
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.WorkoutTemplate
// @Router /pt/workouts [get]
func (h *WorkoutHandler) ListTemplates(c *gin.Context) {
	ptID, err := callerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token")
		return
	}

	workouts, err := h.workoutService.ListTemplates(c.Request.Context(), ptID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve workout templates")
		return
	}
	if workouts == nil {
		workouts = []domain.WorkoutTemplate{}
	}
	c.JSON(http.StatusOK, workouts)
}

// UpdateTemplate godoc
// @Summary Update an owned workout template
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workoutId path string true "Template ID"
// @Param patch body UpdateTemplateRequest true "Fields to update"
// @Success 200 {object} domain.WorkoutTemplate
// @Failure 403 {object} gin.H "Template owned by another PT"
// @Router /pt/workouts/{workoutId} [put]
func (h *WorkoutHandler) UpdateTemplate(c *gin.Context) {
	var req UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	ptID, err := callerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token")
		return
	}
	workoutID, ok := pathID(c, "workoutId")
	if !ok {
		return
	}

	workout, err := h.workoutService.UpdateTemplate(c.Request.Context(), ptID, workoutID, service.TemplateInput{
		Title:             req.Title,
		Description:       req.Description,
		Difficulty:        domain.FitnessLevel(req.Difficulty),
		EstimatedDuration: req.EstimatedDuration,
		Exercises:         mapExercises(req.Exercises),
	})
	if err != nil {
		h.mapWorkoutError(c, err, "Failed to update workout template")
		return
	}
	c.JSON(http.StatusOK, workout)
}

// DeleteTemplate godoc
// @Summary Delete an owned workout template and all assignments referencing it
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param workoutId path string true "Template ID"
// @Success 200 {object} gin.H
// @Failure 403 {object} gin.H "Template owned by another PT"
// @Router /pt/workouts/{workoutId} [delete]
func (h *WorkoutHandler) DeleteTemplate(c *gin.Context) {
	ptID, err := callerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token")
		return
	}
	workoutID, ok := pathID(c, "workoutId")
	if !ok {
		return
	}

	if err := h.workoutService.DeleteTemplate(c.Request.Context(), ptID, workoutID); err != nil {
		h.mapWorkoutError(c, err, "Failed to delete workout template")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deletedWorkoutId": workoutID.Hex()})
}

// AssignWorkout godoc
// @Summary Assign a workout template to a supervised trainee
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workoutId path string true "Template ID"
// @Param assignment body AssignWorkoutRequest true "Assignment details"
// @Success 201 {object} domain.WorkoutAssignment
// @Failure 403 {object} gin.H "Trainee not supervised or template not owned"
// @Router /pt/workouts/{workoutId}/assign [post]
func (h *WorkoutHandler) AssignWorkout(c *gin.Context) {
	var req AssignWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	ptID, err := callerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token")
		return
	}
	workoutID, ok := pathID(c, "workoutId")
	if !ok {
		return
	}
	traineeID, err := primitive.ObjectIDFromHex(req.TraineeID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid traineeId format")
		return
	}

	assignment, err := h.workoutService.Assign(c.Request.Context(), ptID, workoutID, traineeID, req.DueDate, req.PTNotes)
	if err != nil {
		h.mapWorkoutError(c, err, "Failed to assign workout")
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

// mapWorkoutError converts workout service sentinels to HTTP responses.
func (h *WorkoutHandler) mapWorkoutError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrWorkoutNotFound), errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrAssignmentNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrWorkoutAccessDenied), errors.Is(err, service.ErrNotSupervised),
		errors.Is(err, service.ErrNotPersonalTrainer), errors.Is(err, service.ErrNotTrainee),
		errors.Is(err, service.ErrAssignmentAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNoExercises), errors.Is(err, service.ErrExerciseValidation),
		errors.Is(err, service.ErrExerciseIndexRange), errors.Is(err, service.ErrInvalidStatus):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
