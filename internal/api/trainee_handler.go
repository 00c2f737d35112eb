package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"fitcoach/coach-app/internal/domain"
	"fitcoach/coach-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TraineeHandler exposes the trainee side: submitting supervision requests,
// viewing assigned workouts, and reporting progress.
type TraineeHandler struct {
	coachingService service.CoachingService
	workoutService  service.WorkoutService
}

// NewTraineeHandler creates a new TraineeHandler.
func NewTraineeHandler(coachingService service.CoachingService, workoutService service.WorkoutService) *TraineeHandler {
	return &TraineeHandler{
		coachingService: coachingService,
		workoutService:  workoutService,
	}
}

// --- Request Structs ---

type SubmitRequestRequest struct {
	PTID        string `json:"ptId" binding:"required"`
	ServiceName string `json:"serviceName" binding:"required"`
}

type MarkProgressRequest struct {
	Completed  *bool  `json:"completed,omitempty"` // Defaults to true
	ActualSets int    `json:"actualSets,omitempty" binding:"omitempty,min=0"`
	ActualReps string `json:"actualReps,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type UpdateAssignmentRequest struct {
	Status       *domain.AssignmentStatus `json:"status,omitempty"`
	TraineeNotes *string                  `json:"traineeNotes,omitempty"`
}

// --- Handler Methods ---

// SubmitRequest godoc
// @Summary Submit a supervision request to a PT
// @Tags Trainee
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SubmitRequestRequest true "Target PT and requested service"
// @Success 201 {object} domain.TraineeRequest
// @Failure 409 {object} gin.H "A pending request to this PT already exists"
// @Router /trainee/requests [post]
func (h *TraineeHandler) SubmitRequest(c *gin.Context) {
	var req SubmitRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	traineeID, err := callerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainee from token")
		return
	}
	ptID, err := primitive.ObjectIDFromHex(req.PTID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid ptId format")
		return
	}

	request, err := h.coachingService.SubmitRequest(c.Request.Context(), traineeID, ptID, req.ServiceName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotPersonalTrainer), errors.Is(err, service.ErrNotTrainee):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrDuplicateRequest):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to submit request")
		}
		return
	}
	c.JSON(http.StatusCreated, request)
}

// ListAssignments godoc
// @Summary List the authenticated trainee's workout assignments, newest first
// @Tags Trainee
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (assigned, in_progress, completed, skipped)"
// @Success 200 {array} domain.WorkoutAssignment
// @Router /trainee/workouts [get]
func (h *TraineeHandler) ListAssignments(c *gin.Context) {
	traineeID, err := callerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainee from token")
		return
	}

	var status *domain.AssignmentStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.AssignmentStatus(raw)
		status = &s
	}

	assignments, err := h.workoutService.TraineeAssignments(c.Request.Context(), traineeID, status)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve assignments")
		}
		return
	}
	if assignments == nil {
		assignments = []domain.WorkoutAssignment{}
	}
	c.JSON(http.StatusOK, assignments)
}

// GetAssignment godoc
// @Summary Get one workout assignment
// @Tags Trainee
// @Produce json
// @Security BearerAuth
// @Param assignmentId path string true "Assignment ID"
// @Success 200 {object} domain.WorkoutAssignment
// @Failure 403 {object} gin.H "Assignment belongs to another user"
// @Router /trainee/assignments/{assignmentId} [get]
func (h *TraineeHandler) GetAssignment(c *gin.Context) {
	caller, err := callerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify caller from token")
		return
	}
	assignmentID, ok := pathID(c, "assignmentId")
	if !ok {
		return
	}

	assignment, err := h.workoutService.GetAssignment(c.Request.Context(), caller, assignmentID)
	if err != nil {
		h.mapAssignmentError(c, err, "Failed to retrieve assignment")
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// MarkProgress godoc
// @Summary Mark progress on one exercise of an assignment
// @Description Overwrites the indexed progress entry and re-derives the aggregate status.
// @Tags Trainee
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assignmentId path string true "Assignment ID"
// @Param exerciseIndex path int true "Zero-based exercise index"
// @Param progress body MarkProgressRequest true "Progress details"
// @Success 200 {object} domain.WorkoutAssignment
// @Failure 400 {object} gin.H "Exercise index out of range"
// @Router /trainee/assignments/{assignmentId}/exercises/{exerciseIndex} [patch]
func (h *TraineeHandler) MarkProgress(c *gin.Context) {
	var req MarkProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	traineeID, err := callerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainee from token")
		return
	}
	assignmentID, ok := pathID(c, "assignmentId")
	if !ok {
		return
	}

	exerciseIndex, err := strconv.Atoi(c.Param("exerciseIndex"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise index")
		return
	}

	assignment, err := h.workoutService.MarkExerciseProgress(c.Request.Context(), traineeID, assignmentID, service.ProgressInput{
		ExerciseIndex: exerciseIndex,
		Completed:     req.Completed,
		ActualSets:    req.ActualSets,
		ActualReps:    req.ActualReps,
		Notes:         req.Notes,
	})
	if err != nil {
		h.mapAssignmentError(c, err, "Failed to update exercise progress")
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// UpdateAssignment godoc
// @Summary Update an assignment's status or notes
// @Description Setting status=skipped is a sticky override; other explicit statuses are advisory and will be re-derived on the next progress edit.
// @Tags Trainee
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assignmentId path string true "Assignment ID"
// @Param update body UpdateAssignmentRequest true "Status and/or notes"
// @Success 200 {object} domain.WorkoutAssignment
// @Router /trainee/assignments/{assignmentId} [patch]
func (h *TraineeHandler) UpdateAssignment(c *gin.Context) {
	var req UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	traineeID, err := callerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainee from token")
		return
	}
	assignmentID, ok := pathID(c, "assignmentId")
	if !ok {
		return
	}

	assignment, err := h.workoutService.UpdateAssignment(c.Request.Context(), traineeID, assignmentID, req.Status, req.TraineeNotes)
	if err != nil {
		h.mapAssignmentError(c, err, "Failed to update assignment")
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// mapAssignmentError converts assignment-related sentinels to HTTP responses.
func (h *TraineeHandler) mapAssignmentError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound), errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAssignmentAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrExerciseIndexRange), errors.Is(err, service.ErrInvalidStatus):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
