package api

import (
	"errors"
	"net/http"

	"fitcoach/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

// PTHandler exposes the PT side of the relationship workflow: pending
// requests, approvals, and the supervision list.
type PTHandler struct {
	coachingService service.CoachingService
}

// NewPTHandler creates a new PTHandler.
func NewPTHandler(coachingService service.CoachingService) *PTHandler {
	return &PTHandler{coachingService: coachingService}
}

// ListPTs godoc
// @Summary List all personal trainers with their public profiles
// @Tags PT
// @Produce json
// @Success 200 {array} UserResponse
// @Router /pts [get]
func (h *PTHandler) ListPTs(c *gin.Context) {
	pts, err := h.coachingService.ListPTs(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve personal trainers")
		return
	}

	resp := make([]UserResponse, 0, len(pts))
	for i := range pts {
		resp = append(resp, MapUserToResponse(&pts[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// PendingRequests godoc
// @Summary List the authenticated PT's pending supervision requests
// @Tags PT
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.TraineeRequest
// @Router /pt/requests [get]
func (h *PTHandler) PendingRequests(c *gin.Context) {
	ptID, err := callerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token")
		return
	}

	requests, err := h.coachingService.PendingRequests(c.Request.Context(), ptID)
	if err != nil {
		h.mapCoachingError(c, err, "Failed to retrieve pending requests")
		return
	}
	c.JSON(http.StatusOK, requests)
}

// ApproveRequest godoc
// @Summary Approve a pending supervision request
// @Description Adds the trainee to the PT's supervision list and sets the trainee's PT reference.
// @Tags PT
// @Produce json
// @Security BearerAuth
// @Param requestId path string true "Request ID"
// @Success 200 {object} domain.TraineeRequest
// @Failure 404 {object} gin.H "No pending request with this ID"
// @Router /pt/requests/{requestId}/approve [post]
func (h *PTHandler) ApproveRequest(c *gin.Context) {
	ptID, err := callerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token")
		return
	}
	requestID, ok := pathID(c, "requestId")
	if !ok {
		return
	}

	req, err := h.coachingService.ApproveRequest(c.Request.Context(), ptID, requestID)
	if err != nil {
		h.mapCoachingError(c, err, "Failed to approve request")
		return
	}
	c.JSON(http.StatusOK, req)
}

// RejectRequest godoc
// @Summary Reject a pending supervision request
// @Tags PT
// @Produce json
// @Security BearerAuth
// @Param requestId path string true "Request ID"
// @Success 200 {object} domain.TraineeRequest
// @Failure 404 {object} gin.H "No pending request with this ID"
// @Router /pt/requests/{requestId}/reject [post]
func (h *PTHandler) RejectRequest(c *gin.Context) {
	ptID, err := callerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token")
		return
	}
	requestID, ok := pathID(c, "requestId")
	if !ok {
		return
	}

	req, err := h.coachingService.RejectRequest(c.Request.Context(), ptID, requestID)
	if err != nil {
		h.mapCoachingError(c, err, "Failed to reject request")
		return
	}
	c.JSON(http.StatusOK, req)
}

// GetTrainees godoc
// @Summary List the authenticated PT's supervised trainees
// @Tags PT
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Router /pt/trainees [get]
func (h *PTHandler) GetTrainees(c *gin.Context) {
	ptID, err := callerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token")
		return
	}

	trainees, err := h.coachingService.GetTrainees(c.Request.Context(), ptID)
	if err != nil {
		h.mapCoachingError(c, err, "Failed to retrieve trainees")
		return
	}

	resp := make([]UserResponse, 0, len(trainees))
	for i := range trainees {
		resp = append(resp, MapUserToResponse(&trainees[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetTrainee godoc
// @Summary Get a single supervised trainee
// @Tags PT
// @Produce json
// @Security BearerAuth
// @Param traineeId path string true "Trainee ID"
// @Success 200 {object} UserResponse
// @Failure 403 {object} gin.H "Trainee not supervised by this PT"
// @Router /pt/trainees/{traineeId} [get]
func (h *PTHandler) GetTrainee(c *gin.Context) {
	ptID, err := callerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token")
		return
	}
	traineeID, ok := pathID(c, "traineeId")
	if !ok {
		return
	}

	trainee, err := h.coachingService.GetTrainee(c.Request.Context(), ptID, traineeID)
	if err != nil {
		h.mapCoachingError(c, err, "Failed to retrieve trainee")
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(trainee))
}

// RemoveTrainee godoc
// @Summary End supervision of a trainee
// @Tags PT
// @Produce json
// @Security BearerAuth
// @Param traineeId path string true "Trainee ID"
// @Success 200 {object} gin.H
// @Failure 404 {object} gin.H "Trainee not supervised by this PT"
// @Router /pt/trainees/{traineeId} [delete]
func (h *PTHandler) RemoveTrainee(c *gin.Context) {
	ptID, err := callerID(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token")
		return
	}
	traineeID, ok := pathID(c, "traineeId")
	if !ok {
		return
	}

	if err := h.coachingService.RemoveSupervision(c.Request.Context(), ptID, traineeID); err != nil {
		if errors.Is(err, service.ErrNotSupervised) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to remove trainee")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"removedTraineeId": traineeID.Hex()})
}

// mapCoachingError converts coaching service sentinels to HTTP responses.
func (h *PTHandler) mapCoachingError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrRequestNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotPersonalTrainer), errors.Is(err, service.ErrNotTrainee),
		errors.Is(err, service.ErrNotSupervised):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrDuplicateRequest):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
