package api

import (
	"net/http"

	"fitcoach/coach-app/internal/domain"
	"fitcoach/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires all HTTP endpoints onto the router.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	userService service.UserService,
	coachingService service.CoachingService,
	workoutService service.WorkoutService,
) {
	authHandler := NewAuthHandler(authService)
	userHandler := NewUserHandler(userService)
	ptHandler := NewPTHandler(coachingService)
	workoutHandler := NewWorkoutHandler(workoutService)
	traineeHandler := NewTraineeHandler(coachingService, workoutService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// Public coach directory, no token required.
		apiV1.GET("/pts", ptHandler.ListPTs)
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := callerID(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := callerRole(c)
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex(), "role": role})
		})

		// --- User Routes ---
		userGroup := protected.Group("/users")
		{
			userGroup.GET("", userHandler.ListUsers)
			userGroup.GET("/:id", userHandler.GetUser)
			userGroup.DELETE("/:id", userHandler.DeleteUser)
		}

		// --- Profile Picture Routes (own profile only) ---
		profileGroup := protected.Group("/profile")
		{
			profileGroup.POST("/picture-upload-url", userHandler.PictureUploadURL)
			profileGroup.PUT("/picture", userHandler.SetPicture)
		}

		// --- PT Specific Routes ---
		ptGroup := protected.Group("/pt")
		ptGroup.Use(RoleMiddleware(domain.RolePT))
		{
			// Trainee request workflow.
			ptGroup.GET("/requests", ptHandler.PendingRequests)
			ptGroup.POST("/requests/:requestId/approve", ptHandler.ApproveRequest)
			ptGroup.POST("/requests/:requestId/reject", ptHandler.RejectRequest)

			// Supervision management.
			ptGroup.GET("/trainees", ptHandler.GetTrainees)
			ptGroup.GET("/trainees/:traineeId", ptHandler.GetTrainee)
			ptGroup.DELETE("/trainees/:traineeId", ptHandler.RemoveTrainee)

			// Workout template management.
			ptGroup.POST("/workouts", workoutHandler.CreateTemplate)
			ptGroup.GET("/workouts", workoutHandler.ListTemplates)
			ptGroup.PUT("/workouts/:workoutId", workoutHandler.UpdateTemplate)
			ptGroup.DELETE("/workouts/:workoutId", workoutHandler.DeleteTemplate)

			// POST /api/v1/pt/workouts/{workoutId}/assign
			ptGroup.POST("/workouts/:workoutId/assign", workoutHandler.AssignWorkout)
		}

		// --- Trainee Specific Routes ---
		traineeGroup := protected.Group("/trainee")
		traineeGroup.Use(RoleMiddleware(domain.RoleTrainee))
		{
			traineeGroup.POST("/requests", traineeHandler.SubmitRequest)

			traineeGroup.GET("/workouts", traineeHandler.ListAssignments)
			traineeGroup.GET("/assignments/:assignmentId", traineeHandler.GetAssignment)
			traineeGroup.PATCH("/assignments/:assignmentId", traineeHandler.UpdateAssignment)
			traineeGroup.PATCH("/assignments/:assignmentId/exercises/:exerciseIndex", traineeHandler.MarkProgress)
		}
	}
}
