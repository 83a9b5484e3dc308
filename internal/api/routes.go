package api

import (
	"net/http"
	"time"

	"alcyxob/gym-admin/internal/calendar"
	"alcyxob/gym-admin/internal/service"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
)

// TodayFunc returns the current calendar date in the gym's timezone.
type TodayFunc func() civil.Date

// TodayIn reads the wall clock and converts it to a date in loc.
func TodayIn(loc *time.Location) TodayFunc {
	return func() civil.Date {
		return calendar.Today(time.Now(), loc)
	}
}

// Services bundles what the handlers depend on.
type Services struct {
	Auth         service.AuthService
	Clients      service.ClientService
	Measurements service.MeasurementService
	Photos       service.PhotoService
	Comparisons  service.ComparisonService
	Templates    service.TemplateService
	Assignments  service.AssignmentService
	Export       service.ExportService
}

func SetupRoutes(router *gin.Engine, jwtSecret string, today TodayFunc, services Services) {
	authHandler := NewAuthHandler(services.Auth)
	clientHandler := NewClientHandler(services.Clients, today)
	measurementHandler := NewMeasurementHandler(services.Measurements, services.Photos)
	templateHandler := NewTemplateHandler(services.Templates)
	assignmentHandler := NewAssignmentHandler(services.Assignments, today)
	reportHandler := NewReportHandler(services.Comparisons, services.Export, today)

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
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		protected.GET("/me", func(c *gin.Context) {
			trainerID, ok := mustTrainerID(c)
			if !ok {
				return
			}
			c.JSON(http.StatusOK, gin.H{"trainerId": trainerID.Hex()})
		})

		// --- Clients & Memberships ---
		clients := protected.Group("/clients")
		{
			clients.POST("", clientHandler.CreateClient)
			clients.GET("", clientHandler.ListClients)
			clients.GET("/duplicate", clientHandler.CheckDuplicate)
			clients.GET("/:clientId", clientHandler.GetClient)
			clients.PUT("/:clientId", clientHandler.UpdateClient)
			clients.DELETE("/:clientId", clientHandler.DeleteClient)
			clients.POST("/:clientId/renew", clientHandler.RenewMembership)
			clients.GET("/:clientId/reminder", clientHandler.GetReminder)

			clients.GET("/:clientId/measurements", measurementHandler.ListMeasurements)
			clients.POST("/:clientId/measurements", measurementHandler.CreateMeasurement)
			clients.GET("/:clientId/measurements/latest", measurementHandler.GetLatestMeasurement)
			clients.PUT("/:clientId/measurements/:measurementId", measurementHandler.UpdateMeasurement)

			clients.GET("/:clientId/assignments", assignmentHandler.ListAssignments)
			clients.POST("/:clientId/assignments", assignmentHandler.AssignTemplate)
			clients.GET("/:clientId/assignments/current", assignmentHandler.GetCurrentAssignment)
		}

		// --- Measurements & Photos ---
		measurements := protected.Group("/measurements")
		{
			measurements.GET("/:measurementId", measurementHandler.GetMeasurement)
			measurements.DELETE("/:measurementId", measurementHandler.DeleteMeasurement)
			measurements.GET("/:measurementId/photos", measurementHandler.ListPhotos)
			measurements.PUT("/:measurementId/photos/:photoType", measurementHandler.UploadPhoto)
		}
		protected.DELETE("/photos/:photoId", measurementHandler.DeletePhoto)

		// --- Templates & Assignments ---
		templates := protected.Group("/templates")
		{
			templates.POST("", templateHandler.CreateTemplate)
			templates.GET("", templateHandler.ListTemplates)
			templates.GET("/:templateId", templateHandler.GetTemplate)
			templates.PUT("/:templateId", templateHandler.UpdateTemplate)
			templates.DELETE("/:templateId", templateHandler.DeleteTemplate)
			templates.PUT("/:templateId/items/:itemId/image", templateHandler.UploadItemImage)
		}
		assignments := protected.Group("/assignments")
		{
			assignments.POST("/:assignmentId/pause", assignmentHandler.PauseAssignment)
			assignments.POST("/:assignmentId/resume", assignmentHandler.ResumeAssignment)
			assignments.DELETE("/:assignmentId", assignmentHandler.UnassignTemplate)
		}

		// --- Reports ---
		protected.GET("/comparisons", reportHandler.Compare)
		protected.GET("/export", reportHandler.Export)
	}
}
