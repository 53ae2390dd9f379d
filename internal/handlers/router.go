package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/enrollment-service/internal/services"
	"github.com/SAP-F-2025/enrollment-service/internal/utils"
)

// HealthChecker reports whether the service's dependencies are reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HandlerManager struct {
	userHandler *UserHandler
	health      HealthChecker
	logger      utils.Logger
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		userHandler: NewUserHandler(serviceManager.User(), serviceManager.Export(), logger),
		health:      serviceManager,
		logger:      logger,
	}
}

// SetupRoutes sets up all API routes. Paths are kept flat to match existing clients.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)

	router.POST("/register", hm.userHandler.Register)
	router.POST("/login", hm.userHandler.Login)
	router.POST("/get-user", hm.userHandler.GetUser)
	router.GET("/getAllstudents", hm.userHandler.ListUsers)
	router.GET("/users/export", hm.userHandler.ExportUsers)

	router.POST("/enrollCourse", hm.userHandler.EnrollCourse)
	router.POST("/updateStatus", hm.userHandler.UpdateStatus)
	router.POST("/removeEnroll", hm.userHandler.RemoveEnroll)

	router.POST("/approveTeacher", hm.userHandler.ApproveTeacher)
	router.GET("/unapprovedTeachers", hm.userHandler.UnapprovedTeachers)
}

// HealthCheck reports 503 when storage or cache is unreachable
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := hm.health.HealthCheck(ctx); err != nil {
		utils.GetLogger(c, hm.logger).Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   "enrollment-service",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "enrollment-service",
	})
}
