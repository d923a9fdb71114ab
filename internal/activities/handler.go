package activities

import (
	"net/http"

	"github.com/IoTReady/iotready-godesi/internal/users"
	custom_error "github.com/IoTReady/iotready-godesi/pkg/errors"
	"github.com/IoTReady/iotready-godesi/pkg/models"

	"github.com/gin-gonic/gin"
)

// AuditTrail reads persisted audit entries; implemented by the audit
// log repository.
type AuditTrail interface {
	GetResourceLog(id string, resourceType string) (*[]models.AuditLog, error)
}

type ActivitiesHandler struct {
	Service *ActivityService
	Users   users.UserRepository
	Audit   AuditTrail
}

func NewHandler(service *ActivityService, userRepo users.UserRepository, audit AuditTrail) *ActivitiesHandler {
	return &ActivitiesHandler{
		Service: service,
		Users:   userRepo,
		Audit:   audit,
	}
}

func (h *ActivitiesHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/sessions", h.CreateSession)
	router.POST("/sessions/:id/submit", h.SubmitSession)
	router.GET("/sessions/:id/summary", h.GetSessionSummary)
	router.POST("/activity", h.RecordActivity)
	router.GET("/configuration", h.GetConfiguration)
	router.GET("/crates/:id/history", h.GetCrateHistory)
}

type createSessionRequest struct {
	Activity string         `json:"activity" binding:"required"`
	Metadata map[string]any `json:"metadata"`
}

func (h *ActivitiesHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.BindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	sessionID, requirements, err := h.Service.CreateSession(req.Activity, user, req.Metadata)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":   sessionID,
		"activity":     req.Activity,
		"requirements": requirements,
	})
}

func (h *ActivitiesHandler) RecordActivity(c *gin.Context) {
	var req models.RecordActivityRequest
	if err := c.BindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	c.JSON(http.StatusOK, h.Service.RecordActivity(req))
}

func (h *ActivitiesHandler) SubmitSession(c *gin.Context) {
	completed, err := h.Service.SubmitSession(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Session submitted successfully",
		"completed": len(completed),
	})
}

func (h *ActivitiesHandler) GetSessionSummary(c *gin.Context) {
	summary, err := h.Service.GetSessionSummary(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *ActivitiesHandler) GetConfiguration(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	configuration, err := h.Service.BuildConfiguration(user)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, configuration)
}

// GetCrateHistory returns the audit trail recorded against a crate,
// oldest entry first.
func (h *ActivitiesHandler) GetCrateHistory(c *gin.Context) {
	crateID := c.Param("id")
	entries, err := h.Audit.GetResourceLog(crateID, "crate_activity")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to load crate history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"crate_id": crateID,
		"history":  entries,
	})
}

// currentUser resolves the authenticated user from the username claim
// the JWT middleware stored on the context.
func (h *ActivitiesHandler) currentUser(c *gin.Context) (*models.User, bool) {
	username, ok := c.Get("username")
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing authentication context"})
		return nil, false
	}

	name, ok := username.(string)
	if !ok || name == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing authentication context"})
		return nil, false
	}

	user, err := h.Users.GetUserByUsername(name)
	if err != nil || user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unable to resolve user"})
		return nil, false
	}

	return user, true
}

func statusFor(err error) int {
	switch custom_error.KindOf(err) {
	case custom_error.KindSessionExpired:
		return http.StatusUnauthorized
	case custom_error.KindNotFound:
		return http.StatusNotFound
	case custom_error.KindStateConflict:
		return http.StatusConflict
	case custom_error.KindMissingInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
