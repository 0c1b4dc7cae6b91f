package notify

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hydrozap/internal/common"
)

type Handler struct {
	dispatcher *Dispatcher
}

func NewHandler(dispatcher *Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

type tokenRequest struct {
	UserID   string `json:"user_id"`
	FCMToken string `json:"fcm_token"`
}

// RegisterToken stores a push token for a user
// POST /api/fcm-token/
func (h *Handler) RegisterToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" || req.FCMToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID and FCM token are required"})
		return
	}

	if err := h.dispatcher.RegisterToken(c.Request.Context(), req.UserID, req.FCMToken); err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "FCM token registered successfully",
		"user_id": req.UserID,
	})
}

// UnregisterToken removes a push token
// DELETE /api/fcm-token/
func (h *Handler) UnregisterToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" || req.FCMToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID and FCM token are required"})
		return
	}

	if err := h.dispatcher.UnregisterToken(c.Request.Context(), req.UserID, req.FCMToken); err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "FCM token unregistered successfully",
		"user_id": req.UserID,
	})
}

// TestNotification sends a direct test push
// POST /api/test-fcm/
func (h *Handler) TestNotification(c *gin.Context) {
	var req struct {
		UserID string            `json:"user_id"`
		Title  string            `json:"title"`
		Body   string            `json:"body"`
		Data   map[string]string `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	if req.Title == "" {
		req.Title = "Test Notification"
	}
	if req.Body == "" {
		req.Body = "This is a test notification from HydroZap"
	}

	result := h.dispatcher.SendToUser(c.Request.Context(), req.UserID, req.Title, req.Body, req.Data)
	c.JSON(http.StatusOK, gin.H{
		"message": "Test notification sent",
		"result":  result,
	})
}

// GetPreferences returns the user's notification preferences
// GET /api/notification-preferences/:user_id/
func (h *Handler) GetPreferences(c *gin.Context) {
	prefs, err := h.dispatcher.Preferences(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	if len(prefs) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No preferences found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": prefs})
}

// UpdatePreferences merges notification preference keys
// POST /api/update-notification-preferences/
func (h *Handler) UpdatePreferences(c *gin.Context) {
	var req struct {
		UserID      string         `json:"user_id"`
		Preferences map[string]any `json:"preferences"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}
	if len(req.Preferences) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Preferences data is required"})
		return
	}

	if err := h.dispatcher.UpdatePreferences(c.Request.Context(), req.UserID, req.Preferences); err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Notification preferences updated successfully",
		"user_id": req.UserID,
	})
}
