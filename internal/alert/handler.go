package alert

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hydrozap/internal/common"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Trigger raises a manual alert
// POST /api/alerts/
func (h *Handler) Trigger(c *gin.Context) {
	var req TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id, device_id, and message are required"})
		return
	}

	alertID, alertData, report, err := h.service.Trigger(c.Request.Context(), req)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":          "Alert triggered successfully",
		"alert_id":         alertID,
		"alert":            alertData,
		"fcm_result":       report,
		"suggested_action": SuggestedAction(alertData.AlertType),
	})
}

// Get returns one alert or the user's full list
// GET /api/alerts/:user_id/ and GET /api/alerts/:user_id/:alert_id/
func (h *Handler) Get(c *gin.Context) {
	userID := c.Param("user_id")
	alertID := c.Param("alert_id")
	ctx := c.Request.Context()

	if alertID != "" {
		alert, err := h.service.Get(ctx, userID, alertID)
		if err != nil {
			c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"alert": alert})
		return
	}

	alerts, err := h.service.List(ctx, userID)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// Count returns the user's alert count
// GET /api/alert-count/:user_id/
func (h *Handler) Count(c *gin.Context) {
	count, err := h.service.Count(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alert_count": count})
}

// Update flips an alert's read status
// PUT /api/alerts/:user_id/:alert_id/
func (h *Handler) Update(c *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	alert, err := h.service.UpdateStatus(c.Request.Context(), c.Param("user_id"), c.Param("alert_id"), req.Status)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Alert updated successfully", "alert": alert})
}

// Delete removes one alert
// DELETE /api/alerts/:user_id/:alert_id/
func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("user_id"), c.Param("alert_id")); err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Alert deleted successfully"})
}
