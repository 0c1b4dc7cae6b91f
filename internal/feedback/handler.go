package feedback

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

// Submit stores a feedback entry
// POST /api/feedback/
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	feedbackID, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":     "Feedback sent successfully!",
		"feedback_id": feedbackID,
	})
}
