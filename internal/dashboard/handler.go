package dashboard

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

// Counts returns the home screen totals for a user
// GET /api/dashboard-counts/?user_id=
func (h *Handler) Counts(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}

	counts, err := h.service.Counts(c.Request.Context(), userID)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, counts)
}
