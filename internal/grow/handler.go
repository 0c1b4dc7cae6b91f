package grow

import (
	"errors"
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

func conflictResponse(c *gin.Context, conflict *DeviceConflictError) {
	c.JSON(http.StatusConflict, gin.H{
		"error":     conflict.Error(),
		"device_id": conflict.DeviceID,
		"grow_id":   conflict.GrowID,
	})
}

// Create starts a new grow on a device
// POST /api/grows/
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	grow, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		var conflict *DeviceConflictError
		if errors.As(err, &conflict) {
			conflictResponse(c, conflict)
			return
		}
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Grow record added successfully",
		"grow_id": req.GrowID,
		"grow":    grow,
	})
}

// Get returns one grow or the full list
// GET /api/grows/ and GET /api/grows/:grow_id/
func (h *Handler) Get(c *gin.Context) {
	growID := c.Param("grow_id")
	ctx := c.Request.Context()

	if growID != "" {
		grow, err := h.service.Get(ctx, growID)
		if err != nil {
			c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, grow)
		return
	}

	grows, err := h.service.List(ctx)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"grows": grows})
}

// Update patches a grow record
// PUT /api/grows/:grow_id/
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	grow, err := h.service.Update(c.Request.Context(), c.Param("grow_id"), req)
	if err != nil {
		var conflict *DeviceConflictError
		if errors.As(err, &conflict) {
			conflictResponse(c, conflict)
			return
		}
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Grow record updated successfully", "grow": grow})
}

// Delete removes a harvested grow
// DELETE /api/grows/:grow_id/
func (h *Handler) Delete(c *gin.Context) {
	growID := c.Param("grow_id")
	err := h.service.Delete(c.Request.Context(), growID)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "Cannot delete an active grow",
				"message": "This grow is still active. Please harvest it first before deletion.",
				"grow_id": growID,
			})
			return
		}
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Grow record deleted successfully"})
}

// Count returns the user's active grow count
// GET /api/grow-count/:user_id/
func (h *Handler) Count(c *gin.Context) {
	count, err := h.service.ActiveCount(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"grow_count": count})
}

// Readiness reports harvest progress for a grow
// GET /api/harvest-readiness/:grow_id/
func (h *Handler) Readiness(c *gin.Context) {
	readiness, err := h.service.Readiness(c.Request.Context(), c.Param("grow_id"))
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, readiness)
}

// RecordHarvest writes a harvest log and completes the grow
// POST /api/harvest-logs/:device_id/ and /api/harvest-logs/:device_id/:grow_id/
func (h *Handler) RecordHarvest(c *gin.Context) {
	var req HarvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.GrowID == "" {
		req.GrowID = c.Param("grow_id")
	}

	entry, err := h.service.RecordHarvest(c.Request.Context(), c.Param("device_id"), req)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Harvest log created",
		"log_id":  entry.LogID,
		"log":     entry,
	})
}

// HarvestLogs lists harvest logs for a device
// GET /api/harvest-logs/:device_id/ and /api/harvest-logs/:device_id/:grow_id/
func (h *Handler) HarvestLogs(c *gin.Context) {
	logs, err := h.service.HarvestLogs(c.Request.Context(), c.Param("device_id"), c.Param("grow_id"))
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// Leaderboard returns the global harvest leaderboard
// GET /api/global-leaderboard/
func (h *Handler) Leaderboard(c *gin.Context) {
	entries, err := h.service.Leaderboard(c.Request.Context())
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
