package device

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

// Register claims a provisioned device for a user
// POST /api/devices/
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Device ID and User ID are required"})
		return
	}

	device, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Device registered successfully",
		"device_id": req.DeviceID,
		"device":    device,
	})
}

// Get returns one device, or all of a user's devices when ?user_id= is set
// GET /api/devices/ and GET /api/devices/:device_id/
func (h *Handler) Get(c *gin.Context) {
	deviceID := c.Param("device_id")
	userID := c.Query("user_id")

	ctx := c.Request.Context()

	if userID != "" {
		devices, err := h.service.ListByUser(ctx, userID)
		if err != nil {
			c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"devices": devices, "device_count": len(devices)})
		return
	}

	if deviceID != "" {
		device, err := h.service.Get(ctx, deviceID)
		if err != nil {
			c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"device_data": device})
		return
	}

	devices, err := h.service.ListAll(ctx)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices, "device_count": len(devices)})
}

// Count returns how many devices a user owns
// GET /api/device-count/?user_id=
func (h *Handler) Count(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}

	devices, err := h.service.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"device_count": len(devices)})
}

// UpdateRuntime applies emergency stop, auto dose and actuator commands
// PUT /api/devices/:device_id/
func (h *Handler) UpdateRuntime(c *gin.Context) {
	var req RuntimeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	device, err := h.service.UpdateRuntime(c.Request.Context(), c.Param("device_id"), req)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device updated successfully", "device": device})
}

// Patch updates user-editable device fields
// PATCH /api/devices/:device_id/
func (h *Handler) Patch(c *gin.Context) {
	var req PatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	device, err := h.service.Patch(c.Request.Context(), c.Param("device_id"), req)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device updated successfully", "device": device})
}

// CurrentThresholds resolves and caches stage thresholds for the active grow
// GET /api/devices/:device_id/current_thresholds/
func (h *Handler) CurrentThresholds(c *gin.Context) {
	thresholds, err := h.service.CurrentThresholds(c.Request.Context(), c.Param("device_id"))
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, thresholds)
}

// CheckDelete reports whether the device can be deleted
// GET /api/devices/:device_id/check/
func (h *Handler) CheckDelete(c *gin.Context) {
	deviceID := c.Param("device_id")
	ctx := c.Request.Context()

	if _, err := h.service.Get(ctx, deviceID); err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	blocking, err := h.service.BlockingGrows(ctx, deviceID)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	if len(blocking) > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error":        "Cannot delete device that is assigned to active grows",
			"message":      "This device is currently assigned to one or more grows. Please harvest or deactivate the grows first.",
			"active_grows": blocking,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device can be deleted"})
}

// Delete removes a device that no unharvested grow references
// DELETE /api/devices/:device_id/
func (h *Handler) Delete(c *gin.Context) {
	deviceID := c.Param("device_id")
	ctx := c.Request.Context()

	err := h.service.Delete(ctx, deviceID)
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			blocking, listErr := h.service.BlockingGrows(ctx, deviceID)
			if listErr == nil {
				c.JSON(http.StatusConflict, gin.H{
					"error":        "Cannot delete device that is assigned to active grows",
					"message":      "This device is currently assigned to one or more grows. Please harvest or deactivate the grows first.",
					"active_grows": blocking,
				})
				return
			}
		}
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device deleted successfully"})
}
