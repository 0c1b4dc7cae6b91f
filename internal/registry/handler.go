package registry

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

// Provision adds a device identity to the registry
// POST /api/registered-devices/
func (h *Handler) Provision(c *gin.Context) {
	var req ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "device_id and model are required"})
		return
	}

	device, err := h.service.Provision(c.Request.Context(), req)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Device registered",
		"device_id": req.DeviceID,
		"device":    device,
	})
}

// List returns all registry entries
// GET /api/registered-devices/
func (h *Handler) List(c *gin.Context) {
	devices, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"registered_devices": devices})
}

// Validate checks whether a device ID can be claimed
// GET /api/registered-devices/:device_id/validate/
func (h *Handler) Validate(c *gin.Context) {
	deviceID := c.Param("device_id")

	ok, reason, err := h.service.Validate(c.Request.Context(), deviceID)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"valid": false, "reason": reason})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}
