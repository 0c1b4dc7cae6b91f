package profile

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

// CreatePlant adds a plant profile
// POST /api/plant-profiles/
func (h *Handler) CreatePlant(c *gin.Context) {
	var req CreatePlantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	plant, err := h.service.CreatePlant(c.Request.Context(), req)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":       "Plant profile added successfully",
		"plant_profile": plant,
	})
}

// GetPlant returns one plant profile
// GET /api/plant-profiles/:identifier/
func (h *Handler) GetPlant(c *gin.Context) {
	plant, err := h.service.GetPlant(c.Request.Context(), c.Param("identifier"), c.Query("user_id"))
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plant_profile": plant})
}

// ListPlants returns the user's own plus public plant profiles
// GET /api/plant-profiles/
func (h *Handler) ListPlants(c *gin.Context) {
	plants, err := h.service.ListPlants(c.Request.Context(), c.Query("user_id"))
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plant_profiles": plants})
}

// PatchPlant updates plant profile fields
// PATCH /api/plant-profiles/:identifier/
func (h *Handler) PatchPlant(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	plant, err := h.service.PatchPlant(c.Request.Context(), c.Param("identifier"), c.Query("user_id"), fields)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Plant profile updated successfully",
		"plant_profile": plant,
	})
}

// DeletePlant removes a plant profile
// DELETE /api/plant-profiles/:identifier/
func (h *Handler) DeletePlant(c *gin.Context) {
	if err := h.service.DeletePlant(c.Request.Context(), c.Param("identifier")); err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Plant profile deleted successfully"})
}

// CreateGrowProfile adds a grow profile
// POST /api/grow-profiles/
func (h *Handler) CreateGrowProfile(c *gin.Context) {
	var req CreateGrowProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	profileID, profile, err := h.service.CreateGrowProfile(c.Request.Context(), req)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":      "Grow profile created successfully",
		"profile_id":   profileID,
		"grow_profile": profile,
	})
}

// ListGrowProfiles returns the user's grow profiles
// GET /api/grow-profiles/
func (h *Handler) ListGrowProfiles(c *gin.Context) {
	profiles, err := h.service.ListGrowProfiles(c.Request.Context(), c.Query("user_id"))
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"grow_profiles": profiles})
}

// GetGrowProfile returns one grow profile
// GET /api/grow-profiles/:profile_id/
func (h *Handler) GetGrowProfile(c *gin.Context) {
	profile, err := h.service.GetGrowProfile(c.Request.Context(), c.Param("profile_id"))
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"grow_profile": profile})
}

// UpdateGrowProfile replaces basic fields and merges stage conditions
// PUT /api/grow-profiles/:profile_id/
func (h *Handler) UpdateGrowProfile(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	profileID := c.Param("profile_id")
	profile, err := h.service.UpdateGrowProfile(c.Request.Context(), profileID, fields)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Grow profile updated successfully",
		"profile_id":   profileID,
		"grow_profile": profile,
	})
}

// PatchGrowProfile merges arbitrary stage parameters
// PATCH /api/grow-profiles/:profile_id/
func (h *Handler) PatchGrowProfile(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	profileID := c.Param("profile_id")
	profile, err := h.service.PatchGrowProfile(c.Request.Context(), profileID, fields)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Grow profile partially updated successfully",
		"profile_id":   profileID,
		"grow_profile": profile,
	})
}

// DeleteGrowProfile removes an inactive grow profile
// DELETE /api/grow-profiles/:profile_id/
func (h *Handler) DeleteGrowProfile(c *gin.Context) {
	if err := h.service.DeleteGrowProfile(c.Request.Context(), c.Param("profile_id")); err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Grow profile deleted successfully"})
}
