package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hydrozap/internal/common"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register creates a new account
// POST /api/register/
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	uid, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"uid":     uid,
	})
}

// Login authenticates by email or username
// POST /api/login/
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	token, uid, profile, err := h.service.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"uid":      uid,
			"name":     profile.Name,
			"email":    profile.Email,
			"username": profile.Username,
			"phone":    profile.Phone,
		},
	})
}

// ResetPassword emails a password reset link
// POST /api/reset-password/
func (h *Handler) ResetPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required."})
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req.Email); err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reset link sent to email."})
}

// GetProfile returns the stored user record
// GET /api/user-profile/?uid=
func (h *Handler) GetProfile(c *gin.Context) {
	uid := c.Query("uid")
	if uid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "UID is required"})
		return
	}

	profile, err := h.service.Profile(c.Request.Context(), uid)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"uid":      uid,
		"name":     profile.Name,
		"email":    profile.Email,
		"username": profile.Username,
		"phone":    profile.Phone,
	})
}

// UpdateProfile patches the user record and, with a bearer token, the
// account password
// PATCH /api/user-profile/
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req struct {
		UID string `json:"uid"`
		ProfilePatch
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.UID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "UID is required"})
		return
	}

	idToken := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if err := h.service.UpdateProfile(c.Request.Context(), req.UID, idToken, req.ProfilePatch); err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User profile updated successfully"})
}
