package media

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"hydrozap/internal/common"
)

const maxPhotoBytes = 10 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Upload stores a grow photo from a multipart form
// POST /api/grows/:grow_id/photo/
func (h *Handler) Upload(c *gin.Context) {
	growID := c.Param("grow_id")

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Photo file is required"})
		return
	}
	defer file.Close()

	if header.Size > maxPhotoBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Photo exceeds the 10MB limit"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read photo"})
		return
	}

	key, err := h.service.UploadGrowPhoto(c.Request.Context(), growID, data, header.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":   "Photo uploaded successfully",
		"photo_key": key,
	})
}

// Photo streams the latest grow photo
// GET /api/grows/:grow_id/photo/
func (h *Handler) Photo(c *gin.Context) {
	growID := c.Param("grow_id")

	data, contentType, err := h.service.GrowPhoto(c.Request.Context(), growID)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

// Delete removes the grow photo
// DELETE /api/grows/:grow_id/photo/
func (h *Handler) Delete(c *gin.Context) {
	growID := c.Param("grow_id")

	if err := h.service.DeleteGrowPhoto(c.Request.Context(), growID); err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Photo deleted successfully"})
}
