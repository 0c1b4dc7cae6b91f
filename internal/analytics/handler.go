package analytics

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hydrozap/internal/common"
)

type Handler struct {
	predictor Predictor
}

func NewHandler(predictor Predictor) *Handler {
	return &Handler{predictor: predictor}
}

// Tipburn estimates tipburn risk for the given conditions
// POST /api/predict/tipburn/
func (h *Handler) Tipburn(c *gin.Context) {
	var req struct {
		Temperature *float64 `json:"temperature"`
		Humidity    *float64 `json:"humidity"`
		EC          *float64 `json:"ec"`
		PH          *float64 `json:"ph"`
		CropType    *string  `json:"crop_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Temperature == nil || req.Humidity == nil || req.EC == nil || req.PH == nil || req.CropType == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing input values"})
		return
	}

	prediction, err := h.predictor.PredictTipburn(TipburnInput{
		Temperature: *req.Temperature,
		Humidity:    *req.Humidity,
		EC:          *req.EC,
		PH:          *req.PH,
		CropType:    *req.CropType,
	})
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prediction)
}

// ColorIndex predicts the leaf color index
// POST /api/predict/color-index/
func (h *Handler) ColorIndex(c *gin.Context) {
	var req struct {
		EC          *float64 `json:"ec"`
		PH          *float64 `json:"ph"`
		GrowthDays  *float64 `json:"growth_days"`
		Temperature *float64 `json:"temperature"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.EC == nil || req.PH == nil || req.GrowthDays == nil || req.Temperature == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing input values"})
		return
	}

	index, err := h.predictor.PredictColorIndex(ColorIndexInput{
		EC:          *req.EC,
		PH:          *req.PH,
		GrowthDays:  *req.GrowthDays,
		Temperature: *req.Temperature,
	})
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaf_color_index": index})
}

// LeafCount predicts the leaf count
// POST /api/predict/leaf-count/
func (h *Handler) LeafCount(c *gin.Context) {
	var req struct {
		CropType    *string  `json:"crop_type"`
		GrowthDays  *float64 `json:"growth_days"`
		Temperature *float64 `json:"temperature"`
		PH          *float64 `json:"ph"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.CropType == nil || req.GrowthDays == nil || req.Temperature == nil || req.PH == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing input values"})
		return
	}

	count, err := h.predictor.PredictLeafCount(LeafCountInput{
		CropType:    *req.CropType,
		GrowthDays:  *req.GrowthDays,
		Temperature: *req.Temperature,
		PH:          *req.PH,
	})
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaf_count": count})
}

// CropSuggestion picks the best matching crop for the readings
// POST /api/predict/crop-suggestion/
func (h *Handler) CropSuggestion(c *gin.Context) {
	var req struct {
		Temperature *float64 `json:"temperature"`
		Humidity    *float64 `json:"humidity"`
		PH          *float64 `json:"ph"`
		EC          *float64 `json:"ec"`
		TDS         *float64 `json:"tds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Temperature == nil || req.Humidity == nil || req.PH == nil || req.EC == nil || req.TDS == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing input values"})
		return
	}

	suggestion, err := h.predictor.SuggestCrop(CropSuggestionInput{
		Temperature: *req.Temperature,
		Humidity:    *req.Humidity,
		PH:          *req.PH,
		EC:          *req.EC,
		TDS:         *req.TDS,
	})
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

// EnvironmentRecommendation returns target conditions for a crop and stage
// POST /api/predict/environment-recommendation/
func (h *Handler) EnvironmentRecommendation(c *gin.Context) {
	var req struct {
		CropType    *string `json:"crop_type"`
		GrowthStage *string `json:"growth_stage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.CropType == nil || req.GrowthStage == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing input values"})
		return
	}

	recommendation, err := h.predictor.RecommendEnvironment(*req.CropType, *req.GrowthStage)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, recommendation)
}
