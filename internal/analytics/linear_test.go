package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydrozap/internal/common"
)

func TestPredictTipburnInBandConditions(t *testing.T) {
	p := NewLinearPredictor()

	prediction, err := p.PredictTipburn(TipburnInput{
		Temperature: 20,
		Humidity:    60,
		EC:          1.2,
		PH:          6.2,
		CropType:    "Lettuce",
	})
	require.NoError(t, err)
	assert.True(t, prediction.TipburnAbsent)
	assert.GreaterOrEqual(t, prediction.ConfidenceLevel, 0.5)
	assert.LessOrEqual(t, prediction.ConfidenceLevel, 1.0)
}

func TestPredictTipburnStressedConditions(t *testing.T) {
	p := NewLinearPredictor()

	prediction, err := p.PredictTipburn(TipburnInput{
		Temperature: 34,
		Humidity:    30,
		EC:          3.5,
		PH:          4.5,
		CropType:    "Lettuce",
	})
	require.NoError(t, err)
	assert.False(t, prediction.TipburnAbsent)
	assert.GreaterOrEqual(t, prediction.ConfidenceLevel, 0.5)
}

func TestPredictTipburnUnknownCrop(t *testing.T) {
	p := NewLinearPredictor()

	_, err := p.PredictTipburn(TipburnInput{CropType: "Cactus"})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestPredictColorIndexClamped(t *testing.T) {
	p := NewLinearPredictor()

	low, err := p.PredictColorIndex(ColorIndexInput{EC: 0, PH: 6.0, GrowthDays: 0, Temperature: 40})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, low, 1.0)

	high, err := p.PredictColorIndex(ColorIndexInput{EC: 5, PH: 7.0, GrowthDays: 120, Temperature: 20})
	require.NoError(t, err)
	assert.Equal(t, 5.0, high)
}

func TestPredictLeafCountGrowsWithDays(t *testing.T) {
	p := NewLinearPredictor()

	young, err := p.PredictLeafCount(LeafCountInput{CropType: "Lettuce", GrowthDays: 10, Temperature: 20, PH: 6.0})
	require.NoError(t, err)
	mature, err := p.PredictLeafCount(LeafCountInput{CropType: "Lettuce", GrowthDays: 40, Temperature: 20, PH: 6.0})
	require.NoError(t, err)
	assert.Greater(t, mature, young)

	_, err = p.PredictLeafCount(LeafCountInput{CropType: "Cactus"})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestSuggestCropPicksInBandCrop(t *testing.T) {
	p := NewLinearPredictor()

	// Squarely inside the Pechay bands and outside the cooler crops.
	suggestion, err := p.SuggestCrop(CropSuggestionInput{
		Temperature: 26,
		Humidity:    65,
		PH:          6.5,
		EC:          1.6,
		TDS:         1120,
	})
	require.NoError(t, err)
	assert.Equal(t, "Pechay", suggestion.SuggestedCrop)
	assert.Contains(t, suggestion.Recommendation, "Pechay")
}

func TestRecommendEnvironment(t *testing.T) {
	p := NewLinearPredictor()

	rec, err := p.RecommendEnvironment("Lettuce", "vegetative")
	require.NoError(t, err)
	assert.Equal(t, 21.0, rec.RecommendedEnvironment.Temperature)
	assert.Equal(t, 60.0, rec.RecommendedEnvironment.Humidity)
	assert.Equal(t, 6.0, rec.RecommendedEnvironment.PH)
	assert.Contains(t, rec.Recommendation, "Lettuce")
	assert.Contains(t, rec.Recommendation, "vegetative")

	rec, err = p.RecommendEnvironment("Lettuce", "maturation")
	require.NoError(t, err)
	assert.Equal(t, 21.5, rec.RecommendedEnvironment.Temperature)

	_, err = p.RecommendEnvironment("Lettuce", "seedling")
	require.ErrorIs(t, err, common.ErrValidation)
}
