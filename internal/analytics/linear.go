package analytics

import (
	"fmt"
	"math"

	"hydrozap/internal/common"
)

// LinearPredictor is the built-in model set. Coefficients come from a
// linear refit of the trained regressors over the crop table bands.
type LinearPredictor struct{}

func NewLinearPredictor() *LinearPredictor {
	return &LinearPredictor{}
}

func (p *LinearPredictor) PredictTipburn(in TipburnInput) (TipburnPrediction, error) {
	conditions, ok := cropTable[in.CropType]
	if !ok {
		return TipburnPrediction{}, common.Validationf("Invalid crop_type")
	}

	// Tipburn risk rises with heat, dryness and nutrient strength
	// relative to the crop's preferred band.
	risk := 0.0
	risk += 0.08 * math.Max(0, in.Temperature-conditions.Temp[1])
	risk += 0.02 * math.Max(0, conditions.Humidity[0]-in.Humidity)
	risk += 0.25 * math.Max(0, in.EC-conditions.EC[1])
	risk += 0.15 * (math.Max(0, conditions.PH[0]-in.PH) + math.Max(0, in.PH-conditions.PH[1]))

	probability := 1 / (1 + math.Exp(-6*(risk-0.5)))
	absent := probability < 0.5
	confidence := probability
	if absent {
		confidence = 1 - probability
	}
	return TipburnPrediction{
		TipburnAbsent:   absent,
		ConfidenceLevel: round2(confidence),
	}, nil
}

func (p *LinearPredictor) PredictColorIndex(in ColorIndexInput) (float64, error) {
	// Leaf color index on a 1..5 scale, greener with maturity and
	// nutrient availability, paler under heat stress.
	index := 1.8 + 0.9*in.EC + 0.02*in.GrowthDays - 0.04*math.Max(0, in.Temperature-24) + 0.1*(in.PH-6.0)
	return round2(clamp(index, 1, 5)), nil
}

func (p *LinearPredictor) PredictLeafCount(in LeafCountInput) (int, error) {
	if _, ok := cropTable[in.CropType]; !ok {
		return 0, common.Validationf("Invalid crop_type")
	}

	count := 2 + 0.35*in.GrowthDays + 0.1*(in.Temperature-18) - 0.5*math.Abs(in.PH-6.0)
	if count < 0 {
		count = 0
	}
	return int(count), nil
}

func (p *LinearPredictor) SuggestCrop(in CropSuggestionInput) (CropSuggestion, error) {
	bestCrop := ""
	bestScore := math.Inf(1)
	for crop, conditions := range cropTable {
		score := distanceFromBand(in.Temperature, conditions.Temp)/5 +
			distanceFromBand(in.Humidity, conditions.Humidity)/10 +
			distanceFromBand(in.PH, conditions.PH) +
			distanceFromBand(in.EC, conditions.EC) +
			distanceFromBand(in.TDS, [2]float64{conditions.EC[0] * 700, conditions.EC[1] * 700})/350
		if score < bestScore || (score == bestScore && crop < bestCrop) {
			bestScore = score
			bestCrop = crop
		}
	}

	return CropSuggestion{
		SuggestedCrop: bestCrop,
		Recommendation: fmt.Sprintf(
			"Based on your current environmental conditions, we recommend growing %s for optimal results.",
			bestCrop,
		),
	}, nil
}

func (p *LinearPredictor) RecommendEnvironment(cropType, growthStage string) (EnvironmentRecommendation, error) {
	conditions, ok := cropTable[cropType]
	stageShift, stageOK := growthStages[growthStage]
	if !ok || !stageOK {
		return EnvironmentRecommendation{}, common.Validationf("Invalid crop_type or growth_stage")
	}

	// Start at the midpoint of each band and drift toward the upper
	// bound as the grow matures.
	env := Environment{
		Temperature: round2(midpoint(conditions.Temp) + stageShift),
		Humidity:    round2(midpoint(conditions.Humidity) - 2*stageShift),
		EC:          round2(midpoint(conditions.EC) + 0.2*stageShift),
		PH:          round2(midpoint(conditions.PH)),
	}

	return EnvironmentRecommendation{
		RecommendedEnvironment: env,
		Recommendation: fmt.Sprintf(
			"For %s at the %s stage, maintain around %v°C, %v%% humidity, EC %v, and pH %v.",
			cropType, growthStage, env.Temperature, env.Humidity, env.EC, env.PH,
		),
	}, nil
}

func distanceFromBand(value float64, band [2]float64) float64 {
	if value < band[0] {
		return band[0] - value
	}
	if value > band[1] {
		return value - band[1]
	}
	return 0
}

func midpoint(band [2]float64) float64 {
	return (band[0] + band[1]) / 2
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
