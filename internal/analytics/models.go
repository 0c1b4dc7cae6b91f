package analytics

// CropConditions holds the preferred environment bands for one crop.
type CropConditions struct {
	Temp     [2]float64
	Humidity [2]float64
	PH       [2]float64
	EC       [2]float64
}

// cropTable lists the leafy greens the suggestion endpoints know about.
var cropTable = map[string]CropConditions{
	"Arugula":        {Temp: [2]float64{16, 22}, Humidity: [2]float64{60, 75}, PH: [2]float64{6.0, 7.0}, EC: [2]float64{0.8, 1.2}},
	"Cabbage":        {Temp: [2]float64{15, 24}, Humidity: [2]float64{60, 80}, PH: [2]float64{6.0, 6.8}, EC: [2]float64{1.2, 2.0}},
	"Kale":           {Temp: [2]float64{16, 24}, Humidity: [2]float64{55, 75}, PH: [2]float64{5.5, 6.5}, EC: [2]float64{1.4, 2.0}},
	"Lettuce":        {Temp: [2]float64{18, 24}, Humidity: [2]float64{50, 70}, PH: [2]float64{5.5, 6.5}, EC: [2]float64{0.8, 1.8}},
	"Mustard Greens": {Temp: [2]float64{18, 25}, Humidity: [2]float64{55, 75}, PH: [2]float64{6.0, 7.0}, EC: [2]float64{1.0, 1.8}},
	"Pechay":         {Temp: [2]float64{20, 28}, Humidity: [2]float64{55, 75}, PH: [2]float64{6.0, 7.0}, EC: [2]float64{1.2, 2.0}},
	"Spinach":        {Temp: [2]float64{16, 22}, Humidity: [2]float64{60, 80}, PH: [2]float64{6.0, 7.0}, EC: [2]float64{1.5, 2.0}},
}

// growthStages are the lifecycle phases the environment model accepts.
var growthStages = map[string]float64{
	"transplanting": -0.5,
	"vegetative":    0.0,
	"maturation":    0.5,
}

type TipburnInput struct {
	Temperature float64
	Humidity    float64
	EC          float64
	PH          float64
	CropType    string
}

type TipburnPrediction struct {
	TipburnAbsent   bool    `json:"tipburn_absent"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

type ColorIndexInput struct {
	EC          float64
	PH          float64
	GrowthDays  float64
	Temperature float64
}

type LeafCountInput struct {
	CropType    string
	GrowthDays  float64
	Temperature float64
	PH          float64
}

type CropSuggestionInput struct {
	Temperature float64
	Humidity    float64
	PH          float64
	EC          float64
	TDS         float64
}

type CropSuggestion struct {
	SuggestedCrop  string `json:"suggested_crop"`
	Recommendation string `json:"recommendation"`
}

type Environment struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	EC          float64 `json:"ec"`
	PH          float64 `json:"ph"`
}

type EnvironmentRecommendation struct {
	RecommendedEnvironment Environment `json:"recommended_environment"`
	Recommendation         string      `json:"recommendation"`
}

// Predictor produces crop health estimates from environmental features.
// The default implementation is a set of fitted linear models; callers
// can swap in an external model service without touching the handlers.
type Predictor interface {
	PredictTipburn(in TipburnInput) (TipburnPrediction, error)
	PredictColorIndex(in ColorIndexInput) (float64, error)
	PredictLeafCount(in LeafCountInput) (int, error)
	SuggestCrop(in CropSuggestionInput) (CropSuggestion, error)
	RecommendEnvironment(cropType, growthStage string) (EnvironmentRecommendation, error)
}
