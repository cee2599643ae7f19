package fsrs

import "fmt"

// Weights holds the tunable FSRS coefficients, grouped by the formula they
// feed. Values are supplied by the caller; this package never trains them.
type Weights struct {
	DifficultyInit  DifficultyInitWeights  `json:"difficulty_init" yaml:"difficulty_init"`
	StabilityInit   StabilityInitWeights   `json:"stability_init" yaml:"stability_init"`
	DifficultyDelta DifficultyDeltaWeights `json:"difficulty_delta" yaml:"difficulty_delta"`
	RecallGrowth    RecallGrowthWeights    `json:"recall_growth" yaml:"recall_growth"`
	ForgetDecay     ForgetDecayWeights     `json:"forget_decay" yaml:"forget_decay"`
}

// DifficultyInitWeights parameterize the first-review difficulty.
// D₀(G) = Base + (3 - G) * RatingStep
type DifficultyInitWeights struct {
	Base       float64 `json:"base" yaml:"base"`
	RatingStep float64 `json:"rating_step" yaml:"rating_step"`
}

// StabilityInitWeights parameterize the first-review stability.
// S₀(G) = Base + RatingStep * (G - 1); Easy uses a multiplier of 4.
type StabilityInitWeights struct {
	Base       float64 `json:"base" yaml:"base"`
	RatingStep float64 `json:"rating_step" yaml:"rating_step"`
}

// DifficultyDeltaWeights parameterize the per-review difficulty adjustment.
// Again: D - AgainDrop; Hard: D - HardDrop; Good: unchanged; Easy: D + EasyRise.
type DifficultyDeltaWeights struct {
	AgainDrop float64 `json:"again_drop" yaml:"again_drop"`
	HardDrop  float64 `json:"hard_drop" yaml:"hard_drop"`
	EasyRise  float64 `json:"easy_rise" yaml:"easy_rise"`
}

// RecallGrowthWeights parameterize stability growth after a successful recall.
// S' = S * (1 + e^ScaleLog * (11-D) * e^(-ElapsedDecay*t) - HardPenalty*[G=Hard] - EasyBonus*[G=Easy])
type RecallGrowthWeights struct {
	ScaleLog     float64 `json:"scale_log" yaml:"scale_log"`
	ElapsedDecay float64 `json:"elapsed_decay" yaml:"elapsed_decay"`
	HardPenalty  float64 `json:"hard_penalty" yaml:"hard_penalty"`
	EasyBonus    float64 `json:"easy_bonus" yaml:"easy_bonus"`
}

// ForgetDecayWeights parameterize stability collapse after a lapse.
// S' = Scale * S^StabilityPower * (D + 1)^DifficultyPower * e^(-ElapsedDecay * t)
// multiplied by OverduePenalty only when t > S (strict).
type ForgetDecayWeights struct {
	Scale           float64 `json:"scale" yaml:"scale"`
	StabilityPower  float64 `json:"stability_power" yaml:"stability_power"`
	DifficultyPower float64 `json:"difficulty_power" yaml:"difficulty_power"`
	ElapsedDecay    float64 `json:"elapsed_decay" yaml:"elapsed_decay"`
	OverduePenalty  float64 `json:"overdue_penalty" yaml:"overdue_penalty"`
}

// DefaultWeights returns the FSRS-4.5 derived default coefficients.
func DefaultWeights() Weights {
	return Weights{
		DifficultyInit:  DifficultyInitWeights{Base: 5.0, RatingStep: -0.5},
		StabilityInit:   StabilityInitWeights{Base: -0.5, RatingStep: 0.2},
		DifficultyDelta: DifficultyDeltaWeights{AgainDrop: 1.4, HardDrop: -0.12, EasyRise: 0.8},
		RecallGrowth:    RecallGrowthWeights{ScaleLog: -0.2, ElapsedDecay: -0.2, HardPenalty: -0.2, EasyBonus: 1.0},
		ForgetDecay:     ForgetDecayWeights{Scale: -0.12, StabilityPower: 0.0, DifficultyPower: 1.1, ElapsedDecay: 1.0, OverduePenalty: -0.2},
	}
}

// WeightVectorLen is the length of the legacy flat weight layout.
// Slots 0, 1, 9 and 11 are reserved by that layout and unused here.
const WeightVectorLen = 20

// WeightsFromVector maps the legacy flat weight vector onto named groups.
// The vector must have at least WeightVectorLen entries.
func WeightsFromVector(v []float64) (Weights, error) {
	if len(v) < WeightVectorLen {
		return Weights{}, fmt.Errorf("%w: weight vector has %d entries, need %d",
			ErrInvalidConfig, len(v), WeightVectorLen)
	}
	return Weights{
		DifficultyInit:  DifficultyInitWeights{Base: v[2], RatingStep: v[3]},
		StabilityInit:   StabilityInitWeights{Base: v[4], RatingStep: v[5]},
		DifficultyDelta: DifficultyDeltaWeights{AgainDrop: v[6], HardDrop: v[7], EasyRise: v[8]},
		RecallGrowth:    RecallGrowthWeights{HardPenalty: v[10], EasyBonus: v[12], ScaleLog: v[13], ElapsedDecay: v[14]},
		ForgetDecay:     ForgetDecayWeights{Scale: v[15], StabilityPower: v[16], DifficultyPower: v[17], ElapsedDecay: v[18], OverduePenalty: v[19]},
	}, nil
}

// Vector returns the legacy flat layout of w. Reserved slots are zero.
func (w Weights) Vector() []float64 {
	v := make([]float64, WeightVectorLen)
	v[2], v[3] = w.DifficultyInit.Base, w.DifficultyInit.RatingStep
	v[4], v[5] = w.StabilityInit.Base, w.StabilityInit.RatingStep
	v[6], v[7], v[8] = w.DifficultyDelta.AgainDrop, w.DifficultyDelta.HardDrop, w.DifficultyDelta.EasyRise
	v[10], v[12] = w.RecallGrowth.HardPenalty, w.RecallGrowth.EasyBonus
	v[13], v[14] = w.RecallGrowth.ScaleLog, w.RecallGrowth.ElapsedDecay
	v[15], v[16], v[17] = w.ForgetDecay.Scale, w.ForgetDecay.StabilityPower, w.ForgetDecay.DifficultyPower
	v[18], v[19] = w.ForgetDecay.ElapsedDecay, w.ForgetDecay.OverduePenalty
	return v
}
