package fsrs

import "math"

// minStability is the floor applied to every computed stability.
// Keeps the stability > 0 invariant through the documented clamps.
const minStability = 0.1

// formulas evaluates the FSRS update rules for a fixed weight set.
type formulas struct {
	w Weights
}

// initDifficulty returns the first-review difficulty.
// D₀(G) = Base + (3 - G) * RatingStep, clamped to [1, 10].
func (f *formulas) initDifficulty(r Rating) float64 {
	return clampDifficulty(f.w.DifficultyInit.Base + (3-float64(r))*f.w.DifficultyInit.RatingStep)
}

// initStability returns the first-review stability.
// S₀(G) = Base + RatingStep * (G - 1); Easy uses the distinct multiplier 4.
func (f *formulas) initStability(r Rating) float64 {
	mult := float64(r - 1)
	if r == Easy {
		mult = 4
	}
	return clampStability(f.w.StabilityInit.Base + f.w.StabilityInit.RatingStep*mult)
}

// nextDifficulty returns the post-review difficulty, clamped to [1, 10].
// Again and Hard shift by their drop weights, Good leaves it unchanged,
// Easy shifts up by the rise weight.
func (f *formulas) nextDifficulty(d float64, r Rating) float64 {
	switch r {
	case Again:
		d -= f.w.DifficultyDelta.AgainDrop
	case Hard:
		d -= f.w.DifficultyDelta.HardDrop
	case Easy:
		d += f.w.DifficultyDelta.EasyRise
	}
	return clampDifficulty(d)
}

// nextRecallStability returns the stability after a successful recall.
// S' = S * (1 + e^ScaleLog * (11-D) * e^(-ElapsedDecay*t) - HardPenalty*[G=Hard] - EasyBonus*[G=Easy])
func (f *formulas) nextRecallStability(s, d float64, elapsedDays int, r Rating) float64 {
	g := f.w.RecallGrowth
	growth := math.Exp(g.ScaleLog) * (11 - d) * math.Exp(-g.ElapsedDecay*float64(elapsedDays))
	adjust := 0.0
	switch r {
	case Hard:
		adjust = g.HardPenalty
	case Easy:
		adjust = g.EasyBonus
	}
	return clampStability(s * (1 + growth - adjust))
}

// nextForgetStability returns the stability after a lapse.
// S' = Scale * S^StabilityPower * (D+1)^DifficultyPower * e^(-ElapsedDecay*t)
// The overdue penalty applies only when the lapse came after the predicted
// retrievability point, i.e. t > S strictly.
func (f *formulas) nextForgetStability(s, d float64, elapsedDays int) float64 {
	fd := f.w.ForgetDecay
	next := fd.Scale *
		math.Pow(s, fd.StabilityPower) *
		math.Pow(d+1, fd.DifficultyPower) *
		math.Exp(-fd.ElapsedDecay*float64(elapsedDays))
	if float64(elapsedDays) > s {
		next *= fd.OverduePenalty
	}
	return clampStability(next)
}

// nextInterval inverts the forgetting curve at the requested retention.
// I(S) = round(S * 9 * (1/retention - 1)), clamped to [1, maxInterval] days.
func (f *formulas) nextInterval(s, retention float64, maxInterval int) int {
	ivl := int(math.Round(s * 9 * (1/retention - 1)))
	if ivl < 1 {
		return 1
	}
	if ivl > maxInterval {
		return maxInterval
	}
	return ivl
}

// clampStability floors stability at minStability.
func clampStability(s float64) float64 {
	return math.Max(s, minStability)
}

// clampDifficulty clamps difficulty to [1, 10].
func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}
