package fsrs

import (
	"fmt"
	"time"
)

// Engine computes memory state transitions for the FSRS model.
// It is a pure function of its inputs: safe for concurrent use,
// it mutates no shared state and never touches the clock itself.
type Engine struct {
	cfg Config
	f   formulas
}

// NewEngine creates an Engine from the given config.
// Zero-value fields are filled with defaults; invalid values return an error.
func NewEngine(cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, f: formulas{w: *cfg.Weights}}, nil
}

// Config returns the engine's effective (post-default) configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Review processes a single review of an item at the given time.
// It returns the updated memory state and the next due time. The input
// state is not mutated. The returned state always has Due set, LastReview
// set to now and ElapsedDays reset to 0; the elapsed time consumed by the
// formulas is derived from the previous LastReview.
//
// The only error condition is a rating outside Again..Easy, which is
// rejected before any computation.
func (e *Engine) Review(state MemoryState, rating Rating, now time.Time) (MemoryState, time.Time, error) {
	if !rating.IsValid() {
		return MemoryState{}, time.Time{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}

	s := state.clone()
	elapsed := elapsedDays(state.LastReview, now)
	s.ElapsedDays = elapsed

	var due time.Time
	switch state.State {
	case New:
		due = e.reviewNew(&s, rating, now)
	case Learning:
		due = e.reviewLearning(&s, rating, now)
	case Relearning:
		due = e.reviewRelearning(&s, rating, elapsed, now)
	case Review:
		due = e.reviewFromReview(&s, rating, elapsed, now)
	default:
		return MemoryState{}, time.Time{}, fmt.Errorf("fsrs: invalid state: %v", state.State)
	}

	reviewedAt := now
	s.LastReview = &reviewedAt
	s.Due = &due
	s.ElapsedDays = 0
	return s, due, nil
}

// reviewNew handles the first-ever review of an item.
func (e *Engine) reviewNew(s *MemoryState, r Rating, now time.Time) time.Time {
	s.Difficulty = e.f.initDifficulty(r)
	s.Stability = e.f.initStability(r)

	if r == Again {
		s.Lapses++
		s.State = Relearning
		return now.Add(e.cfg.RelearningSteps[0])
	}

	s.Reps++
	if r == Easy {
		s.State = Review
		return now.Add(days(e.cfg.EasyInterval))
	}
	s.State = Learning
	return now.Add(e.learningStep(s.Reps))
}

// reviewLearning handles an item inside the learning steps.
func (e *Engine) reviewLearning(s *MemoryState, r Rating, now time.Time) time.Time {
	if r == Again {
		s.Stability = e.f.initStability(Again)
		s.Difficulty = e.f.initDifficulty(Again)
		s.Lapses++
		s.Reps = 0
		s.State = Relearning
		return now.Add(e.cfg.RelearningSteps[0])
	}

	s.Reps++
	if s.Reps > len(e.cfg.LearningSteps) {
		// Graduate to the review cycle.
		s.State = Review
		ivl := e.cfg.GraduatingInterval
		if r == Easy {
			ivl = e.cfg.EasyInterval
		}
		return now.Add(days(ivl))
	}
	return now.Add(e.learningStep(s.Reps))
}

// reviewRelearning handles an item recovering from a lapse.
func (e *Engine) reviewRelearning(s *MemoryState, r Rating, elapsed int, now time.Time) time.Time {
	if r == Again {
		s.Stability = e.f.nextForgetStability(s.Stability, s.Difficulty, elapsed)
		s.Lapses++
		return now.Add(e.cfg.RelearningSteps[0])
	}

	s.Stability = e.f.nextRecallStability(s.Stability, s.Difficulty, elapsed, r)
	s.Difficulty = e.f.nextDifficulty(s.Difficulty, r)
	s.Reps++
	s.State = Review
	ivl := e.f.nextInterval(s.Stability, e.cfg.RequestRetention, e.cfg.MaximumInterval)
	return now.Add(days(ivl))
}

// reviewFromReview handles an item in the long-term review cycle.
func (e *Engine) reviewFromReview(s *MemoryState, r Rating, elapsed int, now time.Time) time.Time {
	if r == Again {
		old := s.Difficulty
		s.Stability = e.f.nextForgetStability(s.Stability, old, elapsed)
		s.Difficulty = e.f.nextDifficulty(old, Again)
		s.Lapses++
		s.Reps = 0
		s.State = Relearning
		return now.Add(e.cfg.RelearningSteps[0])
	}

	old := s.Difficulty
	s.Stability = e.f.nextRecallStability(s.Stability, old, elapsed, r)
	s.Difficulty = e.f.nextDifficulty(old, r)
	s.Reps++
	ivl := e.f.nextInterval(s.Stability, e.cfg.RequestRetention, e.cfg.MaximumInterval)
	return now.Add(days(ivl))
}

// learningStep returns the learning step duration for the given rep count.
// The index saturates at the last configured step.
func (e *Engine) learningStep(reps int) time.Duration {
	idx := reps - 1
	if idx >= len(e.cfg.LearningSteps) {
		idx = len(e.cfg.LearningSteps) - 1
	}
	return e.cfg.LearningSteps[idx]
}

// Interval exposes the interval-from-stability inversion directly:
// round(stability * 9 * (1/retention - 1)) clamped to [1, MaximumInterval].
func (e *Engine) Interval(stability float64) int {
	return e.f.nextInterval(stability, e.cfg.RequestRetention, e.cfg.MaximumInterval)
}

// WorkloadPreview estimates review workload over the next horizonDays.
// It returns a histogram of due counts keyed by calendar date (YYYY-MM-DD);
// already-overdue items count under their original due date.
func WorkloadPreview(states []MemoryState, horizonDays int, now time.Time) map[string]int {
	cutoff := now.AddDate(0, 0, horizonDays)
	workload := make(map[string]int)
	for _, st := range states {
		if st.Due == nil || st.Due.After(cutoff) {
			continue
		}
		workload[st.Due.Format("2006-01-02")]++
	}
	return workload
}

// elapsedDays returns whole days between the last review and now,
// clamped to be non-negative. Nil lastReview means a first review: 0.
func elapsedDays(lastReview *time.Time, now time.Time) int {
	if lastReview == nil {
		return 0
	}
	d := int(now.Sub(*lastReview).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// days converts a day count to a duration.
func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
