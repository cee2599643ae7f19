package fsrs

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func mustEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

// --- NewEngine ---

func TestNewEngineDefaults(t *testing.T) {
	e := mustEngine(t, Config{})
	cfg := e.Config()
	assertFloat(t, "RequestRetention", cfg.RequestRetention, 0.9)
	if cfg.MaximumInterval != 36500 {
		t.Errorf("MaximumInterval = %d, want 36500", cfg.MaximumInterval)
	}
	if len(cfg.LearningSteps) != 2 || cfg.LearningSteps[0] != time.Minute || cfg.LearningSteps[1] != 10*time.Minute {
		t.Errorf("LearningSteps = %v, want [1m 10m]", cfg.LearningSteps)
	}
	if len(cfg.RelearningSteps) != 1 || cfg.RelearningSteps[0] != 10*time.Minute {
		t.Errorf("RelearningSteps = %v, want [10m]", cfg.RelearningSteps)
	}
	if cfg.GraduatingInterval != 1 || cfg.EasyInterval != 4 {
		t.Errorf("intervals = %d/%d, want 1/4", cfg.GraduatingInterval, cfg.EasyInterval)
	}
}

func TestNewEngineRejectsEmptySteps(t *testing.T) {
	_, err := NewEngine(Config{LearningSteps: []time.Duration{}})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("empty learning steps: err = %v, want ErrInvalidConfig", err)
	}
	_, err = NewEngine(Config{RelearningSteps: []time.Duration{}})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("empty relearning steps: err = %v, want ErrInvalidConfig", err)
	}
}

func TestNewEngineRejectsBadRetention(t *testing.T) {
	for _, r := range []float64{-0.1, 1.0, 1.5} {
		if _, err := NewEngine(Config{RequestRetention: r}); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("retention %f: err = %v, want ErrInvalidConfig", r, err)
		}
	}
}

func TestNewEngineRejectsNegativeMaxInterval(t *testing.T) {
	if _, err := NewEngine(Config{MaximumInterval: -1}); !errors.Is(err, ErrInvalidConfig) {
		t.Error("negative maximum interval should be rejected")
	}
}

// --- Review: rating validation ---

func TestReviewInvalidRating(t *testing.T) {
	e := mustEngine(t, Config{})
	for _, r := range []Rating{0, 5, -1} {
		_, _, err := e.Review(NewMemoryState(), r, t0)
		if !errors.Is(err, ErrInvalidRating) {
			t.Errorf("rating %d: err = %v, want ErrInvalidRating", int(r), err)
		}
	}
}

// --- Review: New state ---

// Scenario: new item rated Easy goes straight to Review at the easy interval.
func TestNewEasyGoesToReview(t *testing.T) {
	e := mustEngine(t, Config{})
	s, due, err := e.Review(NewMemoryState(), Easy, t0)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if s.State != Review {
		t.Errorf("State = %v, want review", s.State)
	}
	if s.Reps != 1 {
		t.Errorf("Reps = %d, want 1", s.Reps)
	}
	if s.Lapses != 0 {
		t.Errorf("Lapses = %d, want 0", s.Lapses)
	}
	wantDue := t0.Add(4 * 24 * time.Hour)
	if !due.Equal(wantDue) {
		t.Errorf("due = %v, want %v", due, wantDue)
	}
}

// Scenario: new item rated Again lapses into Relearning at the first step.
func TestNewAgainGoesToRelearning(t *testing.T) {
	e := mustEngine(t, Config{})
	s, due, err := e.Review(NewMemoryState(), Again, t0)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if s.State != Relearning {
		t.Errorf("State = %v, want relearning", s.State)
	}
	if s.Lapses != 1 {
		t.Errorf("Lapses = %d, want 1", s.Lapses)
	}
	if s.Reps != 0 {
		t.Errorf("Reps = %d, want 0", s.Reps)
	}
	wantDue := t0.Add(10 * time.Minute)
	if !due.Equal(wantDue) {
		t.Errorf("due = %v, want %v", due, wantDue)
	}
}

func TestNewGoodEntersLearning(t *testing.T) {
	e := mustEngine(t, Config{})
	s, due, err := e.Review(NewMemoryState(), Good, t0)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if s.State != Learning {
		t.Errorf("State = %v, want learning", s.State)
	}
	if s.Reps != 1 {
		t.Errorf("Reps = %d, want 1", s.Reps)
	}
	// First learning step = 1m.
	if !due.Equal(t0.Add(time.Minute)) {
		t.Errorf("due = %v, want %v", due, t0.Add(time.Minute))
	}
	assertFloat(t, "Difficulty", s.Difficulty, 5.0)
}

// --- Review: Learning state ---

func TestLearningProgressesThroughSteps(t *testing.T) {
	e := mustEngine(t, Config{})
	s, _, _ := e.Review(NewMemoryState(), Good, t0)

	// Second Good: reps=2, still within the two steps → step[1] = 10m.
	now := t0.Add(time.Minute)
	s, due, err := e.Review(s, Good, now)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if s.State != Learning {
		t.Errorf("State = %v, want learning", s.State)
	}
	if s.Reps != 2 {
		t.Errorf("Reps = %d, want 2", s.Reps)
	}
	if !due.Equal(now.Add(10 * time.Minute)) {
		t.Errorf("due = %v, want %v", due, now.Add(10*time.Minute))
	}

	// Third Good: reps=3 > 2 steps → graduate at the graduating interval.
	now = now.Add(10 * time.Minute)
	s, due, err = e.Review(s, Good, now)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if s.State != Review {
		t.Errorf("State = %v, want review", s.State)
	}
	if !due.Equal(now.Add(24 * time.Hour)) {
		t.Errorf("due = %v, want graduating interval 1d", due)
	}
}

func TestLearningGraduatesEasyAtEasyInterval(t *testing.T) {
	e := mustEngine(t, Config{})
	s, _, _ := e.Review(NewMemoryState(), Good, t0)
	s, _, _ = e.Review(s, Good, t0.Add(time.Minute))
	now := t0.Add(11 * time.Minute)
	s, due, _ := e.Review(s, Easy, now)
	if s.State != Review {
		t.Errorf("State = %v, want review", s.State)
	}
	if !due.Equal(now.Add(4 * 24 * time.Hour)) {
		t.Errorf("due = %v, want easy interval 4d", due)
	}
}

func TestLearningAgainResetsToRelearning(t *testing.T) {
	e := mustEngine(t, Config{})
	s, _, _ := e.Review(NewMemoryState(), Good, t0)
	now := t0.Add(time.Minute)
	s, due, err := e.Review(s, Again, now)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if s.State != Relearning {
		t.Errorf("State = %v, want relearning", s.State)
	}
	if s.Reps != 0 {
		t.Errorf("Reps = %d, want reset to 0", s.Reps)
	}
	if s.Lapses != 1 {
		t.Errorf("Lapses = %d, want 1", s.Lapses)
	}
	// Stability and difficulty re-initialized from the Again formulas.
	f := formulas{w: DefaultWeights()}
	assertFloat(t, "Stability", s.Stability, f.initStability(Again))
	assertFloat(t, "Difficulty", s.Difficulty, f.initDifficulty(Again))
	if !due.Equal(now.Add(10 * time.Minute)) {
		t.Errorf("due = %v, want first relearning step", due)
	}
}

// --- Review: Review state ---

// Scenario: lapse from Review resets reps, bumps lapses, drops to Relearning.
func TestReviewAgainLapses(t *testing.T) {
	e := mustEngine(t, Config{})
	last := t0
	reviewedAt := t0.Add(5 * 24 * time.Hour)
	st := MemoryState{
		Stability:  10,
		Difficulty: 5,
		Reps:       4,
		Lapses:     1,
		State:      Review,
		LastReview: &last,
	}
	s, due, err := e.Review(st, Again, reviewedAt)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if s.State != Relearning {
		t.Errorf("State = %v, want relearning", s.State)
	}
	if s.Reps != 0 {
		t.Errorf("Reps = %d, want 0", s.Reps)
	}
	if s.Lapses != 2 {
		t.Errorf("Lapses = %d, want 2", s.Lapses)
	}
	if !due.Equal(reviewedAt.Add(10 * time.Minute)) {
		t.Errorf("due = %v, want first relearning step", due)
	}
	// Difficulty dropped by AgainDrop.
	assertFloat(t, "Difficulty", s.Difficulty, 5.0-1.4)
}

func TestReviewGoodSchedulesFromNewStability(t *testing.T) {
	e := mustEngine(t, Config{})
	last := t0
	reviewedAt := t0.Add(3 * 24 * time.Hour)
	st := MemoryState{
		Stability:  10,
		Difficulty: 5,
		Reps:       4,
		Lapses:     1,
		State:      Review,
		LastReview: &last,
	}
	s, due, err := e.Review(st, Good, reviewedAt)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if s.State != Review {
		t.Errorf("State = %v, want review", s.State)
	}
	if s.Reps != 5 {
		t.Errorf("Reps = %d, want 5", s.Reps)
	}
	if s.Lapses != 1 {
		t.Errorf("Lapses = %d, want unchanged 1", s.Lapses)
	}
	// The new interval is the inversion of the forgetting curve at the
	// updated stability: round(S' * 9 * (1/0.9 - 1)) = round(S') days.
	f := formulas{w: DefaultWeights()}
	wantS := f.nextRecallStability(10, 5, 3, Good)
	assertFloat(t, "Stability", s.Stability, wantS)
	wantIvl := f.nextInterval(wantS, 0.9, 36500)
	if !due.Equal(reviewedAt.Add(time.Duration(wantIvl) * 24 * time.Hour)) {
		t.Errorf("due = %v, want now + %dd", due, wantIvl)
	}
	if s.Difficulty != 5 {
		t.Errorf("Difficulty = %f, want unchanged 5 for Good", s.Difficulty)
	}
}

// Interval inversion direct check: S=10 at retention 0.9 → 10 days.
func TestIntervalAtRequestRetention(t *testing.T) {
	e := mustEngine(t, Config{})
	if got := e.Interval(10.0); got != 10 {
		t.Errorf("Interval(10) = %d, want 10", got)
	}
}

// --- Review: Relearning state ---

func TestRelearningAgainStaysRelearning(t *testing.T) {
	e := mustEngine(t, Config{})
	last := t0
	reviewedAt := t0.Add(20 * time.Minute)
	st := MemoryState{
		Stability:  2,
		Difficulty: 6,
		Lapses:     1,
		State:      Relearning,
		LastReview: &last,
	}
	s, due, err := e.Review(st, Again, reviewedAt)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if s.State != Relearning {
		t.Errorf("State = %v, want relearning", s.State)
	}
	if s.Lapses != 2 {
		t.Errorf("Lapses = %d, want 2", s.Lapses)
	}
	if !due.Equal(reviewedAt.Add(10 * time.Minute)) {
		t.Errorf("due = %v, want first relearning step", due)
	}
	// Difficulty is untouched in this arm; stability follows the forget formula.
	if s.Difficulty != 6 {
		t.Errorf("Difficulty = %f, want unchanged 6", s.Difficulty)
	}
}

func TestRelearningSuccessReturnsToReview(t *testing.T) {
	e := mustEngine(t, Config{})
	last := t0
	reviewedAt := t0.Add(24 * time.Hour)
	st := MemoryState{
		Stability:  2,
		Difficulty: 6,
		Lapses:     1,
		State:      Relearning,
		LastReview: &last,
	}
	s, due, err := e.Review(st, Good, reviewedAt)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if s.State != Review {
		t.Errorf("State = %v, want review", s.State)
	}
	if s.Reps != 1 {
		t.Errorf("Reps = %d, want 1", s.Reps)
	}
	if !due.After(reviewedAt) {
		t.Errorf("due = %v, want after %v", due, reviewedAt)
	}
}

// --- purity, determinism, invariants ---

func TestReviewDoesNotMutateInput(t *testing.T) {
	e := mustEngine(t, Config{})
	last := t0
	dueAt := t0.Add(24 * time.Hour)
	st := MemoryState{
		Stability:  3,
		Difficulty: 7,
		Reps:       2,
		State:      Review,
		LastReview: &last,
		Due:        &dueAt,
	}
	_, _, err := e.Review(st, Again, t0.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if st.Stability != 3 || st.Difficulty != 7 || st.Reps != 2 || st.Lapses != 0 {
		t.Error("input state was mutated")
	}
	if !st.LastReview.Equal(t0) || !st.Due.Equal(dueAt) {
		t.Error("input state timestamps were mutated")
	}
	if st.State != Review {
		t.Errorf("input State = %v, want review", st.State)
	}
}

func TestReviewDeterministic(t *testing.T) {
	e := mustEngine(t, Config{})
	last := t0
	st := MemoryState{Stability: 5, Difficulty: 4, Reps: 3, State: Review, LastReview: &last}
	now := t0.Add(6 * 24 * time.Hour)

	s1, due1, err1 := e.Review(st, Hard, now)
	s2, due2, err2 := e.Review(st, Hard, now)
	if err1 != nil || err2 != nil {
		t.Fatalf("Review: %v / %v", err1, err2)
	}
	if s1.Stability != s2.Stability || s1.Difficulty != s2.Difficulty ||
		s1.Reps != s2.Reps || s1.Lapses != s2.Lapses || s1.State != s2.State {
		t.Error("identical inputs produced different states")
	}
	if !due1.Equal(due2) {
		t.Errorf("identical inputs produced different due times: %v vs %v", due1, due2)
	}
}

// Randomized rating sequences must never break the state invariants.
func TestReviewInvariantsRandomSequences(t *testing.T) {
	e := mustEngine(t, Config{})
	rng := rand.New(rand.NewSource(1))

	for seq := 0; seq < 200; seq++ {
		s := NewMemoryState()
		now := t0
		lapses := 0
		for i := 0; i < 50; i++ {
			r := Rating(rng.Intn(4) + 1)
			var due time.Time
			var err error
			s, due, err = e.Review(s, r, now)
			if err != nil {
				t.Fatalf("seq %d step %d: %v", seq, i, err)
			}
			if s.Difficulty < 1 || s.Difficulty > 10 {
				t.Fatalf("seq %d step %d: difficulty %f outside [1, 10]", seq, i, s.Difficulty)
			}
			if s.Stability <= 0 {
				t.Fatalf("seq %d step %d: stability %f not positive", seq, i, s.Stability)
			}
			if s.Reps < 0 || s.Lapses < 0 {
				t.Fatalf("seq %d step %d: negative counters reps=%d lapses=%d", seq, i, s.Reps, s.Lapses)
			}
			if s.Lapses < lapses {
				t.Fatalf("seq %d step %d: lapses decreased %d → %d", seq, i, lapses, s.Lapses)
			}
			lapses = s.Lapses
			if s.State == New {
				t.Fatalf("seq %d step %d: state returned to new", seq, i)
			}
			if s.Due == nil {
				t.Fatalf("seq %d step %d: due unset after review", seq, i)
			}
			if s.ElapsedDays != 0 {
				t.Fatalf("seq %d step %d: elapsed days %d not reset", seq, i, s.ElapsedDays)
			}
			if !due.After(now) {
				t.Fatalf("seq %d step %d: due %v not after now %v", seq, i, due, now)
			}
			// Advance the clock by anything from minutes to weeks.
			now = now.Add(time.Duration(rng.Intn(14*24*60)+1) * time.Minute)
		}
	}
}

// --- WorkloadPreview ---

func TestWorkloadPreview(t *testing.T) {
	day := func(n int) *time.Time {
		d := t0.AddDate(0, 0, n)
		return &d
	}
	states := []MemoryState{
		{State: Review, Due: day(1)},
		{State: Review, Due: day(1)},
		{State: Relearning, Due: day(3)},
		{State: Review, Due: day(40)}, // beyond horizon
		{State: New},                  // no due date
	}
	got := WorkloadPreview(states, 30, t0)
	if len(got) != 2 {
		t.Fatalf("preview has %d dates, want 2: %v", len(got), got)
	}
	if got[day(1).Format("2006-01-02")] != 2 {
		t.Errorf("day 1 count = %d, want 2", got[day(1).Format("2006-01-02")])
	}
	if got[day(3).Format("2006-01-02")] != 1 {
		t.Errorf("day 3 count = %d, want 1", got[day(3).Format("2006-01-02")])
	}
}

func TestWorkloadPreviewCountsOverdue(t *testing.T) {
	overdue := t0.AddDate(0, 0, -2)
	states := []MemoryState{{State: Review, Due: &overdue}}
	got := WorkloadPreview(states, 7, t0)
	if got[overdue.Format("2006-01-02")] != 1 {
		t.Errorf("overdue item missing from preview: %v", got)
	}
}

// --- elapsed days ---

func TestElapsedDays(t *testing.T) {
	last := t0
	tests := []struct {
		at   time.Time
		want int
	}{
		{t0.Add(12 * time.Hour), 0},
		{t0.Add(24 * time.Hour), 1},
		{t0.Add(36 * time.Hour), 1},
		{t0.Add(10 * 24 * time.Hour), 10},
		{t0.Add(-24 * time.Hour), 0}, // clock skew clamps to 0
	}
	for _, tt := range tests {
		if got := elapsedDays(&last, tt.at); got != tt.want {
			t.Errorf("elapsedDays(+%v) = %d, want %d", tt.at.Sub(t0), got, tt.want)
		}
	}
	if got := elapsedDays(nil, t0); got != 0 {
		t.Errorf("elapsedDays(nil) = %d, want 0", got)
	}
}
