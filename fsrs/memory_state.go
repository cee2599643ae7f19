package fsrs

import "time"

// DefaultDifficulty is the difficulty assigned to a state that has never
// been reviewed. The first review replaces it via the init formula.
const DefaultDifficulty = 8.0

// MemoryState holds the scheduling state of a single item.
// It is mutated only by Engine.Review, which returns a new value.
type MemoryState struct {
	Stability   float64    `json:"stability"`             // days; > 0 once reviewed
	Difficulty  float64    `json:"difficulty"`            // clamped to [1, 10]
	Reps        int        `json:"reps"`                  // successful recalls since last lapse reset
	Lapses      int        `json:"lapses"`                // total failures, never decreases
	ElapsedDays int        `json:"elapsed_days"`          // always 0 after a review
	LastReview  *time.Time `json:"last_review,omitempty"` // nil before the first review
	Due         *time.Time `json:"due,omitempty"`         // nil only in the New state
	State       State      `json:"state"`
}

// NewMemoryState returns the state of a freshly created, never-reviewed item.
func NewMemoryState() MemoryState {
	return MemoryState{
		Difficulty: DefaultDifficulty,
		State:      New,
	}
}

// clone returns a deep copy. Pointer fields are copied by value.
func (m MemoryState) clone() MemoryState {
	out := m
	if m.LastReview != nil {
		v := *m.LastReview
		out.LastReview = &v
	}
	if m.Due != nil {
		v := *m.Due
		out.Due = &v
	}
	return out
}
