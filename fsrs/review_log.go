package fsrs

import "time"

// Version tags review log entries with the algorithm that produced them.
const Version = "fsrs"

// ReviewLog records a single review event for an item.
// Entries are append-only: never mutated or deleted.
type ReviewLog struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	Rating    Rating    `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
	LatencyMS int       `json:"latency_ms"` // response latency, milliseconds
	Version   string    `json:"version"`    // algorithm version tag
}
