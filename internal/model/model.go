// Package model defines the domain types shared by the store, session and CLI.
package model

import (
	"time"

	"github.com/akson-app/cards/fsrs"
)

// Default collection configuration values.
const (
	DefaultRequestRetention = 0.9
	DefaultDailyNewCap      = 20
	DefaultDailyReviewCap   = 200
)

// CollectionConfig holds the per-collection scheduling knobs.
type CollectionConfig struct {
	RequestRetention float64 `json:"request_retention" yaml:"request_retention"` // target recall probability, (0, 1)
	DailyNewCap      int     `json:"daily_new_cap" yaml:"daily_new_cap"`         // new items introduced per day
	DailyReviewCap   int     `json:"daily_review_cap" yaml:"daily_review_cap"`   // total reviews per day
}

// DefaultCollectionConfig returns the stock scheduling configuration.
func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		RequestRetention: DefaultRequestRetention,
		DailyNewCap:      DefaultDailyNewCap,
		DailyReviewCap:   DefaultDailyReviewCap,
	}
}

// Collection groups notes and items under one scheduling configuration.
type Collection struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Config      CollectionConfig `json:"config"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Note carries the content a learner sees. One note backs one or more items.
type Note struct {
	ID           string    `json:"id"`
	CollectionID string    `json:"collection_id"`
	Front        string    `json:"front"`
	Back         string    `json:"back"`
	Tags         []string  `json:"tags,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Item is one schedulable unit: a note plus its memory state.
type Item struct {
	ID           string `json:"id"`
	NoteID       string `json:"note_id"`
	CollectionID string `json:"collection_id"`
	fsrs.MemoryState
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewItem creates an item in the New state for the given note.
func NewItem(id, noteID, collectionID string, now time.Time) *Item {
	return &Item{
		ID:           id,
		NoteID:       noteID,
		CollectionID: collectionID,
		MemoryState:  fsrs.NewMemoryState(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
