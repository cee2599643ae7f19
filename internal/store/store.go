// Package store provides the persistence interface for collections, notes,
// items and review history, plus a SQLite implementation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/akson-app/cards/fsrs"
	"github.com/akson-app/cards/internal/model"
)

// Sentinel errors for store lookups.
var (
	ErrItemNotFound       = errors.New("store: item not found")
	ErrNoteNotFound       = errors.New("store: note not found")
	ErrCollectionNotFound = errors.New("store: collection not found")
)

// Stats summarizes store contents.
type Stats struct {
	Collections  int            `json:"collections"`
	Notes        int            `json:"notes"`
	Items        int            `json:"items"`
	ItemsByState map[string]int `json:"items_by_state"`
	Reviews      int            `json:"reviews"`
}

// Store is the persistence contract the scheduling core depends on.
// Implementations are responsible for serializing concurrent writes to the
// same item; the session layer assumes at most one in-flight write per item.
type Store interface {
	// GetDueItems returns items eligible for review: items in the New state
	// (in creation order) and items with due <= now (due ascending). An empty
	// collectionID means all collections; limit <= 0 means no limit.
	GetDueItems(ctx context.Context, collectionID string, now time.Time, limit int) ([]model.Item, error)

	// GetItem returns the item with the given id, or ErrItemNotFound.
	GetItem(ctx context.Context, id string) (*model.Item, error)

	// SaveItem inserts or updates an item.
	SaveItem(ctx context.Context, item *model.Item) error

	// SaveReviewLog appends a review log entry. Entries are never updated.
	SaveReviewLog(ctx context.Context, entry *fsrs.ReviewLog) error

	// ListReviewLogs returns the review history for an item, oldest first.
	ListReviewLogs(ctx context.Context, itemID string) ([]fsrs.ReviewLog, error)

	// CountReviewsSince returns the number of review log entries recorded at
	// or after the given time, optionally restricted to one collection.
	CountReviewsSince(ctx context.Context, collectionID string, since time.Time) (int, error)

	// CreateCollection persists a new collection.
	CreateCollection(ctx context.Context, c *model.Collection) error

	// GetCollection returns a collection by id, or ErrCollectionNotFound.
	GetCollection(ctx context.Context, id string) (*model.Collection, error)

	// GetCollectionConfig returns the scheduling config of a collection,
	// or ErrCollectionNotFound.
	GetCollectionConfig(ctx context.Context, collectionID string) (model.CollectionConfig, error)

	// ListCollections returns all collections in creation order.
	ListCollections(ctx context.Context) ([]model.Collection, error)

	// DeleteCollection removes a collection and cascades to its notes,
	// items and review history.
	DeleteCollection(ctx context.Context, id string) error

	// CreateNote persists a note and its schedulable item.
	CreateNote(ctx context.Context, n *model.Note) (*model.Item, error)

	// GetNote returns a note by id, or ErrNoteNotFound.
	GetNote(ctx context.Context, id string) (*model.Note, error)

	// Stats returns summary counts.
	Stats(ctx context.Context) (*Stats, error)
}
