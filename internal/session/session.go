// Package session drives one study sitting: it selects and orders due items,
// runs the FSRS engine on each answer, persists results and accumulates
// statistics.
//
// A Session is owned by a single logical caller for its lifetime; it holds
// in-memory queue and counter state and performs no internal locking. Run
// one Session per concurrent sitting.
package session

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/akson-app/cards/fsrs"
	"github.com/akson-app/cards/internal/model"
	"github.com/akson-app/cards/internal/store"
)

// Stats holds the per-rating answer counts for one session.
type Stats struct {
	Total int `json:"total"`
	Again int `json:"again"`
	Hard  int `json:"hard"`
	Good  int `json:"good"`
	Easy  int `json:"easy"`
}

// Options tune session construction.
type Options struct {
	// CollectionID restricts the session to one collection; empty means all.
	CollectionID string
	// Limit caps the total queue length. Zero means the owning collection's
	// daily review cap (or the default cap when studying all collections),
	// reduced by reviews already recorded today.
	Limit int
	// NewLimit caps new items. Zero means the collection's daily new cap.
	NewLimit int
	// Engine overrides the FSRS config used for every answer. Nil means an
	// engine is built per item from its collection's config.
	Engine *fsrs.Engine
}

// Session is one study sitting over a queue of due items.
type Session struct {
	store store.Store
	opts  Options

	queue []model.Item
	pos   int
	stats Stats
}

// New creates an unstarted session.
func New(st store.Store, opts Options) *Session {
	return &Session{store: st, opts: opts}
}

// Start selects and orders the session queue as of now.
// It reports whether any item is eligible; an empty session is complete,
// not an error.
func (s *Session) Start(ctx context.Context, now time.Time) (bool, error) {
	cfg, err := s.collectionConfig(ctx)
	if err != nil {
		return false, err
	}

	newLimit := s.opts.NewLimit
	if newLimit == 0 {
		newLimit = cfg.DailyNewCap
	}

	limit := s.opts.Limit
	if limit == 0 {
		done, err := s.store.CountReviewsSince(ctx, s.opts.CollectionID, startOfDay(now))
		if err != nil {
			return false, fmt.Errorf("count today's reviews: %w", err)
		}
		limit = cfg.DailyReviewCap - done
		if limit < 0 {
			limit = 0
		}
	}

	candidates, err := s.store.GetDueItems(ctx, s.opts.CollectionID, now, 0)
	if err != nil {
		return false, fmt.Errorf("load due items: %w", err)
	}

	s.queue = BuildQueue(candidates, now, newLimit, limit)
	s.pos = 0
	s.stats = Stats{}
	return len(s.queue) > 0, nil
}

// BuildQueue filters and orders candidates into a session queue.
//
// Eligible are items in the New state and items with due <= now. New items
// keep the store's insertion order and are truncated to newLimit; seen items
// are ordered by ascending due time with stable ties. The queue alternates
// one New then one Seen item, appends whatever remains of the longer side,
// and is truncated to limit. newLimit <= 0 means no new-item cap; limit <= 0
// means an exhausted review cap and yields an empty queue.
func BuildQueue(candidates []model.Item, now time.Time, newLimit, limit int) []model.Item {
	if limit <= 0 {
		return nil
	}

	var fresh, seen []model.Item
	for _, item := range candidates {
		switch {
		case item.State == fsrs.New:
			fresh = append(fresh, item)
		case item.Due != nil && !item.Due.After(now):
			seen = append(seen, item)
		}
	}

	sort.SliceStable(seen, func(i, j int) bool {
		return seen[i].Due.Before(*seen[j].Due)
	})

	if newLimit > 0 && len(fresh) > newLimit {
		fresh = fresh[:newLimit]
	}

	// Round-robin interleave: one new, one seen, remainder appended.
	queue := make([]model.Item, 0, len(fresh)+len(seen))
	for i := 0; i < len(fresh) || i < len(seen); i++ {
		if i < len(fresh) {
			queue = append(queue, fresh[i])
		}
		if i < len(seen) {
			queue = append(queue, seen[i])
		}
	}
	if len(queue) > limit {
		queue = queue[:limit]
	}
	return queue
}

// Current returns the head of the unconsumed queue.
func (s *Session) Current() (*model.Item, bool) {
	if s.pos >= len(s.queue) {
		return nil, false
	}
	item := s.queue[s.pos]
	return &item, true
}

// Answer grades the current item, persists the updated state and review log,
// advances the queue and returns the next item (nil when the session is
// done). On any error nothing advances: the queue position, the stats and
// the stored item are left exactly as they were.
func (s *Session) Answer(ctx context.Context, rating fsrs.Rating, now time.Time, latency time.Duration) (*model.Item, error) {
	if !rating.IsValid() {
		return nil, fmt.Errorf("%w: %d", fsrs.ErrInvalidRating, int(rating))
	}
	if s.pos >= len(s.queue) {
		return nil, fmt.Errorf("session: no current item")
	}
	item := s.queue[s.pos]

	engine, err := s.engineFor(ctx, item.CollectionID)
	if err != nil {
		return nil, err
	}

	state, _, err := engine.Review(item.MemoryState, rating, now)
	if err != nil {
		return nil, err
	}
	item.MemoryState = state
	item.UpdatedAt = now

	if err := s.store.SaveItem(ctx, &item); err != nil {
		return nil, fmt.Errorf("persist item %s: %w", item.ID, err)
	}
	entry := &fsrs.ReviewLog{
		ID:        uuid.NewString(),
		ItemID:    item.ID,
		Rating:    rating,
		Timestamp: now,
		LatencyMS: int(latency.Milliseconds()),
		Version:   fsrs.Version,
	}
	if err := s.store.SaveReviewLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("persist review log: %w", err)
	}

	s.queue[s.pos] = item
	s.pos++
	s.count(rating)

	next, ok := s.Current()
	if !ok {
		return nil, nil
	}
	return next, nil
}

// Stats returns the counts accumulated so far.
func (s *Session) Stats() Stats {
	return s.stats
}

// Progress returns the number of answered items and the queue length.
func (s *Session) Progress() (done, total int) {
	return s.pos, len(s.queue)
}

// HasMore reports whether unanswered items remain.
func (s *Session) HasMore() bool {
	return s.pos < len(s.queue)
}

func (s *Session) count(r fsrs.Rating) {
	s.stats.Total++
	switch r {
	case fsrs.Again:
		s.stats.Again++
	case fsrs.Hard:
		s.stats.Hard++
	case fsrs.Good:
		s.stats.Good++
	case fsrs.Easy:
		s.stats.Easy++
	}
}

// collectionConfig resolves the config governing queue limits.
// Cross-collection sessions fall back to the defaults.
func (s *Session) collectionConfig(ctx context.Context) (model.CollectionConfig, error) {
	if s.opts.CollectionID == "" {
		return model.DefaultCollectionConfig(), nil
	}
	return s.store.GetCollectionConfig(ctx, s.opts.CollectionID)
}

// engineFor builds the engine for an item's owning collection.
func (s *Session) engineFor(ctx context.Context, collectionID string) (*fsrs.Engine, error) {
	if s.opts.Engine != nil {
		return s.opts.Engine, nil
	}
	cfg, err := s.store.GetCollectionConfig(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	return fsrs.NewEngine(fsrs.Config{RequestRetention: cfg.RequestRetention})
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
