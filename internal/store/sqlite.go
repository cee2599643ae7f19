package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/akson-app/cards/fsrs"
	"github.com/akson-app/cards/internal/model"
)

// timeFormat is the column encoding for timestamps. A fixed-width
// fraction (unlike RFC3339Nano, which trims trailing zeros) keeps
// lexicographic and temporal order identical, so SQL comparisons and
// ORDER BY on these columns are correct down to the nanosecond. All
// values are stored in UTC for the same reason.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY under concurrent load,
	// which also gives the session layer its one-writer-per-item guarantee.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// NewID returns a fresh ULID. Exposed so callers can pre-assign ids.
// ulid.Make uses a locked entropy source, so NewID is safe to call
// from concurrent goroutines even though writes are single-threaded.
func (s *SQLiteStore) NewID() string {
	return ulid.Make().String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS collections (
		id                TEXT PRIMARY KEY,
		name              TEXT NOT NULL,
		description       TEXT NOT NULL DEFAULT '',
		request_retention REAL NOT NULL DEFAULT 0.9,
		daily_new_cap     INTEGER NOT NULL DEFAULT 20,
		daily_review_cap  INTEGER NOT NULL DEFAULT 200,
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS notes (
		id            TEXT PRIMARY KEY,
		collection_id TEXT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
		front         TEXT NOT NULL,
		back          TEXT NOT NULL,
		tags          TEXT,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_notes_collection ON notes(collection_id);

	CREATE TABLE IF NOT EXISTS items (
		id            TEXT PRIMARY KEY,
		note_id       TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
		collection_id TEXT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
		stability     REAL NOT NULL DEFAULT 0,
		difficulty    REAL NOT NULL DEFAULT 8,
		reps          INTEGER NOT NULL DEFAULT 0,
		lapses        INTEGER NOT NULL DEFAULT 0,
		elapsed_days  INTEGER NOT NULL DEFAULT 0,
		last_review   TEXT,
		due           TEXT,
		state         TEXT NOT NULL DEFAULT 'new',
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_items_collection ON items(collection_id);
	CREATE INDEX IF NOT EXISTS idx_items_due ON items(due);
	CREATE INDEX IF NOT EXISTS idx_items_state ON items(state);

	CREATE TABLE IF NOT EXISTS review_logs (
		id         TEXT PRIMARY KEY,
		item_id    TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		rating     INTEGER NOT NULL,
		timestamp  TEXT NOT NULL,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		version    TEXT NOT NULL DEFAULT 'fsrs'
	);
	CREATE INDEX IF NOT EXISTS idx_review_logs_item ON review_logs(item_id);
	CREATE INDEX IF NOT EXISTS idx_review_logs_timestamp ON review_logs(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// --- items ---

const itemColumns = `id, note_id, collection_id, stability, difficulty, reps,
	lapses, elapsed_days, last_review, due, state, created_at, updated_at`

func (s *SQLiteStore) GetDueItems(ctx context.Context, collectionID string, now time.Time, limit int) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items
		WHERE (state = 'new' OR (due IS NOT NULL AND due <= ?))`
	args := []any{formatTime(now)}
	if collectionID != "" {
		query += ` AND collection_id = ?`
		args = append(args, collectionID)
	}
	// NULL due (new items) sorts first; creation order breaks ties.
	query += ` ORDER BY due ASC, created_at ASC, id ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query due items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) GetItem(ctx context.Context, id string) (*model.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return item, err
}

func (s *SQLiteStore) SaveItem(ctx context.Context, item *model.Item) error {
	stateText, err := item.State.MarshalText()
	if err != nil {
		return fmt.Errorf("save item %s: %w", item.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			stability = excluded.stability,
			difficulty = excluded.difficulty,
			reps = excluded.reps,
			lapses = excluded.lapses,
			elapsed_days = excluded.elapsed_days,
			last_review = excluded.last_review,
			due = excluded.due,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		item.ID, item.NoteID, item.CollectionID,
		item.Stability, item.Difficulty, item.Reps, item.Lapses, item.ElapsedDays,
		nullTime(item.LastReview), nullTime(item.Due), string(stateText),
		formatTime(item.CreatedAt), formatTime(item.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save item %s: %w", item.ID, err)
	}
	return nil
}

// --- review logs ---

func (s *SQLiteStore) SaveReviewLog(ctx context.Context, entry *fsrs.ReviewLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_logs (id, item_id, rating, timestamp, latency_ms, version)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ItemID, int(entry.Rating),
		formatTime(entry.Timestamp), entry.LatencyMS, entry.Version)
	if err != nil {
		return fmt.Errorf("save review log: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListReviewLogs(ctx context.Context, itemID string) ([]fsrs.ReviewLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, rating, timestamp, latency_ms, version
		FROM review_logs WHERE item_id = ? ORDER BY timestamp ASC, id ASC`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query review logs: %w", err)
	}
	defer rows.Close()

	var logs []fsrs.ReviewLog
	for rows.Next() {
		var entry fsrs.ReviewLog
		var rating int
		var ts string
		if err := rows.Scan(&entry.ID, &entry.ItemID, &rating, &ts, &entry.LatencyMS, &entry.Version); err != nil {
			return nil, fmt.Errorf("scan review log: %w", err)
		}
		entry.Rating = fsrs.Rating(rating)
		entry.Timestamp, err = time.Parse(timeFormat, ts)
		if err != nil {
			return nil, fmt.Errorf("parse review log timestamp: %w", err)
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func (s *SQLiteStore) CountReviewsSince(ctx context.Context, collectionID string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM review_logs r WHERE r.timestamp >= ?`
	args := []any{formatTime(since)}
	if collectionID != "" {
		query = `SELECT COUNT(*) FROM review_logs r
			JOIN items i ON i.id = r.item_id
			WHERE r.timestamp >= ? AND i.collection_id = ?`
		args = append(args, collectionID)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return n, nil
}

// --- collections ---

func (s *SQLiteStore) CreateCollection(ctx context.Context, c *model.Collection) error {
	if c.ID == "" {
		c.ID = s.NewID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (id, name, description, request_retention,
			daily_new_cap, daily_review_cap, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description,
		c.Config.RequestRetention, c.Config.DailyNewCap, c.Config.DailyReviewCap,
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetCollection(ctx context.Context, id string) (*model.Collection, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, request_retention, daily_new_cap,
			daily_review_cap, created_at, updated_at
		FROM collections WHERE id = ?`, id)
	c, err := scanCollection(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, id)
	}
	return c, err
}

func (s *SQLiteStore) GetCollectionConfig(ctx context.Context, collectionID string) (model.CollectionConfig, error) {
	c, err := s.GetCollection(ctx, collectionID)
	if err != nil {
		return model.CollectionConfig{}, err
	}
	return c.Config, nil
}

func (s *SQLiteStore) ListCollections(ctx context.Context) ([]model.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, request_retention, daily_new_cap,
			daily_review_cap, created_at, updated_at
		FROM collections ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	var out []model.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteCollection(ctx context.Context, id string) error {
	// Notes, items and review logs go with it via ON DELETE CASCADE.
	res, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, id)
	}
	return nil
}

// --- notes ---

func (s *SQLiteStore) CreateNote(ctx context.Context, n *model.Note) (*model.Item, error) {
	if n.ID == "" {
		n.ID = s.NewID()
	}
	tags, err := json.Marshal(n.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notes (id, collection_id, front, back, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.CollectionID, n.Front, n.Back, string(tags),
		formatTime(n.CreatedAt), formatTime(n.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	item := model.NewItem(s.NewID(), n.ID, n.CollectionID, n.CreatedAt)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO items (id, note_id, collection_id, stability, difficulty,
			reps, lapses, elapsed_days, last_review, due, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, 'new', ?, ?)`,
		item.ID, item.NoteID, item.CollectionID,
		item.Stability, item.Difficulty, item.Reps, item.Lapses, item.ElapsedDays,
		formatTime(item.CreatedAt), formatTime(item.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return item, nil
}

func (s *SQLiteStore) GetNote(ctx context.Context, id string) (*model.Note, error) {
	var n model.Note
	var tags sql.NullString
	var created, updated string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, collection_id, front, back, tags, created_at, updated_at
		FROM notes WHERE id = ?`, id).
		Scan(&n.ID, &n.CollectionID, &n.Front, &n.Back, &tags, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &n.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	if n.CreatedAt, err = time.Parse(timeFormat, created); err != nil {
		return nil, fmt.Errorf("parse note created_at: %w", err)
	}
	if n.UpdatedAt, err = time.Parse(timeFormat, updated); err != nil {
		return nil, fmt.Errorf("parse note updated_at: %w", err)
	}
	return &n, nil
}

// --- stats ---

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{ItemsByState: make(map[string]int)}

	counts := []struct {
		query string
		dst   *int
	}{
		{`SELECT COUNT(*) FROM collections`, &st.Collections},
		{`SELECT COUNT(*) FROM notes`, &st.Notes},
		{`SELECT COUNT(*) FROM items`, &st.Items},
		{`SELECT COUNT(*) FROM review_logs`, &st.Reviews},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM items GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("stats by state: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		st.ItemsByState[state] = n
	}
	return st, rows.Err()
}

// --- scanning helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	var item model.Item
	var lastReview, due sql.NullString
	var state, created, updated string
	err := row.Scan(&item.ID, &item.NoteID, &item.CollectionID,
		&item.Stability, &item.Difficulty, &item.Reps, &item.Lapses, &item.ElapsedDays,
		&lastReview, &due, &state, &created, &updated)
	if err != nil {
		return nil, err
	}

	if err := item.State.UnmarshalText([]byte(state)); err != nil {
		return nil, fmt.Errorf("item %s: %w", item.ID, err)
	}
	if item.LastReview, err = parseNullTime(lastReview); err != nil {
		return nil, fmt.Errorf("item %s last_review: %w", item.ID, err)
	}
	if item.Due, err = parseNullTime(due); err != nil {
		return nil, fmt.Errorf("item %s due: %w", item.ID, err)
	}
	if item.CreatedAt, err = time.Parse(timeFormat, created); err != nil {
		return nil, fmt.Errorf("item %s created_at: %w", item.ID, err)
	}
	if item.UpdatedAt, err = time.Parse(timeFormat, updated); err != nil {
		return nil, fmt.Errorf("item %s updated_at: %w", item.ID, err)
	}
	return &item, nil
}

func scanCollection(row rowScanner) (*model.Collection, error) {
	var c model.Collection
	var created, updated string
	err := row.Scan(&c.ID, &c.Name, &c.Description,
		&c.Config.RequestRetention, &c.Config.DailyNewCap, &c.Config.DailyReviewCap,
		&created, &updated)
	if err != nil {
		return nil, err
	}
	if c.CreatedAt, err = time.Parse(timeFormat, created); err != nil {
		return nil, fmt.Errorf("collection %s created_at: %w", c.ID, err)
	}
	if c.UpdatedAt, err = time.Parse(timeFormat, updated); err != nil {
		return nil, fmt.Errorf("collection %s updated_at: %w", c.ID, err)
	}
	return &c, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeFormat, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
