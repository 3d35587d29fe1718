// Package vector implements the semantic index: an append-only store of
// embedded text fragments with nearest-neighbor queries, SQLite-backed.
package vector

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"storymem/internal/embedding"
	"storymem/internal/model"
)

// Logical fragment collections.
const (
	CollectionChapters = "chapters"
	CollectionEvents   = "events"
	CollectionThreads  = "threads"
)

// Metadata is the filterable payload attached to a fragment. Fields are
// populated per collection; zero values mean not applicable.
type Metadata struct {
	ChapterID       string `json:"chapter_id,omitempty"`
	ChapterNumber   int    `json:"chapter_number,omitempty"`
	ArcID           string `json:"arc_id,omitempty"`
	Title           string `json:"title,omitempty"`
	CliffhangerType string `json:"cliffhanger_type,omitempty"`
	EventIndex      int    `json:"event_index"`
	ThreadType      string `json:"thread_type,omitempty"`
	Status          string `json:"status,omitempty"`
	Importance      string `json:"importance,omitempty"`
}

// Result is one nearest-neighbor hit. Distance is cosine-derived in [0, 2];
// lower is closer.
type Result struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Meta     Metadata `json:"metadata"`
	Distance float64  `json:"distance"`
}

// Stats holds per-collection fragment counts.
type Stats struct {
	Chapters int `json:"chapters"`
	Events   int `json:"events"`
	Threads  int `json:"threads"`
}

// Index stores embedded fragments in SQLite and answers similarity queries
// by scanning a collection. Indexing is append-only: re-submitting an
// existing fragment ID is a no-op, and re-indexing an entity takes a fresh
// composite ID.
type Index struct {
	db       *sql.DB
	embedder embedding.Embedder
	logger   *slog.Logger
	timeout  time.Duration
}

// NewIndex opens or creates the index database at the given path.
func NewIndex(dbPath string, embedder embedding.Embedder, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}

	ix := &Index{
		db:       db,
		embedder: embedder,
		logger:   logger,
		timeout:  15 * time.Second,
	}

	if err := ix.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return ix, nil
}

func (ix *Index) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS fragments (
		collection TEXT NOT NULL,
		id         TEXT NOT NULL,
		text       TEXT NOT NULL,
		meta       TEXT,
		embedding  BLOB NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (collection, id)
	);
	CREATE INDEX IF NOT EXISTS idx_fragments_collection ON fragments(collection);
	`
	_, err := ix.db.Exec(schema)
	return err
}

// IndexChapter writes one chapter-level fragment plus one fragment per key
// event, with composite event IDs so replays never collide.
func (ix *Index) IndexChapter(ctx context.Context, ch *model.Chapter) error {
	text := ch.Title + "\n" + ch.Summary
	if len(ch.KeyEvents) > 0 {
		text += "\n" + strings.Join(ch.KeyEvents, "\n")
	}

	err := ix.indexFragment(ctx, CollectionChapters, ch.ID, text, Metadata{
		ChapterNumber:   ch.Number,
		ArcID:           ch.ArcID,
		Title:           ch.Title,
		CliffhangerType: ch.CliffhangerType,
	})
	if err != nil {
		return fmt.Errorf("index chapter %s: %w", ch.ID, err)
	}

	for i, event := range ch.KeyEvents {
		id := fmt.Sprintf("%s_event_%d", ch.ID, i)
		err := ix.indexFragment(ctx, CollectionEvents, id, event, Metadata{
			ChapterID:     ch.ID,
			ChapterNumber: ch.Number,
			EventIndex:    i,
		})
		if err != nil {
			return fmt.Errorf("index event %s: %w", id, err)
		}
	}

	ix.logger.Debug("indexed chapter", "chapter", ch.ID, "events", len(ch.KeyEvents))
	return nil
}

// IndexThread writes a thread fragment from its name and setup description.
func (ix *Index) IndexThread(ctx context.Context, t *model.PlotThread) error {
	text := t.Name + "\n" + t.SetupDescription
	err := ix.indexFragment(ctx, CollectionThreads, t.ID, text, Metadata{
		ThreadType: t.Type,
		Status:     t.Status,
		Importance: t.Importance,
	})
	if err != nil {
		return fmt.Errorf("index thread %s: %w", t.ID, err)
	}
	return nil
}

func (ix *Index) indexFragment(ctx context.Context, collection, id, text string, meta Metadata) error {
	ctx, cancel := context.WithTimeout(ctx, ix.timeout)
	defer cancel()

	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	_, err = ix.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO fragments (collection, id, text, meta, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		collection, id, text, string(metaJSON), encodeVector(vec),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert fragment: %w", err)
	}
	return nil
}

// SearchChapters finds the k chapter fragments nearest to the query,
// optionally restricted to one arc.
func (ix *Index) SearchChapters(ctx context.Context, query string, k int, arcID string) ([]Result, error) {
	return ix.search(ctx, CollectionChapters, query, k, func(m Metadata) bool {
		return arcID == "" || m.ArcID == arcID
	})
}

// SearchEvents finds the k event fragments nearest to the query.
func (ix *Index) SearchEvents(ctx context.Context, query string, k int) ([]Result, error) {
	return ix.search(ctx, CollectionEvents, query, k, nil)
}

// SearchThreads finds the k thread fragments nearest to the query,
// optionally filtered by status.
func (ix *Index) SearchThreads(ctx context.Context, query string, k int, status string) ([]Result, error) {
	return ix.search(ctx, CollectionThreads, query, k, func(m Metadata) bool {
		return status == "" || m.Status == status
	})
}

func (ix *Index) search(ctx context.Context, collection, query string, k int, keep func(Metadata) bool) ([]Result, error) {
	if k <= 0 {
		k = 5
	}

	ctx, cancel := context.WithTimeout(ctx, ix.timeout)
	defer cancel()

	queryVec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := ix.db.QueryContext(ctx,
		`SELECT id, text, meta, embedding FROM fragments WHERE collection = ?`, collection)
	if err != nil {
		return nil, fmt.Errorf("query fragments: %w", err)
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var (
			r        Result
			metaJSON sql.NullString
			blob     []byte
		)
		if err := rows.Scan(&r.ID, &r.Text, &metaJSON, &blob); err != nil {
			return nil, err
		}
		if metaJSON.Valid {
			json.Unmarshal([]byte(metaJSON.String), &r.Meta)
		}
		if keep != nil && !keep(r.Meta) {
			continue
		}
		r.Distance = embedding.CosineDistance(queryVec, decodeVector(blob))
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Stats returns fragment counts per collection.
func (ix *Index) Stats(ctx context.Context) (*Stats, error) {
	rows, err := ix.db.QueryContext(ctx,
		`SELECT collection, COUNT(*) FROM fragments GROUP BY collection`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	st := &Stats{}
	for rows.Next() {
		var collection string
		var count int
		if err := rows.Scan(&collection, &count); err != nil {
			return nil, err
		}
		switch collection {
		case CollectionChapters:
			st.Chapters = count
		case CollectionEvents:
			st.Events = count
		case CollectionThreads:
			st.Threads = count
		}
	}
	return st, rows.Err()
}

// Close closes the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

func encodeVector(v embedding.Vector) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) embedding.Vector {
	v := make(embedding.Vector, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
