// Package retrieve assembles the planning context bundle from the story
// state and the semantic index, blending recency, relevance, and
// randomized surprise callbacks.
package retrieve

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"storymem/internal/model"
	"storymem/internal/vector"
)

// Searcher is the slice of the semantic index the retriever reads.
type Searcher interface {
	SearchChapters(ctx context.Context, query string, k int, arcID string) ([]vector.Result, error)
	SearchEvents(ctx context.Context, query string, k int) ([]vector.Result, error)
}

// Params tunes one retrieval. Zero values take the defaults.
type Params struct {
	ArcID     string
	NRecent   int
	NRelevant int
	NSurprise int
}

func (p *Params) setDefaults() {
	if p.NRecent <= 0 {
		p.NRecent = 3
	}
	if p.NRelevant <= 0 {
		p.NRelevant = 5
	}
	if p.NSurprise < 0 {
		p.NSurprise = 0
	} else if p.NSurprise == 0 {
		p.NSurprise = 2
	}
}

// RecentChapter is a recency hit.
type RecentChapter struct {
	ChapterID     string `json:"chapter_id"`
	ChapterNumber int    `json:"chapter_number"`
	Title         string `json:"title"`
	Summary       string `json:"summary"`
	Cliffhanger   string `json:"cliffhanger,omitempty"`
}

// RelevantChapter is a semantic-similarity hit from the chapter collection.
type RelevantChapter struct {
	ChapterID     string  `json:"chapter_id"`
	ChapterNumber int     `json:"chapter_number"`
	Title         string  `json:"title"`
	Summary       string  `json:"summary"`
	Relevance     float64 `json:"relevance"`
}

// RelevantEvent is a fine-grained hit from the event collection.
type RelevantEvent struct {
	Event         string  `json:"event"`
	ChapterID     string  `json:"chapter_id"`
	ChapterNumber int     `json:"chapter_number"`
	Relevance     float64 `json:"relevance"`
}

// SurpriseCallback seeds a deliberate callback to an old chapter.
type SurpriseCallback struct {
	ChapterID     string `json:"chapter_id"`
	ChapterNumber int    `json:"chapter_number"`
	Title         string `json:"title"`
	KeyEvent      string `json:"key_event"`
	Note          string `json:"note"`
}

// ActiveThread is an open or progressing plot thread.
type ActiveThread struct {
	ThreadID   string `json:"thread_id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Importance string `json:"importance"`
	Status     string `json:"status"`
}

// Bundle is the retriever's output: five independent lists, no cross-list
// re-ranking. Each list is consumed independently downstream.
type Bundle struct {
	RecentChapters    []RecentChapter    `json:"recent_chapters"`
	RelevantChapters  []RelevantChapter  `json:"relevant_chapters"`
	RelevantEvents    []RelevantEvent    `json:"relevant_events"`
	SurpriseCallbacks []SurpriseCallback `json:"surprise_callbacks"`
	ActiveThreads     []ActiveThread     `json:"active_threads"`
}

// Retriever reads the story state and the semantic index. It never
// mutates either.
type Retriever struct {
	index  Searcher
	rng    *rand.Rand
	logger *slog.Logger
}

// New creates a retriever. The index may be nil, degrading retrieval to
// recency plus active threads. The random source is injectable so tests
// can assert deterministic surprise sampling; nil takes a time seed.
func New(index Searcher, rng *rand.Rand, logger *slog.Logger) *Retriever {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{index: index, rng: rng, logger: logger}
}

// ForPlanning gathers the context bundle for the next planning step. The
// two index-backed strategies run concurrently; each degrades to an empty
// list on error instead of failing the retrieval.
func (r *Retriever) ForPlanning(ctx context.Context, memory *model.StoryMemory, params Params) *Bundle {
	params.setDefaults()

	bundle := &Bundle{}
	recent := memory.RecentChapters(params.NRecent)
	for _, ch := range recent {
		bundle.RecentChapters = append(bundle.RecentChapters, RecentChapter{
			ChapterID:     ch.ID,
			ChapterNumber: ch.Number,
			Title:         ch.Title,
			Summary:       ch.Summary,
			Cliffhanger:   ch.Cliffhanger,
		})
	}

	// Relevance only kicks in once chapters exist beyond the recent
	// window; until then the index holds nothing new to surface.
	wantRelevance := r.index != nil && len(memory.Chapters) > params.NRecent
	if wantRelevance {
		query := buildQuery(memory, recent)

		// The nearest-neighbor queries dominate latency; run them in
		// parallel. They fill disjoint bundle fields.
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			bundle.RelevantChapters = r.relevantChapters(ctx, query, params, recent)
		}()
		go func() {
			defer wg.Done()
			bundle.RelevantEvents = r.relevantEvents(ctx, query, params)
		}()
		wg.Wait()
	}

	bundle.SurpriseCallbacks = r.surpriseCallbacks(memory, params)
	bundle.ActiveThreads = activeThreads(memory)

	r.logger.Debug("retrieved planning context",
		"recent", len(bundle.RecentChapters),
		"relevant_chapters", len(bundle.RelevantChapters),
		"relevant_events", len(bundle.RelevantEvents),
		"surprise", len(bundle.SurpriseCallbacks),
		"threads", len(bundle.ActiveThreads))

	return bundle
}

func buildQuery(memory *model.StoryMemory, recent []*model.Chapter) string {
	if len(recent) == 0 {
		// Cold start: anchor on the saga itself.
		return memory.SagaGoal + " " + memory.WorldName
	}
	latest := recent[0]
	events := latest.KeyEvents
	if len(events) > 3 {
		events = events[:3]
	}
	return latest.Summary + " " + strings.Join(events, " ")
}

func (r *Retriever) relevantChapters(ctx context.Context, query string, params Params, recent []*model.Chapter) []RelevantChapter {
	results, err := r.index.SearchChapters(ctx, query, params.NRelevant, params.ArcID)
	if err != nil {
		r.logger.Warn("chapter relevance degraded", "err", err)
		return nil
	}

	inRecent := make(map[string]bool, len(recent))
	for _, ch := range recent {
		inRecent[ch.ID] = true
	}

	var relevant []RelevantChapter
	for _, result := range results {
		// Recent chapters are already surfaced by the recency strategy.
		if inRecent[result.ID] {
			continue
		}
		relevant = append(relevant, RelevantChapter{
			ChapterID:     result.ID,
			ChapterNumber: result.Meta.ChapterNumber,
			Title:         result.Meta.Title,
			Summary:       result.Text,
			Relevance:     relevanceScore(result.Distance),
		})
	}
	return relevant
}

func (r *Retriever) relevantEvents(ctx context.Context, query string, params Params) []RelevantEvent {
	// Events are fine-grained enough that overlap with recent chapters is
	// acceptable; no exclusion filter here.
	results, err := r.index.SearchEvents(ctx, query, params.NRelevant*2)
	if err != nil {
		r.logger.Warn("event relevance degraded", "err", err)
		return nil
	}
	if len(results) > params.NRelevant {
		results = results[:params.NRelevant]
	}

	var events []RelevantEvent
	for _, result := range results {
		events = append(events, RelevantEvent{
			Event:         result.Text,
			ChapterID:     result.Meta.ChapterID,
			ChapterNumber: result.Meta.ChapterNumber,
			Relevance:     relevanceScore(result.Distance),
		})
	}
	return events
}

// surpriseCallbacks samples old chapters, far enough behind the current
// one that a callback reads as a deliberate reveal rather than a rehash.
func (r *Retriever) surpriseCallbacks(memory *model.StoryMemory, params Params) []SurpriseCallback {
	if params.NSurprise <= 0 {
		return nil
	}
	cutoff := memory.CurrentChapterNumber - params.NRecent - 5

	var eligible []*model.Chapter
	for _, ch := range memory.RecentChapters(-1) {
		if ch.Number < cutoff {
			eligible = append(eligible, ch)
		}
	}
	if len(eligible) == 0 {
		return nil
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].Number < eligible[j].Number })

	n := params.NSurprise
	if n > len(eligible) {
		n = len(eligible)
	}

	var callbacks []SurpriseCallback
	for _, idx := range r.rng.Perm(len(eligible))[:n] {
		ch := eligible[idx]
		keyEvent := ""
		if len(ch.KeyEvents) > 0 {
			keyEvent = ch.KeyEvents[r.rng.Intn(len(ch.KeyEvents))]
		}
		callbacks = append(callbacks, SurpriseCallback{
			ChapterID:     ch.ID,
			ChapterNumber: ch.Number,
			Title:         ch.Title,
			KeyEvent:      keyEvent,
			Note:          "Consider subtle callback",
		})
	}
	return callbacks
}

func activeThreads(memory *model.StoryMemory) []ActiveThread {
	open := memory.OpenThreads()
	// Importance first; OpenThreads already yields stable ID order for ties.
	sort.SliceStable(open, func(i, j int) bool {
		return open[i].ImportanceRank() > open[j].ImportanceRank()
	})
	if len(open) > 5 {
		open = open[:5]
	}

	var threads []ActiveThread
	for _, t := range open {
		threads = append(threads, ActiveThread{
			ThreadID:   t.ID,
			Name:       t.Name,
			Type:       t.Type,
			Importance: t.Importance,
			Status:     t.Status,
		})
	}
	return threads
}

// CharacterHistory searches past events involving a character.
func (r *Retriever) CharacterHistory(ctx context.Context, characterName string, n int) ([]RelevantEvent, error) {
	query := characterName + " character development moment action"
	return r.eventSearch(ctx, query, n)
}

// SimilarSituations finds past events resembling the described situation.
func (r *Retriever) SimilarSituations(ctx context.Context, situation string, n int) ([]RelevantEvent, error) {
	return r.eventSearch(ctx, situation, n)
}

func (r *Retriever) eventSearch(ctx context.Context, query string, n int) ([]RelevantEvent, error) {
	if r.index == nil {
		return nil, nil
	}
	results, err := r.index.SearchEvents(ctx, query, n)
	if err != nil {
		return nil, err
	}
	var events []RelevantEvent
	for _, result := range results {
		events = append(events, RelevantEvent{
			Event:         result.Text,
			ChapterID:     result.Meta.ChapterID,
			ChapterNumber: result.Meta.ChapterNumber,
			Relevance:     relevanceScore(result.Distance),
		})
	}
	return events, nil
}

// ThreadHistory returns a thread's developments in recorded order, straight
// from the story state. No index involved.
func ThreadHistory(memory *model.StoryMemory, threadName string) []model.Development {
	thread := memory.ThreadByName(threadName)
	if thread == nil {
		return nil
	}
	return thread.Developments
}

// relevanceScore converts a cosine-derived distance in [0, 2] to a score:
// 1-distance for the similar half of the range, 0 beyond it.
func relevanceScore(distance float64) float64 {
	if distance > 1 {
		return 0
	}
	return 1 - distance
}
