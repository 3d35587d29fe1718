package retrieve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"storymem/internal/model"
	"storymem/internal/vector"
)

// fakeIndex returns canned results and records queries.
type fakeIndex struct {
	chapters []vector.Result
	events   []vector.Result
	fail     bool

	chapterQuery string
	chapterArcID string
	eventK       int
}

func (f *fakeIndex) SearchChapters(_ context.Context, query string, k int, arcID string) ([]vector.Result, error) {
	if f.fail {
		return nil, errors.New("index offline")
	}
	f.chapterQuery = query
	f.chapterArcID = arcID
	if len(f.chapters) > k {
		return f.chapters[:k], nil
	}
	return f.chapters, nil
}

func (f *fakeIndex) SearchEvents(_ context.Context, query string, k int) ([]vector.Result, error) {
	if f.fail {
		return nil, errors.New("index offline")
	}
	f.eventK = k
	if len(f.events) > k {
		return f.events[:k], nil
	}
	return f.events, nil
}

func testRetriever(index Searcher, seed int64) *Retriever {
	rng := rand.New(rand.NewSource(seed))
	return New(index, rng, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// memoryWithChapters builds a story with chapters 1..n.
func memoryWithChapters(n int) *model.StoryMemory {
	memory := model.NewStoryMemory("The Drift Chronicles", "Aerathos", "Chart the shattered isles")
	for i := 1; i <= n; i++ {
		id := model.ChapterID(i)
		memory.Chapters[id] = &model.Chapter{
			ID:        id,
			Number:    i,
			ArcID:     "arc_001",
			Title:     fmt.Sprintf("Chapter %d", i),
			Summary:   fmt.Sprintf("Summary of chapter %d", i),
			KeyEvents: []string{fmt.Sprintf("event %d-a", i), fmt.Sprintf("event %d-b", i)},
			CreatedAt: time.Now().UTC(),
		}
		memory.CurrentChapterNumber = i
	}
	return memory
}

func TestForPlanningRecencyOrder(t *testing.T) {
	memory := memoryWithChapters(5)
	r := testRetriever(nil, 1)

	bundle := r.ForPlanning(context.Background(), memory, Params{})

	if len(bundle.RecentChapters) != 3 {
		t.Fatalf("recent = %d, want 3", len(bundle.RecentChapters))
	}
	want := []int{5, 4, 3}
	for i, rc := range bundle.RecentChapters {
		if rc.ChapterNumber != want[i] {
			t.Errorf("recent[%d] = chapter %d, want %d", i, rc.ChapterNumber, want[i])
		}
	}
}

func TestForPlanningSkipsRelevanceForShortStory(t *testing.T) {
	memory := memoryWithChapters(3)
	index := &fakeIndex{chapters: []vector.Result{{ID: "ch_001"}}}
	r := testRetriever(index, 1)

	bundle := r.ForPlanning(context.Background(), memory, Params{})

	if index.chapterQuery != "" {
		t.Errorf("index queried with %q, want no query for 3 chapters", index.chapterQuery)
	}
	if len(bundle.RelevantChapters) != 0 {
		t.Errorf("relevant chapters = %d, want 0", len(bundle.RelevantChapters))
	}
}

func TestForPlanningRelevanceExcludesRecent(t *testing.T) {
	memory := memoryWithChapters(6)
	index := &fakeIndex{
		chapters: []vector.Result{
			{ID: "ch_006", Text: "recent hit", Meta: vector.Metadata{ChapterNumber: 6}, Distance: 0.1},
			{ID: "ch_002", Text: "old hit", Meta: vector.Metadata{ChapterNumber: 2, Title: "Chapter 2"}, Distance: 0.3},
		},
	}
	r := testRetriever(index, 1)

	bundle := r.ForPlanning(context.Background(), memory, Params{ArcID: "arc_001"})

	if index.chapterArcID != "arc_001" {
		t.Errorf("arc filter = %q, want arc_001", index.chapterArcID)
	}
	if len(bundle.RelevantChapters) != 1 {
		t.Fatalf("relevant chapters = %d, want 1", len(bundle.RelevantChapters))
	}
	got := bundle.RelevantChapters[0]
	if got.ChapterID != "ch_002" {
		t.Errorf("relevant chapter = %s, want ch_002", got.ChapterID)
	}
	if got.Relevance != 0.7 {
		t.Errorf("relevance = %v, want 0.7", got.Relevance)
	}
}

func TestForPlanningQueryFromLatestChapter(t *testing.T) {
	memory := memoryWithChapters(6)
	memory.Chapters["ch_006"].KeyEvents = []string{"one", "two", "three", "four"}
	index := &fakeIndex{}
	r := testRetriever(index, 1)

	r.ForPlanning(context.Background(), memory, Params{})

	want := "Summary of chapter 6 one two three"
	if index.chapterQuery != want {
		t.Errorf("query = %q, want %q", index.chapterQuery, want)
	}
}

func TestForPlanningEventOverfetch(t *testing.T) {
	memory := memoryWithChapters(6)
	var events []vector.Result
	for i := 0; i < 8; i++ {
		events = append(events, vector.Result{
			ID:       fmt.Sprintf("ch_001_event_%d", i),
			Text:     fmt.Sprintf("event %d", i),
			Meta:     vector.Metadata{ChapterID: "ch_001", ChapterNumber: 1},
			Distance: float64(i) * 0.1,
		})
	}
	index := &fakeIndex{events: events}
	r := testRetriever(index, 1)

	bundle := r.ForPlanning(context.Background(), memory, Params{})

	if index.eventK != 10 {
		t.Errorf("event search k = %d, want 10", index.eventK)
	}
	if len(bundle.RelevantEvents) != 5 {
		t.Fatalf("relevant events = %d, want 5", len(bundle.RelevantEvents))
	}
	if bundle.RelevantEvents[0].Event != "event 0" {
		t.Errorf("top event = %q, want closest first", bundle.RelevantEvents[0].Event)
	}
}

func TestSurpriseCallbackBoundary(t *testing.T) {
	// Current chapter 20, window 3: only chapters below 20-3-5 = 12 qualify.
	memory := memoryWithChapters(20)
	r := testRetriever(nil, 1)

	bundle := r.ForPlanning(context.Background(), memory, Params{NSurprise: 20})

	if len(bundle.SurpriseCallbacks) != 11 {
		t.Fatalf("callbacks = %d, want all 11 eligible", len(bundle.SurpriseCallbacks))
	}
	for _, cb := range bundle.SurpriseCallbacks {
		if cb.ChapterNumber >= 12 {
			t.Errorf("chapter %d surfaced as surprise, want only < 12", cb.ChapterNumber)
		}
		if cb.Note != "Consider subtle callback" {
			t.Errorf("note = %q", cb.Note)
		}
	}
}

func TestSurpriseCallbackDeterministicWithSeed(t *testing.T) {
	run := func() []SurpriseCallback {
		memory := memoryWithChapters(30)
		r := testRetriever(nil, 42)
		return r.ForPlanning(context.Background(), memory, Params{}).SurpriseCallbacks
	}

	first, second := run(), run()
	if len(first) != 2 {
		t.Fatalf("callbacks = %d, want 2", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("callback %d differs across seeded runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestSurpriseCallbackNoneForYoungStory(t *testing.T) {
	memory := memoryWithChapters(8)
	r := testRetriever(nil, 1)

	bundle := r.ForPlanning(context.Background(), memory, Params{})
	if len(bundle.SurpriseCallbacks) != 0 {
		t.Errorf("callbacks = %d, want 0 for an 8-chapter story", len(bundle.SurpriseCallbacks))
	}
}

func TestActiveThreadsRankedAndCapped(t *testing.T) {
	memory := memoryWithChapters(1)
	add := func(id, importance, status string) {
		memory.PlotThreads[id] = &model.PlotThread{
			ID: id, Name: id, Type: "mystery",
			Importance: importance, Status: status,
		}
	}
	add("thread_001", model.ImportanceMinor, model.ThreadOpen)
	add("thread_002", model.ImportanceMajor, model.ThreadProgressing)
	add("thread_003", model.ImportanceMedium, model.ThreadOpen)
	add("thread_004", model.ImportanceMajor, model.ThreadOpen)
	add("thread_005", model.ImportanceMajor, model.ThreadResolved)
	add("thread_006", model.ImportanceMinor, model.ThreadOpen)
	add("thread_007", model.ImportanceMinor, model.ThreadOpen)

	r := testRetriever(nil, 1)
	bundle := r.ForPlanning(context.Background(), memory, Params{})

	if len(bundle.ActiveThreads) != 5 {
		t.Fatalf("threads = %d, want cap of 5", len(bundle.ActiveThreads))
	}
	// Majors first in ID order, resolved excluded.
	wantOrder := []string{"thread_002", "thread_004", "thread_003", "thread_001", "thread_006"}
	for i, want := range wantOrder {
		if bundle.ActiveThreads[i].ThreadID != want {
			t.Errorf("threads[%d] = %s, want %s", i, bundle.ActiveThreads[i].ThreadID, want)
		}
	}
}

func TestForPlanningDegradesWithoutIndex(t *testing.T) {
	memory := memoryWithChapters(10)
	r := testRetriever(nil, 1)

	bundle := r.ForPlanning(context.Background(), memory, Params{})

	if len(bundle.RecentChapters) != 3 {
		t.Errorf("recent = %d, want 3", len(bundle.RecentChapters))
	}
	if len(bundle.RelevantChapters) != 0 || len(bundle.RelevantEvents) != 0 {
		t.Errorf("relevance lists populated without an index")
	}
}

func TestForPlanningDegradesOnIndexError(t *testing.T) {
	memory := memoryWithChapters(10)
	index := &fakeIndex{fail: true}
	r := testRetriever(index, 1)

	bundle := r.ForPlanning(context.Background(), memory, Params{})

	if len(bundle.RelevantChapters) != 0 || len(bundle.RelevantEvents) != 0 {
		t.Errorf("relevance lists populated despite index errors")
	}
	if len(bundle.RecentChapters) != 3 {
		t.Errorf("recent = %d, want 3", len(bundle.RecentChapters))
	}
}

func TestCharacterHistoryQueryShape(t *testing.T) {
	index := &fakeIndex{events: []vector.Result{
		{Text: "Kael found the compass", Meta: vector.Metadata{ChapterID: "ch_001", ChapterNumber: 1}, Distance: 0.2},
	}}
	r := testRetriever(index, 1)

	events, err := r.CharacterHistory(context.Background(), "Kael", 5)
	if err != nil {
		t.Fatalf("CharacterHistory: %v", err)
	}
	if len(events) != 1 || events[0].Event != "Kael found the compass" {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Relevance != 0.8 {
		t.Errorf("relevance = %v, want 0.8", events[0].Relevance)
	}
}

func TestThreadHistory(t *testing.T) {
	memory := memoryWithChapters(2)
	memory.PlotThreads["thread_001"] = &model.PlotThread{
		ID: "thread_001", Name: "Wind Walker Prophecy",
		Developments: []model.Development{
			{ChapterID: "ch_001", Description: "prophecy overheard"},
			{ChapterID: "ch_002", Description: "first sign appears"},
		},
	}

	devs := ThreadHistory(memory, "Wind Walker Prophecy")
	if len(devs) != 2 || devs[0].ChapterID != "ch_001" {
		t.Fatalf("developments = %+v", devs)
	}
	if got := ThreadHistory(memory, "No Such Thread"); got != nil {
		t.Errorf("unknown thread = %+v, want nil", got)
	}
}

func TestRelevanceScore(t *testing.T) {
	cases := []struct {
		distance, want float64
	}{
		{0, 1},
		{0.25, 0.75},
		{1, 0},
		{1.5, 0},
		{2, 0},
	}
	for _, tc := range cases {
		if got := relevanceScore(tc.distance); got != tc.want {
			t.Errorf("relevanceScore(%v) = %v, want %v", tc.distance, got, tc.want)
		}
	}
}
