package model

import (
	"testing"
)

func TestNewStoryMemoryInitializesCollections(t *testing.T) {
	m := NewStoryMemory("Chronicles of Aerathos", "Aerathos", "Chart the isles")
	if m.Characters == nil || m.PlotThreads == nil || m.Relationships == nil || m.ThemeCounts == nil {
		t.Fatal("collections not initialized")
	}
	if m.StoryTitle != "Chronicles of Aerathos" || m.SagaGoal != "Chart the isles" {
		t.Errorf("fields = %q / %q", m.StoryTitle, m.SagaGoal)
	}
}

func TestEnsureCollectionsAfterDecode(t *testing.T) {
	// Simulates state decoded from an older document with absent maps.
	m := &StoryMemory{}
	m.EnsureCollections()
	m.Characters["char_001"] = &Character{ID: "char_001"}
	m.ThemeCounts["adventure"]++
}

func TestSequentialIDs(t *testing.T) {
	m := NewStoryMemory("t", "w", "")
	if got := m.NextCharacterID(); got != "char_001" {
		t.Errorf("NextCharacterID = %q", got)
	}
	m.Characters["char_001"] = &Character{ID: "char_001"}
	if got := m.NextCharacterID(); got != "char_002" {
		t.Errorf("NextCharacterID = %q", got)
	}
	if got := m.NextThreadID(); got != "thread_001" {
		t.Errorf("NextThreadID = %q", got)
	}
	if got := ChapterID(12); got != "ch_012" {
		t.Errorf("ChapterID = %q", got)
	}
}

func TestRecentChaptersNewestFirst(t *testing.T) {
	m := NewStoryMemory("t", "w", "")
	for i := 1; i <= 5; i++ {
		id := ChapterID(i)
		m.Chapters[id] = &Chapter{ID: id, Number: i}
	}

	recent := m.RecentChapters(3)
	if len(recent) != 3 {
		t.Fatalf("len = %d", len(recent))
	}
	for i, want := range []int{5, 4, 3} {
		if recent[i].Number != want {
			t.Errorf("recent[%d] = %d, want %d", i, recent[i].Number, want)
		}
	}

	if got := m.RecentChapters(-1); len(got) != 5 {
		t.Errorf("all chapters = %d, want 5", len(got))
	}
	if got := m.RecentChapters(10); len(got) != 5 {
		t.Errorf("over-ask = %d, want 5", len(got))
	}
}

func TestLookupByNameIsExactAndDeterministic(t *testing.T) {
	m := NewStoryMemory("t", "w", "")
	m.Characters["char_002"] = &Character{ID: "char_002", Name: "Kael"}
	m.Characters["char_001"] = &Character{ID: "char_001", Name: "Kael"}

	if got := m.CharacterByName("Kael"); got == nil || got.ID != "char_001" {
		t.Errorf("CharacterByName = %+v, want lowest ID", got)
	}
	if got := m.CharacterByName("kael"); got != nil {
		t.Errorf("case-insensitive match = %+v, want nil", got)
	}
	if got := m.ThreadByName("absent"); got != nil {
		t.Errorf("ThreadByName absent = %+v", got)
	}
}

func TestOpenThreads(t *testing.T) {
	m := NewStoryMemory("t", "w", "")
	m.PlotThreads["thread_001"] = &PlotThread{ID: "thread_001", Status: ThreadResolved, Importance: ImportanceMajor}
	m.PlotThreads["thread_002"] = &PlotThread{ID: "thread_002", Status: ThreadOpen, Importance: ImportanceMajor}
	m.PlotThreads["thread_003"] = &PlotThread{ID: "thread_003", Status: ThreadProgressing, Importance: ImportanceMinor}
	m.PlotThreads["thread_004"] = &PlotThread{ID: "thread_004", Status: ThreadAbandoned, Importance: ImportanceMajor}

	open := m.OpenThreads()
	if len(open) != 2 || open[0].ID != "thread_002" || open[1].ID != "thread_003" {
		t.Fatalf("open = %+v", open)
	}

	major := m.MajorOpenThreads()
	if len(major) != 1 || major[0].ID != "thread_002" {
		t.Fatalf("major = %+v", major)
	}
}

func TestCharacterItemSetSemantics(t *testing.T) {
	c := &Character{ID: "char_001"}
	if !c.GainItem("compass") || c.GainItem("compass") {
		t.Error("gain should add once")
	}
	if len(c.Items) != 1 {
		t.Errorf("items = %v", c.Items)
	}
	if !c.HasItem("compass") {
		t.Error("HasItem = false")
	}
	if !c.LoseItem("compass") || c.LoseItem("compass") {
		t.Error("lose should remove once")
	}
	if c.HasItem("compass") {
		t.Error("item survived removal")
	}
}

func TestRelationshipKeyIsOrderIndependent(t *testing.T) {
	a := RelationshipKey("char_002", "char_001")
	b := RelationshipKey("char_001", "char_002")
	if a != b {
		t.Errorf("keys differ: %q vs %q", a, b)
	}
	if a != "rel_char_001_char_002" {
		t.Errorf("key = %q", a)
	}
}

func TestArcNextPhase(t *testing.T) {
	arc := &Arc{CurrentPhase: PhaseArrival}
	if got := arc.NextPhase(); got != PhaseDiscovery {
		t.Errorf("NextPhase = %q", got)
	}
	arc.CurrentPhase = PhaseDeparture
	if got := arc.NextPhase(); got != PhaseDeparture {
		t.Errorf("final phase advanced to %q", got)
	}
}

func TestThreadHasDevelopment(t *testing.T) {
	th := &PlotThread{ID: "thread_001"}
	th.Developments = append(th.Developments, Development{ChapterID: "ch_001", Description: "a clue"})
	if !th.HasDevelopment("ch_001", "a clue") {
		t.Error("existing development not found")
	}
	if th.HasDevelopment("ch_002", "a clue") || th.HasDevelopment("ch_001", "other") {
		t.Error("false positive")
	}
}
