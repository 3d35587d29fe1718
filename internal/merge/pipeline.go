// Package merge applies extracted fact batches to the story state. It is
// the only component that mutates the aggregate; retrieval and checkers
// get read-only views.
package merge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"storymem/internal/model"
	"storymem/internal/names"
)

// Indexer is the slice of the semantic index the pipeline needs for its
// post-merge side effect.
type Indexer interface {
	IndexChapter(ctx context.Context, ch *model.Chapter) error
	IndexThread(ctx context.Context, t *model.PlotThread) error
}

// Report summarizes one merge for the caller. Warnings are referential
// problems that were logged and skipped; they never halt the batch.
type Report struct {
	CharactersAdded   int      `json:"characters_added"`
	CharactersUpdated int      `json:"characters_updated"`
	ThreadsIntroduced int      `json:"threads_introduced"`
	ThreadsProgressed int      `json:"threads_progressed"`
	ThreadsResolved   int      `json:"threads_resolved"`
	Relationships     int      `json:"relationships"`
	TimelineEvents    int      `json:"timeline_events"`
	Indexed           bool     `json:"indexed"`
	Warnings          []string `json:"warnings,omitempty"`
}

func (r *Report) warnf(logger *slog.Logger, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	logger.Warn(msg)
}

// Pipeline reconciles fact batches into the story state in a fixed order:
// new characters, character updates, locations, threads, relationships,
// timeline events, arc progress, theme tally. Only one merge may be in
// flight at a time per story; callers serialize.
type Pipeline struct {
	index  Indexer
	logger *slog.Logger
}

// New creates a pipeline. The indexer may be nil; merges then skip the
// indexing side effect.
func New(index Indexer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{index: index, logger: logger}
}

// Apply merges one chapter and its fact batch into the story state, then
// forwards the chapter and any thread it set up to the semantic index.
// Replaying the same chapter and batch is a no-op: entity creation runs
// through the name resolver, developments and events are keyed to the
// chapter, and per-chapter counters are skipped for known chapters.
func (p *Pipeline) Apply(ctx context.Context, memory *model.StoryMemory, chapter *model.Chapter, batch FactBatch) (*Report, error) {
	if memory == nil || chapter == nil {
		return nil, fmt.Errorf("merge: nil memory or chapter")
	}
	batch.applyDefaults()

	report := &Report{}

	_, replay := memory.Chapters[chapter.ID]
	if replay {
		p.logger.Info("chapter already merged; counters unchanged", "chapter", chapter.ID)
	} else {
		memory.Chapters[chapter.ID] = chapter
	}
	if chapter.Number > memory.CurrentChapterNumber {
		memory.CurrentChapterNumber = chapter.Number
	}

	p.applyNewCharacters(memory, chapter, batch.NewCharacters, report)
	p.applyCharacterUpdates(memory, batch.CharacterUpdates, report)
	p.applyLocationUpdates(memory, batch.LocationUpdates, report)
	p.applyThreadActions(memory, chapter, batch.ThreadActions, report)
	p.applyRelationships(memory, chapter, batch.Relationships, report)
	p.applyTimelineEvents(memory, chapter, batch.MajorEvents, report)

	if !replay {
		if arc := memory.CurrentArc(); arc != nil {
			arc.CurrentChapter++
			p.logger.Info("arc progress", "arc", arc.Name,
				"chapter", arc.CurrentChapter, "expected", arc.ExpectedChapters)
		}
		for _, theme := range chapter.Themes {
			memory.ThemeCounts[theme]++
		}
	}

	// Store changes above are durable regardless of indexing: an index
	// failure is re-runnable, store corruption is not.
	if p.index != nil {
		report.Indexed = p.indexChapter(ctx, memory, chapter, report)
	}

	return report, nil
}

func (p *Pipeline) applyNewCharacters(memory *model.StoryMemory, chapter *model.Chapter, facts []NewCharacter, report *Report) {
	candidates := make(map[string]string, len(memory.Characters))
	for id, c := range memory.Characters {
		candidates[id] = c.Name
	}

	for _, fact := range facts {
		if fact.Name == "" {
			continue
		}
		if matchID := names.FindMatch(fact.Name, candidates); matchID != "" {
			existing := memory.Characters[matchID]
			p.logger.Debug("character already known", "name", fact.Name, "matches", existing.Name)
			// Backfill empty fields only; never overwrite established data.
			if fact.Personality != "" && existing.Personality == "" {
				existing.Personality = fact.Personality
			}
			if fact.Role != "" && fact.Role != model.RoleNeutral && existing.Role == model.RoleNeutral {
				existing.Role = fact.Role
			}
			continue
		}

		id := memory.NextCharacterID()
		memory.Characters[id] = &model.Character{
			ID:              id,
			Name:            fact.Name,
			Personality:     fact.Personality,
			Background:      fact.FirstDescription,
			Role:            fact.Role,
			Status:          model.StatusActive,
			FirstAppearance: chapter.ID,
		}
		candidates[id] = fact.Name
		report.CharactersAdded++
		p.logger.Info("added character", "id", id, "name", fact.Name, "role", fact.Role)
	}
}

func (p *Pipeline) applyCharacterUpdates(memory *model.StoryMemory, updates []CharacterUpdate, report *Report) {
	for _, update := range updates {
		// Updates must reference an already-canonical name; no fuzzing here.
		character := memory.CharacterByName(update.CharacterName)
		if character == nil {
			report.warnf(p.logger, "character %q not found for update", update.CharacterName)
			continue
		}

		delta := update.Updates
		if delta.Status != nil {
			character.Status = *delta.Status
		}
		if delta.Location != nil {
			character.CurrentLocation = *delta.Location
		}
		for _, item := range delta.ItemsGained {
			character.GainItem(item)
		}
		for _, item := range delta.ItemsLost {
			character.LoseItem(item)
		}
		report.CharactersUpdated++
	}
}

func (p *Pipeline) applyLocationUpdates(memory *model.StoryMemory, updates []LocationUpdate, report *Report) {
	for _, update := range updates {
		location := memory.LocationByName(update.LocationName)
		if location == nil {
			// Locations are added explicitly elsewhere, not by the merge
			// pipeline; an unknown one is just a mention.
			p.logger.Info("location mentioned", "name", update.LocationName, "change", update.Change)
			continue
		}
		if update.Status != "" {
			location.Status = update.Status
		}
	}
}

func (p *Pipeline) applyThreadActions(memory *model.StoryMemory, chapter *model.Chapter, actions []ThreadAction, report *Report) {
	for _, action := range actions {
		switch action.Action {
		case ActionIntroduce:
			p.introduceThread(memory, chapter, action, report)
		case ActionProgress:
			thread := memory.ThreadByName(action.ThreadName)
			if thread == nil {
				report.warnf(p.logger, "thread %q not found for progress", action.ThreadName)
				continue
			}
			if thread.HasDevelopment(chapter.ID, action.Description) {
				continue
			}
			thread.Status = model.ThreadProgressing
			thread.Developments = append(thread.Developments, model.Development{
				ChapterID:   chapter.ID,
				Description: action.Description,
			})
			report.ThreadsProgressed++
		case ActionResolve:
			thread := memory.ThreadByName(action.ThreadName)
			if thread == nil {
				report.warnf(p.logger, "thread %q not found for resolve", action.ThreadName)
				continue
			}
			// First resolution wins; later resolve facts never overwrite it.
			if thread.Status == model.ThreadResolved {
				report.warnf(p.logger, "thread %q already resolved in %s", action.ThreadName, thread.ResolutionChapter)
				continue
			}
			thread.Status = model.ThreadResolved
			thread.ResolutionChapter = chapter.ID
			thread.ResolutionDescription = action.Description
			report.ThreadsResolved++
		default:
			report.warnf(p.logger, "unknown thread action %q for %q", action.Action, action.ThreadName)
		}
	}
}

func (p *Pipeline) introduceThread(memory *model.StoryMemory, chapter *model.Chapter, action ThreadAction, report *Report) {
	candidates := make(map[string]string, len(memory.PlotThreads))
	for id, t := range memory.PlotThreads {
		candidates[id] = t.Name
	}

	if matchID := names.FindMatch(action.ThreadName, candidates); matchID != "" {
		existing := memory.PlotThreads[matchID]
		p.logger.Debug("thread already known", "name", action.ThreadName, "matches", existing.Name)
		if action.Description != "" && existing.SetupDescription == "" {
			existing.SetupDescription = action.Description
		}
		return
	}
	if action.ThreadName == "" {
		return
	}

	id := memory.NextThreadID()
	memory.PlotThreads[id] = &model.PlotThread{
		ID:               id,
		Name:             action.ThreadName,
		Type:             "mystery",
		SetupChapter:     chapter.ID,
		SetupDescription: action.Description,
		Status:           model.ThreadOpen,
		Importance:       model.ImportanceMedium,
	}
	report.ThreadsIntroduced++
	p.logger.Info("introduced thread", "id", id, "name", action.ThreadName)
}

func (p *Pipeline) applyRelationships(memory *model.StoryMemory, chapter *model.Chapter, mentions []RelationshipMention, report *Report) {
	for _, mention := range mentions {
		a := memory.CharacterByName(mention.CharacterA)
		b := memory.CharacterByName(mention.CharacterB)
		if a == nil || b == nil {
			report.warnf(p.logger, "relationship %q <-> %q skipped: character unknown",
				mention.CharacterA, mention.CharacterB)
			continue
		}

		key := model.RelationshipKey(a.ID, b.ID)
		if existing, ok := memory.Relationships[key]; ok {
			// A single mention must not flip an established relationship;
			// only the recency marker moves.
			existing.LastUpdated = chapter.ID
			continue
		}

		memory.Relationships[key] = &model.Relationship{
			CharacterA:         min(a.ID, b.ID),
			CharacterB:         max(a.ID, b.ID),
			Type:               mention.Type,
			Strength:           50,
			EstablishedChapter: chapter.ID,
			LastUpdated:        chapter.ID,
			Notes:              mention.Description,
		}
		report.Relationships++
	}
}

func (p *Pipeline) applyTimelineEvents(memory *model.StoryMemory, chapter *model.Chapter, events []TimelineEvent, report *Report) {
	for _, event := range events {
		if p.timelineHas(memory, chapter.ID, event.Description) {
			continue
		}
		memory.WorldTimeline = append(memory.WorldTimeline, model.WorldEvent{
			ID:            fmt.Sprintf("event_%s_%d", chapter.ID, len(memory.WorldTimeline)+1),
			ChapterID:     chapter.ID,
			ChapterNumber: chapter.Number,
			Description:   event.Description,
			Type:          event.Type,
			Impact:        event.Impact,
			Timestamp:     time.Now().UTC(),
		})
		report.TimelineEvents++
	}
}

func (p *Pipeline) timelineHas(memory *model.StoryMemory, chapterID, description string) bool {
	for _, event := range memory.WorldTimeline {
		if event.ChapterID == chapterID && event.Description == description {
			return true
		}
	}
	return false
}

func (p *Pipeline) indexChapter(ctx context.Context, memory *model.StoryMemory, chapter *model.Chapter, report *Report) bool {
	if err := p.index.IndexChapter(ctx, chapter); err != nil {
		report.warnf(p.logger, "index chapter %s: %v", chapter.ID, err)
		return false
	}
	for _, thread := range memory.PlotThreads {
		if thread.SetupChapter != chapter.ID {
			continue
		}
		if err := p.index.IndexThread(ctx, thread); err != nil {
			report.warnf(p.logger, "index thread %s: %v", thread.ID, err)
			return false
		}
	}
	return true
}
