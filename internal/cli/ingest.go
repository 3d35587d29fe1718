package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"storymem/internal/config"
	"storymem/internal/llm"
	"storymem/internal/merge"
	"storymem/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Merge a finished chapter into the story state",
		Long:  "Registers the chapter, applies its fact batch to the story state, saves a backup, and indexes the chapter for retrieval. Facts come from a JSON file or are extracted from the chapter text by the language model.",
		Run:   runIngest,
	}

	cmd.Flags().StringP("meta", "m", "", "Chapter metadata JSON file (required)")
	cmd.Flags().StringP("text", "t", "", "Chapter prose file")
	cmd.Flags().String("facts", "", "Fact batch JSON file")
	cmd.Flags().Bool("extract", false, "Extract facts from the chapter text")

	cmd.MarkFlagRequired("meta")

	RootCmd.AddCommand(cmd)
}

// chapterMeta is the ingest input shape. The chapter ID and word count
// are derived, not supplied.
type chapterMeta struct {
	ChapterNumber     int      `json:"chapter_number"`
	ArcID             string   `json:"arc_id"`
	Title             string   `json:"title"`
	Summary           string   `json:"summary"`
	KeyEvents         []string `json:"key_events"`
	CharactersPresent []string `json:"characters_present"`
	Locations         []string `json:"locations"`
	Cliffhanger       string   `json:"cliffhanger"`
	CliffhangerType   string   `json:"cliffhanger_type"`
	Themes            []string `json:"themes"`
	Tone              string   `json:"tone"`
}

func runIngest(cmd *cobra.Command, args []string) {
	metaPath, _ := cmd.Flags().GetString("meta")
	textPath, _ := cmd.Flags().GetString("text")
	factsPath, _ := cmd.Flags().GetString("facts")
	extract, _ := cmd.Flags().GetBool("extract")

	if factsPath == "" && !extract {
		exitErr("ingest", fmt.Errorf("either --facts or --extract is required"))
	}
	if extract && textPath == "" {
		exitErr("ingest", fmt.Errorf("--extract requires --text"))
	}

	settings := loadSettings()
	logger := newLogger(settings)
	s := openStore(settings, logger)

	memory, err := s.Load()
	if err != nil {
		exitErr("load story", err)
	}

	chapter, err := buildChapter(metaPath, memory)
	if err != nil {
		exitErr("build chapter", err)
	}

	var content string
	if textPath != "" {
		raw, err := os.ReadFile(textPath)
		if err != nil {
			exitErr("read chapter text", err)
		}
		content = string(raw)
		chapter.WordCount = len(strings.Fields(content))
	}

	batch, err := loadFacts(cmd, factsPath, settings, chapter, content, logger)
	if err != nil {
		exitErr("facts", err)
	}

	var indexer merge.Indexer
	if ix, err := openIndex(settings, logger); err != nil {
		logger.Warn("index unavailable; merging without it", "err", err)
	} else {
		defer ix.Close()
		indexer = ix
	}

	pipeline := merge.New(indexer, logger)
	report, err := pipeline.Apply(cmd.Context(), memory, chapter, batch)
	if err != nil {
		exitErr("merge", err)
	}

	if content != "" {
		if err := s.SaveChapterText(chapter.ID, content); err != nil {
			exitErr("save chapter text", err)
		}
	}
	if err := s.Save(memory, true); err != nil {
		exitErr("save story", err)
	}

	printJSON(report)
}

func buildChapter(metaPath string, memory *model.StoryMemory) (*model.Chapter, error) {
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}
	var meta chapterMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("parse %s: %w", metaPath, err)
	}

	number := meta.ChapterNumber
	if number <= 0 {
		number = memory.CurrentChapterNumber + 1
	}
	arcID := meta.ArcID
	if arcID == "" {
		arcID = memory.CurrentArcID
	}

	return &model.Chapter{
		ID:                model.ChapterID(number),
		Number:            number,
		ArcID:             arcID,
		Title:             meta.Title,
		Summary:           meta.Summary,
		KeyEvents:         meta.KeyEvents,
		CharactersPresent: meta.CharactersPresent,
		Locations:         meta.Locations,
		Cliffhanger:       meta.Cliffhanger,
		CliffhangerType:   meta.CliffhangerType,
		Themes:            meta.Themes,
		Tone:              meta.Tone,
		CreatedAt:         time.Now().UTC(),
	}, nil
}

func loadFacts(cmd *cobra.Command, factsPath string, settings config.Settings, chapter *model.Chapter, content string, logger *slog.Logger) (merge.FactBatch, error) {
	if factsPath != "" {
		raw, err := os.ReadFile(factsPath)
		if err != nil {
			return merge.FactBatch{}, err
		}
		return merge.ParseFactBatch(string(raw))
	}

	client := llm.NewClient(settings.OpenAIBaseURL, settings.OpenAIAPIKey, settings.Model, settings.MaxRetries, logger)
	extractor := merge.NewExtractor(client, logger)
	return extractor.Extract(cmd.Context(), chapter, content)
}
