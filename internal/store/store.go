// Package store persists the story state aggregate as a JSON document with
// timestamped backups, plus one markdown file per chapter body.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"storymem/internal/model"
)

// ErrNoStory signals that no persisted story exists yet. This is the
// expected first-run condition, not a failure.
var ErrNoStory = errors.New("no story state found")

// ErrBackupNotFound signals an unknown backup ID.
var ErrBackupNotFound = errors.New("backup not found")

// ErrNoChapterText signals a missing chapter body file.
var ErrNoChapterText = errors.New("chapter text not found")

// CorruptStateError reports persisted state that no longer decodes into the
// data model. The load that hit it must not partially populate anything.
type CorruptStateError struct {
	Path string
	Err  error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt story state at %s: %v", e.Path, e.Err)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }

const memoryFileName = "story_memory.json"

// Backup describes one timestamped backup copy of the story document.
type Backup struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

// JSONStore is the durable entity store. Saves are atomic from the caller's
// perspective: the document is written to a temp file and renamed over the
// previous copy, optionally after a backup.
type JSONStore struct {
	dataDir     string
	memoryFile  string
	backupDir   string
	chaptersDir string
	entropy     *rand.Rand
	logger      *slog.Logger
}

// NewJSONStore opens or creates a store rooted at dataDir.
func NewJSONStore(dataDir string, logger *slog.Logger) (*JSONStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &JSONStore{
		dataDir:     dataDir,
		memoryFile:  filepath.Join(dataDir, memoryFileName),
		backupDir:   filepath.Join(dataDir, "backups"),
		chaptersDir: filepath.Join(dataDir, "chapters"),
		entropy:     rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:      logger,
	}
	for _, dir := range []string{s.dataDir, s.backupDir, s.chaptersDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	return s, nil
}

// Exists reports whether a story document is present.
func (s *JSONStore) Exists() bool {
	_, err := os.Stat(s.memoryFile)
	return err == nil
}

// Load reads the story document. Returns ErrNoStory when none exists and a
// CorruptStateError when the document no longer decodes.
func (s *JSONStore) Load() (*model.StoryMemory, error) {
	data, err := os.ReadFile(s.memoryFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoStory
	}
	if err != nil {
		return nil, fmt.Errorf("read story state: %w", err)
	}

	var memory model.StoryMemory
	if err := json.Unmarshal(data, &memory); err != nil {
		return nil, &CorruptStateError{Path: s.memoryFile, Err: err}
	}
	memory.EnsureCollections()

	s.logger.Info("loaded story state",
		"story", memory.StoryTitle,
		"chapters", len(memory.Chapters),
		"characters", len(memory.Characters))

	return &memory, nil
}

// Save writes the story document, bumping its last-updated timestamp. With
// backup set, the previous copy is preserved under the backups directory
// first.
func (s *JSONStore) Save(memory *model.StoryMemory, backup bool) error {
	memory.LastUpdated = time.Now().UTC()

	if backup && s.Exists() {
		if _, err := s.CreateBackup(); err != nil {
			return fmt.Errorf("backup before save: %w", err)
		}
	}

	data, err := json.MarshalIndent(memory, "", "  ")
	if err != nil {
		return fmt.Errorf("encode story state: %w", err)
	}

	tmp, err := os.CreateTemp(s.dataDir, memoryFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write story state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write story state: %w", err)
	}
	if err := os.Rename(tmpName, s.memoryFile); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace story state: %w", err)
	}

	s.logger.Debug("saved story state", "path", s.memoryFile)
	return nil
}

// CreateBackup copies the current story document into the backups
// directory under a ULID name, so backup names sort chronologically.
func (s *JSONStore) CreateBackup() (*Backup, error) {
	data, err := os.ReadFile(s.memoryFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoStory
	}
	if err != nil {
		return nil, fmt.Errorf("read story state: %w", err)
	}

	id := ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
	name := fmt.Sprintf("story_memory_%s.json", id)
	path := filepath.Join(s.backupDir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write backup: %w", err)
	}

	b := &Backup{ID: id, Name: name, SizeBytes: int64(len(data))}
	b.CreatedAt = ulid.Time(ulid.MustParse(id).Time())
	s.logger.Info("created backup", "name", name)
	return b, nil
}

// ListBackups returns all backups, newest first.
func (s *JSONStore) ListBackups() ([]Backup, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var backups []Backup
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "story_memory_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, "story_memory_"), ".json")
		b := Backup{ID: id, Name: name}
		if parsed, err := ulid.Parse(id); err == nil {
			b.CreatedAt = ulid.Time(parsed.Time())
		}
		if info, err := entry.Info(); err == nil {
			b.SizeBytes = info.Size()
		}
		backups = append(backups, b)
	}

	// ULID names sort chronologically, newest last; reverse for newest-first.
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Name > backups[j].Name
	})
	return backups, nil
}

// RestoreBackup loads a backup wholesale. It does not merge and does not
// touch the current document; callers decide whether to Save the result.
func (s *JSONStore) RestoreBackup(id string) (*model.StoryMemory, error) {
	name := id
	if !strings.HasSuffix(name, ".json") {
		name = fmt.Sprintf("story_memory_%s.json", id)
	}

	data, err := os.ReadFile(filepath.Join(s.backupDir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBackupNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}

	var memory model.StoryMemory
	if err := json.Unmarshal(data, &memory); err != nil {
		return nil, &CorruptStateError{Path: name, Err: err}
	}
	memory.EnsureCollections()

	s.logger.Info("restored backup", "name", name)
	return &memory, nil
}

// SaveChapterText writes a chapter body to its own markdown file.
func (s *JSONStore) SaveChapterText(chapterID, content string) error {
	path := filepath.Join(s.chaptersDir, chapterID+".md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write chapter text: %w", err)
	}
	return nil
}

// LoadChapterText reads a chapter body, or ErrNoChapterText when absent.
func (s *JSONStore) LoadChapterText(chapterID string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.chaptersDir, chapterID+".md"))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNoChapterText, chapterID)
	}
	if err != nil {
		return "", fmt.Errorf("read chapter text: %w", err)
	}
	return string(data), nil
}
