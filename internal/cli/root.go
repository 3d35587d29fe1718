// Package cli implements the storymem CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"storymem/internal/config"
	"storymem/internal/embedding"
	"storymem/internal/store"
	"storymem/internal/vector"
)

var dataDirFlag string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "storymem",
	Short: "Narrative state store for serial fiction",
	Long:  "Tracks characters, plot threads, relationships and world events across generated chapters, with semantic retrieval over everything written so far.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dataDirFlag, "data", "d", "", "Data directory (default: $STORYMEM_DATA_DIR or ./data)")
}

func loadSettings() config.Settings {
	// Missing .env files are fine; the environment still applies.
	_ = godotenv.Load()

	settings, err := config.Load()
	if err != nil {
		exitErr("load settings", err)
	}
	if dataDirFlag != "" {
		settings.DataDir = dataDirFlag
		settings.IndexPath = filepath.Join(dataDirFlag, "index.db")
	}
	return settings
}

func newLogger(settings config.Settings) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(settings.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openStore(settings config.Settings, logger *slog.Logger) *store.JSONStore {
	s, err := store.NewJSONStore(settings.DataDir, logger)
	if err != nil {
		exitErr("open store", err)
	}
	return s
}

func newEmbedder(settings config.Settings) embedding.Embedder {
	if settings.EmbeddingProvider == "ollama" {
		return embedding.NewOllamaEmbedder(settings.OllamaBaseURL, settings.EmbeddingModel)
	}
	return embedding.NewOpenAIEmbedder(settings.OpenAIBaseURL, settings.OpenAIAPIKey, settings.EmbeddingModel, 0)
}

// openIndex opens the semantic index. Callers that can work without it
// treat an error as degraded mode rather than fatal.
func openIndex(settings config.Settings, logger *slog.Logger) (*vector.Index, error) {
	return vector.NewIndex(settings.IndexPath, newEmbedder(settings), logger)
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
