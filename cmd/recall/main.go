// Command recall is semantic search and question answering over a local
// article archive.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/recall/internal/adapters/driven/ai"
	"github.com/custodia-labs/recall/internal/adapters/driving/cli"
	"github.com/custodia-labs/recall/internal/logger"
	"github.com/custodia-labs/recall/internal/runtime"
)

// Environment variables read at startup.
const (
	envDataDir   = "RECALL_DATA_DIR"
	envConfigDir = "RECALL_CONFIG_DIR"
)

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env is not an error.
	_ = godotenv.Load()

	svc, err := runtime.New(runtime.Options{
		ConfigDir: os.Getenv(envConfigDir),
		DataDir:   os.Getenv(envDataDir),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("Shutdown: %v", err)
		}
	}()

	svc.Embedding.SetProgressFunc(cli.NewProgressReporter(os.Stderr))

	cli.SetServices(&cli.Services{
		Index:             svc.Index,
		Question:          svc.Answer,
		Embedding:         svc.Embedding,
		Generation:        svc.Generation,
		Articles:          svc.Articles,
		Settings:          svc.Settings,
		Normalisers:       svc.Normalisers,
		ValidateOllamaURL: ai.ValidateBaseURL,
	})
	cli.SetTUIConfig(&cli.TUIConfig{
		IndexService:    svc.Index,
		QuestionService: svc.Answer,
		ArticleService:  svc.Articles,
		SettingsService: svc.Settings,
	})

	if err := cli.Execute(); err != nil {
		return 1
	}
	return 0
}
