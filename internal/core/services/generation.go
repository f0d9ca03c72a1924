package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure GenerationModel implements the interface.
var _ driving.GenerationModel = (*GenerationModel)(nil)

// Default generation parameters. Answers should stick to the context, so the
// temperature is kept low.
const (
	DefaultGenerationMaxTokens   = 1024
	DefaultGenerationTemperature = 0.2
)

// GenerationModel owns the single resident language model.
// Unlike the embedding model it is never loaded implicitly: questions are
// refused until the user loads a model.
type GenerationModel struct {
	runtime driven.GenerationRuntime
	config  driven.ConfigStore
	opts    driven.ChatOptions

	loads singleflight.Group

	mu       sync.Mutex
	model    string
	loaded   bool
	loading  bool
	lastErr  string
	progress domain.PullProgress
	cancel   context.CancelFunc
	aborted  bool
}

// NewGenerationModel creates a generation model service.
func NewGenerationModel(runtime driven.GenerationRuntime, config driven.ConfigStore) *GenerationModel {
	return &GenerationModel{
		runtime: runtime,
		config:  config,
		opts: driven.ChatOptions{
			MaxTokens:   DefaultGenerationMaxTokens,
			Temperature: DefaultGenerationTemperature,
		},
	}
}

// Status reports whether a model is loaded.
func (g *GenerationModel) Status() domain.GenerationStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return domain.GenerationStatus{
		Loaded:   g.loaded,
		Loading:  g.loading,
		Model:    g.model,
		Error:    g.lastErr,
		Progress: g.progress,
	}
}

// Load makes model resident. An empty model loads the persisted selection.
// A successful load persists the model as the selection. A caller that joined
// a load cancelled by another caller's context starts its own; a load stopped
// with Cancel ends for every caller.
func (g *GenerationModel) Load(ctx context.Context, model string, progress func(domain.PullProgress)) error {
	model = strings.TrimSpace(model)
	if model == "" {
		model = getString(g.config, keyLLMModel, domain.DefaultGenerationModel)
	}

	for {
		g.mu.Lock()
		ready := g.loaded && g.model == model
		g.mu.Unlock()
		if ready {
			return nil
		}

		led := false
		v, err, _ := g.loads.Do("load", func() (any, error) {
			led = true
			return model, g.swap(ctx, model, progress)
		})
		if v.(string) == model {
			if !led && errors.Is(err, domain.ErrModelLoadCancelled) && ctx.Err() == nil && !g.wasAborted() {
				continue
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
}

// Cancel aborts an in-flight load.
func (g *GenerationModel) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.aborted = true
		g.cancel()
	}
}

func (g *GenerationModel) wasAborted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.aborted
}

// Unload releases the resident model.
func (g *GenerationModel) Unload(ctx context.Context) error {
	g.mu.Lock()
	if g.loading {
		g.mu.Unlock()
		return domain.ErrModelLoadInProgress
	}
	if !g.loaded {
		g.mu.Unlock()
		return nil
	}
	model := g.model
	g.loaded = false
	g.mu.Unlock()

	if err := g.runtime.Unload(ctx, model); err != nil {
		return fmt.Errorf("unload language model %s: %w", model, err)
	}
	logger.Info("Unloaded language model %s", model)
	return nil
}

// Generate produces a completion. Runtime errors are returned unchanged.
func (g *GenerationModel) Generate(ctx context.Context, prompt, systemPrompt string) (string, error) {
	g.mu.Lock()
	loaded, model := g.loaded, g.model
	g.mu.Unlock()
	if !loaded {
		return "", domain.ErrGenerationModelNotLoaded
	}

	messages := make([]driven.ChatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, driven.ChatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, driven.ChatMessage{Role: "user", Content: prompt})

	logger.Debug("Generating with %s (%d prompt chars)", model, len(prompt))
	return g.runtime.Chat(ctx, model, messages, g.opts)
}

// swap disposes of a different resident model and loads model.
// Only ever runs inside the single-flight group.
func (g *GenerationModel) swap(ctx context.Context, model string, progress func(domain.PullProgress)) error {
	loadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g.mu.Lock()
	if g.loaded && g.model == model {
		g.mu.Unlock()
		return nil
	}
	prev, hadPrev := g.model, g.loaded
	g.loaded = false
	g.loading = true
	g.model = model
	g.lastErr = ""
	g.progress = domain.PullProgress{}
	g.cancel = cancel
	g.aborted = false
	g.mu.Unlock()

	if hadPrev {
		logger.Info("Disposing language model %s before loading %s", prev, model)
		if err := g.runtime.Unload(ctx, prev); err != nil {
			logger.Warn("Unload language model %s: %v", prev, err)
		}
	}

	logger.Info("Loading language model %s", model)
	err := g.runtime.Load(loadCtx, model, func(p domain.PullProgress) {
		g.mu.Lock()
		g.progress = p
		g.mu.Unlock()
		if progress != nil {
			progress(p)
		}
	})

	g.mu.Lock()
	defer g.mu.Unlock()
	g.loading = false
	g.cancel = nil

	if err != nil {
		if loadCtx.Err() != nil {
			g.lastErr = domain.ErrModelLoadCancelled.Error()
			return fmt.Errorf("%w: %s", domain.ErrModelLoadCancelled, model)
		}
		g.lastErr = err.Error()
		logger.Warn("Language model %s failed to load: %v", model, err)
		return fmt.Errorf("load language model %s: %w", model, err)
	}

	g.loaded = true
	if err := g.config.Set(keyLLMModel, model); err != nil {
		logger.Warn("Persist language model selection: %v", err)
	}
	logger.Info("Language model %s loaded", model)
	return nil
}
