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

// Ensure EmbeddingProvider implements the interface.
var _ driving.EmbeddingProvider = (*EmbeddingProvider)(nil)

// EmbeddingProvider owns the single resident embedding model.
//
// The model follows Unloaded -> Loading -> Loaded -> Unloading -> Unloaded,
// with Failed recorded when a load errors. Loads are single-flight: callers
// that arrive during a load wait for it instead of starting another. The
// selected model is read from the config store on every call, so changing
// the selection swaps the model on next use.
type EmbeddingProvider struct {
	runtime driven.EmbeddingRuntime
	config  driven.ConfigStore
	catalog []domain.EmbeddingModelDescriptor

	loads singleflight.Group

	mu       sync.RWMutex
	state    domain.ModelState
	current  domain.EmbeddingModelDescriptor
	loadErr  error
	progress driven.ProgressFunc
}

// NewEmbeddingProvider creates an embedding provider.
// The catalog lists the selectable models; nil uses the built-in catalog.
func NewEmbeddingProvider(
	runtime driven.EmbeddingRuntime,
	config driven.ConfigStore,
	catalog []domain.EmbeddingModelDescriptor,
) *EmbeddingProvider {
	if len(catalog) == 0 {
		catalog = domain.EmbeddingModelCatalog()
	}
	return &EmbeddingProvider{
		runtime: runtime,
		config:  config,
		catalog: catalog,
		state:   domain.ModelStateUnloaded,
	}
}

// SetProgressFunc sets the callback for model download progress.
func (p *EmbeddingProvider) SetProgressFunc(fn driven.ProgressFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.progress = fn
}

// Models lists the catalog.
func (p *EmbeddingProvider) Models() []domain.EmbeddingModelDescriptor {
	out := make([]domain.EmbeddingModelDescriptor, len(p.catalog))
	copy(out, p.catalog)
	return out
}

// SelectedModel returns the descriptor of the persisted selection.
func (p *EmbeddingProvider) SelectedModel() (domain.EmbeddingModelDescriptor, error) {
	id := getString(p.config, keyEmbeddingModel, domain.DefaultEmbeddingModelID)
	desc, ok := domain.FindEmbeddingModel(p.catalog, id)
	if !ok {
		return domain.EmbeddingModelDescriptor{}, fmt.Errorf("%w: %s", domain.ErrUnknownModel, id)
	}
	return desc, nil
}

// SelectModel persists a new selection. The resident model is swapped on next use.
func (p *EmbeddingProvider) SelectModel(id string) error {
	if _, ok := domain.FindEmbeddingModel(p.catalog, id); !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownModel, id)
	}
	if err := p.config.Set(keyEmbeddingModel, id); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	logger.Info("Selected embedding model %s", id)
	return nil
}

// Status reports the model slot state.
func (p *EmbeddingProvider) Status() domain.ModelStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	status := domain.ModelStatus{
		State:      p.state,
		Dimensions: p.current.Dimensions,
	}
	if p.state != domain.ModelStateUnloaded {
		status.ModelID = p.current.ID
	}
	if p.loadErr != nil {
		status.Error = p.loadErr.Error()
	}
	if sel, err := p.SelectedModel(); err == nil {
		status.SelectedID = sel.ID
	}
	return status
}

// Load makes the selected model resident. It is a no-op when that model is
// already loaded and retries after a failure. A caller that joined a load
// cancelled by another caller's context starts its own.
func (p *EmbeddingProvider) Load(ctx context.Context) error {
	sel, err := p.SelectedModel()
	if err != nil {
		return err
	}

	for {
		if p.isLoaded(sel.ID) {
			return nil
		}

		led := false
		v, err, _ := p.loads.Do("load", func() (any, error) {
			led = true
			return sel.ID, p.swap(ctx, sel)
		})
		if v.(string) == sel.ID {
			if !led && errors.Is(err, domain.ErrModelLoadCancelled) && ctx.Err() == nil {
				continue
			}
			return err
		}
		// Joined a load for a different model; try again for ours.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
}

// Unload releases the resident model.
func (p *EmbeddingProvider) Unload(ctx context.Context) error {
	p.mu.Lock()
	switch p.state {
	case domain.ModelStateLoading:
		p.mu.Unlock()
		return domain.ErrModelLoadInProgress
	case domain.ModelStateFailed:
		p.state = domain.ModelStateUnloaded
		p.loadErr = nil
		p.mu.Unlock()
		return nil
	case domain.ModelStateLoaded:
	default:
		p.mu.Unlock()
		return nil
	}
	model := p.current
	p.state = domain.ModelStateUnloading
	p.mu.Unlock()

	err := p.runtime.Unload(ctx, model.Ref)

	p.mu.Lock()
	p.state = domain.ModelStateUnloaded
	p.current = domain.EmbeddingModelDescriptor{}
	p.mu.Unlock()

	if err != nil {
		return fmt.Errorf("unload embedding model %s: %w", model.ID, err)
	}
	logger.Info("Unloaded embedding model %s", model.ID)
	return nil
}

// Embed returns the L2-normalised embedding of text. The text is cut to
// MaxEmbedChars characters first. The selected model is loaded when it is not
// resident; a model whose load failed is not retried here.
func (p *EmbeddingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embed empty text: %w", domain.ErrInvalidInput)
	}

	sel, err := p.SelectedModel()
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	failed := p.state == domain.ModelStateFailed && p.current.ID == sel.ID
	loadErr := p.loadErr
	p.mu.RUnlock()
	if failed {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrEmbeddingModelFailed, sel.ID, loadErr)
	}

	if !p.isLoaded(sel.ID) {
		if err := p.Load(ctx); err != nil {
			return nil, err
		}
	}

	vec, err := p.runtime.Embed(ctx, sel.Ref, truncateRunes(text, MaxEmbedChars))
	if err != nil {
		return nil, fmt.Errorf("embed with %s: %w", sel.ID, err)
	}
	if len(vec) != sel.Dimensions {
		return nil, fmt.Errorf("%w: model %s returned %d values, expected %d",
			domain.ErrDimensionMismatch, sel.ID, len(vec), sel.Dimensions)
	}

	return Normalize(vec), nil
}

func (p *EmbeddingProvider) isLoaded(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state == domain.ModelStateLoaded && p.current.ID == id
}

// swap disposes of a different resident model and loads sel.
// Only ever runs inside the single-flight group.
func (p *EmbeddingProvider) swap(ctx context.Context, sel domain.EmbeddingModelDescriptor) error {
	p.mu.Lock()
	if p.state == domain.ModelStateLoaded && p.current.ID == sel.ID {
		p.mu.Unlock()
		return nil
	}
	prev := p.current
	hadPrev := p.state == domain.ModelStateLoaded
	progress := p.progress
	if hadPrev {
		p.state = domain.ModelStateUnloading
	}
	p.mu.Unlock()

	if hadPrev {
		logger.Info("Disposing embedding model %s before loading %s", prev.ID, sel.ID)
		if err := p.runtime.Unload(ctx, prev.Ref); err != nil {
			logger.Warn("Unload embedding model %s: %v", prev.ID, err)
		}
	}

	p.mu.Lock()
	p.state = domain.ModelStateLoading
	p.current = sel
	p.loadErr = nil
	p.mu.Unlock()

	logger.Info("Loading embedding model %s (%s)", sel.ID, sel.Ref)
	err := p.runtime.Load(ctx, sel.Ref, progress)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			p.state = domain.ModelStateUnloaded
			p.current = domain.EmbeddingModelDescriptor{}
			return fmt.Errorf("%w: %s", domain.ErrModelLoadCancelled, sel.ID)
		}
		p.state = domain.ModelStateFailed
		p.loadErr = err
		logger.Warn("Embedding model %s failed to load: %v", sel.ID, err)
		return fmt.Errorf("load embedding model %s: %w", sel.ID, err)
	}

	p.state = domain.ModelStateLoaded
	logger.Info("Embedding model %s loaded (%d dimensions)", sel.ID, sel.Dimensions)
	return nil
}
