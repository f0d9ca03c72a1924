package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrInvalidChunkingConfig", ErrInvalidChunkingConfig},
		{"ErrUnknownModel", ErrUnknownModel},
		{"ErrRuntimeUnavailable", ErrRuntimeUnavailable},
		{"ErrEmbeddingModelNotLoaded", ErrEmbeddingModelNotLoaded},
		{"ErrEmbeddingModelFailed", ErrEmbeddingModelFailed},
		{"ErrDimensionMismatch", ErrDimensionMismatch},
		{"ErrGenerationModelNotLoaded", ErrGenerationModelNotLoaded},
		{"ErrModelLoadInProgress", ErrModelLoadInProgress},
		{"ErrModelLoadCancelled", ErrModelLoadCancelled},
		{"ErrIndexEmpty", ErrIndexEmpty},
		{"ErrStaleIndexWrite", ErrStaleIndexWrite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrGenerationModelNotLoaded_MentionsLoading(t *testing.T) {
	assert.Contains(t, ErrGenerationModelNotLoaded.Error(), "load")
}

func TestErrors_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("index article 7: %w", ErrNotFound)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrIndexEmpty))
}
