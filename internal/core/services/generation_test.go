package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

func TestGenerationModel_GenerateRequiresLoad(t *testing.T) {
	rt := new(mockGenerationRuntime)
	g := NewGenerationModel(rt, memory.NewConfigStore())

	_, err := g.Generate(context.Background(), "hi", "sys")

	assert.ErrorIs(t, err, domain.ErrGenerationModelNotLoaded)
	rt.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerationModel_LoadDefaultAndPersist(t *testing.T) {
	rt := new(mockGenerationRuntime)
	cfg := memory.NewConfigStore()
	rt.On("Load", mock.Anything, domain.DefaultGenerationModel, mock.Anything).Return(nil).Once()

	g := NewGenerationModel(rt, cfg)
	require.NoError(t, g.Load(context.Background(), "", nil))
	require.NoError(t, g.Load(context.Background(), "", nil))

	status := g.Status()
	assert.True(t, status.Loaded)
	assert.False(t, status.Loading)
	assert.Equal(t, domain.DefaultGenerationModel, status.Model)
	assert.Equal(t, domain.DefaultGenerationModel, cfg.GetString(keyLLMModel))
	rt.AssertExpectations(t)
}

func TestGenerationModel_Generate(t *testing.T) {
	rt := new(mockGenerationRuntime)
	rt.On("Load", mock.Anything, "qwen2.5:3b", mock.Anything).Return(nil)
	rt.On("Chat", mock.Anything, "qwen2.5:3b", []driven.ChatMessage{
		{Role: "system", Content: "only context"},
		{Role: "user", Content: "question"},
	}, driven.ChatOptions{MaxTokens: DefaultGenerationMaxTokens, Temperature: DefaultGenerationTemperature}).
		Return("answer", nil)

	g := NewGenerationModel(rt, memory.NewConfigStore())
	require.NoError(t, g.Load(context.Background(), "qwen2.5:3b", nil))

	out, err := g.Generate(context.Background(), "question", "only context")
	require.NoError(t, err)
	assert.Equal(t, "answer", out)
	rt.AssertExpectations(t)
}

func TestGenerationModel_GenerateErrorVerbatim(t *testing.T) {
	rt := new(mockGenerationRuntime)
	boom := errors.New("ollama: model ran out of memory")
	rt.On("Load", mock.Anything, "m", mock.Anything).Return(nil)
	rt.On("Chat", mock.Anything, "m", mock.Anything, mock.Anything).Return("", boom)

	g := NewGenerationModel(rt, memory.NewConfigStore())
	require.NoError(t, g.Load(context.Background(), "m", nil))

	_, err := g.Generate(context.Background(), "q", "")
	assert.Same(t, boom, err)
}

func TestGenerationModel_SwitchDisposesPrevious(t *testing.T) {
	rt := new(mockGenerationRuntime)
	rt.On("Load", mock.Anything, "a", mock.Anything).Return(nil)
	rt.On("Load", mock.Anything, "b", mock.Anything).Return(nil)
	rt.On("Unload", mock.Anything, "a").Return(nil).Once()

	g := NewGenerationModel(rt, memory.NewConfigStore())
	require.NoError(t, g.Load(context.Background(), "a", nil))
	require.NoError(t, g.Load(context.Background(), "b", nil))

	assert.Equal(t, "b", g.Status().Model)
	rt.AssertExpectations(t)
}

func TestGenerationModel_LoadFailure(t *testing.T) {
	rt := new(mockGenerationRuntime)
	rt.On("Load", mock.Anything, "missing", mock.Anything).Return(errors.New("pull model manifest: file does not exist"))

	g := NewGenerationModel(rt, memory.NewConfigStore())
	err := g.Load(context.Background(), "missing", nil)

	require.Error(t, err)
	status := g.Status()
	assert.False(t, status.Loaded)
	assert.False(t, status.Loading)
	assert.Contains(t, status.Error, "file does not exist")
}

func TestGenerationModel_ProgressAndCancel(t *testing.T) {
	rt := new(mockGenerationRuntime)
	started := make(chan struct{})
	rt.On("Load", mock.Anything, "big", mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			progress := args.Get(2).(driven.ProgressFunc)
			progress(domain.PullProgress{Status: "pulling", Completed: 50, Total: 100})
			close(started)
			<-ctx.Done()
		}).
		Return(context.Canceled)

	g := NewGenerationModel(rt, memory.NewConfigStore())

	var seen []domain.PullProgress
	done := make(chan error, 1)
	go func() {
		done <- g.Load(context.Background(), "big", func(p domain.PullProgress) { seen = append(seen, p) })
	}()

	<-started
	status := g.Status()
	assert.True(t, status.Loading)
	assert.InDelta(t, 0.5, status.Progress.Fraction(), 1e-9)

	g.Cancel()
	err := <-done

	assert.ErrorIs(t, err, domain.ErrModelLoadCancelled)
	assert.Len(t, seen, 1)
	assert.False(t, g.Status().Loaded)
}

func TestGenerationModel_JoinerRetriesAfterLeaderCancelled(t *testing.T) {
	rt := new(mockGenerationRuntime)
	started := make(chan struct{})
	rt.On("Load", mock.Anything, "big", mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-args.Get(0).(context.Context).Done()
		}).
		Return(context.Canceled).Once()
	rt.On("Load", mock.Anything, "big", mock.Anything).Return(nil).Once()

	g := NewGenerationModel(rt, memory.NewConfigStore())

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() { leaderDone <- g.Load(leaderCtx, "big", nil) }()
	<-started

	joinerDone := make(chan error, 1)
	go func() { joinerDone <- g.Load(context.Background(), "big", nil) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-leaderDone, domain.ErrModelLoadCancelled)
	require.NoError(t, <-joinerDone)
	assert.True(t, g.Status().Loaded)
	rt.AssertExpectations(t)
}

func TestGenerationModel_CancelStopsJoinedCallers(t *testing.T) {
	rt := new(mockGenerationRuntime)
	started := make(chan struct{})
	rt.On("Load", mock.Anything, "big", mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-args.Get(0).(context.Context).Done()
		}).
		Return(context.Canceled).Once()

	g := NewGenerationModel(rt, memory.NewConfigStore())

	errs := make(chan error, 2)
	go func() { errs <- g.Load(context.Background(), "big", nil) }()
	<-started
	go func() { errs <- g.Load(context.Background(), "big", nil) }()
	time.Sleep(20 * time.Millisecond)
	g.Cancel()

	assert.ErrorIs(t, <-errs, domain.ErrModelLoadCancelled)
	assert.ErrorIs(t, <-errs, domain.ErrModelLoadCancelled)
	assert.False(t, g.Status().Loaded)
	rt.AssertNumberOfCalls(t, "Load", 1)
}

func TestGenerationModel_Unload(t *testing.T) {
	rt := new(mockGenerationRuntime)
	rt.On("Load", mock.Anything, "m", mock.Anything).Return(nil)
	rt.On("Unload", mock.Anything, "m").Return(nil).Once()

	g := NewGenerationModel(rt, memory.NewConfigStore())
	require.NoError(t, g.Unload(context.Background()))

	require.NoError(t, g.Load(context.Background(), "m", nil))
	require.NoError(t, g.Unload(context.Background()))

	assert.False(t, g.Status().Loaded)
	_, err := g.Generate(context.Background(), "q", "")
	assert.ErrorIs(t, err, domain.ErrGenerationModelNotLoaded)
	rt.AssertExpectations(t)
}
