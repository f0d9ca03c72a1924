package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// fakeArticles is an in-memory ArticleService keyed by id.
type fakeArticles struct {
	mu       sync.Mutex
	nextID   int64
	byID     map[int64]*domain.Article
	saves    int
	deletes  int
	saveErr  error
	failPath string
}

var _ driving.ArticleService = (*fakeArticles)(nil)

func newFakeArticles() *fakeArticles {
	return &fakeArticles{byID: make(map[int64]*domain.Article)}
}

func (f *fakeArticles) Save(_ context.Context, a *domain.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPath != "" && a.SourcePath == f.failPath {
		return f.saveErr
	}
	if a.ID == 0 {
		f.nextID++
		a.ID = f.nextID
	}
	cp := *a
	f.byID[a.ID] = &cp
	f.saves++
	return nil
}

func (f *fakeArticles) Get(_ context.Context, id int64) (*domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeArticles) List(_ context.Context) ([]domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Article, 0, len(f.byID))
	for _, a := range f.byID {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeArticles) FindBySourcePath(_ context.Context, path string) (*domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byID {
		if a.SourcePath == path {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeArticles) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	f.deletes++
	return nil
}

func (f *fakeArticles) AddComment(_ context.Context, _ int64, _ string) (*domain.Comment, error) {
	return nil, errors.New("not supported")
}

func (f *fakeArticles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newTestImporter(t *testing.T) (*Importer, *fakeArticles, string) {
	t.Helper()
	dir := t.TempDir()
	articles := newFakeArticles()
	im, err := New(dir, articles, nil)
	require.NoError(t, err)
	return im, articles, im.Root()
}

func TestNew_RejectsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "note.txt")
	writeFile(t, file, "x")

	_, err := New(file, newFakeArticles(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New(filepath.Join(dir, "missing"), newFakeArticles(), nil)
	assert.Error(t, err)
}

func TestScan_ImportsSupportedFiles(t *testing.T) {
	im, articles, dir := newTestImporter(t)
	writeFile(t, filepath.Join(dir, "cats.md"), "# Cats\n\nCats purr.")
	writeFile(t, filepath.Join(dir, "dogs.txt"), "Dogs bark.")
	writeFile(t, filepath.Join(dir, "sub", "birds.html"), "<title>Birds</title><p>Birds sing.</p>")
	writeFile(t, filepath.Join(dir, "image.png"), "binary")
	writeFile(t, filepath.Join(dir, ".hidden.md"), "# Hidden")
	writeFile(t, filepath.Join(dir, ".git", "notes.md"), "# Git")

	var events []Event
	result, err := im.Scan(context.Background(), func(e Event) { events = append(events, e) })
	require.NoError(t, err)

	assert.Equal(t, ScanResult{Created: 3}, result)
	assert.Len(t, events, 3)
	assert.Equal(t, 3, articles.count())

	cats, err := articles.FindBySourcePath(context.Background(), filepath.Join(dir, "cats.md"))
	require.NoError(t, err)
	assert.Equal(t, "Cats", cats.Title)
	assert.Equal(t, "Cats purr.", cats.Text)

	birds, err := articles.FindBySourcePath(context.Background(), filepath.Join(dir, "sub", "birds.html"))
	require.NoError(t, err)
	assert.Equal(t, "Birds", birds.Title)
}

func TestScan_Idempotent(t *testing.T) {
	im, articles, dir := newTestImporter(t)
	writeFile(t, filepath.Join(dir, "cats.md"), "# Cats\n\nCats purr.")

	_, err := im.Scan(context.Background(), nil)
	require.NoError(t, err)

	result, err := im.Scan(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, ScanResult{Unchanged: 1}, result)
	assert.Equal(t, 1, articles.saves)
}

func TestScan_UpdatesChangedFileInPlace(t *testing.T) {
	im, articles, dir := newTestImporter(t)
	path := filepath.Join(dir, "cats.md")
	writeFile(t, path, "# Cats\n\nCats purr.")

	_, err := im.Scan(context.Background(), nil)
	require.NoError(t, err)
	before, err := articles.FindBySourcePath(context.Background(), path)
	require.NoError(t, err)

	writeFile(t, path, "# Cats\n\nCats purr and sleep.")
	result, err := im.Scan(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, ScanResult{Updated: 1}, result)

	after, err := articles.FindBySourcePath(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, "Cats purr and sleep.", after.Text)
	assert.Equal(t, 1, articles.count())
}

func TestScan_RemovesArticlesForDeletedFiles(t *testing.T) {
	im, articles, dir := newTestImporter(t)
	path := filepath.Join(dir, "cats.md")
	writeFile(t, path, "# Cats")
	_, err := im.Scan(context.Background(), nil)
	require.NoError(t, err)

	// Articles outside the root are left alone.
	require.NoError(t, articles.Save(context.Background(), &domain.Article{Title: "Manual"}))
	require.NoError(t, articles.Save(context.Background(), &domain.Article{
		Title: "Elsewhere", SourcePath: filepath.Join(t.TempDir(), "gone.md"),
	}))

	require.NoError(t, os.Remove(path))
	result, err := im.Scan(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Removed)
	assert.Equal(t, 2, articles.count())
	_, err = articles.FindBySourcePath(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScan_CountsFailures(t *testing.T) {
	im, articles, dir := newTestImporter(t)
	bad := filepath.Join(dir, "bad.txt")
	writeFile(t, bad, "text")
	writeFile(t, filepath.Join(dir, "good.txt"), "text")
	articles.failPath = bad
	articles.saveErr = errors.New("disk full")

	var failed []Event
	result, err := im.Scan(context.Background(), func(e Event) {
		if e.Err != nil {
			failed = append(failed, e)
		}
	})
	require.NoError(t, err)

	assert.Equal(t, ScanResult{Created: 1, Failed: 1}, result)
	require.Len(t, failed, 1)
	assert.Equal(t, bad, failed[0].Path)
	assert.ErrorIs(t, failed[0].Err, articles.saveErr)
}

func TestScan_Cancelled(t *testing.T) {
	im, _, dir := newTestImporter(t)
	writeFile(t, filepath.Join(dir, "cats.md"), "# Cats")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := im.Scan(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHandleFsEvent(t *testing.T) {
	tests := []struct {
		name       string
		file       string
		create     bool
		dir        bool
		op         fsnotify.Op
		wantChange bool
		wantRemove bool
		wantDir    bool
	}{
		{name: "create file", file: "a.md", create: true, op: fsnotify.Create, wantChange: true},
		{name: "write file", file: "a.txt", create: true, op: fsnotify.Write, wantChange: true},
		{name: "write and chmod", file: "a.txt", create: true, op: fsnotify.Write | fsnotify.Chmod, wantChange: true},
		{name: "remove file", file: "gone.md", op: fsnotify.Remove, wantChange: true, wantRemove: true},
		{name: "rename file", file: "old.html", op: fsnotify.Rename, wantChange: true, wantRemove: true},
		{name: "chmod only", file: "a.md", create: true, op: fsnotify.Chmod},
		{name: "unsupported extension", file: "a.png", create: true, op: fsnotify.Create},
		{name: "unsupported removal", file: "a.png", op: fsnotify.Remove},
		{name: "hidden file", file: ".a.md", create: true, op: fsnotify.Create},
		{name: "hidden removal", file: ".a.md", op: fsnotify.Remove},
		{name: "vanished before stat", file: "tmp.md", op: fsnotify.Create},
		{name: "new directory", file: "sub", dir: true, op: fsnotify.Create, wantChange: true, wantDir: true},
		{name: "directory write", file: "sub", dir: true, op: fsnotify.Write},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			im, _, dir := newTestImporter(t)
			path := filepath.Join(dir, tt.file)
			if tt.dir {
				require.NoError(t, os.Mkdir(path, 0755))
			} else if tt.create {
				writeFile(t, path, "content")
			}

			c := im.handleFsEvent(fsnotify.Event{Name: path, Op: tt.op})
			if !tt.wantChange {
				assert.Nil(t, c)
				return
			}
			require.NotNil(t, c)
			assert.Equal(t, path, c.path)
			assert.Equal(t, tt.wantRemove, c.remove)
			assert.Equal(t, tt.wantDir, c.dir)
		})
	}
}

func TestRemoveFile_UnknownPath(t *testing.T) {
	im, articles, dir := newTestImporter(t)

	e := im.removeFile(context.Background(), filepath.Join(dir, "never.md"))
	assert.NoError(t, e.Err)
	assert.Equal(t, ActionUnchanged, e.Action)
	assert.Zero(t, articles.deletes)
}

func TestOwns(t *testing.T) {
	im, _, dir := newTestImporter(t)

	assert.True(t, im.owns(filepath.Join(dir, "a.md")))
	assert.True(t, im.owns(filepath.Join(dir, "sub", "a.md")))
	assert.False(t, im.owns(""))
	assert.False(t, im.owns(filepath.Join(filepath.Dir(dir), "other.md")))
	assert.False(t, im.owns(dir+"-sibling/a.md"))
}

func TestIsHidden(t *testing.T) {
	assert.True(t, isHidden(".git"))
	assert.True(t, isHidden(".notes.md"))
	assert.False(t, isHidden("notes.md"))
	assert.False(t, isHidden("."))
	assert.False(t, isHidden(".."))
}

func TestWatch_ImportsAndRemoves(t *testing.T) {
	im, articles, dir := newTestImporter(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event, 16)
	done := make(chan error, 1)
	go func() { done <- im.Watch(ctx, func(e Event) { events <- e }) }()

	path := filepath.Join(dir, "cats.md")
	waitFor := func(want Action) Event {
		t.Helper()
		deadline := time.After(3 * time.Second)
		for {
			select {
			case e := <-events:
				if e.Action == want {
					return e
				}
			case <-deadline:
				t.Fatalf("timeout waiting for %s event", want)
				return Event{}
			}
		}
	}

	// The watcher registers asynchronously; retry the write until it is seen.
	var created Event
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("# Cats\n\nCats purr."), 0644)
		select {
		case e := <-events:
			created = e
			return e.Action == ActionCreated
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)
	assert.NoError(t, created.Err)
	assert.Equal(t, 1, articles.count())

	require.NoError(t, os.Remove(path))
	removed := waitFor(ActionRemoved)
	assert.Equal(t, created.ArticleID, removed.ArticleID)
	assert.Equal(t, 0, articles.count())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
