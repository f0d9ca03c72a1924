// Package watch imports a directory of notes into the article archive and
// keeps it in step with filesystem changes.
//
// Each supported file becomes one article keyed by its absolute path.
// Writes re-import the file (which re-indexes the article); removals and
// renames delete the article and its chunks.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
	"github.com/custodia-labs/recall/internal/normalisers"
)

// Action describes what an import step did to an article.
type Action string

// Import actions.
const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
	ActionRemoved   Action = "removed"
)

// Event reports the outcome of handling one file.
type Event struct {
	Path      string
	Action    Action
	ArticleID int64

	// Err is set when the file could not be imported or removed.
	// An article whose indexing failed is still saved.
	Err error
}

// ScanResult summarises a full directory scan.
type ScanResult struct {
	Created   int
	Updated   int
	Unchanged int
	Removed   int
	Failed    int
}

func (r *ScanResult) add(e Event) {
	if e.Err != nil {
		r.Failed++
		return
	}
	switch e.Action {
	case ActionCreated:
		r.Created++
	case ActionUpdated:
		r.Updated++
	case ActionUnchanged:
		r.Unchanged++
	case ActionRemoved:
		r.Removed++
	}
}

// change is a filesystem event reduced to what the importer acts on.
type change struct {
	path   string
	remove bool
	dir    bool
}

// Importer mirrors a directory into the article archive.
type Importer struct {
	root        string
	articles    driving.ArticleService
	normalisers *normalisers.Registry
}

// New creates an importer for root. A nil registry uses normalisers.Default().
func New(root string, articles driving.ArticleService, registry *normalisers.Registry) (*Importer, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory: %w", abs, domain.ErrInvalidInput)
	}
	if registry == nil {
		registry = normalisers.Default()
	}
	return &Importer{root: abs, articles: articles, normalisers: registry}, nil
}

// Root returns the watched directory.
func (im *Importer) Root() string {
	return im.root
}

// Scan imports every supported file under the root and deletes articles
// whose files no longer exist. Per-file failures are reported through fn
// and counted; only a failure to walk or list aborts the scan.
func (im *Importer) Scan(ctx context.Context, fn func(Event)) (ScanResult, error) {
	logger.Section("Scan " + im.root)

	var result ScanResult
	report := func(e Event) {
		result.add(e)
		if fn != nil {
			fn(e)
		}
	}

	err := filepath.WalkDir(im.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != im.root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !im.supported(path) {
			return nil
		}
		report(im.importFile(ctx, path))
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("scan %s: %w", im.root, err)
	}

	articles, err := im.articles.List(ctx)
	if err != nil {
		return result, fmt.Errorf("list articles: %w", err)
	}
	for i := range articles {
		path := articles[i].SourcePath
		if !im.owns(path) {
			continue
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			report(im.removeFile(ctx, path))
		}
	}

	logger.Info("Scan complete: %d created, %d updated, %d unchanged, %d removed, %d failed",
		result.Created, result.Updated, result.Unchanged, result.Removed, result.Failed)
	return result, nil
}

// Watch applies filesystem changes under the root until ctx is cancelled.
// New subdirectories are watched and imported as they appear.
func (im *Importer) Watch(ctx context.Context, fn func(Event)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := im.addTree(watcher, im.root); err != nil {
		return err
	}
	logger.Info("Watching %s", im.root)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			c := im.handleFsEvent(event)
			if c == nil {
				continue
			}
			for _, e := range im.apply(ctx, watcher, c) {
				if fn != nil {
					fn(e)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// handleFsEvent maps an fsnotify event to a change, or nil when the event
// is irrelevant (chmod, hidden or unsupported files).
func (im *Importer) handleFsEvent(event fsnotify.Event) *change {
	if isHidden(filepath.Base(event.Name)) {
		return nil
	}

	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		if !im.supported(event.Name) {
			return nil
		}
		return &change{path: event.Name, remove: true}
	}

	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return nil
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return nil
	}
	if info.IsDir() {
		if event.Op.Has(fsnotify.Create) {
			return &change{path: event.Name, dir: true}
		}
		return nil
	}
	if !im.supported(event.Name) {
		return nil
	}
	return &change{path: event.Name}
}

func (im *Importer) apply(ctx context.Context, watcher *fsnotify.Watcher, c *change) []Event {
	switch {
	case c.remove:
		return []Event{im.removeFile(ctx, c.path)}
	case c.dir:
		if err := im.addTree(watcher, c.path); err != nil {
			return []Event{{Path: c.path, Err: err}}
		}
		var events []Event //nolint:prealloc
		_ = filepath.WalkDir(c.path, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || isHidden(d.Name()) || !im.supported(path) {
				return nil
			}
			events = append(events, im.importFile(ctx, path))
			return nil
		})
		return events
	default:
		return []Event{im.importFile(ctx, c.path)}
	}
}

// importFile upserts the article for path. Unchanged files are not re-saved.
func (im *Importer) importFile(ctx context.Context, path string) Event {
	event := Event{Path: path}

	normaliser, ok := im.normalisers.For(path)
	if !ok {
		event.Err = fmt.Errorf("no normaliser for %s: %w", path, domain.ErrInvalidInput)
		return event
	}

	content, err := os.ReadFile(path)
	if err != nil {
		event.Err = fmt.Errorf("read %s: %w", path, err)
		return event
	}

	article, err := normaliser.Normalise(ctx, path, content)
	if err != nil {
		event.Err = fmt.Errorf("normalise %s: %w", path, err)
		return event
	}

	existing, err := im.articles.FindBySourcePath(ctx, path)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		event.Action = ActionCreated
	case err != nil:
		event.Err = fmt.Errorf("find article for %s: %w", path, err)
		return event
	default:
		event.ArticleID = existing.ID
		if existing.Title == article.Title && existing.Text == article.Text {
			event.Action = ActionUnchanged
			return event
		}
		event.Action = ActionUpdated
		article.ID = existing.ID
		article.Explanation = existing.Explanation
		article.Date = existing.Date
	}

	// Save persists before indexing, so the ID is valid even on index failure.
	err = im.articles.Save(ctx, article)
	event.ArticleID = article.ID
	if err != nil {
		event.Err = err
		logger.Warn("Import %s: %v", path, err)
		return event
	}
	logger.Debug("Imported %s as article %d (%s)", path, article.ID, event.Action)
	return event
}

// removeFile deletes the article imported from path, if any.
func (im *Importer) removeFile(ctx context.Context, path string) Event {
	event := Event{Path: path, Action: ActionRemoved}

	existing, err := im.articles.FindBySourcePath(ctx, path)
	if errors.Is(err, domain.ErrNotFound) {
		event.Action = ActionUnchanged
		return event
	}
	if err != nil {
		event.Err = fmt.Errorf("find article for %s: %w", path, err)
		return event
	}

	event.ArticleID = existing.ID
	if err := im.articles.Delete(ctx, existing.ID); err != nil {
		event.Err = err
		return event
	}
	logger.Debug("Removed article %d for %s", existing.ID, path)
	return event
}

// addTree watches dir and every visible subdirectory. fsnotify is not recursive.
func (im *Importer) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (im *Importer) supported(path string) bool {
	_, ok := im.normalisers.For(path)
	return ok
}

// owns reports whether path lies under the root.
func (im *Importer) owns(path string) bool {
	if path == "" {
		return false
	}
	rel, err := filepath.Rel(im.root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// isHidden reports whether a file or directory name is hidden.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
