package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// promptTemplate is a built-in prompt and the number of %s verbs it takes.
type promptTemplate struct {
	text string
	args int
}

//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var builtinPrompts = map[string]promptTemplate{
	driven.PromptRAGSystem: {text: `You answer questions using only the article excerpts supplied in the user message.
Do not use outside knowledge. If the excerpts do not contain enough information to answer, say that the articles do not cover it.
Be concise. Refer to the excerpts by their numbers when helpful.`},

	driven.PromptRAGUser: {text: `Context:
%s

Question: %s`, args: 2},
}

// cachedPrompt is a prompt file as last read.
type cachedPrompt struct {
	text    string
	modTime time.Time
	size    int64
}

// PromptStore serves prompt templates from user-editable files. A file is
// re-read when its modification time or size changes. A missing file, or
// one whose placeholders do not match the built-in template, yields the
// built-in text.
type PromptStore struct {
	dir string

	mu    sync.Mutex
	cache map[string]cachedPrompt

	initOnce sync.Once
	initErr  error
}

// NewPromptStore creates a prompt store rooted at dir, default ~/.recall/prompts.
// Nothing is written until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".recall", "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]cachedPrompt)}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template called name.
func (s *PromptStore) Load(name string) (string, error) {
	builtin, ok := builtinPrompts[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}

	s.initOnce.Do(s.seed)
	if s.initErr != nil {
		return builtin.text, nil
	}

	path := s.path(name)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return builtin.text, nil
	}
	if err != nil {
		logger.Warn("Prompt %s: %v", path, err)
		return builtin.text, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.cache[name]; ok && c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
		return c.text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Prompt %s: %v", path, err)
		return builtin.text, nil
	}
	text := strings.TrimSpace(string(data))
	if got := countArgs(text); got != builtin.args {
		logger.Warn("Prompt %s has %d %%s placeholders, want %d; using the built-in prompt", path, got, builtin.args)
		text = builtin.text
	}

	s.cache[name] = cachedPrompt{text: text, modTime: info.ModTime(), size: info.Size()}
	return text, nil
}

// countArgs counts %s verbs, ignoring escaped %%.
func countArgs(tmpl string) int {
	return strings.Count(strings.ReplaceAll(tmpl, "%%", ""), "%s")
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

// seed creates the directory, any missing prompt files and the README.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		logger.Warn("Prompts: %v; using built-in prompts", s.initErr)
		return
	}

	files := map[string]string{"README.md": promptReadme}
	for name, p := range builtinPrompts {
		files[name+".txt"] = p.text + "\n"
	}
	for file, content := range files {
		path := filepath.Join(s.dir, file)
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			logger.Warn("Write %s: %v", path, err)
		}
	}
}

const promptReadme = `# Recall Prompts

These prompts control how Recall answers questions from your articles.

- rag_system.txt keeps the model to the retrieved excerpts.
- rag_user.txt wraps the excerpts and the question. It takes two %s
  placeholders: the numbered excerpts, then the question.

Edits apply to the next question. A file with the wrong number of
placeholders is ignored in favour of the built-in prompt. Delete a file
to restore its default.
`
