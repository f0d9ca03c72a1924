package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// envelope is the JSON shape of every --json output.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// outputJSON writes data, or err as {"success": false, "error": ...}.
// A non-nil err is returned marked as reported.
func outputJSON(cmd *cobra.Command, data any, err error) error {
	env := envelope{Success: err == nil, Data: data}
	if err != nil {
		env.Data = nil
		env.Error = err.Error()
	}
	out, marshalErr := json.MarshalIndent(env, "", "  ")
	if marshalErr != nil {
		return fmt.Errorf("failed to marshal output: %w", marshalErr)
	}
	cmd.Println(string(out))
	if err != nil {
		return &reportedError{err: err}
	}
	return nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

const progressWidth = 30

// NewProgressReporter renders model download progress to w. Terminals get a
// redrawn bar; other writers get one line per phase.
func NewProgressReporter(w io.Writer) func(domain.PullProgress) {
	tty := isTerminal(w)
	lastStatus := ""
	return func(p domain.PullProgress) {
		if !tty {
			if p.Status != lastStatus {
				fmt.Fprintln(w, p.Status)
				lastStatus = p.Status
			}
			return
		}
		if p.Total <= 0 {
			fmt.Fprintf(w, "\r\033[K%s", p.Status)
		} else {
			fmt.Fprintf(w, "\r\033[K%s %s", progressBar(p.Fraction()), p.Status)
		}
		if p.Status == "success" {
			fmt.Fprintln(w)
		}
	}
}

// progressBar renders e.g. "[=======             ]  35%".
func progressBar(fraction float64) string {
	filled := int(fraction * progressWidth)
	return fmt.Sprintf("[%s%s] %3.0f%%",
		strings.Repeat("=", filled), strings.Repeat(" ", progressWidth-filled), fraction*100)
}

// truncate shortens s to n runes with an ellipsis.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// articleTitle resolves a display title, falling back to the id.
func articleTitle(cmd *cobra.Command, id int64) string {
	if articleService != nil {
		if a, err := articleService.Get(commandContext(cmd), id); err == nil && a.Title != "" {
			return a.Title
		}
	}
	return fmt.Sprintf("Article %d", id)
}

// commandContext returns the command's context, or Background outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// parseArticleID parses a positive article id argument.
func parseArticleID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("article id %q: %w", arg, domain.ErrInvalidInput)
	}
	return id, nil
}
