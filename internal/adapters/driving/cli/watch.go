package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/adapters/driving/watch"
)

var watchOnce bool

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Import a notes directory and follow changes",
	Long: `Imports every supported file under the directory as an article, then
watches it for changes. Saved files are re-imported and re-indexed; deleted
files remove their articles. Hidden files and directories are skipped.

Use --once to import and exit without watching.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "import once and exit")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if articleService == nil {
		return errors.New("article service not configured")
	}

	importer, err := watch.New(args[0], articleService, normaliserReg)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", args[0], err)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	report := func(e watch.Event) {
		switch {
		case e.Err != nil:
			cmd.PrintErrf("  failed  %s: %v\n", e.Path, e.Err)
		case e.Action != watch.ActionUnchanged:
			cmd.Printf("  %-8s%s\n", e.Action, e.Path)
		}
	}

	if normaliserReg != nil {
		cmd.Printf("Importing %s (%s)\n", importer.Root(), strings.Join(normaliserReg.Extensions(), " "))
	} else {
		cmd.Printf("Importing %s\n", importer.Root())
	}
	result, err := importer.Scan(ctx, report)
	if err != nil {
		return err
	}
	cmd.Printf("%d created, %d updated, %d unchanged, %d removed, %d failed.\n",
		result.Created, result.Updated, result.Unchanged, result.Removed, result.Failed)

	if watchOnce {
		return nil
	}

	cmd.Println("Watching for changes. Press Ctrl-C to stop.")
	return importer.Watch(ctx, report)
}
