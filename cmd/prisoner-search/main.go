// Command prisoner-search runs the prisoner search indexer, or a single
// index maintenance operation against it.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/orchestrator"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/synchronizer"
)

// Exit codes for one-shot commands.
const (
	exitOK       = 0
	exitError    = 1
	exitConflict = 2
	exitNotFound = 3
)

func main() {
	cmd := newRootCmd(os.Stdout)
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitCode(err))
}

func newRootCmd(out io.Writer) *cobra.Command {
	var configDir string
	root := &cobra.Command{
		Use:           "prisoner-search",
		Short:         "Prisoner search index maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configDir, "config-dir", "c", "config", "Directory holding config.yml and config.local.yml")

	root.AddCommand(newServeCmd(&configDir))
	root.AddCommand(newIndexCmd(&configDir, out))
	return root
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case orchestrator.IsPrecondition(err):
		return exitConflict
	case errors.Is(err, synchronizer.ErrPrisonerNotFound):
		return exitNotFound
	default:
		return exitError
	}
}
