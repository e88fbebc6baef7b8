package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Execute runs the chooser CLI until it finishes or the process is interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "chooser",
		Short:         "Chooser: split fingers into groups or pick one",
		Long:          "chooser hosts multi-touch sessions that resolve after a pause in activity, either splitting every pointer into balanced colored groups or picking a single winner. Run it as a websocket gateway or locally in the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(),
		newTermCmd(),
	)

	return rootCmd
}
