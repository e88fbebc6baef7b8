package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/mcdev12/chooser/go/internal/config"
	"github.com/mcdev12/chooser/go/internal/terminal"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newTermCmd() *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "term",
		Short: "Play locally in the terminal with the mouse",
		Long:  "term runs one session in the terminal. Left, middle and right mouse buttons are three pointers; p picks one, 2-4 split into groups, r resets and q quits.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				out = f
			}
			log.Logger = zerolog.New(out).With().Timestamp().Logger()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			zerolog.SetGlobalLevel(cfg.Level())

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("create screen: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("init screen: %w", err)
			}
			defer screen.Fini()

			app, err := terminal.New(screen, cfg.SessionOptions())
			if err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "append logs to this file instead of discarding them")
	return cmd
}
