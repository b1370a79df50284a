package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wsdrop/internal/app"
	"wsdrop/internal/drop"

	"github.com/spf13/cobra"
)

type WatchFlags struct {
	Dir    string
	Settle time.Duration
}

var watchFlags WatchFlags

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Upload every file dropped into a directory",
	Long: `Watch a directory and upload each file that appears in it over one
long-lived connection. A file is picked up once it has not been written to for
the settle period. Runs until interrupted.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return validateWatchFlags(&watchFlags)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(&watchFlags)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchFlags.Dir, "dir", "d", "", "directory to watch (required)")
	watchCmd.Flags().DurationVar(&watchFlags.Settle, "settle", 500*time.Millisecond, "quiet period before a dropped file is sent")
	watchCmd.MarkFlagRequired("dir")
}

// validateWatchFlags validates the watch command flags
func validateWatchFlags(flags *WatchFlags) error {
	if flags.Dir == "" {
		return fmt.Errorf("watch directory is required")
	}
	if flags.Settle < 0 {
		return fmt.Errorf("settle period must not be negative")
	}
	return nil
}

// runWatch runs the drop watcher and a following upload session side by side
func runWatch(flags *WatchFlags) error {
	ctx, cancel := createContext()
	defer cancel()

	q, fileService, senderApp := createServices(ctx)
	watcher := drop.NewWatcher(flags.Dir, flags.Settle, fileService, q)

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- watcher.Run(ctx)
	}()

	senderApp.Surface().ShowDropZone(flags.Dir)

	runErr := senderApp.Run(ctx, &app.SenderOptions{Follow: true})
	cancel()

	if err := <-watchErr; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("drop watcher failed: %w", err)
	}
	if runErr != nil {
		return fmt.Errorf("upload failed: %w", runErr)
	}
	return nil
}
