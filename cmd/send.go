package cmd

import (
	"fmt"

	"wsdrop/internal/app"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send FILE...",
	Short: "Upload files and print their links",
	Long: `Upload one or more files. Files are sent one at a time in the order given;
each file's link is printed (and copied to the clipboard) before the next one
starts. The command exits once every file has a link.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSend(args)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
}

// runSend queues every path, then runs one session that drains the queue
func runSend(paths []string) error {
	ctx, cancel := createContext()
	defer cancel()

	q, fileService, senderApp := createServices(ctx)

	for _, path := range paths {
		task, err := fileService.NewTask(path)
		if err != nil {
			return fmt.Errorf("cannot send %s: %w", path, err)
		}
		q.Enqueue(task)
	}
	log.Info().Int("files", q.Len()).Msg("starting upload session")

	if err := senderApp.Run(ctx, &app.SenderOptions{}); err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}
	return nil
}
