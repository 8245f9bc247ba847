package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/s3arena/internal/client"
)

func newEventsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Stream your task events",
		Long: `Connect to the event stream and print task events as they happen.

Events include:
  - task-created: A task was assigned to you (or your child)
  - task-started: A player started a timed task
  - task-completed: A coach marked a task completed

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := e.requireSession(); err != nil {
				return err
			}

			if !e.out.JSON() {
				e.out.PrintMessage("Connected; waiting for events")
			}
			err := e.api.Events(cmd.Context(), func(ev client.Event) error {
				e.out.Print(EventLine{Event: ev.Name, Data: ev.Data})
				return nil
			})
			if err != nil {
				return err
			}
			if !e.out.JSON() {
				e.out.PrintMessage("Disconnected")
			}
			return nil
		},
	}
}
