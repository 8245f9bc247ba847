package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := e.api.Health(cmd.Context())
			if err != nil {
				return err
			}

			e.out.Print(HealthResult{Status: status})
			return nil
		},
	}
}
