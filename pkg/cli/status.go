package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show gateway health",
	RunE: func(cmd *cobra.Command, args []string) error {
		health, err := getClient().Health(context.Background())
		if err != nil {
			return fail("Gateway is unhealthy", err)
		}

		if PrintJSON(health) {
			return nil
		}

		PrintNewline()
		PrintKeyValue("Gateway", gatewayAddr)
		PrintKeyValue("Status", SuccessStyle.Render(health["status"]))
		PrintNewline()
		return nil
	},
}
