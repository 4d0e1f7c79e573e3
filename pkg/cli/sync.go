package cli

import (
	"context"

	"github.com/spf13/cobra"

	apiv1 "github.com/beam-cloud/mailsync/pkg/api/v1"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync one account",
}

func newSyncCmd(kind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   kind + " <account_id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp *apiv1.SyncResponse

			err := RunSpinnerWithResult("Syncing "+kind+"...", func() error {
				var err error
				resp, err = getClient().Sync(context.Background(), kind, args[0])
				return err
			})
			if err != nil {
				return fail("Sync failed", err)
			}

			if PrintJSON(resp) {
				return nil
			}
			PrintSuccess(resp.Message)
			return nil
		},
	}
}

func init() {
	syncCmd.AddCommand(newSyncCmd("folders", "Reconcile the account's folder tree"))
	syncCmd.AddCommand(newSyncCmd("messages", "Import the account's newest messages"))
	syncCmd.AddCommand(newSyncCmd("account", "Sync folders, then messages"))
}
