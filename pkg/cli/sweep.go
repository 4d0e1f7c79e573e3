package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	apiv1 "github.com/beam-cloud/mailsync/pkg/api/v1"
)

var sweepManual bool

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run due sync jobs",
	Long: `Run every due email sync job on the gateway. Meant to be called from cron.

With --manual and no due jobs, every account in scope is synced directly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp *apiv1.SweepResponse

		err := RunSpinnerWithResult("Sweeping...", func() error {
			var err error
			resp, err = getClient().Sweep(context.Background(), sweepManual)
			return err
		})
		if err != nil {
			return fail("Sweep failed", err)
		}

		if PrintJSON(resp) {
			return nil
		}

		PrintSuccess(resp.Message)
		if len(resp.Results) == 0 {
			PrintHint("No jobs were due")
			return nil
		}

		table := NewTable("JOB", "ACCOUNT", "EMAIL", "RESULT")
		failed := 0
		for _, r := range resp.Results {
			result := ""
			switch {
			case r.Error != "":
				failed++
				result = ErrorStyle.Render(Truncate(r.Error, 60))
			case r.Result != nil:
				result = fmt.Sprintf("%d new", *r.Result)
			}
			table.AddRow(r.JobId, r.AccountId, r.Email, result)
		}
		PrintNewline()
		table.Print()
		PrintNewline()

		if failed > 0 {
			return fmt.Errorf("%d of %d syncs failed", failed, len(resp.Results))
		}
		return nil
	},
}

func init() {
	sweepCmd.Flags().BoolVar(&sweepManual, "manual", false, "Sync every account when no jobs are due")
}
