package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/beam-cloud/mailsync/pkg/types"
)

var (
	jobStatus   string
	jobAccount  string
	jobLimit    int
	jobSchedule string
)

var jobCmd = &cobra.Command{
	Use:     "jobs",
	Aliases: []string{"job"},
	Short:   "Manage sync jobs",
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sync jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		var jobs []*types.SyncJob

		err := RunSpinnerWithResult("Loading jobs...", func() error {
			var err error
			jobs, err = getClient().ListJobs(context.Background(), types.JobFilter{
				Status:    types.JobStatus(jobStatus),
				AccountId: jobAccount,
				Limit:     jobLimit,
			})
			return err
		})
		if err != nil {
			return fail("Failed to list jobs", err)
		}

		if PrintJSON(jobs) {
			return nil
		}

		if len(jobs) == 0 {
			PrintInfo("No jobs found")
			return nil
		}

		now := time.Now()
		table := NewTable("ID", "STATUS", "ACCOUNT", "SCHEDULE", "CREATED", "NEXT RUN", "ERROR")
		for _, j := range jobs {
			account, nextRun := "", ""
			if j.AccountId != nil {
				account = *j.AccountId
			}
			if j.NextRunAt != nil {
				nextRun = RelativeTime(*j.NextRunAt, now)
			}
			table.AddRow(
				j.Id,
				RenderJobStatus(j.Status),
				account,
				j.Schedule,
				RelativeTime(j.CreatedAt, now),
				nextRun,
				Truncate(j.Error, 40),
			)
		}
		PrintNewline()
		table.Print()
		PrintNewline()
		return nil
	},
}

var jobCreateCmd = &cobra.Command{
	Use:   "create <account_id>",
	Short: "Enqueue a sync job for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJob("Enqueuing job...", "Job enqueued", func(c *Client) (*types.SyncJob, error) {
			return c.CreateJob(context.Background(), args[0], jobSchedule)
		})
	},
}

var jobRetryCmd = &cobra.Command{
	Use:   "retry <job_id>",
	Short: "Enqueue a new job from a failed or cancelled one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJob("Retrying job...", "Retry enqueued", func(c *Client) (*types.SyncJob, error) {
			return c.RetryJob(context.Background(), args[0])
		})
	},
}

var jobCancelCmd = &cobra.Command{
	Use:   "cancel <job_id>",
	Short: "Cancel a pending job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJob("Cancelling job...", "Job cancelled", func(c *Client) (*types.SyncJob, error) {
			return c.CancelJob(context.Background(), args[0])
		})
	},
}

func printJob(title, success string, fn func(*Client) (*types.SyncJob, error)) error {
	var job *types.SyncJob

	err := RunSpinnerWithResult(title, func() error {
		var err error
		job, err = fn(getClient())
		return err
	})
	if err != nil {
		return fail(success+" failed", err)
	}

	if PrintJSON(job) {
		return nil
	}

	PrintSuccessWithValue(success, job.Id)
	PrintKeyValue("Status", RenderJobStatus(job.Status))
	if job.NextRunAt != nil {
		PrintKeyValue("Next run", job.NextRunAt.Format(time.RFC3339)+" ("+RelativeTime(*job.NextRunAt, time.Now())+")")
	}
	return nil
}

func init() {
	jobListCmd.Flags().StringVar(&jobStatus, "status", "", "Filter by status (pending, running, completed, failed, cancelled)")
	jobListCmd.Flags().StringVar(&jobAccount, "account", "", "Filter by account id")
	jobListCmd.Flags().IntVar(&jobLimit, "limit", 50, "Maximum number of jobs")

	jobCreateCmd.Flags().StringVar(&jobSchedule, "schedule", "", "Recurring schedule, e.g. '@every 30m'")

	jobCmd.AddCommand(jobListCmd)
	jobCmd.AddCommand(jobCreateCmd)
	jobCmd.AddCommand(jobRetryCmd)
	jobCmd.AddCommand(jobCancelCmd)
}
