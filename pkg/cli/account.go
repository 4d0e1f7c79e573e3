package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	apiv1 "github.com/beam-cloud/mailsync/pkg/api/v1"
	"github.com/beam-cloud/mailsync/pkg/types"
)

var validateReq apiv1.CreateAccountRequest

var accountCmd = &cobra.Command{
	Use:     "accounts",
	Aliases: []string{"account"},
	Short:   "Manage mailbox accounts",
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		var accounts []*types.Account

		err := RunSpinnerWithResult("Loading accounts...", func() error {
			var err error
			accounts, err = getClient().ListAccounts(context.Background())
			return err
		})
		if err != nil {
			return fail("Failed to list accounts", err)
		}

		if PrintJSON(accounts) {
			return nil
		}

		if len(accounts) == 0 {
			PrintInfo("No accounts found")
			return nil
		}

		table := NewTable("ID", "EMAIL", "AUTH", "USER", "LAST SYNCED")
		for _, a := range accounts {
			lastSynced := "never"
			if a.LastSynced != nil {
				lastSynced = RelativeTime(*a.LastSynced, time.Now())
			}
			table.AddRow(a.Id, a.Email, string(a.AuthType), a.UserId, lastSynced)
		}
		PrintNewline()
		table.Print()
		PrintNewline()
		return nil
	},
}

var accountValidateCmd = &cobra.Command{
	Use:   "validate <email>",
	Short: "Check IMAP credentials without saving them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := validateReq
		req.Email = args[0]
		req.AuthType = types.AuthTypeIMAP
		if req.IMAPUsername == "" {
			req.IMAPUsername = req.Email
		}

		err := RunSpinnerWithResult("Connecting to "+req.IMAPHost+"...", func() error {
			return getClient().ValidateAccount(context.Background(), req)
		})
		if err != nil {
			return fail("Validation failed", err)
		}

		if PrintJSON(map[string]interface{}{"success": true}) {
			return nil
		}
		PrintSuccessWithValue("Connection successful", fmt.Sprintf("%s:%d", req.IMAPHost, req.IMAPPort))
		return nil
	},
}

func init() {
	accountValidateCmd.Flags().StringVar(&validateReq.IMAPHost, "host", "", "IMAP host")
	accountValidateCmd.Flags().IntVar(&validateReq.IMAPPort, "port", 993, "IMAP port")
	accountValidateCmd.Flags().StringVar(&validateReq.IMAPUsername, "username", "", "IMAP username (defaults to the email)")
	accountValidateCmd.Flags().StringVar(&validateReq.IMAPPassword, "password", getEnv("MAILSYNC_IMAP_PASSWORD", ""), "IMAP password")
	accountValidateCmd.Flags().StringVar(&validateReq.UserId, "user", "", "Owner user id (admin token only)")
	accountValidateCmd.MarkFlagRequired("host")

	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountValidateCmd)
}
