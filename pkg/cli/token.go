package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/beam-cloud/mailsync/pkg/auth"
	"github.com/beam-cloud/mailsync/pkg/types"
)

var (
	tokenUser    string
	tokenEmail   string
	tokenExpires time.Duration
	tokenConfig  types.AuthConfig
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage user tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Sign a user token with the gateway's JWT secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenConfig.JWTSecret == "" {
			return fail("Failed to issue token", fmt.Errorf("--secret or MAILSYNC_JWT_SECRET is required"))
		}

		token, err := auth.NewJWTValidator(tokenConfig).Issue(tokenUser, tokenEmail, tokenExpires)
		if err != nil {
			return fail("Failed to issue token", err)
		}

		if PrintJSON(map[string]string{"token": token, "user_id": tokenUser}) {
			return nil
		}

		PrintSuccess("Token issued")
		PrintNewline()
		fmt.Printf("  %s\n", BoldStyle.Render("Token:"))
		fmt.Printf("  %s\n", CodeStyle.Render(token))
		PrintNewline()
		PrintKeyValue("User", tokenUser)
		PrintKeyValue("Expires", time.Now().Add(tokenExpires).Format(time.RFC3339))
		PrintNewline()
		return nil
	},
}

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenUser, "user", "", "User id (token subject)")
	tokenIssueCmd.Flags().StringVar(&tokenEmail, "email", "", "User email")
	tokenIssueCmd.Flags().DurationVar(&tokenExpires, "expires", 24*time.Hour, "Token lifetime")
	tokenIssueCmd.Flags().StringVar(&tokenConfig.JWTSecret, "secret", getEnv("MAILSYNC_JWT_SECRET", ""), "JWT signing secret")
	tokenIssueCmd.Flags().StringVar(&tokenConfig.Issuer, "issuer", "", "Token issuer")
	tokenIssueCmd.Flags().StringVar(&tokenConfig.Audience, "audience", "", "Token audience")
	tokenIssueCmd.MarkFlagRequired("user")

	tokenCmd.AddCommand(tokenIssueCmd)
}
