package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// Build information (injected at compile time via ldflags)
var (
	Version = "dev"
)

const localGatewayHTTP = "http://localhost:1994"

var (
	gatewayAddr string
	authToken   string
	jsonOutput  bool
)

// Custom help template with styled output
var helpTemplate = `{{with .Long}}{{. | trim}}

{{end}}{{if .HasAvailableSubCommands}}` + `{{.CommandPath}}` + ` ` + `<command>` + `

{{end}}{{if .HasAvailableSubCommands}}Commands:
{{range .Commands}}{{if .IsAvailableCommand}}  {{rpad .Name .NamePadding }}  {{.Short}}
{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}
Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}
`

var rootCmd = &cobra.Command{
	Use:   "mailsync",
	Short: "Mailbox sync operator CLI",
	Long: lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Render("mailsync") + ` - Mailbox sync operator CLI

Trigger sweeps and syncs, inspect and retry sync jobs, and check
mailbox accounts on a running gateway.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		SetJSONOutput(jsonOutput)
	},
}

func init() {
	rootCmd.SetHelpTemplate(helpTemplate)
	rootCmd.SetVersionTemplate(fmt.Sprintf("  %s version %s\n", BrandStyle.Render("mailsync"), Version))

	rootCmd.PersistentFlags().StringVar(&gatewayAddr, "gateway", getEnv("MAILSYNC_GATEWAY", localGatewayHTTP), "Gateway HTTP address")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", getEnv("MAILSYNC_TOKEN", ""), "Authentication token")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(tokenCmd)
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getClient() *Client {
	return NewClient(gatewayAddr, authToken)
}

// fail prints err for humans and returns it so the exit code is non-zero
func fail(title string, err error) error {
	if IsJSONOutput() {
		PrintJSON(map[string]interface{}{"success": false, "error": FormatError(err)})
		return err
	}
	PrintFormattedError(title, err)
	return err
}
