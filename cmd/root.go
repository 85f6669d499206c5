package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the gmailsend application
var rootCmd = &cobra.Command{
	Use:   "gmailsend",
	Short: "Send email through the Gmail API",
	Long: `gmailsend sends email through the Gmail API using OAuth client
credentials stored on the local machine.

Tokens are cached on disk and refreshed automatically when expired; the
first run (or 'gmailsend auth') walks through an interactive
authorization in the browser.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "gmailsend version %s\n" .Version}}`)

	// If no subcommand is provided, run the send command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "send")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gmailsend version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gmailsend version %s\n", version)
		},
	}
}

func init() {
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
}
