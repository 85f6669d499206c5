package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/gmailsend/internal/google"
	"github.com/teemow/gmailsend/internal/logging"
)

func newAuthCmd() *cobra.Command {
	var (
		configFile      string
		account         string
		credentialsFile string
		tokenFile       string
		logLevel        string
		trace           bool
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Run the interactive Gmail authorization flow",
		Long: `Force a fresh interactive authorization against Google and store the
resulting token in the token cache file, replacing any cached token.

Useful for provisioning a machine before the first send, or when the
cached token has been revoked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, configFile, account, credentialsFile, tokenFile, logLevel, trace)
			if err != nil {
				return err
			}
			logger := logging.Setup(cfg.LogLevel)

			mgr := google.NewManager(cfg.CredentialsFile, cfg.TokenFile,
				google.WithLogger(logger))

			if _, err := mgr.Authorize(cmd.Context()); err != nil {
				return err
			}

			fmt.Printf("Token saved to %s\n", mgr.TokenFile())
			return nil
		},
	}

	addConfigFlags(cmd, &configFile, &account, &credentialsFile, &tokenFile, &logLevel, &trace)

	return cmd
}
