package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/teemow/gmailsend/internal/config"
	"github.com/teemow/gmailsend/internal/gmail"
	"github.com/teemow/gmailsend/internal/google"
	"github.com/teemow/gmailsend/internal/logging"
	"github.com/teemow/gmailsend/internal/telemetry"
)

func newSendCmd() *cobra.Command {
	var (
		configFile      string
		account         string
		credentialsFile string
		tokenFile       string
		subject         string
		body            string
		to              []string
		cc              []string
		bcc             []string
		attachments     []string
		logLevel        string
		trace           bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Build and send an email as the authenticated Gmail account",
		Long: `Obtain a valid OAuth token (refreshing or authorizing as needed),
connect to the Gmail API and send a single email with optional Cc, Bcc
and file attachments. The message is sent as the authenticated user.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, configFile, account, credentialsFile, tokenFile, logLevel, trace)
			if err != nil {
				return err
			}
			logger := logging.Setup(cfg.LogLevel)

			ctx := cmd.Context()
			if cfg.Trace {
				tp, err := telemetry.InitTracer("gmailsend")
				if err != nil {
					return fmt.Errorf("failed to initialize tracing: %w", err)
				}
				defer func() {
					_ = tp.Shutdown(ctx)
				}()
			}
			tracer := otel.Tracer("gmailsend")

			ctx, span := tracer.Start(ctx, "send")
			defer span.End()

			logger.Info("starting send",
				logging.Operation("send"),
				logging.UserHash(cfg.Account))

			mgr := google.NewManager(cfg.CredentialsFile, cfg.TokenFile,
				google.WithLogger(logger))

			tokenCtx, tokenSpan := tracer.Start(ctx, "token")
			tok, err := mgr.Token(tokenCtx)
			tokenSpan.End()
			if err != nil {
				return fmt.Errorf("failed to obtain token: %w", err)
			}

			conf, err := mgr.Config()
			if err != nil {
				return err
			}

			connectCtx, connectSpan := tracer.Start(ctx, "connect")
			client, err := gmail.NewClient(connectCtx, conf, tok, cfg.Account)
			connectSpan.End()
			if err != nil {
				return fmt.Errorf("failed to connect to Gmail: %w", err)
			}

			msg := &gmail.Message{
				From:        cfg.Account,
				To:          to,
				Cc:          cc,
				Bcc:         bcc,
				Subject:     subject,
				Body:        body,
				Attachments: attachments,
			}

			_, sendSpan := tracer.Start(ctx, "submit")
			id, err := client.Send(msg)
			sendSpan.End()
			if err != nil {
				logger.Error("send failed",
					logging.Operation("send"),
					logging.Status(logging.StatusError),
					logging.Err(err))
				return err
			}

			logger.Info("email sent",
				logging.Operation("send"),
				logging.Status(logging.StatusSuccess),
				"message_id", id)
			return nil
		},
	}

	addConfigFlags(cmd, &configFile, &account, &credentialsFile, &tokenFile, &logLevel, &trace)

	cmd.Flags().StringArrayVar(&to, "email-to", nil, "Recipient address (repeatable, required)")
	cmd.Flags().StringVar(&subject, "email-subject", "", "Subject of the email (required)")
	cmd.Flags().StringVar(&body, "email-body", "", "Body of the email (required)")
	cmd.Flags().StringArrayVar(&cc, "email-cc", nil, "Cc address (repeatable)")
	cmd.Flags().StringArrayVar(&bcc, "email-bcc", nil, "Bcc address (repeatable)")
	cmd.Flags().StringArrayVar(&attachments, "email-attachements", nil, "File to attach to the email (repeatable)")

	_ = cmd.MarkFlagRequired("email-to")
	_ = cmd.MarkFlagRequired("email-subject")
	_ = cmd.MarkFlagRequired("email-body")

	return cmd
}

// addConfigFlags registers the flags shared by send and auth.
func addConfigFlags(cmd *cobra.Command, configFile, account, credentialsFile, tokenFile, logLevel *string, trace *bool) {
	cmd.Flags().StringVar(configFile, "config", "", "Optional YAML config file")
	cmd.Flags().StringVar(account, "gmail-account", "", "Gmail account to send email as")
	cmd.Flags().StringVar(credentialsFile, "gmail-credentials-file", "", "Gmail OAuth client credentials file (default ~/.gmail/gmail_credentials.json)")
	cmd.Flags().StringVar(tokenFile, "gmail-token-file", "", "Gmail token cache file (default ~/.gmail/gmail_token.json)")
	cmd.Flags().StringVar(logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().BoolVar(trace, "trace", false, "Emit OpenTelemetry spans for the run to stdout")
}

// resolveConfig layers defaults, optional YAML file, environment and
// flags into the effective configuration.
func resolveConfig(cmd *cobra.Command, configFile, account, credentialsFile, tokenFile, logLevel string, trace bool) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Load()
	}

	if account != "" {
		cfg.Account = account
	}
	if credentialsFile != "" {
		cfg.CredentialsFile = config.ExpandHome(credentialsFile)
	}
	if tokenFile != "" {
		cfg.TokenFile = config.ExpandHome(tokenFile)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if cmd.Flags().Changed("trace") {
		cfg.Trace = trace
	}

	if cfg.Account == "" && cmd.Name() == "send" {
		return nil, fmt.Errorf("a Gmail account is required: set --gmail-account, GMAILSEND_ACCOUNT or the config file's account field")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
