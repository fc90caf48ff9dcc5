package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/wandering-ai/wecom-agent/internal/profile"
	"github.com/wandering-ai/wecom-agent/pkg/slogx"
	"github.com/wandering-ai/wecom-agent/pkg/wecom"
)

const rootLongDesc string = `Send WeCom application messages from the command line.

Credentials for one or more applications are kept in profiles.toml under
~/.wecom (or --config-dir), readable only by you. WECOM_CORP_ID,
WECOM_SECRET, WECOM_AGENT_ID and WECOM_BASE_URL override the stored values.

Examples:
  wecom login                                 Store the default profile
  wecom send --to-user robin "build green"    Send a text message
  wecom token                                 Fetch and show a masked access token
  wecom keygen                                Mint an API key for the relay`

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configDir string
	profile   string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:           "wecom",
		Short:         "Send WeCom application messages",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger := slogx.New(slogx.Config{
				Service: "wecom-cli",
				Level:   opts.logLevel,
				Format:  "text",
				Output:  cmd.ErrOrStderr(),
			})
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(slogx.WithContext(ctx, logger))
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configDir, "config-dir", "", "Directory holding profiles.toml (default ~/.wecom)")
	cmd.PersistentFlags().StringVarP(&opts.profile, "profile", "p", "", "Profile name (default: the last one stored)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newSendCmd(opts),
		newTokenCmd(opts),
		newKeygenCmd(),
	)

	return cmd
}

func (o *globalOptions) manager() (*profile.Manager, error) {
	return profile.NewManager(o.configDir)
}

// agent builds an Agent from the selected profile and env overrides.
func (o *globalOptions) agent() (*wecom.Agent, profile.Profile, error) {
	mgr, err := o.manager()
	if err != nil {
		return nil, profile.Profile{}, err
	}

	p, err := mgr.Resolve(o.profile)
	if err != nil {
		return nil, profile.Profile{}, err
	}

	return newAgent(p), p, nil
}

func newAgent(p profile.Profile) *wecom.Agent {
	var opts []wecom.Option
	if p.BaseURL != "" {
		opts = append(opts, wecom.WithBaseURL(p.BaseURL))
	}
	return wecom.NewAgent(p.CorpID, p.Secret, opts...)
}
