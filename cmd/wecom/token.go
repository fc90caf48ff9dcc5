package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wandering-ai/wecom-agent/pkg/cryptox"
)

func newTokenCmd(opts *globalOptions) *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Fetch an access token",
		Long: `Fetch a fresh access token for the selected profile and print it masked,
with its expiry. Use --show to print the full token, e.g. for curl.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			agent, _, err := opts.agent()
			if err != nil {
				return err
			}

			if err := agent.RefreshCredential(cmd.Context(), 0); err != nil {
				return err
			}

			cred := agent.Credential().Snapshot()
			value := cryptox.MaskToken(cred.Value)
			if show {
				value = cred.Value
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\nexpires %s (valid for %s)\n",
				value,
				cred.ExpiresAt().Local().Format(time.RFC3339),
				cred.Lifetime,
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "Print the token unmasked")

	return cmd
}
