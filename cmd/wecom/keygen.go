package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wandering-ai/wecom-agent/pkg/cryptox"
)

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a relay API key",
		Long: `Generate an API key for the relay. Give the key to the caller and add the
fingerprint to the relay's RELAY_API_KEYS; the relay never stores the key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, fp, err := cryptox.GenerateAPIKey()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "key:         %s\n", key)
			fmt.Fprintf(out, "fingerprint: %s\n", fp)
			return nil
		},
	}
}
