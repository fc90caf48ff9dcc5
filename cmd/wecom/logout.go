package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove a stored profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := opts.manager()
			if err != nil {
				return err
			}

			if err := mgr.Remove(opts.profile); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Removed profile.")
			return nil
		},
	}
}
