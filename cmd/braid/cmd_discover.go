package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/braid/pkg/discover"
)

func newDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover <root>",
		Short: "List repositories that a join would merge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, err := discover.Repos(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range repos {
				fmt.Fprintln(out, name)
			}
			fmt.Fprintf(out, "%d repositories\n", len(repos))
			return nil
		},
	}
}
