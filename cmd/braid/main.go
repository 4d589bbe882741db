package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "braid",
		Short: "Weave many repositories into one monorepo, history included",
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newDiscoverCmd())
	root.AddCommand(newJoinCmd())
	root.AddCommand(newLogCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("braid 0.1.0-dev")
		},
	}
}
