package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/odvcencio/braid/pkg/object"
	"github.com/odvcencio/braid/pkg/repo"
)

func newLogCmd() *cobra.Command {
	var limit int
	var showReflog bool

	cmd := &cobra.Command{
		Use:   "log <repo>",
		Short: "Show the commit history of a repository",
		Long: `Log prints the first-parent history of the repository's current branch,
newest first. With --reflog it prints the recorded ref movements of the
current branch instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(args[0])
			if err != nil {
				return err
			}
			if showReflog {
				return printReflog(cmd, r)
			}
			return printLog(cmd, r, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "max commits to show")
	cmd.Flags().BoolVar(&showReflog, "reflog", false, "show ref movements of the current branch")

	return cmd
}

func printLog(cmd *cobra.Command, r *repo.Repo, limit int) error {
	tip, err := r.ResolveRef("HEAD")
	if err != nil {
		return err
	}

	commits, err := r.Log(tip, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, c := range commits {
		h := object.HashObject(object.TypeCommit, object.MarshalCommit(c))
		when := time.Unix(c.Timestamp, 0).Format("2006-01-02 15:04:05")
		subject, _, _ := strings.Cut(c.Message, "\n")
		fmt.Fprintf(out, "%s %s %s %s\n", shortHash(h), when, c.Author, subject)
	}
	return nil
}

func printReflog(cmd *cobra.Command, r *repo.Repo) error {
	branch, err := r.CurrentBranch()
	if err != nil {
		return err
	}
	if branch == "" {
		return fmt.Errorf("HEAD is detached; reflog needs a branch")
	}

	entries, err := r.ReadReflog(branch)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, e := range entries {
		when := time.Unix(e.Timestamp, 0).Format("2006-01-02 15:04:05")
		fmt.Fprintf(out, "%s -> %s %s %s\n", shortHash(e.OldHash), shortHash(e.NewHash), when, e.Reason)
	}
	return nil
}

func shortHash(h object.Hash) string {
	if len(h) > 8 {
		return string(h[:8])
	}
	return string(h)
}
