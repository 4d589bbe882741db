package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/odvcencio/braid/pkg/config"
	"github.com/odvcencio/braid/pkg/discover"
	"github.com/odvcencio/braid/pkg/manifest"
	"github.com/odvcencio/braid/pkg/repo"
	"github.com/odvcencio/braid/pkg/weave"
)

// targetSuffix names the merged repository directory next to the root when
// no explicit target is configured.
const targetSuffix = "_joined"

type joinOptions struct {
	suffix      string
	branch      string
	target      string
	signKey     string
	signCommit  bool
	skipMissing bool
	verbose     bool
	workers     int
}

func newJoinCmd() *cobra.Command {
	var opts joinOptions
	cmd := &cobra.Command{
		Use:   "join <root>",
		Short: "Weave all repositories below a root into one new repository",
		Long: `Join discovers every repository below <root>, rewrites each history so its
content lives under the repository's own subdirectory, and creates a new
repository next to <root> whose single branch merges all rewritten
histories. Source repositories are never modified.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJoin(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.suffix, "suffix", "", "suffix appended to each repository's directory name in the merged tree")
	cmd.Flags().StringVar(&opts.branch, "branch", "", "branch to weave in every repository (overrides the manifest)")
	cmd.Flags().StringVar(&opts.target, "target", "", "path of the merged repository (default <root>"+targetSuffix+")")
	cmd.Flags().BoolVar(&opts.signCommit, "sign", false, "sign the merge commit with an SSH key")
	cmd.Flags().StringVar(&opts.signKey, "sign-key", "", "SSH private key for signing (implies --sign)")
	cmd.Flags().BoolVar(&opts.skipMissing, "skip-missing", false, "skip repositories whose branch cannot be resolved instead of aborting")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "max repositories rewritten in parallel (0 = GOMAXPROCS)")

	return cmd
}

func runJoin(cmd *cobra.Command, root string, opts joinOptions) error {
	log, err := newLogger(opts.verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	suffix := firstNonEmpty(opts.suffix, cfg.Suffix)
	explicit := firstNonEmpty(opts.branch, cfg.Branch)
	targetPath := firstNonEmpty(opts.target, cfg.Target, strings.TrimRight(root, "/")+targetSuffix)
	skipMissing := opts.skipMissing || cfg.OnMissingBranch == config.MissingBranchSkip

	declared, err := manifest.Find(root)
	if err != nil {
		var parseErr *manifest.ParseError
		if !errors.As(err, &parseErr) {
			return err
		}
		log.Warn("ignoring malformed manifest",
			zap.String("path", parseErr.Path),
			zap.Error(parseErr.Err),
		)
		declared = ""
	}
	if declared != "" {
		log.Info("manifest declares branch", zap.String("branch", declared))
	}

	names, err := discover.Repos(root)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no repositories found below %s", root)
	}
	log.Info("discovered repositories",
		zap.String("root", root),
		zap.Int("count", len(names)),
	)

	var sources []weave.Source
	var stores []*repo.Repo
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		r, err := repo.Open(path)
		if err != nil {
			return err
		}

		branchName, tip, err := weave.ResolveBranch(r, path, explicit, declared)
		if err != nil {
			if skipMissing && isSkippable(err) {
				log.Warn("skipping repository",
					zap.String("repository", name),
					zap.Error(err),
				)
				continue
			}
			return err
		}
		log.Debug("resolved branch",
			zap.String("repository", name),
			zap.String("branch", branchName),
		)

		prefix, err := weave.PrefixFor(name, suffix)
		if err != nil {
			return err
		}
		sources = append(sources, weave.Source{
			Path:   path,
			Name:   name,
			Branch: branchName,
			Tip:    tip,
			Prefix: prefix,
		})
		stores = append(stores, r)
	}
	if len(sources) == 0 {
		return fmt.Errorf("all repositories below %s were skipped", root)
	}

	// Collision check before the target repository even exists.
	if err := weave.ValidatePrefixes(sources); err != nil {
		return err
	}

	var signer weave.Signer
	if opts.signCommit || opts.signKey != "" {
		s, keyPath, err := newSSHCommitSigner(opts.signKey)
		if err != nil {
			return err
		}
		signer = s
		log.Info("signing merge commit", zap.String("key", keyPath))
	}

	target, err := repo.Init(targetPath)
	if err != nil {
		return err
	}
	log.Info("created target repository", zap.String("path", targetPath))

	for i := range sources {
		copied, err := target.ImportObjects(stores[i].Store, sources[i].Tip)
		if err != nil {
			return err
		}
		log.Debug("imported objects",
			zap.String("repository", sources[i].Name),
			zap.Int("objects", copied),
		)
	}

	w := weave.New(target.Store,
		weave.WithLogger(log),
		weave.WithWorkers(opts.workers),
		weave.WithSigner(signer),
	)
	merged, err := w.Weave(cmd.Context(), sources)
	if err != nil {
		return err
	}

	if opts.verbose {
		mergedCommit, err := target.Store.ReadCommit(merged)
		if err != nil {
			return err
		}
		files, err := target.FlattenTree(mergedCommit.TreeHash)
		if err != nil {
			return err
		}
		log.Debug("merged tree", zap.Int("files", len(files)))
	}

	// The single externally visible commit point: publish the branch. The
	// target is freshly initialized, so the branch must not exist yet.
	branchName := firstNonEmpty(explicit, repo.DefaultBranchName)
	if err := target.CreateBranch(branchName, merged); err != nil {
		return err
	}
	if branchName != repo.DefaultBranchName {
		if err := target.SetHead(branchName); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	color.New(color.FgGreen).Fprintf(out, "wove %d repositories into %s\n", len(sources), targetPath)
	fmt.Fprintf(out, "[%s %s] merge of %d histories\n", branchName, shortHash(merged), len(sources))
	return nil
}

func isSkippable(err error) bool {
	var noBranch *weave.NoBranchError
	var empty *weave.EmptyRepositoryError
	return errors.As(err, &noBranch) || errors.As(err, &empty)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
