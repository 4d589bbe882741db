package weave

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/odvcencio/braid/pkg/object"
)

// BranchSource is the per-repository surface branch resolution needs.
// *repo.Repo satisfies it.
type BranchSource interface {
	CurrentBranch() (string, error)
	ListBranches() ([]string, error)
	ResolveRef(name string) (object.Hash, error)
}

// ResolveBranch picks the branch to weave for one source repository and
// resolves its tip.
//
// Precedence: explicit flag, then manifest-declared branch, then the
// repository's own default branch (the symbolic target of HEAD). The choice
// is independent per repository: two sources may legitimately weave
// different branch names unless an explicit name forces one globally.
//
// A chosen name without a matching ref yields *NoBranchError; a repository
// with no branches at all yields *EmptyRepositoryError.
func ResolveBranch(src BranchSource, repoPath, explicit, declared string) (string, object.Hash, error) {
	name := strings.TrimSpace(explicit)
	if name == "" {
		name = strings.TrimSpace(declared)
	}
	if name == "" {
		current, err := src.CurrentBranch()
		if err != nil {
			return "", "", fmt.Errorf("resolve branch for %s: %w", repoPath, err)
		}
		name = current
	}
	if name == "" {
		return "", "", &NoBranchError{Repo: repoPath}
	}

	tip, err := src.ResolveRef("refs/heads/" + name)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		// A failure other than "no such ref" is a store problem, not a
		// missing branch, and must not be silently skippable.
		return "", "", fmt.Errorf("resolve branch %q for %s: %w", name, repoPath, err)
	}
	if err != nil || tip == "" {
		branches, listErr := src.ListBranches()
		if listErr == nil && len(branches) == 0 {
			return "", "", &EmptyRepositoryError{Repo: repoPath}
		}
		return "", "", &NoBranchError{Repo: repoPath, Branch: name}
	}
	return name, tip, nil
}
