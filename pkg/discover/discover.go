// Package discover enumerates braid repositories beneath a root directory.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Repos walks root and returns the root-relative slash paths of every
// directory containing a .braid/ repository, sorted for deterministic merge
// order. Discovered repositories are not descended into, so a repository
// can never shadow another nested inside it. The root itself is never a
// candidate.
func Repos(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("discover: abs path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("discover: %s is not a directory", absRoot)
	}

	var repos []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".braid" {
			return filepath.SkipDir
		}
		if path == absRoot {
			return nil
		}

		marker := filepath.Join(path, ".braid")
		if st, err := os.Stat(marker); err == nil && st.IsDir() {
			rel, err := filepath.Rel(absRoot, path)
			if err != nil {
				return err
			}
			repos = append(repos, filepath.ToSlash(rel))
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover: walk %s: %w", absRoot, err)
	}

	sort.Strings(repos)
	return repos, nil
}
