package weave

import (
	"fmt"
	"strings"

	"github.com/odvcencio/braid/pkg/object"
)

// RewriteTree nests the tree identified by treeID under the given prefix.
// It builds a chain of single-entry trees, one per prefix segment, with the
// innermost entry referencing the original tree by hash. No content is
// copied: only the small directory objects for the prefix are written, and
// the original subtree is shared structurally.
//
// Identical (treeID, prefix) inputs always yield the same result hash, so
// repeated runs deduplicate through content addressing.
func RewriteTree(store Store, treeID object.Hash, prefix []string) (object.Hash, error) {
	if len(prefix) == 0 {
		return "", ErrEmptyPrefix
	}
	for _, seg := range prefix {
		if strings.TrimSpace(seg) == "" || strings.Contains(seg, "/") {
			return "", fmt.Errorf("rewrite tree: invalid prefix segment %q", seg)
		}
	}

	current := treeID
	for i := len(prefix) - 1; i >= 0; i-- {
		wrapper := &object.TreeObj{
			Entries: []object.TreeEntry{{
				Name:        prefix[i],
				IsDir:       true,
				SubtreeHash: current,
			}},
		}
		h, err := store.WriteTree(wrapper)
		if err != nil {
			return "", fmt.Errorf("rewrite tree: write prefix %q: %w", prefix[i], err)
		}
		current = h
	}
	return current, nil
}
