package repo

import (
	"fmt"
	"path"

	"github.com/odvcencio/braid/pkg/object"
)

// TreeFileEntry represents a single file in a flattened tree.
type TreeFileEntry struct {
	Path     string
	BlobHash object.Hash
}

// FlattenTree walks a tree object, returning all file entries with their
// full slash-separated paths. Traversal uses an explicit work-list so
// arbitrarily deep trees cannot exhaust the stack.
func (r *Repo) FlattenTree(h object.Hash) ([]TreeFileEntry, error) {
	type dirFrame struct {
		hash   object.Hash
		prefix string
	}

	var result []TreeFileEntry
	stack := []dirFrame{{hash: h}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		treeObj, err := r.Store.ReadTree(f.hash)
		if err != nil {
			return nil, fmt.Errorf("flatten tree: read %s: %w", f.hash, err)
		}
		for _, entry := range treeObj.Entries {
			fullPath := entry.Name
			if f.prefix != "" {
				fullPath = path.Join(f.prefix, entry.Name)
			}
			if entry.IsDir {
				stack = append(stack, dirFrame{hash: entry.SubtreeHash, prefix: fullPath})
				continue
			}
			result = append(result, TreeFileEntry{
				Path:     fullPath,
				BlobHash: entry.BlobHash,
			})
		}
	}
	return result, nil
}
