package repo

import (
	"fmt"
	"sort"

	"github.com/odvcencio/braid/pkg/object"
)

// ImportObjects copies every object reachable from roots in the source
// store into this repository's store. Objects already present are skipped
// (content addressing makes the copy idempotent). It returns the number of
// objects written.
//
// This is the local equivalent of fetching from a remote: after a
// successful import every root commit is readable from this repository
// under its original hash.
func (r *Repo) ImportObjects(src *object.Store, roots ...object.Hash) (int, error) {
	reachable, err := src.ReachableSet(roots)
	if err != nil {
		return 0, fmt.Errorf("import objects: %w", err)
	}

	// Deterministic copy order keeps failure behavior repeatable.
	hashes := make([]object.Hash, 0, len(reachable))
	for h := range reachable {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })

	copied := 0
	for _, h := range hashes {
		if r.Store.Has(h) {
			continue
		}
		objType, data, err := src.Read(h)
		if err != nil {
			return copied, fmt.Errorf("import objects: read %s: %w", h, err)
		}
		written, err := r.Store.Write(objType, data)
		if err != nil {
			return copied, fmt.Errorf("import objects: write %s: %w", h, err)
		}
		if written != h {
			return copied, fmt.Errorf("import objects: hash mismatch for %s: store wrote %s", h, written)
		}
		copied++
	}
	return copied, nil
}
