package repo

import (
	"sort"
	"strings"
	"testing"

	"github.com/odvcencio/braid/pkg/object"
)

// writeTestTree writes a tree hierarchy for a flat path → content map and
// returns the root tree hash.
func writeTestTree(t *testing.T, s *object.Store, files map[string]string) object.Hash {
	t.Helper()
	return writeTestTreeDir(t, s, files, "")
}

func writeTestTreeDir(t *testing.T, s *object.Store, files map[string]string, prefix string) object.Hash {
	t.Helper()

	names := make(map[string]bool)
	blobs := make(map[string]object.Hash)
	for p, content := range files {
		rel := p
		if prefix != "" {
			if !strings.HasPrefix(p, prefix+"/") {
				continue
			}
			rel = p[len(prefix)+1:]
		}
		slash := strings.IndexByte(rel, '/')
		if slash < 0 {
			h, err := s.WriteBlob(&object.Blob{Data: []byte(content)})
			if err != nil {
				t.Fatalf("WriteBlob(%s): %v", p, err)
			}
			blobs[rel] = h
			names[rel] = false
		} else {
			names[rel[:slash]] = true
		}
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	var entries []object.TreeEntry
	for _, name := range sorted {
		if names[name] {
			childPrefix := name
			if prefix != "" {
				childPrefix = prefix + "/" + name
			}
			sub := writeTestTreeDir(t, s, files, childPrefix)
			entries = append(entries, object.TreeEntry{Name: name, IsDir: true, SubtreeHash: sub})
		} else {
			entries = append(entries, object.TreeEntry{Name: name, BlobHash: blobs[name]})
		}
	}

	h, err := s.WriteTree(&object.TreeObj{Entries: entries})
	if err != nil {
		t.Fatalf("WriteTree(prefix=%q): %v", prefix, err)
	}
	return h
}

// writeTestCommit writes a commit for the given files and points the branch
// at it.
func writeTestCommit(t *testing.T, r *Repo, branch, message string, files map[string]string, parents ...object.Hash) object.Hash {
	t.Helper()

	treeHash := writeTestTree(t, r.Store, files)
	h, err := r.Store.WriteCommit(&object.CommitObj{
		TreeHash:  treeHash,
		Parents:   parents,
		Author:    "test-author",
		Timestamp: 1700000000 + int64(len(message)),
		Message:   message,
	})
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	if err := r.UpdateRef("refs/heads/"+branch, h); err != nil {
		t.Fatalf("UpdateRef(%s): %v", branch, err)
	}
	return h
}
