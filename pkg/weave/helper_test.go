package weave

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/odvcencio/braid/pkg/object"
)

// fakeStore is an in-memory content-addressed store for exercising the
// weaver without a repository on disk.
type fakeStore struct {
	mu           sync.Mutex
	types        map[object.Hash]object.ObjectType
	objects      map[object.Hash][]byte
	writes       int // all write calls
	commitWrites int // WriteCommit calls
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		types:   make(map[object.Hash]object.ObjectType),
		objects: make(map[object.Hash][]byte),
	}
}

func (f *fakeStore) write(objType object.ObjectType, data []byte) (object.Hash, error) {
	h := object.HashObject(objType, data)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.types[h] = objType
	f.objects[h] = data
	return h, nil
}

func (f *fakeStore) read(h object.Hash, want object.ObjectType) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[h]
	if !ok {
		return nil, fmt.Errorf("object %s not found", h)
	}
	if f.types[h] != want {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, f.types[h], want)
	}
	return data, nil
}

func (f *fakeStore) WriteTree(tr *object.TreeObj) (object.Hash, error) {
	return f.write(object.TypeTree, object.MarshalTree(tr))
}

func (f *fakeStore) WriteCommit(c *object.CommitObj) (object.Hash, error) {
	f.mu.Lock()
	f.commitWrites++
	f.mu.Unlock()
	return f.write(object.TypeCommit, object.MarshalCommit(c))
}

func (f *fakeStore) ReadTree(h object.Hash) (*object.TreeObj, error) {
	data, err := f.read(h, object.TypeTree)
	if err != nil {
		return nil, err
	}
	return object.UnmarshalTree(data)
}

func (f *fakeStore) ReadCommit(h object.Hash) (*object.CommitObj, error) {
	data, err := f.read(h, object.TypeCommit)
	if err != nil {
		return nil, err
	}
	return object.UnmarshalCommit(data)
}

func (f *fakeStore) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *fakeStore) commitWriteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commitWrites
}

// fakeTree writes a tree for a flat path → content map.
func fakeTree(t *testing.T, fs *fakeStore, files map[string]string) object.Hash {
	t.Helper()
	return fakeTreeDir(t, fs, files, "")
}

func fakeTreeDir(t *testing.T, fs *fakeStore, files map[string]string, prefix string) object.Hash {
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
			h, err := fs.write(object.TypeBlob, []byte(content))
			if err != nil {
				t.Fatalf("write blob %s: %v", p, err)
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
			sub := fakeTreeDir(t, fs, files, childPrefix)
			entries = append(entries, object.TreeEntry{Name: name, IsDir: true, SubtreeHash: sub})
		} else {
			entries = append(entries, object.TreeEntry{Name: name, BlobHash: blobs[name]})
		}
	}

	h, err := fs.WriteTree(&object.TreeObj{Entries: entries})
	if err != nil {
		t.Fatalf("write tree: %v", err)
	}
	return h
}

// fakeCommit writes a commit over the given files.
func fakeCommit(t *testing.T, fs *fakeStore, message string, files map[string]string, parents ...object.Hash) object.Hash {
	t.Helper()
	treeHash := fakeTree(t, fs, files)
	h, err := fs.WriteCommit(&object.CommitObj{
		TreeHash:  treeHash,
		Parents:   parents,
		Author:    "test-author",
		Timestamp: 1700000000 + int64(len(message)),
		Message:   message,
	})
	if err != nil {
		t.Fatalf("write commit: %v", err)
	}
	return h
}

// flattenFake lists all file paths under a tree, sorted.
func flattenFake(t *testing.T, fs *fakeStore, treeHash object.Hash) []string {
	t.Helper()

	var paths []string
	var walk func(h object.Hash, prefix string)
	walk = func(h object.Hash, prefix string) {
		tr, err := fs.ReadTree(h)
		if err != nil {
			t.Fatalf("read tree %s: %v", h, err)
		}
		for _, e := range tr.Entries {
			full := e.Name
			if prefix != "" {
				full = prefix + "/" + e.Name
			}
			if e.IsDir {
				walk(e.SubtreeHash, full)
			} else {
				paths = append(paths, full)
			}
		}
	}
	walk(treeHash, "")
	sort.Strings(paths)
	return paths
}

func mustSource(t *testing.T, name, suffix string, tip object.Hash) Source {
	t.Helper()
	prefix, err := PrefixFor(name, suffix)
	if err != nil {
		t.Fatalf("PrefixFor(%q, %q): %v", name, suffix, err)
	}
	return Source{
		Path:   "/repos/" + name,
		Name:   name,
		Branch: "main",
		Tip:    tip,
		Prefix: prefix,
	}
}
