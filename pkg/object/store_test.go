package object

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func TestStore_WriteRead(t *testing.T) {
	s := newTestStore(t)

	blob := &Blob{Data: []byte("hello braid")}
	h, err := s.WriteBlob(blob)
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if !s.Has(h) {
		t.Fatal("Has = false after write")
	}

	got, err := s.ReadBlob(h)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if !bytes.Equal(got.Data, blob.Data) {
		t.Errorf("blob data = %q, want %q", got.Data, blob.Data)
	}
}

// Test: writing identical content twice yields the same hash and one object.
func TestStore_WriteIdempotent(t *testing.T) {
	s := newTestStore(t)

	h1, err := s.Write(TypeBlob, []byte("same"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	h2, err := s.Write(TypeBlob, []byte("same"))
	if err != nil {
		t.Fatalf("Write (second): %v", err)
	}
	if h1 != h2 {
		t.Fatalf("idempotent write: %s != %s", h1, h2)
	}
}

func TestStore_TypeMismatch(t *testing.T) {
	s := newTestStore(t)

	h, err := s.WriteBlob(&Blob{Data: []byte("not a tree")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if _, err := s.ReadTree(h); err == nil {
		t.Error("ReadTree on a blob should fail")
	}
	if _, err := s.ReadCommit(h); err == nil {
		t.Error("ReadCommit on a blob should fail")
	}
}

// Test: large objects are zstd-compressed on disk but read back unchanged,
// with the same hash as the uncompressed form would have.
func TestStore_CompressesLargeObjects(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	big := bytes.Repeat([]byte("abcdefgh"), 2048) // 16 KiB, compressible
	h, err := s.WriteBlob(&Blob{Data: big})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if h != HashObject(TypeBlob, big) {
		t.Error("compression changed the object hash")
	}

	raw, err := os.ReadFile(filepath.Join(root, "objects", string(h[:2]), string(h[2:])))
	if err != nil {
		t.Fatalf("read object file: %v", err)
	}
	if !bytes.HasPrefix(raw, zstdMagic) {
		t.Error("large object stored without zstd frame")
	}
	if len(raw) >= len(big) {
		t.Errorf("compressed size %d not smaller than payload %d", len(raw), len(big))
	}

	got, err := s.ReadBlob(h)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if !bytes.Equal(got.Data, big) {
		t.Error("compressed blob did not round trip")
	}
}

func TestStore_SmallObjectsStayUncompressed(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	h, err := s.WriteBlob(&Blob{Data: []byte("tiny")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(root, "objects", string(h[:2]), string(h[2:])))
	if err != nil {
		t.Fatalf("read object file: %v", err)
	}
	if bytes.HasPrefix(raw, zstdMagic) {
		t.Error("small object unexpectedly compressed")
	}
}

func TestStore_ReachableSet(t *testing.T) {
	s := newTestStore(t)

	blobHash, err := s.WriteBlob(&Blob{Data: []byte("content")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	treeHash, err := s.WriteTree(&TreeObj{Entries: []TreeEntry{
		{Name: "file.txt", BlobHash: blobHash},
	}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	rootHash, err := s.WriteCommit(&CommitObj{
		TreeHash: treeHash, Author: "a", Timestamp: 1, Message: "one",
	})
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	childHash, err := s.WriteCommit(&CommitObj{
		TreeHash: treeHash, Parents: []Hash{rootHash}, Author: "a", Timestamp: 2, Message: "two",
	})
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}

	// An unreachable object must not appear.
	if _, err := s.WriteBlob(&Blob{Data: []byte("orphan")}); err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}

	set, err := s.ReachableSet([]Hash{childHash})
	if err != nil {
		t.Fatalf("ReachableSet: %v", err)
	}
	for _, want := range []Hash{childHash, rootHash, treeHash, blobHash} {
		if _, ok := set[want]; !ok {
			t.Errorf("reachable set missing %s", want)
		}
	}
	if len(set) != 4 {
		t.Errorf("reachable set size = %d, want 4", len(set))
	}
}
