package weave

import (
	"errors"
	"reflect"
	"testing"
)

func TestRewriteTree_NestsUnderPrefix(t *testing.T) {
	fs := newFakeStore()
	tree := fakeTree(t, fs, map[string]string{
		"main.go":      "package main",
		"docs/api.txt": "the api",
	})

	wrapped, err := RewriteTree(fs, tree, []string{"vendor", "parser-src"})
	if err != nil {
		t.Fatalf("RewriteTree: %v", err)
	}

	paths := flattenFake(t, fs, wrapped)
	want := []string{"vendor/parser-src/docs/api.txt", "vendor/parser-src/main.go"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("rewritten tree = %v, want %v", paths, want)
	}
}

// The original tree object is referenced, not copied: the innermost wrapper
// entry points straight at the input hash.
func TestRewriteTree_SharesOriginalSubtree(t *testing.T) {
	fs := newFakeStore()
	tree := fakeTree(t, fs, map[string]string{"a.txt": "x"})

	wrapped, err := RewriteTree(fs, tree, []string{"outer", "inner"})
	if err != nil {
		t.Fatalf("RewriteTree: %v", err)
	}

	outer, err := fs.ReadTree(wrapped)
	if err != nil {
		t.Fatalf("read outer wrapper: %v", err)
	}
	if len(outer.Entries) != 1 || outer.Entries[0].Name != "outer" || !outer.Entries[0].IsDir {
		t.Fatalf("outer wrapper = %+v, want single directory entry %q", outer.Entries, "outer")
	}
	inner, err := fs.ReadTree(outer.Entries[0].SubtreeHash)
	if err != nil {
		t.Fatalf("read inner wrapper: %v", err)
	}
	if len(inner.Entries) != 1 || inner.Entries[0].Name != "inner" {
		t.Fatalf("inner wrapper = %+v, want single directory entry %q", inner.Entries, "inner")
	}
	if inner.Entries[0].SubtreeHash != tree {
		t.Errorf("innermost entry = %s, want original tree %s", inner.Entries[0].SubtreeHash, tree)
	}
}

func TestRewriteTree_Deterministic(t *testing.T) {
	fs := newFakeStore()
	tree := fakeTree(t, fs, map[string]string{"a.txt": "x"})

	first, err := RewriteTree(fs, tree, []string{"lib"})
	if err != nil {
		t.Fatalf("RewriteTree (first): %v", err)
	}
	second, err := RewriteTree(fs, tree, []string{"lib"})
	if err != nil {
		t.Fatalf("RewriteTree (second): %v", err)
	}
	if first != second {
		t.Errorf("hashes differ across identical runs: %s vs %s", first, second)
	}
}

func TestRewriteTree_EmptyPrefix(t *testing.T) {
	fs := newFakeStore()
	tree := fakeTree(t, fs, map[string]string{"a.txt": "x"})

	if _, err := RewriteTree(fs, tree, nil); !errors.Is(err, ErrEmptyPrefix) {
		t.Fatalf("err = %v, want ErrEmptyPrefix", err)
	}
}

func TestRewriteTree_InvalidSegment(t *testing.T) {
	fs := newFakeStore()
	tree := fakeTree(t, fs, map[string]string{"a.txt": "x"})

	for _, prefix := range [][]string{{""}, {"  "}, {"a/b"}} {
		if _, err := RewriteTree(fs, tree, prefix); err == nil {
			t.Errorf("RewriteTree(%q) succeeded, want error", prefix)
		}
	}
}
