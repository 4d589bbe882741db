package weave

import (
	"fmt"
	"strings"

	"github.com/odvcencio/braid/pkg/object"
)

// Source describes one repository to weave into the merged history.
// Created by discovery plus branch resolution, read-only afterward.
type Source struct {
	Path   string      // filesystem location of the source repository
	Name   string      // root-relative slash path, e.g. "vendor/parser"
	Branch string      // resolved branch name
	Tip    object.Hash // resolved branch tip commit
	Prefix []string    // destination path segments in the merged tree
}

// PrefixFor computes the destination prefix for a repository name. The name
// is split on slashes and the suffix is appended to the final segment, so
// repository "vendor/parser" with suffix "-src" lands at vendor/parser-src.
func PrefixFor(name, suffix string) ([]string, error) {
	var segments []string
	for _, seg := range strings.Split(name, "/") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("repository name %q: %w", name, ErrEmptyPrefix)
	}
	segments[len(segments)-1] += suffix
	return segments, nil
}

// ValidatePrefixes rejects source sets whose prefixes overlap in the merged
// tree. Equal prefixes collide outright; a prefix that is a path ancestor
// of another would nest one repository inside another's content and is
// rejected too. Runs before any object write.
func ValidatePrefixes(sources []Source) error {
	for i := range sources {
		if len(sources[i].Prefix) == 0 {
			return fmt.Errorf("repository %s: %w", sources[i].Path, ErrEmptyPrefix)
		}
	}
	for i := 0; i < len(sources); i++ {
		pi := strings.Join(sources[i].Prefix, "/")
		for j := i + 1; j < len(sources); j++ {
			pj := strings.Join(sources[j].Prefix, "/")
			switch {
			case pi == pj:
				return &PathCollisionError{Prefix: pi, First: sources[i].Path, Second: sources[j].Path}
			case strings.HasPrefix(pj, pi+"/"):
				return &PathCollisionError{Prefix: pi, First: sources[i].Path, Second: sources[j].Path}
			case strings.HasPrefix(pi, pj+"/"):
				return &PathCollisionError{Prefix: pj, First: sources[i].Path, Second: sources[j].Path}
			}
		}
	}
	return nil
}
