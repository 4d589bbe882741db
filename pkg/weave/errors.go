package weave

import (
	"errors"
	"fmt"
)

var ErrNoSources = errors.New("no source repositories to weave")
var ErrEmptyPrefix = errors.New("empty destination prefix")

// PathCollisionError reports two source repositories whose destination
// prefixes occupy the same spot in the merged tree. It is raised before any
// object is written for the run.
type PathCollisionError struct {
	Prefix string // slash-joined colliding prefix
	First  string // path of the repository that claimed the prefix first
	Second string // path of the repository that collided with it
}

func (e *PathCollisionError) Error() string {
	return fmt.Sprintf(
		"path collision at %q: repositories %s and %s map to overlapping prefixes",
		e.Prefix, e.First, e.Second,
	)
}

// NoBranchError reports a repository for which no usable branch could be
// resolved. Branch is empty when no candidate name existed at all.
type NoBranchError struct {
	Repo   string
	Branch string
}

func (e *NoBranchError) Error() string {
	if e.Branch == "" {
		return fmt.Sprintf("no branch resolved for repository %s", e.Repo)
	}
	return fmt.Sprintf("branch %q does not exist in repository %s", e.Branch, e.Repo)
}

// EmptyRepositoryError reports a repository with no commits to weave.
type EmptyRepositoryError struct {
	Repo string
}

func (e *EmptyRepositoryError) Error() string {
	return fmt.Sprintf("repository %s has no commits", e.Repo)
}
