package repo

import (
	"github.com/odvcencio/braid/pkg/object"
)

// Repo represents an opened braid repository.
type Repo struct {
	RootDir  string        // working directory root
	BraidDir string        // .braid/ directory
	Store    *object.Store // content-addressed object store
}
