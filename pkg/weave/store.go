package weave

import (
	"github.com/odvcencio/braid/pkg/object"
)

// Store is the narrow object-store surface the weaver needs. All writes are
// content-addressed and idempotent: writing identical content twice yields
// the same hash and no duplicate object, so the weaver never mutates or
// deletes existing objects, it only adds new ones.
type Store interface {
	ReadCommit(h object.Hash) (*object.CommitObj, error)
	ReadTree(h object.Hash) (*object.TreeObj, error)
	WriteTree(tr *object.TreeObj) (object.Hash, error)
	WriteCommit(c *object.CommitObj) (object.Hash, error)
}

var _ Store = (*object.Store)(nil)
