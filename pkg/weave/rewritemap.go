package weave

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/odvcencio/braid/pkg/object"
)

// rewriteMap records original → rewritten commit hashes for one weave run.
// It is shared across descriptor workers: per-key exclusivity through
// singleflight guarantees every original commit is rewritten at most once,
// even when two workers reach a shared ancestor concurrently.
type rewriteMap struct {
	mu    sync.Mutex
	done  map[object.Hash]object.Hash
	group singleflight.Group
}

func newRewriteMap() *rewriteMap {
	return &rewriteMap{done: make(map[object.Hash]object.Hash)}
}

func (m *rewriteMap) lookup(h object.Hash) (object.Hash, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nh, ok := m.done[h]
	return nh, ok
}

// rewrite returns the rewritten hash for h, invoking fn at most once across
// all workers. Concurrent callers for the same key block until the first
// invocation completes.
func (m *rewriteMap) rewrite(h object.Hash, fn func() (object.Hash, error)) (object.Hash, error) {
	if nh, ok := m.lookup(h); ok {
		return nh, nil
	}
	v, err, _ := m.group.Do(string(h), func() (interface{}, error) {
		if nh, ok := m.lookup(h); ok {
			return nh, nil
		}
		nh, err := fn()
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.done[h] = nh
		m.mu.Unlock()
		return nh, nil
	})
	if err != nil {
		return "", err
	}
	return v.(object.Hash), nil
}

func (m *rewriteMap) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.done)
}
