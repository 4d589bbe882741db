// Package weave rewrites the commit histories of many source repositories
// so their contents live under distinct path prefixes, and joins the
// rewritten histories with one synthetic merge commit. The operation is
// purely additive: existing objects are never mutated or deleted, so a
// failed run leaves at worst unreferenced objects behind and can simply be
// retried.
package weave

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/odvcencio/braid/pkg/object"
)

// Signer signs canonical commit payload bytes and returns an encoded
// signature string stored in the commit.
type Signer func(payload []byte) (string, error)

// Weaver rewrites and joins source histories inside a single object store.
type Weaver struct {
	store   Store
	log     *zap.Logger
	workers int
	author  string
	message string
	signer  Signer
}

// Option configures a Weaver.
type Option func(*Weaver)

// WithLogger sets the progress logger. Default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(w *Weaver) {
		if log != nil {
			w.log = log
		}
	}
}

// WithWorkers caps the number of concurrently rewritten repositories.
func WithWorkers(n int) Option {
	return func(w *Weaver) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithAuthor sets the author recorded on the synthetic merge commit.
func WithAuthor(author string) Option {
	return func(w *Weaver) {
		if author != "" {
			w.author = author
		}
	}
}

// WithMessage overrides the synthetic merge commit message.
func WithMessage(message string) Option {
	return func(w *Weaver) {
		if message != "" {
			w.message = message
		}
	}
}

// WithSigner signs the synthetic merge commit.
func WithSigner(signer Signer) Option {
	return func(w *Weaver) { w.signer = signer }
}

// New creates a Weaver over the given store.
func New(store Store, opts ...Option) *Weaver {
	w := &Weaver{
		store:   store,
		log:     zap.NewNop(),
		workers: runtime.GOMAXPROCS(0),
		author:  "braid",
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Weave rewrites every source history under its prefix and writes one merge
// commit whose parents are the rewritten tips, in input order. It returns
// the merge commit's hash. No branch ref is touched: publishing the result
// is the caller's single commit point, performed only on full success.
//
// Prefix validation runs before any object write, so a collision leaves the
// store untouched. Repository traversals run on parallel workers; a shared
// rewrite mapping guarantees commits reachable from several sources are
// rewritten exactly once.
func (w *Weaver) Weave(ctx context.Context, sources []Source) (object.Hash, error) {
	if len(sources) == 0 {
		return "", ErrNoSources
	}
	for i := range sources {
		if sources[i].Tip == "" {
			return "", &EmptyRepositoryError{Repo: sources[i].Path}
		}
	}
	if err := ValidatePrefixes(sources); err != nil {
		return "", err
	}

	rm := newRewriteMap()
	tips := make([]object.Hash, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)
	for i := range sources {
		i := i
		g.Go(func() error {
			tip, err := w.rewriteHistory(gctx, &sources[i], rm)
			if err != nil {
				return err
			}
			tips[i] = tip
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	w.log.Debug("histories rewritten",
		zap.Int("repositories", len(sources)),
		zap.Int("commits", rm.size()),
	)

	return w.writeMergeCommit(sources, tips)
}

// rewriteHistory rewrites every commit reachable from the source tip and
// returns the rewritten tip.
func (w *Weaver) rewriteHistory(ctx context.Context, src *Source, rm *rewriteMap) (object.Hash, error) {
	order, err := w.ancestryOrder(src.Tip, rm)
	if err != nil {
		return "", fmt.Errorf("weave %s: %w", src.Name, err)
	}

	w.log.Debug("rewriting history",
		zap.String("repository", src.Name),
		zap.String("branch", src.Branch),
		zap.Int("commits", len(order)),
	)

	for _, h := range order {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		if _, err := w.rewriteCommit(src, h, rm); err != nil {
			return "", err
		}
	}

	tip, ok := rm.lookup(src.Tip)
	if !ok {
		return "", fmt.Errorf("weave %s: tip %s missing from rewrite mapping", src.Name, src.Tip)
	}
	return tip, nil
}

// ancestryOrder returns the commits reachable from tip in reverse
// topological order (parents before children), using an explicit work-list
// so deep histories cannot exhaust the stack. Commits already present in
// the rewrite mapping are skipped along with their ancestors.
func (w *Weaver) ancestryOrder(tip object.Hash, rm *rewriteMap) ([]object.Hash, error) {
	type frame struct {
		hash     object.Hash
		expanded bool
	}

	var order []object.Hash
	seen := make(map[object.Hash]bool)
	stack := []frame{{hash: tip}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.expanded {
			order = append(order, f.hash)
			continue
		}
		if seen[f.hash] {
			continue
		}
		seen[f.hash] = true

		// A commit already rewritten (by this run's earlier work or a
		// parallel worker) has all its ancestors rewritten too.
		if _, done := rm.lookup(f.hash); done {
			continue
		}

		c, err := w.store.ReadCommit(f.hash)
		if err != nil {
			return nil, fmt.Errorf("read commit %s: %w", f.hash, err)
		}

		stack = append(stack, frame{hash: f.hash, expanded: true})
		for _, p := range c.Parents {
			if !seen[p] {
				stack = append(stack, frame{hash: p})
			}
		}
	}
	return order, nil
}

// rewriteCommit rewrites a single commit for the given source: its tree is
// nested under the source prefix, its parents are replaced through the
// rewrite mapping, and all authorship metadata is carried over verbatim.
func (w *Weaver) rewriteCommit(src *Source, h object.Hash, rm *rewriteMap) (object.Hash, error) {
	return rm.rewrite(h, func() (object.Hash, error) {
		c, err := w.store.ReadCommit(h)
		if err != nil {
			return "", fmt.Errorf("weave %s: %w", src.Name, err)
		}

		newTree, err := RewriteTree(w.store, c.TreeHash, src.Prefix)
		if err != nil {
			return "", fmt.Errorf("weave %s: commit %s: %w", src.Name, h, err)
		}

		newParents := make([]object.Hash, len(c.Parents))
		for i, p := range c.Parents {
			np, ok := rm.lookup(p)
			if !ok {
				return "", fmt.Errorf("weave %s: parent %s of %s not yet rewritten", src.Name, p, h)
			}
			newParents[i] = np
		}

		rewritten := *c
		rewritten.TreeHash = newTree
		rewritten.Parents = newParents
		nh, err := w.store.WriteCommit(&rewritten)
		if err != nil {
			return "", fmt.Errorf("weave %s: write commit: %w", src.Name, err)
		}
		return nh, nil
	})
}

// writeMergeCommit unions the rewritten tips' trees and writes the final
// synthetic merge commit with the tips as parents in input order.
func (w *Weaver) writeMergeCommit(sources []Source, tips []object.Hash) (object.Hash, error) {
	rootTree, err := w.unionTree(tips)
	if err != nil {
		return "", err
	}

	message := w.message
	if message == "" {
		message = defaultMergeMessage(sources)
	}

	now := time.Now().Unix()
	c := &object.CommitObj{
		TreeHash:           rootTree,
		Parents:            tips,
		Author:             w.author,
		Timestamp:          now,
		Committer:          w.author,
		CommitterTimestamp: now,
		Message:            message,
	}
	if w.signer != nil {
		sig, err := w.signer(object.CommitSigningPayload(c))
		if err != nil {
			return "", fmt.Errorf("sign merge commit: %w", err)
		}
		c.Signature = sig
	}

	h, err := w.store.WriteCommit(c)
	if err != nil {
		return "", fmt.Errorf("write merge commit: %w", err)
	}
	w.log.Info("merge commit written",
		zap.String("commit", string(h)),
		zap.Int("parents", len(tips)),
	)
	return h, nil
}

func defaultMergeMessage(sources []Source) string {
	msg := fmt.Sprintf("Weave %d repositories\n", len(sources))
	for i := range sources {
		msg += fmt.Sprintf("\n- %s (%s)", sources[i].Name, sources[i].Branch)
	}
	return msg
}

// unionTree overlays the rewritten tips' root trees. Each tip nests its
// content under a distinct validated prefix, so the overlay is disjoint:
// only shared intermediate directories merge, never leaves.
func (w *Weaver) unionTree(tips []object.Hash) (object.Hash, error) {
	merged := &object.TreeObj{}
	for _, tip := range tips {
		c, err := w.store.ReadCommit(tip)
		if err != nil {
			return "", fmt.Errorf("union overlay: read tip %s: %w", tip, err)
		}
		t, err := w.store.ReadTree(c.TreeHash)
		if err != nil {
			return "", fmt.Errorf("union overlay: read tree %s: %w", c.TreeHash, err)
		}
		merged, err = w.overlayTrees(merged, t)
		if err != nil {
			return "", err
		}
	}
	h, err := w.store.WriteTree(merged)
	if err != nil {
		return "", fmt.Errorf("union overlay: write root tree: %w", err)
	}
	return h, nil
}

// overlayTrees merges b into a. Entries sharing a name must both be
// directories and are merged recursively; any other overlap means prefix
// validation was bypassed and is an error.
func (w *Weaver) overlayTrees(a, b *object.TreeObj) (*object.TreeObj, error) {
	byName := make(map[string]object.TreeEntry, len(a.Entries)+len(b.Entries))
	for _, e := range a.Entries {
		byName[e.Name] = e
	}

	for _, e := range b.Entries {
		existing, ok := byName[e.Name]
		if !ok {
			byName[e.Name] = e
			continue
		}
		if !existing.IsDir || !e.IsDir {
			return nil, fmt.Errorf("union overlay: conflicting entry %q", e.Name)
		}
		subA, err := w.store.ReadTree(existing.SubtreeHash)
		if err != nil {
			return nil, fmt.Errorf("union overlay: read subtree %s: %w", existing.SubtreeHash, err)
		}
		subB, err := w.store.ReadTree(e.SubtreeHash)
		if err != nil {
			return nil, fmt.Errorf("union overlay: read subtree %s: %w", e.SubtreeHash, err)
		}
		mergedSub, err := w.overlayTrees(subA, subB)
		if err != nil {
			return nil, err
		}
		subHash, err := w.store.WriteTree(mergedSub)
		if err != nil {
			return nil, fmt.Errorf("union overlay: write subtree: %w", err)
		}
		existing.SubtreeHash = subHash
		byName[e.Name] = existing
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := &object.TreeObj{Entries: make([]object.TreeEntry, 0, len(names))}
	for _, name := range names {
		out.Entries = append(out.Entries, byName[name])
	}
	return out, nil
}
