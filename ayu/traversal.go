package ayu

import (
	"sort"
	"sync"

	"github.com/ayu-lang/ayu-go/tree"
)

// This file is the CPS traversal engine of spec.md §4.5: unlike the
// teacher's mast/walk.go, which drives a single Pre/Post visitor over an
// already-built tree of nodes, this engine drives from-tree *construction*
// of that tree of values while it walks, and defers two classes of
// side-effecting callback — swizzle and init — to run only after the
// entire document finishes constructing, exactly mirroring mast/walk.go's
// separation of "visit this node" from "do this other thing once descent
// completes" (there realized as Post-order callbacks; here as an explicit
// FIFO queue because swizzle/init must run in document order across
// completely different subtrees, not just on the way back up one branch).
type initOp struct {
	priority int
	seq      int
	fn       func() error
}

type traversalCtx struct {
	swizzles []func() error
	inits    []initOp
}

func (c *traversalCtx) enqueueSwizzle(fn func() error) { c.swizzles = append(c.swizzles, fn) }

// enqueueInit records fn to run after every swizzle has completed.
// spec.md §4.8: init ops run in descending priority order; within the
// same priority, FIFO (registration order, which the bottom-up from-tree
// recursion naturally makes children-before-parents).
func (c *traversalCtx) enqueueInit(priority int, fn func() error) {
	c.inits = append(c.inits, initOp{priority: priority, seq: len(c.inits), fn: fn})
}

// drain runs every queued swizzle, then every queued init, re-draining
// as long as either queue keeps growing: a swizzle may itself trigger more
// deserialization, which can enqueue further swizzle or init ops
// (spec.md §4.8).
func (c *traversalCtx) drain() error {
	for len(c.swizzles) > 0 || len(c.inits) > 0 {
		for len(c.swizzles) > 0 {
			pending := c.swizzles
			c.swizzles = nil
			for _, fn := range pending {
				if err := fn(); err != nil {
					return err
				}
			}
		}
		if len(c.inits) == 0 {
			break
		}
		sort.SliceStable(c.inits, func(i, j int) bool {
			if c.inits[i].priority != c.inits[j].priority {
				return c.inits[i].priority > c.inits[j].priority
			}
			return c.inits[i].seq < c.inits[j].seq
		})
		pending := c.inits
		c.inits = nil
		for _, op := range pending {
			if err := op.fn(); err != nil {
				return err
			}
		}
	}
	return nil
}

// TopReference returns the root AnyRef for a traversal rooted at p, per
// spec.md §4.5: a bare reference over the root AnyPtr with a nil accessor
// rather than an explicit Identity accessor — the same bare-accessor
// degenerate case AnyRef.Child already special-cases, spelled out here for
// callers (resource.go, scan.go) that need an explicit root reference
// rather than building one by hand.
func TopReference(p AnyPtr) AnyRef {
	return Ref(p)
}

// ctxStack is the ambient traversal-context stack FromTreeOpts's
// DelaySwizzle option reads, the same PushBase-style idiom route.go uses
// for its current-base-route stack: every top-level FromTree call pushes
// its own context while it runs, so a DelaySwizzle call nested inside one
// of its swizzle callbacks (e.g. a cross-resource reference from-tree'd
// eagerly) can find and reuse it instead of draining prematurely.
var (
	ctxStackMu sync.Mutex
	ctxStack   []*traversalCtx
)

func pushCtx(ctx *traversalCtx) func() {
	ctxStackMu.Lock()
	ctxStack = append(ctxStack, ctx)
	ctxStackMu.Unlock()
	return func() {
		ctxStackMu.Lock()
		defer ctxStackMu.Unlock()
		if n := len(ctxStack); n > 0 {
			ctxStack = ctxStack[:n-1]
		}
	}
}

func currentCtx() *traversalCtx {
	ctxStackMu.Lock()
	defer ctxStackMu.Unlock()
	if len(ctxStack) == 0 {
		return nil
	}
	return ctxStack[len(ctxStack)-1]
}

// FromTreeOptions controls optional from-tree traversal behavior (spec.md
// §4.8, §5).
type FromTreeOptions struct {
	// DelaySwizzle makes this call enqueue its swizzle/init callbacks onto
	// the nearest enclosing FromTree call's queue instead of draining its
	// own: spec.md §4.8's "a child from-tree call can defer to the parent
	// context" rule, needed when a swizzle callback itself triggers a
	// nested from-tree (e.g. resolving a cross-resource reference) whose
	// own swizzle must not run until the whole outer document, not just
	// this nested value, has finished constructing — otherwise a cycle
	// between two such references can observe one side only partially
	// swizzled. A no-op when there is no enclosing call to defer to.
	DelaySwizzle bool
}

// FromTree populates r's referenced value from t, running the full
// construct/claim/swizzle/init pipeline described in spec.md §4.7–§4.8.
// It is the single entry point external packages (resource, scan) should
// call; fromTreeValue (from_tree.go) is the recursive worker this wraps.
func FromTree(r AnyRef, t tree.Tree) error {
	return FromTreeOpts(r, t, FromTreeOptions{})
}

// FromTreeOpts is FromTree with explicit traversal options.
func FromTreeOpts(r AnyRef, t tree.Tree, opts FromTreeOptions) error {
	if opts.DelaySwizzle {
		if parent := currentCtx(); parent != nil {
			return fromTreeValue(parent, r, t)
		}
	}
	ctx := &traversalCtx{}
	pop := pushCtx(ctx)
	defer pop()
	if err := fromTreeValue(ctx, r, t); err != nil {
		return err
	}
	return ctx.drain()
}

// FromTreeSession runs fn with a shared traversal context active: any
// FromTreeOpts call inside fn that sets DelaySwizzle reuses this context
// instead of creating and draining its own, so several related FromTree
// calls (e.g. one per item in a Document) resolve their swizzle/init
// callbacks together as a single batch once fn returns, rather than each
// draining in isolation. This is what makes a from-tree reference able to
// resolve a cyclic cross-item name (spec.md §4.8) that would otherwise only
// half-exist at the point any single item finished its own drain.
func FromTreeSession(fn func() error) error {
	ctx := &traversalCtx{}
	pop := pushCtx(ctx)
	defer pop()
	if err := fn(); err != nil {
		return err
	}
	return ctx.drain()
}
