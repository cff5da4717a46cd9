package client

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mark-henry/mhnodalnetwork/pkg/debounce"
)

const (
	DefaultSaveDelay   = 1500 * time.Millisecond
	DefaultRetryDelay  = 30 * time.Second
	defaultSaveTimeout = 10 * time.Second
)

// EditorOptions tunes autosave. Zero values use the defaults.
type EditorOptions struct {
	SaveDelay  time.Duration
	RetryDelay time.Duration
	Logger     *zap.Logger
	// OnSaveError is called from the autosave goroutine after a failed save.
	OnSaveError func(error)
}

// Editor keeps a local copy of one graph. Edits apply locally right away and
// are saved in the background once editing pauses. A failed save keeps the
// edit and tries again later.
type Editor struct {
	client *Client
	slug   string
	opts   EditorOptions
	logger *zap.Logger

	mu         sync.Mutex
	name       string
	nodes      map[string]*Node
	dirty      map[string]struct{}
	graphDirty bool

	saveMu   sync.Mutex
	autosave *debounce.Debouncer
}

// Open loads the graph and returns an editor for it.
func Open(ctx context.Context, c *Client, graphSlug string, opts EditorOptions) (*Editor, error) {
	if opts.SaveDelay <= 0 {
		opts.SaveDelay = DefaultSaveDelay
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	g, err := c.GetGraph(ctx, graphSlug)
	if err != nil {
		return nil, err
	}
	e := &Editor{
		client:   c,
		slug:     graphSlug,
		opts:     opts,
		logger:   opts.Logger.With(zap.String("graph", graphSlug)),
		name:     g.Graph.Name,
		nodes:    make(map[string]*Node, len(g.Nodes)),
		dirty:    make(map[string]struct{}),
		autosave: debounce.New(opts.SaveDelay),
	}
	for i := range g.Nodes {
		n := g.Nodes[i]
		n.Adjacencies = append([]string(nil), n.Adjacencies...)
		e.nodes[n.Slug] = &n
	}
	return e, nil
}

func (e *Editor) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.name
}

// Node returns a copy of the node with slug.
func (e *Editor) Node(slug string) (Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.nodes[slug]
	if !ok {
		return Node{}, false
	}
	return copyNode(n), true
}

// Nodes returns copies of every node ordered by slug.
func (e *Editor) Nodes() []Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Node, 0, len(e.nodes))
	for _, n := range e.nodes {
		out = append(out, copyNode(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// Dirty reports whether unsaved edits exist.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.dirty) > 0 || e.graphDirty
}

func (e *Editor) RenameGraph(name string) {
	e.mu.Lock()
	e.name = name
	e.graphDirty = true
	e.mu.Unlock()
	e.schedule()
}

func (e *Editor) Rename(slug, name string) error {
	return e.edit(func() error {
		n, err := e.lookup(slug)
		if err != nil {
			return err
		}
		n.Name = name
		e.dirty[slug] = struct{}{}
		return nil
	})
}

func (e *Editor) Describe(slug, desc string) error {
	return e.edit(func() error {
		n, err := e.lookup(slug)
		if err != nil {
			return err
		}
		n.Desc = desc
		e.dirty[slug] = struct{}{}
		return nil
	})
}

// Link connects a and b. Both endpoints change, so both are saved.
func (e *Editor) Link(a, b string) error {
	if a == b {
		return fmt.Errorf("cannot link node %s to itself", a)
	}
	return e.edit(func() error {
		na, err := e.lookup(a)
		if err != nil {
			return err
		}
		nb, err := e.lookup(b)
		if err != nil {
			return err
		}
		na.Adjacencies = addSlug(na.Adjacencies, b)
		nb.Adjacencies = addSlug(nb.Adjacencies, a)
		e.dirty[a] = struct{}{}
		e.dirty[b] = struct{}{}
		return nil
	})
}

// Unlink removes the link between a and b on both ends.
func (e *Editor) Unlink(a, b string) error {
	return e.edit(func() error {
		na, err := e.lookup(a)
		if err != nil {
			return err
		}
		nb, err := e.lookup(b)
		if err != nil {
			return err
		}
		na.Adjacencies = removeSlug(na.Adjacencies, b)
		nb.Adjacencies = removeSlug(nb.Adjacencies, a)
		e.dirty[a] = struct{}{}
		e.dirty[b] = struct{}{}
		return nil
	})
}

// CreateNode creates the node on the server immediately, then saves the
// graph's node list so membership matches the local copy.
func (e *Editor) CreateNode(ctx context.Context, name string) (Node, error) {
	created, err := e.client.CreateNode(ctx, e.slug, name)
	if err != nil {
		return Node{}, err
	}

	e.mu.Lock()
	n := copyNode(created)
	e.nodes[n.Slug] = &n
	members := e.memberSlugs()
	graphName := e.name
	e.mu.Unlock()

	if err := e.client.UpdateGraph(ctx, e.slug, graphName, members); err != nil {
		return copyNode(&n), fmt.Errorf("node created but graph not saved: %w", err)
	}
	return copyNode(&n), nil
}

// DeleteNode deletes the node on the server immediately. The server drops its
// links, so neighbours are only updated locally.
func (e *Editor) DeleteNode(ctx context.Context, slug string) error {
	if err := e.client.DeleteNode(ctx, slug); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if n, ok := e.nodes[slug]; ok {
		for _, adj := range n.Adjacencies {
			if other, ok := e.nodes[adj]; ok {
				other.Adjacencies = removeSlug(other.Adjacencies, slug)
			}
		}
	}
	delete(e.nodes, slug)
	delete(e.dirty, slug)
	return nil
}

// Flush saves pending edits now instead of waiting for the autosave.
func (e *Editor) Flush(ctx context.Context) error {
	e.autosave.Cancel()
	if err := e.save(ctx); err != nil {
		e.autosave.ScheduleAfter(e.opts.RetryDelay, e.runAutosave)
		return err
	}
	return nil
}

// Close stops autosaving. Unsaved edits are dropped; call Flush first to keep them.
func (e *Editor) Close() {
	e.autosave.Stop()
}

func (e *Editor) edit(fn func() error) error {
	e.mu.Lock()
	err := fn()
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.schedule()
	return nil
}

func (e *Editor) schedule() {
	e.autosave.Schedule(e.runAutosave)
}

func (e *Editor) runAutosave() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultSaveTimeout)
	defer cancel()

	if err := e.save(ctx); err != nil {
		e.logger.Warn("Autosave failed, will retry",
			zap.Error(err),
			zap.Duration("retry_in", e.opts.RetryDelay),
		)
		if e.opts.OnSaveError != nil {
			e.opts.OnSaveError(err)
		}
		e.autosave.ScheduleAfter(e.opts.RetryDelay, e.runAutosave)
	}
}

// save writes every dirty node and the graph name if it changed. Whatever
// fails stays dirty.
func (e *Editor) save(ctx context.Context) error {
	e.saveMu.Lock()
	defer e.saveMu.Unlock()

	e.mu.Lock()
	pending := make([]Node, 0, len(e.dirty))
	for slug := range e.dirty {
		if n, ok := e.nodes[slug]; ok {
			pending = append(pending, copyNode(n))
		}
	}
	e.dirty = make(map[string]struct{})
	graphDirty, graphName := e.graphDirty, e.name
	e.graphDirty = false
	e.mu.Unlock()

	var firstErr error
	for _, n := range pending {
		if err := e.client.UpdateNode(ctx, n); err != nil {
			e.markDirty(n.Slug)
			if firstErr == nil {
				firstErr = fmt.Errorf("saving node %s: %w", n.Slug, err)
			}
			continue
		}
		e.logger.Debug("Node saved", zap.String("node", n.Slug))
	}
	if graphDirty {
		if err := e.client.UpdateGraph(ctx, e.slug, graphName, nil); err != nil {
			e.mu.Lock()
			e.graphDirty = true
			e.mu.Unlock()
			if firstErr == nil {
				firstErr = fmt.Errorf("saving graph: %w", err)
			}
		}
	}
	return firstErr
}

func (e *Editor) markDirty(slug string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.nodes[slug]; ok {
		e.dirty[slug] = struct{}{}
	}
}

// lookup returns the live node. Caller holds mu.
func (e *Editor) lookup(slug string) (*Node, error) {
	n, ok := e.nodes[slug]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", slug, ErrNotFound)
	}
	return n, nil
}

// memberSlugs lists every local node. Caller holds mu.
func (e *Editor) memberSlugs() []string {
	out := make([]string, 0, len(e.nodes))
	for slug := range e.nodes {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

func copyNode(n *Node) Node {
	c := *n
	c.Adjacencies = append([]string{}, n.Adjacencies...)
	return c
}

func addSlug(list []string, slug string) []string {
	for _, s := range list {
		if s == slug {
			return list
		}
	}
	return append(list, slug)
}

func removeSlug(list []string, slug string) []string {
	out := list[:0]
	for _, s := range list {
		if s != slug {
			out = append(out, s)
		}
	}
	return out
}
