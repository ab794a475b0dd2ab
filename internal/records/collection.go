// Package records is the offline-first record store. Each Collection keeps an
// in-memory list per namespace, mirrors it to the local cache, and treats the
// remote backend as the source of truth: reads fall back to the last known
// good list, writes go to the remote first and are merged locally only after
// the remote accepts them.
package records

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"plantkeeper/internal/logging"
	"plantkeeper/internal/remote"
	"plantkeeper/internal/scope"
	"plantkeeper/internal/store"
	"plantkeeper/internal/types"

	"golang.org/x/sync/errgroup"
)

// ErrDeleteRejected is returned when the backend answers a delete with success=false.
var ErrDeleteRejected = errors.New("delete rejected by backend")

// ErrDeleteUnsupported is returned by Remove on collections without a deleter.
var ErrDeleteUnsupported = errors.New("collection does not support delete")

// Resolver yields the identity a request runs under.
type Resolver interface {
	Resolve(ctx context.Context) scope.Identity
}

// mutation is a local change to a list, replayable onto a fresh fetch result.
type mutation[T types.Record] func([]T) []T

func mergeMutation[T types.Record](rec T) mutation[T] {
	return func(items []T) []T { return MergeByID(items, rec) }
}

func removeMutation[T types.Record](id string) mutation[T] {
	return func(items []T) []T { return RemoveByID(items, id) }
}

type journalEntry[T types.Record] struct {
	seq uint64
	fn  mutation[T]
}

// Collection is one synchronized record list, e.g. the garden.
type Collection[T types.Record] struct {
	name     string
	gateway  remote.Gateway[T]
	deleter  remote.Deleter
	cache    *store.Scoped
	resolver Resolver

	mu       sync.Mutex
	ns       scope.Namespace
	gen      uint64 // bumped on every reset; fetches from older generations are stale
	loaded   bool
	items    []T
	inflight int
	seq      uint64
	journal  []journalEntry[T]

	// persistMu orders cache write-backs so the newest snapshot lands last.
	persistMu sync.Mutex
}

// Option configures a Collection.
type Option[T types.Record] func(*Collection[T])

// WithDeleter enables Remove.
func WithDeleter[T types.Record](d remote.Deleter) Option[T] {
	return func(c *Collection[T]) { c.deleter = d }
}

// NewCollection creates a collection named name (also its cache key suffix).
func NewCollection[T types.Record](name string, gw remote.Gateway[T], cache *store.Scoped, resolver Resolver, opts ...Option[T]) *Collection[T] {
	c := &Collection[T]{
		name:     name,
		gateway:  gw,
		cache:    cache,
		resolver: resolver,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// List returns the collection for the current identity. It never fails: when
// the remote is unreachable the cached or last fetched list is returned.
func (c *Collection[T]) List(ctx context.Context) []T {
	id := c.resolver.Resolve(ctx)
	ns := id.Namespace()

	c.mu.Lock()
	if c.ns != ns {
		c.resetLocked(ns)
	}
	gen := c.gen
	startSeq := c.seq
	needCache := !c.loaded
	c.inflight++
	c.mu.Unlock()

	var (
		cached    []T
		hasCached bool
		fetched   []T
		fetchErr  error
	)
	var g errgroup.Group
	if needCache {
		g.Go(func() error {
			hasCached = c.cache.GetJSON(ctx, ns.Key(c.name), &cached)
			return nil
		})
	}
	g.Go(func() error {
		fetched, fetchErr = c.gateway.Fetch(ctx, id)
		return nil
	})
	_ = g.Wait()

	c.mu.Lock()
	if c.gen != gen {
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		logging.SyncDebug("%s: discarding result for stale namespace %s", c.name, ns)
		return snapshot
	}
	c.inflight--

	if fetchErr != nil {
		if !c.loaded {
			var items []T
			if hasCached {
				items = cached
			}
			c.items = c.replayLocked(items, startSeq)
			c.loaded = true
		}
		c.trimJournalLocked()
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		logging.SyncWarn("%s: remote fetch failed, serving %d cached records: %v", c.name, len(snapshot), fetchErr)
		return snapshot
	}

	c.items = c.replayLocked(append([]T(nil), fetched...), startSeq)
	c.loaded = true
	c.trimJournalLocked()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.persist(ctx, ns)
	logging.SyncDebug("%s: refreshed %d records for %s", c.name, len(snapshot), ns)
	return snapshot
}

// Get returns the record with id from List.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, bool) {
	for _, rec := range c.List(ctx) {
		if rec.RecordID() == id {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

// Save writes rec to the remote and, once accepted, merges the canonical
// record locally. A remote failure is returned and nothing is merged.
func (c *Collection[T]) Save(ctx context.Context, rec T) (T, error) {
	id := c.resolver.Resolve(ctx)
	ns := id.Namespace()

	saved, err := c.gateway.Save(ctx, id, rec)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to save %s record %s: %w", c.name, rec.RecordID(), err)
	}

	c.apply(ctx, ns, mergeMutation(saved))
	logging.SyncInfo("%s: saved record %s", c.name, saved.RecordID())
	return saved, nil
}

// Remove deletes the record with id on the remote, then locally.
func (c *Collection[T]) Remove(ctx context.Context, recordID string) error {
	if c.deleter == nil {
		return fmt.Errorf("%s: %w", c.name, ErrDeleteUnsupported)
	}
	id := c.resolver.Resolve(ctx)
	ns := id.Namespace()

	ok, err := c.deleter.Delete(ctx, id, recordID)
	if err != nil {
		return fmt.Errorf("failed to delete %s record %s: %w", c.name, recordID, err)
	}
	if !ok {
		return fmt.Errorf("failed to delete %s record %s: %w", c.name, recordID, ErrDeleteRejected)
	}

	c.apply(ctx, ns, removeMutation[T](recordID))
	logging.SyncInfo("%s: removed record %s", c.name, recordID)
	return nil
}

// Invalidate drops in-memory state. The next List reloads from cache and remote.
func (c *Collection[T]) Invalidate() {
	c.mu.Lock()
	c.resetLocked("")
	c.mu.Unlock()
}

// apply runs a remote-confirmed mutation against namespace ns. When ns is
// no longer active the change goes to that namespace's cache only.
func (c *Collection[T]) apply(ctx context.Context, ns scope.Namespace, fn mutation[T]) {
	c.mu.Lock()
	active := c.ns == ns
	loaded := active && c.loaded
	if active {
		if loaded {
			c.items = fn(c.items)
		}
		if c.inflight > 0 {
			c.seq++
			c.journal = append(c.journal, journalEntry[T]{seq: c.seq, fn: fn})
		}
	}
	c.mu.Unlock()

	if loaded {
		c.persist(ctx, ns)
		return
	}
	c.applyToCache(ctx, ns, fn)
}

// persist writes the in-memory list for ns to the cache. A failed write only
// costs durability.
func (c *Collection[T]) persist(ctx context.Context, ns scope.Namespace) {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	if c.ns != ns || !c.loaded {
		c.mu.Unlock()
		return
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	if !c.cache.SetJSON(ctx, ns.Key(c.name), snapshot) {
		logging.SyncWarn("%s: cache write-back failed for %s", c.name, ns)
	}
}

func (c *Collection[T]) applyToCache(ctx context.Context, ns scope.Namespace, fn mutation[T]) {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	key := ns.Key(c.name)
	var items []T
	c.cache.GetJSON(ctx, key, &items)
	if !c.cache.SetJSON(ctx, key, fn(items)) {
		logging.SyncWarn("%s: cache write failed for %s", c.name, ns)
	}
}

func (c *Collection[T]) resetLocked(ns scope.Namespace) {
	c.ns = ns
	c.gen++
	c.loaded = false
	c.items = nil
	c.inflight = 0
	c.journal = nil
}

// replayLocked re-applies writes that landed after startSeq, so a write racing
// a fetch is neither lost nor duplicated.
func (c *Collection[T]) replayLocked(items []T, startSeq uint64) []T {
	for _, e := range c.journal {
		if e.seq > startSeq {
			items = e.fn(items)
		}
	}
	return items
}

func (c *Collection[T]) trimJournalLocked() {
	if c.inflight == 0 {
		c.journal = nil
	}
}

func (c *Collection[T]) snapshotLocked() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}
