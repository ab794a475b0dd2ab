package records

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"plantkeeper/internal/remote"
	"plantkeeper/internal/scope"
	"plantkeeper/internal/store"
	"plantkeeper/internal/types"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type gate struct {
	started chan struct{}
	release chan struct{}
}

func (g *gate) wait() {
	if g == nil {
		return
	}
	close(g.started)
	<-g.release
}

// fakeGateway is an in-memory backend keyed by namespace.
type fakeGateway[T types.Record] struct {
	mu        sync.Mutex
	data      map[scope.Namespace][]T
	fetchErr  error
	saveErr   error
	deleteOK  bool
	fetchGate *gate
	saveGate  *gate
	fetches   int
}

func newFakeGateway[T types.Record]() *fakeGateway[T] {
	return &fakeGateway[T]{data: make(map[scope.Namespace][]T), deleteOK: true}
}

func (f *fakeGateway[T]) Fetch(_ context.Context, id scope.Identity) ([]T, error) {
	f.mu.Lock()
	f.fetches++
	g := f.fetchGate
	f.fetchGate = nil
	err := f.fetchErr
	out := append([]T{}, f.data[id.Namespace()]...)
	f.mu.Unlock()

	g.wait()
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeGateway[T]) Save(_ context.Context, id scope.Identity, rec T) (T, error) {
	f.mu.Lock()
	g := f.saveGate
	f.saveGate = nil
	f.mu.Unlock()
	g.wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		var zero T
		return zero, f.saveErr
	}
	f.data[id.Namespace()] = MergeByID(f.data[id.Namespace()], rec)
	return rec, nil
}

func (f *fakeGateway[T]) Delete(_ context.Context, id scope.Identity, recordID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.deleteOK {
		return false, nil
	}
	f.data[id.Namespace()] = RemoveByID(f.data[id.Namespace()], recordID)
	return true, nil
}

func (f *fakeGateway[T]) blockNextFetch() *gate {
	g := &gate{started: make(chan struct{}), release: make(chan struct{})}
	f.mu.Lock()
	f.fetchGate = g
	f.mu.Unlock()
	return g
}

func (f *fakeGateway[T]) blockNextSave() *gate {
	g := &gate{started: make(chan struct{}), release: make(chan struct{})}
	f.mu.Lock()
	f.saveGate = g
	f.mu.Unlock()
	return g
}

func (f *fakeGateway[T]) set(ns scope.Namespace, items ...T) {
	f.mu.Lock()
	f.data[ns] = items
	f.mu.Unlock()
}

func (f *fakeGateway[T]) failFetch(err error) {
	f.mu.Lock()
	f.fetchErr = err
	f.mu.Unlock()
}

type harness struct {
	resolver *scope.Resolver
	cache    *store.Memory
	garden   *fakeGateway[types.UserPlant]
	ids      *fakeGateway[types.PlantIdentification]
	health   *fakeGateway[types.PlantHealth]
	store    *Store
}

const userNS = scope.Namespace("user:u1")

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		resolver: scope.NewResolver(store.NewMemory()),
		cache:    store.NewMemory(),
		garden:   newFakeGateway[types.UserPlant](),
		ids:      newFakeGateway[types.PlantIdentification](),
		health:   newFakeGateway[types.PlantHealth](),
	}
	h.store = NewStore(h.resolver, h.cache, Gateways{
		Identifications: h.ids,
		HealthRecords:   h.health,
		Garden:          h.garden,
		GardenDeleter:   h.garden,
	})
	t.Cleanup(h.store.Close)
	return h
}

func (h *harness) signIn() {
	h.resolver.SetSession(&scope.Session{AccessToken: "tok", UserID: "u1"})
}

func (h *harness) cached(t *testing.T, ns scope.Namespace, collection string) ([]types.UserPlant, bool) {
	t.Helper()
	var out []types.UserPlant
	ok := store.NewScoped(h.cache).GetJSON(context.Background(), ns.Key(collection), &out)
	return out, ok
}

func plant(id string) types.UserPlant {
	return types.UserPlant{ID: id, IdentificationID: "ident-" + id, DateAdded: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
}

func ids(items []types.UserPlant) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.ID
	}
	return out
}

func TestListServesCacheWhenRemoteFails(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.signIn()

	want := []types.UserPlant{plant("a"), plant("b"), plant("c")}
	require.True(t, store.NewScoped(h.cache).SetJSON(ctx, userNS.Key(remote.CollectionGarden), want))
	h.garden.failFetch(errors.New("network unreachable"))

	got := h.store.Garden.List(ctx)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestListWithNothingCachedAndRemoteDownIsEmpty(t *testing.T) {
	h := newHarness(t)
	h.garden.failFetch(errors.New("offline"))

	got := h.store.Garden.List(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListReplacesFromRemoteAndWritesBack(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.signIn()

	store.NewScoped(h.cache).SetJSON(ctx, userNS.Key(remote.CollectionGarden), []types.UserPlant{plant("old")})
	h.garden.set(userNS, plant("x"), plant("y"))

	assert.Equal(t, []string{"x", "y"}, ids(h.store.Garden.List(ctx)))

	cached, ok := h.cached(t, userNS, remote.CollectionGarden)
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, ids(cached))

	// Later outage falls back to the last good list, not the original cache.
	h.garden.failFetch(errors.New("503"))
	assert.Equal(t, []string{"x", "y"}, ids(h.store.Garden.List(ctx)))
}

func TestSaveFailureMergesNothing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.signIn()
	h.garden.set(userNS, plant("a"))
	h.store.Garden.List(ctx)

	h.garden.saveErr = errors.New("500 internal")
	_, err := h.store.Garden.Save(ctx, plant("b"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500 internal")

	h.garden.failFetch(errors.New("offline"))
	assert.Equal(t, []string{"a"}, ids(h.store.Garden.List(ctx)))
	cached, _ := h.cached(t, userNS, remote.CollectionGarden)
	assert.Equal(t, []string{"a"}, ids(cached))
}

func TestSaveMergesNewestFirst(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.signIn()
	h.garden.set(userNS, plant("a"), plant("b"))
	h.store.Garden.List(ctx)

	updated := plant("b")
	updated.Nickname = "Figgy"
	saved, err := h.store.Garden.Save(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, "Figgy", saved.Nickname)

	h.garden.failFetch(errors.New("offline"))
	got := h.store.Garden.List(ctx)
	assert.Equal(t, []string{"b", "a"}, ids(got))
	assert.Equal(t, "Figgy", got[0].Nickname)

	cached, _ := h.cached(t, userNS, remote.CollectionGarden)
	assert.Equal(t, []string{"b", "a"}, ids(cached))
}

func TestSaveBeforeFirstListLandsInCache(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.signIn()
	store.NewScoped(h.cache).SetJSON(ctx, userNS.Key(remote.CollectionGarden), []types.UserPlant{plant("a")})

	_, err := h.store.Garden.Save(ctx, plant("b"))
	require.NoError(t, err)

	cached, _ := h.cached(t, userNS, remote.CollectionGarden)
	assert.Equal(t, []string{"b", "a"}, ids(cached), "unloaded collections merge into the cache, not over it")
}

func TestWriteRacingRefreshYieldsOneEntry(t *testing.T) {
	for _, preload := range []bool{false, true} {
		name := "cold"
		if preload {
			name = "warm"
		}
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			h := newHarness(t)
			h.signIn()
			if preload {
				h.store.Garden.List(ctx)
			}

			g := h.garden.blockNextFetch()
			done := make(chan []types.UserPlant)
			go func() { done <- h.store.Garden.List(ctx) }()
			<-g.started

			// The fetch snapshot predates this write.
			_, err := h.store.Garden.Save(ctx, plant("p1"))
			require.NoError(t, err)
			close(g.release)

			assert.Equal(t, []string{"p1"}, ids(<-done))
			assert.Equal(t, []string{"p1"}, ids(h.store.Garden.List(ctx)))
		})
	}
}

func TestNamespaceSwitchIsolatesCollections(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	guestNS := h.resolver.Resolve(ctx).Namespace()
	h.garden.set(guestNS, plant("guest-1"))
	h.garden.set(userNS, plant("user-1"), plant("user-2"))

	assert.Equal(t, []string{"guest-1"}, ids(h.store.Garden.List(ctx)))

	h.signIn()
	assert.Equal(t, []string{"user-1", "user-2"}, ids(h.store.Garden.List(ctx)))

	h.resolver.ClearSession()
	h.garden.failFetch(errors.New("offline"))
	assert.Equal(t, []string{"guest-1"}, ids(h.store.Garden.List(ctx)), "guest cache survives the round trip")
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	guestNS := h.resolver.Resolve(ctx).Namespace()
	h.garden.set(guestNS, plant("guest-1"))
	h.garden.set(userNS, plant("user-1"))

	g := h.garden.blockNextFetch()
	done := make(chan []types.UserPlant)
	go func() { done <- h.store.Garden.List(ctx) }()
	<-g.started

	h.signIn()
	close(g.release)

	assert.Empty(t, <-done, "guest result must not surface after sign-in")
	_, ok := h.cached(t, guestNS, remote.CollectionGarden)
	assert.False(t, ok, "stale result is not written back")

	assert.Equal(t, []string{"user-1"}, ids(h.store.Garden.List(ctx)))
	cached, _ := h.cached(t, userNS, remote.CollectionGarden)
	assert.Equal(t, []string{"user-1"}, ids(cached))
}

func TestLateWriteGoesToItsOwnNamespace(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	guestNS := h.resolver.Resolve(ctx).Namespace()
	h.store.Garden.List(ctx)

	g := h.garden.blockNextSave()
	errc := make(chan error)
	go func() {
		_, err := h.store.Garden.Save(ctx, plant("late"))
		errc <- err
	}()
	<-g.started

	h.signIn()
	h.garden.set(userNS, plant("user-1"))
	assert.Equal(t, []string{"user-1"}, ids(h.store.Garden.List(ctx)))

	close(g.release)
	require.NoError(t, <-errc)

	h.garden.failFetch(errors.New("offline"))
	assert.Equal(t, []string{"user-1"}, ids(h.store.Garden.List(ctx)))
	cached, _ := h.cached(t, guestNS, remote.CollectionGarden)
	assert.Equal(t, []string{"late"}, ids(cached))
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.signIn()
	h.garden.set(userNS, plant("a"), plant("b"))
	h.store.Garden.List(ctx)

	h.garden.deleteOK = false
	err := h.store.Garden.Remove(ctx, "a")
	assert.ErrorIs(t, err, ErrDeleteRejected)

	h.garden.deleteOK = true
	require.NoError(t, h.store.Garden.Remove(ctx, "a"))

	h.garden.failFetch(errors.New("offline"))
	assert.Equal(t, []string{"b"}, ids(h.store.Garden.List(ctx)))

	err = h.store.Identifications.Remove(ctx, "x")
	assert.ErrorIs(t, err, ErrDeleteUnsupported)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.signIn()
	h.garden.set(userNS, plant("a"), plant("b"))

	p, ok := h.store.Garden.Get(ctx, "b")
	assert.True(t, ok)
	assert.Equal(t, "ident-b", p.IdentificationID)

	_, ok = h.store.Garden.Get(ctx, "zzz")
	assert.False(t, ok)
}
