package records

import (
	"context"

	"plantkeeper/internal/logging"
	"plantkeeper/internal/remote"
	"plantkeeper/internal/scope"
	"plantkeeper/internal/store"
	"plantkeeper/internal/types"

	"golang.org/x/sync/errgroup"
)

// Subscriber is a Resolver that also announces namespace transitions.
type Subscriber interface {
	Resolver
	Subscribe(fn scope.Listener) func()
}

// Gateways bundles the remote side of the three collections.
type Gateways struct {
	Identifications remote.Gateway[types.PlantIdentification]
	HealthRecords   remote.Gateway[types.PlantHealth]
	Garden          remote.Gateway[types.UserPlant]
	GardenDeleter   remote.Deleter
}

// Store holds the three synchronized collections and resets them whenever
// the active namespace changes.
type Store struct {
	Identifications *Collection[types.PlantIdentification]
	HealthRecords   *Collection[types.PlantHealth]
	Garden          *Collection[types.UserPlant]

	unsubscribe func()
}

// RefreshSummary reports record counts after RefreshAll.
type RefreshSummary struct {
	Identifications int
	HealthRecords   int
	Garden          int
}

// NewStore wires the collections to the cache and the remote gateways.
func NewStore(resolver Subscriber, cache store.KV, gw Gateways) *Store {
	scoped := store.NewScoped(cache)
	s := &Store{
		Identifications: NewCollection(remote.CollectionIdentifications, gw.Identifications, scoped, resolver),
		HealthRecords:   NewCollection(remote.CollectionHealthRecords, gw.HealthRecords, scoped, resolver),
		Garden: NewCollection(remote.CollectionGarden, gw.Garden, scoped, resolver,
			WithDeleter[types.UserPlant](gw.GardenDeleter)),
	}
	s.unsubscribe = resolver.Subscribe(func(old, updated scope.Namespace) {
		logging.SyncInfo("namespace %s -> %s, invalidating collections", old, updated)
		s.Invalidate()
	})
	return s
}

// Invalidate drops the in-memory state of every collection.
func (s *Store) Invalidate() {
	s.Identifications.Invalidate()
	s.HealthRecords.Invalidate()
	s.Garden.Invalidate()
}

// RefreshAll refetches every collection in parallel.
func (s *Store) RefreshAll(ctx context.Context) RefreshSummary {
	timer := logging.StartTimer(logging.CategorySync, "refresh all")
	defer timer.Stop()

	var sum RefreshSummary
	var g errgroup.Group
	g.Go(func() error {
		sum.Identifications = len(s.Identifications.List(ctx))
		return nil
	})
	g.Go(func() error {
		sum.HealthRecords = len(s.HealthRecords.List(ctx))
		return nil
	})
	g.Go(func() error {
		sum.Garden = len(s.Garden.List(ctx))
		return nil
	})
	_ = g.Wait()
	return sum
}

// HealthFor returns the health records linked to a garden plant.
func (s *Store) HealthFor(ctx context.Context, plantID string) []types.PlantHealth {
	return Filter(s.HealthRecords.List(ctx), func(h types.PlantHealth) bool {
		return h.PlantID == plantID
	})
}

// Close stops listening for namespace changes.
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}
