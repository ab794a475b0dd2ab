// Package remote talks to the persistence backend. Every call is scoped by an
// identity: a bearer access token or a guest token header, never both.
package remote

import (
	"context"
	"errors"

	"plantkeeper/internal/scope"
)

// ErrRemote marks failures reported by the backend itself (non-2xx status or
// an error envelope), as opposed to transport failures.
var ErrRemote = errors.New("remote error")

// Backend collection paths.
const (
	CollectionIdentifications = "identifications"
	CollectionHealthRecords   = "health-records"
	CollectionGarden          = "garden"
)

// Gateway fetches and saves one entity collection.
type Gateway[T any] interface {
	Fetch(ctx context.Context, id scope.Identity) ([]T, error)
	Save(ctx context.Context, id scope.Identity, record T) (T, error)
}

// Deleter removes a record by id. Only garden plants support deletion.
type Deleter interface {
	Delete(ctx context.Context, id scope.Identity, recordID string) (bool, error)
}
