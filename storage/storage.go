package storage

import (
	"context"
	"errors"
)

/*
The storage provider interface describes the minimal set of operations needed
to keep encoded payloads somewhere other than the local working directory.
Objects are whole payloads addressed by a flat string id; the codec always
needs the complete buffer, so there is no ranged read.
*/

////////////////////////////////////////////////////////////////////////////////

// ErrObjectNotFound is returned when an object is not found.
var ErrObjectNotFound = errors.New("object not found")

// Provider is the interface for a storage provider.
type Provider interface {
	Put(ctx context.Context, id string, data []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id string) error

	// List returns the ids beginning with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
