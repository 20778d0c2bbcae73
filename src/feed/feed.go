// Package feed provides the transport boundary to the remote artifact feed.
// The publisher only ever speaks to a Transport; the HTTP implementation
// targets a flat blob container, and the local implementation backs dry
// runs and tests.
package feed

import (
	"context"
	"errors"
)

// ErrExists is returned by Upload when the destination already holds an
// object and overwrite was not requested. The publisher turns it into the
// idempotency decision; the transport itself never compares content.
var ErrExists = errors.New("feed: destination already exists")

// Transport is the interface every feed backend implements.
type Transport interface {
	// Upload stores the file at localPath under remoteAddress. When
	// overwrite is false and the destination exists, it returns ErrExists
	// without mutating the remote object.
	Upload(ctx context.Context, localPath, remoteAddress string, overwrite bool) error

	// Exists reports whether remoteAddress currently holds an object.
	Exists(ctx context.Context, remoteAddress string) (bool, error)

	// Fetch returns the content stored at remoteAddress. Used only for
	// identical-content comparison.
	Fetch(ctx context.Context, remoteAddress string) ([]byte, error)
}
