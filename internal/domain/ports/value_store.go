package ports

import "context"

// ValueStore is the flat, string-keyed persistence store composite values
// are coded onto. Keys are row-scoped names derived by the codec; the store
// itself knows nothing about field structure.
type ValueStore interface {
	// Get returns the stored value for a key. ok=false means the key does
	// not exist, which is distinct from an empty stored value.
	Get(ctx context.Context, subject, key string) (value string, ok bool, err error)

	// Set writes a value, replacing any previous one.
	Set(ctx context.Context, subject, key, value string) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, subject, key string) error
}
