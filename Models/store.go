package Models

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no entry exists under the given token.
var ErrNotFound = errors.New("entry not found")

// EntryStore is the document-store surface the billing core needs. The
// Firestore implementation is the production store; the in-memory one backs
// the tests.
type EntryStore interface {
	// Put creates or overwrites the entry keyed by its TokenNo.
	Put(ctx context.Context, entry CottonEntry) error

	// Merge applies a partial field update to the entry keyed by tokenNo.
	// Field names use the stored (firestore) spelling.
	Merge(ctx context.Context, tokenNo string, fields map[string]interface{}) error

	// Get is a point read by token. Returns ErrNotFound when absent.
	Get(ctx context.Context, tokenNo string) (CottonEntry, error)

	// QueryByToken matches entries whose tokenNo field equals the given
	// token, regardless of document ID. Only legacy records created under
	// generated IDs can make this return more than one entry.
	QueryByToken(ctx context.Context, tokenNo string) ([]CottonEntry, error)

	// All returns the full working set ordered by item name.
	All(ctx context.Context) ([]CottonEntry, error)

	// Watch pushes the limit most-recently-updated entries to fn on every
	// matching change until ctx is cancelled. Blocks for the lifetime of
	// the subscription; after cancellation fn is never called again.
	Watch(ctx context.Context, limit int, fn func([]CottonEntry)) error
}
