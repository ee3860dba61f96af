// Package rtstore defines the contract of the shared real-time tree the
// room protocol runs against: subscribe-on-subtree with full snapshots,
// per-field and atomic multi-field writes, store-generated child keys,
// and remove-on-disconnect registration.
package rtstore

import "context"

// Subscription is a live view over one subtree. C delivers the full
// current subtree after every write that touches it; delivery is
// coalescing, so a slow reader observes only the latest state and never
// blocks a writer.
type Subscription struct {
	Path string
	C    <-chan any
}

//go:generate mockery --name=Store --output=./mocks --outpkg=mocks --filename=store.go
type Store interface {
	// Subscribe opens a subtree subscription. The current snapshot is
	// delivered immediately.
	Subscribe(path string) *Subscription
	Unsubscribe(sub *Subscription)

	// WriteField sets one node. A nil value deletes the node and prunes
	// branches left empty by the deletion.
	WriteField(ctx context.Context, path string, value any) error

	// WriteMultiple applies every update relative to path as one atomic
	// write: subscribers never observe a partially applied state.
	WriteMultiple(ctx context.Context, path string, updates map[string]any) error

	// GenerateChildKey allocates a collision-free key for a new child of
	// the given parent. Keys are store-chosen, never caller-chosen.
	GenerateChildKey(parentPath string) string

	// RegisterOnDisconnectRemoval arranges for path to be deleted when
	// Disconnected(owner) fires, however ungracefully the owner went.
	RegisterOnDisconnectRemoval(owner, path string)
	CancelDisconnectRemovals(owner string)
	Disconnected(owner string)
}
