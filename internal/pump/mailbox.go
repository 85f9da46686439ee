package pump

import (
	"context"
	"sync"
)

// Mailbox is a single-slot, non-blocking handoff between pumps and application code.
// A TrySet on a full slot replaces the undrained item.
type Mailbox[T any] struct {
	mu   sync.Mutex
	item T
	full bool
}

func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{}
}

// TryGet takes the item out of the slot if one is present.
func (b *Mailbox[T]) TryGet() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var zero T
	if !b.full {
		return zero, false
	}
	item := b.item
	b.item = zero
	b.full = false
	return item, true
}

// TrySet stores item, overwriting anything not yet taken.
func (b *Mailbox[T]) TrySet(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.item = item
	b.full = true
}

func (b *Mailbox[T]) TryGetItem(context.Context) (T, bool) { return b.TryGet() }

func (b *Mailbox[T]) SetItem(_ context.Context, item T) { b.TrySet(item) }

// Full reports whether an item is waiting to be taken.
func (b *Mailbox[T]) Full() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.full
}
