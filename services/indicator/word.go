package indicator

import "sync/atomic"

// Word is a single-word cell shared between an external writer and a
// controller unit. Loads and stores are atomic and never torn; nothing orders
// a store to one Word against a store to another.
type Word[T ~uint8] struct {
	v atomic.Uint32
}

func (w *Word[T]) Load() T { return T(w.v.Load()) }

func (w *Word[T]) Store(x T) { w.v.Store(uint32(x)) }
