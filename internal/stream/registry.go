package stream

import "sync"

// BufferKey addresses one buffer in the registry.
type BufferKey struct {
	Symbol string
	Kind   Kind
}

// Registry maps (symbol, kind) pairs to their ring buffers. Buffers are
// created lazily on first access and survive session stop/start; only an
// explicit clear empties them. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	buffers map[BufferKey]*RingBuffer
}

func NewRegistry() *Registry {
	return &Registry{buffers: make(map[BufferKey]*RingBuffer)}
}

// GetOrCreate returns the buffer for the key, creating it with the given
// capacity if it does not exist yet. The capacity only applies on first
// creation: an existing buffer is returned as-is even when a different
// capacity is passed later. Concurrent first access for the same key yields
// exactly one buffer.
func (r *Registry) GetOrCreate(symbol string, kind Kind, capacity int) *RingBuffer {
	key := BufferKey{Symbol: symbol, Kind: kind}

	// Fast path: read lock only
	r.mu.RLock()
	buf, ok := r.buffers[key]
	r.mu.RUnlock()
	if ok {
		return buf
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if buf, ok = r.buffers[key]; ok {
		return buf
	}
	buf = NewRingBuffer(capacity)
	r.buffers[key] = buf
	return buf
}

// Get returns the buffer for the key, or nil if none exists.
func (r *Registry) Get(symbol string, kind Kind) *RingBuffer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.buffers[BufferKey{Symbol: symbol, Kind: kind}]
}

// All returns a snapshot of the key to buffer mapping.
func (r *Registry) All() map[BufferKey]*RingBuffer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[BufferKey]*RingBuffer, len(r.buffers))
	for key, buf := range r.buffers {
		out[key] = buf
	}
	return out
}

// Len returns the number of registered buffers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.buffers)
}

// TotalItems sums the retained record counts across all buffers.
func (r *Registry) TotalItems() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for _, buf := range r.buffers {
		total += int64(buf.Len())
	}
	return total
}

// ClearAll clears every registered buffer. The buffers stay registered,
// empty, so existing handles remain valid.
func (r *Registry) ClearAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, buf := range r.buffers {
		buf.Clear()
	}
}
