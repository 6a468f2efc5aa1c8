package web

import "sync"

// DefaultBufferSize is the default maximum number of events to keep in the buffer.
const DefaultBufferSize = 5000

// Buffer is a thread-safe ring buffer for storing events with type indexing.
// clients that join late read the history from it before subscribing to the stream.
type Buffer struct {
	mu       sync.RWMutex
	events   []Event
	maxSize  int
	writePos int // next position to write (wraps around)
	count    int // total events written (for full detection)

	// type indexes store positions of events by type for quick filtering
	typeIndex map[EventType][]int
}

// NewBuffer creates a new ring buffer with the specified max size.
// if maxSize is 0, DefaultBufferSize is used.
func NewBuffer(maxSize int) *Buffer {
	if maxSize <= 0 {
		maxSize = DefaultBufferSize
	}
	return &Buffer{
		events:    make([]Event, maxSize),
		maxSize:   maxSize,
		typeIndex: make(map[EventType][]int),
	}
}

// Add appends an event to the buffer, overwriting oldest if full.
func (b *Buffer) Add(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// if buffer is full, clean up old index entry BEFORE overwriting
	if b.count >= b.maxSize {
		b.cleanOldIndexEntry(b.writePos)
	}

	// store event at current write position
	b.events[b.writePos] = e

	b.typeIndex[e.Type] = append(b.typeIndex[e.Type], b.writePos)

	// advance write position (wrap around)
	b.writePos = (b.writePos + 1) % b.maxSize
	b.count++
}

// cleanOldIndexEntry removes stale index entries for the position being overwritten.
// must be called with lock held.
func (b *Buffer) cleanOldIndexEntry(pos int) {
	oldEvent := b.events[pos]
	if indices, ok := b.typeIndex[oldEvent.Type]; ok {
		newIndices := make([]int, 0, len(indices))
		for _, idx := range indices {
			if idx != pos {
				newIndices = append(newIndices, idx)
			}
		}
		if len(newIndices) == 0 {
			delete(b.typeIndex, oldEvent.Type)
		} else {
			b.typeIndex[oldEvent.Type] = newIndices
		}
	}
}

// All returns all events in chronological order.
func (b *Buffer) All() []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 {
		return nil
	}

	// determine actual count (min of count and maxSize)
	actualCount := min(b.count, b.maxSize)

	result := make([]Event, actualCount)

	if b.count <= b.maxSize {
		// buffer not full yet, just copy from start
		copy(result, b.events[:b.count])
	} else {
		// buffer wrapped, read from writePos to end, then start to writePos
		tailLen := b.maxSize - b.writePos
		copy(result[:tailLen], b.events[b.writePos:])
		copy(result[tailLen:], b.events[:b.writePos])
	}

	return result
}

// ByType returns all events of the given type in chronological order.
func (b *Buffer) ByType(t EventType) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	indices := b.typeIndex[t]
	if len(indices) == 0 {
		return nil
	}

	// index entries are appended in write order, so after a wraparound the
	// oldest surviving entries still come first
	result := make([]Event, len(indices))
	for i, idx := range indices {
		result[i] = b.events[idx]
	}
	return result
}

// Count returns the total number of events currently in the buffer.
func (b *Buffer) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return min(b.count, b.maxSize)
}

// Clear removes all events from the buffer.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = make([]Event, b.maxSize)
	b.writePos = 0
	b.count = 0
	b.typeIndex = make(map[EventType][]int)
}
