package server

import (
	"sync"
)

// historyEntry stores one sent update frame for replay.
type historyEntry struct {
	seq   uint64
	frame []byte // pre-encoded FrameUpdate bytes
}

// UpdateHistory is a thread-safe ring buffer of sent update frames.
// It keeps a sliding window of recent frames so a client that missed
// some during a short disconnect can be caught up without a reload.
// When the window no longer covers the gap, the caller falls back to a
// reload directive.
type UpdateHistory struct {
	mu       sync.RWMutex
	entries  []historyEntry
	head     int // next write position
	count    int
	capacity int
	minSeq   uint64 // lowest sequence still in the buffer
	maxSeq   uint64 // highest sequence in the buffer
}

// NewUpdateHistory creates a ring buffer holding capacity frames.
func NewUpdateHistory(capacity int) *UpdateHistory {
	if capacity <= 0 {
		capacity = DefaultSessionConfig().MaxUpdateHistory
	}
	return &UpdateHistory{
		entries:  make([]historyEntry, capacity),
		capacity: capacity,
	}
}

// Add stores a sent frame. Call it only after a successful write so
// the buffer never replays frames the client may not have been offered.
// The frame bytes are copied.
func (h *UpdateHistory) Add(seq uint64, frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.head] = historyEntry{seq: seq, frame: append([]byte(nil), frame...)}
	h.head = (h.head + 1) % h.capacity

	if h.count < h.capacity {
		h.count++
	}
	h.maxSeq = seq
	if h.count == 1 {
		h.minSeq = seq
	} else if h.count == h.capacity {
		// Full: the oldest entry is the one the head points at next.
		h.minSeq = h.entries[h.head].seq
	}
}

// Since returns the frames for sequences (lastSeq, maxSeq], oldest
// first, ready to replay. It returns nil when the buffer no longer
// covers the range.
func (h *UpdateHistory) Since(lastSeq uint64) [][]byte {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 || lastSeq >= h.maxSeq || lastSeq+1 < h.minSeq {
		return nil
	}

	frames := make([][]byte, 0, h.count)
	for i := 0; i < h.count; i++ {
		idx := (h.head - h.count + i + h.capacity) % h.capacity
		if h.entries[idx].seq > lastSeq {
			frames = append(frames, h.entries[idx].frame)
		}
	}
	return frames
}

// CanRecover reports whether Since(lastSeq) would return frames.
func (h *UpdateHistory) CanRecover(lastSeq uint64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count > 0 && lastSeq < h.maxSeq && lastSeq+1 >= h.minSeq
}

// MinSeq returns the lowest recoverable sequence.
func (h *UpdateHistory) MinSeq() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.minSeq
}

// MaxSeq returns the highest sequence in the buffer.
func (h *UpdateHistory) MaxSeq() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.maxSeq
}

// Count returns the number of buffered frames.
func (h *UpdateHistory) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Clear drops all buffered frames.
func (h *UpdateHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.entries {
		h.entries[i] = historyEntry{}
	}
	h.head = 0
	h.count = 0
	h.minSeq = 0
	h.maxSeq = 0
}
