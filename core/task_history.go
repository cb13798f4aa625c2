package core

import "sync"

const defaultPollHistoryCapacity = 100

type pollHistory struct {
	mu    sync.Mutex
	items []PollRecord
	head  int
	count int
}

func newPollHistory(capacity int) *pollHistory {
	if capacity < 1 {
		capacity = defaultPollHistoryCapacity
	}
	return &pollHistory{items: make([]PollRecord, capacity)}
}

func (h *pollHistory) Add(record PollRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items[h.head] = record
	h.head = (h.head + 1) % len(h.items)
	if h.count < len(h.items) {
		h.count++
	}
}

// Recent returns up to limit records, newest first. limit <= 0 returns all of them.
func (h *pollHistory) Recent(limit int) []PollRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return nil
	}

	if limit <= 0 || limit > h.count {
		limit = h.count
	}

	out := make([]PollRecord, 0, limit)
	for i := range limit {
		idx := (h.head - 1 - i + len(h.items)) % len(h.items)
		out = append(out, h.items[idx])
	}
	return out
}

func (h *pollHistory) Last() (PollRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return PollRecord{}, false
	}

	idx := (h.head - 1 + len(h.items)) % len(h.items)
	return h.items[idx], true
}
