package storage

import (
	"errors"
	"sync"

	"lan-stream/internal/metrics"

	"go.uber.org/zap"
)

var ErrInvalidCapacity = errors.New("history capacity must be at least 1")

// MemoryStore is the bounded, insertion-ordered shared history. Inserting
// past capacity evicts the oldest entry and deletes its file, if any.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int

	cleaner    Cleaner
	dispatcher Dispatcher
	metrics    *metrics.Registry
	logger     *zap.Logger
}

// StoreOption configures a MemoryStore.
type StoreOption func(*MemoryStore)

// ------------------------------------------------------------------------------------------------------
// WithDispatcher runs file cleanup on d instead of the inserting goroutine.
func WithDispatcher(d Dispatcher) StoreOption {
	return func(s *MemoryStore) {
		s.dispatcher = d
	}
}

// ------------------------------------------------------------------------------------------------------
func WithMetrics(m *metrics.Registry) StoreOption {
	return func(s *MemoryStore) {
		s.metrics = m
	}
}

// ------------------------------------------------------------------------------------------------------
// NewMemoryStore creates a history holding at most capacity entries.
// cleaner may be nil, in which case evicted files are left in place.
func NewMemoryStore(capacity int, cleaner Cleaner, logger *zap.Logger, opts ...StoreOption) (*MemoryStore, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &MemoryStore{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
		cleaner:  cleaner,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ------------------------------------------------------------------------------------------------------
// Insert admits entry into the history and returns it unchanged for broadcast.
// Replayed entries pass straight through without touching the buffer.
func (s *MemoryStore) Insert(entry Entry) Entry {
	s.metrics.ObserveInsert(string(entry.Kind), entry.IsReplay)
	if entry.IsReplay {
		return entry
	}

	s.mu.Lock()
	evicted, ok := s.evictOldestLocked()
	s.entries = append(s.entries, entry)
	size := len(s.entries)
	s.mu.Unlock()

	s.metrics.SetHistorySize(size)
	if ok {
		s.metrics.ObserveEviction()
		s.logger.Debug("History entry evicted",
			zap.String("id", evicted.ID),
			zap.String("type", string(evicted.Kind)),
		)
		s.cleanup(evicted)
	}

	return entry
}

// ------------------------------------------------------------------------------------------------------
// evictOldestLocked pops the head of the buffer when it is full. Caller holds s.mu.
func (s *MemoryStore) evictOldestLocked() (Entry, bool) {
	if len(s.entries) < s.capacity {
		return Entry{}, false
	}
	oldest := s.entries[0]
	n := copy(s.entries, s.entries[1:])
	s.entries[n] = Entry{}
	s.entries = s.entries[:n]
	return oldest, true
}

// ------------------------------------------------------------------------------------------------------
// Snapshot returns a copy of the history, oldest first.
func (s *MemoryStore) Snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Entry, len(s.entries))
	copy(result, s.entries)
	return result
}

// ------------------------------------------------------------------------------------------------------
// Remove deletes the entry with the given ID and cleans up its file.
func (s *MemoryStore) Remove(id string) (Entry, bool) {
	s.mu.Lock()
	idx := -1
	for i, e := range s.entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return Entry{}, false
	}
	removed := s.entries[idx]
	n := idx + copy(s.entries[idx:], s.entries[idx+1:])
	s.entries[n] = Entry{}
	s.entries = s.entries[:n]
	size := len(s.entries)
	s.mu.Unlock()

	s.metrics.SetHistorySize(size)
	s.cleanup(removed)
	return removed, true
}

// ------------------------------------------------------------------------------------------------------
// Clear empties the history and cleans up every file it referenced.
func (s *MemoryStore) Clear() []Entry {
	s.mu.Lock()
	removed := s.entries
	s.entries = make([]Entry, 0, s.capacity)
	s.mu.Unlock()

	s.metrics.SetHistorySize(0)
	for _, e := range removed {
		s.cleanup(e)
	}
	return removed
}

// ------------------------------------------------------------------------------------------------------
func (s *MemoryStore) Capacity() int {
	return s.capacity
}

// ------------------------------------------------------------------------------------------------------
// cleanup must only be called with entries that have already left the buffer,
// which is what keeps deletion at most once per entry.
func (s *MemoryStore) cleanup(entry Entry) {
	if !entry.FileBacked() || s.cleaner == nil {
		return
	}

	job := func() { s.deleteFile(entry) }
	if s.dispatcher != nil {
		s.dispatcher.Submit(job)
		return
	}
	job()
}

// ------------------------------------------------------------------------------------------------------
func (s *MemoryStore) deleteFile(entry Entry) {
	deleted, err := s.cleaner.DeleteIfExists(entry.Content)
	if err != nil {
		s.metrics.ObserveCleanup(metrics.OutcomeFailed)
		s.logger.Warn("Failed to delete file of removed entry",
			zap.String("id", entry.ID),
			zap.String("content", entry.Content),
			zap.String("file_name", entry.FileName),
			zap.Error(err),
		)
		return
	}

	if !deleted {
		s.metrics.ObserveCleanup(metrics.OutcomeNotFound)
		s.logger.Info("File of removed entry already gone",
			zap.String("id", entry.ID),
			zap.String("content", entry.Content),
		)
		return
	}

	s.metrics.ObserveCleanup(metrics.OutcomeDeleted)
	s.logger.Debug("Deleted file of removed entry",
		zap.String("id", entry.ID),
		zap.String("content", entry.Content),
	)
}
