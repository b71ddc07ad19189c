package storage

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

type fakeCleaner struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeCleaner) DeleteIfExists(name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if f.err != nil {
		return false, f.err
	}
	return true, nil
}

func (f *fakeCleaner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

type queueDispatcher struct {
	mu   sync.Mutex
	jobs []func()
}

func (q *queueDispatcher) Submit(job func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
}

func (q *queueDispatcher) RunAll() {
	q.mu.Lock()
	jobs := q.jobs
	q.jobs = nil
	q.mu.Unlock()
	for _, job := range jobs {
		job()
	}
}

func textEntry(id string) Entry {
	return Entry{ID: id, Content: id, Kind: KindText}
}

func fileEntry(id, name string) Entry {
	return Entry{ID: id, Content: name, FileName: name, Kind: KindFile}
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func assertIDs(t *testing.T, got []Entry, want ...string) {
	t.Helper()
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("Expected snapshot %v, got %v", want, gotIDs)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("Expected snapshot %v, got %v", want, gotIDs)
		}
	}
}

func newStore(t *testing.T, capacity int, cleaner Cleaner, opts ...StoreOption) *MemoryStore {
	t.Helper()
	store, err := NewMemoryStore(capacity, cleaner, nil, opts...)
	if err != nil {
		t.Fatalf("NewMemoryStore(%d) error = %v", capacity, err)
	}
	return store
}

func TestNewMemoryStore_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1, -10} {
		_, err := NewMemoryStore(capacity, nil, nil)
		if !errors.Is(err, ErrInvalidCapacity) {
			t.Errorf("NewMemoryStore(%d) error = %v, want ErrInvalidCapacity", capacity, err)
		}
	}
}

func TestMemoryStore_Insert(t *testing.T) {
	store := newStore(t, 10, nil)

	entry := NewTextEntry("Hello")
	got := store.Insert(entry)
	if got != entry {
		t.Errorf("Expected Insert to return the submitted entry, got %+v", got)
	}

	messages := store.Snapshot()
	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(messages))
	}
	if messages[0].Content != "Hello" {
		t.Errorf("Expected 'Hello', got '%s'", messages[0].Content)
	}
	if store.Capacity() != 10 {
		t.Errorf("Expected capacity 10, got %d", store.Capacity())
	}
}

func TestMemoryStore_CapacityInvariant(t *testing.T) {
	for _, capacity := range []int{1, 2, 3, 10} {
		t.Run(fmt.Sprintf("capacity_%d", capacity), func(t *testing.T) {
			store := newStore(t, capacity, nil)
			for i := 0; i < capacity*3; i++ {
				store.Insert(textEntry(fmt.Sprintf("m%d", i)))
				if n := len(store.Snapshot()); n > capacity {
					t.Fatalf("Expected at most %d entries, got %d", capacity, n)
				}
			}
		})
	}
}

func TestMemoryStore_FIFOEviction(t *testing.T) {
	const capacity = 4
	store := newStore(t, capacity, nil)

	for i := 1; i <= capacity+1; i++ {
		store.Insert(textEntry(fmt.Sprintf("m%d", i)))
	}

	assertIDs(t, store.Snapshot(), "m2", "m3", "m4", "m5")
}

func TestMemoryStore_ReplayPassThrough(t *testing.T) {
	cleaner := &fakeCleaner{}
	store := newStore(t, 2, cleaner)
	store.Insert(fileEntry("a", "a.png"))
	store.Insert(fileEntry("b", "b.png"))

	replay := fileEntry("a", "a.png")
	replay.IsReplay = true
	got := store.Insert(replay)

	if got != replay {
		t.Errorf("Expected replay to be returned unchanged, got %+v", got)
	}
	assertIDs(t, store.Snapshot(), "a", "b")
	if calls := cleaner.Calls(); len(calls) != 0 {
		t.Errorf("Expected no cleanup for replay, got %v", calls)
	}

	empty := newStore(t, 1, cleaner)
	empty.Insert(replay)
	if n := len(empty.Snapshot()); n != 0 {
		t.Errorf("Expected replay not to be stored, got %d entries", n)
	}
}

func TestMemoryStore_EvictionScenario(t *testing.T) {
	cleaner := &fakeCleaner{}
	store := newStore(t, 2, cleaner)

	store.Insert(textEntry("A"))
	store.Insert(textEntry("B"))
	assertIDs(t, store.Snapshot(), "A", "B")

	store.Insert(fileEntry("C", "f.png"))
	assertIDs(t, store.Snapshot(), "B", "C")
	if calls := cleaner.Calls(); len(calls) != 0 {
		t.Fatalf("Expected no cleanup after evicting text entry, got %v", calls)
	}

	store.Insert(textEntry("D"))
	assertIDs(t, store.Snapshot(), "C", "D")
	if calls := cleaner.Calls(); len(calls) != 0 {
		t.Fatalf("Expected no cleanup while f.png is still held, got %v", calls)
	}

	store.Insert(fileEntry("E", "g.png"))
	assertIDs(t, store.Snapshot(), "D", "E")
	calls := cleaner.Calls()
	if len(calls) != 1 || calls[0] != "f.png" {
		t.Fatalf("Expected exactly one cleanup of f.png, got %v", calls)
	}
}

func TestMemoryStore_EmptyFileNameNotCleaned(t *testing.T) {
	cleaner := &fakeCleaner{}
	store := newStore(t, 1, cleaner)

	store.Insert(fileEntry("X", ""))
	store.Insert(textEntry("Y"))

	assertIDs(t, store.Snapshot(), "Y")
	if calls := cleaner.Calls(); len(calls) != 0 {
		t.Errorf("Expected no cleanup for empty file name, got %v", calls)
	}
}

func TestMemoryStore_CleanupFailureIsolation(t *testing.T) {
	cleaner := &fakeCleaner{err: errors.New("permission denied")}
	store := newStore(t, 1, cleaner)

	store.Insert(fileEntry("a", "a.png"))
	got := store.Insert(textEntry("b"))

	if got.ID != "b" {
		t.Errorf("Expected inserted entry b, got %s", got.ID)
	}
	assertIDs(t, store.Snapshot(), "b")

	store.Insert(textEntry("c"))
	if calls := cleaner.Calls(); len(calls) != 1 {
		t.Errorf("Expected failed cleanup not to be retried, got %v", calls)
	}
}

func TestMemoryStore_SnapshotIsCopy(t *testing.T) {
	store := newStore(t, 3, nil)
	store.Insert(textEntry("a"))

	snapshot := store.Snapshot()
	snapshot[0].Content = "mutated"

	again := store.Snapshot()
	if again[0].Content != "a" {
		t.Errorf("Expected internal data unchanged, got %q", again[0].Content)
	}
}

func TestMemoryStore_DispatcherDefersCleanup(t *testing.T) {
	cleaner := &fakeCleaner{}
	dispatcher := &queueDispatcher{}
	store := newStore(t, 1, cleaner, WithDispatcher(dispatcher))

	store.Insert(fileEntry("a", "a.png"))
	store.Insert(textEntry("b"))

	if calls := cleaner.Calls(); len(calls) != 0 {
		t.Fatalf("Expected cleanup to wait for the dispatcher, got %v", calls)
	}
	assertIDs(t, store.Snapshot(), "b")

	dispatcher.RunAll()
	calls := cleaner.Calls()
	if len(calls) != 1 || calls[0] != "a.png" {
		t.Errorf("Expected cleanup of a.png, got %v", calls)
	}
}

func TestMemoryStore_Remove(t *testing.T) {
	cleaner := &fakeCleaner{}
	store := newStore(t, 5, cleaner)
	store.Insert(textEntry("a"))
	store.Insert(fileEntry("b", "b.png"))
	store.Insert(textEntry("c"))

	removed, ok := store.Remove("b")
	if !ok || removed.ID != "b" {
		t.Fatalf("Expected to remove b, got %+v, %v", removed, ok)
	}
	assertIDs(t, store.Snapshot(), "a", "c")

	if _, ok := store.Remove("b"); ok {
		t.Error("Expected second Remove to report missing entry")
	}
	calls := cleaner.Calls()
	if len(calls) != 1 || calls[0] != "b.png" {
		t.Errorf("Expected one cleanup of b.png, got %v", calls)
	}

	store.Insert(textEntry("d"))
	assertIDs(t, store.Snapshot(), "a", "c", "d")
}

func TestMemoryStore_Clear(t *testing.T) {
	cleaner := &fakeCleaner{}
	store := newStore(t, 5, cleaner)
	store.Insert(textEntry("a"))
	store.Insert(fileEntry("b", "b.png"))
	store.Insert(fileEntry("c", ""))
	store.Insert(fileEntry("d", "d.txt"))

	removed := store.Clear()
	if len(removed) != 4 {
		t.Errorf("Expected 4 removed entries, got %d", len(removed))
	}
	if n := len(store.Snapshot()); n != 0 {
		t.Errorf("Expected 0 messages after clear, got %d", n)
	}
	calls := cleaner.Calls()
	if len(calls) != 2 || calls[0] != "b.png" || calls[1] != "d.txt" {
		t.Errorf("Expected cleanup of b.png and d.txt, got %v", calls)
	}
}

func TestMemoryStore_Concurrency(t *testing.T) {
	const (
		capacity = 5
		writers  = 50
	)
	cleaner := &fakeCleaner{}
	store := newStore(t, capacity, cleaner)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			store.Insert(fileEntry(fmt.Sprintf("e%d", id), fmt.Sprintf("f%d.bin", id)))
		}(i)
		go func() {
			defer wg.Done()
			if n := len(store.Snapshot()); n > capacity {
				t.Errorf("Expected at most %d entries, got %d", capacity, n)
			}
		}()
	}
	wg.Wait()

	snapshot := store.Snapshot()
	if len(snapshot) != capacity {
		t.Fatalf("Expected %d entries, got %d", capacity, len(snapshot))
	}

	calls := cleaner.Calls()
	if len(calls) != writers-capacity {
		t.Fatalf("Expected %d cleanups, got %d", writers-capacity, len(calls))
	}

	seen := make(map[string]bool, len(calls))
	for _, name := range calls {
		if seen[name] {
			t.Errorf("Expected %s to be cleaned once, got it twice", name)
		}
		seen[name] = true
	}
	for _, e := range snapshot {
		if seen[e.Content] {
			t.Errorf("Expected retained entry %s not to be cleaned", e.Content)
		}
	}
}
