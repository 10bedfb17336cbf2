// internal/history/store.go
package history

import (
	"log"
	"sync"
	"time"

	"calorie-scan/internal/models"
	"calorie-scan/internal/storage"
)

const (
	DefaultKey      = "calorie-history"
	DefaultCapacity = 20
)

// Store is a bounded, newest-first list of analyses persisted under a single
// key. The persisted snapshot is read lazily on first use.
type Store struct {
	kv       storage.KV
	key      string
	capacity int
	now      func() time.Time
	loc      *time.Location

	loadOnce sync.Once
	mu       sync.Mutex
	entries  []models.FoodItem
}

type Option func(*Store)

func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

func WithCapacity(n int) Option {
	return func(s *Store) { s.capacity = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the time zone calendar days are computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

func NewStore(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:       kv,
		key:      DefaultKey,
		capacity: DefaultCapacity,
		now:      time.Now,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.capacity < 1 {
		s.capacity = DefaultCapacity
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	return s
}

// Add prepends item and drops whatever falls beyond capacity. The new list
// is persisted before Add returns; a failed write is logged and the item
// stays in memory.
func (s *Store) Add(item models.FoodItem) {
	s.ensureLoaded()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]models.FoodItem, 0, min(len(s.entries)+1, s.capacity))
	next = append(next, item)
	for _, e := range s.entries {
		if len(next) == s.capacity {
			break
		}
		next = append(next, e)
	}
	s.entries = next
	s.persistLocked()
}

// Clear empties the history and removes the persisted snapshot.
func (s *Store) Clear() {
	s.ensureLoaded()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	if err := s.kv.Delete(s.key); err != nil {
		log.Printf("Warning: failed to delete history snapshot: %v", err)
	}
}

// Entries returns a copy of the history, newest first.
func (s *Store) Entries() []models.FoodItem {
	return s.Recent(0)
}

// Recent returns up to limit newest entries. A limit <= 0 returns all.
func (s *Store) Recent(limit int) []models.FoodItem {
	s.ensureLoaded()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.FoodItem, n)
	copy(out, s.entries[:n])
	return out
}

func (s *Store) Len() int {
	s.ensureLoaded()

	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// TotalCaloriesToday sums calories of entries that fall on the current
// calendar day in the store's location. An entry from late yesterday is
// excluded even when it is less than 24 hours old.
func (s *Store) TotalCaloriesToday() int {
	s.ensureLoaded()

	s.mu.Lock()
	defer s.mu.Unlock()

	ty, tm, td := s.now().In(s.loc).Date()
	total := 0
	for _, e := range s.entries {
		y, m, d := e.Timestamp.In(s.loc).Date()
		if y == ty && m == tm && d == td {
			total += e.Calories
		}
	}
	return total
}

func (s *Store) ensureLoaded() {
	s.loadOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.entries = s.readSnapshot()
	})
}

// readSnapshot never fails: a missing, unreadable or malformed snapshot
// yields an empty history.
func (s *Store) readSnapshot() []models.FoodItem {
	data, ok, err := s.kv.Get(s.key)
	if err != nil {
		log.Printf("Warning: failed to read history snapshot: %v", err)
		return nil
	}
	if !ok {
		return nil
	}

	entries, err := decodeSnapshot(data)
	if err != nil {
		log.Printf("Warning: discarding history snapshot: %v", err)
		return nil
	}
	if len(entries) > s.capacity {
		entries = entries[:s.capacity]
	}
	return entries
}

func (s *Store) persistLocked() {
	data, err := encodeSnapshot(s.entries)
	if err != nil {
		log.Printf("Warning: failed to encode history snapshot: %v", err)
		return
	}
	if err := s.kv.Set(s.key, data); err != nil {
		log.Printf("Warning: failed to persist history snapshot: %v", err)
	}
}
