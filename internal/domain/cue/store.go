package cue

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// entry pairs a cue with its insertion sequence so equal timestamps keep the
// order they were added in, regardless of later edits.
type entry struct {
	cue CuePoint
	seq uint64
}

// Store is the ordered collection of cue points for one audio file.
// Reads always observe the cues sorted by time. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries []entry
	nextSeq uint64
	newID   func() string
}

// NewStore creates an empty store that issues UUID identifiers.
func NewStore() *Store {
	return &Store{newID: uuid.NewString}
}

// NewStoreWithIDs creates a store with a custom id generator.
func NewStoreWithIDs(newID func() string) *Store {
	return &Store{newID: newID}
}

// Add inserts c. An empty ID is replaced by a fresh one and an empty name by
// "Cue N". Adding an id that already exists is a no-op and returns false.
func (s *Store) Add(c CuePoint) (CuePoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = s.newID()
	} else if s.indexLocked(c.ID) >= 0 {
		return CuePoint{}, false
	}
	if c.Name == "" {
		c.Name = DefaultName(len(s.entries) + 1)
	}

	s.appendLocked(c)
	s.sortLocked()
	return c, true
}

// Remove deletes the cue with the given id. Unknown ids are ignored.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return true
}

// Update merges p into the cue with the given id and re-sorts when its time
// moved. It returns the updated cue and whether it was found.
func (s *Store) Update(id string, p Patch) (CuePoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return CuePoint{}, false
	}
	updated := &s.entries[i].cue
	if p.apply(updated) {
		result := *updated
		s.sortLocked()
		return result, true
	}
	return *updated, true
}

// ToggleLock flips the locked flag and returns its new value.
func (s *Store) ToggleLock(id string) (locked bool, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false, false
	}
	s.entries[i].cue.Locked = !s.entries[i].cue.Locked
	return s.entries[i].cue.Locked, true
}

// ToggleConfirm flips the confirmed flag and returns its new value.
func (s *Store) ToggleConfirm(id string) (confirmed bool, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false, false
	}
	s.entries[i].cue.Confirmed = !s.entries[i].cue.Confirmed
	return s.entries[i].cue.Confirmed, true
}

// ImportMany appends cues with freshly issued ids. Duplicates of existing
// cues are not detected. The imported cues are returned with their new ids.
func (s *Store) ImportMany(cues []CuePoint) []CuePoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	imported := make([]CuePoint, 0, len(cues))
	for _, c := range cues {
		c.ID = s.newID()
		if c.Name == "" {
			c.Name = DefaultName(len(s.entries) + 1)
		}
		s.appendLocked(c)
		imported = append(imported, c)
	}
	s.sortLocked()
	return imported
}

// Replace discards the current cues and loads cues as they are. Cues
// without an id get one.
func (s *Store) Replace(cues []CuePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = s.entries[:0]
	seen := make(map[string]bool, len(cues))
	for _, c := range cues {
		if c.ID == "" || seen[c.ID] {
			c.ID = s.newID()
		}
		seen[c.ID] = true
		s.appendLocked(c)
	}
	s.sortLocked()
}

// Reset removes every cue.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// Cues returns a sorted copy of the cue points.
func (s *Store) Cues() []CuePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CuePoint, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.cue
	}
	return out
}

// Get looks up a cue by id.
func (s *Store) Get(id string) (CuePoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return CuePoint{}, false
	}
	return s.entries[i].cue, true
}

// Len returns the number of cues.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) appendLocked(c CuePoint) {
	s.entries = append(s.entries, entry{cue: c, seq: s.nextSeq})
	s.nextSeq++
}

func (s *Store) indexLocked(id string) int {
	for i, e := range s.entries {
		if e.cue.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) sortLocked() {
	sort.Slice(s.entries, func(i, j int) bool {
		a, b := s.entries[i], s.entries[j]
		if a.cue.Time != b.cue.Time {
			return a.cue.Time < b.cue.Time
		}
		return a.seq < b.seq
	})
}
