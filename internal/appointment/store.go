package appointment

import "sync"

// Store is the in-memory working set of appointments. Callers never see the
// backing slice; List returns a copy.
type Store struct {
	mu    sync.RWMutex
	items []Appointment
}

func NewStore(initial []Appointment) *Store {
	return &Store{items: append([]Appointment(nil), initial...)}
}

func (s *Store) Append(a Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.append(a)
}

// Replace removes the first record matching old and appends next.
func (s *Store) Replace(old Key, next Appointment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(old, next)
}

// SetStatus changes the status of the first record matching key.
func (s *Store) SetStatus(key Key, status AppointmentStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setStatus(key, status)
}

func (s *Store) List() []Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Update runs fn with exclusive access so a check and the mutation it
// guards cannot interleave with another writer.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Tx{s: s})
}

// Tx exposes the store operations inside Update. It must not escape fn.
type Tx struct {
	s *Store
}

func (tx *Tx) List() []Appointment { return tx.s.snapshot() }
func (tx *Tx) Append(a Appointment) { tx.s.append(a) }
func (tx *Tx) Replace(old Key, next Appointment) bool { return tx.s.replace(old, next) }
func (tx *Tx) SetStatus(key Key, st AppointmentStatus) bool {
	return tx.s.setStatus(key, st)
}

// Reset replaces the whole collection with all.
func (tx *Tx) Reset(all []Appointment) {
	tx.s.items = append([]Appointment(nil), all...)
}

func (tx *Tx) Find(key Key) (Appointment, bool) {
	if i := tx.s.index(key); i >= 0 {
		return tx.s.items[i], true
	}
	return Appointment{}, false
}

func (s *Store) append(a Appointment) {
	s.items = append(s.items, a)
}

func (s *Store) replace(old Key, next Appointment) bool {
	i := s.index(old)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.items = append(s.items, next)
	return true
}

func (s *Store) setStatus(key Key, status AppointmentStatus) bool {
	i := s.index(key)
	if i < 0 {
		return false
	}
	s.items[i].Status = status
	return true
}

func (s *Store) index(key Key) int {
	for i, a := range s.items {
		if key.Matches(a) {
			return i
		}
	}
	return -1
}

func (s *Store) snapshot() []Appointment {
	return append([]Appointment(nil), s.items...)
}
