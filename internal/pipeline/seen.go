package pipeline

import "sync"

// seenCapacity bounds the duplicate-suppression window. Old entries fall
// out in LRU order; a replay older than the window is caught by the store's
// idempotent insert instead.
const seenCapacity = 10000

// seenSet is a thread-safe LRU membership set of observation IDs.
type seenSet struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*seenEntry
	head       *seenEntry // most recently used
	tail       *seenEntry // least recently used
}

type seenEntry struct {
	key  string
	prev *seenEntry
	next *seenEntry
}

func newSeenSet(maxEntries int) *seenSet {
	return &seenSet{
		maxEntries: maxEntries,
		entries:    make(map[string]*seenEntry),
	}
}

func (s *seenSet) contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	s.moveToFront(e)
	return true
}

func (s *seenSet) add(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		s.moveToFront(e)
		return
	}

	e := &seenEntry{key: key}
	s.entries[key] = e
	s.addToFront(e)

	if len(s.entries) > s.maxEntries {
		s.evictTail()
	}
}

func (s *seenSet) moveToFront(e *seenEntry) {
	if e == s.head {
		return
	}
	s.remove(e)
	s.addToFront(e)
}

func (s *seenSet) addToFront(e *seenEntry) {
	e.next = s.head
	e.prev = nil
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

func (s *seenSet) remove(e *seenEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
}

func (s *seenSet) evictTail() {
	if s.tail == nil {
		return
	}
	delete(s.entries, s.tail.key)
	s.remove(s.tail)
}
