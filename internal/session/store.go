package session

import (
	"fmt"
	"sync"

	"github.com/aonescu/torii/internal/schema"
)

var ErrSessionNotFound = fmt.Errorf("session not found")

// Store is the in-memory session registry. Sessions are transient: nothing
// survives the process, and a discarded session needs no cleanup beyond
// Delete.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

func (st *Store) Create(kind *schema.RegisteredKind, mode Mode) *Session {
	s := New(kind, mode)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID()] = s
	return s
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, exists := st.sessions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// HandoffSlot carries one pending template document from one caller
// context to another. Put overwrites any unconsumed template (single slot,
// no queue); Take consumes exactly once.
type HandoffSlot struct {
	mu      sync.Mutex
	doc     string
	pending bool
}

func NewHandoffSlot() *HandoffSlot {
	return &HandoffSlot{}
}

func (h *HandoffSlot) Put(doc string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.doc = doc
	h.pending = true
}

// Take returns the pending template and clears the slot. The second take
// reports empty.
func (h *HandoffSlot) Take() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.pending {
		return "", false
	}
	doc := h.doc
	h.doc = ""
	h.pending = false
	return doc, true
}
