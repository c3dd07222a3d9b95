// Package session owns the edit-session state machine and the single-slot
// template hand-off between caller contexts.
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/aonescu/torii/internal/engine"
	"github.com/aonescu/torii/internal/normalize"
	"github.com/aonescu/torii/internal/parse"
	"github.com/aonescu/torii/internal/schema"
	"github.com/aonescu/torii/internal/types"
)

type Mode string

const (
	FormMode Mode = "form"
	TextMode Mode = "text"
)

type State string

const (
	StateEmpty      State = "empty"
	StateEditing    State = "editing"
	StateValidating State = "validating"
	StateAccepted   State = "accepted"
	StateRejected   State = "rejected"
)

var (
	ErrSessionFinalized = fmt.Errorf("session already accepted")
	ErrWrongMode        = fmt.Errorf("operation not valid for session mode")
	ErrNotAccepted      = fmt.Errorf("session has no accepted record")
	ErrNothingToCheck   = fmt.Errorf("session has no input yet")
)

// Session is one edit session: Empty -> Editing -> Validating ->
// (Accepted | Rejected). Rejection keeps the draft and the raw text so no
// user input is lost; editing again clears the previous violations.
// Accepted is terminal.
type Session struct {
	mu         sync.Mutex
	id         string
	kind       *schema.RegisteredKind
	mode       Mode
	state      State
	draft      *types.DraftRecord
	rawText    string
	violations []types.Violation
	canonical  *types.CanonicalRecord
}

func New(kind *schema.RegisteredKind, mode Mode) *Session {
	return &Session{
		id:    uuid.NewString(),
		kind:  kind,
		mode:  mode,
		state: StateEmpty,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) KindID() string { return s.kind.ID }

func (s *Session) Mode() Mode { return s.mode }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ApplyFields replaces the draft from structured form values (form mode).
func (s *Session) ApplyFields(values map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateAccepted {
		return ErrSessionFinalized
	}
	if s.mode != FormMode {
		return fmt.Errorf("%w: want %s", ErrWrongMode, FormMode)
	}

	s.draft = normalize.Normalize(values, s.kind)
	s.violations = nil
	s.state = StateEditing
	return nil
}

// SetText stores raw document text (text mode). The text is kept verbatim
// so the user can correct it after a syntax error.
func (s *Session) SetText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateAccepted {
		return ErrSessionFinalized
	}
	if s.mode != TextMode {
		return fmt.Errorf("%w: want %s", ErrWrongMode, TextMode)
	}

	s.rawText = text
	s.violations = nil
	s.state = StateEditing
	return nil
}

// Validate runs the session's input through the validator. A *SyntaxError
// aborts only the parse attempt: the session returns to Editing with the
// raw text intact. Schema violations move the session to Rejected with the
// draft retained; success moves it to the terminal Accepted state.
func (s *Session) Validate(eng *engine.Engine) (*types.ValidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateAccepted {
		return nil, ErrSessionFinalized
	}

	s.state = StateValidating

	if s.mode == TextMode {
		if s.rawText == "" {
			s.state = StateEditing
			return nil, ErrNothingToCheck
		}
		draft, err := parse.Parse(s.rawText, s.kind.ID)
		if err != nil {
			s.state = StateEditing
			return nil, err
		}
		s.draft = draft
	}
	if s.draft == nil {
		s.state = StateEditing
		return nil, ErrNothingToCheck
	}

	result, err := eng.Validate(s.draft)
	if err != nil {
		s.state = StateEditing
		return nil, err
	}

	if result.IsAccepted() {
		s.canonical = result.Canonical
		s.violations = nil
		s.state = StateAccepted
	} else {
		s.violations = result.Violations
		s.state = StateRejected
	}
	return result, nil
}

func (s *Session) Violations() []types.Violation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.violations
}

func (s *Session) RawText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rawText
}

// Canonical returns the accepted record, once the session is terminal.
func (s *Session) Canonical() (*types.CanonicalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAccepted {
		return nil, ErrNotAccepted
	}
	return s.canonical, nil
}
