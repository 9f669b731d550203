package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "carepanion/internal/platform/errors"
)

const SchemaVersion = 1

type Step string

const (
	StepLoggedOut      Step = "logged_out"
	StepProfilePending Step = "profile_pending"
	StepLabeling       Step = "labeling"
)

// Session is the identity data carried between steps. It exists only while
// the machine is not logged out.
type Session struct {
	IdentityRef  string
	TokenBalance float64
	IsNewUser    bool
	AccessToken  string
	TokenType    string
}

// Credentials is the durable subset of a session.
type Credentials struct {
	SchemaVersion int       `json:"schema_version"`
	AccessToken   string    `json:"access_token"`
	TokenType     string    `json:"token_type"`
	IdentityRef   string    `json:"identity_ref"`
	SavedAt       time.Time `json:"saved_at"`
}

func (c Credentials) Session() Session {
	return Session{IdentityRef: c.IdentityRef, AccessToken: c.AccessToken, TokenType: c.TokenType}
}

type LoginResult struct {
	AccessToken string
	TokenType   string
	IsNewUser   bool
}

// ValidateIdentity trims input and enforces the minimum length.
func ValidateIdentity(input string, minLength int) (string, error) {
	identity := strings.TrimSpace(input)
	if identity == "" {
		return "", apperrors.Validation("wallet address is required")
	}
	if len(identity) < minLength {
		return "", apperrors.Validation("wallet address must be at least %d characters", minLength)
	}
	return identity, nil
}

// ShortIdentity renders an identity as first6...last4.
func ShortIdentity(ref string) string {
	if len(ref) <= 10 {
		return ref
	}
	return ref[:6] + "..." + ref[len(ref)-4:]
}

// Machine holds the current step. Moves are
// logged_out -> profile_pending -> labeling, logged_out -> labeling and
// any -> logged_out.
type Machine struct {
	step    Step
	session *Session
}

func NewMachine() *Machine {
	return &Machine{step: StepLoggedOut}
}

func (m *Machine) Step() Step {
	return m.step
}

func (m *Machine) Session() (Session, bool) {
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

func (m *Machine) LoggedIn(s Session) error {
	next := StepLabeling
	if s.IsNewUser {
		next = StepProfilePending
	}
	return m.enter(s, next)
}

// Restored re-enters a step from stored credentials.
func (m *Machine) Restored(s Session, step Step) error {
	if step != StepProfilePending && step != StepLabeling {
		return fmt.Errorf("%w: cannot restore into %s", apperrors.ErrInvalidTransition, step)
	}
	return m.enter(s, step)
}

func (m *Machine) ProfileCompleted() error {
	if m.step != StepProfilePending {
		return fmt.Errorf("%w: profile can only be completed from %s, current step is %s", apperrors.ErrInvalidTransition, StepProfilePending, m.step)
	}
	m.step = StepLabeling
	return nil
}

func (m *Machine) LoggedOut() {
	m.step = StepLoggedOut
	m.session = nil
}

func (m *Machine) enter(s Session, next Step) error {
	if m.step != StepLoggedOut {
		return fmt.Errorf("%w: already %s, log out first", apperrors.ErrInvalidTransition, m.step)
	}
	m.session = &s
	m.step = next
	return nil
}
