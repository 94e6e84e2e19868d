package services

import (
	"context"
	"sync"

	"github.com/clarktao-dev/nutrition-linebot/models"
)

// Conversation states. A user with no stored session is in StateNormal.
const (
	StateNormal              = "normal"
	StatePendingConfirmation = "pending_confirmation"
	StateProfileWizard       = "profile_wizard"
)

// PendingRecord is a parsed-but-unsaved meal awaiting an explicit confirm or
// reject. Ephemeral by design: a process restart loses it and the user is
// simply re-prompted.
type PendingRecord struct {
	MealType    string           `json:"meal_type"`
	Description string           `json:"description"`
	Analysis    string           `json:"analysis"`
	Nutrition   models.Nutrition `json:"nutrition"`
	Notes       []string         `json:"notes,omitempty"`
}

// WizardState tracks progress through the guided profile setup.
type WizardState struct {
	Step  int                `json:"step"`
	Draft models.UserProfile `json:"draft"`
}

// Session is the per-user ephemeral conversation state.
type Session struct {
	State   string         `json:"state"`
	Pending *PendingRecord `json:"pending,omitempty"`
	Wizard  *WizardState   `json:"wizard,omitempty"`
}

// SessionStore keeps ephemeral per-user state behind a swappable boundary;
// the in-memory map is the default and a Redis-backed store drops in when
// the deployment needs state to survive restarts.
type SessionStore interface {
	Get(ctx context.Context, userID string) (*Session, error)
	Set(ctx context.Context, userID string, s *Session) error
	Clear(ctx context.Context, userID string) error
}

// MemorySessionStore is a mutex-guarded map. A single user's messages are
// expected to arrive sequentially; concurrent writes for the same user
// overwrite the single slot rather than queueing.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*Session)}
}

func (m *MemorySessionStore) Get(_ context.Context, userID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	if !ok {
		return &Session{State: StateNormal}, nil
	}
	copied := *s
	return &copied, nil
}

func (m *MemorySessionStore) Set(_ context.Context, userID string, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *s
	m.sessions[userID] = &copied
	return nil
}

func (m *MemorySessionStore) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}
