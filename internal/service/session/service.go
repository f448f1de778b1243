// Package session owns the set of chat sessions, the active session pointer
// and per-session agent/model/message state. Every mutation persists the
// whole collection through the store port.
package session

import (
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/modelmatrix/ava-console/internal/model/chat"
	"github.com/modelmatrix/ava-console/internal/store"
)

var ErrSessionNotFound = errors.New("session not found")
var ErrMessageNotFound = errors.New("message not found")

// Event notifies the UI layer about session mutations, e.g. so it can focus
// the inspector on a freshly appended message of the active session.
type Event struct {
	Type      string `json:"event"`
	SessionID string `json:"sessionId,omitempty"`
	MessageID string `json:"messageId,omitempty"`
}

const (
	EventSessionCreated  = "session_created"
	EventSessionDeleted  = "session_deleted"
	EventSessionSelected = "session_selected"
	EventMessageAppended = "message_appended"
)

// Notifier receives session events. A nil notifier is valid.
type Notifier func(Event)

// Service encapsulates session state management.
type Service struct {
	mu     sync.RWMutex
	port   store.Port
	state  store.State
	notify Notifier
	now    func() time.Time
}

// NewService rehydrates persisted state, bootstrapping a single default
// session when nothing usable was stored. The store is never empty.
func NewService(port store.Port, notify Notifier) *Service {
	s := &Service{
		port:   port,
		notify: notify,
		now:    time.Now,
	}

	state, ok, err := port.Load()
	if err != nil {
		log.Printf("[session] failed to load persisted state: %v", err)
		ok = false
	}
	if !ok || len(state.Sessions) == 0 {
		fresh := s.blankSession()
		state = store.State{Sessions: []chat.Session{fresh}, ActiveSessionID: fresh.ID}
	}
	if state.ActiveSessionID == "" || !hasSession(state.Sessions, state.ActiveSessionID) {
		state.ActiveSessionID = state.Sessions[0].ID
	}
	s.state = state
	return s
}

func (s *Service) blankSession() chat.Session {
	now := s.now().UTC()
	return chat.Session{
		ID:        uuid.NewString(),
		Title:     chat.DefaultTitle,
		Messages:  []chat.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Create provisions a fresh session and makes it active.
func (s *Service) Create() chat.Session {
	s.mu.Lock()
	session := s.blankSession()
	s.state.Sessions = append(s.state.Sessions, session)
	s.state.ActiveSessionID = session.ID
	s.persistLocked()
	s.mu.Unlock()

	s.emit(Event{Type: EventSessionCreated, SessionID: session.ID})
	return session
}

// Delete removes a session. The store is never left empty: deleting the last
// session synthesizes a fresh default one. When the deleted session was
// active, the first remaining (or synthesized) session becomes active.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	idx := indexOf(s.state.Sessions, id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	wasActive := s.state.ActiveSessionID == id
	s.state.Sessions = append(s.state.Sessions[:idx], s.state.Sessions[idx+1:]...)

	if len(s.state.Sessions) == 0 {
		fresh := s.blankSession()
		s.state.Sessions = []chat.Session{fresh}
	}
	if wasActive {
		s.state.ActiveSessionID = s.state.Sessions[0].ID
	}
	s.persistLocked()
	active := s.state.ActiveSessionID
	s.mu.Unlock()

	s.emit(Event{Type: EventSessionDeleted, SessionID: id})
	if wasActive {
		s.emit(Event{Type: EventSessionSelected, SessionID: active})
	}
	return nil
}

// Select makes a session the active one.
func (s *Service) Select(id string) error {
	s.mu.Lock()
	if indexOf(s.state.Sessions, id) < 0 {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	s.state.ActiveSessionID = id
	s.persistLocked()
	s.mu.Unlock()

	s.emit(Event{Type: EventSessionSelected, SessionID: id})
	return nil
}

// SetModel selects the model for a session.
func (s *Service) SetModel(id, modelID string) error {
	return s.Update(id, func(session *chat.Session) {
		session.ModelID = modelID
	})
}

// SetPrompts overrides the per-session system prompts. Empty values mean
// "use the system default".
func (s *Service) SetPrompts(id, intentPrompt, runtimePrompt string) error {
	return s.Update(id, func(session *chat.Session) {
		session.IntentSystemPrompt = intentPrompt
		session.RuntimeSystemPrompt = runtimePrompt
	})
}

// Append pushes a message onto a session, recomputes the derived title and,
// when newAgent is non-empty, records the agent handoff. The agent only ever
// moves forward; it is never reset by an append.
func (s *Service) Append(id string, message chat.Message, newAgent string) (chat.Message, error) {
	now := s.now().UTC()
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = now
	}

	err := s.Update(id, func(session *chat.Session) {
		session.Messages = append(session.Messages, message)
		session.Title = chat.DeriveTitle(session.Messages)
		if newAgent != "" {
			session.CurrentAgent = newAgent
		}
	})
	if err != nil {
		return chat.Message{}, err
	}

	s.emit(Event{Type: EventMessageAppended, SessionID: id, MessageID: message.ID})
	return message, nil
}

// SetMessageState settles a provisional message.
func (s *Service) SetMessageState(sessionID, messageID string, state chat.DeliveryState) error {
	found := false
	err := s.Update(sessionID, func(session *chat.Session) {
		for i := range session.Messages {
			if session.Messages[i].ID == messageID {
				session.Messages[i].State = state
				found = true
				return
			}
		}
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrMessageNotFound
	}
	return nil
}

// Update applies a mutator to one session as an atomic read-modify-write,
// bumps updatedAt and persists.
func (s *Service) Update(id string, mutate func(*chat.Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.state.Sessions, id)
	if idx < 0 {
		return ErrSessionNotFound
	}
	mutate(&s.state.Sessions[idx])
	s.state.Sessions[idx].UpdatedAt = s.now().UTC()
	s.persistLocked()
	return nil
}

// Get returns a copy of one session.
func (s *Service) Get(id string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := indexOf(s.state.Sessions, id)
	if idx < 0 {
		return chat.Session{}, ErrSessionNotFound
	}
	return copySession(s.state.Sessions[idx]), nil
}

// List returns all sessions, stable-sorted by updatedAt descending. The sort
// is computed at read time, never stored.
func (s *Service) List() []chat.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]chat.Session, len(s.state.Sessions))
	for i, session := range s.state.Sessions {
		sessions[i] = copySession(session)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions
}

// ActiveID returns the active session's ID.
func (s *Service) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ActiveSessionID
}

// persistLocked writes the whole collection through the port. Persistence
// failures degrade to a log line; they never surface to the UI.
func (s *Service) persistLocked() {
	if err := s.port.Save(s.state); err != nil {
		log.Printf("[session] failed to persist state: %v", err)
	}
}

func (s *Service) emit(event Event) {
	if s.notify != nil {
		s.notify(event)
	}
}

func indexOf(sessions []chat.Session, id string) int {
	for i, session := range sessions {
		if session.ID == id {
			return i
		}
	}
	return -1
}

func hasSession(sessions []chat.Session, id string) bool {
	return indexOf(sessions, id) >= 0
}

func copySession(session chat.Session) chat.Session {
	copied := session
	copied.Messages = append([]chat.Message(nil), session.Messages...)
	return copied
}
