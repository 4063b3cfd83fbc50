// Package events provides the in-process event bus used to decouple
// modules from their observers. Services emit typed events; listeners
// such as the audit trail subscribe without the services knowing about
// them.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies a category of event
type EventType string

const (
	UserRegistered     EventType = "user.registered"
	LoginSucceeded     EventType = "auth.login_succeeded"
	LoginFailed        EventType = "auth.login_failed"
	SessionRevoked     EventType = "auth.session_revoked"
	SessionsSwept      EventType = "auth.sessions_swept"
	TradeExecuted      EventType = "trading.trade_executed"
	PreferencesChanged EventType = "preferences.changed"
	ConfigChanged      EventType = "config.changed"
	BackupCompleted    EventType = "reliability.backup_completed"
	ErrorOccurred      EventType = "system.error"
)

// Listener receives events. Listeners must not block; slow consumers
// should buffer internally.
type Listener func(event Event)

// Manager is a synchronous fan-out event bus. Emit delivers to every
// subscriber in registration order on the caller's goroutine, so a
// listener panic is recovered rather than taking down the emitter.
type Manager struct {
	mu        sync.RWMutex
	listeners map[EventType][]Listener
	all       []Listener
	log       zerolog.Logger
}

// NewManager creates an event manager
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		listeners: make(map[EventType][]Listener),
		log:       log.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a listener for a single event type
func (m *Manager) Subscribe(eventType EventType, listener Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners[eventType] = append(m.listeners[eventType], listener)
}

// SubscribeAll registers a listener for every event type
func (m *Manager) SubscribeAll(listener Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.all = append(m.all, listener)
}

// Emit builds an event from typed data and delivers it to subscribers
func (m *Manager) Emit(source string, data EventData) {
	event := Event{
		Type:      data.EventType(),
		Source:    source,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	m.mu.RLock()
	typed := m.listeners[event.Type]
	all := m.all
	m.mu.RUnlock()

	for _, l := range typed {
		m.deliver(l, event)
	}
	for _, l := range all {
		m.deliver(l, event)
	}
}

func (m *Manager) deliver(l Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().
				Str("event_type", string(event.Type)).
				Interface("panic", r).
				Msg("Event listener panicked")
		}
	}()
	l(event)
}
