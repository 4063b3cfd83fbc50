package audit

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/apetros/paperbroker/internal/events"
)

// Listener persists bus events into the activity trail
type Listener struct {
	repo *Repository
	log  zerolog.Logger
}

// NewListener creates the audit event listener
func NewListener(repo *Repository, log zerolog.Logger) *Listener {
	return &Listener{
		repo: repo,
		log:  log.With().Str("component", "audit_listener").Logger(),
	}
}

// Register subscribes the listener to every event on the bus
func (l *Listener) Register(manager *events.Manager) {
	manager.SubscribeAll(l.handle)
}

func (l *Listener) handle(event events.Event) {
	entry := ActivityEntry{
		UserID:    userIDFromEvent(event.Data),
		EventType: string(event.Type),
		Source:    event.Source,
		CreatedAt: event.Timestamp,
	}

	if event.Data != nil {
		if payload, err := json.Marshal(event.Data); err == nil {
			entry.Metadata = string(payload)
		}
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if err := l.repo.RecordActivity(entry); err != nil {
		l.log.Error().Err(err).Str("event_type", string(event.Type)).Msg("Failed to persist activity")
	}
}

// userIDFromEvent pulls the acting user out of the payloads that
// carry one.
func userIDFromEvent(data events.EventData) int64 {
	switch d := data.(type) {
	case *events.UserRegisteredData:
		return d.UserID
	case *events.LoginSucceededData:
		return d.UserID
	case *events.LoginFailedData:
		return d.UserID
	case *events.SessionRevokedData:
		return d.UserID
	case *events.TradeExecutedData:
		return d.UserID
	case *events.PreferencesChangedData:
		return d.UserID
	case *events.ConfigChangedData:
		return d.UpdatedBy
	}
	return 0
}
