package events

import (
	"encoding/json"
	"time"
)

// EventData is the interface all typed event payloads implement.
// Each payload knows its own event type, so emitters cannot mismatch
// payload and type.
type EventData interface {
	EventType() EventType
}

// Event is a typed event with its delivery metadata
type Event struct {
	Type      EventType `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Data      EventData `json:"data"`
}

// MarshalJSON serializes the payload through its concrete type
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	aux := struct {
		Data json.RawMessage `json:"data,omitempty"`
		alias
	}{alias: alias(e)}

	if e.Data != nil {
		dataBytes, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		aux.Data = dataBytes
	}
	return json.Marshal(aux)
}

// UserRegisteredData contains data for UserRegistered events
type UserRegisteredData struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

func (d *UserRegisteredData) EventType() EventType { return UserRegistered }

// LoginSucceededData contains data for LoginSucceeded events
type LoginSucceededData struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

func (d *LoginSucceededData) EventType() EventType { return LoginSucceeded }

// LoginFailedData contains data for LoginFailed events.
// UserID is zero when the username is unknown.
type LoginFailedData struct {
	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username"`
}

func (d *LoginFailedData) EventType() EventType { return LoginFailed }

// SessionRevokedData contains data for SessionRevoked events
type SessionRevokedData struct {
	UserID int64 `json:"user_id"`
}

func (d *SessionRevokedData) EventType() EventType { return SessionRevoked }

// SessionsSweptData contains data for SessionsSwept events
type SessionsSweptData struct {
	Removed int64 `json:"removed"`
}

func (d *SessionsSweptData) EventType() EventType { return SessionsSwept }

// TradeExecutedData contains data for TradeExecuted events
type TradeExecutedData struct {
	UserID      int64   `json:"user_id"`
	OrderID     string  `json:"order_id"`
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"`
	Shares      float64 `json:"shares"`
	Price       float64 `json:"price"`
	TotalAmount float64 `json:"total_amount"`
	Commission  float64 `json:"commission"`
}

func (d *TradeExecutedData) EventType() EventType { return TradeExecuted }

// PreferencesChangedData contains data for PreferencesChanged events
type PreferencesChangedData struct {
	UserID int64    `json:"user_id"`
	Fields []string `json:"fields"`
}

func (d *PreferencesChangedData) EventType() EventType { return PreferencesChanged }

// ConfigChangedData contains data for ConfigChanged events
type ConfigChangedData struct {
	Key       string `json:"key"`
	UpdatedBy int64  `json:"updated_by,omitempty"`
}

func (d *ConfigChangedData) EventType() EventType { return ConfigChanged }

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	BackupID  string `json:"backup_id"`
	SizeBytes int64  `json:"size_bytes"`
	Uploaded  bool   `json:"uploaded"`
}

func (d *BackupCompletedData) EventType() EventType { return BackupCompleted }

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (d *ErrorEventData) EventType() EventType { return ErrorOccurred }
