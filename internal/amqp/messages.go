package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"expensebook/internal/store"
)

// StateSavedMessage announces that a revision of the state reached
// storage. It carries no data; consumers read the state from storage.
type StateSavedMessage struct {
	ID          uuid.UUID `json:"id"`
	Revision    uint64    `json:"revision"`
	Entries     int       `json:"entries"`
	HasWorkbook bool      `json:"has_workbook"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewStateSavedMessage builds a message for ev with a fresh ID.
func NewStateSavedMessage(ev store.SavedEvent) *StateSavedMessage {
	ts := ev.SavedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return &StateSavedMessage{
		ID:          uuid.New(),
		Revision:    ev.Revision,
		Entries:     ev.Entries,
		HasWorkbook: ev.HasWorkbook,
		Timestamp:   ts,
	}
}

// ToJSON converts the message to JSON bytes
func (m *StateSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StateSavedMessageFromJSON decodes a message body.
func StateSavedMessageFromJSON(data []byte) (*StateSavedMessage, error) {
	var msg StateSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
