package amqp

import (
	"encoding/json"
	"time"
)

// AdvanceRequestMessage asks the worker to advance the tracked window to
// the given end month (MM/DD/YYYY).
type AdvanceRequestMessage struct {
	EndMonth  string    `json:"end_month"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAdvanceRequestMessage creates an advance request for the given end month
func NewAdvanceRequestMessage(endMonth, requestID string) *AdvanceRequestMessage {
	return &AdvanceRequestMessage{
		EndMonth:  endMonth,
		RequestID: requestID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *AdvanceRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AdvanceRequestMessageFromJSON creates a message from JSON bytes
func AdvanceRequestMessageFromJSON(data []byte) (*AdvanceRequestMessage, error) {
	var msg AdvanceRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// RollResultMessage reports the outcome of a completed advance.
type RollResultMessage struct {
	RequestID      string    `json:"request_id,omitempty"`
	Anchor         string    `json:"anchor"`
	MonthsIngested int       `json:"months_ingested"`
	Clamped        bool      `json:"clamped"`
	OlderRows      int       `json:"older_rows"`
	LatestRows     int       `json:"latest_rows"`
	NoOp           bool      `json:"no_op"`
	Timestamp      time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *RollResultMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
