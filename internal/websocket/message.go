package websocket

import (
	"encoding/json"
	"time"
)

// Message types sent on the live feed.
const (
	TypeHello     = "hello"
	TypeCheckedIn = "guest-checked-in"
)

// Message is one frame of the live check-in feed.
type Message struct {
	Type    string `json:"type"`
	EventID string `json:"event_id"`
	Data    any    `json:"data,omitempty"`
}

type CheckInData struct {
	GuestID     string    `json:"guest_id"`
	Name        string    `json:"name"`
	CheckInTime time.Time `json:"check_in_time"`
	ScannedBy   *string   `json:"scanned_by"`
}

// EncodeMessage encodes a Message to JSON bytes
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
