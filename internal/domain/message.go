package domain

import "time"

// ChatMessage is one relayed chat event: constructed from an inbound
// payload, stamped with the server timestamp at fan-out, persisted once,
// broadcast once, then discarded. The relay keeps no history.
type ChatMessage struct {
	RoomID   string    `json:"roomId"`
	SenderID string    `json:"senderId"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
}
