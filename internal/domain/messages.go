package domain

import "time"

// WebSocket message types from client.
const (
	MsgTypeJoinRoom    = "join_room"
	MsgTypeChatMessage = "chat_message"
)

// WebSocket message types to client.
const (
	MsgTypeError = "error"
)

// Error codes
const (
	ErrCodeBadRequest = "BAD_REQUEST"
)

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages.
// Field names keep the storefront client's camelCase.

type JoinRoomMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

type ChatMessageIn struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId"`
	SenderID string `json:"senderId"`
	Text     string `json:"text"`
}

// Server -> Client messages

type ChatMessageOut struct {
	Type     string    `json:"type"`
	RoomID   string    `json:"roomId"`
	SenderID string    `json:"senderId"`
	Text     string    `json:"text"`
	At       time.Time `json:"at"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}
