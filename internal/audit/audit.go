package audit

import (
	"context"

	"github.com/Asaphis/AsaphisCommerce/pkg/log"
)

// Audit actions for the chat relay.
const (
	ActionConnect       = "chat.connect"
	ActionJoinRoom      = "chat.join_room"
	ActionSendMessage   = "chat.send_message"
	ActionPersistFailed = "chat.persist_failed"
	ActionDisconnect    = "chat.disconnect"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, clientID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldClientID, clientID).
		Msg(msg)
}

// LogWithDetail emits an audit log with an extra detail field.
func LogWithDetail(ctx context.Context, action string, clientID string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldClientID, clientID).
		Str(FieldDetail, detail).
		Msg(msg)
}
