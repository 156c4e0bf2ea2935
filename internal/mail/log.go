package mail

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogSender writes messages to the structured log instead of delivering
// them. It is the development driver: the token link lands in the log where
// a developer can click it.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) (string, error) {
	if _, err := subjectFor(msg.BodyKind); err != nil {
		return "", &DeliveryError{Driver: "log", Err: err}
	}
	body, err := renderBody(msg)
	if err != nil {
		return "", &DeliveryError{Driver: "log", Err: err}
	}
	id := uuid.NewString()
	s.logger.InfoContext(ctx, "mail delivered to log",
		"message_id", id,
		"to", msg.To,
		"subject", msg.Subject,
		"kind", msg.BodyKind.String(),
		"token_url", msg.TokenURL,
	)
	s.logger.DebugContext(ctx, "mail body", "message_id", id, "body", body)
	return id, nil
}
