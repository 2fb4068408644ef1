package mail

import (
	"context"
	"log/slog"
)

// LogMailer writes messages to the log instead of sending them.
// Used in development, where the link is copied from the server output.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer создает LogMailer
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendVerification(ctx context.Context, to, name, link string) error {
	m.log(ctx, render(KindVerification, to, name, link))
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, name, link string) error {
	m.log(ctx, render(KindPasswordReset, to, name, link))
	return nil
}

func (m *LogMailer) log(ctx context.Context, msg Message) {
	m.logger.InfoContext(ctx, "Email not sent, log mailer in use",
		"kind", msg.Kind,
		"to", msg.To,
		"subject", msg.Subject,
		"link", msg.Link,
	)
}
