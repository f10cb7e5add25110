package mail

import "log/slog"

// ConsoleMailer logs outgoing mail instead of sending it. Used when SMTP
// credentials are not configured.
type ConsoleMailer struct{}

func NewConsoleMailer() *ConsoleMailer {
	return &ConsoleMailer{}
}

func (m *ConsoleMailer) Send(to, subject, htmlBody string) error {
	slog.Info("email (console)", "to", to, "subject", subject, "bytes", len(htmlBody))
	return nil
}
