package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/wolfman30/cityvibes-assistant/pkg/logging"
)

// Escalation describes a conversation handed to the human operator.
type Escalation struct {
	ParticipantID string
	Name          string
	Number        string
	Summary       string
	LastMessage   string
}

// Service copies escalations to the operator mailbox.
type Service struct {
	email  EmailSender
	to     string
	logger *logging.Logger
}

// NewService returns a service that is a no-op when email or to is empty.
func NewService(email EmailSender, to string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, to: strings.TrimSpace(to), logger: logger}
}

// Enabled reports whether escalations will be emailed.
func (s *Service) Enabled() bool {
	return s != nil && s.email != nil && s.to != ""
}

// NotifyEscalation emails the escalation to the operator.
func (s *Service) NotifyEscalation(ctx context.Context, esc Escalation) error {
	if !s.Enabled() {
		return nil
	}
	msg := EmailMessage{
		To:      s.to,
		Subject: escalationSubject(esc),
		Body:    EscalationText(esc),
		HTML:    escalationHTML(esc),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: escalation email: %w", err)
	}
	s.logger.Info("escalation emailed", "participant", esc.ParticipantID, "to", s.to)
	return nil
}

func escalationSubject(esc Escalation) string {
	who := esc.Name
	if who == "" {
		who = esc.Number
	}
	return "Customer needs a call back: " + who
}

// EscalationText is the plain text notice sent to the operator on every
// channel.
func EscalationText(esc Escalation) string {
	name := esc.Name
	if name == "" {
		name = "Not shared"
	}
	var b strings.Builder
	b.WriteString("Escalation from the WhatsApp assistant\n")
	fmt.Fprintf(&b, "Name: %s\n", name)
	fmt.Fprintf(&b, "Number: %s\n", esc.Number)
	fmt.Fprintf(&b, "WhatsApp: %s\n", esc.ParticipantID)
	fmt.Fprintf(&b, "Summary: %s", esc.Summary)
	if esc.LastMessage != "" {
		fmt.Fprintf(&b, "\nLast message: %s", esc.LastMessage)
	}
	return b.String()
}

func escalationHTML(esc Escalation) string {
	lines := strings.Split(EscalationText(esc), "\n")
	for i, line := range lines {
		lines[i] = html.EscapeString(line)
	}
	return "<p>" + strings.Join(lines, "<br>") + "</p>"
}
