// Package extract pulls single facts out of free text with one completion
// call each. Every extractor falls back to a documented default instead of
// returning an error.
package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/wolfman30/cityvibes-assistant/internal/llm"
	"github.com/wolfman30/cityvibes-assistant/pkg/logging"
)

// SummaryUnavailable is returned by Summary when no summary could be produced.
const SummaryUnavailable = "Summary not available"

const (
	namePrompt    = "Extract the person's name from the message. Reply with the name only. If no name is present, reply with None."
	numberPrompt  = "Extract the phone number from the message. Reply with the number only, digits and an optional leading +. If no phone number is present, reply with None."
	summaryPrompt = "Summarize this customer conversation in 2-3 sentences for a human support agent. Mention what the customer wants and anything already promised."
)

var phoneChars = regexp.MustCompile(`[^0-9+]`)

// Turn is the minimal view of a conversation turn needed for summaries.
type Turn struct {
	Role string
	Text string
}

// Extractor runs the name, number and summary prompts.
type Extractor struct {
	llm    llm.Client
	logger *logging.Logger
}

func New(client llm.Client, logger *logging.Logger) *Extractor {
	if client == nil {
		panic("extract: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Extractor{llm: client, logger: logger}
}

// Name returns the person's name mentioned in text, if any.
func (e *Extractor) Name(ctx context.Context, text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	reply, err := llm.Ask(ctx, e.llm, namePrompt, text, 0, 20)
	if err != nil {
		e.logger.Warn("name extraction failed", "error", err)
		return "", false
	}
	name := strings.Trim(reply, " \t\n\"'.")
	if isNone(name) {
		return "", false
	}
	return name, true
}

// Number returns the phone number mentioned in text, if any.
func (e *Extractor) Number(ctx context.Context, text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	reply, err := llm.Ask(ctx, e.llm, numberPrompt, text, 0, 20)
	if err != nil {
		e.logger.Warn("number extraction failed", "error", err)
		return "", false
	}
	if isNone(reply) {
		return "", false
	}
	number := phoneChars.ReplaceAllString(reply, "")
	if len(strings.TrimPrefix(number, "+")) < 6 {
		return "", false
	}
	return number, true
}

// Summary condenses the turns into 2-3 sentences, or SummaryUnavailable.
func (e *Extractor) Summary(ctx context.Context, turns []Turn) string {
	transcript := Transcript(turns)
	if transcript == "" {
		return SummaryUnavailable
	}
	reply, err := llm.Ask(ctx, e.llm, summaryPrompt, transcript, 0, 200)
	if err != nil {
		e.logger.Warn("summary failed", "error", err)
		return SummaryUnavailable
	}
	if reply == "" {
		return SummaryUnavailable
	}
	return reply
}

// Transcript renders turns as "User: ..." / "Bot: ..." lines.
func Transcript(turns []Turn) string {
	var b strings.Builder
	for _, t := range turns {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		speaker := "User"
		if t.Role == llm.RoleAssistant {
			speaker = "Bot"
		}
		b.WriteString(speaker)
		b.WriteString(": ")
		b.WriteString(text)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func isNone(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "null", "n/a", "not found", "unknown":
		return true
	}
	return false
}
