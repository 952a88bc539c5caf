// Package relay routes inbound WhatsApp messages to the sales analyst or the
// conversation engine and runs the escalation check.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/cityvibes-assistant/internal/channels/whatsapp"
	"github.com/wolfman30/cityvibes-assistant/internal/escalation"
	"github.com/wolfman30/cityvibes-assistant/internal/notify"
	"github.com/wolfman30/cityvibes-assistant/internal/sheetlog"
	"github.com/wolfman30/cityvibes-assistant/pkg/logging"
)

const maxWebhookBody = 1 << 20

// Route labels used in metrics and span attributes.
const (
	RouteAdmin    = "admin"
	RouteCustomer = "customer"
	RouteIgnored  = "ignored"
	RouteInvalid  = "invalid"
)

var relayTracer = otel.Tracer("cityvibes.internal.relay")

// Replier answers a customer turn with the conversation engine.
type Replier interface {
	Converse(ctx context.Context, sessionID, userText string) (string, error)
}

// SalesAnalyst answers an admin's sales question.
type SalesAnalyst interface {
	Analyze(ctx context.Context, query string) string
}

// Messenger delivers a text message to a participant.
type Messenger interface {
	SendText(ctx context.Context, to, body string) (*whatsapp.SendResponse, error)
}

// NameExtractor finds a customer name in free text.
type NameExtractor interface {
	Name(ctx context.Context, text string) (string, bool)
}

// Escalator forwards a conversation to the operator.
type Escalator interface {
	Escalate(ctx context.Context, participantID, inboundText string) (notify.Escalation, error)
}

// Recorder is the subset of relay metrics the handler reports to.
type Recorder interface {
	ObserveInbound(route, status string)
	ObserveOutbound(kind, status string)
	ObserveSheetLog(sender, status string)
	ObserveEscalation(status string)
	ObserveWebhookLatency(route string, seconds float64)
}

// Deps wires the handler's collaborators. Sink, Names, Escalator and Metrics
// are optional. A nil IsAdmin treats every sender as a customer.
type Deps struct {
	Engine    Replier
	Sales     SalesAnalyst
	Sender    Messenger
	Sink      sheetlog.Sink
	Names     NameExtractor
	Trigger   escalation.Trigger
	Escalator Escalator
	IsAdmin   func(senderID string) bool
	Metrics   Recorder
	Logger    *logging.Logger
	Now       func() time.Time
}

// Handler serves POST /webhook.
type Handler struct {
	engine    Replier
	sales     SalesAnalyst
	sender    Messenger
	sink      sheetlog.Sink
	names     NameExtractor
	trigger   escalation.Trigger
	escalator Escalator
	isAdmin   func(senderID string) bool
	metrics   Recorder
	logger    *logging.Logger
	now       func() time.Time
}

func NewHandler(deps Deps) *Handler {
	if deps.Engine == nil {
		panic("relay: conversation engine cannot be nil")
	}
	if deps.Sales == nil {
		panic("relay: sales analyst cannot be nil")
	}
	if deps.Sender == nil {
		panic("relay: sender cannot be nil")
	}
	if deps.Sink == nil {
		deps.Sink = sheetlog.NopSink{}
	}
	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.IsAdmin == nil {
		deps.IsAdmin = func(string) bool { return false }
	}
	return &Handler{
		engine:    deps.Engine,
		sales:     deps.Sales,
		sender:    deps.Sender,
		sink:      deps.Sink,
		names:     deps.Names,
		trigger:   deps.Trigger,
		escalator: deps.Escalator,
		isAdmin:   deps.IsAdmin,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       deps.Now,
	}
}

// Webhook handles an inbound delivery. Deliveries without messages are
// acknowledged with no side effects.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := relayTracer.Start(r.Context(), "relay.webhook")
	defer span.End()

	route := RouteInvalid
	defer func() {
		h.metrics.ObserveWebhookLatency(route, time.Since(start).Seconds())
	}()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.metrics.ObserveInbound(route, "error")
		writeError(w, "failed to read request body")
		return
	}

	msg, err := whatsapp.ParseInbound(body)
	switch {
	case errors.Is(err, whatsapp.ErrNoMessages):
		route = RouteIgnored
		h.metrics.ObserveInbound(route, "ok")
		writeOK(w)
		return
	case err != nil:
		h.logger.Warn("rejected webhook payload", "error", err)
		span.RecordError(err)
		h.metrics.ObserveInbound(route, "error")
		writeError(w, err.Error())
		return
	}

	route = h.routeFor(msg.From)
	span.SetAttributes(
		attribute.String("cityvibes.route", route),
		attribute.String("whatsapp.message_id", msg.MessageID),
	)
	h.logger.Debug("inbound whatsapp message",
		"route", route,
		"from", msg.From,
		"message_id", msg.MessageID,
		"sent_at", msg.Timestamp,
	)

	if err := h.Process(ctx, msg); err != nil {
		h.logger.Error("webhook processing failed", "route", route, "from", msg.From, "message_id", msg.MessageID, "error", err)
		span.RecordError(err)
		h.metrics.ObserveInbound(route, "error")
		writeError(w, err.Error())
		return
	}
	h.metrics.ObserveInbound(route, "ok")
	writeOK(w)
}

// Process answers one inbound message. Only a conversation engine failure is
// returned; logging, sending and escalation are best-effort.
func (h *Handler) Process(ctx context.Context, msg *whatsapp.InboundMessage) error {
	var reply string
	if h.routeFor(msg.From) == RouteAdmin {
		reply = h.sales.Analyze(ctx, msg.Text)
		h.send(ctx, "sales", msg.From, reply)
	} else {
		name := h.extractName(ctx, msg)
		h.log(ctx, msg.From, name, sheetlog.SenderUser, msg.Text)

		var err error
		reply, err = h.engine.Converse(ctx, msg.From, msg.Text)
		if err != nil {
			return err
		}

		h.log(ctx, msg.From, name, sheetlog.SenderBot, reply)
		h.send(ctx, "reply", msg.From, reply)
	}

	if h.trigger.Fires(msg.Text, reply) {
		h.escalate(ctx, msg)
	}
	return nil
}

func (h *Handler) routeFor(from string) string {
	if h.isAdmin(from) {
		return RouteAdmin
	}
	return RouteCustomer
}

func (h *Handler) extractName(ctx context.Context, msg *whatsapp.InboundMessage) string {
	if h.names != nil {
		if name, ok := h.names.Name(ctx, msg.Text); ok {
			return name
		}
	}
	return msg.ProfileName
}

func (h *Handler) log(ctx context.Context, phone, name, sender, text string) {
	err := h.sink.Append(ctx, sheetlog.Entry{
		At:          h.now(),
		PhoneNumber: phone,
		Name:        name,
		Sender:      sender,
		Message:     text,
	})
	if err != nil {
		h.logger.Warn("failed to log to sheet", "sender", sender, "from", phone, "error", err)
		h.metrics.ObserveSheetLog(sender, "error")
		return
	}
	h.metrics.ObserveSheetLog(sender, "ok")
}

func (h *Handler) send(ctx context.Context, kind, to, body string) {
	if _, err := h.sender.SendText(ctx, to, body); err != nil {
		h.logger.Warn("failed to send whatsapp message", "kind", kind, "to", to, "error", err)
		h.metrics.ObserveOutbound(kind, "error")
		return
	}
	h.metrics.ObserveOutbound(kind, "ok")
}

func (h *Handler) escalate(ctx context.Context, msg *whatsapp.InboundMessage) {
	if h.escalator == nil {
		h.logger.Warn("escalation triggered but no escalator configured", "from", msg.From)
		h.metrics.ObserveEscalation("skipped")
		return
	}
	if _, err := h.escalator.Escalate(ctx, msg.From, msg.Text); err != nil {
		h.logger.Warn("escalation failed", "from", msg.From, "error", err)
		h.metrics.ObserveEscalation("error")
		return
	}
	h.metrics.ObserveEscalation("ok")
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}

func writeError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

type nopRecorder struct{}

func (nopRecorder) ObserveInbound(string, string) {}
func (nopRecorder) ObserveOutbound(string, string) {}
func (nopRecorder) ObserveSheetLog(string, string) {}
func (nopRecorder) ObserveEscalation(string) {}
func (nopRecorder) ObserveWebhookLatency(string, float64) {}
