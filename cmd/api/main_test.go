package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	appconfig "github.com/wolfman30/cityvibes-assistant/internal/config"
	"github.com/wolfman30/cityvibes-assistant/pkg/logging"
)

func TestSetupRelayMetricsExposesMetrics(t *testing.T) {
	handler, m := setupRelayMetrics()
	if handler == nil || m == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	m.ObserveInbound("customer", "ok")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "cityvibes_relay_inbound_webhook_total") {
		t.Fatalf("expected inbound counter to be exported")
	}
}

type upstreams struct {
	mu         sync.Mutex
	sent       []map[string]any
	sheetRows  []map[string]string
	llmPrompts []string
}

func newUpstreams(t *testing.T) (*upstreams, *httptest.Server, *httptest.Server, *httptest.Server) {
	t.Helper()
	u := &upstreams{}

	openAI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		u.mu.Lock()
		u.llmPrompts = append(u.llmPrompts, body.Messages[0].Content)
		u.mu.Unlock()

		reply := "Our stores open at 10am."
		if strings.Contains(body.Messages[0].Content, "Extract the person's name") {
			reply = "None"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "c1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": reply}, "finish_reason": "stop"}},
		})
	}))
	t.Cleanup(openAI.Close)

	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		u.mu.Lock()
		u.sent = append(u.sent, body)
		u.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.1"}]}`))
	}))
	t.Cleanup(graph.Close)

	sheet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var row map[string]string
		_ = json.NewDecoder(r.Body).Decode(&row)
		u.mu.Lock()
		u.sheetRows = append(u.sheetRows, row)
		u.mu.Unlock()
	}))
	t.Cleanup(sheet.Close)

	return u, openAI, graph, sheet
}

func TestBuildHandlerEndToEnd(t *testing.T) {
	u, openAI, graph, sheet := newUpstreams(t)

	cfg := &appconfig.Config{
		VerifyToken:     "chatbox123",
		WhatsAppToken:   "wa-token",
		PhoneNumberID:   "1234",
		WhatsAppAPIBase: graph.URL,
		SendTimeout:     time.Second,
		LLMProvider:     "openai",
		OpenAIAPIKey:    "sk-test",
		OpenAIBaseURL:   openAI.URL,
		LLMTimeout:      time.Second,
		ReplyMaxTokens:  500,
		SystemPrompt:    "You are the Cityvibes assistant.",
		SalesPrompt:     "Explain sales.",
		SheetWebhookURL: sheet.URL,
		SheetTimeout:    time.Second,
		SessionBackend:  "memory",
		SessionMaxTurns: 10,
	}
	metricsHandler, relayMetrics := setupRelayMetrics()
	handler, cleanup, err := buildHandler(context.Background(), cfg, logging.Discard(), metricsHandler, relayMetrics)
	if err != nil {
		t.Fatalf("buildHandler: %v", err)
	}
	defer cleanup()

	body := `{"entry":[{"changes":[{"value":{"messages":[{"from":"919800000001","type":"text","text":{"body":"When do you open?"}}]}}]}]}`
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))

	if rr.Code != http.StatusOK || rr.Body.String() != "OK" {
		t.Fatalf("expected 200 OK, got %d %q", rr.Code, rr.Body.String())
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.sent) != 1 {
		t.Fatalf("expected one outbound send, got %d", len(u.sent))
	}
	if u.sent[0]["to"] != "919800000001" {
		t.Fatalf("unexpected recipient %v", u.sent[0]["to"])
	}
	text, _ := u.sent[0]["text"].(map[string]any)
	if text["body"] != "Our stores open at 10am." {
		t.Fatalf("unexpected reply body %v", text["body"])
	}
	if len(u.sheetRows) != 2 || u.sheetRows[0]["sender"] != "User" || u.sheetRows[1]["sender"] != "Bot" {
		t.Fatalf("expected user and bot sheet rows, got %v", u.sheetRows)
	}
}

func TestBuildHandlerRejectsUnknownSessionBackend(t *testing.T) {
	cfg := &appconfig.Config{
		LLMProvider:    "openai",
		OpenAIAPIKey:   "sk-test",
		SessionBackend: "sqlite",
	}
	metricsHandler, relayMetrics := setupRelayMetrics()
	if _, _, err := buildHandler(context.Background(), cfg, logging.Discard(), metricsHandler, relayMetrics); err == nil {
		t.Fatalf("expected error for unknown session backend")
	}
}
