package llm

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type stubChatClient struct {
	response openai.ChatCompletionResponse
	err      error
	last     openai.ChatCompletionRequest
}

func (s *stubChatClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.last = req
	return s.response, s.err
}

func TestOpenAIClient_BuildsMessages(t *testing.T) {
	stub := &stubChatClient{
		response: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "Namaste! How can I help?"}},
			},
		},
	}
	client := newOpenAIClient(stub, "", time.Second)

	resp, err := client.Complete(context.Background(), Request{
		System: []string{"persona", "  "},
		Messages: []Message{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
			{Role: RoleUser, Content: "store timings?"},
		},
		MaxTokens:   500,
		Temperature: 0.2,
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if resp.Text != "Namaste! How can I help?" {
		t.Fatalf("unexpected reply %q", resp.Text)
	}
	if stub.last.Model != defaultOpenAIModel {
		t.Fatalf("expected default model, got %s", stub.last.Model)
	}
	if len(stub.last.Messages) != 4 {
		t.Fatalf("expected blank system block to be dropped, got %d messages", len(stub.last.Messages))
	}
	if stub.last.Messages[0].Role != openai.ChatMessageRoleSystem || stub.last.Messages[0].Content != "persona" {
		t.Fatalf("expected persona first, got %+v", stub.last.Messages[0])
	}
	if stub.last.Messages[2].Role != openai.ChatMessageRoleAssistant {
		t.Fatalf("expected assistant role preserved, got %s", stub.last.Messages[2].Role)
	}
	if stub.last.MaxTokens != 500 || stub.last.Temperature != 0.2 {
		t.Fatalf("unexpected sampling params: %+v", stub.last)
	}
}

func TestOpenAIClient_ZeroTemperatureIsSent(t *testing.T) {
	stub := &stubChatClient{
		response: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "None"}}},
		},
	}
	client := newOpenAIClient(stub, "gpt-test", time.Second)
	if _, err := client.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}}); err != nil {
		t.Fatal(err)
	}
	if stub.last.Temperature != math.SmallestNonzeroFloat32 {
		t.Fatalf("expected smallest non-zero temperature, got %v", stub.last.Temperature)
	}
	if stub.last.Model != "gpt-test" {
		t.Fatalf("expected configured model, got %s", stub.last.Model)
	}
}

func TestOpenAIClient_Errors(t *testing.T) {
	client := newOpenAIClient(&stubChatClient{err: errors.New("boom")}, "", time.Second)
	if _, err := client.Complete(context.Background(), Request{}); err == nil {
		t.Fatal("expected provider error")
	}

	client = newOpenAIClient(&stubChatClient{}, "", time.Second)
	if _, err := client.Complete(context.Background(), Request{}); err == nil {
		t.Fatal("expected error for empty choices")
	}

	client = newOpenAIClient(&stubChatClient{}, "", time.Second)
	if _, err := client.Complete(context.Background(), Request{Messages: []Message{{Role: "tool", Content: "x"}}}); err == nil {
		t.Fatal("expected error for unsupported role")
	}
}

func TestOpenAIClient_HTTP(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"We open at 10am."},"finish_reason":"stop"}],"usage":{"prompt_tokens":5,"completion_tokens":4,"total_tokens":9}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient("sk-test", srv.URL+"/", "gpt-4.1-mini", 5*time.Second)
	text, err := Ask(context.Background(), client, "persona", "when do you open?", 0.2, 100)
	if err != nil {
		t.Fatalf("Ask returned error: %v", err)
	}
	if text != "We open at 10am." {
		t.Fatalf("unexpected reply %q", text)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotBody["model"] != "gpt-4.1-mini" {
		t.Fatalf("unexpected model %v", gotBody["model"])
	}
}
