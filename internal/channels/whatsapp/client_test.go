package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSendText(t *testing.T) {
	var received SendRequest
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer test_token" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatal(err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SendResponse{
			MessagingProduct: "whatsapp",
			Contacts:         []SentContact{{Input: "919800000001", WaID: "919800000001"}},
			Messages:         []SentMessage{{ID: "wamid.001"}},
		})
	}))
	defer server.Close()

	client := NewClient("test_token", "1234567890", server.URL+"/", time.Second)

	resp, err := client.SendText(context.Background(), "919800000001", "Hello from Cityvibes")
	if err != nil {
		t.Fatal(err)
	}
	if path != "/1234567890/messages" {
		t.Errorf("path = %s, want /1234567890/messages", path)
	}
	if len(resp.Messages) != 1 || resp.Messages[0].ID != "wamid.001" {
		t.Errorf("unexpected response messages: %+v", resp.Messages)
	}
	if received.MessagingProduct != "whatsapp" || received.Type != "text" {
		t.Errorf("unexpected envelope: %+v", received)
	}
	if received.To != "919800000001" {
		t.Errorf("sent to = %s, want 919800000001", received.To)
	}
	if received.Text.Body != "Hello from Cityvibes" {
		t.Errorf("sent text = %s, want 'Hello from Cityvibes'", received.Text.Body)
	}
}

func TestSendTextAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(SendResponse{
			Error: &SendError{Code: 190, Message: "Invalid OAuth access token", Type: "OAuthException"},
		})
	}))
	defer server.Close()

	client := NewClient("bad_token", "1", server.URL, time.Second)

	resp, err := client.SendText(context.Background(), "919800000001", "test")
	if err == nil {
		t.Fatal("expected error for API error response")
	}
	if resp == nil || resp.Error.Code != 190 {
		t.Fatalf("expected decoded error object, got %+v", resp)
	}
}

func TestSendTextNonJSONFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient("token", "1", server.URL, time.Second)
	if _, err := client.SendText(context.Background(), "x", "y"); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("token", "1", "", 0)
	if client.graphAPIBase != DefaultGraphAPIBase {
		t.Errorf("graphAPIBase = %s, want %s", client.graphAPIBase, DefaultGraphAPIBase)
	}
	if client.httpClient.Timeout != defaultHTTPTimeout {
		t.Errorf("timeout = %s, want %s", client.httpClient.Timeout, defaultHTTPTimeout)
	}
}
