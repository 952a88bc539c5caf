package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wolfman30/cityvibes-assistant/cmd/mainconfig"
	"github.com/wolfman30/cityvibes-assistant/internal/app/bootstrap"
	"github.com/wolfman30/cityvibes-assistant/internal/llm"
	"github.com/wolfman30/cityvibes-assistant/pkg/logging"
)

func main() {
	cfg, envLoaded := mainconfig.Load()
	if !envLoaded {
		fmt.Println("No .env file found, using environment variables")
	}
	logger := logging.New("warn")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	persona := "You are the Cityvibes WhatsApp assistant. Keep responses brief and helpful."
	if err := cfg.LoadPrompts(); err == nil {
		persona = cfg.SystemPrompt
	} else {
		fmt.Printf("Using a built-in persona (%v)\n", err)
	}

	messages := []llm.Message{
		{Role: llm.RoleUser, Content: "Hi, do you have linen shirts in Jaipur?"},
		{Role: llm.RoleAssistant, Content: "Yes! Our Jaipur showroom stocks linen shirts in most sizes. Anything specific you are looking for?"},
		{Role: llm.RoleUser, Content: "What time does the store open tomorrow?"},
	}
	req := llm.Request{
		System:      []string{persona},
		Messages:    messages,
		MaxTokens:   200,
		Temperature: 0.2,
	}

	rule := strings.Repeat("=", 60)
	fmt.Println(rule)
	fmt.Println("Completion provider test")
	fmt.Println(rule)

	chain, err := bootstrap.BuildLLMClient(ctx, cfg, logger)
	if err != nil {
		fmt.Printf("\n❌ Failed to build provider chain: %v\n", err)
		os.Exit(1)
	}
	defer chain.Close()

	fallback := chain.Fallback
	if fallback == "" {
		fallback = "none"
	}
	fmt.Printf("\nPrimary: %s  Fallback: %s\n", chain.Primary, fallback)

	fmt.Println("\n[1] Conversation reply through the full chain...")
	runCompletion(ctx, chain.Client, req)

	fmt.Println("\n[2] Sales filter extraction...")
	start := time.Now()
	reply, err := llm.Ask(ctx, chain.Client,
		`Reply with only a JSON object with the keys "date", "location" and "product". Use null for anything not mentioned.`,
		"total sales in Jaipur yesterday", 0, 100)
	if err != nil {
		fmt.Printf("    ❌ Error: %v\n", err)
	} else {
		fmt.Printf("    ✅ (%v) %s\n", time.Since(start).Round(time.Millisecond), reply)
	}

	fmt.Println("\n" + rule)
	fmt.Println("If both calls responded, the webhook relay can reach the completion service.")
	fmt.Println("To exercise the fallback, set LLM_FALLBACK=gemini with GEMINI_API_KEY and an invalid primary key,")
	fmt.Println("then watch for 'primary completion provider failed, attempting fallback'.")
}

func runCompletion(ctx context.Context, client llm.Client, req llm.Request) {
	start := time.Now()
	resp, err := client.Complete(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Printf("    ❌ Error: %v\n", err)
		return
	}
	fmt.Printf("    ✅ Response (%v):\n", elapsed.Round(time.Millisecond))
	fmt.Printf("    %s\n", resp.Text)
	fmt.Printf("    Tokens: in=%d, out=%d\n", resp.Usage.InputTokens, resp.Usage.OutputTokens)
}
