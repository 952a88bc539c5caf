package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultSalesPrompt = "You are a sales analyst for Cityvibes showrooms. Explain the filtered sales figures you are given in two or three short, plain sentences. Quote the total exactly as provided and never invent numbers."

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// WhatsApp Cloud API
	WhatsAppToken   string
	PhoneNumberID   string
	WhatsAppAPIBase string
	VerifyToken     string
	AdminNumbers    []string
	OperatorNumber  string
	SendTimeout     time.Duration

	// Completion providers
	LLMProvider      string
	LLMFallback      string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	GeminiAPIKey     string
	GeminiModel      string
	BedrockModelID   string
	AWSRegion        string
	AWSAccessKeyID   string
	AWSSecretKey     string
	LLMTimeout       time.Duration
	ReplyMaxTokens   int
	ReplyTemperature float64

	// Prompt files, read by LoadPrompts
	SystemPromptFile string
	SalesPromptFile  string
	SystemPrompt     string
	SalesPrompt      string

	// Spreadsheet logging
	SheetWebhookURL       string
	SheetsSpreadsheetID   string
	SheetsRange           string
	SheetsCredentialsFile string
	SheetTimeout          time.Duration

	// Sales data
	SalesDataURL      string
	SalesFetchTimeout time.Duration

	// Sessions
	SessionBackend  string
	SessionMaxTurns int
	SessionTTL      time.Duration
	RedisAddr       string
	RedisPassword   string
	RedisTLS        bool

	// Escalation
	UserTriggerPhrases []string
	BotTriggerPhrases  []string

	// SendGrid email copy of escalations
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	OperatorEmail     string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "5000"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		WhatsAppToken:   getEnv("WHATSAPP_TOKEN", ""),
		PhoneNumberID:   getEnv("PHONE_NUMBER_ID", ""),
		WhatsAppAPIBase: getEnv("WHATSAPP_API_BASE", "https://graph.facebook.com/v19.0"),
		VerifyToken:     getEnv("VERIFY_TOKEN", "chatbox123"),
		AdminNumbers:    getEnvAsList("ADMIN_NUMBERS", nil),
		OperatorNumber:  getEnv("OPERATOR_NUMBER", ""),
		SendTimeout:     getEnvAsDuration("WHATSAPP_SEND_TIMEOUT", 10*time.Second),

		LLMProvider:      strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "openai"))),
		LLMFallback:      strings.ToLower(strings.TrimSpace(getEnv("LLM_FALLBACK", ""))),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		BedrockModelID:   getEnv("BEDROCK_MODEL_ID", ""),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:   getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
		LLMTimeout:       getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
		ReplyMaxTokens:   getEnvAsInt("REPLY_MAX_TOKENS", 500),
		ReplyTemperature: getEnvAsFloat("REPLY_TEMPERATURE", 0.2),

		SystemPromptFile: getEnv("SYSTEM_PROMPT_FILE", "system_prompt.txt"),
		SalesPromptFile:  getEnv("SALES_PROMPT_FILE", "sales_prompt.txt"),

		SheetWebhookURL:       getEnv("SHEET_WEBHOOK_URL", ""),
		SheetsSpreadsheetID:   getEnv("SHEETS_SPREADSHEET_ID", ""),
		SheetsRange:           getEnv("SHEETS_RANGE", "Sheet1!A:F"),
		SheetsCredentialsFile: getEnv("SHEETS_CREDENTIALS_FILE", ""),
		SheetTimeout:          getEnvAsDuration("SHEET_TIMEOUT", 5*time.Second),

		SalesDataURL:      getEnv("SALES_DATA_URL", ""),
		SalesFetchTimeout: getEnvAsDuration("SALES_FETCH_TIMEOUT", 15*time.Second),

		SessionBackend:  strings.ToLower(strings.TrimSpace(getEnv("SESSION_BACKEND", "memory"))),
		SessionMaxTurns: getEnvAsInt("SESSION_MAX_TURNS", 10),
		SessionTTL:      getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),

		UserTriggerPhrases: getEnvAsList("USER_TRIGGER_PHRASES", []string{
			"helpline", "customer care", "talk to a human", "speak to someone", "call me", "complaint",
		}),
		BotTriggerPhrases: getEnvAsList("BOT_TRIGGER_PHRASES", []string{
			"cityvibes team", "our team will contact", "connect you with",
		}),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Cityvibes Assistant"),
		OperatorEmail:     getEnv("OPERATOR_EMAIL", ""),
	}
}

// LoadPrompts reads the persona and sales prompt files. The persona prompt is
// required; the sales prompt falls back to a built-in instruction.
func (c *Config) LoadPrompts() error {
	system, err := os.ReadFile(c.SystemPromptFile)
	if err != nil {
		return fmt.Errorf("config: read system prompt %s: %w", c.SystemPromptFile, err)
	}
	c.SystemPrompt = strings.TrimSpace(string(system))
	if c.SystemPrompt == "" {
		return fmt.Errorf("config: system prompt %s is empty", c.SystemPromptFile)
	}

	c.SalesPrompt = defaultSalesPrompt
	if sales, err := os.ReadFile(c.SalesPromptFile); err == nil {
		if text := strings.TrimSpace(string(sales)); text != "" {
			c.SalesPrompt = text
		}
	}
	return nil
}

// Validate reports settings the server cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.WhatsAppToken == "" {
		errs = append(errs, errors.New("WHATSAPP_TOKEN is required"))
	}
	if c.PhoneNumberID == "" {
		errs = append(errs, errors.New("PHONE_NUMBER_ID is required"))
	}
	switch c.LLMProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for LLM_PROVIDER=openai"))
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for LLM_PROVIDER=gemini"))
		}
	case "bedrock":
		if c.BedrockModelID == "" {
			errs = append(errs, errors.New("BEDROCK_MODEL_ID is required for LLM_PROVIDER=bedrock"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	switch c.LLMFallback {
	case "":
	case "gemini":
		if c.LLMProvider == "gemini" {
			errs = append(errs, errors.New("LLM_FALLBACK=gemini cannot back up LLM_PROVIDER=gemini"))
		} else if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for LLM_FALLBACK=gemini"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_FALLBACK %q", c.LLMFallback))
	}
	if c.SessionBackend == "redis" && c.RedisAddr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required for SESSION_BACKEND=redis"))
	}
	if c.SessionMaxTurns <= 0 {
		errs = append(errs, errors.New("SESSION_MAX_TURNS must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// IsAdmin reports whether the sender id belongs to the admin set.
func (c *Config) IsAdmin(senderID string) bool {
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return false
	}
	for _, id := range c.AdminNumbers {
		if strings.TrimSpace(id) == senderID {
			return true
		}
	}
	return false
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blank items.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
