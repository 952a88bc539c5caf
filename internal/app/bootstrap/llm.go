package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/cityvibes-assistant/internal/config"
	"github.com/wolfman30/cityvibes-assistant/internal/llm"
	"github.com/wolfman30/cityvibes-assistant/pkg/logging"
)

// LLMChain is the configured completion client plus whatever must be closed
// on shutdown.
type LLMChain struct {
	Client   llm.Client
	Primary  string
	Fallback string
	closers  []func() error
}

// Close releases provider connections.
func (c *LLMChain) Close() error {
	var firstErr error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BuildLLMClient wires the primary provider named by LLM_PROVIDER. A Gemini
// fallback is added only when LLM_FALLBACK=gemini; otherwise a failed
// completion is not sent anywhere else.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*LLMChain, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	chain := &LLMChain{Primary: cfg.LLMProvider}
	var primary llm.Client
	switch cfg.LLMProvider {
	case "openai":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			return nil, fmt.Errorf("bootstrap: OPENAI_API_KEY is required")
		}
		primary = llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.LLMTimeout)
	case "gemini":
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		chain.closers = append(chain.closers, gemini.Close)
		primary = gemini
	case "bedrock":
		if strings.TrimSpace(cfg.BedrockModelID) == "" {
			return nil, fmt.Errorf("bootstrap: BEDROCK_MODEL_ID is required")
		}
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		primary = llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
	default:
		return nil, fmt.Errorf("bootstrap: unknown llm provider %q", cfg.LLMProvider)
	}

	var fallback llm.Client
	if cfg.LLMFallback == "gemini" && cfg.LLMProvider != "gemini" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Warn("gemini fallback unavailable", "error", err)
		} else {
			chain.closers = append(chain.closers, gemini.Close)
			chain.Fallback = "gemini"
			fallback = gemini
		}
	}

	chain.Client = llm.NewFallbackClient(primary, fallback, logger)
	logger.Info("completion provider configured", "primary", chain.Primary, "fallback", chain.Fallback)
	return chain, nil
}

// LoadAWSConfig resolves region and, when set, static credentials from config.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretKey) != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}
	return awsconfig.LoadDefaultConfig(ctx, loaders...)
}
