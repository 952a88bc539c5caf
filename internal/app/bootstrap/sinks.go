package bootstrap

import (
	"context"
	"strings"

	"google.golang.org/api/option"

	appconfig "github.com/wolfman30/cityvibes-assistant/internal/config"
	"github.com/wolfman30/cityvibes-assistant/internal/notify"
	"github.com/wolfman30/cityvibes-assistant/internal/sheetlog"
	"github.com/wolfman30/cityvibes-assistant/pkg/logging"
)

// BuildSheetSink returns every configured spreadsheet sink. With none
// configured, entries are dropped.
func BuildSheetSink(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) sheetlog.Sink {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil {
		return sheetlog.NopSink{}
	}

	var sinks sheetlog.Multi
	if url := strings.TrimSpace(cfg.SheetWebhookURL); url != "" {
		sinks = append(sinks, sheetlog.NewWebhookSink(url, cfg.SheetTimeout))
		logger.Info("sheet webhook logging enabled")
	}
	if cfg.SheetsSpreadsheetID != "" && cfg.SheetsCredentialsFile != "" {
		sink, err := sheetlog.NewSheetsSink(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsRange,
			option.WithCredentialsFile(cfg.SheetsCredentialsFile),
		)
		if err != nil {
			logger.Warn("google sheets logging disabled", "error", err)
		} else {
			sinks = append(sinks, sink)
			logger.Info("google sheets logging enabled", "spreadsheet_id", cfg.SheetsSpreadsheetID)
		}
	}

	switch len(sinks) {
	case 0:
		logger.Warn("no sheet logging configured; conversation turns will not be recorded")
		return sheetlog.NopSink{}
	case 1:
		return sinks[0]
	default:
		return sinks
	}
}

// BuildNotifier returns the escalation email service. It is disabled without
// an operator email; without a SendGrid key escalation emails are only logged.
func BuildNotifier(cfg *appconfig.Config, logger *logging.Logger) *notify.Service {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil || cfg.OperatorEmail == "" {
		return notify.NewService(nil, "", logger)
	}
	if cfg.SendGridAPIKey == "" {
		logger.Warn("SENDGRID_API_KEY not set; escalation emails will be logged only", "to", cfg.OperatorEmail)
		return notify.NewService(notify.NewStubEmailSender(logger), cfg.OperatorEmail, logger)
	}
	sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	logger.Info("escalation email enabled", "to", cfg.OperatorEmail)
	return notify.NewService(sender, cfg.OperatorEmail, logger)
}
