package sales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"

	"github.com/wolfman30/cityvibes-assistant/internal/llm"
	"github.com/wolfman30/cityvibes-assistant/pkg/logging"
)

// Apology is the only reply an admin sees when any step fails.
const Apology = "Sorry, I couldn't analyse the sales data right now. Please try again later."

const filterPrompt = `You turn sales questions into filters. Reply with only a JSON object with the keys "date", "location" and "product". Use null for anything the question does not mention. Copy the date exactly as written (for example "today", "yesterday" or "15/03/2024"). Location is the showroom or city name.`

// maxPromptRows caps how many matching rows are quoted to the explanation call.
const maxPromptRows = 50

var salesTracer = otel.Tracer("cityvibes.internal.sales")

// Result carries every intermediate value of one sales query.
type Result struct {
	Query   string
	Raw     FilterSpec
	Applied FilterSpec
	Report  Report
	Answer  string
}

// Analyzer runs the fetch, extract, normalize, filter and explain pipeline.
type Analyzer struct {
	source Source
	llm    llm.Client
	prompt string
	now    func() time.Time
	logger *logging.Logger
}

func NewAnalyzer(source Source, client llm.Client, explainPrompt string, logger *logging.Logger) *Analyzer {
	if source == nil {
		panic("sales: source cannot be nil")
	}
	if client == nil {
		panic("sales: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Analyzer{
		source: source,
		llm:    client,
		prompt: explainPrompt,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock overrides the reference time used for "today" and "yesterday".
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Analyze answers query in natural language. Any failure yields Apology.
func (a *Analyzer) Analyze(ctx context.Context, query string) string {
	res, err := a.Run(ctx, query)
	if err != nil {
		a.logger.Error("sales analysis failed", "error", err)
		return Apology
	}
	return res.Answer
}

// Run executes the pipeline and returns every intermediate value.
func (a *Analyzer) Run(ctx context.Context, query string) (*Result, error) {
	ctx, span := salesTracer.Start(ctx, "sales.analyze")
	defer span.End()

	rows, err := a.source.Rows(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	raw, err := a.extractFilters(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	applied := raw
	applied.Date, _ = NormalizeDate(raw.Date, a.now())

	report, err := FilterRows(rows, applied)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	answer, err := a.explain(ctx, query, applied, report)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	a.logger.Info("sales query answered",
		"date", applied.Date,
		"location", applied.Location,
		"product", applied.Product,
		"matches", len(report.Matches),
		"total", report.Total.StringFixed(2),
	)
	return &Result{Query: query, Raw: raw, Applied: applied, Report: report, Answer: answer}, nil
}

func (a *Analyzer) extractFilters(ctx context.Context, query string) (FilterSpec, error) {
	reply, err := llm.Ask(ctx, a.llm, filterPrompt, query, 0, 100)
	if err != nil {
		return FilterSpec{}, fmt.Errorf("sales: extract filters: %w", err)
	}
	return ParseFilterSpec(reply)
}

// ParseFilterSpec reads the JSON object produced by the filter prompt.
// Surrounding prose or code fences are ignored.
func ParseFilterSpec(reply string) (FilterSpec, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return FilterSpec{}, fmt.Errorf("sales: filter reply is not a JSON object: %q", reply)
	}
	body := reply[start : end+1]
	if !gjson.Valid(body) {
		return FilterSpec{}, fmt.Errorf("sales: filter reply is not valid JSON: %q", body)
	}
	obj := gjson.Parse(body)
	return FilterSpec{
		Date:     optionalField(obj, "date"),
		Location: optionalField(obj, "location"),
		Product:  optionalField(obj, "product"),
	}, nil
}

func optionalField(obj gjson.Result, key string) string {
	v := obj.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return ""
	}
	s := strings.TrimSpace(v.String())
	if strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
		return ""
	}
	return s
}

func (a *Analyzer) explain(ctx context.Context, query string, applied FilterSpec, report Report) (string, error) {
	quoted := report.Matches
	if len(quoted) > maxPromptRows {
		quoted = quoted[:maxPromptRows]
	}
	rowsJSON, err := json.Marshal(quoted)
	if err != nil {
		return "", fmt.Errorf("sales: marshal rows: %w", err)
	}
	filtersJSON, err := json.Marshal(applied)
	if err != nil {
		return "", fmt.Errorf("sales: marshal filters: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n", query)
	fmt.Fprintf(&b, "Filters applied: %s\n", filtersJSON)
	fmt.Fprintf(&b, "Matching rows (%d): %s\n", len(report.Matches), rowsJSON)
	if len(report.Matches) > len(quoted) {
		fmt.Fprintf(&b, "Only the first %d rows are listed.\n", len(quoted))
	}
	fmt.Fprintf(&b, "Total net amount: %s", report.Total.StringFixed(2))

	answer, err := llm.Ask(ctx, a.llm, a.prompt, b.String(), 0.2, 400)
	if err != nil {
		return "", fmt.Errorf("sales: explain: %w", err)
	}
	if answer == "" {
		return "", errors.New("sales: explanation was empty")
	}
	return answer, nil
}
