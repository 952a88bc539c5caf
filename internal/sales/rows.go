// Package sales answers admin questions about showroom sales by filtering the
// externally owned sales sheet.
package sales

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Row is one sales record as published by the sales data endpoint.
type Row struct {
	Date      string `json:"Bill_Date"`
	Location  string `json:"Showroom"`
	Product   string `json:"Product"`
	NetAmount string `json:"Net_Amount"`
}

// Amount parses NetAmount. Thousands separators are ignored.
func (r Row) Amount() (decimal.Decimal, error) {
	raw := strings.NewReplacer(",", "", " ", "").Replace(r.NetAmount)
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sales: invalid Net_Amount %q: %w", r.NetAmount, err)
	}
	return amount, nil
}

// ParseRows decodes a JSON array of row objects. Net_Amount may be a string
// or a number.
func ParseRows(data []byte) ([]Row, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("sales: response is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, errors.New("sales: expected a JSON array of rows")
	}

	rows := make([]Row, 0, len(root.Array()))
	root.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			return true
		}
		rows = append(rows, Row{
			Date:      strings.TrimSpace(item.Get("Bill_Date").String()),
			Location:  strings.TrimSpace(item.Get("Showroom").String()),
			Product:   strings.TrimSpace(item.Get("Product").String()),
			NetAmount: rawScalar(item.Get("Net_Amount")),
		})
		return true
	})
	return rows, nil
}

func rawScalar(v gjson.Result) string {
	if v.Type == gjson.Number {
		return v.Raw
	}
	return strings.TrimSpace(v.String())
}

// Source provides the full sales dataset.
type Source interface {
	Rows(ctx context.Context) ([]Row, error)
}

// HTTPSource fetches rows from a JSON endpoint on every call.
type HTTPSource struct {
	url        string
	httpClient *http.Client
}

func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPSource{url: url, httpClient: &http.Client{Timeout: timeout}}
}

func (s *HTTPSource) Rows(ctx context.Context) ([]Row, error) {
	if strings.TrimSpace(s.url) == "" {
		return nil, errors.New("sales: data url not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("sales: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sales: fetch rows: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sales: read rows: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sales: unexpected status %d", resp.StatusCode)
	}
	return ParseRows(body)
}
