package sales

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of Bill_Date.
const DateLayout = "02/01/2006"

// FilterSpec constrains a sales query. Empty fields are unconstrained.
type FilterSpec struct {
	Date     string `json:"date,omitempty"`
	Location string `json:"location,omitempty"`
	Product  string `json:"product,omitempty"`
}

// Report is the outcome of applying a FilterSpec.
type Report struct {
	Matches []Row
	Total   decimal.Decimal
}

var (
	ordinalSuffix = regexp.MustCompile(`\b(\d{1,2})(st|nd|rd|th)\b`)

	// Day-first layouts come before the month-first ones so 03/04/2024 is
	// read as 3 April.
	datedLayouts = []string{
		"2/1/2006", "2-1-2006", "2.1.2006",
		"2006-1-2", "2006/1/2",
		"2/1/06", "2-1-06",
		"2 January 2006", "2 Jan 2006",
		"January 2 2006", "Jan 2 2006",
		"1/2/2006", "1-2-2006",
	}
	yearlessLayouts = []string{
		"2/1", "2-1",
		"2 January", "2 Jan",
		"January 2", "Jan 2",
	}
)

// NormalizeDate turns a natural-language date into DateLayout. "today" and
// "yesterday" resolve against now. It reports false when raw is empty or
// cannot be parsed, which means no date constraint.
func NormalizeDate(raw string, now time.Time) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "":
		return "", false
	case "today":
		return now.Format(DateLayout), true
	case "yesterday":
		return now.AddDate(0, 0, -1).Format(DateLayout), true
	}

	s = ordinalSuffix.ReplaceAllString(s, "$1")
	s = strings.Join(strings.Fields(strings.ReplaceAll(s, ",", " ")), " ")

	for _, layout := range datedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout), true
		}
	}
	for _, layout := range yearlessLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
			return t.Format(DateLayout), true
		}
	}
	return "", false
}

// Matches reports whether row satisfies every constraint in spec.
func (spec FilterSpec) Matches(row Row) bool {
	if spec.Date != "" && row.Date != spec.Date {
		return false
	}
	if spec.Location != "" && !strings.EqualFold(strings.TrimSpace(row.Location), strings.TrimSpace(spec.Location)) {
		return false
	}
	if spec.Product != "" && !strings.EqualFold(strings.TrimSpace(row.Product), strings.TrimSpace(spec.Product)) {
		return false
	}
	return true
}

// FilterRows keeps the rows matching spec and sums their amounts. An
// unparseable amount on a matching row is an error.
func FilterRows(rows []Row, spec FilterSpec) (Report, error) {
	report := Report{Matches: []Row{}, Total: decimal.Zero}
	for _, row := range rows {
		if !spec.Matches(row) {
			continue
		}
		amount, err := row.Amount()
		if err != nil {
			return Report{}, err
		}
		report.Matches = append(report.Matches, row)
		report.Total = report.Total.Add(amount)
	}
	return report, nil
}
