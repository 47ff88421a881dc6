// Package exporter writes intervention results as CSV for spreadsheet users.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"claimpulse/pkg/contracts/domain"
)

const dateLayout = "2006-01-02"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers []string
	Records [][]string
	// BOMPrefix adds a UTF-8 byte order mark so Excel detects the encoding.
	BOMPrefix bool
}

// WriteCSV writes the headers and records to w.
func WriteCSV(w io.Writer, opts WriteOptions) error {
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if len(opts.Headers) > 0 {
		if err := writer.Write(opts.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range opts.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

var candidateHeaders = []string{
	"Claim Number", "Claimant", "Adjuster", "Jurisdiction", "Policy Type",
	"Days Open", "Age Bucket", "Reserves", "Policy Limit", "Reserve Ratio",
	"Risk Flags", "Strategies", "Priority Score", "Reasoning",
}

// Candidates writes one row per candidate in priority order.
func Candidates(w io.Writer, summary *domain.InterventionSummary, bom bool) error {
	var records [][]string
	if summary != nil {
		records = make([][]string, 0, len(summary.Candidates))
		for _, c := range summary.Candidates {
			records = append(records, []string{
				c.Claim.ClaimNumber,
				c.Claim.Claimant,
				c.Claim.Adjuster,
				c.Claim.Jurisdiction,
				c.Claim.PolicyType,
				formatInt(int64(c.Derived.DaysOpen)),
				c.Derived.AgeBucket,
				formatFloat(c.Claim.Reserves),
				formatFloat(c.Derived.PolicyLimit),
				formatFloat(c.Derived.ReserveRatio),
				formatInt(int64(c.Derived.RiskFlags)),
				joinStrategies(c.Strategies),
				formatInt(int64(c.PriorityScore)),
				strings.Join(c.Reasoning, "; "),
			})
		}
	}
	return WriteCSV(w, WriteOptions{Headers: candidateHeaders, Records: records, BOMPrefix: bom})
}

var alertHeaders = []string{
	"Claim Number", "Claimant", "Adjuster", "Jurisdiction", "Reserves",
	"Strategies", "Priority Score", "Deadline", "Days Remaining",
}

// Alerts writes one row per alert.
func Alerts(w io.Writer, alerts []domain.Alert, bom bool) error {
	records := make([][]string, 0, len(alerts))
	for _, a := range alerts {
		records = append(records, []string{
			a.ClaimNumber,
			a.Claimant,
			a.Adjuster,
			a.Jurisdiction,
			formatFloat(a.Reserves),
			joinStrategies(a.Strategies),
			formatInt(int64(a.PriorityScore)),
			a.Deadline.Format(dateLayout),
			formatInt(int64(a.DaysRemaining)),
		})
	}
	return WriteCSV(w, WriteOptions{Headers: alertHeaders, Records: records, BOMPrefix: bom})
}

func joinStrategies(strategies []domain.Strategy) string {
	parts := make([]string, len(strategies))
	for i, s := range strategies {
		parts[i] = string(s)
	}
	return strings.Join(parts, "|")
}
