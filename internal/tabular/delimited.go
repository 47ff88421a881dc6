package tabular

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	apperrors "claimpulse/internal/errors"
	"claimpulse/internal/infrastructure"
	"claimpulse/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseResult is a parsed delimited document.
type ParseResult struct {
	Header   []string
	Rows     []domain.RawRow
	Warnings []string
}

// ParseDelimited splits data into RawRows keyed by the verbatim header labels.
// Blank rows are skipped. Short rows are padded with empty cells and long rows
// truncated, both recorded as warnings. Malformed quoting never drops a row.
// Only an unreadable or headerless document is an error.
func ParseDelimited(data []byte) (*ParseResult, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := &ParseResult{}
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, apperrors.NewParsingError("read delimited source", err)
			}
			// Keep whatever fields were read; the cells degrade like any
			// other malformed value.
			result.Warnings = append(result.Warnings, parseErr.Error())
			if len(record) == 0 {
				continue
			}
		}

		if result.Header == nil {
			if blankRecord(record) {
				continue
			}
			result.Header = record
			continue
		}
		if blankRecord(record) {
			continue
		}

		if len(record) != len(result.Header) {
			result.Warnings = append(result.Warnings,
				fieldCountWarning(line, len(record), len(result.Header)))
		}
		result.Rows = append(result.Rows, toRawRow(result.Header, record))
	}

	if result.Header == nil {
		return nil, apperrors.NewParsingError("delimited source has no header row", nil)
	}
	return result, nil
}

func toRawRow(header, record []string) domain.RawRow {
	row := make(domain.RawRow, len(header))
	for i, label := range header {
		if _, dup := row[label]; dup {
			continue
		}
		if i < len(record) {
			row[label] = record[i]
		} else {
			row[label] = ""
		}
	}
	return row
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func fieldCountWarning(line, got, want int) string {
	return fmt.Sprintf("record %d: %d fields, header has %d", line, got, want)
}

// DelimitedLoader fetches and parses delimited-text sources.
type DelimitedLoader struct {
	fetcher Fetcher
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
}

// NewDelimitedLoader creates a DelimitedLoader. metrics may be nil.
func NewDelimitedLoader(fetcher Fetcher, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *DelimitedLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &DelimitedLoader{
		fetcher: fetcher,
		logger:  logger.With(slog.String("component", "delimited_loader")),
		metrics: metrics,
	}
}

// Load fetches uri and returns its rows. source names the dataset in logs and
// metrics.
func (l *DelimitedLoader) Load(ctx context.Context, source, uri string) ([]domain.RawRow, error) {
	ctx, span := infrastructure.StartSpan(ctx, "tabular.load_delimited")
	defer span.End()

	start := time.Now()
	data, err := l.fetcher.Fetch(ctx, uri)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		l.metrics.RecordSourceLoad(ctx, source, time.Since(start), err)
		return nil, err
	}

	result, err := ParseDelimited(data)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		l.metrics.RecordSourceLoad(ctx, source, time.Since(start), err)
		return nil, err
	}

	for _, w := range result.Warnings {
		l.logger.WarnContext(ctx, "parse warning",
			slog.String("source", source),
			slog.String("warning", w))
	}
	l.metrics.RecordParseWarnings(ctx, source, len(result.Warnings))
	l.metrics.RecordSourceLoad(ctx, source, time.Since(start), nil)

	l.logger.InfoContext(ctx, "delimited source loaded",
		slog.String("source", source),
		slog.Int("rows", len(result.Rows)),
		slog.Int("warnings", len(result.Warnings)))
	return result.Rows, nil
}
