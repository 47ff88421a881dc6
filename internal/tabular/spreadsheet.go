package tabular

import (
	"bytes"
	"context"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "claimpulse/internal/errors"
	"claimpulse/internal/infrastructure"
	"claimpulse/pkg/contracts/domain"
)

// ReadGrid returns the first sheet of an xlsx workbook as raw cell text.
// Rows keep their spreadsheet positions; trailing empty cells are omitted.
func ReadGrid(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewParsingError("open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewParsingError("workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewParsingError("read sheet", err).WithContext("sheet", sheets[0])
	}
	return rows, nil
}

// SpreadsheetLoader fetches workbooks and exposes their first sheet as a grid.
type SpreadsheetLoader struct {
	fetcher Fetcher
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
}

// NewSpreadsheetLoader creates a SpreadsheetLoader. metrics may be nil.
func NewSpreadsheetLoader(fetcher Fetcher, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *SpreadsheetLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpreadsheetLoader{
		fetcher: fetcher,
		logger:  logger.With(slog.String("component", "spreadsheet_loader")),
		metrics: metrics,
	}
}

// LoadGrid fetches uri and returns the first sheet's cell grid.
func (l *SpreadsheetLoader) LoadGrid(ctx context.Context, source, uri string) ([][]string, error) {
	ctx, span := infrastructure.StartSpan(ctx, "tabular.load_spreadsheet")
	defer span.End()

	start := time.Now()
	data, err := l.fetcher.Fetch(ctx, uri)
	if err == nil {
		var grid [][]string
		if grid, err = ReadGrid(data); err == nil {
			l.metrics.RecordSourceLoad(ctx, source, time.Since(start), nil)
			l.logger.InfoContext(ctx, "spreadsheet source loaded",
				slog.String("source", source),
				slog.Int("rows", len(grid)))
			return grid, nil
		}
	}

	infrastructure.RecordError(ctx, err)
	l.metrics.RecordSourceLoad(ctx, source, time.Since(start), err)
	return nil, err
}

// LoadWeekly fetches the weekly report and assembles its snapshots using the
// first layout in layouts that matches the document.
func (l *SpreadsheetLoader) LoadWeekly(ctx context.Context, source, uri string, layouts []WeeklyLayout) (*WeeklyParse, error) {
	grid, err := l.LoadGrid(ctx, source, uri)
	if err != nil {
		return nil, err
	}

	parsed := ParseWeekly(grid, layouts)
	for _, w := range parsed.Warnings {
		l.logger.WarnContext(ctx, "parse warning",
			slog.String("source", source),
			slog.String("warning", w))
	}
	l.metrics.RecordParseWarnings(ctx, source, len(parsed.Warnings))
	l.logger.InfoContext(ctx, "weekly report assembled",
		slog.String("source", source),
		slog.String("layout", parsed.Version),
		slog.Int("snapshots", len(parsed.Snapshots)),
		slog.Int("dropped", parsed.Dropped))
	return parsed, nil
}

// GridRows keys each grid row by the first non-blank row's labels, the same
// way ParseDelimited treats a header.
func GridRows(grid [][]string) ([]domain.RawRow, error) {
	var header []string
	rows := make([]domain.RawRow, 0, len(grid))
	for _, record := range grid {
		if blankRecord(record) {
			continue
		}
		if header == nil {
			header = record
			continue
		}
		rows = append(rows, toRawRow(header, record))
	}
	if header == nil {
		return nil, apperrors.NewParsingError("sheet has no header row", nil)
	}
	return rows, nil
}

// LoadRows fetches a tabular workbook and returns its first sheet as rows.
func (l *SpreadsheetLoader) LoadRows(ctx context.Context, source, uri string) ([]domain.RawRow, error) {
	grid, err := l.LoadGrid(ctx, source, uri)
	if err != nil {
		return nil, err
	}
	return GridRows(grid)
}

// RowLoader picks the spreadsheet loader for workbook URIs and the delimited
// loader for everything else.
type RowLoader struct {
	delimited   *DelimitedLoader
	spreadsheet *SpreadsheetLoader
}

// NewRowLoader creates a RowLoader.
func NewRowLoader(delimited *DelimitedLoader, spreadsheet *SpreadsheetLoader) *RowLoader {
	return &RowLoader{delimited: delimited, spreadsheet: spreadsheet}
}

// Load returns the rows of uri.
func (r *RowLoader) Load(ctx context.Context, source, uri string) ([]domain.RawRow, error) {
	if IsWorkbook(uri) {
		return r.spreadsheet.LoadRows(ctx, source, uri)
	}
	return r.delimited.Load(ctx, source, uri)
}

// IsWorkbook reports whether uri names an xlsx workbook. Query strings and
// fragments are ignored.
func IsWorkbook(uri string) bool {
	if i := strings.IndexAny(uri, "?#"); i >= 0 {
		uri = uri[:i]
	}
	ext := strings.ToLower(path.Ext(uri))
	return ext == ".xlsx" || ext == ".xlsm"
}
