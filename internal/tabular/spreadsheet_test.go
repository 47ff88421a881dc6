package tabular

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "claimpulse/internal/errors"
	"claimpulse/internal/shared/testutil"
)

func TestGridRows(t *testing.T) {
	grid := [][]string{
		{},
		{"Claim Number", "Reserves", "Reserves"},
		{"C-1", "1000", "9"},
		{"", " "},
		{"C-2"},
	}
	rows, err := GridRows(grid)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1000", rows[0]["Reserves"], "first duplicate label wins")
	assert.Equal(t, "C-2", rows[1]["Claim Number"])
	assert.Equal(t, "", rows[1]["Reserves"])

	_, err = GridRows([][]string{{}, {""}})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestIsWorkbook(t *testing.T) {
	tests := []struct {
		uri  string
		want bool
	}{
		{"exports/exposure.xlsx", true},
		{"https://example.test/Risk.XLSX?token=abc", true},
		{"file:///data/report.xlsm#sheet", true},
		{"exports/exposure.csv", false},
		{"https://example.test/export?format=xlsx", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsWorkbook(tt.uri), tt.uri)
	}
}

func TestRowLoaderDispatch(t *testing.T) {
	fetcher := &stubFetcher{docs: map[string][]byte{
		"exposure.csv": testutil.CSV(t, []string{"Claim Number", "Reserves"}, []string{"C-1", "100"}),
		"exposure.xlsx": testutil.Workbook(t, [][]any{
			{"Claim Number", "Reserves"},
			{"C-2", 250},
			{"C-3", "$1,000.00"},
		}),
	}}
	logger, logs := testutil.NewTestLogger(t)
	loader := NewRowLoader(
		NewDelimitedLoader(fetcher, logger, nil),
		NewSpreadsheetLoader(fetcher, logger, nil),
	)

	rows, err := loader.Load(context.Background(), "exposure", "exposure.csv")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "C-1", rows[0]["Claim Number"])

	rows, err = loader.Load(context.Background(), "exposure", "exposure.xlsx")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "250", rows[0]["Reserves"])
	assert.Equal(t, "$1,000.00", rows[1]["Reserves"])
	assert.True(t, logs.ContainsMessage("spreadsheet source loaded"))

	_, err = loader.Load(context.Background(), "exposure", "missing.xlsx")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFetch))
}
