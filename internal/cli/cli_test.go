package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimpulse/internal/app"
	"claimpulse/internal/shared/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func exposureFile(t *testing.T) string {
	t.Helper()
	return testutil.WriteFile(t, "exposure.csv", testutil.CSV(t,
		[]string{"Claim Number", "Reserves", "Low Eval", "High Eval", "Days Open"},
		[]string{"C-1", testutil.Money(20000), "", "", "40"},
		[]string{"C-2", "5000", "1000", "3000", "200"},
	))
}

func TestMetricsCommand(t *testing.T) {
	out, err := run(t, "metrics", "--exposure", exposureFile(t))
	require.NoError(t, err)

	var body struct {
		Metrics struct {
			Data    map[string]interface{} `json:"data"`
			Loading bool                   `json:"loading"`
		} `json:"metrics"`
		Sources []map[string]interface{} `json:"sources"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.False(t, body.Metrics.Loading)
	assert.EqualValues(t, 2, body.Metrics.Data["total_claims"])
	assert.EqualValues(t, 25000, body.Metrics.Data["total_reserves"])
	require.NotEmpty(t, body.Sources)
}

func TestSourcesCommand(t *testing.T) {
	out, err := run(t, "sources", "--exposure", exposureFile(t))
	require.NoError(t, err)

	var statuses []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &statuses))

	var found bool
	for _, s := range statuses {
		if s["source"] == "exposure" {
			found = true
			assert.Equal(t, true, s["available"])
			assert.Nil(t, s["error"])
		}
	}
	assert.True(t, found, "exposure status missing from %s", out)
}

func TestInterventionCSV(t *testing.T) {
	intervention := testutil.WriteFile(t, "intervention.csv", testutil.CSV(t,
		[]string{"Claim Number", "Policy Type", "Days Open", "Jurisdiction", "Fatality", "Surgery", "Fracture"},
		[]string{"C-1", "BI", "20", "CA", "yes", "yes", "yes"},
		[]string{"C-2", "PD", "20", "TX", "", "", ""},
	))

	out, err := run(t, "intervention", "--intervention", intervention, "--as-of", "2026-10-19", "--format", "csv")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Claim Number", records[0][0])
	assert.Equal(t, "C-1", records[1][0])
}

func TestCommandErrors(t *testing.T) {
	exposure := exposureFile(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no sources", []string{"metrics"}, "no sources configured"},
		{"bad as-of", []string{"metrics", "--exposure", exposure, "--as-of", "19/10/2026"}, "invalid --as-of"},
		{"weekly not configured", []string{"weekly", "--exposure", exposure}, "weekly"},
		{"intervention not configured", []string{"intervention", "--exposure", exposure}, "intervention"},
		{"missing config file", []string{"metrics", "--config", "/nonexistent/claims.yaml"}, "failed to load config from file"},
		{"bad format", []string{"intervention", "--exposure", exposure, "--format", "xml"}, "invalid --format"},
		{"unexpected argument", []string{"metrics", "extra"}, "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "claimsctl "+app.Version+"\n", out)
}
