package aggregation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimpulse/internal/shared/testutil"
	"claimpulse/pkg/contracts/domain"
)

var fields = DefaultFieldMap()

func TestAgeBand(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{-3, domain.AgeBand0To60},
		{0, domain.AgeBand0To60},
		{60, domain.AgeBand0To60},
		{61, domain.AgeBand61To180},
		{180, domain.AgeBand61To180},
		{181, domain.AgeBand181To365},
		{365, domain.AgeBand181To365},
		{366, domain.AgeBandOver365},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AgeBand(tt.days), "days=%d", tt.days)
	}
}

func TestParseExposureAliases(t *testing.T) {
	rows := []domain.RawRow{
		{"Claim Number": "C-1", "Days Open ": "45", "Reserves": "$1,000.00", "Low": "0", "High": "0", "Type Group": "BI"},
		{"Claim #": "C-2", "Open/Closed Days": "200", "Open Reserves": "(blank)", "CP1": "Yes"},
		{},
	}
	records := ParseExposure(rows, fields.Exposure)
	require.Len(t, records, 2)

	assert.Equal(t, "C-1", records[0].ClaimNumber)
	assert.Equal(t, 45, records[0].DaysOpen)
	assert.InDelta(t, 1000, records[0].Reserves, 1e-9)
	assert.Equal(t, "BI", records[0].TypeGroup)
	assert.False(t, records[0].HasEvaluation())

	assert.Equal(t, "C-2", records[1].ClaimNumber)
	assert.Equal(t, 200, records[1].DaysOpen)
	assert.Zero(t, records[1].Reserves)
	assert.True(t, records[1].CP1)
	assert.Equal(t, UnspecifiedGroup, records[1].TypeGroup)
}

func TestBuildExposure(t *testing.T) {
	records := []domain.ExposureRecord{
		{TypeGroup: "BI", DaysOpen: 10, Reserves: 10000, LowEval: 5000, HighEval: 9000, CP1: true},
		{TypeGroup: "BI", DaysOpen: 100, Reserves: 20000},
		{TypeGroup: "PD", DaysOpen: 400, Reserves: 3000, HighEval: 1},
		{TypeGroup: "UM", DaysOpen: 300, Reserves: 7000},
	}
	s := BuildExposure(records)

	assert.Equal(t, 4, s.TotalClaims)
	assert.InDelta(t, 40000, s.TotalReserves, 1e-9)
	assert.InDelta(t, 5000, s.TotalLowEval, 1e-9)
	assert.InDelta(t, 9001, s.TotalHighEval, 1e-9)
	assert.Equal(t, 1, s.CP1Count)
	assert.Equal(t, 2, s.NoEvaluationCount)
	assert.InDelta(t, 27000, s.NoEvaluationReserves, 1e-9)

	assert.Equal(t, domain.AgeBands, s.AgeBands.Keys(), "bands keep fixed order")
	band, ok := s.AgeBands.Get(domain.AgeBand61To180)
	require.True(t, ok)
	assert.Equal(t, 1, band.Count)
	assert.InDelta(t, 20000, band.Reserves, 1e-9)

	assert.Equal(t, []string{"BI", "PD", "UM"}, s.TypeGroups.Keys())
	bi, _ := s.TypeGroups.Get("BI")
	assert.Equal(t, 2, bi.Count)
	assert.InDelta(t, 30000, bi.Reserves, 1e-9)

	noEval, _ := s.NoEvaluationByAge.Get(domain.AgeBand181To365)
	assert.InDelta(t, 7000, noEval.Reserves, 1e-9)
}

func TestBuildExposureEmpty(t *testing.T) {
	s := BuildExposure(nil)
	assert.Zero(t, s.TotalClaims)
	assert.Equal(t, 4, s.AgeBands.Len())
	assert.Zero(t, s.AgeBands.Sum().Count)
}

// randomExposureRows produces rows with messy but parseable cells.
func randomExposureRows(r *rand.Rand, n int) []domain.RawRow {
	groups := []string{"BI", "PD", "UM", " ", "Med Pay"}
	rows := make([]domain.RawRow, n)
	for i := range rows {
		reserves := float64(r.IntN(5_000_000)) / 100
		low := 0.0
		if r.IntN(2) == 0 {
			low = float64(r.IntN(100000))
		}
		rows[i] = domain.RawRow{
			"Claim Number": fmt.Sprintf("C-%d", i),
			"Type Group":   groups[r.IntN(len(groups))],
			"Days Open":    fmt.Sprint(r.IntN(900)),
			"Reserves":     testutil.Money(reserves),
			"Low Eval":     fmt.Sprint(low),
			"High Eval":    "0",
		}
	}
	return rows
}

func TestExposureBreakdownsPartitionTotals(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for trial := 0; trial < 20; trial++ {
		rows := randomExposureRows(r, 1+r.IntN(200))
		s := BuildExposure(ParseExposure(rows, fields.Exposure))

		var direct float64
		for _, rec := range ParseExposure(rows, fields.Exposure) {
			direct += rec.Reserves
		}
		assert.InDelta(t, direct, s.TotalReserves, 1e-6)
		assert.InDelta(t, direct, s.AgeBands.Sum().Reserves, 1e-6)
		assert.InDelta(t, direct, s.TypeGroups.Sum().Reserves, 1e-6)
		assert.Equal(t, s.TotalClaims, s.AgeBands.Sum().Count)
		assert.Equal(t, s.TotalClaims, s.TypeGroups.Sum().Count)
		assert.InDelta(t, s.NoEvaluationReserves, s.NoEvaluationByAge.Sum().Reserves, 1e-6)
		assert.Equal(t, s.NoEvaluationCount, s.NoEvaluationByAge.Sum().Count)
	}
}

func TestClassifyPain(t *testing.T) {
	tests := []struct {
		pain string
		want string
	}{
		{"", CategoryPending},
		{"(blank)", CategoryPending},
		{"Pending", CategoryPending},
		{"pending review - high", CategoryPending},
		{"5+ severe", CategoryHigh},
		{"5+", CategoryHigh},
		{"High", CategoryHigh},
		{"Severe", CategoryHigh},
		{"7", CategoryHigh},
		{"5.5 - moderate", CategoryHigh},
		{"4", CategoryOther},
		{"Low", CategoryOther},
		{"moderate", CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.pain, func(t *testing.T) {
			got, reason := ClassifyPain(tt.pain)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestDecisionsScenario(t *testing.T) {
	rows := []domain.RawRow{
		{"Claim Number": "C-1", "Reserves": "20000", "Low Eval": "0", "High Eval": "0", "Pain Level": "Pending"},
		{"Claim Number": "C-2", "Reserves": "5000", "Low Eval": "1000", "High Eval": "2000"},
		{"Claim Number": "C-3", "Reserves": "15000", "Low Eval": "0", "High Eval": "0", "Pain Level": "5+ severe"},
	}

	s := BuildDecisions(ParseExposure(rows, fields.Exposure), DefaultDecisionThreshold)

	assert.Equal(t, 2, s.FlaggedCount)
	assert.InDelta(t, 35000, s.FlaggedReserves, 1e-9)
	require.Len(t, s.Flagged, 2)
	assert.Equal(t, "C-1", s.Flagged[0].ClaimNumber)
	assert.Equal(t, CategoryPending, s.Flagged[0].Category)
	assert.Equal(t, "C-3", s.Flagged[1].ClaimNumber)
	assert.Equal(t, CategoryHigh, s.Flagged[1].Category)

	pending, _ := s.ByCategory.Get(CategoryPending)
	high, _ := s.ByCategory.Get(CategoryHigh)
	other, _ := s.ByCategory.Get(CategoryOther)
	assert.Equal(t, 1, pending.Count)
	assert.Equal(t, 1, high.Count)
	assert.Zero(t, other.Count)
	assert.InDelta(t, s.FlaggedReserves, s.ByCategory.Sum().Reserves, 1e-9)
}

func TestDecisionsThresholdIsInclusive(t *testing.T) {
	tests := []struct {
		reserves float64
		flagged  bool
	}{
		{14999.99, false},
		{15000.00, true},
		{15000.01, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.reserves), func(t *testing.T) {
			s := BuildDecisions([]domain.ExposureRecord{{ClaimNumber: "C", Reserves: tt.reserves}}, DefaultDecisionThreshold)
			assert.Equal(t, tt.flagged, s.FlaggedCount == 1)
		})
	}
}

func TestDecisionsExcludeEvaluatedClaims(t *testing.T) {
	s := BuildDecisions([]domain.ExposureRecord{
		{Reserves: 50000, LowEval: 0, HighEval: 10},
		{Reserves: 50000, LowEval: -5},
	}, DefaultDecisionThreshold)
	assert.Zero(t, s.FlaggedCount)
	assert.NotNil(t, s.Flagged)
}

func TestDecisionsStableOrder(t *testing.T) {
	s := BuildDecisions([]domain.ExposureRecord{
		{ClaimNumber: "A", Reserves: 20000},
		{ClaimNumber: "B", Reserves: 30000},
		{ClaimNumber: "C", Reserves: 20000},
		{ClaimNumber: "D", Reserves: 20000},
	}, DefaultDecisionThreshold)

	var order []string
	for _, f := range s.Flagged {
		order = append(order, f.ClaimNumber)
	}
	assert.Equal(t, []string{"B", "A", "C", "D"}, order)
}

func TestIsExpense(t *testing.T) {
	tests := []struct {
		category string
		want     bool
	}{
		{"Expert Fees", true},
		{"Outside Legal Counsel", true},
		{"PEER REVIEW", true},
		{"Field Investigation", true},
		{"Court Costs", true},
		{" IME ", true},
		{"Indemnity Payment", false},
		{"Medical Payment", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsExpense(tt.category), tt.category)
	}
}

func TestSpendScenario(t *testing.T) {
	rows := []domain.RawRow{
		{"Line Item Category": "Expert Fees", "Net Amount": "500", "Gross Amount": "550", "Coverage": "BI"},
		{"Line Item Category": "Indemnity Payment", "Net Amount": "1000", "Coverage": "BI"},
	}
	s := BuildSpend(ParseChecks(rows, fields.Checks))

	assert.InDelta(t, 500, s.ExpenseTotal, 1e-9)
	assert.InDelta(t, 1000, s.IndemnityTotal, 1e-9)
	assert.Equal(t, 1, s.ExpenseCount)
	assert.Equal(t, 1, s.IndemnityCount)
	assert.InDelta(t, 1550, s.GrossTotal, 1e-9, "missing gross falls back to net")

	bi, ok := s.ByCoverage.Get("BI")
	require.True(t, ok)
	assert.Equal(t, 2, bi.Count)
	assert.InDelta(t, 1500, bi.Net, 1e-9)
}

func TestSpendBreakdownsPartitionTotals(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	cats := []string{"Expert Fees", "Indemnity Payment", "Legal", "", "Medical"}
	depts := []string{"Casualty", "Property", ""}

	rows := make([]domain.RawRow, 300)
	for i := range rows {
		net := float64(r.IntN(1_000_000)-100_000) / 100
		rows[i] = domain.RawRow{
			"Net Amount":         testutil.Money(net),
			"Gross Amount":       testutil.Money(net * 1.1),
			"Line Item Category": cats[r.IntN(len(cats))],
			"Exposure Category":  cats[r.IntN(len(cats))],
			"Department":         depts[r.IntN(len(depts))],
			"Team":               fmt.Sprintf("T%d", r.IntN(4)),
			"Coverage":           []string{"BI", "PD"}[r.IntN(2)],
		}
	}
	s := BuildSpend(ParseChecks(rows, fields.Checks))

	assert.InDelta(t, s.NetTotal, s.ExpenseTotal+s.IndemnityTotal, 1e-6)
	assert.Equal(t, s.TotalChecks, s.ExpenseCount+s.IndemnityCount)
	for name, b := range map[string]*domain.Breakdown{
		"coverage":  s.ByCoverage,
		"dept":      s.ByDepartment,
		"team":      s.ByTeam,
		"exposure":  s.ByExposureCategory,
		"line item": s.ByLineItemCategory,
	} {
		sum := b.Sum()
		assert.InDelta(t, s.NetTotal, sum.Net, 1e-6, name)
		assert.InDelta(t, s.GrossTotal, sum.Gross, 1e-6, name)
		assert.Equal(t, s.TotalChecks, sum.Count, name)
	}
}

func TestParseChecksDates(t *testing.T) {
	records := ParseChecks([]domain.RawRow{{"Issue Date": "3/15/2024", "Net": "10"}}, fields.Checks)
	require.Len(t, records, 1)
	assert.True(t, records[0].IssuedOn.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, UnassignedGroup, records[0].Department)
}

func TestBuildRisk(t *testing.T) {
	rows := []domain.RawRow{
		{"Claim Number": "C-1", "Coverage": "BI", "Reserves": "10000", "CP1": "Yes", "CP1 Reason": "Surgery"},
		{"Claim Number": "C-2", "Coverage": "BI", "Reserves": "5000", "CP1": "No"},
		{"Claim Number": "C-3", "Coverage": "PD", "Reserves": "2500", "CP1": "CP1", "CP1 Reason": ""},
		{"Claim Number": "C-4", "Coverage": "PD", "Reserves": "2500", "CP1": "0"},
	}
	s := BuildRisk(ParseRisk(rows, fields.Risk))

	assert.Equal(t, 4, s.TotalClaims)
	assert.Equal(t, 2, s.CP1Count)
	assert.InDelta(t, 50, s.CP1Rate, 1e-9)
	assert.InDelta(t, 20000, s.TotalReserves, 1e-9)
	assert.InDelta(t, 12500, s.CP1Reserves, 1e-9)
	assert.Equal(t, []string{"Surgery", UnspecifiedGroup}, s.ByReason.Keys())
	assert.InDelta(t, s.TotalReserves, s.ByCoverage.Sum().Reserves, 1e-9)
	assert.InDelta(t, s.CP1Reserves, s.ByReason.Sum().Reserves, 1e-9)
}

func TestParseRiskWithoutFlagColumn(t *testing.T) {
	records := ParseRisk([]domain.RawRow{
		{"Claim Number": "C-1", "CP1 Reason": "Fatality"},
		{"Claim Number": "C-2", "CP1 Reason": " "},
	}, fields.Risk)
	require.Len(t, records, 2)
	assert.True(t, records[0].CP1)
	assert.False(t, records[1].CP1)
}

func TestBuildRiskEmpty(t *testing.T) {
	s := BuildRisk(nil)
	assert.Zero(t, s.CP1Rate)
}

func TestLossDevelopmentLatestMonthWins(t *testing.T) {
	rows := []domain.RawRow{
		{"Accident Year": "2022", "Development Month": "12", "Metric": "Net Paid Loss", "Value": "100"},
		{"Accident Year": "2022", "Development Month": "24", "Metric": "Net Paid Loss", "Value": "250"},
		{"Accident Year": "2022", "Development Month": "24", "Metric": "Case Reserves", "Value": "50"},
		{"Accident Year": "2022", "Development Month": "12", "Metric": "Case Reserves", "Value": "400"},
		{"Accident Year": "2022", "Development Month": "24", "Metric": "IBNR", "Value": "25"},
		{"Accident Year": "2022", "Development Month": "24", "Metric": "Earned Premium", "Value": "$1,000"},
		{"Accident Year": "2021", "Development Month": "36", "Metric": "Net Paid Loss", "Value": "900"},
		{"Accident Year": "2021", "Development Month": "36", "Metric": "Loss Ratio", "Value": "72.5%"},
		{"Accident Year": "2021", "Development Month": "36", "Metric": "Unknown Metric", "Value": "1"},
		{"Accident Year": "", "Development Month": "36", "Metric": "Net Paid Loss", "Value": "1"},
	}
	s := BuildLossDevelopment(ParseLossDevelopment(rows, fields.LossDevelopment))

	require.Len(t, s.Years, 2)
	y2021, y2022 := s.Years[0], s.Years[1]
	assert.Equal(t, 2021, y2021.AccidentYear, "years ascending")

	assert.Equal(t, 24, y2022.DevelopmentMonth)
	assert.InDelta(t, 250, y2022.NetPaidLoss, 1e-9)
	assert.InDelta(t, 50, y2022.ClaimReserves, 1e-9)
	assert.InDelta(t, 325, y2022.UltimateIncurred, 1e-9)
	assert.Equal(t, domain.LossRatioComputed, y2022.LossRatioSource)
	assert.InDelta(t, 32.5, y2022.LossRatio, 1e-9)

	assert.Equal(t, domain.LossRatioStored, y2021.LossRatioSource)
	assert.InDelta(t, 72.5, y2021.LossRatio, 1e-9)

	assert.InDelta(t, 1225, s.TotalUltimateIncurred, 1e-9)
	assert.InDelta(t, 1000, s.TotalEarnedPremium, 1e-9)
}

func TestLossDevelopmentWideForm(t *testing.T) {
	rows := []domain.RawRow{
		{"AY": "2023", "Dev Month": "12", "Net Paid": "100", "Claim Reserves": "200", "Bulk IBNR": "", "Earned Premium": "0", "Loss Ratio": "0"},
		{"AY": "2023", "Dev Month": "6", "Net Paid": "999"},
	}
	s := BuildLossDevelopment(ParseLossDevelopment(rows, fields.LossDevelopment))
	require.Len(t, s.Years, 1)

	y := s.Years[0]
	assert.InDelta(t, 100, y.NetPaidLoss, 1e-9, "month 12 beats month 6")
	assert.InDelta(t, 300, y.UltimateIncurred, 1e-9)
	assert.Equal(t, domain.LossRatioComputed, y.LossRatioSource, "non-positive stored ratio is ignored")
	assert.Zero(t, y.LossRatio, "no premium means no computed ratio")
}

func TestBuildWeeklyDedupsAndSorts(t *testing.T) {
	jan5 := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	jan12 := jan5.AddDate(0, 0, 7)

	s := BuildWeekly("v1", []domain.WeeklySnapshot{
		{WeekOf: jan12, TotalReserves: 1},
		{WeekOf: jan5, TotalReserves: 2},
		{WeekOf: jan12, TotalReserves: 3},
	}, 1)

	require.Len(t, s.Snapshots, 2)
	assert.True(t, s.Snapshots[0].WeekOf.Equal(jan5))
	assert.InDelta(t, 3, s.Snapshots[1].TotalReserves, 1e-9, "later duplicate wins")
	assert.Equal(t, "v1", s.Layout)
	assert.Equal(t, 1, s.Dropped)

	prior, ok := s.Prior()
	require.True(t, ok)
	assert.True(t, prior.WeekOf.Equal(jan5))
}

func TestEngineUsesConfiguredThreshold(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	e := New(logger, Config{Fields: fields, DecisionThreshold: 1000})

	rows := []domain.RawRow{{"Claim Number": "C-1", "Reserves": "1000"}}
	s := e.Decisions(context.Background(), rows)
	assert.Equal(t, 1, s.FlaggedCount)
	assert.Equal(t, 1000.0, s.Threshold)
	assert.True(t, logs.ContainsMessage("decisions aggregated"))

	assert.Equal(t, DefaultDecisionThreshold, New(nil, Config{Fields: fields}).thresh)
}
