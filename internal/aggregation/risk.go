package aggregation

import (
	"claimpulse/internal/coerce"
	"claimpulse/pkg/contracts/domain"
)

// ParseRisk converts risk-analysis rows into typed records. A row is CP1 when
// its flag reads true or "CP1"; exports without a flag column mark CP1 by
// filling in the reason.
func ParseRisk(rows []domain.RawRow, f RiskFields) []domain.RiskRecord {
	records := make([]domain.RiskRecord, 0, len(rows))
	for _, row := range rows {
		if row.IsEmpty() {
			continue
		}
		reason := coerce.Label(f.CP1Reason.From(row), "")

		var cp1 bool
		if row.Has(f.CP1...) {
			flag := f.CP1.From(row)
			cp1 = coerce.ParseBoolean(flag) || coerce.Normalize(flag) == "cp1"
		} else {
			cp1 = reason != ""
		}

		records = append(records, domain.RiskRecord{
			ClaimNumber: coerce.Label(f.ClaimNumber.From(row), ""),
			Coverage:    coerce.Label(f.Coverage.From(row), UnspecifiedGroup),
			Reserves:    coerce.ParseCurrency(f.Reserves.From(row)),
			CP1:         cp1,
			CP1Reason:   reason,
		})
	}
	return records
}

// BuildRisk reduces risk records into a RiskSummary. ByReason covers CP1
// claims only; CP1Rate is a percentage of all claims.
func BuildRisk(records []domain.RiskRecord) *domain.RiskSummary {
	s := &domain.RiskSummary{
		ByCoverage: domain.NewBreakdown(),
		ByReason:   domain.NewBreakdown(),
	}

	for _, r := range records {
		s.TotalClaims++
		s.TotalReserves += r.Reserves
		s.ByCoverage.AddReserve(r.Coverage, r.Reserves)

		if r.CP1 {
			s.CP1Count++
			s.CP1Reserves += r.Reserves
			s.ByReason.AddReserve(coerce.Label(r.CP1Reason, UnspecifiedGroup), r.Reserves)
		}
	}
	if s.TotalClaims > 0 {
		s.CP1Rate = float64(s.CP1Count) / float64(s.TotalClaims) * 100
	}
	return s
}
