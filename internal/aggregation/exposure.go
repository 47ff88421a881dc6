package aggregation

import (
	"claimpulse/internal/coerce"
	"claimpulse/pkg/contracts/domain"
)

// Fallback group keys for blank categorical cells.
const (
	UnspecifiedGroup = "Unspecified"
	UnassignedGroup  = "Unassigned"
)

// ParseExposure converts exposure rows into typed records.
func ParseExposure(rows []domain.RawRow, f ExposureFields) []domain.ExposureRecord {
	records := make([]domain.ExposureRecord, 0, len(rows))
	for _, row := range rows {
		if row.IsEmpty() {
			continue
		}
		records = append(records, domain.ExposureRecord{
			ClaimNumber:  coerce.Label(f.ClaimNumber.From(row), ""),
			Coverage:     coerce.Label(f.Coverage.From(row), UnspecifiedGroup),
			TypeGroup:    coerce.Label(f.TypeGroup.From(row), UnspecifiedGroup),
			Adjuster:     coerce.Label(f.Adjuster.From(row), UnassignedGroup),
			Team:         coerce.Label(f.Team.From(row), UnassignedGroup),
			Jurisdiction: coerce.Label(f.Jurisdiction.From(row), ""),
			DaysOpen:     coerce.ParseInteger(f.DaysOpen.From(row), 0),
			Reserves:     coerce.ParseCurrency(f.Reserves.From(row)),
			LowEval:      coerce.ParseCurrency(f.LowEval.From(row)),
			HighEval:     coerce.ParseCurrency(f.HighEval.From(row)),
			PainLevel:    coerce.Label(f.PainLevel.From(row), ""),
			CP1:          coerce.ParseBoolean(f.CP1.From(row)),
		})
	}
	return records
}

// AgeBand returns the exposure age band for a claim open for days.
func AgeBand(days int) string {
	switch {
	case days <= 60:
		return domain.AgeBand0To60
	case days <= 180:
		return domain.AgeBand61To180
	case days <= 365:
		return domain.AgeBand181To365
	default:
		return domain.AgeBandOver365
	}
}

// BuildExposure reduces exposure records into an ExposureSummary.
func BuildExposure(records []domain.ExposureRecord) *domain.ExposureSummary {
	s := &domain.ExposureSummary{
		AgeBands:          domain.NewBreakdown(domain.AgeBands...),
		TypeGroups:        domain.NewBreakdown(),
		NoEvaluationByAge: domain.NewBreakdown(domain.AgeBands...),
	}

	for _, r := range records {
		band := AgeBand(r.DaysOpen)

		s.TotalClaims++
		s.TotalReserves += r.Reserves
		s.TotalLowEval += r.LowEval
		s.TotalHighEval += r.HighEval
		if r.CP1 {
			s.CP1Count++
		}

		s.AgeBands.AddReserve(band, r.Reserves)
		s.TypeGroups.AddReserve(r.TypeGroup, r.Reserves)

		if !r.HasEvaluation() {
			s.NoEvaluationCount++
			s.NoEvaluationReserves += r.Reserves
			s.NoEvaluationByAge.AddReserve(band, r.Reserves)
		}
	}
	return s
}
