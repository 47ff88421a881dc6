package aggregation

import (
	"claimpulse/internal/coerce"
	"claimpulse/pkg/contracts/domain"
)

// expenseCategories are line-item categories booked as expense rather than
// indemnity, compared after Normalize.
var expenseCategories = map[string]bool{
	"expert fees":              true,
	"legal fees":               true,
	"defense counsel":          true,
	"independent adjuster":     true,
	"independent medical exam": true,
	"ime":                      true,
	"court costs":              true,
	"court reporter":           true,
	"medical records":          true,
	"police report":            true,
	"surveillance":             true,
	"translation":              true,
	"mediation":                true,
	"appraisal":                true,
	"allocated expense":        true,
	"loss adjustment expense":  true,
}

// expenseKeywords mark a category as expense wherever they appear in it.
var expenseKeywords = []string{"legal", "expert", "peer review", "investigation"}

// IsExpense reports whether a line-item category is an expense. Everything
// else, including a blank category, is indemnity.
func IsExpense(category string) bool {
	return expenseCategories[coerce.Normalize(category)] || coerce.ContainsAny(category, expenseKeywords...)
}

// ParseChecks converts check-history rows into typed records. A missing gross
// amount falls back to the net amount.
func ParseChecks(rows []domain.RawRow, f CheckFields) []domain.CheckRecord {
	records := make([]domain.CheckRecord, 0, len(rows))
	for _, row := range rows {
		if row.IsEmpty() {
			continue
		}
		net := coerce.ParseCurrency(f.NetAmount.From(row))
		gross := net
		if row.Has(f.GrossAmount...) {
			gross = coerce.ParseCurrency(f.GrossAmount.From(row))
		}
		issued, _ := coerce.ParseDate(f.IssuedOn.From(row))

		records = append(records, domain.CheckRecord{
			CheckNumber:      coerce.Label(f.CheckNumber.From(row), ""),
			ClaimNumber:      coerce.Label(f.ClaimNumber.From(row), ""),
			IssuedOn:         issued,
			Payee:            coerce.Label(f.Payee.From(row), ""),
			Coverage:         coerce.Label(f.Coverage.From(row), UnspecifiedGroup),
			Department:       coerce.Label(f.Department.From(row), UnassignedGroup),
			Team:             coerce.Label(f.Team.From(row), UnassignedGroup),
			ExposureCategory: coerce.Label(f.ExposureCategory.From(row), UnspecifiedGroup),
			LineItemCategory: coerce.Label(f.LineItemCategory.From(row), UnspecifiedGroup),
			GrossAmount:      gross,
			NetAmount:        net,
		})
	}
	return records
}

// BuildSpend reduces check records into a SpendSummary. Each breakdown is an
// independent group-by over every check.
func BuildSpend(records []domain.CheckRecord) *domain.SpendSummary {
	s := &domain.SpendSummary{
		ByCoverage:         domain.NewBreakdown(),
		ByDepartment:       domain.NewBreakdown(),
		ByTeam:             domain.NewBreakdown(),
		ByExposureCategory: domain.NewBreakdown(),
		ByLineItemCategory: domain.NewBreakdown(),
	}

	for _, r := range records {
		s.TotalChecks++
		s.GrossTotal += r.GrossAmount
		s.NetTotal += r.NetAmount

		if IsExpense(r.LineItemCategory) {
			s.ExpenseCount++
			s.ExpenseTotal += r.NetAmount
		} else {
			s.IndemnityCount++
			s.IndemnityTotal += r.NetAmount
		}

		s.ByCoverage.AddPayment(r.Coverage, r.GrossAmount, r.NetAmount)
		s.ByDepartment.AddPayment(r.Department, r.GrossAmount, r.NetAmount)
		s.ByTeam.AddPayment(r.Team, r.GrossAmount, r.NetAmount)
		s.ByExposureCategory.AddPayment(r.ExposureCategory, r.GrossAmount, r.NetAmount)
		s.ByLineItemCategory.AddPayment(r.LineItemCategory, r.GrossAmount, r.NetAmount)
	}
	return s
}
