package aggregation

import "claimpulse/pkg/contracts/domain"

// Field lists the header labels a semantic field may appear under, in
// preference order.
type Field []string

// From returns the field's value in row.
func (f Field) From(row domain.RawRow) string {
	return row.Lookup(f...)
}

// ExposureFields maps exposure/inventory columns.
type ExposureFields struct {
	ClaimNumber  Field
	Coverage     Field
	TypeGroup    Field
	Adjuster     Field
	Team         Field
	Jurisdiction Field
	DaysOpen     Field
	Reserves     Field
	LowEval      Field
	HighEval     Field
	PainLevel    Field
	CP1          Field
}

// RiskFields maps the CP1 risk-analysis columns.
type RiskFields struct {
	ClaimNumber Field
	Coverage    Field
	Reserves    Field
	CP1         Field
	CP1Reason   Field
}

// CheckFields maps check-history columns.
type CheckFields struct {
	CheckNumber      Field
	ClaimNumber      Field
	IssuedOn         Field
	Payee            Field
	Coverage         Field
	Department       Field
	Team             Field
	ExposureCategory Field
	LineItemCategory Field
	GrossAmount      Field
	NetAmount        Field
}

// LossDevelopmentFields maps loss-development columns. A source is either
// long (one Metric/Value pair per row) or wide (one column per metric in
// Wide); a row with a metric label uses the long form.
type LossDevelopmentFields struct {
	AccidentYear     Field
	DevelopmentMonth Field
	Metric           Field
	Value            Field
	Wide             map[string]Field
}

// FieldMap bundles the mappings for every engine.
type FieldMap struct {
	Exposure        ExposureFields
	Risk            RiskFields
	Checks          CheckFields
	LossDevelopment LossDevelopmentFields
}

// DefaultFieldMap returns the header spellings seen across the known export
// variants.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		Exposure: ExposureFields{
			ClaimNumber:  Field{"Claim Number", "Claim #", "Claim", "ClaimNumber", "claim_number"},
			Coverage:     Field{"Coverage", "Coverage Type", "Policy Coverage", "coverage"},
			TypeGroup:    Field{"Type Group", "TypeGroup", "Claim Type Group", "Exposure Type", "type_group"},
			Adjuster:     Field{"Adjuster", "Adjuster Name", "Handler", "adjuster"},
			Team:         Field{"Team", "Team Name", "Unit", "team"},
			Jurisdiction: Field{"Jurisdiction", "State", "Loss State", "jurisdiction"},
			DaysOpen: Field{
				"Days Open", "Open/Closed Days", "Open Closed Days", "Days Open/Closed",
				"Claim Age", "Age (Days)", "days_open",
			},
			Reserves:  Field{"Reserves", "Open Reserves", "Total Reserves", "Reserve", "reserves"},
			LowEval:   Field{"Low Eval", "Low", "Low Evaluation", "Eval Low", "low_eval"},
			HighEval:  Field{"High Eval", "High", "High Evaluation", "Eval High", "high_eval"},
			PainLevel: Field{"Pain Level", "Pain", "Pain Lvl", "Injury Pain Level", "pain_level"},
			CP1:       Field{"CP1", "CP1 Flag", "Is CP1", "cp1"},
		},
		Risk: RiskFields{
			ClaimNumber: Field{"Claim Number", "Claim #", "Claim", "claim_number"},
			Coverage:    Field{"Coverage", "Coverage Type", "coverage"},
			Reserves:    Field{"Reserves", "Open Reserves", "Total Reserves", "reserves"},
			CP1:         Field{"CP1", "CP1 Flag", "Is CP1", "cp1"},
			CP1Reason:   Field{"CP1 Reason", "CP1 Trigger", "Reason", "cp1_reason"},
		},
		Checks: CheckFields{
			CheckNumber:      Field{"Check Number", "Check #", "Check No", "check_number"},
			ClaimNumber:      Field{"Claim Number", "Claim #", "claim_number"},
			IssuedOn:         Field{"Issue Date", "Check Date", "Issued", "issued_on"},
			Payee:            Field{"Payee", "Payee Name", "payee"},
			Coverage:         Field{"Coverage", "Coverage Type", "coverage"},
			Department:       Field{"Department", "Dept", "department"},
			Team:             Field{"Team", "Team Name", "team"},
			ExposureCategory: Field{"Exposure Category", "Exposure Cat", "exposure_category"},
			LineItemCategory: Field{"Line Item Category", "Line Item Cat", "Payment Category", "line_item_category"},
			GrossAmount:      Field{"Gross Amount", "Gross", "gross_amount"},
			NetAmount:        Field{"Net Amount", "Net", "Amount", "net_amount"},
		},
		LossDevelopment: LossDevelopmentFields{
			AccidentYear:     Field{"Accident Year", "AY", "Accident Yr", "accident_year"},
			DevelopmentMonth: Field{"Development Month", "Dev Month", "Evaluation Month", "Age", "development_month"},
			Metric:           Field{"Metric", "Metric Type", "Measure", "metric"},
			Value:            Field{"Value", "Amount", "value"},
			Wide: map[string]Field{
				domain.MetricNetPaidLoss:   {"Net Paid Loss", "Net Paid", "Paid Loss", "net_paid_loss"},
				domain.MetricClaimReserves: {"Claim Reserves", "Case Reserves", "claim_reserves"},
				domain.MetricBulkIBNR:      {"Bulk IBNR", "IBNR", "bulk_ibnr"},
				domain.MetricEarnedPremium: {"Earned Premium", "Premium", "earned_premium"},
				domain.MetricLossRatio:     {"Loss Ratio", "Stored Loss Ratio", "loss_ratio"},
			},
		},
	}
}
