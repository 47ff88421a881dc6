package intervention

import (
	"strings"

	"claimpulse/internal/aggregation"
	"claimpulse/internal/coerce"
	"claimpulse/pkg/contracts/domain"
)

// Fields maps the early-intervention export columns.
type Fields struct {
	ClaimNumber   aggregation.Field
	Claimant      aggregation.Field
	Adjuster      aggregation.Field
	PolicyType    aggregation.Field
	Status        aggregation.Field
	Jurisdiction  aggregation.Field
	LossDate      aggregation.Field
	DaysOpen      aggregation.Field
	Reserves      aggregation.Field
	LowEval       aggregation.Field
	HighEval      aggregation.Field
	MedicalBilled aggregation.Field
	MedicalPaid   aggregation.Field
	FaultRating   aggregation.Field
	ActiveDemand  aggregation.Field
	TriggerTotal  aggregation.Field

	Fatality            aggregation.Field
	Surgery             aggregation.Field
	Hospitalization     aggregation.Field
	LossOfConsciousness aggregation.Field
	LifeCarePlanner     aggregation.Field
	Fracture            aggregation.Field
	BrainInjury         aggregation.Field
	SpinalInjury        aggregation.Field
	Injections          aggregation.Field
	PermanentImpairment aggregation.Field
	LostWages           aggregation.Field
}

// DefaultFields returns the known header spellings of the intervention export.
func DefaultFields() Fields {
	return Fields{
		ClaimNumber:   aggregation.Field{"Claim Number", "Claim #", "Claim", "claim_number"},
		Claimant:      aggregation.Field{"Claimant", "Claimant Name", "claimant"},
		Adjuster:      aggregation.Field{"Adjuster", "Adjuster Name", "Handler", "adjuster"},
		PolicyType:    aggregation.Field{"Policy Type", "Coverage", "Coverage Type", "policy_type"},
		Status:        aggregation.Field{"Status", "Claim Status", "Exposure Status", "status"},
		Jurisdiction:  aggregation.Field{"Jurisdiction", "State", "Loss State", "jurisdiction"},
		LossDate:      aggregation.Field{"Loss Date", "Date of Loss", "DOL", "loss_date"},
		DaysOpen:      aggregation.Field{"Days Open", "Open/Closed Days", "Claim Age", "days_open"},
		Reserves:      aggregation.Field{"Reserves", "Open Reserves", "Total Reserves", "reserves"},
		LowEval:       aggregation.Field{"Low Eval", "Low", "low_eval"},
		HighEval:      aggregation.Field{"High Eval", "High", "high_eval"},
		MedicalBilled: aggregation.Field{"Medical Billed", "Med Billed", "Medical Bills", "medical_billed"},
		MedicalPaid:   aggregation.Field{"Medical Paid", "Med Paid", "medical_paid"},
		FaultRating:   aggregation.Field{"Fault Rating", "Liability", "Liability Decision", "fault_rating"},
		ActiveDemand:  aggregation.Field{"Active Demand", "Demand Received", "In Negotiation", "active_demand"},
		TriggerTotal:  aggregation.Field{"Trigger Total", "Total Triggers", "Risk Flag Count", "trigger_total"},

		Fatality:            aggregation.Field{"Fatality", "Death", "fatality"},
		Surgery:             aggregation.Field{"Surgery", "Surgery Indicated", "surgery"},
		Hospitalization:     aggregation.Field{"Hospitalization", "Hospitalized", "Inpatient", "hospitalization"},
		LossOfConsciousness: aggregation.Field{"Loss of Consciousness", "LOC", "loss_of_consciousness"},
		LifeCarePlanner:     aggregation.Field{"Life Care Planner", "LCP", "life_care_planner"},
		Fracture:            aggregation.Field{"Fracture", "Fractures", "fracture"},
		BrainInjury:         aggregation.Field{"Brain Injury", "TBI", "brain_injury"},
		SpinalInjury:        aggregation.Field{"Spinal Injury", "Spine Injury", "spinal_injury"},
		Injections:          aggregation.Field{"Injections", "Injection", "injections"},
		PermanentImpairment: aggregation.Field{"Permanent Impairment", "Impairment Rating", "permanent_impairment"},
		LostWages:           aggregation.Field{"Lost Wages", "Wage Loss", "lost_wages"},
	}
}

// ParseClaims converts intervention rows into ClaimFacts. A missing or
// unreadable days-open cell is recorded as -1 so Derive can fall back to the
// loss date.
func ParseClaims(rows []domain.RawRow, f Fields) []domain.ClaimFacts {
	claims := make([]domain.ClaimFacts, 0, len(rows))
	for _, row := range rows {
		if row.IsEmpty() {
			continue
		}
		lossDate, _ := coerce.ParseDate(f.LossDate.From(row))

		var trigger *int
		if text := strings.TrimSpace(f.TriggerTotal.From(row)); text != "" {
			if n := coerce.ParseInteger(text, -1); n >= 0 {
				trigger = &n
			}
		}

		flag := func(field aggregation.Field) bool {
			return coerce.ParseBoolean(field.From(row))
		}

		claims = append(claims, domain.ClaimFacts{
			ClaimNumber:   coerce.Label(f.ClaimNumber.From(row), ""),
			Claimant:      coerce.Label(f.Claimant.From(row), ""),
			Adjuster:      coerce.Label(f.Adjuster.From(row), ""),
			PolicyType:    coerce.Label(f.PolicyType.From(row), ""),
			Status:        coerce.Label(f.Status.From(row), ""),
			Jurisdiction:  strings.ToUpper(coerce.Label(f.Jurisdiction.From(row), "")),
			LossDate:      lossDate,
			DaysOpen:      coerce.ParseInteger(f.DaysOpen.From(row), -1),
			Reserves:      coerce.ParseCurrency(f.Reserves.From(row)),
			LowEval:       coerce.ParseCurrency(f.LowEval.From(row)),
			HighEval:      coerce.ParseCurrency(f.HighEval.From(row)),
			MedicalBilled: coerce.ParseCurrency(f.MedicalBilled.From(row)),
			MedicalPaid:   coerce.ParseCurrency(f.MedicalPaid.From(row)),
			FaultRating:   coerce.Label(f.FaultRating.From(row), ""),
			ActiveDemand:  flag(f.ActiveDemand),
			TriggerTotal:  trigger,
			Indicators: domain.RiskIndicators{
				Fatality:            flag(f.Fatality),
				Surgery:             flag(f.Surgery),
				Hospitalization:     flag(f.Hospitalization),
				LossOfConsciousness: flag(f.LossOfConsciousness),
				LifeCarePlanner:     flag(f.LifeCarePlanner),
				Fracture:            flag(f.Fracture),
				BrainInjury:         flag(f.BrainInjury),
				SpinalInjury:        flag(f.SpinalInjury),
				Injections:          flag(f.Injections),
				PermanentImpairment: flag(f.PermanentImpairment),
				LostWages:           flag(f.LostWages),
			},
		})
	}
	return claims
}
