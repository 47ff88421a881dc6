package aggregation

import (
	"sort"
	"strings"

	"claimpulse/internal/coerce"
	"claimpulse/pkg/contracts/domain"
)

// lossMetricOrder fixes the order wide columns are read in.
var lossMetricOrder = []string{
	domain.MetricNetPaidLoss,
	domain.MetricClaimReserves,
	domain.MetricBulkIBNR,
	domain.MetricEarnedPremium,
	domain.MetricLossRatio,
}

var lossMetricLabels = map[string]string{
	"net paid loss":     domain.MetricNetPaidLoss,
	"net paid":          domain.MetricNetPaidLoss,
	"paid loss":         domain.MetricNetPaidLoss,
	"net_paid_loss":     domain.MetricNetPaidLoss,
	"claim reserves":    domain.MetricClaimReserves,
	"case reserves":     domain.MetricClaimReserves,
	"reserves":          domain.MetricClaimReserves,
	"claim_reserves":    domain.MetricClaimReserves,
	"bulk ibnr":         domain.MetricBulkIBNR,
	"ibnr":              domain.MetricBulkIBNR,
	"bulk_ibnr":         domain.MetricBulkIBNR,
	"earned premium":    domain.MetricEarnedPremium,
	"premium":           domain.MetricEarnedPremium,
	"earned_premium":    domain.MetricEarnedPremium,
	"loss ratio":        domain.MetricLossRatio,
	"stored loss ratio": domain.MetricLossRatio,
	"loss_ratio":        domain.MetricLossRatio,
}

// LossMetric maps a source metric label onto a metric type.
func LossMetric(label string) (string, bool) {
	m, ok := lossMetricLabels[coerce.Normalize(label)]
	return m, ok
}

func lossValue(metric, text string) float64 {
	if metric == domain.MetricLossRatio {
		return coerce.ParsePercent(text)
	}
	return coerce.ParseCurrency(text)
}

// ParseLossDevelopment converts loss-development rows into triangle points.
// Rows without an accident year and metrics with unknown labels are skipped.
// Loss ratios are percentages.
func ParseLossDevelopment(rows []domain.RawRow, f LossDevelopmentFields) []domain.LossDevelopmentPoint {
	var points []domain.LossDevelopmentPoint
	for _, row := range rows {
		year := coerce.ParseInteger(f.AccidentYear.From(row), 0)
		if year <= 0 {
			continue
		}
		month := coerce.ParseInteger(f.DevelopmentMonth.From(row), 0)

		if label := f.Metric.From(row); strings.TrimSpace(label) != "" {
			metric, ok := LossMetric(label)
			if !ok {
				continue
			}
			points = append(points, domain.LossDevelopmentPoint{
				AccidentYear:     year,
				DevelopmentMonth: month,
				Metric:           metric,
				Value:            lossValue(metric, f.Value.From(row)),
			})
			continue
		}

		for _, metric := range lossMetricOrder {
			text := f.Wide[metric].From(row)
			if strings.TrimSpace(text) == "" {
				continue
			}
			points = append(points, domain.LossDevelopmentPoint{
				AccidentYear:     year,
				DevelopmentMonth: month,
				Metric:           metric,
				Value:            lossValue(metric, text),
			})
		}
	}
	return points
}

type latestPoint struct {
	month int
	value float64
}

// BuildLossDevelopment keeps, per accident year and metric, the point with
// the latest development month (a later row wins a tie), then derives
// ultimate incurred and the loss ratio. A stored loss ratio is used when it
// is positive; otherwise the ratio is computed from earned premium, and is 0
// when there is no premium.
func BuildLossDevelopment(points []domain.LossDevelopmentPoint) *domain.LossDevelopmentSummary {
	latest := make(map[int]map[string]latestPoint)
	for _, p := range points {
		byMetric, ok := latest[p.AccidentYear]
		if !ok {
			byMetric = make(map[string]latestPoint)
			latest[p.AccidentYear] = byMetric
		}
		if cur, ok := byMetric[p.Metric]; ok && cur.month > p.DevelopmentMonth {
			continue
		}
		byMetric[p.Metric] = latestPoint{month: p.DevelopmentMonth, value: p.Value}
	}

	years := make([]int, 0, len(latest))
	for y := range latest {
		years = append(years, y)
	}
	sort.Ints(years)

	s := &domain.LossDevelopmentSummary{Years: make([]domain.AccidentYearDevelopment, 0, len(years))}
	for _, y := range years {
		byMetric := latest[y]
		dev := domain.AccidentYearDevelopment{AccidentYear: y}
		for _, lp := range byMetric {
			dev.DevelopmentMonth = max(dev.DevelopmentMonth, lp.month)
		}
		dev.NetPaidLoss = byMetric[domain.MetricNetPaidLoss].value
		dev.ClaimReserves = byMetric[domain.MetricClaimReserves].value
		dev.BulkIBNR = byMetric[domain.MetricBulkIBNR].value
		dev.EarnedPremium = byMetric[domain.MetricEarnedPremium].value
		dev.UltimateIncurred = dev.NetPaidLoss + dev.ClaimReserves + dev.BulkIBNR

		if stored := byMetric[domain.MetricLossRatio].value; stored > 0 {
			dev.LossRatio = stored
			dev.LossRatioSource = domain.LossRatioStored
		} else {
			dev.LossRatioSource = domain.LossRatioComputed
			if dev.EarnedPremium > 0 {
				dev.LossRatio = dev.UltimateIncurred / dev.EarnedPremium * 100
			}
		}

		s.Years = append(s.Years, dev)
		s.TotalUltimateIncurred += dev.UltimateIncurred
		s.TotalEarnedPremium += dev.EarnedPremium
	}
	return s
}
