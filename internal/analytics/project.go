package analytics

import (
	"invoicedesk/backend/internal/domain"
	"invoicedesk/backend/internal/money"
)

const totalLabel = "Total"

// Project flattens a series into display rows plus a grand total row.
func Project(series domain.Series) domain.Summary {
	rows := make([]domain.SummaryRow, 0, len(series.Buckets))
	for _, b := range series.Buckets {
		rows = append(rows, domain.SummaryRow{
			Label:      b.Label,
			Amount:     money.Format(b.Amount),
			Percentage: b.Percentage.StringFixed(1),
		})
	}

	totalShare := "0.0"
	if !series.Total.IsZero() {
		totalShare = "100.0"
	}

	return domain.Summary{
		Dimension: series.Dimension,
		Title:     series.Dimension.Title(),
		Rows:      rows,
		Total: domain.SummaryRow{
			Label:      totalLabel,
			Amount:     money.Format(series.Total),
			Percentage: totalShare,
		},
	}
}
