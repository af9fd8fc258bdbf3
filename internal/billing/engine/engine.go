package engine

import (
	"github.com/milkround/milkround/internal/billing/domain"
	deliverydomain "github.com/milkround/milkround/internal/delivery/domain"
	"github.com/shopspring/decimal"
)

// two decimal places for money and litres on output
const moneyScale = 2

// ResolveRate picks the billing rate for one delivery: the record
// level override wins, then the customer default, then zero.
func ResolveRate(recordRate *decimal.Decimal, customerRate decimal.Decimal) decimal.Decimal {
	if recordRate != nil && recordRate.IsPositive() {
		return *recordRate
	}
	if customerRate.IsPositive() {
		return customerRate
	}
	return decimal.Zero
}

// Resolve turns raw deliveries into billing records with rates and
// amounts decided. customerRates maps customer id to default rate;
// customerNames maps customer id to display name.
func Resolve(deliveries []*deliverydomain.Delivery, customerRates map[int64]decimal.Decimal, customerNames map[int64]string) []domain.ResolvedRecord {
	records := make([]domain.ResolvedRecord, 0, len(deliveries))
	for _, d := range deliveries {
		rec := domain.ResolvedRecord{
			DeliveryDate: d.DeliveryDate,
			CustomerID:   d.CustomerID,
			Status:       d.Status,
			Quantity:     d.Quantity,
		}
		var customerRate decimal.Decimal
		if d.CustomerID != nil {
			customerRate = customerRates[int64(*d.CustomerID)]
			rec.CustomerName = customerNames[int64(*d.CustomerID)]
		}
		rec.Rate = ResolveRate(d.RatePerLitre, customerRate)
		if d.Status == deliverydomain.StatusDelivered {
			rec.Amount = d.Quantity.Mul(rec.Rate).Round(moneyScale)
		}
		records = append(records, rec)
	}
	return records
}

// Aggregate folds resolved records into bill totals. Delivered days
// contribute litres and amounts; absent days count but bill nothing;
// mixed and no-entry days are skipped entirely. The average rate is
// taken over delivered days with a non-zero rate.
func Aggregate(records []domain.ResolvedRecord) domain.Summary {
	var summary domain.Summary
	var rateSum decimal.Decimal
	var rateCount int64

	for _, rec := range records {
		switch rec.Status {
		case deliverydomain.StatusDelivered:
			summary.DeliveredDays++
			summary.TotalLitres = summary.TotalLitres.Add(rec.Quantity)
			summary.TotalAmount = summary.TotalAmount.Add(rec.Amount)
			if rec.Rate.IsPositive() {
				rateSum = rateSum.Add(rec.Rate)
				rateCount++
			}
		case deliverydomain.StatusAbsent:
			summary.AbsentDays++
		}
	}

	if rateCount > 0 {
		summary.AverageRate = rateSum.Div(decimal.NewFromInt(rateCount)).Round(moneyScale)
	}
	summary.TotalLitres = summary.TotalLitres.Round(moneyScale)
	summary.TotalAmount = summary.TotalAmount.Round(moneyScale)
	return summary
}
