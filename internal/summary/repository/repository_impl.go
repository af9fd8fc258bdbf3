package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	deliverydomain "github.com/milkround/milkround/internal/delivery/domain"
	"github.com/milkround/milkround/internal/summary/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

type periodRow struct {
	Period        string
	TotalLitres   decimal.Decimal
	DeliveredDays int
	AbsentDays    int
	AverageRate   decimal.NullDecimal
}

func (r *repo) AggregatePeriod(ctx context.Context, db *gorm.DB, accountID snowflake.ID, period string) (*domain.PeriodSummary, error) {
	var row periodRow
	err := db.WithContext(ctx).
		Table("deliveries").
		Select(`period,
			COALESCE(SUM(CASE WHEN status = 'delivered' THEN quantity ELSE 0 END), 0) AS total_litres,
			COUNT(CASE WHEN status = 'delivered' THEN 1 END) AS delivered_days,
			COUNT(CASE WHEN status = 'absent' THEN 1 END) AS absent_days,
			AVG(CASE WHEN status = 'delivered' THEN rate_per_litre END) AS average_rate`).
		Where("account_id = ? AND period = ?", accountID, period).
		Group("period").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &domain.PeriodSummary{Period: period}, nil
		}
		return nil, err
	}
	return rowToSummary(row), nil
}

func (r *repo) AggregateAll(ctx context.Context, db *gorm.DB, accountID snowflake.ID) ([]domain.PeriodSummary, error) {
	var rows []periodRow
	err := db.WithContext(ctx).
		Table("deliveries").
		Select(`period,
			COALESCE(SUM(CASE WHEN status = 'delivered' THEN quantity ELSE 0 END), 0) AS total_litres,
			COUNT(CASE WHEN status = 'delivered' THEN 1 END) AS delivered_days,
			COUNT(CASE WHEN status = 'absent' THEN 1 END) AS absent_days,
			AVG(CASE WHEN status = 'delivered' THEN rate_per_litre END) AS average_rate`).
		Where("account_id = ?", accountID).
		Group("period").
		Order("period DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.PeriodSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, *rowToSummary(row))
	}
	return summaries, nil
}

func (r *repo) SetPeriodRate(ctx context.Context, db *gorm.DB, accountID snowflake.ID, period string, rate decimal.Decimal) (int64, error) {
	result := db.WithContext(ctx).
		Model(&deliverydomain.Delivery{}).
		Where("account_id = ? AND period = ?", accountID, period).
		Update("rate_per_litre", rate)
	return result.RowsAffected, result.Error
}

func rowToSummary(row periodRow) *domain.PeriodSummary {
	summary := &domain.PeriodSummary{
		Period:        row.Period,
		TotalLitres:   row.TotalLitres.Round(2),
		DeliveredDays: row.DeliveredDays,
		AbsentDays:    row.AbsentDays,
	}
	if row.AverageRate.Valid {
		summary.AverageRate = row.AverageRate.Decimal.Round(2)
		summary.TotalBill = summary.TotalLitres.Mul(summary.AverageRate).Round(2)
	}
	return summary
}
