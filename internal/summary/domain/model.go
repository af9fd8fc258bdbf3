package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidPeriod = errors.New("invalid_period")
	ErrInvalidRate   = errors.New("invalid_rate_per_litre")
)

// PeriodSummary aggregates one calendar month. The average rate is
// taken over record-level rates only, and the bill is litres times
// that average; mixed and no-entry days never count.
type PeriodSummary struct {
	Period        string          `json:"period"`
	TotalLitres   decimal.Decimal `json:"total_litres"`
	DeliveredDays int             `json:"delivered_days"`
	AbsentDays    int             `json:"absent_days"`
	AverageRate   decimal.Decimal `json:"average_rate"`
	TotalBill     decimal.Decimal `json:"total_bill"`
}

// Report covers every period the account has entries for, newest
// first, with running totals across them.
type Report struct {
	Periods       []PeriodSummary `json:"periods"`
	TotalLitres   decimal.Decimal `json:"total_litres"`
	TotalBill     decimal.Decimal `json:"total_bill"`
	DeliveredDays int             `json:"delivered_days"`
	AbsentDays    int             `json:"absent_days"`
}

type UpdateRateRequest struct {
	RatePerLitre decimal.Decimal `json:"rate_per_litre" binding:"required"`
}

// UpdateRateResult reports how many deliveries in the period picked
// up the new rate.
type UpdateRateResult struct {
	Period       string          `json:"period"`
	RatePerLitre decimal.Decimal `json:"rate_per_litre"`
	Affected     int64           `json:"affected"`
}

type Service interface {
	GetPeriod(ctx context.Context, period string) (*PeriodSummary, error)
	GetReport(ctx context.Context) (*Report, error)
	UpdatePeriodRate(ctx context.Context, period string, req UpdateRateRequest) (*UpdateRateResult, error)
}

type Repository interface {
	AggregatePeriod(ctx context.Context, db *gorm.DB, accountID snowflake.ID, period string) (*PeriodSummary, error)
	AggregateAll(ctx context.Context, db *gorm.DB, accountID snowflake.ID) ([]PeriodSummary, error)
	SetPeriodRate(ctx context.Context, db *gorm.DB, accountID snowflake.ID, period string, rate decimal.Decimal) (int64, error)
}
