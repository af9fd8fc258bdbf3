package service

import (
	"context"
	"strings"
	"time"

	"github.com/milkround/milkround/internal/summary/domain"
	"github.com/milkround/milkround/pkg/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("summary.service"),
		repo: p.Repo,
	}
}

func (s *Service) GetPeriod(ctx context.Context, period string) (*domain.PeriodSummary, error) {
	accountID, ok := tenantctx.AccountIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidPeriod
	}
	period, err := normalizePeriod(period)
	if err != nil {
		return nil, err
	}
	return s.repo.AggregatePeriod(ctx, s.db, accountID, period)
}

func (s *Service) GetReport(ctx context.Context) (*domain.Report, error) {
	accountID, ok := tenantctx.AccountIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidPeriod
	}

	periods, err := s.repo.AggregateAll(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}

	report := &domain.Report{Periods: periods}
	for _, p := range periods {
		report.TotalLitres = report.TotalLitres.Add(p.TotalLitres)
		report.TotalBill = report.TotalBill.Add(p.TotalBill)
		report.DeliveredDays += p.DeliveredDays
		report.AbsentDays += p.AbsentDays
	}
	return report, nil
}

func (s *Service) UpdatePeriodRate(ctx context.Context, period string, req domain.UpdateRateRequest) (*domain.UpdateRateResult, error) {
	accountID, ok := tenantctx.AccountIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidPeriod
	}
	period, err := normalizePeriod(period)
	if err != nil {
		return nil, err
	}
	if !req.RatePerLitre.IsPositive() {
		return nil, domain.ErrInvalidRate
	}

	affected, err := s.repo.SetPeriodRate(ctx, s.db, accountID, period, req.RatePerLitre)
	if err != nil {
		return nil, err
	}

	s.log.Info("period rate updated",
		zap.String("account_id", accountID.String()),
		zap.String("period", period),
		zap.Int64("affected", affected),
	)

	return &domain.UpdateRateResult{
		Period:       period,
		RatePerLitre: req.RatePerLitre,
		Affected:     affected,
	}, nil
}

func normalizePeriod(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if _, err := time.Parse("2006-01", raw); err != nil {
		return "", domain.ErrInvalidPeriod
	}
	return raw, nil
}
