package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkround/milkround/internal/billing/domain"
	"github.com/milkround/milkround/internal/billing/engine"
	"github.com/milkround/milkround/internal/clock"
	customerdomain "github.com/milkround/milkround/internal/customer/domain"
	deliverydomain "github.com/milkround/milkround/internal/delivery/domain"
	"github.com/milkround/milkround/pkg/tenantctx"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Customers  customerdomain.Repository
	Deliveries deliverydomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	customers  customerdomain.Repository
	deliveries deliverydomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("billing.service"),
		clock:      p.Clock,
		customers:  p.Customers,
		deliveries: p.Deliveries,
	}
}

func (s *Service) BuildBill(ctx context.Context, req domain.BillRequest) (*domain.BillReport, error) {
	accountID, ok := tenantctx.AccountIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrMissingRange
	}

	from, to, err := parseRange(req.From, req.To)
	if err != nil {
		return nil, err
	}

	customerLabel := domain.AllCustomersLabel
	var customerFilter *snowflake.ID
	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		id, perr := snowflake.ParseString(raw)
		if perr == nil {
			if customer, cerr := s.customers.FindByID(ctx, s.db, accountID, id); cerr == nil {
				customerLabel = customer.Name
				customerFilter = &id
			}
		}
		// An unknown customer filter yields an empty bill rather than
		// an error, keeping the endpoint safe for stale links.
		if customerFilter == nil {
			return s.emptyBill(ctx, accountID, from, to), nil
		}
	}

	deliveries, err := s.deliveries.ListRange(ctx, accountID, from, to, customerFilter)
	if err != nil {
		return nil, err
	}

	allCustomers, err := s.customers.List(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}
	rates := make(map[int64]decimal.Decimal, len(allCustomers))
	names := make(map[int64]string, len(allCustomers))
	for _, c := range allCustomers {
		rates[int64(c.ID)] = c.RatePerLitre
		names[int64(c.ID)] = c.Name
	}

	records := engine.Resolve(deliveries, rates, names)

	report := &domain.BillReport{
		CustomerLabel: customerLabel,
		From:          from.Format(dateLayout),
		To:            to.Format(dateLayout),
		LineItems:     make([]domain.LineItem, 0, len(records)),
		AbsentDays:    []domain.AbsentDay{},
		Summary:       engine.Aggregate(records),
		GeneratedAt:   s.clock.Now(),
	}
	s.fillAccount(ctx, accountID, report)

	for _, rec := range records {
		switch rec.Status {
		case deliverydomain.StatusDelivered:
			report.LineItems = append(report.LineItems, domain.LineItem{
				Date:         rec.DeliveryDate.Format(dateLayout),
				CustomerName: rec.CustomerName,
				Quantity:     rec.Quantity,
				Rate:         rec.Rate,
				Amount:       rec.Amount,
			})
		case deliverydomain.StatusAbsent:
			report.AbsentDays = append(report.AbsentDays, domain.AbsentDay{
				Date:         rec.DeliveryDate.Format(dateLayout),
				CustomerName: rec.CustomerName,
				Amount:       decimal.Zero,
			})
		}
	}

	return report, nil
}

func (s *Service) CustomerHistory(ctx context.Context, customerID, period string) (*domain.CustomerHistory, error) {
	accountID, ok := tenantctx.AccountIDFromContext(ctx)
	if !ok {
		return nil, customerdomain.ErrCustomerNotFound
	}
	id, err := snowflake.ParseString(strings.TrimSpace(customerID))
	if err != nil {
		return nil, customerdomain.ErrCustomerNotFound
	}
	customer, err := s.customers.FindByID(ctx, s.db, accountID, id)
	if err != nil {
		return nil, err
	}

	var from time.Time
	to := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	period = strings.TrimSpace(period)
	if period != "" {
		month, perr := time.Parse("2006-01", period)
		if perr != nil {
			return nil, deliverydomain.ErrInvalidPeriod
		}
		from = month
		to = month.AddDate(0, 1, -1)
	}

	deliveries, err := s.deliveries.ListRange(ctx, accountID, from, to, &id)
	if err != nil {
		return nil, err
	}

	records := engine.Resolve(deliveries,
		map[int64]decimal.Decimal{int64(id): customer.RatePerLitre},
		map[int64]string{int64(id): customer.Name},
	)

	history := &domain.CustomerHistory{
		Customer:   customer,
		Period:     period,
		LineItems:  make([]domain.LineItem, 0, len(records)),
		AbsentDays: []domain.AbsentDay{},
		Summary:    engine.Aggregate(records),
	}
	// Nothing rated to average over; show the customer's going rate.
	if history.Summary.AverageRate.IsZero() && customer.RatePerLitre.IsPositive() {
		history.Summary.AverageRate = customer.RatePerLitre
	}

	for _, rec := range records {
		switch rec.Status {
		case deliverydomain.StatusDelivered:
			history.LineItems = append(history.LineItems, domain.LineItem{
				Date:     rec.DeliveryDate.Format(dateLayout),
				Quantity: rec.Quantity,
				Rate:     rec.Rate,
				Amount:   rec.Amount,
			})
		case deliverydomain.StatusAbsent:
			history.AbsentDays = append(history.AbsentDays, domain.AbsentDay{
				Date:   rec.DeliveryDate.Format(dateLayout),
				Amount: decimal.Zero,
			})
		}
	}

	return history, nil
}

func (s *Service) emptyBill(ctx context.Context, accountID snowflake.ID, from, to time.Time) *domain.BillReport {
	report := &domain.BillReport{
		CustomerLabel: domain.AllCustomersLabel,
		From:          from.Format(dateLayout),
		To:            to.Format(dateLayout),
		LineItems:     []domain.LineItem{},
		AbsentDays:    []domain.AbsentDay{},
		GeneratedAt:   s.clock.Now(),
	}
	s.fillAccount(ctx, accountID, report)
	return report
}

func (s *Service) fillAccount(ctx context.Context, accountID snowflake.ID, report *domain.BillReport) {
	var account struct {
		DisplayName string
		Address     string
	}
	err := s.db.WithContext(ctx).
		Table("accounts").
		Select("display_name", "address").
		Where("id = ?", accountID).
		Take(&account).Error
	if err != nil {
		s.log.Warn("failed to load account for bill", zap.Error(err))
		return
	}
	report.AccountName = account.DisplayName
	report.AccountAddr = account.Address
}

func parseRange(rawFrom, rawTo string) (time.Time, time.Time, error) {
	rawFrom = strings.TrimSpace(rawFrom)
	rawTo = strings.TrimSpace(rawTo)
	if rawFrom == "" || rawTo == "" {
		return time.Time{}, time.Time{}, domain.ErrMissingRange
	}
	from, err := time.Parse(dateLayout, rawFrom)
	if err != nil {
		return time.Time{}, time.Time{}, domain.ErrInvalidRange
	}
	to, err := time.Parse(dateLayout, rawTo)
	if err != nil {
		return time.Time{}, time.Time{}, domain.ErrInvalidRange
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, domain.ErrInvalidRange
	}
	return from, to, nil
}
