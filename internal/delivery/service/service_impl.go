package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkround/milkround/internal/clock"
	customerdomain "github.com/milkround/milkround/internal/customer/domain"
	"github.com/milkround/milkround/internal/delivery/domain"
	"github.com/milkround/milkround/pkg/db"
	"github.com/milkround/milkround/pkg/db/pagination"
	"github.com/milkround/milkround/pkg/tenantctx"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	dateLayout      = "2006-01-02"
	defaultPageSize = 50
	maxPageSize     = 200
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Customers customerdomain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	customers customerdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("delivery.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		customers: p.Customers,
	}
}

func (s *Service) Upsert(ctx context.Context, req domain.UpsertDeliveryRequest) (*domain.UpsertResult, error) {
	accountID, ok := tenantctx.AccountIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrDeliveryNotFound
	}

	date, err := time.Parse(dateLayout, strings.TrimSpace(req.DeliveryDate))
	if err != nil {
		return nil, domain.ErrInvalidDate
	}
	if !domain.ValidStatus(req.Status) {
		return nil, domain.ErrInvalidStatus
	}
	if req.Quantity.IsNegative() {
		return nil, domain.ErrInvalidQuantity
	}
	if req.RatePerLitre != nil && req.RatePerLitre.IsNegative() {
		return nil, domain.ErrInvalidRate
	}

	customerID, err := s.resolveCustomer(ctx, accountID, req.CustomerID)
	if err != nil {
		return nil, err
	}

	quantity := req.Quantity
	if req.Status == domain.StatusAbsent || req.Status == domain.StatusNoEntry {
		quantity = decimal.Zero
	}

	existing, err := s.repo.FindByIdentity(ctx, s.db, accountID, date, customerID)
	if err != nil && !errors.Is(err, domain.ErrDeliveryNotFound) {
		return nil, err
	}
	if existing != nil {
		return s.applyUpdate(ctx, existing, quantity, req)
	}

	now := s.clock.Now()
	delivery := &domain.Delivery{
		ID:           s.genID.Generate(),
		AccountID:    accountID,
		CustomerID:   customerID,
		DeliveryDate: date,
		Quantity:     quantity,
		Status:       req.Status,
		Period:       domain.PeriodOf(date),
		RatePerLitre: req.RatePerLitre,
		Notes:        req.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, delivery); err != nil {
		// A concurrent writer claimed the identity between the lookup
		// and the insert; the caller retries against the winner's row.
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDeliveryConflict
		}
		return nil, err
	}

	s.log.Info("delivery recorded",
		zap.String("account_id", accountID.String()),
		zap.String("delivery_date", req.DeliveryDate),
		zap.String("status", req.Status),
	)

	return &domain.UpsertResult{Delivery: delivery, Created: true}, nil
}

func (s *Service) applyUpdate(ctx context.Context, existing *domain.Delivery, quantity decimal.Decimal, req domain.UpsertDeliveryRequest) (*domain.UpsertResult, error) {
	existing.Quantity = quantity
	existing.Status = req.Status
	existing.RatePerLitre = req.RatePerLitre
	existing.Notes = req.Notes
	existing.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, existing); err != nil {
		return nil, err
	}
	return &domain.UpsertResult{Delivery: existing, Created: false}, nil
}

func (s *Service) List(ctx context.Context, req domain.ListDeliveriesRequest) (*domain.ListDeliveriesResult, error) {
	accountID, ok := tenantctx.AccountIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrDeliveryNotFound
	}

	filter := domain.Filter{
		AccountID: accountID,
		Limit:     normalizeLimit(req.PageSize),
	}

	if period := strings.TrimSpace(req.Period); period != "" {
		if _, err := time.Parse("2006-01", period); err != nil {
			return nil, domain.ErrInvalidPeriod
		}
		filter.Period = period
	}
	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, domain.ErrUnknownCustomer
		}
		filter.CustomerID = &id
	}
	if raw := strings.TrimSpace(req.From); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, domain.ErrInvalidDate
		}
		filter.From = &from
	}
	if raw := strings.TrimSpace(req.To); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, domain.ErrInvalidDate
		}
		filter.To = &to
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return nil, err
		}
		filter.Cursor = cursor
	}

	deliveries, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	pageInfo := pagination.BuildCursorPageInfo(deliveries, filter.Limit, func(d *domain.Delivery) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        d.ID.String(),
			CreatedAt: d.CreatedAt.Format(time.RFC3339),
		})
		return token
	})
	if pageInfo.HasMore {
		deliveries = deliveries[:filter.Limit]
	}

	return &domain.ListDeliveriesResult{Deliveries: deliveries, PageInfo: pageInfo}, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	accountID, ok := tenantctx.AccountIDFromContext(ctx)
	if !ok {
		return domain.ErrDeliveryNotFound
	}
	deliveryID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrDeliveryNotFound
	}
	return s.repo.Delete(ctx, s.db, accountID, deliveryID)
}

func (s *Service) ListRange(ctx context.Context, accountID snowflake.ID, from, to time.Time, customerID *snowflake.ID) ([]*domain.Delivery, error) {
	return s.repo.ListRange(ctx, s.db, accountID, from, to, customerID)
}

func (s *Service) resolveCustomer(ctx context.Context, accountID snowflake.ID, raw string) (*snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return nil, domain.ErrUnknownCustomer
	}
	if _, err := s.customers.FindByID(ctx, s.db, accountID, id); err != nil {
		if errors.Is(err, customerdomain.ErrCustomerNotFound) {
			return nil, domain.ErrUnknownCustomer
		}
		return nil, err
	}
	return &id, nil
}

func normalizeLimit(size int) int {
	if size <= 0 {
		return defaultPageSize
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}
