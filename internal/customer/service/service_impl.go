package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/milkround/milkround/internal/clock"
	"github.com/milkround/milkround/internal/customer/domain"
	"github.com/milkround/milkround/pkg/db"
	"github.com/milkround/milkround/pkg/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxNameLength = 100

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (*domain.Customer, error) {
	accountID, ok := tenantctx.AccountIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > maxNameLength {
		return nil, domain.ErrInvalidName
	}
	if req.RatePerLitre.IsNegative() {
		return nil, domain.ErrInvalidRate
	}

	now := s.clock.Now()
	customer := &domain.Customer{
		ID:           s.genID.Generate(),
		AccountID:    accountID,
		Name:         name,
		Address:      strings.TrimSpace(req.Address),
		Contact:      strings.TrimSpace(req.Contact),
		RatePerLitre: req.RatePerLitre,
		Notes:        req.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(ctx, s.db, customer); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrCustomerExists
		}
		return nil, err
	}

	s.log.Info("customer created",
		zap.String("account_id", accountID.String()),
		zap.String("customer_id", customer.ID.String()),
	)

	return customer, nil
}

func (s *Service) List(ctx context.Context) ([]*domain.Customer, error) {
	accountID, ok := tenantctx.AccountIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return s.repo.List(ctx, s.db, accountID)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Customer, error) {
	accountID, ok := tenantctx.AccountIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	customerID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrCustomerNotFound
	}
	return s.repo.FindByID(ctx, s.db, accountID, customerID)
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateCustomerRequest) (*domain.Customer, error) {
	customer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || len(name) > maxNameLength {
			return nil, domain.ErrInvalidName
		}
		if name != customer.Name {
			existing, err := s.repo.FindByName(ctx, s.db, customer.AccountID, name)
			if err == nil && existing.ID != customer.ID {
				return nil, domain.ErrCustomerExists
			}
			if err != nil && !errors.Is(err, domain.ErrCustomerNotFound) {
				return nil, err
			}
		}
		customer.Name = name
	}
	if req.Address != nil {
		customer.Address = strings.TrimSpace(*req.Address)
	}
	if req.Contact != nil {
		customer.Contact = strings.TrimSpace(*req.Contact)
	}
	if req.RatePerLitre != nil {
		if req.RatePerLitre.IsNegative() {
			return nil, domain.ErrInvalidRate
		}
		customer.RatePerLitre = *req.RatePerLitre
	}
	if req.Notes != nil {
		customer.Notes = *req.Notes
	}
	customer.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, customer); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrCustomerExists
		}
		return nil, err
	}
	return customer, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	accountID, ok := tenantctx.AccountIDFromContext(ctx)
	if !ok {
		return domain.ErrCustomerNotFound
	}
	customerID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrCustomerNotFound
	}
	if err := s.repo.Delete(ctx, s.db, accountID, customerID); err != nil {
		return err
	}

	// Deliveries survive the customer; they fall back to the
	// customer-less identity.
	return s.db.WithContext(ctx).
		Table("deliveries").
		Where("account_id = ? AND customer_id = ?", accountID, customerID).
		Update("customer_id", nil).Error
}
