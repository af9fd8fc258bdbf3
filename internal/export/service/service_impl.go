package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/milkround/milkround/internal/clock"
	customerdomain "github.com/milkround/milkround/internal/customer/domain"
	deliverydomain "github.com/milkround/milkround/internal/delivery/domain"
	"github.com/milkround/milkround/internal/export/domain"
	"github.com/milkround/milkround/pkg/tenantctx"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

var csvHeader = []string{"delivery_date", "customer_name", "quantity", "status", "rate_per_litre", "period", "customer_contact"}

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Customers  customerdomain.Repository
	Deliveries deliverydomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	customers  customerdomain.Repository
	deliveries deliverydomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("export.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		customers:  p.Customers,
		deliveries: p.Deliveries,
	}
}

func (s *Service) ExportJSON(ctx context.Context) (*domain.Snapshot, error) {
	accountID, ok := tenantctx.AccountIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrEmptySnapshot
	}

	customers, deliveries, names, err := s.collect(ctx, accountID)
	if err != nil {
		return nil, err
	}

	snapshot := &domain.Snapshot{
		ExportID:   uuid.NewString(),
		ExportedAt: s.clock.Now(),
		Customers:  make([]domain.CustomerRecord, 0, len(customers)),
		Deliveries: make([]domain.DeliveryRecord, 0, len(deliveries)),
	}

	for _, c := range customers {
		snapshot.Customers = append(snapshot.Customers, domain.CustomerRecord{
			Name:         c.Name,
			Address:      c.Address,
			Contact:      c.Contact,
			RatePerLitre: c.RatePerLitre,
			Notes:        c.Notes,
		})
	}
	for _, d := range deliveries {
		record := domain.DeliveryRecord{
			DeliveryDate: d.DeliveryDate.Format(dateLayout),
			Quantity:     d.Quantity,
			Status:       d.Status,
			RatePerLitre: d.RatePerLitre,
			Notes:        d.Notes,
		}
		if d.CustomerID != nil {
			record.CustomerName = names[*d.CustomerID]
		}
		snapshot.Deliveries = append(snapshot.Deliveries, record)
	}

	s.log.Info("snapshot exported",
		zap.String("account_id", accountID.String()),
		zap.String("export_id", snapshot.ExportID),
		zap.Int("customers", len(snapshot.Customers)),
		zap.Int("deliveries", len(snapshot.Deliveries)),
	)

	return snapshot, nil
}

func (s *Service) ExportCSV(ctx context.Context) ([]byte, error) {
	accountID, ok := tenantctx.AccountIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrEmptySnapshot
	}

	customers, deliveries, names, err := s.collect(ctx, accountID)
	if err != nil {
		return nil, err
	}
	contacts := make(map[snowflake.ID]string, len(customers))
	for _, c := range customers {
		contacts[c.ID] = c.Contact
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, d := range deliveries {
		name := ""
		contact := ""
		if d.CustomerID != nil {
			name = names[*d.CustomerID]
			contact = contacts[*d.CustomerID]
		}
		rate := ""
		if d.RatePerLitre != nil {
			rate = d.RatePerLitre.StringFixed(2)
		}
		row := []string{
			d.DeliveryDate.Format(dateLayout),
			name,
			d.Quantity.StringFixed(2),
			d.Status,
			rate,
			d.Period,
			contact,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Service) Import(ctx context.Context, snapshot domain.Snapshot) (*domain.ImportResult, error) {
	accountID, ok := tenantctx.AccountIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrEmptySnapshot
	}
	if len(snapshot.Customers) == 0 && len(snapshot.Deliveries) == 0 {
		return nil, domain.ErrEmptySnapshot
	}

	result := &domain.ImportResult{Errors: []string{}}
	now := s.clock.Now()

	// Customers reconcile first so deliveries can resolve names that
	// arrive in the same snapshot.
	byName := make(map[string]snowflake.ID)
	for i, record := range snapshot.Customers {
		name := strings.TrimSpace(record.Name)
		if name == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("customer %d: missing name", i+1))
			continue
		}
		if record.RatePerLitre.IsNegative() {
			result.Errors = append(result.Errors, fmt.Sprintf("customer %q: negative rate", name))
			continue
		}

		existing, err := s.customers.FindByName(ctx, s.db, accountID, name)
		switch {
		case err == nil:
			existing.Address = record.Address
			existing.Contact = record.Contact
			existing.RatePerLitre = record.RatePerLitre
			existing.Notes = record.Notes
			existing.UpdatedAt = now
			if uerr := s.customers.Update(ctx, s.db, existing); uerr != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("customer %q: %v", name, uerr))
				continue
			}
			byName[name] = existing.ID
			result.Updated++
		case errors.Is(err, customerdomain.ErrCustomerNotFound):
			customer := &customerdomain.Customer{
				ID:           s.genID.Generate(),
				AccountID:    accountID,
				Name:         name,
				Address:      record.Address,
				Contact:      record.Contact,
				RatePerLitre: record.RatePerLitre,
				Notes:        record.Notes,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if ierr := s.customers.Insert(ctx, s.db, customer); ierr != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("customer %q: %v", name, ierr))
				continue
			}
			byName[name] = customer.ID
			result.Created++
		default:
			return nil, err
		}
	}

	for _, record := range snapshot.Deliveries {
		if err := s.importDelivery(ctx, accountID, record, byName, now, result); err != nil {
			return nil, err
		}
	}
	result.Failed = len(result.Errors)

	s.log.Info("snapshot imported",
		zap.String("account_id", accountID.String()),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}

func (s *Service) importDelivery(ctx context.Context, accountID snowflake.ID, record domain.DeliveryRecord, byName map[string]snowflake.ID, now time.Time, result *domain.ImportResult) error {
	date, err := time.Parse(dateLayout, strings.TrimSpace(record.DeliveryDate))
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("delivery %q: invalid date", record.DeliveryDate))
		return nil
	}
	if !deliverydomain.ValidStatus(record.Status) {
		result.Errors = append(result.Errors, fmt.Sprintf("delivery %s: invalid status %q", record.DeliveryDate, record.Status))
		return nil
	}
	if record.Quantity.IsNegative() {
		result.Errors = append(result.Errors, fmt.Sprintf("delivery %s: negative quantity", record.DeliveryDate))
		return nil
	}

	var customerID *snowflake.ID
	if name := strings.TrimSpace(record.CustomerName); name != "" {
		id, ok := byName[name]
		if !ok {
			existing, ferr := s.customers.FindByName(ctx, s.db, accountID, name)
			if ferr != nil {
				if errors.Is(ferr, customerdomain.ErrCustomerNotFound) {
					result.Errors = append(result.Errors, fmt.Sprintf("delivery %s: unknown customer %q", record.DeliveryDate, name))
					return nil
				}
				return ferr
			}
			id = existing.ID
			byName[name] = id
		}
		customerID = &id
	}

	quantity := record.Quantity
	if record.Status == deliverydomain.StatusAbsent || record.Status == deliverydomain.StatusNoEntry {
		quantity = decimal.Zero
	}

	existing, err := s.deliveries.FindByIdentity(ctx, s.db, accountID, date, customerID)
	if err != nil && !errors.Is(err, deliverydomain.ErrDeliveryNotFound) {
		return err
	}
	if existing != nil {
		existing.Quantity = quantity
		existing.Status = record.Status
		existing.RatePerLitre = record.RatePerLitre
		existing.Notes = record.Notes
		existing.UpdatedAt = now
		if uerr := s.deliveries.Update(ctx, s.db, existing); uerr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("delivery %s: %v", record.DeliveryDate, uerr))
			return nil
		}
		result.Updated++
		return nil
	}

	delivery := &deliverydomain.Delivery{
		ID:           s.genID.Generate(),
		AccountID:    accountID,
		CustomerID:   customerID,
		DeliveryDate: date,
		Quantity:     quantity,
		Status:       record.Status,
		Period:       deliverydomain.PeriodOf(date),
		RatePerLitre: record.RatePerLitre,
		Notes:        record.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if ierr := s.deliveries.Insert(ctx, s.db, delivery); ierr != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("delivery %s: %v", record.DeliveryDate, ierr))
		return nil
	}
	result.Created++
	return nil
}

func (s *Service) collect(ctx context.Context, accountID snowflake.ID) ([]*customerdomain.Customer, []*deliverydomain.Delivery, map[snowflake.ID]string, error) {
	customers, err := s.customers.List(ctx, s.db, accountID)
	if err != nil {
		return nil, nil, nil, err
	}
	deliveries, err := s.deliveries.List(ctx, s.db, deliverydomain.Filter{AccountID: accountID})
	if err != nil {
		return nil, nil, nil, err
	}

	names := make(map[snowflake.ID]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}
	return customers, deliveries, names, nil
}
