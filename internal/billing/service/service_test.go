package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	authdomain "github.com/milkround/milkround/internal/auth/domain"
	"github.com/milkround/milkround/internal/billing/domain"
	"github.com/milkround/milkround/internal/clock"
	customerdomain "github.com/milkround/milkround/internal/customer/domain"
	customerrepo "github.com/milkround/milkround/internal/customer/repository"
	deliverydomain "github.com/milkround/milkround/internal/delivery/domain"
	deliveryrepo "github.com/milkround/milkround/internal/delivery/repository"
	deliverysvc "github.com/milkround/milkround/internal/delivery/service"
	"github.com/milkround/milkround/internal/migration"
	"github.com/milkround/milkround/pkg/tenantctx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type testEnv struct {
	svc  domain.Service
	db   *gorm.DB
	node *snowflake.Node
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:billingsvc?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&authdomain.Account{}, &customerdomain.Customer{}, &deliverydomain.Delivery{}))
	require.NoError(t, migration.EnsureDeliveryIdentityIndex(db))
	t.Cleanup(func() {
		db.Exec("DELETE FROM deliveries")
		db.Exec("DELETE FROM customers")
		db.Exec("DELETE FROM accounts")
	})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC))
	customers := customerrepo.Provide()
	deliveries := deliverysvc.New(deliverysvc.Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     fake,
		Repo:      deliveryrepo.Provide(),
		Customers: customers,
	})

	svc := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		Clock:      fake,
		Customers:  customers,
		Deliveries: deliveries,
	})

	return &testEnv{svc: svc, db: db, node: node}
}

func (e *testEnv) newAccount(t *testing.T, name string) (context.Context, snowflake.ID) {
	t.Helper()
	accountID := e.node.Generate()
	require.NoError(t, e.db.Create(&authdomain.Account{
		ID:          accountID,
		Handle:      name,
		DisplayName: "Hillside Dairy",
		Address:     "4 Valley Road",
		Metadata:    datatypes.JSONMap{},
	}).Error)
	return tenantctx.WithAccountID(context.Background(), accountID), accountID
}

func (e *testEnv) seedCustomer(t *testing.T, accountID snowflake.ID, name, rate string) *customerdomain.Customer {
	t.Helper()
	customer := &customerdomain.Customer{
		ID:           e.node.Generate(),
		AccountID:    accountID,
		Name:         name,
		RatePerLitre: decimal.RequireFromString(rate),
	}
	require.NoError(t, e.db.Create(customer).Error)
	return customer
}

func (e *testEnv) seedDelivery(t *testing.T, accountID snowflake.ID, customerID *snowflake.ID, date, status, quantity string, rate *string) {
	t.Helper()
	day, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)

	delivery := &deliverydomain.Delivery{
		ID:           e.node.Generate(),
		AccountID:    accountID,
		CustomerID:   customerID,
		DeliveryDate: day,
		Quantity:     decimal.RequireFromString(quantity),
		Status:       status,
		Period:       deliverydomain.PeriodOf(day),
	}
	if rate != nil {
		parsed := decimal.RequireFromString(*rate)
		delivery.RatePerLitre = &parsed
	}
	require.NoError(t, e.db.Create(delivery).Error)
}

func TestBuildBill_AllCustomers(t *testing.T) {
	env := newTestEnv(t)
	ctx, accountID := env.newAccount(t, "hillside")
	asha := env.seedCustomer(t, accountID, "Asha", "55.00")

	override := "60.00"
	env.seedDelivery(t, accountID, &asha.ID, "2025-06-01", deliverydomain.StatusDelivered, "4.00", nil)
	env.seedDelivery(t, accountID, &asha.ID, "2025-06-02", deliverydomain.StatusDelivered, "4.00", &override)
	env.seedDelivery(t, accountID, &asha.ID, "2025-06-03", deliverydomain.StatusAbsent, "0", nil)
	env.seedDelivery(t, accountID, &asha.ID, "2025-06-04", deliverydomain.StatusMixed, "2.00", nil)

	report, err := env.svc.BuildBill(ctx, domain.BillRequest{From: "2025-06-01", To: "2025-06-30"})
	require.NoError(t, err)

	assert.Equal(t, domain.AllCustomersLabel, report.CustomerLabel)
	assert.Equal(t, "Hillside Dairy", report.AccountName)
	require.Len(t, report.LineItems, 2)
	require.Len(t, report.AbsentDays, 1)

	assert.True(t, report.Summary.TotalLitres.Equal(decimal.RequireFromString("8.00")))
	assert.True(t, report.Summary.TotalAmount.Equal(decimal.RequireFromString("460.00")), "amount %s", report.Summary.TotalAmount)
	assert.Equal(t, 2, report.Summary.DeliveredDays)
	assert.Equal(t, 1, report.Summary.AbsentDays)
}

func TestBuildBill_CustomerFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx, accountID := env.newAccount(t, "filtered")
	asha := env.seedCustomer(t, accountID, "Asha", "50.00")
	ravi := env.seedCustomer(t, accountID, "Ravi", "50.00")

	env.seedDelivery(t, accountID, &asha.ID, "2025-06-01", deliverydomain.StatusDelivered, "2.00", nil)
	env.seedDelivery(t, accountID, &ravi.ID, "2025-06-01", deliverydomain.StatusDelivered, "3.00", nil)

	report, err := env.svc.BuildBill(ctx, domain.BillRequest{
		From:       "2025-06-01",
		To:         "2025-06-30",
		CustomerID: asha.ID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, "Asha", report.CustomerLabel)
	require.Len(t, report.LineItems, 1)
	assert.True(t, report.Summary.TotalLitres.Equal(decimal.RequireFromString("2.00")))
}

func TestBuildBill_UnknownCustomerYieldsEmptyBill(t *testing.T) {
	env := newTestEnv(t)
	ctx, accountID := env.newAccount(t, "unknowncust")
	asha := env.seedCustomer(t, accountID, "Asha", "50.00")
	env.seedDelivery(t, accountID, &asha.ID, "2025-06-01", deliverydomain.StatusDelivered, "2.00", nil)

	report, err := env.svc.BuildBill(ctx, domain.BillRequest{
		From:       "2025-06-01",
		To:         "2025-06-30",
		CustomerID: env.node.Generate().String(),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.AllCustomersLabel, report.CustomerLabel)
	assert.Empty(t, report.LineItems)
	assert.True(t, report.Summary.TotalAmount.IsZero())
}

func TestBuildBill_RangeValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.newAccount(t, "ranges")

	_, err := env.svc.BuildBill(ctx, domain.BillRequest{From: "2025-06-30", To: "2025-06-01"})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = env.svc.BuildBill(ctx, domain.BillRequest{From: "2025-06-01"})
	assert.ErrorIs(t, err, domain.ErrMissingRange)

	_, err = env.svc.BuildBill(ctx, domain.BillRequest{From: "June 1", To: "June 30"})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestBuildBill_TenantIsolation(t *testing.T) {
	env := newTestEnv(t)
	_, accountA := env.newAccount(t, "tenant-a")
	ctxB, _ := env.newAccount(t, "tenant-b")

	asha := env.seedCustomer(t, accountA, "Asha", "50.00")
	env.seedDelivery(t, accountA, &asha.ID, "2025-06-01", deliverydomain.StatusDelivered, "2.00", nil)

	report, err := env.svc.BuildBill(ctxB, domain.BillRequest{From: "2025-06-01", To: "2025-06-30"})
	require.NoError(t, err)
	assert.Empty(t, report.LineItems)
}

func TestCustomerHistory_AggregatesRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx, accountID := env.newAccount(t, "history")

	asha := env.seedCustomer(t, accountID, "Asha", "55.00")
	override := "60.00"
	env.seedDelivery(t, accountID, &asha.ID, "2025-06-01", deliverydomain.StatusDelivered, "2.00", nil)
	env.seedDelivery(t, accountID, &asha.ID, "2025-06-02", deliverydomain.StatusDelivered, "2.00", &override)
	env.seedDelivery(t, accountID, &asha.ID, "2025-06-03", deliverydomain.StatusAbsent, "0.00", nil)
	env.seedDelivery(t, accountID, &asha.ID, "2025-06-04", deliverydomain.StatusMixed, "1.00", nil)

	history, err := env.svc.CustomerHistory(ctx, asha.ID.String(), "")
	require.NoError(t, err)

	assert.Equal(t, "Asha", history.Customer.Name)
	require.Len(t, history.LineItems, 2)
	require.Len(t, history.AbsentDays, 1)
	assert.True(t, history.AbsentDays[0].Amount.IsZero())
	assert.Equal(t, 2, history.Summary.DeliveredDays)
	assert.Equal(t, 1, history.Summary.AbsentDays)
	assert.True(t, history.Summary.TotalLitres.Equal(decimal.RequireFromString("4.00")))
	assert.True(t, history.Summary.TotalAmount.Equal(decimal.RequireFromString("230.00")))
	assert.True(t, history.Summary.AverageRate.Equal(decimal.RequireFromString("57.50")))
}

func TestCustomerHistory_PeriodFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx, accountID := env.newAccount(t, "history-period")

	asha := env.seedCustomer(t, accountID, "Asha", "55.00")
	env.seedDelivery(t, accountID, &asha.ID, "2025-05-31", deliverydomain.StatusDelivered, "2.00", nil)
	env.seedDelivery(t, accountID, &asha.ID, "2025-06-01", deliverydomain.StatusDelivered, "2.00", nil)

	history, err := env.svc.CustomerHistory(ctx, asha.ID.String(), "2025-06")
	require.NoError(t, err)

	assert.Equal(t, "2025-06", history.Period)
	require.Len(t, history.LineItems, 1)
	assert.Equal(t, "2025-06-01", history.LineItems[0].Date)

	_, err = env.svc.CustomerHistory(ctx, asha.ID.String(), "June")
	assert.ErrorIs(t, err, deliverydomain.ErrInvalidPeriod)
}

func TestCustomerHistory_AverageFallsBackToDefaultRate(t *testing.T) {
	env := newTestEnv(t)
	ctx, accountID := env.newAccount(t, "history-fallback")

	asha := env.seedCustomer(t, accountID, "Asha", "52.00")
	env.seedDelivery(t, accountID, &asha.ID, "2025-06-03", deliverydomain.StatusAbsent, "0.00", nil)

	history, err := env.svc.CustomerHistory(ctx, asha.ID.String(), "")
	require.NoError(t, err)

	assert.Equal(t, 0, history.Summary.DeliveredDays)
	assert.True(t, history.Summary.AverageRate.Equal(decimal.RequireFromString("52.00")))
}

func TestCustomerHistory_UnknownCustomer(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.newAccount(t, "history-unknown")

	_, err := env.svc.CustomerHistory(ctx, env.node.Generate().String(), "")
	assert.ErrorIs(t, err, customerdomain.ErrCustomerNotFound)
}
