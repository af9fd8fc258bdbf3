package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/milkround/milkround/internal/clock"
	customerdomain "github.com/milkround/milkround/internal/customer/domain"
	customerrepo "github.com/milkround/milkround/internal/customer/repository"
	"github.com/milkround/milkround/internal/delivery/domain"
	"github.com/milkround/milkround/internal/delivery/repository"
	"github.com/milkround/milkround/internal/migration"
	"github.com/milkround/milkround/pkg/db/pagination"
	"github.com/milkround/milkround/pkg/tenantctx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	svc       domain.Service
	customers customerdomain.Repository
	db        *gorm.DB
	node      *snowflake.Node
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:deliverysvc?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&customerdomain.Customer{}, &domain.Delivery{}))
	require.NoError(t, migration.EnsureDeliveryIdentityIndex(db))
	t.Cleanup(func() {
		db.Exec("DELETE FROM deliveries")
		db.Exec("DELETE FROM customers")
	})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	customers := customerrepo.Provide()
	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clock.NewFakeClock(time.Date(2025, 6, 10, 6, 0, 0, 0, time.UTC)),
		Repo:      repository.Provide(),
		Customers: customers,
	})

	return &testEnv{svc: svc, customers: customers, db: db, node: node}
}

func (e *testEnv) newAccount() (context.Context, snowflake.ID) {
	accountID := e.node.Generate()
	return tenantctx.WithAccountID(context.Background(), accountID), accountID
}

func (e *testEnv) newCustomer(t *testing.T, accountID snowflake.ID, name string) *customerdomain.Customer {
	t.Helper()
	customer := &customerdomain.Customer{
		ID:        e.node.Generate(),
		AccountID: accountID,
		Name:      name,
	}
	require.NoError(t, e.customers.Insert(context.Background(), e.db, customer))
	return customer
}

func TestUpsert_CreateThenUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.newAccount()

	first, err := env.svc.Upsert(ctx, domain.UpsertDeliveryRequest{
		DeliveryDate: "2025-06-10",
		Quantity:     decimal.RequireFromString("2.50"),
		Status:       domain.StatusDelivered,
	})
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, "2025-06", first.Delivery.Period)

	second, err := env.svc.Upsert(ctx, domain.UpsertDeliveryRequest{
		DeliveryDate: "2025-06-10",
		Quantity:     decimal.RequireFromString("3.00"),
		Status:       domain.StatusDelivered,
	})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Delivery.ID, second.Delivery.ID)
	assert.True(t, second.Delivery.Quantity.Equal(decimal.RequireFromString("3.00")))

	var count int64
	env.db.Model(&domain.Delivery{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUpsert_DistinctCustomerIdentities(t *testing.T) {
	env := newTestEnv(t)
	ctx, accountID := env.newAccount()
	asha := env.newCustomer(t, accountID, "Asha")
	ravi := env.newCustomer(t, accountID, "Ravi")

	for _, customer := range []*customerdomain.Customer{asha, ravi} {
		result, err := env.svc.Upsert(ctx, domain.UpsertDeliveryRequest{
			CustomerID:   customer.ID.String(),
			DeliveryDate: "2025-06-10",
			Quantity:     decimal.RequireFromString("1.00"),
			Status:       domain.StatusDelivered,
		})
		require.NoError(t, err)
		assert.True(t, result.Created)
	}

	// Customer-less entry on the same date has its own identity.
	result, err := env.svc.Upsert(ctx, domain.UpsertDeliveryRequest{
		DeliveryDate: "2025-06-10",
		Quantity:     decimal.RequireFromString("1.00"),
		Status:       domain.StatusDelivered,
	})
	require.NoError(t, err)
	assert.True(t, result.Created)

	var count int64
	env.db.Model(&domain.Delivery{}).Count(&count)
	assert.Equal(t, int64(3), count)
}

func TestUpsert_UnknownCustomerRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.newAccount()

	_, err := env.svc.Upsert(ctx, domain.UpsertDeliveryRequest{
		CustomerID:   env.node.Generate().String(),
		DeliveryDate: "2025-06-10",
		Status:       domain.StatusDelivered,
	})
	assert.ErrorIs(t, err, domain.ErrUnknownCustomer)
}

func TestUpsert_CrossTenantCustomerRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.newAccount()
	_, otherAccount := env.newAccount()
	foreign := env.newCustomer(t, otherAccount, "Foreign")

	_, err := env.svc.Upsert(ctx, domain.UpsertDeliveryRequest{
		CustomerID:   foreign.ID.String(),
		DeliveryDate: "2025-06-10",
		Status:       domain.StatusDelivered,
	})
	assert.ErrorIs(t, err, domain.ErrUnknownCustomer)
}

func TestUpsert_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.newAccount()

	_, err := env.svc.Upsert(ctx, domain.UpsertDeliveryRequest{DeliveryDate: "10-06-2025", Status: domain.StatusDelivered})
	assert.ErrorIs(t, err, domain.ErrInvalidDate)

	_, err = env.svc.Upsert(ctx, domain.UpsertDeliveryRequest{DeliveryDate: "2025-06-10", Status: "skipped"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = env.svc.Upsert(ctx, domain.UpsertDeliveryRequest{
		DeliveryDate: "2025-06-10",
		Quantity:     decimal.RequireFromString("-1"),
		Status:       domain.StatusDelivered,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestUpsert_AbsentZeroesQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.newAccount()

	result, err := env.svc.Upsert(ctx, domain.UpsertDeliveryRequest{
		DeliveryDate: "2025-06-10",
		Quantity:     decimal.RequireFromString("4.00"),
		Status:       domain.StatusAbsent,
	})
	require.NoError(t, err)
	assert.True(t, result.Delivery.Quantity.IsZero())
}

func TestList_PeriodFilterAndIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctxA, _ := env.newAccount()
	ctxB, _ := env.newAccount()

	for _, date := range []string{"2025-05-31", "2025-06-01", "2025-06-02"} {
		_, err := env.svc.Upsert(ctxA, domain.UpsertDeliveryRequest{
			DeliveryDate: date,
			Quantity:     decimal.RequireFromString("2.00"),
			Status:       domain.StatusDelivered,
		})
		require.NoError(t, err)
	}

	result, err := env.svc.List(ctxA, domain.ListDeliveriesRequest{Period: "2025-06"})
	require.NoError(t, err)
	assert.Len(t, result.Deliveries, 2)

	other, err := env.svc.List(ctxB, domain.ListDeliveriesRequest{})
	require.NoError(t, err)
	assert.Empty(t, other.Deliveries)
}

func TestList_Pagination(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.newAccount()

	for day := 1; day <= 5; day++ {
		_, err := env.svc.Upsert(ctx, domain.UpsertDeliveryRequest{
			DeliveryDate: time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
			Quantity:     decimal.RequireFromString("1.00"),
			Status:       domain.StatusDelivered,
		})
		require.NoError(t, err)
	}

	page, err := env.svc.List(ctx, domain.ListDeliveriesRequest{
		Pagination: paginationWithSize(2),
	})
	require.NoError(t, err)
	assert.Len(t, page.Deliveries, 2)
	assert.True(t, page.PageInfo.HasMore)
	assert.NotEmpty(t, page.PageInfo.NextPageToken)

	next, err := env.svc.List(ctx, domain.ListDeliveriesRequest{
		Pagination: paginationWithToken(2, page.PageInfo.NextPageToken),
	})
	require.NoError(t, err)
	assert.Len(t, next.Deliveries, 2)
	assert.NotEqual(t, page.Deliveries[0].ID, next.Deliveries[0].ID)
}

func paginationWithSize(size int) pagination.Pagination {
	return pagination.Pagination{PageSize: size}
}

func paginationWithToken(size int, token string) pagination.Pagination {
	return pagination.Pagination{PageSize: size, PageToken: token}
}

func TestDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.newAccount()

	result, err := env.svc.Upsert(ctx, domain.UpsertDeliveryRequest{
		DeliveryDate: "2025-06-10",
		Quantity:     decimal.RequireFromString("2.00"),
		Status:       domain.StatusDelivered,
	})
	require.NoError(t, err)

	require.NoError(t, env.svc.Delete(ctx, result.Delivery.ID.String()))
	assert.ErrorIs(t, env.svc.Delete(ctx, result.Delivery.ID.String()), domain.ErrDeliveryNotFound)
}

func TestDelete_TenantIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctxA, _ := env.newAccount()
	ctxB, _ := env.newAccount()

	result, err := env.svc.Upsert(ctxA, domain.UpsertDeliveryRequest{
		DeliveryDate: "2025-06-10",
		Quantity:     decimal.RequireFromString("2.00"),
		Status:       domain.StatusDelivered,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, env.svc.Delete(ctxB, result.Delivery.ID.String()), domain.ErrDeliveryNotFound)
}

// racingRepo simulates losing an identity race: the lookup misses but
// the insert hits the unique index because a concurrent writer landed
// first.
type racingRepo struct {
	domain.Repository
}

func (racingRepo) FindByIdentity(ctx context.Context, db *gorm.DB, accountID snowflake.ID, date time.Time, customerID *snowflake.ID) (*domain.Delivery, error) {
	return nil, domain.ErrDeliveryNotFound
}

func (racingRepo) Insert(ctx context.Context, db *gorm.DB, delivery *domain.Delivery) error {
	return gorm.ErrDuplicatedKey
}

func TestUpsert_LostRaceReportsConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.newAccount()

	svc := New(Params{
		DB:        env.db,
		Log:       zap.NewNop(),
		GenID:     env.node,
		Clock:     clock.NewFakeClock(time.Date(2025, 6, 10, 6, 0, 0, 0, time.UTC)),
		Repo:      racingRepo{Repository: repository.Provide()},
		Customers: env.customers,
	})

	_, err := svc.Upsert(ctx, domain.UpsertDeliveryRequest{
		DeliveryDate: "2025-06-10",
		Quantity:     decimal.RequireFromString("2.50"),
		Status:       domain.StatusDelivered,
	})
	assert.ErrorIs(t, err, domain.ErrDeliveryConflict)
}
