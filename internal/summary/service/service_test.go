package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	deliverydomain "github.com/milkround/milkround/internal/delivery/domain"
	"github.com/milkround/milkround/internal/migration"
	"github.com/milkround/milkround/internal/summary/domain"
	"github.com/milkround/milkround/internal/summary/repository"
	"github.com/milkround/milkround/pkg/tenantctx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	svc  domain.Service
	db   *gorm.DB
	node *snowflake.Node
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:summarysvc?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&deliverydomain.Delivery{}))
	require.NoError(t, migration.EnsureDeliveryIdentityIndex(db))
	t.Cleanup(func() {
		db.Exec("DELETE FROM deliveries")
	})

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: repository.Provide(),
	})
	return &testEnv{svc: svc, db: db, node: node}
}

func (e *testEnv) newAccount() (context.Context, snowflake.ID) {
	accountID := e.node.Generate()
	return tenantctx.WithAccountID(context.Background(), accountID), accountID
}

func (e *testEnv) seed(t *testing.T, accountID snowflake.ID, date, status, quantity string, rate *string) {
	t.Helper()
	day, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)

	delivery := &deliverydomain.Delivery{
		ID:           e.node.Generate(),
		AccountID:    accountID,
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

func TestGetPeriod_Aggregation(t *testing.T) {
	env := newTestEnv(t)
	ctx, accountID := env.newAccount()

	rate50 := "50.00"
	rate60 := "60.00"
	env.seed(t, accountID, "2025-06-01", deliverydomain.StatusDelivered, "4.00", &rate50)
	env.seed(t, accountID, "2025-06-02", deliverydomain.StatusDelivered, "4.00", &rate60)
	env.seed(t, accountID, "2025-06-03", deliverydomain.StatusAbsent, "0", nil)
	env.seed(t, accountID, "2025-06-04", deliverydomain.StatusNoEntry, "0", nil)
	env.seed(t, accountID, "2025-07-01", deliverydomain.StatusDelivered, "9.00", &rate50)

	summary, err := env.svc.GetPeriod(ctx, "2025-06")
	require.NoError(t, err)

	assert.Equal(t, "2025-06", summary.Period)
	assert.Equal(t, 2, summary.DeliveredDays)
	assert.Equal(t, 1, summary.AbsentDays)
	assert.True(t, summary.TotalLitres.Equal(decimal.RequireFromString("8.00")), "litres %s", summary.TotalLitres)
	assert.True(t, summary.AverageRate.Equal(decimal.RequireFromString("55.00")), "avg %s", summary.AverageRate)
	assert.True(t, summary.TotalBill.Equal(decimal.RequireFromString("440.00")), "bill %s", summary.TotalBill)
}

func TestGetPeriod_EmptyMonth(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.newAccount()

	summary, err := env.svc.GetPeriod(ctx, "2025-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-01", summary.Period)
	assert.Equal(t, 0, summary.DeliveredDays)
	assert.True(t, summary.TotalBill.IsZero())
}

func TestGetPeriod_InvalidPeriod(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.newAccount()

	_, err := env.svc.GetPeriod(ctx, "June 2025")
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

func TestGetReport_RollsUpPeriods(t *testing.T) {
	env := newTestEnv(t)
	ctx, accountID := env.newAccount()

	rate50 := "50.00"
	env.seed(t, accountID, "2025-05-10", deliverydomain.StatusDelivered, "3.00", &rate50)
	env.seed(t, accountID, "2025-06-10", deliverydomain.StatusDelivered, "5.00", &rate50)
	env.seed(t, accountID, "2025-06-11", deliverydomain.StatusAbsent, "0", nil)

	report, err := env.svc.GetReport(ctx)
	require.NoError(t, err)

	require.Len(t, report.Periods, 2)
	assert.Equal(t, "2025-06", report.Periods[0].Period)
	assert.Equal(t, "2025-05", report.Periods[1].Period)
	assert.Equal(t, 2, report.DeliveredDays)
	assert.Equal(t, 1, report.AbsentDays)
	assert.True(t, report.TotalLitres.Equal(decimal.RequireFromString("8.00")))
	assert.True(t, report.TotalBill.Equal(decimal.RequireFromString("400.00")), "bill %s", report.TotalBill)
}

func TestUpdatePeriodRate(t *testing.T) {
	env := newTestEnv(t)
	ctx, accountID := env.newAccount()
	otherCtx, otherAccount := env.newAccount()

	env.seed(t, accountID, "2025-06-01", deliverydomain.StatusDelivered, "2.00", nil)
	env.seed(t, accountID, "2025-06-02", deliverydomain.StatusDelivered, "2.00", nil)
	env.seed(t, accountID, "2025-07-01", deliverydomain.StatusDelivered, "2.00", nil)
	env.seed(t, otherAccount, "2025-06-01", deliverydomain.StatusDelivered, "2.00", nil)

	result, err := env.svc.UpdatePeriodRate(ctx, "2025-06", domain.UpdateRateRequest{
		RatePerLitre: decimal.RequireFromString("58.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Affected)

	// The other tenant's June entry keeps its missing rate.
	otherSummary, err := env.svc.GetPeriod(otherCtx, "2025-06")
	require.NoError(t, err)
	assert.True(t, otherSummary.AverageRate.IsZero())

	summary, err := env.svc.GetPeriod(ctx, "2025-06")
	require.NoError(t, err)
	assert.True(t, summary.AverageRate.Equal(decimal.RequireFromString("58.00")))
}

func TestUpdatePeriodRate_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.newAccount()

	_, err := env.svc.UpdatePeriodRate(ctx, "2025/06", domain.UpdateRateRequest{
		RatePerLitre: decimal.RequireFromString("58.00"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	_, err = env.svc.UpdatePeriodRate(ctx, "2025-06", domain.UpdateRateRequest{
		RatePerLitre: decimal.Zero,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRate)
}
