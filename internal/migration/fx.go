package migration

import (
	authdomain "github.com/milkround/milkround/internal/auth/domain"
	"github.com/milkround/milkround/internal/config"
	customerdomain "github.com/milkround/milkround/internal/customer/domain"
	deliverydomain "github.com/milkround/milkround/internal/delivery/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if !cfg.RunMigrations {
			return nil
		}

		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// Non-postgres engines (sqlite for local development, mysql) go
		// through gorm's migrator plus the expression index it cannot model.
		if err := conn.AutoMigrate(
			&authdomain.Account{},
			&authdomain.Session{},
			&customerdomain.Customer{},
			&deliverydomain.Delivery{},
		); err != nil {
			return err
		}
		return EnsureDeliveryIdentityIndex(conn)
	}),
)

// EnsureDeliveryIdentityIndex creates the uniqueness index that folds a
// missing customer into the shared sentinel 0, guaranteeing one record per
// (account, date, customer identity).
func EnsureDeliveryIdentityIndex(conn *gorm.DB) error {
	return conn.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_deliveries_account_date_customer
		 ON deliveries(account_id, delivery_date, COALESCE(customer_id, 0))`,
	).Error
}
