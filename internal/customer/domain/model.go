package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Customer is a delivery point owned by a single account. Names are
// unique within an account; the zero rate means "no default rate set".
type Customer struct {
	ID           snowflake.ID    `json:"id,string" gorm:"primaryKey"`
	AccountID    snowflake.ID    `json:"account_id,string" gorm:"index:idx_customers_account_name,unique"`
	Name         string          `json:"name" gorm:"index:idx_customers_account_name,unique;size:100"`
	Address      string          `json:"address"`
	Contact      string          `json:"contact" gorm:"size:30"`
	RatePerLitre decimal.Decimal `json:"rate_per_litre" gorm:"type:decimal(10,2)"`
	Notes        string          `json:"notes"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}
