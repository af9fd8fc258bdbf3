package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Delivery status values. Mixed and no-entry days carry no quantity
// and are excluded from billing counters.
const (
	StatusDelivered = "delivered"
	StatusAbsent    = "absent"
	StatusMixed     = "mixed"
	StatusNoEntry   = "no_entry"
)

// Delivery records one day for one customer (or a customer-less account
// level entry when CustomerID is nil). Identity within an account is
// (delivery_date, customer_id), enforced by a unique expression index
// that folds NULL customer ids to zero.
type Delivery struct {
	ID           snowflake.ID     `json:"id,string" gorm:"primaryKey"`
	AccountID    snowflake.ID     `json:"account_id,string" gorm:"index:idx_deliveries_account_period"`
	CustomerID   *snowflake.ID    `json:"customer_id,string,omitempty"`
	DeliveryDate time.Time        `json:"delivery_date" gorm:"type:date"`
	Quantity     decimal.Decimal  `json:"quantity" gorm:"type:decimal(10,2)"`
	Status       string           `json:"status" gorm:"size:20"`
	Period       string           `json:"period" gorm:"size:7;index:idx_deliveries_account_period"`
	RatePerLitre *decimal.Decimal `json:"rate_per_litre,omitempty" gorm:"type:decimal(10,2)"`
	Notes        string           `json:"notes"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (Delivery) TableName() string {
	return "deliveries"
}

// ValidStatus reports whether s is one of the recognised status values.
func ValidStatus(s string) bool {
	switch s {
	case StatusDelivered, StatusAbsent, StatusMixed, StatusNoEntry:
		return true
	}
	return false
}

// PeriodOf formats the month bucket a date belongs to.
func PeriodOf(date time.Time) string {
	return date.Format("2006-01")
}
