package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/milkround/milkround/internal/customer/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRange = errors.New("invalid_date_range")
	ErrMissingRange = errors.New("missing_date_range")
)

// AllCustomersLabel is shown on bills that are not narrowed to one
// customer, including filters that match nothing.
const AllCustomersLabel = "All Customers"

// ResolvedRecord is a delivery with its billing rate already decided.
// Rate precedence is record override, then customer default, then zero.
type ResolvedRecord struct {
	DeliveryDate time.Time
	CustomerID   *snowflake.ID
	CustomerName string
	Status       string
	Quantity     decimal.Decimal
	Rate         decimal.Decimal
	Amount       decimal.Decimal
}

type LineItem struct {
	Date         string          `json:"date"`
	CustomerName string          `json:"customer_name,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	Rate         decimal.Decimal `json:"rate"`
	Amount       decimal.Decimal `json:"amount"`
}

type AbsentDay struct {
	Date         string          `json:"date"`
	CustomerName string          `json:"customer_name,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
}

type Summary struct {
	TotalLitres   decimal.Decimal `json:"total_litres"`
	DeliveredDays int             `json:"delivered_days"`
	AbsentDays    int             `json:"absent_days"`
	AverageRate   decimal.Decimal `json:"average_rate"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

type BillReport struct {
	AccountName   string      `json:"account_name"`
	AccountAddr   string      `json:"account_address,omitempty"`
	CustomerLabel string      `json:"customer"`
	From          string      `json:"from"`
	To            string      `json:"to"`
	LineItems     []LineItem  `json:"line_items"`
	AbsentDays    []AbsentDay `json:"absent_days"`
	Summary       Summary     `json:"summary"`
	GeneratedAt   time.Time   `json:"generated_at"`
}

// CustomerHistory is one customer's delivery record with billed
// amounts, optionally narrowed to a single YYYY-MM period. The summary
// average falls back to the customer's default rate when no rated
// deliveries exist.
type CustomerHistory struct {
	Customer   *customerdomain.Customer `json:"customer"`
	Period     string                   `json:"period,omitempty"`
	LineItems  []LineItem               `json:"line_items"`
	AbsentDays []AbsentDay              `json:"absent_days"`
	Summary    Summary                  `json:"summary"`
}

type BillRequest struct {
	From       string `form:"period_start"`
	To         string `form:"period_end"`
	CustomerID string `form:"customer_id"`
}
