package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkround/milkround/pkg/db/pagination"
	"github.com/shopspring/decimal"
)

var (
	ErrDeliveryNotFound = errors.New("delivery_not_found")
	ErrDeliveryConflict = errors.New("delivery_conflict")
	ErrInvalidDate      = errors.New("invalid_delivery_date")
	ErrInvalidQuantity  = errors.New("invalid_quantity")
	ErrInvalidStatus    = errors.New("invalid_status")
	ErrInvalidPeriod    = errors.New("invalid_period")
	ErrInvalidRate      = errors.New("invalid_rate_per_litre")
	ErrUnknownCustomer  = errors.New("unknown_customer")
)

type UpsertDeliveryRequest struct {
	CustomerID   string           `json:"customer_id"`
	DeliveryDate string           `json:"delivery_date" binding:"required"`
	Quantity     decimal.Decimal  `json:"quantity"`
	Status       string           `json:"status" binding:"required"`
	RatePerLitre *decimal.Decimal `json:"rate_per_litre"`
	Notes        string           `json:"notes"`
}

// UpsertResult reports whether the write created a new record or
// replaced the existing one for the same identity.
type UpsertResult struct {
	Delivery *Delivery `json:"delivery"`
	Created  bool      `json:"created"`
}

type ListDeliveriesRequest struct {
	Period     string `form:"period"`
	CustomerID string `form:"customer_id"`
	From       string `form:"from"`
	To         string `form:"to"`

	pagination.Pagination
}

type ListDeliveriesResult struct {
	Deliveries []*Delivery          `json:"deliveries"`
	PageInfo   *pagination.PageInfo `json:"page_info"`
}

type Service interface {
	Upsert(ctx context.Context, req UpsertDeliveryRequest) (*UpsertResult, error)
	List(ctx context.Context, req ListDeliveriesRequest) (*ListDeliveriesResult, error)
	Delete(ctx context.Context, id string) error
	// ListRange returns every delivery for the account between from and
	// to inclusive, optionally narrowed to one customer.
	ListRange(ctx context.Context, accountID snowflake.ID, from, to time.Time, customerID *snowflake.ID) ([]*Delivery, error)
}

type Filter struct {
	AccountID  snowflake.ID
	Period     string
	CustomerID *snowflake.ID
	From       *time.Time
	To         *time.Time
	Cursor     *pagination.Cursor
	Limit      int
}
