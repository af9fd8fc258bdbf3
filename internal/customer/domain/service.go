package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrCustomerNotFound = errors.New("customer_not_found")
	ErrCustomerExists   = errors.New("customer_name_exists")
	ErrInvalidName      = errors.New("invalid_customer_name")
	ErrInvalidRate      = errors.New("invalid_rate_per_litre")
)

type CreateCustomerRequest struct {
	Name         string          `json:"name" binding:"required"`
	Address      string          `json:"address"`
	Contact      string          `json:"contact"`
	RatePerLitre decimal.Decimal `json:"rate_per_litre"`
	Notes        string          `json:"notes"`
}

// UpdateCustomerRequest carries a partial update; nil fields are left
// untouched.
type UpdateCustomerRequest struct {
	Name         *string          `json:"name"`
	Address      *string          `json:"address"`
	Contact      *string          `json:"contact"`
	RatePerLitre *decimal.Decimal `json:"rate_per_litre"`
	Notes        *string          `json:"notes"`
}

type Service interface {
	Create(ctx context.Context, req CreateCustomerRequest) (*Customer, error)
	List(ctx context.Context) ([]*Customer, error)
	Get(ctx context.Context, id string) (*Customer, error)
	Update(ctx context.Context, id string, req UpdateCustomerRequest) (*Customer, error)
	Delete(ctx context.Context, id string) error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	List(ctx context.Context, db *gorm.DB, accountID snowflake.ID) ([]*Customer, error)
	FindByID(ctx context.Context, db *gorm.DB, accountID, id snowflake.ID) (*Customer, error)
	FindByName(ctx context.Context, db *gorm.DB, accountID snowflake.ID, name string) (*Customer, error)
	Update(ctx context.Context, db *gorm.DB, customer *Customer) error
	Delete(ctx context.Context, db *gorm.DB, accountID, id snowflake.ID) error
}
