package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, delivery *Delivery) error
	Update(ctx context.Context, db *gorm.DB, delivery *Delivery) error
	FindByID(ctx context.Context, db *gorm.DB, accountID, id snowflake.ID) (*Delivery, error)
	FindByIdentity(ctx context.Context, db *gorm.DB, accountID snowflake.ID, date time.Time, customerID *snowflake.ID) (*Delivery, error)
	List(ctx context.Context, db *gorm.DB, filter Filter) ([]*Delivery, error)
	ListRange(ctx context.Context, db *gorm.DB, accountID snowflake.ID, from, to time.Time, customerID *snowflake.ID) ([]*Delivery, error)
	Delete(ctx context.Context, db *gorm.DB, accountID, id snowflake.ID) error
}
