package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkround/milkround/internal/delivery/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, delivery *domain.Delivery) error {
	return db.WithContext(ctx).Create(delivery).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, delivery *domain.Delivery) error {
	return db.WithContext(ctx).Save(delivery).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, accountID, id snowflake.ID) (*domain.Delivery, error) {
	var delivery domain.Delivery
	err := db.WithContext(ctx).
		Where("account_id = ? AND id = ?", accountID, id).
		First(&delivery).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDeliveryNotFound
		}
		return nil, err
	}
	return &delivery, nil
}

func (r *repo) FindByIdentity(ctx context.Context, db *gorm.DB, accountID snowflake.ID, date time.Time, customerID *snowflake.ID) (*domain.Delivery, error) {
	query := db.WithContext(ctx).
		Where("account_id = ? AND delivery_date = ?", accountID, date)
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	} else {
		query = query.Where("customer_id IS NULL")
	}

	var delivery domain.Delivery
	if err := query.First(&delivery).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDeliveryNotFound
		}
		return nil, err
	}
	return &delivery, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.Filter) ([]*domain.Delivery, error) {
	query := db.WithContext(ctx).
		Where("account_id = ?", filter.AccountID)

	if filter.Period != "" {
		query = query.Where("period = ?", filter.Period)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.From != nil {
		query = query.Where("delivery_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("delivery_date <= ?", *filter.To)
	}
	if filter.Cursor != nil {
		query = query.Where("id < ?", filter.Cursor.ID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit + 1)
	}

	var deliveries []*domain.Delivery
	err := query.
		Order("delivery_date DESC, id DESC").
		Find(&deliveries).Error
	if err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *repo) ListRange(ctx context.Context, db *gorm.DB, accountID snowflake.ID, from, to time.Time, customerID *snowflake.ID) ([]*domain.Delivery, error) {
	query := db.WithContext(ctx).
		Where("account_id = ? AND delivery_date >= ? AND delivery_date <= ?", accountID, from, to)
	if customerID != nil {
		query = query.Where("customer_id = ?", *customerID)
	}

	var deliveries []*domain.Delivery
	err := query.
		Order("delivery_date ASC, id ASC").
		Find(&deliveries).Error
	if err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, accountID, id snowflake.ID) error {
	result := db.WithContext(ctx).
		Where("account_id = ? AND id = ?", accountID, id).
		Delete(&domain.Delivery{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrDeliveryNotFound
	}
	return nil
}
