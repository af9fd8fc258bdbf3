package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrEmptySnapshot = errors.New("empty_snapshot")

// Snapshot is the portable account dump. Customers are keyed by name
// and deliveries by (date, customer name) so a snapshot can move
// between accounts and installations without carrying ids.
type Snapshot struct {
	ExportID   string           `json:"export_id"`
	ExportedAt time.Time        `json:"exported_at"`
	Customers  []CustomerRecord `json:"customers"`
	Deliveries []DeliveryRecord `json:"deliveries"`
}

type CustomerRecord struct {
	Name         string          `json:"name"`
	Address      string          `json:"address,omitempty"`
	Contact      string          `json:"contact,omitempty"`
	RatePerLitre decimal.Decimal `json:"rate_per_litre"`
	Notes        string          `json:"notes,omitempty"`
}

type DeliveryRecord struct {
	DeliveryDate string           `json:"delivery_date"`
	CustomerName string           `json:"customer_name,omitempty"`
	Quantity     decimal.Decimal  `json:"quantity"`
	Status       string           `json:"status"`
	RatePerLitre *decimal.Decimal `json:"rate_per_litre,omitempty"`
	Notes        string           `json:"notes,omitempty"`
}

// ImportResult counts what the reconciliation did. Errors holds one
// message per rejected record; accepted records are never rolled back
// because of a rejected one.
type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

type Service interface {
	ExportJSON(ctx context.Context) (*Snapshot, error)
	ExportCSV(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, snapshot Snapshot) (*ImportResult, error)
}
