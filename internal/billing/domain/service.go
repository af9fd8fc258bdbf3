package domain

import "context"

type Service interface {
	// BuildBill assembles the bill for the account in context over the
	// requested date range, optionally narrowed to one customer.
	BuildBill(ctx context.Context, req BillRequest) (*BillReport, error)

	// CustomerHistory returns the customer's delivery record with
	// billed amounts, the whole history or one YYYY-MM period.
	CustomerHistory(ctx context.Context, customerID, period string) (*CustomerHistory, error)
}
