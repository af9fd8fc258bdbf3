package pdf

import (
	"context"
	"io"

	billingdomain "github.com/milkround/milkround/internal/billing/domain"
	"go.uber.org/fx"
)

type Provider interface {
	GenerateBill(ctx context.Context, report *billingdomain.BillReport) (io.Reader, error)
}

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)
