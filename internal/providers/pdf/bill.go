package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	billingdomain "github.com/milkround/milkround/internal/billing/domain"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateBill(ctx context.Context, report *billingdomain.BillReport) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(10,
		text.NewCol(12, "Milk Bill", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New(report.AccountName, props.Text{Style: fontstyle.Bold}),
			text.New(report.AccountAddr, props.Text{Top: 5}),
		),
		col.New(6).Add(
			text.New("Customer: "+report.CustomerLabel, props.Text{Top: 0}),
			text.New("Period: "+report.From+" to "+report.To, props.Text{Top: 4}),
			text.New("Generated: "+report.GeneratedAt.Format("2006-01-02"), props.Text{Top: 8}),
		),
	)

	m.AddRow(10,
		text.NewCol(3, "Date", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Customer", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Litres", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Rate", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range report.LineItems {
		m.AddRow(8,
			text.NewCol(3, item.Date, props.Text{Size: 9}),
			text.NewCol(3, item.CustomerName, props.Text{Size: 9}),
			text.NewCol(2, item.Quantity.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Rate.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
		)
	}

	if len(report.AbsentDays) > 0 {
		m.AddRow(10,
			text.NewCol(12, "Absent days", props.Text{Style: fontstyle.Bold, Size: 9, Top: 4}),
		)
		for _, day := range report.AbsentDays {
			m.AddRow(8,
				text.NewCol(3, day.Date, props.Text{Size: 9}),
				text.NewCol(3, day.CustomerName, props.Text{Size: 9}),
				text.NewCol(4, "Absent", props.Text{Size: 9}),
				text.NewCol(2, "0.00", props.Text{Size: 9, Align: align.Right}),
			)
		}
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total litres", props.Text{Size: 9, Top: 4}),
		text.NewCol(2, report.Summary.TotalLitres.StringFixed(2), props.Text{Size: 9, Align: align.Right, Top: 4}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Delivered days", props.Text{Size: 9}),
		text.NewCol(2, fmt.Sprintf("%d", report.Summary.DeliveredDays), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Average rate", props.Text{Size: 9}),
		text.NewCol(2, report.Summary.AverageRate.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Amount due", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, report.Summary.TotalAmount.StringFixed(2), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
