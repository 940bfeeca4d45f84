package export

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type Renderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
}

type PDFRenderer struct{}

func NewRenderer() Renderer {
	return &PDFRenderer{}
}

var (
	headerText = props.Text{Style: fontstyle.Bold, Size: 8}
	cellText   = props.Text{Size: 8}
	moneyText  = props.Text{Size: 8, Align: align.Right}
)

func (r *PDFRenderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(10,
		text.NewCol(12, "Project Procurement Management Plan", props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, fmt.Sprintf("%s (FY %d)", doc.Title, doc.FiscalYear), props.Text{
			Size:  11,
			Align: align.Center,
		}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New("Department: "+doc.Department, props.Text{Size: 9}),
			text.New("Prepared by: "+doc.PreparedBy, props.Text{Size: 9, Top: 5}),
			text.New("Approved by: "+orDash(doc.ApprovedBy), props.Text{Size: 9, Top: 10}),
		),
		col.New(6).Add(
			text.New("Status: "+doc.Status, props.Text{Size: 9, Align: align.Right}),
			text.New("Generated: "+doc.GeneratedAt, props.Text{Size: 9, Top: 5, Align: align.Right}),
			text.New("Reference: "+doc.Reference, props.Text{Size: 9, Top: 10, Align: align.Right}),
		),
	)

	m.AddRow(8,
		text.NewCol(1, "No.", headerText),
		text.NewCol(3, "Description", headerText),
		text.NewCol(2, "Category", headerText),
		text.NewCol(1, "Qty", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right}),
		text.NewCol(1, "Unit", headerText),
		text.NewCol(1, "Unit cost", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right}),
		text.NewCol(1, "Total", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right}),
		text.NewCol(2, "Mode", headerText),
	)
	for _, item := range doc.Items {
		m.AddRow(10,
			text.NewCol(1, item.ItemNo, cellText),
			text.NewCol(3, item.Description, cellText),
			text.NewCol(2, item.Category, cellText),
			text.NewCol(1, fmt.Sprintf("%d", item.Quantity), moneyText),
			text.NewCol(1, item.Unit, cellText),
			text.NewCol(1, item.UnitCost, moneyText),
			text.NewCol(1, item.TotalCost, moneyText),
			text.NewCol(2, item.Method, cellText),
		)
	}
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Total estimated", headerText),
		text.NewCol(2, doc.TotalEstimated, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right}),
	)

	if len(doc.Allocations) > 0 {
		m.AddRow(10,
			text.NewCol(12, "Budget allocations", props.Text{Size: 11, Style: fontstyle.Bold, Top: 3}),
		)
		m.AddRow(8,
			text.NewCol(3, "Budget code", headerText),
			text.NewCol(5, "Description", headerText),
			text.NewCol(2, "Allocated", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right}),
			text.NewCol(2, "Expended", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right}),
		)
		for _, allocation := range doc.Allocations {
			m.AddRow(8,
				text.NewCol(3, allocation.BudgetCode, cellText),
				text.NewCol(5, allocation.Description, cellText),
				text.NewCol(2, allocation.Allocated, moneyText),
				text.NewCol(2, allocation.Expended, moneyText),
			)
		}
	}
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Total allocated", headerText),
		text.NewCol(2, doc.TotalAllocated, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right}),
	)

	out, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return out.GetBytes(), nil
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
