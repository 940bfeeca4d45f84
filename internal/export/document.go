package export

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	ppmpdomain "github.com/smallbiznis/ppmp/internal/ppmp/domain"
)

// Document is the printable projection of a plan.
type Document struct {
	Reference      string
	Title          string
	FiscalYear     int
	Department     string
	PreparedBy     string
	ApprovedBy     string
	Status         string
	GeneratedAt    string
	TotalEstimated string
	TotalAllocated string
	Items          []DocumentItem
	Allocations    []DocumentAllocation
}

type DocumentItem struct {
	ItemNo      string
	Description string
	Category    string
	Quantity    int
	Unit        string
	UnitCost    string
	TotalCost   string
	Method      string
}

type DocumentAllocation struct {
	BudgetCode  string
	Description string
	Allocated   string
	Expended    string
}

func newDocument(detail *ppmpdomain.PlanDetail, reference, generatedAt string) Document {
	doc := Document{
		Reference:      reference,
		Title:          detail.Title,
		FiscalYear:     detail.FiscalYear,
		Department:     detail.DepartmentName,
		PreparedBy:     detail.PreparedByName,
		ApprovedBy:     detail.ApprovedByName,
		Status:         string(detail.Status),
		GeneratedAt:    generatedAt,
		TotalEstimated: detail.TotalEstimatedBudget.StringFixed(2),
		TotalAllocated: detail.TotalAllocatedBudget.StringFixed(2),
	}
	for _, item := range detail.Items {
		doc.Items = append(doc.Items, DocumentItem{
			ItemNo:      item.ItemNo,
			Description: item.Description,
			Category:    humanize(string(item.Category)),
			Quantity:    item.Quantity,
			Unit:        item.Unit,
			UnitCost:    item.UnitCost.StringFixed(2),
			TotalCost:   item.TotalCost.StringFixed(2),
			Method:      humanize(string(item.ProcurementMethod)),
		})
	}
	for _, allocation := range detail.Allocations {
		doc.Allocations = append(doc.Allocations, DocumentAllocation{
			BudgetCode:  allocation.BudgetCode,
			Description: allocation.Description,
			Allocated:   allocation.AllocatedAmount.StringFixed(2),
			Expended:    allocation.ExpendedAmount.StringFixed(2),
		})
	}
	return doc
}

// Filename builds ppmp-<title slug>-<fiscal year>.pdf.
func Filename(title string, fiscalYear int) string {
	name := slug.Make(title)
	if name == "" {
		name = "plan"
	}
	return fmt.Sprintf("ppmp-%s-%d.pdf", name, fiscalYear)
}

func humanize(value string) string {
	words := strings.Split(strings.ToLower(value), "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
