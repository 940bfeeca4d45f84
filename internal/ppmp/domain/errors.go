package domain

import "errors"

var (
	ErrNotFound           = errors.New("ppmp_not_found")
	ErrItemNotFound       = errors.New("ppmp_item_not_found")
	ErrAllocationNotFound = errors.New("budget_allocation_not_found")
	ErrActivityNotFound   = errors.New("procurement_activity_not_found")
	ErrDuplicateItemNo    = errors.New("duplicate_item_no")
)

var (
	ErrInvalidTitle             = errors.New("invalid_title")
	ErrInvalidFiscalYear        = errors.New("invalid_fiscal_year")
	ErrInvalidDepartment        = errors.New("invalid_department_id")
	ErrInvalidStatusFilter      = errors.New("invalid_status")
	ErrInvalidItemNo            = errors.New("invalid_item_no")
	ErrInvalidCategory          = errors.New("invalid_category")
	ErrInvalidDescription       = errors.New("invalid_description")
	ErrInvalidQuantity          = errors.New("invalid_quantity")
	ErrInvalidUnit              = errors.New("invalid_unit")
	ErrInvalidUnitCost          = errors.New("invalid_unit_cost")
	ErrInvalidProcurementMethod = errors.New("invalid_procurement_method")
	ErrInvalidSchedule          = errors.New("invalid_schedule")
	ErrInvalidMonthlyAllocation = errors.New("invalid_monthly_allocation")
	ErrInvalidProduct           = errors.New("invalid_product_id")
	ErrInvalidBudgetCode        = errors.New("invalid_budget_code")
	ErrInvalidAllocatedAmount   = errors.New("invalid_allocated_amount")
	ErrInvalidExpendedAmount    = errors.New("invalid_expended_amount")
	ErrInvalidActivity          = errors.New("invalid_activity")
	ErrInvalidStartDate         = errors.New("invalid_start_date")
	ErrInvalidEndDate           = errors.New("invalid_end_date")
	ErrInvalidResponsibleUnit   = errors.New("invalid_responsible_unit")
	ErrInvalidActivityStatus    = errors.New("invalid_activity_status")
	ErrInvalidItemReference     = errors.New("invalid_ppmp_item_id")
)

var validationErrors = []error{
	ErrInvalidTitle,
	ErrInvalidFiscalYear,
	ErrInvalidDepartment,
	ErrInvalidStatusFilter,
	ErrInvalidItemNo,
	ErrInvalidCategory,
	ErrInvalidDescription,
	ErrInvalidQuantity,
	ErrInvalidUnit,
	ErrInvalidUnitCost,
	ErrInvalidProcurementMethod,
	ErrInvalidSchedule,
	ErrInvalidMonthlyAllocation,
	ErrInvalidProduct,
	ErrInvalidBudgetCode,
	ErrInvalidAllocatedAmount,
	ErrInvalidExpendedAmount,
	ErrInvalidActivity,
	ErrInvalidStartDate,
	ErrInvalidEndDate,
	ErrInvalidResponsibleUnit,
	ErrInvalidActivityStatus,
	ErrInvalidItemReference,
}

// IsValidationError reports whether err is one of the field validation errors above.
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrAllocationNotFound) ||
		errors.Is(err, ErrActivityNotFound)
}

// ErrTransitionInProgress is returned when another request holds the plan's transition lock.
var ErrTransitionInProgress = errors.New("transition_in_progress")
