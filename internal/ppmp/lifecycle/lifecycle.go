// Package lifecycle defines plan statuses and the transitions between them.
package lifecycle

import (
	"errors"
	"strings"
)

type Status string

const (
	StatusDraft       Status = "DRAFT"
	StatusSubmitted   Status = "SUBMITTED"
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
	StatusImplemented Status = "IMPLEMENTED"
)

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusDraft,
	StatusSubmitted,
	StatusApproved,
	StatusRejected,
	StatusImplemented,
}

var (
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidTransition   = errors.New("invalid_transition")
	ErrNotDraft            = errors.New("only_draft_can_be_submitted")
	ErrNotSubmitted        = errors.New("only_submitted_can_be_reviewed")
	ErrNoItems             = errors.New("ppmp_has_no_items")
	ErrNoAllocations       = errors.New("ppmp_has_no_budget_allocations")
	ErrNotAuthor           = errors.New("not_submitted_by_you")
	ErrRejectReasonMissing = errors.New("rejection_reason_required")
	ErrDeleteNotDraft      = errors.New("only_draft_can_be_deleted")
	ErrNotApproved         = errors.New("ppmp_not_approved")
)

// transitions holds every allowed edge. REJECTED and APPROVED have no outgoing edges.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusSubmitted},
	StatusSubmitted: {StatusApproved, StatusRejected},
}

func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SubmitFacts is the plan state the submit guard inspects.
type SubmitFacts struct {
	Status          Status
	ItemCount       int64
	AllocationCount int64
}

// CheckSubmit returns the first unmet precondition for DRAFT -> SUBMITTED.
func CheckSubmit(f SubmitFacts) error {
	if f.Status != StatusDraft {
		return ErrNotDraft
	}
	if f.ItemCount < 1 {
		return ErrNoItems
	}
	if f.AllocationCount < 1 {
		return ErrNoAllocations
	}
	return nil
}

// CheckReview guards SUBMITTED -> APPROVED and SUBMITTED -> REJECTED.
func CheckReview(current, target Status) error {
	if current != StatusSubmitted {
		return ErrNotSubmitted
	}
	if !CanTransition(current, target) {
		return ErrInvalidTransition
	}
	return nil
}

// CheckReject additionally requires a non-blank reason.
func CheckReject(current Status, reason string) error {
	if err := CheckReview(current, StatusRejected); err != nil {
		return err
	}
	if strings.TrimSpace(reason) == "" {
		return ErrRejectReasonMissing
	}
	return nil
}

func CheckDelete(current Status) error {
	if current != StatusDraft {
		return ErrDeleteNotDraft
	}
	return nil
}

// CheckLinkable guards disbursement linking, which needs an approved plan.
func CheckLinkable(current Status) error {
	if current != StatusApproved {
		return ErrNotApproved
	}
	return nil
}

// IsGuardError reports whether err is a lifecycle precondition failure.
func IsGuardError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrNotDraft),
		errors.Is(err, ErrNotSubmitted),
		errors.Is(err, ErrNoItems),
		errors.Is(err, ErrNoAllocations),
		errors.Is(err, ErrNotAuthor),
		errors.Is(err, ErrRejectReasonMissing),
		errors.Is(err, ErrDeleteNotDraft),
		errors.Is(err, ErrNotApproved):
		return true
	default:
		return false
	}
}

// Message returns the human-readable reason for a guard error.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrNotDraft):
		return "Only draft PPMPs can be submitted"
	case errors.Is(err, ErrNotSubmitted):
		return "Only submitted PPMPs can be approved or rejected"
	case errors.Is(err, ErrNoItems):
		return "PPMP must have at least one item"
	case errors.Is(err, ErrNoAllocations):
		return "PPMP must have budget allocations"
	case errors.Is(err, ErrNotAuthor):
		return "PPMP was not prepared by you"
	case errors.Is(err, ErrRejectReasonMissing):
		return "Rejection reason is required"
	case errors.Is(err, ErrDeleteNotDraft):
		return "Only draft PPMPs can be deleted"
	case errors.Is(err, ErrNotApproved):
		return "PPMP must be approved before linking disbursements"
	case errors.Is(err, ErrInvalidStatus):
		return "Invalid status"
	default:
		return "Invalid status transition"
	}
}
