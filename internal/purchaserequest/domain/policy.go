package domain

import "github.com/smallbiznis/ppmp/internal/authorization"

// CanView lets admins and reviewers read every request. Everyone else sees
// the requests of their department and the ones they created.
func CanView(actor authorization.Actor, pr *PurchaseRequest) bool {
	if actor.IsAdmin() || actor.Role.IsReviewer() {
		return true
	}
	return pr.CreatedByID == actor.UserID || actor.InDepartment(pr.DepartmentID)
}

// CanEdit covers field changes, product lines and deletion. Creators keep
// the request while it is a draft; admins may always edit.
func CanEdit(actor authorization.Actor, pr *PurchaseRequest) bool {
	if actor.IsAdmin() {
		return true
	}
	return pr.Status == StatusDraft && pr.CreatedByID == actor.UserID
}

type transition struct {
	from, to Status
}

var reviewerTransitions = map[transition]bool{
	{StatusSubmitted, StatusApproved}: true,
	{StatusSubmitted, StatusRejected}: true,
}

var ownerTransitions = map[transition]bool{
	{StatusDraft, StatusSubmitted}:     true,
	{StatusDraft, StatusCancelled}:     true,
	{StatusSubmitted, StatusCancelled}: true,
	{StatusRejected, StatusDraft}:      true,
}

// CheckTransition returns ErrTransition for moves outside the table and
// authorization.ErrForbidden when the actor may not make an allowed move.
func CheckTransition(actor authorization.Actor, pr *PurchaseRequest, to Status) error {
	t := transition{from: pr.Status, to: to}
	switch {
	case reviewerTransitions[t]:
		if actor.IsAdmin() || actor.Role.IsReviewer() {
			return nil
		}
	case ownerTransitions[t]:
		if actor.IsAdmin() || pr.CreatedByID == actor.UserID {
			return nil
		}
	default:
		return ErrTransition
	}
	return authorization.ErrForbidden
}
