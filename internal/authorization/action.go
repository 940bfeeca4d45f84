package authorization

import "sort"

const (
	ObjectPPMP   = "ppmp"
	ObjectReport = "report"
)

type Action string

const (
	ActionView               Action = "ppmp.view"
	ActionCreate             Action = "ppmp.create"
	ActionEdit               Action = "ppmp.edit"
	ActionDelete             Action = "ppmp.delete"
	ActionSubmit             Action = "ppmp.submit"
	ActionApprove            Action = "ppmp.approve"
	ActionReject             Action = "ppmp.reject"
	ActionLinkDisbursement   Action = "ppmp.link_disbursement"
	ActionUnlinkDisbursement Action = "ppmp.unlink_disbursement"
	ActionViewPending        Action = "ppmp.view_pending"
	ActionViewReports        Action = "report.view"
)

// AllActions lists every action known to the matrix.
var AllActions = []Action{
	ActionView,
	ActionCreate,
	ActionEdit,
	ActionDelete,
	ActionSubmit,
	ActionApprove,
	ActionReject,
	ActionLinkDisbursement,
	ActionUnlinkDisbursement,
	ActionViewPending,
	ActionViewReports,
}

func (a Action) object() string {
	if a == ActionViewReports {
		return ObjectReport
	}
	return ObjectPPMP
}

type ActionSet map[Action]struct{}

func newActionSet(actions ...Action) ActionSet {
	set := make(ActionSet, len(actions))
	for _, action := range actions {
		set[action] = struct{}{}
	}
	return set
}

func (s ActionSet) Has(action Action) bool {
	_, ok := s[action]
	return ok
}

// Sorted returns the actions as strings in lexical order.
func (s ActionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for action := range s {
		out = append(out, string(action))
	}
	sort.Strings(out)
	return out
}
