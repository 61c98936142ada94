package returns

import "book-rental-backend/internal/domain"

type edge struct {
	to     domain.ReturnStatus
	actors []domain.Role
	// method restricts the edge to one return method; empty means any.
	method domain.ReturnMethod
}

var (
	adminOnly       = []domain.Role{domain.RoleAdmin}
	customerOrAdmin = []domain.Role{domain.RoleCustomer, domain.RoleAdmin}
	adminOrSystem   = []domain.Role{domain.RoleAdmin, domain.RoleSystem}
	cancelByStaff   = edge{to: domain.ReturnStatusCancelled, actors: adminOnly}
)

// transitions has one row per status; terminal rows are empty.
var transitions = [domain.ReturnStatusCount][]edge{
	domain.ReturnStatusPending: {
		{to: domain.ReturnStatusApproved, actors: adminOnly},
		{to: domain.ReturnStatusCancelled, actors: customerOrAdmin},
	},
	domain.ReturnStatusApproved: {
		{to: domain.ReturnStatusShipped, actors: customerOrAdmin, method: domain.ReturnMethodShipping},
		{to: domain.ReturnStatusReceived, actors: customerOrAdmin, method: domain.ReturnMethodStorePickup},
		cancelByStaff,
	},
	domain.ReturnStatusShipped: {
		{to: domain.ReturnStatusReceived, actors: adminOrSystem},
		cancelByStaff,
	},
	domain.ReturnStatusReceived: {
		{to: domain.ReturnStatusInspected, actors: adminOnly},
		cancelByStaff,
	},
	domain.ReturnStatusInspected: {
		{to: domain.ReturnStatusCompleted, actors: adminOnly},
		cancelByStaff,
	},
	domain.ReturnStatusCompleted: nil,
	domain.ReturnStatusCancelled: nil,
}

func (e edge) permits(method domain.ReturnMethod, role domain.Role) bool {
	if e.method != "" && e.method != method {
		return false
	}
	for _, r := range e.actors {
		if r == role {
			return true
		}
	}
	return false
}

// CanTransition reports whether role may move a request using method from
// one status to another.
func CanTransition(from, to domain.ReturnStatus, method domain.ReturnMethod, role domain.Role) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	for _, e := range transitions[from] {
		if e.to == to && e.permits(method, role) {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses role may move req to from its current state.
func NextStatuses(req *domain.ReturnRequest, role domain.Role) []domain.ReturnStatus {
	if !req.ReturnStatus.IsValid() {
		return nil
	}
	var out []domain.ReturnStatus
	for _, e := range transitions[req.ReturnStatus] {
		if e.permits(req.ReturnMethod, role) {
			out = append(out, e.to)
		}
	}
	return out
}
