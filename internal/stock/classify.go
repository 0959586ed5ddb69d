package stock

import "time"

// Relationship is the logical relation between a viewing user and a stock
// request. It decides which action the viewer may take; status alone does not.
type Relationship string

const (
	// MyOutgoingToSuperior: the viewer created this request and it is
	// addressed to their superior (super-admin, or the admin pool for agents).
	MyOutgoingToSuperior Relationship = "my-outgoing-to-superior"
	// SubordinateIncoming: an agent request in the admin pool, viewed by an
	// admin who must act on it.
	SubordinateIncoming Relationship = "subordinate-incoming"
	// AdminTransferIncoming: another admin targeted the viewer by id.
	AdminTransferIncoming Relationship = "admin-transfer-incoming"
	// AdminTransferOutgoing: the viewer sent a transfer to a named peer.
	AdminTransferOutgoing Relationship = "admin-transfer-outgoing"
	// Unrelated: visible for reporting only, no action offered.
	Unrelated Relationship = "unrelated"
)

// Viewer is the authenticated user a request is classified against.
type Viewer struct {
	ID   string
	Role string
}

// RequestView is the minimal projection of a stock request the domain rules
// need. Handlers build it from the stored document.
type RequestView struct {
	Target        Target
	RequestedBy   string
	Status        Status
	CreatedAt     time.Time
	TotalQuantity int
}

// Classify determines the relationship between a request and a viewer.
// It is total and pure: every (request, viewer) pair yields exactly one tag.
func Classify(r RequestView, u Viewer) Relationship {
	switch r.Target.Kind {
	case TargetSuperAdmin:
		if r.RequestedBy == u.ID {
			return MyOutgoingToSuperior
		}
		return Unrelated
	case TargetAnyAdmin:
		if r.RequestedBy == u.ID {
			return MyOutgoingToSuperior
		}
		if u.Role == RoleAdmin {
			return SubordinateIncoming
		}
		return Unrelated
	default:
		// A degenerate self-request offers no action: a requester cannot
		// dispatch to themselves.
		if r.Target.UserID == u.ID && r.RequestedBy == u.ID {
			return Unrelated
		}
		if r.Target.UserID == u.ID {
			return AdminTransferIncoming
		}
		if r.RequestedBy == u.ID {
			return AdminTransferOutgoing
		}
		return Unrelated
	}
}
