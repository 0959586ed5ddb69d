package stock

import "errors"

// Status is the lifecycle state of a stock request.
type Status string

const (
	StatusPending    Status = "pending"
	StatusDispatched Status = "dispatched"
	StatusConfirmed  Status = "confirmed"
	StatusRejected   Status = "rejected"
)

// Action is the single control a viewer may be offered on a request.
type Action string

const (
	ActionNone    Action = "none"
	ActionReview  Action = "review"  // dispatch or reject a pending request
	ActionConfirm Action = "confirm" // acknowledge receipt of dispatched goods
)

var (
	ErrNotPending     = errors.New("request is not pending")
	ErrNotDispatched  = errors.New("request is not dispatched")
	ErrNotAllowed     = errors.New("you are not allowed to act on this request")
	ErrReasonRequired = errors.New("a rejection reason is required")
	ErrImageRequired  = errors.New("a confirmation image is required")
)

// CanTransition reports whether the state machine permits from -> to.
// rejected and confirmed are terminal; nothing returns to pending.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusDispatched || to == StatusRejected
	case StatusDispatched:
		return to == StatusConfirmed
	default:
		return false
	}
}

// isFulfiller reports whether the viewer is the party whose turn it is to
// dispatch or reject the request.
func isFulfiller(r RequestView, u Viewer) bool {
	switch Classify(r, u) {
	case SubordinateIncoming, AdminTransferIncoming:
		return true
	}
	return u.Role == RoleSuperAdmin && r.Target.Kind == TargetSuperAdmin && r.RequestedBy != u.ID
}

// AuthorizeDispatch checks the pending -> dispatched transition for a viewer.
func AuthorizeDispatch(r RequestView, u Viewer) error {
	if r.Status != StatusPending {
		return ErrNotPending
	}
	if !isFulfiller(r, u) {
		return ErrNotAllowed
	}
	return nil
}

// AuthorizeReject checks the pending -> rejected transition. The reason is
// mandatory and non-empty; the dispatch image never is.
func AuthorizeReject(r RequestView, u Viewer, reason string) error {
	if reason == "" {
		return ErrReasonRequired
	}
	return AuthorizeDispatch(r, u)
}

// AuthorizeConfirm checks the dispatched -> confirmed transition. Only the
// original requester confirms, and only with a proof-of-receipt image.
func AuthorizeConfirm(r RequestView, u Viewer, hasImage bool) error {
	if r.Status != StatusDispatched {
		return ErrNotDispatched
	}
	switch Classify(r, u) {
	case MyOutgoingToSuperior, AdminTransferOutgoing:
	default:
		return ErrNotAllowed
	}
	if !hasImage {
		return ErrImageRequired
	}
	return nil
}

// AuthorizeDelete permits deletion only while pending and only by the requester.
func AuthorizeDelete(r RequestView, u Viewer) error {
	if r.Status != StatusPending {
		return ErrNotPending
	}
	if r.RequestedBy != u.ID {
		return ErrNotAllowed
	}
	return nil
}

// AllowedAction computes the one control to offer the viewer, combining the
// classifier outcome with the current status.
func AllowedAction(r RequestView, u Viewer) Action {
	switch r.Status {
	case StatusPending:
		if isFulfiller(r, u) {
			return ActionReview
		}
	case StatusDispatched:
		switch Classify(r, u) {
		case MyOutgoingToSuperior, AdminTransferOutgoing:
			return ActionConfirm
		}
	}
	return ActionNone
}
