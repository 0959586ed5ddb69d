package stock

import "errors"

// ReturnStatus is the lifecycle state of a stock return. Returns have no
// rejection path: a pending return is either processed or stays pending.
type ReturnStatus string

const (
	ReturnPending   ReturnStatus = "pending"
	ReturnProcessed ReturnStatus = "processed"
)

var ErrReturnNotPending = errors.New("return is not pending")

// ReturnView is the projection of a stock return the process rule needs.
// Superior is the party who accepts the goods back: a concrete admin id for
// agent returns, or the super-admin sentinel for admin returns.
type ReturnView struct {
	Superior Target
	Status   ReturnStatus
}

// AuthorizeProcessReturn checks the pending -> processed transition. Only
// the superior the return is addressed to may process it.
func AuthorizeProcessReturn(r ReturnView, u Viewer) error {
	if r.Status != ReturnPending {
		return ErrReturnNotPending
	}
	switch r.Superior.Kind {
	case TargetSuperAdmin:
		if u.Role != RoleSuperAdmin {
			return ErrNotAllowed
		}
	case TargetUser:
		if r.Superior.UserID != u.ID {
			return ErrNotAllowed
		}
	default:
		return ErrNotAllowed
	}
	return nil
}
