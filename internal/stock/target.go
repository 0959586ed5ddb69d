package stock

// Role values carried in JWT claims and user documents.
const (
	RoleSuperAdmin = "super-admin"
	RoleAdmin      = "admin"
	RoleAgent      = "agent"
	RoleAccount    = "account"
)

// TargetKind discriminates who a stock request is addressed to.
type TargetKind int

const (
	// TargetSuperAdmin routes the request to the super-admin warehouse.
	TargetSuperAdmin TargetKind = iota
	// TargetAnyAdmin routes an agent request to the admin pool.
	TargetAnyAdmin
	// TargetUser routes the request to one named peer (admin-to-admin transfer).
	TargetUser
)

// Target is the explicit form of the requested_from field. On the wire and
// in Mongo it stays a single string ("super-admin", "admin", or a user id);
// domain code always works with the parsed form so the three meanings can
// never be confused by a raw string comparison.
type Target struct {
	Kind   TargetKind
	UserID string // set only when Kind == TargetUser
}

// ParseTarget maps the stored requested_from string to a Target.
func ParseTarget(s string) Target {
	switch s {
	case RoleSuperAdmin:
		return Target{Kind: TargetSuperAdmin}
	case RoleAdmin:
		return Target{Kind: TargetAnyAdmin}
	default:
		return Target{Kind: TargetUser, UserID: s}
	}
}

// String returns the wire form of the target.
func (t Target) String() string {
	switch t.Kind {
	case TargetSuperAdmin:
		return RoleSuperAdmin
	case TargetAnyAdmin:
		return RoleAdmin
	default:
		return t.UserID
	}
}
