package stock

import (
	"errors"
	"testing"
)

func TestCanTransition(t *testing.T) {
	allowed := map[[2]Status]bool{
		{StatusPending, StatusDispatched}:   true,
		{StatusPending, StatusRejected}:     true,
		{StatusDispatched, StatusConfirmed}: true,
	}
	all := []Status{StatusPending, StatusDispatched, StatusConfirmed, StatusRejected}
	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]Status{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestAuthorizeDispatch(t *testing.T) {
	admin := Viewer{ID: "admin-1", Role: RoleAdmin}
	root := Viewer{ID: "root", Role: RoleSuperAdmin}

	pool := RequestView{Target: ParseTarget("admin"), RequestedBy: "agent-1", Status: StatusPending}
	if err := AuthorizeDispatch(pool, admin); err != nil {
		t.Fatalf("admin should dispatch a pool request: %v", err)
	}
	if err := AuthorizeDispatch(pool, Viewer{ID: "agent-1", Role: RoleAgent}); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("requester must not dispatch their own request, got %v", err)
	}

	toRoot := RequestView{Target: ParseTarget("super-admin"), RequestedBy: "admin-1", Status: StatusPending}
	if err := AuthorizeDispatch(toRoot, root); err != nil {
		t.Fatalf("super-admin should dispatch a request addressed upward: %v", err)
	}

	dispatched := pool
	dispatched.Status = StatusDispatched
	if err := AuthorizeDispatch(dispatched, admin); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func TestAuthorizeRejectRequiresReason(t *testing.T) {
	admin := Viewer{ID: "admin-1", Role: RoleAdmin}
	r := RequestView{Target: ParseTarget("admin"), RequestedBy: "agent-1", Status: StatusPending}

	if err := AuthorizeReject(r, admin, ""); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}
	if err := AuthorizeReject(r, admin, "out of stock"); err != nil {
		t.Fatalf("reject with reason should pass: %v", err)
	}
}

func TestAuthorizeConfirm(t *testing.T) {
	agent := Viewer{ID: "agent-1", Role: RoleAgent}
	r := RequestView{Target: ParseTarget("admin"), RequestedBy: "agent-1", Status: StatusDispatched}

	if err := AuthorizeConfirm(r, agent, false); !errors.Is(err, ErrImageRequired) {
		t.Fatalf("confirm without image must be blocked, got %v", err)
	}
	if err := AuthorizeConfirm(r, agent, true); err != nil {
		t.Fatalf("requester confirm with image should pass: %v", err)
	}
	if err := AuthorizeConfirm(r, Viewer{ID: "admin-1", Role: RoleAdmin}, true); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("fulfiller must not confirm, got %v", err)
	}

	pending := r
	pending.Status = StatusPending
	if err := AuthorizeConfirm(pending, agent, true); !errors.Is(err, ErrNotDispatched) {
		t.Fatalf("expected ErrNotDispatched, got %v", err)
	}

	transfer := RequestView{Target: ParseTarget("admin-2"), RequestedBy: "admin-1", Status: StatusDispatched}
	if err := AuthorizeConfirm(transfer, Viewer{ID: "admin-1", Role: RoleAdmin}, true); err != nil {
		t.Fatalf("transfer sender should confirm: %v", err)
	}
}

func TestAuthorizeDelete(t *testing.T) {
	r := RequestView{Target: ParseTarget("admin"), RequestedBy: "agent-1", Status: StatusPending}
	if err := AuthorizeDelete(r, Viewer{ID: "agent-1", Role: RoleAgent}); err != nil {
		t.Fatalf("requester should delete a pending request: %v", err)
	}
	if err := AuthorizeDelete(r, Viewer{ID: "admin-1", Role: RoleAdmin}); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("only the requester deletes, got %v", err)
	}
	r.Status = StatusDispatched
	if err := AuthorizeDelete(r, Viewer{ID: "agent-1", Role: RoleAgent}); !errors.Is(err, ErrNotPending) {
		t.Fatalf("only pending requests delete, got %v", err)
	}
}

func TestAllowedAction(t *testing.T) {
	admin1 := Viewer{ID: "admin-1", Role: RoleAdmin}
	admin2 := Viewer{ID: "admin-2", Role: RoleAdmin}
	agent := Viewer{ID: "agent-1", Role: RoleAgent}

	pool := RequestView{Target: ParseTarget("admin"), RequestedBy: "agent-1", Status: StatusPending}
	if got := AllowedAction(pool, admin1); got != ActionReview {
		t.Fatalf("pending pool request for admin: want %s got %s", ActionReview, got)
	}
	if got := AllowedAction(pool, agent); got != ActionNone {
		t.Fatalf("pending pool request for requester: want %s got %s", ActionNone, got)
	}

	pool.Status = StatusDispatched
	if got := AllowedAction(pool, admin1); got != ActionNone {
		t.Fatalf("dispatched request offers nothing to the fulfiller, got %s", got)
	}
	if got := AllowedAction(pool, agent); got != ActionConfirm {
		t.Fatalf("dispatched request for requester: want %s got %s", ActionConfirm, got)
	}

	pool.Status = StatusConfirmed
	if got := AllowedAction(pool, agent); got != ActionNone {
		t.Fatalf("terminal state offers nothing, got %s", got)
	}

	transfer := RequestView{Target: ParseTarget("admin-2"), RequestedBy: "admin-1", Status: StatusPending}
	if got := AllowedAction(transfer, admin2); got != ActionReview {
		t.Fatalf("transfer target: want %s got %s", ActionReview, got)
	}
	if got := AllowedAction(transfer, admin1); got != ActionNone {
		t.Fatalf("transfer sender on pending: want %s got %s", ActionNone, got)
	}
}
