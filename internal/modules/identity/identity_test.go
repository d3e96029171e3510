// README: Identity service tests.
package identity

import (
	"context"
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	for _, v := range []string{"requester", "driver", "admin", "manager"} {
		if _, err := ParseRole(v); err != nil {
			t.Errorf("ParseRole(%q): %v", v, err)
		}
	}
	for _, v := range []string{"", "root", "Superuser", "ADMIN"} {
		if _, err := ParseRole(v); err == nil {
			t.Errorf("ParseRole(%q) accepted", v)
		}
	}
}

func TestRegisterAndRoleOf(t *testing.T) {
	svc := NewService(NewMemStore())
	ctx := context.Background()

	if err := svc.Register(ctx, User{ID: "u1", Name: "Alex", Role: RoleManager}); err != nil {
		t.Fatalf("register: %v", err)
	}
	role, err := svc.RoleOf(ctx, "u1")
	if err != nil {
		t.Fatalf("role of: %v", err)
	}
	if role != RoleManager {
		t.Errorf("role = %s, want manager", role)
	}

	if err := svc.Register(ctx, User{ID: "u2", Name: "Kim", Role: "root"}); !errors.Is(err, ErrBadRequest) {
		t.Errorf("bad role: err = %v, want ErrBadRequest", err)
	}
	if err := svc.Register(ctx, User{Name: "No ID", Role: RoleDriver}); !errors.Is(err, ErrBadRequest) {
		t.Errorf("missing id: err = %v, want ErrBadRequest", err)
	}
	if _, err := svc.RoleOf(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user: err = %v, want ErrNotFound", err)
	}
}
