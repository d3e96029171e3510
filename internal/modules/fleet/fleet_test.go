// README: Fleet service tests (registration, plate validation, status overrides).
package fleet

import (
	"context"
	"errors"
	"testing"
)

func TestValidVehicleNumber(t *testing.T) {
	cases := []struct {
		number string
		want   bool
	}{
		{"NB-1985", true},
		{"ABC-1234", true},
		{"AB-0000", true},
		{"A-1234", false},    // too few letters
		{"ABCD-1234", false}, // too many letters
		{"AB-123", false},    // too few digits
		{"AB-12345", false},  // too many digits
		{"ab-1234", false},   // lowercase
		{"AB1234", false},    // missing hyphen
		{"1234-AB", false},   // reversed
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidVehicleNumber(tc.number); got != tc.want {
			t.Errorf("ValidVehicleNumber(%q) = %v, want %v", tc.number, got, tc.want)
		}
	}
}

func TestRegisterVehicle(t *testing.T) {
	svc := NewService(NewMemStore())
	ctx := context.Background()

	v, err := svc.RegisterVehicle(ctx, Vehicle{Number: "NB-1985", Type: "sedan"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if v.ID == "" {
		t.Error("id not generated")
	}
	if v.Status != VehicleAvailable {
		t.Errorf("status = %s, want available", v.Status)
	}

	if _, err := svc.RegisterVehicle(ctx, Vehicle{Number: "NB-1985", Type: "van"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate plate: err = %v, want ErrDuplicate", err)
	}
	if _, err := svc.RegisterVehicle(ctx, Vehicle{Number: "bad plate", Type: "van"}); !errors.Is(err, ErrBadRequest) {
		t.Errorf("bad plate: err = %v, want ErrBadRequest", err)
	}
	if _, err := svc.RegisterVehicle(ctx, Vehicle{Number: "AB-1234"}); !errors.Is(err, ErrBadRequest) {
		t.Errorf("missing type: err = %v, want ErrBadRequest", err)
	}
}

func TestRegisterDriver(t *testing.T) {
	svc := NewService(NewMemStore())
	ctx := context.Background()

	if err := svc.RegisterDriver(ctx, Driver{ID: "d1", Name: "Driver One"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	d, err := svc.Driver(ctx, "d1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.Name != "Driver One" {
		t.Errorf("name = %q", d.Name)
	}

	if err := svc.RegisterDriver(ctx, Driver{ID: "", Name: "Nameless"}); !errors.Is(err, ErrBadRequest) {
		t.Errorf("missing id: err = %v, want ErrBadRequest", err)
	}
	if _, err := svc.Driver(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown driver: err = %v, want ErrNotFound", err)
	}
}

func TestSetVehicleStatus(t *testing.T) {
	svc := NewService(NewMemStore())
	ctx := context.Background()

	v, err := svc.RegisterVehicle(ctx, Vehicle{Number: "AB-1234", Type: "sedan"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.SetVehicleStatus(ctx, v.ID, VehicleMaintenance); err != nil {
		t.Fatalf("set maintenance: %v", err)
	}
	got, err := svc.Vehicle(ctx, v.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != VehicleMaintenance {
		t.Errorf("status = %s, want maintenance", got.Status)
	}

	if err := svc.SetVehicleStatus(ctx, v.ID, "retired"); !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("unknown status: err = %v, want ErrUnknownStatus", err)
	}
	if err := svc.SetVehicleStatus(ctx, "ghost", VehicleAvailable); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown vehicle: err = %v, want ErrNotFound", err)
	}
}
