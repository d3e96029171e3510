// README: End-to-end router tests over the in-memory stores.
package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	httptransport "fleetride/internal/http"
	"fleetride/internal/infra"
	"fleetride/internal/modules/availability"
	"fleetride/internal/modules/fleet"
	"fleetride/internal/modules/identity"
	"fleetride/internal/modules/notify"
	"fleetride/internal/modules/ride"
	"fleetride/internal/types"
)

// uidVerifier treats the bearer token itself as the verified UID, so tests
// pick their caller per request.
type uidVerifier struct{}

func (uidVerifier) VerifyIDToken(_ context.Context, token string) (*infra.FirebaseToken, error) {
	return &infra.FirebaseToken{UID: token}, nil
}

// fixedDistance is a RouteEstimator returning one constant.
type fixedDistance float64

func (d fixedDistance) RoadDistanceKm(context.Context, types.Location, types.Location) (float64, error) {
	return float64(d), nil
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	userSvc := identity.NewService(identity.NewMemStore())
	seed := []identity.User{
		{ID: "u_req", Name: "Requester", Role: identity.RoleRequester},
		{ID: "u_mgr", Name: "Manager", Role: identity.RoleManager},
		{ID: "u_adm", Name: "Admin", Role: identity.RoleAdmin},
		{ID: "u_drv", Name: "Driver", Role: identity.RoleDriver},
	}
	for _, u := range seed {
		if err := userSvc.Register(ctx, u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	fleetSvc := fleet.NewService(fleet.NewMemStore())
	if err := fleetSvc.RegisterDriver(ctx, fleet.Driver{ID: "u_drv", Name: "Driver"}); err != nil {
		t.Fatalf("seed driver: %v", err)
	}
	if _, err := fleetSvc.RegisterVehicle(ctx, fleet.Vehicle{ID: "veh1", Number: "AB-1234", Type: "sedan"}); err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}

	rideStore := ride.NewMemStore()
	rideSvc := ride.NewService(rideStore, userSvc, fleetSvc,
		notify.NewService(notify.NewMemQueue(), nil, 1), ride.NewClassifier(15.0))
	availSvc := availability.NewService(rideStore, fleetSvc)

	return httptransport.NewRouter(uidVerifier{}, userSvc, fleetSvc, rideSvc, availSvc, fixedDistance(18.0))
}

func do(t *testing.T, h http.Handler, method, path, uid string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set("Authorization", "Bearer "+uid)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestHealthIsPublic(t *testing.T) {
	h := newTestServer(t)
	w := do(t, h, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("health = %d, want 200", w.Code)
	}
}

func TestAPIRequiresAuth(t *testing.T) {
	h := newTestServer(t)
	w := do(t, h, http.MethodGet, "/api/rides", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated = %d, want 401", w.Code)
	}
}

func TestRideLifecycleOverHTTP(t *testing.T) {
	h := newTestServer(t)

	createBody := map[string]any{
		"ride_type":      "one_way",
		"pickup":         map[string]any{"address": "HQ", "lat": 25.03, "lng": 121.56},
		"destination":    map[string]any{"address": "Airport", "lat": 25.08, "lng": 121.23},
		"scheduled_date": "2026-09-01",
		"scheduled_time": "09:30",
		"vehicle_type":   "sedan",
	}
	// distance omitted: the estimator supplies 18 km and routes to the manager
	w := do(t, h, http.MethodPost, "/api/rides", "u_req", createBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decode(t, w, &created)
	if created.Status != "awaiting_manager" {
		t.Fatalf("status = %s, want awaiting_manager", created.Status)
	}

	base := "/api/rides/" + created.ID
	if w := do(t, h, http.MethodPost, base+"/manager/approve", "u_mgr", nil); w.Code != http.StatusOK {
		t.Fatalf("manager approve = %d: %s", w.Code, w.Body.String())
	}

	// long-distance admin approval without note is a validation failure
	if w := do(t, h, http.MethodPost, base+"/admin/approve", "u_adm", nil); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("admin approve w/o note = %d, want 422", w.Code)
	}
	if w := do(t, h, http.MethodPost, base+"/admin/approve", "u_adm", map[string]any{"note": "Client VIP request"}); w.Code != http.StatusOK {
		t.Fatalf("admin approve = %d: %s", w.Code, w.Body.String())
	}

	assignBody := map[string]any{"driver_id": "u_drv", "vehicle_id": "veh1"}
	if w := do(t, h, http.MethodPost, base+"/assign", "u_adm", assignBody); w.Code != http.StatusOK {
		t.Fatalf("assign = %d: %s", w.Code, w.Body.String())
	}
	// the slot is now taken; a second identical assign conflicts
	if w := do(t, h, http.MethodPost, base+"/assign", "u_adm", assignBody); w.Code != http.StatusConflict {
		t.Fatalf("re-assign via assign = %d, want 409", w.Code)
	}

	if w := do(t, h, http.MethodPost, base+"/start", "u_drv", map[string]any{"mileage": 1000.0}); w.Code != http.StatusOK {
		t.Fatalf("start = %d: %s", w.Code, w.Body.String())
	}
	w = do(t, h, http.MethodPost, base+"/complete", "u_drv", map[string]any{"mileage": 1042.3})
	if w.Code != http.StatusOK {
		t.Fatalf("complete = %d: %s", w.Code, w.Body.String())
	}
	var done struct {
		Status   string   `json:"status"`
		ActualKm *float64 `json:"actual_km"`
	}
	decode(t, w, &done)
	if done.Status != "completed" {
		t.Errorf("final status = %s", done.Status)
	}
	if done.ActualKm == nil || *done.ActualKm < 42.29 || *done.ActualKm > 42.31 {
		t.Errorf("actual_km = %v, want 42.3", done.ActualKm)
	}

	// requester history shows the ride
	w = do(t, h, http.MethodGet, "/api/rides", "u_req", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history = %d", w.Code)
	}
	var history struct {
		Rides []struct {
			Code string `json:"code"`
		} `json:"rides"`
	}
	decode(t, w, &history)
	if len(history.Rides) != 1 || history.Rides[0].Code == "" {
		t.Errorf("history = %+v", history)
	}
}

func TestRoleMismatchOverHTTP(t *testing.T) {
	h := newTestServer(t)

	body := map[string]any{
		"ride_type":      "one_way",
		"pickup":         map[string]any{"address": "HQ", "lat": 25.03, "lng": 121.56},
		"destination":    map[string]any{"address": "Airport", "lat": 25.08, "lng": 121.23},
		"scheduled_date": "2026-09-01",
		"scheduled_time": "09:30",
		"vehicle_type":   "sedan",
		"distance_km":    5.0,
	}
	w := do(t, h, http.MethodPost, "/api/rides", "u_req", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d", w.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	decode(t, w, &created)

	// a requester posing as admin is refused with a conflict, not a 500
	if w := do(t, h, http.MethodPost, "/api/rides/"+created.ID+"/admin/approve", "u_req", nil); w.Code != http.StatusConflict {
		t.Errorf("requester admin-approve = %d, want 409", w.Code)
	}
	// an unknown caller is a 404 on the user record
	if w := do(t, h, http.MethodPost, "/api/rides/"+created.ID+"/admin/approve", "ghost", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown caller = %d, want 404", w.Code)
	}
}

func TestAvailabilityOverHTTP(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodGet, "/api/availability/drivers?date=2026-09-01&time=09:30", "u_adm", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("availability = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Drivers []struct {
			Available bool `json:"Available"`
		} `json:"drivers"`
	}
	decode(t, w, &resp)
	if len(resp.Drivers) != 1 || !resp.Drivers[0].Available {
		t.Errorf("drivers = %+v", resp)
	}

	if w := do(t, h, http.MethodGet, "/api/availability/drivers?date=bad&time=09:30", "u_adm", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad date = %d, want 400", w.Code)
	}
}

func TestFleetEndpoints(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodPost, "/api/fleet/vehicles", "u_adm", map[string]any{"number": "XY-9876", "type": "van"})
	if w.Code != http.StatusCreated {
		t.Fatalf("register vehicle = %d: %s", w.Code, w.Body.String())
	}
	var v struct {
		ID string `json:"ID"`
	}
	decode(t, w, &v)
	if v.ID == "" {
		t.Fatal("vehicle id missing")
	}

	if w := do(t, h, http.MethodPost, "/api/fleet/vehicles", "u_adm", map[string]any{"number": "XY-9876", "type": "van"}); w.Code != http.StatusConflict {
		t.Errorf("duplicate plate = %d, want 409", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/api/fleet/vehicles/"+v.ID+"/status", "u_adm", map[string]any{"status": "maintenance"}); w.Code != http.StatusOK {
		t.Errorf("set status = %d", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/api/fleet/vehicles/"+v.ID+"/status", "u_adm", map[string]any{"status": "scrapped"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown status = %d, want 400", w.Code)
	}
}
