// README: Approval routing classifier tests.
package ride

import "testing"

func TestClassifyThresholdBoundary(t *testing.T) {
	c := NewClassifier(15.0)

	cases := []struct {
		km   float64
		want bool
	}{
		{0, false},
		{5, false},
		{14.999, false},
		{15.0, false}, // boundary stays with the admin-only route
		{15.001, true},
		{18, true},
		{120, true},
	}
	for _, tc := range cases {
		got := c.Classify(tc.km).RequiresManagerApproval
		if got != tc.want {
			t.Errorf("Classify(%v).RequiresManagerApproval = %v, want %v", tc.km, got, tc.want)
		}
	}
}

func TestClassifyMonotonic(t *testing.T) {
	c := NewClassifier(15.0)
	prev := false
	for km := 0.0; km <= 40.0; km += 0.5 {
		got := c.Classify(km).RequiresManagerApproval
		if prev && !got {
			t.Fatalf("classification regressed at %v km", km)
		}
		prev = got
	}
}

func TestClassifierDefaultThreshold(t *testing.T) {
	for _, bad := range []float64{0, -3} {
		c := NewClassifier(bad)
		if c.ThresholdKm != DefaultManagerThresholdKm {
			t.Errorf("NewClassifier(%v).ThresholdKm = %v, want %v", bad, c.ThresholdKm, DefaultManagerThresholdKm)
		}
	}
}
