// README: Distance classifier routing new rides to the correct approval stage.
package ride

// DefaultManagerThresholdKm is the cutpoint above which a ride needs manager
// approval before the admin stage.
const DefaultManagerThresholdKm = 15.0

type RouteDecision struct {
	RequiresManagerApproval bool
}

// Classifier decides the approval route for a calculated distance. The input
// is already doubled for return trips; the comparison is strict, so a ride
// exactly at the threshold counts as short-distance.
type Classifier struct {
	ThresholdKm float64
}

func NewClassifier(thresholdKm float64) Classifier {
	if thresholdKm <= 0 {
		thresholdKm = DefaultManagerThresholdKm
	}
	return Classifier{ThresholdKm: thresholdKm}
}

func (c Classifier) Classify(distanceKm float64) RouteDecision {
	return RouteDecision{RequiresManagerApproval: distanceKm > c.ThresholdKm}
}
