// README: Ride handlers: creation, approvals, assignment, trip flow, history.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetride/internal/http/middleware"
	"fleetride/internal/modules/ride"
	"fleetride/internal/types"
)

// RouteEstimator is the routing collaborator consulted when a ride request
// arrives without a precomputed distance.
type RouteEstimator interface {
	RoadDistanceKm(ctx context.Context, pickup, destination types.Location) (float64, error)
}

type RideHandler struct {
	ride   *ride.Service
	routes RouteEstimator
}

func NewRideHandler(svc *ride.Service, routes RouteEstimator) *RideHandler {
	return &RideHandler{ride: svc, routes: routes}
}

type locationReq struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

func (l locationReq) toLocation() types.Location {
	return types.Location{Address: l.Address, Position: types.Point{Lat: l.Lat, Lng: l.Lng}}
}

type createRideReq struct {
	RideType      string      `json:"ride_type"`
	Pickup        locationReq `json:"pickup"`
	Destination   locationReq `json:"destination"`
	ScheduledDate string      `json:"scheduled_date"`
	ScheduledTime string      `json:"scheduled_time"`
	VehicleType   string      `json:"vehicle_type"`
	// DistanceKm is optional; when 0 the routing provider computes it.
	DistanceKm float64 `json:"distance_km"`
}

func (h *RideHandler) Create(c *gin.Context) {
	var req createRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	distance := req.DistanceKm
	if distance == 0 && h.routes != nil {
		km, err := h.routes.RoadDistanceKm(c.Request.Context(),
			req.Pickup.toLocation(), req.Destination.toLocation())
		if err != nil {
			writeError(c, http.StatusBadGateway, "routing provider unavailable")
			return
		}
		distance = km
	}

	r, err := h.ride.Create(c.Request.Context(), ride.CreateCommand{
		RequesterID:   types.ID(middleware.CallerUID(c)),
		Type:          ride.RideType(req.RideType),
		Pickup:        req.Pickup.toLocation(),
		Destination:   req.Destination.toLocation(),
		ScheduledDate: req.ScheduledDate,
		ScheduledTime: req.ScheduledTime,
		VehicleType:   req.VehicleType,
		DistanceKm:    distance,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, toRideView(r))
}

func (h *RideHandler) Get(c *gin.Context) {
	r, err := h.ride.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideView(r))
}

func (h *RideHandler) History(c *gin.Context) {
	ctx := c.Request.Context()
	actor := types.ID(middleware.CallerUID(c))

	var rides []ride.Ride
	var err error
	if c.Query("as") == "driver" {
		rides, err = h.ride.HistoryByDriver(ctx, actor)
	} else {
		rides, err = h.ride.HistoryByRequester(ctx, actor)
	}
	if err != nil {
		writeRideError(c, err)
		return
	}
	views := make([]rideView, 0, len(rides))
	for i := range rides {
		views = append(views, toRideView(&rides[i]))
	}
	writeJSON(c, http.StatusOK, gin.H{"rides": views})
}

type noteReq struct {
	Note string `json:"note"`
}

type reasonReq struct {
	Reason string `json:"reason"`
}

func (h *RideHandler) ManagerApprove(c *gin.Context) {
	var req noteReq
	_ = c.ShouldBindJSON(&req)
	r, err := h.ride.ManagerApprove(c.Request.Context(), ride.ApproveCommand{
		RideID:  types.ID(c.Param("id")),
		ActorID: types.ID(middleware.CallerUID(c)),
		Note:    req.Note,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideView(r))
}

func (h *RideHandler) ManagerReject(c *gin.Context) {
	var req reasonReq
	_ = c.ShouldBindJSON(&req)
	r, err := h.ride.ManagerReject(c.Request.Context(), ride.RejectCommand{
		RideID:  types.ID(c.Param("id")),
		ActorID: types.ID(middleware.CallerUID(c)),
		Reason:  req.Reason,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideView(r))
}

func (h *RideHandler) AdminApprove(c *gin.Context) {
	var req noteReq
	_ = c.ShouldBindJSON(&req)
	r, err := h.ride.AdminApprove(c.Request.Context(), ride.ApproveCommand{
		RideID:  types.ID(c.Param("id")),
		ActorID: types.ID(middleware.CallerUID(c)),
		Note:    req.Note,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideView(r))
}

func (h *RideHandler) AdminReject(c *gin.Context) {
	var req reasonReq
	_ = c.ShouldBindJSON(&req)
	r, err := h.ride.AdminReject(c.Request.Context(), ride.RejectCommand{
		RideID:  types.ID(c.Param("id")),
		ActorID: types.ID(middleware.CallerUID(c)),
		Reason:  req.Reason,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideView(r))
}

type assignReq struct {
	DriverID  string `json:"driver_id"`
	VehicleID string `json:"vehicle_id"`
}

func (h *RideHandler) Assign(c *gin.Context) {
	h.assign(c, false)
}

func (h *RideHandler) Reassign(c *gin.Context) {
	h.assign(c, true)
}

func (h *RideHandler) assign(c *gin.Context, reassign bool) {
	var req assignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.DriverID == "" || req.VehicleID == "" {
		writeError(c, http.StatusBadRequest, "missing driver_id or vehicle_id")
		return
	}
	cmd := ride.AssignCommand{
		RideID:    types.ID(c.Param("id")),
		ActorID:   types.ID(middleware.CallerUID(c)),
		DriverID:  types.ID(req.DriverID),
		VehicleID: types.ID(req.VehicleID),
	}
	var r *ride.Ride
	var err error
	if reassign {
		r, err = h.ride.Reassign(c.Request.Context(), cmd)
	} else {
		r, err = h.ride.Assign(c.Request.Context(), cmd)
	}
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideView(r))
}

type mileageReq struct {
	Mileage float64 `json:"mileage"`
}

func (h *RideHandler) Start(c *gin.Context) {
	var req mileageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r, err := h.ride.Start(c.Request.Context(), ride.StartCommand{
		RideID:       types.ID(c.Param("id")),
		ActorID:      types.ID(middleware.CallerUID(c)),
		StartMileage: req.Mileage,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideView(r))
}

func (h *RideHandler) Complete(c *gin.Context) {
	var req mileageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r, err := h.ride.Complete(c.Request.Context(), ride.CompleteCommand{
		RideID:     types.ID(c.Param("id")),
		ActorID:    types.ID(middleware.CallerUID(c)),
		EndMileage: req.Mileage,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideView(r))
}

func (h *RideHandler) Cancel(c *gin.Context) {
	r, err := h.ride.Cancel(c.Request.Context(), ride.CancelCommand{
		RideID:  types.ID(c.Param("id")),
		ActorID: types.ID(middleware.CallerUID(c)),
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toRideView(r))
}

type rideView struct {
	ID            string   `json:"id"`
	Code          string   `json:"code"`
	Status        string   `json:"status"`
	RideType      string   `json:"ride_type"`
	ScheduledDate string   `json:"scheduled_date"`
	ScheduledTime string   `json:"scheduled_time"`
	CalculatedKm  float64  `json:"calculated_km"`
	VehicleType   string   `json:"vehicle_type"`
	DriverID      *string  `json:"driver_id,omitempty"`
	VehicleID     *string  `json:"vehicle_id,omitempty"`
	StartMileage  *float64 `json:"start_mileage,omitempty"`
	EndMileage    *float64 `json:"end_mileage,omitempty"`
	ActualKm      *float64 `json:"actual_km,omitempty"`
}

func toRideView(r *ride.Ride) rideView {
	v := rideView{
		ID:            string(r.ID),
		Code:          r.Code,
		Status:        string(r.Status),
		RideType:      string(r.Type),
		ScheduledDate: r.ScheduledDate,
		ScheduledTime: r.ScheduledTime,
		CalculatedKm:  r.CalculatedKm,
		VehicleType:   r.VehicleType,
		StartMileage:  r.StartMileage,
		EndMileage:    r.EndMileage,
		ActualKm:      r.ActualKm,
	}
	if r.DriverID != nil {
		s := string(*r.DriverID)
		v.DriverID = &s
	}
	if r.VehicleID != nil {
		s := string(*r.VehicleID)
		v.VehicleID = &s
	}
	return v
}
