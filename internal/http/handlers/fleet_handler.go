// README: Fleet handlers: driver and vehicle registry, vehicle status changes.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetride/internal/modules/fleet"
	"fleetride/internal/types"
)

type FleetHandler struct {
	fleet *fleet.Service
}

func NewFleetHandler(svc *fleet.Service) *FleetHandler {
	return &FleetHandler{fleet: svc}
}

type registerDriverReq struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (h *FleetHandler) RegisterDriver(c *gin.Context) {
	var req registerDriverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	d := fleet.Driver{
		ID:    types.ID(req.ID),
		Name:  req.Name,
		Phone: req.Phone,
	}
	if err := h.fleet.RegisterDriver(c.Request.Context(), d); err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, d)
}

type registerVehicleReq struct {
	Number string `json:"number"`
	Type   string `json:"type"`
}

func (h *FleetHandler) RegisterVehicle(c *gin.Context) {
	var req registerVehicleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	v, err := h.fleet.RegisterVehicle(c.Request.Context(), fleet.Vehicle{
		Number: req.Number,
		Type:   req.Type,
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, v)
}

type vehicleStatusReq struct {
	Status string `json:"status"`
}

func (h *FleetHandler) SetVehicleStatus(c *gin.Context) {
	var req vehicleStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	id := types.ID(c.Param("id"))
	if err := h.fleet.SetVehicleStatus(c.Request.Context(), id, fleet.VehicleStatus(req.Status)); err != nil {
		writeRideError(c, err)
		return
	}
	v, err := h.fleet.Vehicle(c.Request.Context(), id)
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, v)
}

func (h *FleetHandler) ListDrivers(c *gin.Context) {
	ds, err := h.fleet.Drivers(c.Request.Context())
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"drivers": ds})
}

func (h *FleetHandler) ListVehicles(c *gin.Context) {
	vs, err := h.fleet.Vehicles(c.Request.Context())
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"vehicles": vs})
}
