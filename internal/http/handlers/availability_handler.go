// README: Availability handlers: who and what is free for a given slot.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetride/internal/modules/availability"
	"fleetride/internal/types"
)

type AvailabilityHandler struct {
	avail *availability.Service
}

func NewAvailabilityHandler(svc *availability.Service) *AvailabilityHandler {
	return &AvailabilityHandler{avail: svc}
}

func (h *AvailabilityHandler) Drivers(c *gin.Context) {
	slots, err := h.avail.Drivers(c.Request.Context(),
		c.Query("date"), c.Query("time"), types.ID(c.Query("exclude_ride")))
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"drivers": slots})
}

func (h *AvailabilityHandler) Vehicles(c *gin.Context) {
	slots, err := h.avail.Vehicles(c.Request.Context(),
		c.Query("date"), c.Query("time"), types.ID(c.Query("exclude_ride")))
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"vehicles": slots})
}
