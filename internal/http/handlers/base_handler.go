// README: Base handler utilities (JSON helpers, error-to-status mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetride/internal/modules/availability"
	"fleetride/internal/modules/fleet"
	"fleetride/internal/modules/identity"
	"fleetride/internal/modules/ride"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeRideError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ride.ErrBadRequest),
		errors.Is(err, fleet.ErrBadRequest),
		errors.Is(err, fleet.ErrUnknownStatus),
		errors.Is(err, identity.ErrBadRequest),
		errors.Is(err, availability.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ride.ErrNotFound),
		errors.Is(err, fleet.ErrNotFound),
		errors.Is(err, identity.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ride.ErrNoteRequired),
		errors.Is(err, ride.ErrReasonRequired),
		errors.Is(err, ride.ErrReasonTooShort),
		errors.Is(err, ride.ErrInvalidMileage):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ride.ErrInvalidTransition),
		errors.Is(err, ride.ErrUnavailable),
		errors.Is(err, fleet.ErrDuplicate):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
