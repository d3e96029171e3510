// README: User handlers: profile registration and lookups.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetride/internal/http/middleware"
	"fleetride/internal/modules/identity"
	"fleetride/internal/types"
)

type UserHandler struct {
	users *identity.Service
}

func NewUserHandler(svc *identity.Service) *UserHandler {
	return &UserHandler{users: svc}
}

type registerUserReq struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Register creates the profile for the authenticated caller. The record id is
// always the verified token uid, never a client-supplied one.
func (h *UserHandler) Register(c *gin.Context) {
	var req registerUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	u := identity.User{
		ID:   types.ID(middleware.CallerUID(c)),
		Name: req.Name,
		Role: identity.Role(req.Role),
	}
	if err := h.users.Register(c.Request.Context(), u); err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, u)
}

func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeRideError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, u)
}
