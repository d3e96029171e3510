// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetride/internal/http/handlers"
	"fleetride/internal/http/middleware"
	"fleetride/internal/infra"
	"fleetride/internal/modules/availability"
	"fleetride/internal/modules/fleet"
	"fleetride/internal/modules/identity"
	"fleetride/internal/modules/ride"
)

func NewRouter(
	verifier infra.TokenVerifier,
	userService *identity.Service,
	fleetService *fleet.Service,
	rideService *ride.Service,
	availabilityService *availability.Service,
	routes handlers.RouteEstimator,
) http.Handler {
	engine := gin.New()
	engine.Use(middleware.Recovery(), middleware.Logging())

	engine.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := engine.Group("/api", middleware.Auth(verifier))

	userHandler := handlers.NewUserHandler(userService)
	api.POST("/users", userHandler.Register)
	api.GET("/users/me", userHandler.Me)

	rideHandler := handlers.NewRideHandler(rideService, routes)
	api.POST("/rides", rideHandler.Create)
	api.GET("/rides", rideHandler.History)
	api.GET("/rides/:id", rideHandler.Get)
	api.POST("/rides/:id/cancel", rideHandler.Cancel)
	api.POST("/rides/:id/manager/approve", rideHandler.ManagerApprove)
	api.POST("/rides/:id/manager/reject", rideHandler.ManagerReject)
	api.POST("/rides/:id/admin/approve", rideHandler.AdminApprove)
	api.POST("/rides/:id/admin/reject", rideHandler.AdminReject)
	api.POST("/rides/:id/assign", rideHandler.Assign)
	api.POST("/rides/:id/reassign", rideHandler.Reassign)
	api.POST("/rides/:id/start", rideHandler.Start)
	api.POST("/rides/:id/complete", rideHandler.Complete)

	fleetHandler := handlers.NewFleetHandler(fleetService)
	api.POST("/fleet/drivers", fleetHandler.RegisterDriver)
	api.GET("/fleet/drivers", fleetHandler.ListDrivers)
	api.POST("/fleet/vehicles", fleetHandler.RegisterVehicle)
	api.GET("/fleet/vehicles", fleetHandler.ListVehicles)
	api.POST("/fleet/vehicles/:id/status", fleetHandler.SetVehicleStatus)

	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService)
	api.GET("/availability/drivers", availabilityHandler.Drivers)
	api.GET("/availability/vehicles", availabilityHandler.Vehicles)

	return engine
}
