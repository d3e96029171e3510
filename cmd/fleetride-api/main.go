// README: Entry point; loads config, wires services, starts HTTP server and the notification dispatcher.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"fleetride/internal/config"
	httptransport "fleetride/internal/http"
	"fleetride/internal/infra"
	"fleetride/internal/maps"
	"fleetride/internal/modules/availability"
	"fleetride/internal/modules/fleet"
	"fleetride/internal/modules/identity"
	"fleetride/internal/modules/notify"
	"fleetride/internal/modules/ride"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		log.Fatal("FLEET_FIREBASE_PROJECT_ID is required")
	}
	fb, err := infra.NewFirebase(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		log.Fatalf("firebase init: %v", err)
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	routeService, err := maps.NewRouteService(cfg.Maps.APIKey)
	if err != nil {
		log.Fatalf("maps init: %v", err)
	}

	userStore := identity.NewPgStore(dbPool)
	userSvc := identity.NewService(userStore)

	fleetStore := fleet.NewPgStore(dbPool)
	fleetSvc := fleet.NewService(fleetStore)

	notifyQueue := notify.NewRedisQueue(redisClient, cfg.Notify.QueueKey)
	notifySvc := notify.NewService(notifyQueue, notify.NewFCMSender(fb.Messaging), cfg.Notify.TickSeconds)

	rideStore := ride.NewPgStore(dbPool)
	rideSvc := ride.NewService(rideStore, userSvc, fleetSvc, notifySvc,
		ride.NewClassifier(cfg.Approval.ManagerThresholdKm))

	availabilitySvc := availability.NewService(rideStore, fleetSvc)

	handler := httptransport.NewRouter(fb.Auth, userSvc, fleetSvc, rideSvc, availabilitySvc, routeService)
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go notifySvc.RunDispatcher(ctx)

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	log.Printf("listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
