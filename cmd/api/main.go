package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/staysite/site-sync-backend/config"
	"github.com/staysite/site-sync-backend/internal/bootstrap"
	"github.com/staysite/site-sync-backend/internal/logging"
	"github.com/staysite/site-sync-backend/internal/projects/reconcile"
	"github.com/staysite/site-sync-backend/internal/projects/service"
)

const serviceName = "site-sync-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logCloser := logging.Setup(logging.Options{Level: cfg.App.LogLevel, File: cfg.App.LogFile})
	defer logCloser.Close()
	logger := logging.New("main")

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, pg, db, err := bootstrap.OpenRemote(ctx, bootstrap.DBOptions{
		Config:       &cfg.Database,
		PingTO:       5 * time.Second,
		EnsureSchema: true,
	})
	if err != nil {
		log.Fatalf("remote store: %v", err)
	}
	if db != nil {
		defer db.Close()
		logger.Infof("startup", "remote store driver=%s", cfg.Database.Driver)
	} else {
		logger.Warnf("startup", "no database configured, running local-only")
	}

	opened, err := bootstrap.OpenCache(ctx, cfg.Cache)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	defer opened.Closer.Close()
	logger.Infof("startup", "cache backend=%s", cfg.Cache.Backend)

	svc := service.NewProjectService(store, opened.Cache, service.Options{
		GetTimeout:    cfg.Sync.GetTimeout,
		ListTimeout:   cfg.Sync.ListTimeout,
		CreateTimeout: cfg.Sync.CreateTimeout,
		UpdateTimeout: cfg.Sync.UpdateTimeout,
		DeleteTimeout: cfg.Sync.DeleteTimeout,
	})

	if cfg.Reconcile.Schedule != "" && db != nil {
		sched, err := reconcile.NewScheduler(svc, reconcile.Options{
			Schedule:  cfg.Reconcile.Schedule,
			RatePerS:  cfg.Reconcile.RatePerS,
			BurstSize: cfg.Reconcile.BurstSize,
		})
		if err != nil {
			log.Fatalf("reconcile: %v", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	deps := bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		CORSOrigins: cfg.Server.CORSOrigins,
		Projects:    svc,
	}
	// avoid storing typed nil pointers in the pinger interfaces
	if pg != nil {
		deps.DB = pg
	}
	if opened.Pinger != nil {
		deps.Cache = opened.Pinger
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           bootstrap.BuildRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Infof("startup", "listening on :%s env=%s", cfg.Server.Port, cfg.App.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutdown", "signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", err)
	}
	// pending background deletes
	svc.Wait()
}
