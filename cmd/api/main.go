package main

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/punchamoorthee/tenderops/internal/api"
	"github.com/punchamoorthee/tenderops/internal/config"
	"github.com/punchamoorthee/tenderops/internal/events"
	"github.com/punchamoorthee/tenderops/internal/funds"
	"github.com/punchamoorthee/tenderops/internal/service"
	"github.com/punchamoorthee/tenderops/internal/store"
	"github.com/punchamoorthee/tenderops/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger.Init(&logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	pgStore, err := store.NewPostgresStore(cfg.DBSource)
	if err != nil {
		log.Fatalf("Unable to open store: %v", err)
	}
	defer pgStore.Close()

	if err := pgStore.Migrate(context.Background()); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	// Initialize Layers. One mutex serializes all mutating operations so
	// every call runs to completion before the next begins.
	var mu sync.Mutex
	sink := events.NewLogSink(1024)
	clock := service.RealClock()
	gate := service.NewGate(cfg.AdminIdentity, pgStore)
	registry := service.NewRegistry(&mu, pgStore, gate, clock, sink)
	ledger := service.NewLedger(&mu, pgStore, gate, clock, sink)
	settlement := service.NewSettlement(&mu, pgStore, gate, funds.NewLedgerTransfer(pgStore), sink)

	handler := api.NewHandler(registry, ledger, settlement, sink)
	r := api.NewRouter(handler)

	log.Printf("Server starting on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
