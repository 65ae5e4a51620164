package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/caffeine-club/biller/internal/billing"
	"github.com/caffeine-club/biller/internal/catalog"
	"github.com/caffeine-club/biller/internal/config"
	"github.com/caffeine-club/biller/internal/ledger"
	"github.com/caffeine-club/biller/internal/onlineorder"
	"github.com/caffeine-club/biller/internal/router"
	"github.com/caffeine-club/biller/internal/session"
	"github.com/caffeine-club/biller/internal/store"
	"github.com/caffeine-club/biller/internal/ws"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	db := store.NewPostgres(pool)
	if err := db.ApplySchema(ctx); err != nil {
		log.Fatalf("Unable to apply schema: %v", err)
	}
	log.Println("Connected to database")

	cat, err := catalog.Load()
	if err != nil {
		log.Fatalf("Unable to load menu catalog: %v", err)
	}

	hub := ws.NewHub()
	go hub.Run()

	snapshots := session.NewFileSnapshot(cfg.SnapshotPath)
	tables := session.NewStore(cfg.TableCount, snapshots, hub)

	ldg := ledger.NewService(db)
	engine := billing.NewEngine(tables, ldg, billing.Payee{
		VPA:  cfg.UpiPayeeVPA,
		Name: cfg.UpiPayeeName,
	})
	orders := onlineorder.NewService(db)

	r := router.New(cfg, db, tables, cat, engine, ldg, orders, hub)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting server on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal(err)
	}
}
