package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mitgajera/InvoicePro/internal/config"
	"github.com/mitgajera/InvoicePro/internal/db"
	"github.com/mitgajera/InvoicePro/internal/identity"
	"github.com/mitgajera/InvoicePro/internal/server"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()
	cfg := config.Load()

	if *migrateOnlyFlag {
		if _, err := db.ConnectAndMigrate(cfg.DatabaseDSN); err != nil {
			log.Fatalf("migrate-only failed: %v", err)
		}
		log.Println("migrations completed; exiting as requested")
		return
	}

	var (
		dbConn   *gorm.DB
		provider identity.Provider
		err      error
	)
	if cfg.DemoMode {
		// Demo mode: in-memory store plus the fixture identities; no
		// remote datastore is touched.
		dbConn, err = db.OpenDemo()
		if err != nil {
			log.Fatalf("demo store: %v", err)
		}
		provider, err = identity.NewFixtureProvider(dbConn, cfg.SessionTTL)
		if err != nil {
			log.Fatalf("fixture provider: %v", err)
		}
		log.Println("running in demo mode (in-memory store, fixture identities)")
	} else {
		dbConn, err = db.ConnectAndMigrate(cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("db connect: %v", err)
		}
		provider = identity.NewRemoteProvider(dbConn, cfg.SessionTTL)
	}

	log.Printf("Starting server env=%s port=%s", cfg.Env, cfg.Port)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.New(dbConn, provider, cfg),
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
