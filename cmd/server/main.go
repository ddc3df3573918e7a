/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the care-ledger console backend. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite document store
  3. Load the operator display-name cache
  4. Wire handler + router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: care.db)
           Use ":memory:" for an in-memory database
  -names   Optional JSON file mapping operator ids to display names

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/care-ledger/api"
	"github.com/warp/care-ledger/invoice"
	"github.com/warp/care-ledger/ledger"
	"github.com/warp/care-ledger/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "care.db", "SQLite database path")
	namesPath := flag.String("names", "", "JSON file of operator display names")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Display-name lookup cache, loaded once and read-only afterwards
	names := map[string]string{}
	if *namesPath != "" {
		data, err := os.ReadFile(*namesPath)
		if err != nil {
			log.Fatalf("Failed to read names file: %v", err)
		}
		if err := json.Unmarshal(data, &names); err != nil {
			log.Fatalf("Failed to parse names file: %v", err)
		}
	}

	// Wire handler + router
	handler := api.NewHandler(store, invoice.NewService(store), ledger.NewNameCache(names))
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
