// Command lattice-server hosts a collection manager behind the binary
// RPC and HTTP/JSON front ends.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/latticedb/lattice/api"
	"github.com/latticedb/lattice/config"
	"github.com/latticedb/lattice/manager"
	"github.com/latticedb/lattice/persistence"
	"github.com/latticedb/lattice/rpc"
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--help" || arg == "-help" {
			printUsage()
			return
		}
	}

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("invalid arguments: %v", err)
	}

	fmt.Println("=== lattice server ===")
	fmt.Printf("data directory: %s\n", cfg.DataDir)
	fmt.Printf("rpc port:       %d\n", cfg.Port)
	fmt.Printf("http port:      %d\n", cfg.HTTPPort)

	store, err := persistence.New(cfg.Persistence)
	if err != nil {
		log.Fatalf("failed to open persistence: %v", err)
	}
	defer store.Close()

	mgr := manager.New(store)
	if err := mgr.LoadAll(); err != nil {
		log.Fatalf("failed to load collections: %v", err)
	}

	httpServer := api.NewServer(mgr, api.ServerConfig{
		Host:         "0.0.0.0",
		Port:         cfg.HTTPPort,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	})
	rpcServer := rpc.NewServer(mgr)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Printf("http server stopped: %v", err)
		}
	}()
	go func() {
		addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
		if err := rpcServer.Serve(addr); err != nil {
			log.Printf("rpc server stopped: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("shutting down, saving all collections...")
	if err := mgr.SaveAll(); err != nil {
		log.Printf("save on shutdown failed: %v", err)
	}

	rpcServer.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("http shutdown failed: %v", err)
	}
}

func printUsage() {
	fmt.Println(`lattice-server: multi-collection ANN vector database

Usage:
  lattice-server [flags]

Flags:
  --port <n>        RPC listen port (default 50051, env VECTOR_PORT)
  --http-port <n>   HTTP listen port (default 50052, env VECTOR_HTTP_PORT)
  --data <dir>      data directory (default ./data, env VECTOR_DATA_DIR)
  --help            show this message`)
}
