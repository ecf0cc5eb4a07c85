// Package config assembles the host process's flag/env-driven
// configuration surface.
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/latticedb/lattice/persistence"
)

// Config is the resolved configuration a host process starts with.
type Config struct {
	Port        int
	HTTPPort    int
	DataDir     string
	Persistence persistence.Config
}

const (
	defaultPort     = 50051
	defaultHTTPPort = 50052
	defaultDataDir  = "./data"
)

// Load parses CLI flags, falling back to environment variables, falling
// back to the built-in defaults: flags win if explicitly set, otherwise
// an env override wins, otherwise the default applies.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("lattice-server", flag.ContinueOnError)
	port := fs.Int("port", 0, "RPC listen port (default 50051, env VECTOR_PORT)")
	httpPort := fs.Int("http-port", 0, "HTTP listen port (default 50052, env VECTOR_HTTP_PORT)")
	dataDir := fs.String("data", "", "data directory (default ./data, env VECTOR_DATA_DIR)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:     resolveInt(*port, "VECTOR_PORT", defaultPort),
		HTTPPort: resolveInt(*httpPort, "VECTOR_HTTP_PORT", defaultHTTPPort),
		DataDir:  resolveString(*dataDir, "VECTOR_DATA_DIR", defaultDataDir),
	}
	cfg.Persistence = persistence.DefaultConfig(cfg.DataDir)
	return cfg, nil
}

func resolveInt(flagValue int, envKey string, fallback int) int {
	if flagValue != 0 {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		var parsed int
		if _, err := fmt.Sscanf(v, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return fallback
}

func resolveString(flagValue, envKey, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return fallback
}
