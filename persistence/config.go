package persistence

import "fmt"

// Type selects a Persistence backend implementation.
type Type string

const (
	TypeFile   Type = "file"
	TypeMemory Type = "memory"
	TypeBolt   Type = "bolt"
	TypeBadger Type = "badger"
)

// Config selects and parameterizes a Persistence backend.
type Config struct {
	Type Type   `yaml:"type"`
	Path string `yaml:"path"`
}

// DefaultConfig returns the default file-backed configuration rooted at
// dataDir, the layout the host process uses unless overridden.
func DefaultConfig(dataDir string) Config {
	return Config{Type: TypeFile, Path: dataDir}
}

// ValidateConfig rejects a Config before it reaches New, so
// misconfiguration surfaces at startup rather than on first use.
func ValidateConfig(cfg Config) error {
	switch cfg.Type {
	case TypeMemory:
		return nil
	case TypeFile, TypeBolt, TypeBadger:
		if cfg.Path == "" {
			return fmt.Errorf("persistence: path is required for %s backend", cfg.Type)
		}
		return nil
	default:
		return fmt.Errorf("persistence: unsupported backend %q", cfg.Type)
	}
}

// New constructs the Persistence backend named by cfg.Type.
func New(cfg Config) (Persistence, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case TypeMemory:
		return NewMemoryPersistence(), nil
	case TypeFile:
		return NewFilePersistence(cfg.Path)
	case TypeBolt:
		return NewBoltPersistence(cfg.Path)
	case TypeBadger:
		return NewBadgerPersistence(cfg.Path)
	default:
		return nil, fmt.Errorf("persistence: unsupported backend %q", cfg.Type)
	}
}
