package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"gopkg.in/yaml.v3"

	"github.com/latticedb/lattice/core"
)

var (
	boltConfigBucket = []byte("configs")
	boltGraphBucket  = []byte("graphs")
	boltMetaBucket   = []byte("metas")
)

// BoltPersistence is the single-file alternative backend: every
// collection's config, graph snapshot, and payload snapshot lives as a
// key in one of three top-level buckets of one bbolt database file.
type BoltPersistence struct {
	db *bbolt.DB
}

// NewBoltPersistence opens (creating if necessary) a bbolt database at
// dbPath.
func NewBoltPersistence(dbPath string) (*BoltPersistence, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, core.NewIOFailure(err)
		}
	}
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, core.NewIOFailure(err)
	}
	p := &BoltPersistence{db: db}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{boltConfigBucket, boltGraphBucket, boltMetaBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, core.NewIOFailure(err)
	}
	return p, nil
}

func (p *BoltPersistence) SaveCollection(name string, cfg core.CollectionConfig, graphBytes, metaBytes []byte) error {
	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return core.NewIOFailure(err)
	}
	err = p.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(boltConfigBucket).Put([]byte(name), yamlBytes); err != nil {
			return err
		}
		if err := tx.Bucket(boltGraphBucket).Put([]byte(name), graphBytes); err != nil {
			return err
		}
		return tx.Bucket(boltMetaBucket).Put([]byte(name), metaBytes)
	})
	if err != nil {
		return core.NewIOFailure(err)
	}
	return nil
}

func (p *BoltPersistence) LoadCollection(name string) (core.CollectionConfig, []byte, []byte, bool, error) {
	var cfg core.CollectionConfig
	var graphBytes, metaBytes []byte
	found := false

	err := p.db.View(func(tx *bbolt.Tx) error {
		cfgBytes := tx.Bucket(boltConfigBucket).Get([]byte(name))
		if cfgBytes == nil {
			return nil
		}
		if err := yaml.Unmarshal(cfgBytes, &cfg); err != nil {
			return fmt.Errorf("decode config: %w", err)
		}
		graphBytes = append([]byte(nil), tx.Bucket(boltGraphBucket).Get([]byte(name))...)
		metaBytes = append([]byte(nil), tx.Bucket(boltMetaBucket).Get([]byte(name))...)
		found = true
		return nil
	})
	if err != nil {
		return core.CollectionConfig{}, nil, nil, false, core.NewCorruptState(err)
	}
	if !found {
		return core.CollectionConfig{}, nil, nil, false, nil
	}
	return cfg, graphBytes, metaBytes, true, nil
}

func (p *BoltPersistence) DeleteCollection(name string) (bool, error) {
	existed := false
	err := p.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(boltConfigBucket).Get([]byte(name)) == nil {
			return nil
		}
		existed = true
		for _, bucket := range [][]byte{boltConfigBucket, boltGraphBucket, boltMetaBucket} {
			if err := tx.Bucket(bucket).Delete([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, core.NewIOFailure(err)
	}
	return existed, nil
}

func (p *BoltPersistence) ListCollections() ([]string, error) {
	var names []string
	err := p.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltConfigBucket).ForEach(func(k, v []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, core.NewIOFailure(err)
	}
	return names, nil
}

func (p *BoltPersistence) Close() error {
	if err := p.db.Close(); err != nil {
		return core.NewIOFailure(err)
	}
	return nil
}
