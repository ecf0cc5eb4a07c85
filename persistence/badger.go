package persistence

import (
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"gopkg.in/yaml.v3"

	"github.com/latticedb/lattice/core"
)

const (
	badgerConfigPrefix = "c:"
	badgerGraphPrefix  = "g:"
	badgerMetaPrefix   = "m:"
)

// BadgerPersistence is a single-directory alternative backend built on
// an LSM-tree key-value store, for operators who want a Badger-backed
// deployment instead of a directory of loose files.
type BadgerPersistence struct {
	db *badger.DB
}

// NewBadgerPersistence opens (creating if necessary) a Badger database
// directory at dbPath.
func NewBadgerPersistence(dbPath string) (*BadgerPersistence, error) {
	if err := os.MkdirAll(dbPath, 0o755); err != nil {
		return nil, core.NewIOFailure(err)
	}
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, core.NewIOFailure(err)
	}
	return &BadgerPersistence{db: db}, nil
}

func (p *BadgerPersistence) SaveCollection(name string, cfg core.CollectionConfig, graphBytes, metaBytes []byte) error {
	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return core.NewIOFailure(err)
	}
	err = p.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(badgerConfigPrefix+name), yamlBytes); err != nil {
			return err
		}
		if err := txn.Set([]byte(badgerGraphPrefix+name), graphBytes); err != nil {
			return err
		}
		return txn.Set([]byte(badgerMetaPrefix+name), metaBytes)
	})
	if err != nil {
		return core.NewIOFailure(err)
	}
	return nil
}

func (p *BadgerPersistence) LoadCollection(name string) (core.CollectionConfig, []byte, []byte, bool, error) {
	var cfg core.CollectionConfig
	var graphBytes, metaBytes []byte
	found := false

	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerConfigPrefix + name))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		cfgBytes, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(cfgBytes, &cfg); err != nil {
			return err
		}

		if graphItem, err := txn.Get([]byte(badgerGraphPrefix + name)); err == nil {
			if graphBytes, err = graphItem.ValueCopy(nil); err != nil {
				return err
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if metaItem, err := txn.Get([]byte(badgerMetaPrefix + name)); err == nil {
			if metaBytes, err = metaItem.ValueCopy(nil); err != nil {
				return err
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

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

func (p *BadgerPersistence) DeleteCollection(name string) (bool, error) {
	existed := false
	err := p.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(badgerConfigPrefix + name)); err == badger.ErrKeyNotFound {
			return nil
		} else if err != nil {
			return err
		}
		existed = true
		for _, prefix := range []string{badgerConfigPrefix, badgerGraphPrefix, badgerMetaPrefix} {
			if err := txn.Delete([]byte(prefix + name)); err != nil && err != badger.ErrKeyNotFound {
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

func (p *BadgerPersistence) ListCollections() ([]string, error) {
	var names []string
	err := p.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(badgerConfigPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			names = append(names, strings.TrimPrefix(key, badgerConfigPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, core.NewIOFailure(err)
	}
	return names, nil
}

func (p *BadgerPersistence) Close() error {
	if err := p.db.Close(); err != nil {
		return core.NewIOFailure(err)
	}
	return nil
}
