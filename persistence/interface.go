// Package persistence implements the on-disk formats a collection
// manager uses to survive a restart: the default per-collection
// directory layout, plus alternative embedded-KV backends (a single
// bbolt file, or a Badger database directory).
package persistence

import "github.com/latticedb/lattice/core"

// Persistence stores collection configs and index snapshots. Snapshot
// bytes are opaque to this interface; they are produced and consumed by
// index.EncodeSnapshot/DecodeSnapshot.
type Persistence interface {
	// SaveCollection writes cfg and the pre-encoded graph/meta snapshot
	// for name, replacing any prior state for that name.
	SaveCollection(name string, cfg core.CollectionConfig, graphBytes, metaBytes []byte) error

	// LoadCollection reads back everything SaveCollection wrote. ok is
	// false if the collection has no persisted state.
	LoadCollection(name string) (cfg core.CollectionConfig, graphBytes, metaBytes []byte, ok bool, err error)

	// DeleteCollection removes all persisted state for name. Returns
	// whether it existed.
	DeleteCollection(name string) (bool, error)

	// ListCollections returns the names with persisted state, in
	// unspecified order.
	ListCollections() ([]string, error)

	// Close releases any resources (open files, database handles) held
	// by the backend.
	Close() error
}
