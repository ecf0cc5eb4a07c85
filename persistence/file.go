package persistence

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/latticedb/lattice/core"
)

// FilePersistence is the default backend: each collection is a
// `<name>.cfg` YAML file plus `<name>.idx` and `<name>.idx.meta`
// alongside it in one data directory, matching the on-disk layout
// spec.md requires.
type FilePersistence struct {
	dir string
}

// NewFilePersistence opens (creating if necessary) a data directory for
// per-collection file storage.
func NewFilePersistence(dir string) (*FilePersistence, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, core.NewIOFailure(err)
	}
	return &FilePersistence{dir: dir}, nil
}

func (p *FilePersistence) cfgPath(name string) string  { return filepath.Join(p.dir, name+".cfg") }
func (p *FilePersistence) idxPath(name string) string  { return filepath.Join(p.dir, name+".idx") }
func (p *FilePersistence) metaPath(name string) string { return filepath.Join(p.dir, name+".idx.meta") }

func (p *FilePersistence) SaveCollection(name string, cfg core.CollectionConfig, graphBytes, metaBytes []byte) error {
	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return core.NewIOFailure(err)
	}
	if err := writeFileAtomic(p.cfgPath(name), yamlBytes); err != nil {
		return err
	}
	if err := writeFileAtomic(p.idxPath(name), graphBytes); err != nil {
		return err
	}
	if err := writeFileAtomic(p.metaPath(name), metaBytes); err != nil {
		return err
	}
	return nil
}

func (p *FilePersistence) LoadCollection(name string) (core.CollectionConfig, []byte, []byte, bool, error) {
	cfgBytes, err := os.ReadFile(p.cfgPath(name))
	if os.IsNotExist(err) {
		return core.CollectionConfig{}, nil, nil, false, nil
	}
	if err != nil {
		return core.CollectionConfig{}, nil, nil, false, core.NewIOFailure(err)
	}
	var cfg core.CollectionConfig
	if err := yaml.Unmarshal(cfgBytes, &cfg); err != nil {
		return core.CollectionConfig{}, nil, nil, false, core.NewCorruptState(err)
	}

	graphBytes, err := os.ReadFile(p.idxPath(name))
	if err != nil {
		return core.CollectionConfig{}, nil, nil, false, core.NewIOFailure(err)
	}
	metaBytes, err := os.ReadFile(p.metaPath(name))
	if err != nil {
		return core.CollectionConfig{}, nil, nil, false, core.NewIOFailure(err)
	}
	return cfg, graphBytes, metaBytes, true, nil
}

func (p *FilePersistence) DeleteCollection(name string) (bool, error) {
	_, err := os.Stat(p.cfgPath(name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, core.NewIOFailure(err)
	}
	for _, path := range []string{p.cfgPath(name), p.idxPath(name), p.metaPath(name)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return false, core.NewIOFailure(err)
		}
	}
	return true, nil
}

func (p *FilePersistence) ListCollections() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, core.NewIOFailure(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name, ok := strings.CutSuffix(e.Name(), ".cfg"); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

func (p *FilePersistence) Close() error { return nil }

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return core.NewIOFailure(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return core.NewIOFailure(err)
	}
	return nil
}
