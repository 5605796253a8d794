// Package di provides dependency injection container
package di

import (
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/norndb/norn/pkg/config"
	"github.com/norndb/norn/pkg/database"
	"github.com/norndb/norn/pkg/index"
	"github.com/norndb/norn/pkg/keyring"
	"github.com/norndb/norn/pkg/pipeline"
	"github.com/norndb/norn/pkg/query"
	"github.com/norndb/norn/pkg/store"
	"github.com/norndb/norn/pkg/store/badgerstore"
	"github.com/norndb/norn/pkg/store/pebblestore"
)

// Container wires configuration into runtime objects: the store backend, the
// key ring, the value pipeline, and the database with its tables.
type Container struct {
	cfg *config.Config
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) *Container {
	return &Container{cfg: cfg}
}

// OpenBackend opens the configured store backend under the data directory.
func (c *Container) OpenBackend() (store.Backend, error) {
	dir := filepath.Join(c.cfg.DataDir, c.cfg.Backend)
	switch c.cfg.Backend {
	case "badger":
		return badgerstore.Open(dir)
	case "pebble":
		return pebblestore.Open(dir)
	default:
		return nil, fmt.Errorf("unknown backend: %s", c.cfg.Backend)
	}
}

// BuildRing derives the database key from the configured master key and
// installs it at database scope.
func (c *Container) BuildRing() (*keyring.Ring, error) {
	ring := keyring.NewRing()
	if c.cfg.Database.MasterKey == "" || c.cfg.Database.MasterKey == "auto" {
		// No key material yet; encryption stays unavailable until
		// bootstrap generates a master key.
		return ring, nil
	}

	master, err := hex.DecodeString(c.cfg.Database.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("master key is not valid hex: %w", err)
	}
	kdf, err := keyring.LookupKDF(c.cfg.Database.KDF)
	if err != nil {
		return nil, err
	}
	key, err := keyring.DeriveKey(kdf, master, "database:"+c.cfg.Database.ID)
	if err != nil {
		return nil, err
	}
	ring.SetDatabaseKey(key)
	return ring, nil
}

// BuildDatabase assembles the database from the configured backend, ring,
// and pipeline. Tables are registered afterwards via CreateTable, since
// record factories and index extractors are code, not configuration.
func (c *Container) BuildDatabase() (*database.Database, error) {
	backend, err := c.OpenBackend()
	if err != nil {
		return nil, err
	}
	ring, err := c.BuildRing()
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	db, err := database.New(database.Config{
		Backend:     backend,
		Pipeline:    pipeline.New(ring),
		IndexSafety: c.cfg.Database.IndexSafety,
	})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return db, nil
}

// CreateTable registers a table on db, taking its layer defaults from the
// configuration. Tables absent from the configuration get plain JSON.
func (c *Container) CreateTable(
	db *database.Database,
	name string,
	factory func() interface{},
	indexes []index.Index,
) (*database.Table, error) {
	tc, ok := c.cfg.Tables[name]
	if !ok {
		tc = config.TableConfig{Codec: "json"}
	}
	opts, err := c.TableOptions(db.Pipeline(), tc)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}
	policy, err := notPolicy(tc.NotPolicy)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}
	return db.CreateTable(database.TableConfig{
		Name:      name,
		Factory:   factory,
		Options:   opts,
		Indexes:   indexes,
		NotPolicy: policy,
	})
}

// TableOptions resolves a table's configured layer names against the
// pipeline's registries.
func (c *Container) TableOptions(p *pipeline.Pipeline, tc config.TableConfig) (pipeline.Options, error) {
	var opts pipeline.Options

	cd, err := p.Codecs().LookupName(tc.Codec)
	if err != nil {
		return opts, err
	}
	opts.Codec = cd

	if tc.Compression != "" {
		compressor, err := p.Compressors().LookupName(tc.Compression)
		if err != nil {
			return opts, err
		}
		opts.Compressor = compressor
		if tc.Dictionary != 0 {
			dict, err := p.Compressors().Dictionary(tc.Dictionary)
			if err != nil {
				return opts, err
			}
			opts.Dictionary = dict
		}
	}

	if tc.Encryption != "" {
		cipher, err := p.Ciphers().LookupName(tc.Encryption)
		if err != nil {
			return opts, err
		}
		opts.Cipher = cipher
	}

	opts.DataShards = tc.DataShards
	opts.ParityShards = tc.ParityShards
	return opts, opts.Validate()
}

func notPolicy(name string) (query.Policy, error) {
	switch name {
	case "", "empty":
		return query.PolicyEmpty, nil
	case "all":
		return query.PolicyAll, nil
	case "error":
		return query.PolicyError, nil
	default:
		return 0, fmt.Errorf("unknown not_policy: %s", name)
	}
}
