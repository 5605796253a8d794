// Package database ties the store, pipeline, index, and query packages
// together into a typed record layer. A Database owns one backend and one
// pipeline; each Table is a safe handle whose mutations always run the index
// hooks inside the same transaction as the record write.
package database

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/norndb/norn/pkg/index"
	"github.com/norndb/norn/pkg/pipeline"
	"github.com/norndb/norn/pkg/query"
	"github.com/norndb/norn/pkg/store"
)

var (
	// ErrRawAccessDisabled is returned by Raw when index safety is on and
	// direct store mutation would let key sets diverge from records.
	ErrRawAccessDisabled = errors.New("raw store access disabled by index safety")

	// ErrTableExists is returned when creating a table whose name is taken.
	ErrTableExists = errors.New("table already exists")

	// ErrTableNotFound is returned when looking up an unknown table.
	ErrTableNotFound = errors.New("table not found")
)

// Config assembles a Database.
type Config struct {
	// Backend is the transactional key-value store records live in.
	Backend store.Backend

	// Pipeline encodes and decodes record values.
	Pipeline *pipeline.Pipeline

	// IndexSafety, when true, blocks Raw so every mutation goes through
	// the table handles and their index hooks.
	IndexSafety bool
}

// Database is a set of typed tables over one backend.
type Database struct {
	backend     store.Backend
	pipe        *pipeline.Pipeline
	indexSafety bool

	mu     sync.RWMutex
	tables map[string]*Table
}

// New creates a Database from the given configuration.
func New(cfg Config) (*Database, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("database: config requires a backend")
	}
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("database: config requires a pipeline")
	}
	return &Database{
		backend:     cfg.Backend,
		pipe:        cfg.Pipeline,
		indexSafety: cfg.IndexSafety,
		tables:      make(map[string]*Table),
	}, nil
}

// TableConfig describes one table.
type TableConfig struct {
	// Name identifies the table and prefixes its record and index keys.
	Name string

	// Factory allocates a fresh decode target for one record.
	Factory func() interface{}

	// Options is the table's default layer configuration. PutWith can
	// override it per value; the frame written records what was used.
	Options pipeline.Options

	// Indexes are the secondary indexes maintained on every mutation.
	Indexes []index.Index

	// NotPolicy picks the result of NOT over an absent index key.
	NotPolicy query.Policy
}

// CreateTable registers a table and returns its safe handle.
func (db *Database) CreateTable(cfg TableConfig) (*Table, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("database: table requires a name")
	}
	// ':' separates the layout segments of record and index keys, so a
	// name containing it would make one table's prefix shadow another's.
	if strings.ContainsRune(cfg.Name, ':') {
		return nil, fmt.Errorf("database: table name %q must not contain ':'", cfg.Name)
	}
	if cfg.Factory == nil {
		return nil, fmt.Errorf("database: table %s requires a record factory", cfg.Name)
	}
	for _, idx := range cfg.Indexes {
		if strings.ContainsRune(idx.Name, ':') {
			return nil, fmt.Errorf("database: table %s: index name %q must not contain ':'", cfg.Name, idx.Name)
		}
	}
	if err := cfg.Options.Validate(); err != nil {
		return nil, fmt.Errorf("database: table %s: %w", cfg.Name, err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.tables[cfg.Name]; ok {
		return nil, fmt.Errorf("database: %w: %s", ErrTableExists, cfg.Name)
	}

	options := cfg.Options
	if options.Scope.TableID == "" {
		options.Scope.TableID = cfg.Name
	}

	idx := index.NewEngine(cfg.Name, cfg.Indexes)
	recPrefix := recordPrefix(cfg.Name)
	table := &Table{
		db:      db,
		name:    cfg.Name,
		factory: cfg.Factory,
		options: options,
		indexes: idx,
		queries: query.NewEngine(idx, recPrefix, cfg.NotPolicy),
		prefix:  recPrefix,
	}
	db.tables[cfg.Name] = table
	return table, nil
}

// Table returns a previously created table handle.
func (db *Database) Table(name string) (*Table, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	table, ok := db.tables[name]
	if !ok {
		return nil, fmt.Errorf("database: %w: %s", ErrTableNotFound, name)
	}
	return table, nil
}

// Tables returns the names of all registered tables.
func (db *Database) Tables() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	names := make([]string, 0, len(db.tables))
	for name := range db.tables {
		names = append(names, name)
	}
	return names
}

// Pipeline returns the value pipeline shared by all tables.
func (db *Database) Pipeline() *pipeline.Pipeline {
	return db.pipe
}

// Raw runs fn in a writable transaction against the underlying store,
// bypassing index maintenance. With index safety enabled it refuses.
func (db *Database) Raw(fn func(store.Txn) error) error {
	if db.indexSafety {
		return ErrRawAccessDisabled
	}
	return db.backend.Update(fn)
}

// View runs fn in a read-only transaction. Reads cannot desynchronize
// indexes, so this is allowed regardless of index safety.
func (db *Database) View(fn func(store.Txn) error) error {
	return db.backend.View(fn)
}

// Close releases the underlying store.
func (db *Database) Close() error {
	return db.backend.Close()
}

func recordPrefix(table string) []byte {
	return []byte("rec:" + table + ":")
}
