package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/norndb/norn/pkg/database"
	"github.com/norndb/norn/pkg/ecc"
	"github.com/norndb/norn/pkg/index"
	"github.com/norndb/norn/pkg/pipeline"
	"github.com/norndb/norn/pkg/query"
	"github.com/norndb/norn/pkg/store"
)

// Server serves the read-side of a database over HTTP: record fetches,
// index queries, and index verification. Writes go through the embedded
// table handles, not HTTP.
type Server struct {
	db      *database.Database
	metrics *Metrics
}

// NewServer creates a Server for the given database
func NewServer(db *database.Database, metrics *Metrics) *Server {
	return &Server{db: db, metrics: metrics}
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	err := s.db.View(func(store.Txn) error { return nil })
	s.metrics.RecordHealthCheck(err == nil)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeSuccess(w, map[string]string{"status": "ok"})
}

// handleListTables returns the registered table names
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, s.db.Tables())
}

// handleGetRecord fetches and decodes one record
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	table, ok := s.lookupTable(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")

	record, err := table.Get([]byte(key))
	s.metrics.RecordTableOperation("get", err == nil, time.Since(start))
	if err != nil {
		writeError(w, recordStatus(err), err.Error())
		return
	}
	writeSuccess(w, RecordResponse{Key: key, Record: record})
}

// handleQuery evaluates a query expression against a table's indexes
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	table, ok := s.lookupTable(w, r)
	if !ok {
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	expr, err := query.ParseJSON(req.Expr)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	set, err := table.Query(expr)
	s.metrics.RecordTableOperation("query", err == nil, time.Since(start))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, query.ErrMissingIndexKey) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}

	keys := make([]string, 0, len(set))
	for _, k := range set.Keys() {
		keys = append(keys, string(k))
	}
	writeSuccess(w, QueryResponse{Keys: keys, Count: len(keys)})
}

// handleVerify recomputes a table's indexes and reports divergence
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	table, ok := s.lookupTable(w, r)
	if !ok {
		return
	}

	err := table.VerifyIndexes()
	s.metrics.RecordTableOperation("verify", err == nil, time.Since(start))
	if errors.Is(err, index.ErrIndexInconsistency) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeSuccess(w, map[string]string{"status": "consistent"})
}

func (s *Server) lookupTable(w http.ResponseWriter, r *http.Request) (*database.Table, bool) {
	name := chi.URLParam(r, "table")
	table, err := s.db.Table(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return table, true
}

// recordStatus maps record-read failures onto HTTP statuses. Corruption and
// data loss surface distinctly so operators can tell them apart from a
// plain miss.
func recordStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrKeyNotFound):
		return http.StatusNotFound
	case errors.Is(err, ecc.ErrUnrecoverable):
		return http.StatusGone
	case errors.Is(err, pipeline.ErrCorruptFrame), errors.Is(err, pipeline.ErrLayerMismatch):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
