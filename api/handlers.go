package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/latticedb/lattice/core"
	"github.com/latticedb/lattice/index"
)

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Timestamp: time.Now()})
}

// CreateCollectionRequest is the POST /collections body.
type CreateCollectionRequest struct {
	Name           string     `json:"name"`
	Dimension      int        `json:"dimension"`
	Metric         core.Metric `json:"metric"`
	M              int        `json:"m,omitempty"`
	EfConstruction int        `json:"ef_construction,omitempty"`
	EfSearch       int        `json:"ef_search,omitempty"`
	MaxElements    int        `json:"max_elements,omitempty"`
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req CreateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg := core.DefaultCollectionConfig(req.Name, req.Dimension, req.Metric)
	if req.M > 0 {
		cfg.M = req.M
	}
	if req.EfConstruction > 0 {
		cfg.EfConstruction = req.EfConstruction
	}
	if req.EfSearch > 0 {
		cfg.EfSearch = req.EfSearch
	}
	if req.MaxElements > 0 {
		cfg.MaxElements = req.MaxElements
	}

	if err := s.mgr.CreateCollection(cfg); err != nil {
		s.respondWithCoreError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusCreated, cfg)
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, s.mgr.ListCollections())
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["collection"]
	existed, err := s.mgr.DeleteCollection(name)
	if err != nil {
		s.respondWithCoreError(w, err)
		return
	}
	if !existed {
		s.respondWithError(w, http.StatusNotFound, "collection not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetCollectionStats(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["collection"]
	stats, err := s.mgr.Stats(name)
	if err != nil {
		s.respondWithCoreError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, stats)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	names := s.mgr.ListCollections()
	out := make(map[string]core.CollectionStats, len(names))
	for _, name := range names {
		stats, err := s.mgr.Stats(name)
		if err != nil {
			continue
		}
		out[name] = stats
	}
	s.respondWithJSON(w, http.StatusOK, out)
}

// InsertVectorRequest is the POST .../vectors body.
type InsertVectorRequest struct {
	ID       string            `json:"id,omitempty"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]
	var req InsertVectorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.mgr.Insert(collection, req.Values, req.ID, req.Metadata)
	if err != nil {
		s.respondWithCoreError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// BatchInsertRequest is the POST .../vectors/batch body.
type BatchInsertRequest struct {
	Records []InsertVectorRequest `json:"records"`
}

func (s *Server) handleBatchInsert(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]
	var req BatchInsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	records := make([]index.InsertRequest, len(req.Records))
	for i, rec := range req.Records {
		records[i] = index.InsertRequest{Values: rec.Values, ID: rec.ID, Metadata: rec.Metadata}
	}

	inserted, err := s.mgr.BatchInsert(collection, records)
	if err != nil {
		s.respondWithCoreError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, map[string]int{"inserted": inserted})
}

func (s *Server) handleGetVector(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	rec, ok, err := s.mgr.Get(vars["collection"], vars["id"])
	if err != nil {
		s.respondWithCoreError(w, err)
		return
	}
	if !ok {
		s.respondWithError(w, http.StatusNotFound, "vector not found")
		return
	}
	s.respondWithJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteVector(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	removed, err := s.mgr.Remove(vars["collection"], vars["id"])
	if err != nil {
		s.respondWithCoreError(w, err)
		return
	}
	if !removed {
		s.respondWithError(w, http.StatusNotFound, "vector not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchRequest is the POST .../search body.
type SearchRequest struct {
	Query []float32 `json:"query"`
	K     int       `json:"k"`
	Ef    int       `json:"ef,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	results, err := s.mgr.Search(collection, req.Query, req.K, req.Ef)
	if err != nil {
		s.respondWithCoreError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, results)
}

// BatchSearchRequest is the POST .../search/batch body.
type BatchSearchRequest struct {
	Queries [][]float32 `json:"queries"`
	K       int         `json:"k"`
	Ef      int         `json:"ef,omitempty"`
}

func (s *Server) handleBatchSearch(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]
	var req BatchSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	results, err := s.mgr.BatchSearch(collection, req.Queries, req.K, req.Ef)
	if err != nil {
		s.respondWithCoreError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, results)
}

// respondWithCoreError maps a core.Error's Kind to the HTTP status the
// error handling design specifies: 400 validation, 404 not-found, 409
// duplicate create, 500 everything else.
func (s *Server) respondWithCoreError(w http.ResponseWriter, err error) {
	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		s.respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	switch coreErr.Kind {
	case core.KindDimensionMismatch:
		s.respondWithError(w, http.StatusBadRequest, coreErr.Error())
	case core.KindNotFound:
		s.respondWithError(w, http.StatusNotFound, coreErr.Error())
	case core.KindDuplicateID, core.KindAlreadyExists:
		s.respondWithError(w, http.StatusConflict, coreErr.Error())
	default:
		s.respondWithError(w, http.StatusInternalServerError, coreErr.Error())
	}
}
