package rpc

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"

	"github.com/google/uuid"

	"github.com/latticedb/lattice/core"
	"github.com/latticedb/lattice/index"
	"github.com/latticedb/lattice/manager"
)

// Server accepts TCP connections and services binary-framed requests
// against a collection manager, one goroutine per connection.
type Server struct {
	mgr      *manager.Manager
	listener net.Listener
}

// NewServer builds an RPC server over mgr.
func NewServer(mgr *manager.Manager) *Server {
	return &Server{mgr: mgr}
}

// Serve listens on addr and blocks accepting connections until the
// listener is closed (via Close or process shutdown).
func (s *Server) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.handleConn(conn)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) handleConn(conn net.Conn) {
	connID := uuid.NewString()
	log.Printf("rpc: connection %s opened from %s", connID, conn.RemoteAddr())
	defer func() {
		log.Printf("rpc: connection %s closed", connID)
		conn.Close()
	}()

	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)

	for {
		req, err := ReadFrame(r)
		if err != nil {
			if err != io.EOF {
				resp := errorFrame(err.Error())
				WriteFrame(w, resp)
				w.Flush()
			}
			return
		}

		resp := s.dispatch(req)
		if err := WriteFrame(w, resp); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(req Frame) Frame {
	switch req.Opcode {
	case OpCreateCollection:
		return s.handleCreateCollection(req.Payload)
	case OpDeleteCollection:
		return s.handleDeleteCollection(req.Payload)
	case OpListCollections:
		return s.handleListCollections()
	case OpStats:
		return s.handleStats(req.Payload)
	case OpInsert:
		return s.handleInsert(req.Payload)
	case OpBatchInsert:
		return s.handleBatchInsert(req.Payload)
	case OpRemove:
		return s.handleRemove(req.Payload)
	case OpGet:
		return s.handleGet(req.Payload)
	case OpSearch:
		return s.handleSearch(req.Payload)
	case OpBatchSearch:
		return s.handleBatchSearch(req.Payload)
	default:
		return errorFrame("unknown opcode")
	}
}

type createCollectionRequest struct {
	core.CollectionConfig
}

func (s *Server) handleCreateCollection(payload []byte) Frame {
	var req createCollectionRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return errorFrame(err.Error())
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
		return errorFrame(err.Error())
	}
	f, _ := encodeFrame(OpCreateCollection, cfg)
	return f
}

type collectionNameRequest struct {
	Collection string `json:"collection"`
}

func (s *Server) handleDeleteCollection(payload []byte) Frame {
	var req collectionNameRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return errorFrame(err.Error())
	}
	existed, err := s.mgr.DeleteCollection(req.Collection)
	if err != nil {
		return errorFrame(err.Error())
	}
	f, _ := encodeFrame(OpDeleteCollection, map[string]bool{"existed": existed})
	return f
}

func (s *Server) handleListCollections() Frame {
	f, _ := encodeFrame(OpListCollections, s.mgr.ListCollections())
	return f
}

func (s *Server) handleStats(payload []byte) Frame {
	var req collectionNameRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return errorFrame(err.Error())
	}
	stats, err := s.mgr.Stats(req.Collection)
	if err != nil {
		return errorFrame(err.Error())
	}
	f, _ := encodeFrame(OpStats, stats)
	return f
}

type insertRequest struct {
	Collection string            `json:"collection"`
	ID         string            `json:"id,omitempty"`
	Values     []float32         `json:"values"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func (s *Server) handleInsert(payload []byte) Frame {
	var req insertRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return errorFrame(err.Error())
	}
	id, err := s.mgr.Insert(req.Collection, req.Values, req.ID, req.Metadata)
	if err != nil {
		return errorFrame(err.Error())
	}
	f, _ := encodeFrame(OpInsert, map[string]string{"id": id})
	return f
}

type batchInsertRequest struct {
	Collection string                `json:"collection"`
	Records    []index.InsertRequest `json:"records"`
}

func (s *Server) handleBatchInsert(payload []byte) Frame {
	var req batchInsertRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return errorFrame(err.Error())
	}
	inserted, err := s.mgr.BatchInsert(req.Collection, req.Records)
	if err != nil {
		return errorFrame(err.Error())
	}
	f, _ := encodeFrame(OpBatchInsert, map[string]int{"inserted": inserted})
	return f
}

type idRequest struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

func (s *Server) handleRemove(payload []byte) Frame {
	var req idRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return errorFrame(err.Error())
	}
	removed, err := s.mgr.Remove(req.Collection, req.ID)
	if err != nil {
		return errorFrame(err.Error())
	}
	f, _ := encodeFrame(OpRemove, map[string]bool{"removed": removed})
	return f
}

func (s *Server) handleGet(payload []byte) Frame {
	var req idRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return errorFrame(err.Error())
	}
	rec, ok, err := s.mgr.Get(req.Collection, req.ID)
	if err != nil {
		return errorFrame(err.Error())
	}
	if !ok {
		return errorFrame("not found")
	}
	f, _ := encodeFrame(OpGet, rec)
	return f
}

type searchRequest struct {
	Collection string    `json:"collection"`
	Query      []float32 `json:"query"`
	K          int       `json:"k"`
	Ef         int       `json:"ef,omitempty"`
}

func (s *Server) handleSearch(payload []byte) Frame {
	var req searchRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return errorFrame(err.Error())
	}
	results, err := s.mgr.Search(req.Collection, req.Query, req.K, req.Ef)
	if err != nil {
		return errorFrame(err.Error())
	}
	f, _ := encodeFrame(OpSearch, results)
	return f
}

type batchSearchRequest struct {
	Collection string      `json:"collection"`
	Queries    [][]float32 `json:"queries"`
	K          int         `json:"k"`
	Ef         int         `json:"ef,omitempty"`
}

func (s *Server) handleBatchSearch(payload []byte) Frame {
	var req batchSearchRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return errorFrame(err.Error())
	}
	results, err := s.mgr.BatchSearch(req.Collection, req.Queries, req.K, req.Ef)
	if err != nil {
		return errorFrame(err.Error())
	}
	f, _ := encodeFrame(OpBatchSearch, results)
	return f
}
