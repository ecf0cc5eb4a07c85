package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/latticedb/lattice/core"
	"github.com/latticedb/lattice/manager"
	"github.com/latticedb/lattice/persistence"
)

func newTestServer() *Server {
	mgr := manager.New(persistence.NewMemoryPersistence())
	return NewServer(mgr, DefaultServerConfig())
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer()
	rr := doRequest(t, s, "GET", "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Fatalf("got status %q, want healthy", resp.Status)
	}
}

func TestCreateAndListCollection(t *testing.T) {
	s := newTestServer()

	rr := doRequest(t, s, "POST", "/collections", CreateCollectionRequest{
		Name: "docs", Dimension: 4, Metric: core.MetricEuclidean,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("got status %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	rr = doRequest(t, s, "GET", "/collections", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusOK)
	}
	var names []string
	if err := json.Unmarshal(rr.Body.Bytes(), &names); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(names) != 1 || names[0] != "docs" {
		t.Fatalf("got names %v, want [docs]", names)
	}
}

func TestCreateCollectionDuplicateReturns409(t *testing.T) {
	s := newTestServer()
	req := CreateCollectionRequest{Name: "docs", Dimension: 4, Metric: core.MetricEuclidean}

	doRequest(t, s, "POST", "/collections", req)
	rr := doRequest(t, s, "POST", "/collections", req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestInsertAndSearch(t *testing.T) {
	s := newTestServer()
	doRequest(t, s, "POST", "/collections", CreateCollectionRequest{
		Name: "docs", Dimension: 3, Metric: core.MetricEuclidean,
	})

	rr := doRequest(t, s, "POST", "/collections/docs/vectors", InsertVectorRequest{
		ID: "a", Values: []float32{1, 2, 3},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("got status %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	rr = doRequest(t, s, "POST", "/collections/docs/search", SearchRequest{
		Query: []float32{1, 2, 3}, K: 1,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var results []core.SearchResult
	if err := json.Unmarshal(rr.Body.Bytes(), &results); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(results) != 1 || results[0].ID != "a" {
		t.Fatalf("got results %+v, want a single result for id a", results)
	}
}

func TestSearchUnknownCollectionReturns404(t *testing.T) {
	s := newTestServer()
	rr := doRequest(t, s, "POST", "/collections/missing/search", SearchRequest{
		Query: []float32{1}, K: 1,
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestDeleteCollection(t *testing.T) {
	s := newTestServer()
	doRequest(t, s, "POST", "/collections", CreateCollectionRequest{
		Name: "docs", Dimension: 2, Metric: core.MetricEuclidean,
	})

	rr := doRequest(t, s, "DELETE", "/collections/docs", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusNoContent)
	}

	rr = doRequest(t, s, "DELETE", "/collections/docs", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusNotFound)
	}
}
