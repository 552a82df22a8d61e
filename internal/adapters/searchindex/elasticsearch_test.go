package searchindex

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newElasticStub serves canned responses with the product header the
// client library validates before trusting a node.
func newElasticStub(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
}

func TestElasticAdapter_MapsHits(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	srv := newElasticStub(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"hits": {"hits": [
				{"_source": {"filename": "Knowledge/docker.md", "content": "containers 101"}},
				{"_source": {"filename": "Knowledge/k8s.md", "content": "pods and nodes"}}
			]}
		}`)
	})
	defer srv.Close()

	a, err := NewElasticAdapter([]string{srv.URL}, 5*time.Second)
	if err != nil {
		t.Fatalf("adapter creation failed: %v", err)
	}

	candidates, err := a.Search(context.Background(), "docker", "knowledge")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Title != "Knowledge/docker.md" || candidates[0].Content != "containers 101" {
		t.Errorf("unexpected first candidate: %+v", candidates[0])
	}
	if candidates[0].Path != candidates[0].Title {
		t.Error("path should carry the filename")
	}

	if gotPath != "/knowledge/_search" {
		t.Errorf("search hit %s, want /knowledge/_search", gotPath)
	}
	query, ok := gotBody["query"].(map[string]interface{})
	if !ok {
		t.Fatalf("request body missing query object: %v", gotBody)
	}
	mm, ok := query["multi_match"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected multi_match query, got %v", query)
	}
	if mm["query"] != "docker" {
		t.Errorf("query text = %v, want docker", mm["query"])
	}
	fields, _ := mm["fields"].([]interface{})
	if len(fields) != 2 || fields[0] != "filename" || fields[1] != "content" {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestElasticAdapter_ServerErrorYieldsEmptyList(t *testing.T) {
	srv := newElasticStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error": "boom"}`)
	})
	defer srv.Close()

	a, err := NewElasticAdapter([]string{srv.URL}, 5*time.Second)
	if err != nil {
		t.Fatalf("adapter creation failed: %v", err)
	}

	candidates, err := a.Search(context.Background(), "docker", "knowledge")
	if err != nil {
		t.Fatalf("index errors must not propagate: %v", err)
	}
	if candidates == nil || len(candidates) != 0 {
		t.Errorf("expected empty non-nil candidate list, got %v", candidates)
	}
}

func TestElasticAdapter_MalformedResponseYieldsEmptyList(t *testing.T) {
	srv := newElasticStub(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "definitely not json")
	})
	defer srv.Close()

	a, err := NewElasticAdapter([]string{srv.URL}, 5*time.Second)
	if err != nil {
		t.Fatalf("adapter creation failed: %v", err)
	}

	candidates, err := a.Search(context.Background(), "docker", "knowledge")
	if err != nil {
		t.Fatalf("decode errors must not propagate: %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected empty candidate list, got %v", candidates)
	}
}

func TestElasticAdapter_CancelledContext(t *testing.T) {
	srv := newElasticStub(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"hits": {"hits": []}}`)
	})
	defer srv.Close()

	a, err := NewElasticAdapter([]string{srv.URL}, 5*time.Second)
	if err != nil {
		t.Fatalf("adapter creation failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Search(ctx, "docker", "knowledge"); err == nil {
		t.Fatal("cancelled context must surface an error")
	}
}
