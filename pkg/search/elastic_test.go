package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/" {
			io.WriteString(w, `{"version":{"number":"8.19.0","build_flavor":"default"},"tagline":"You Know, for Search"}`)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(&Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return c
}

func TestCreateIndexToleratesExisting(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"type":"resource_already_exists_exception"},"status":400}`)
	})
	assert.NoError(t, c.CreateIndex(context.Background(), "products", `{}`))
}

func TestIndexAndDelete(t *testing.T) {
	var indexed map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/products/_doc/p-1":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&indexed))
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `{"result":"created"}`)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"result":"not_found"}`)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	require.NoError(t, c.Index(context.Background(), "products", "p-1", map[string]string{"name": "Widget"}))
	assert.Equal(t, "Widget", indexed["name"])
	assert.NoError(t, c.Delete(context.Background(), "products", "missing"))
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/products/_search"))
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "query_string")
		io.WriteString(w, `{"hits":{"total":{"value":2},"hits":[{"_id":"p-2"},{"_id":"p-1"}]}}`)
	})

	res, err := c.Search(context.Background(), "products", map[string]interface{}{
		"query": map[string]interface{}{"query_string": map[string]interface{}{"query": "wid*"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Hits.Total.Value)
	require.Len(t, res.Hits.Hits, 2)
	assert.Equal(t, "p-2", res.Hits.Hits[0].ID)
}

func TestSearchError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error":"unavailable"}`)
	})
	_, err := c.Search(context.Background(), "products", map[string]interface{}{})
	assert.Error(t, err)
}
