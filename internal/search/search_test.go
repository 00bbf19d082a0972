package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/glowshop/internal/models"
)

func newTestEngine(t *testing.T, h http.HandlerFunc) *ESEngine {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{URL: srv.URL})
	require.NoError(t, err)
	return NewESEngine(client, "products")
}

func TestESEngine_Search(t *testing.T) {
	id1, id2 := uuid.New(), uuid.New()
	var gotBody map[string]any

	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/_search", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":3},"hits":[{"_id":"`+id1.String()+`"},{"_id":"junk"},{"_id":"`+id2.String()+`"}]}}`)
	})

	total, ids, err := e.Search(context.Background(), "lipstik", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []uuid.UUID{id1, id2}, ids)

	mm := gotBody["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "lipstik", mm["query"])
	assert.Equal(t, "AUTO", mm["fuzziness"])
}

func TestESEngine_SearchError(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"bad query"}`)
	})

	_, _, err := e.Search(context.Background(), "x", 0, 10)
	require.ErrorContains(t, err, "bad query")
}

func TestESEngine_IndexAndDelete(t *testing.T) {
	p := models.Product{ID: uuid.New(), Name: "Velvet Primer", Description: "smooth", Category: "primer", Price: decimal.NewFromInt(12)}
	var paths []string

	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"result":"not_found"}`)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		assert.True(t, strings.Contains(string(raw), "Velvet Primer"))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	})

	require.NoError(t, e.Index(context.Background(), p))
	require.NoError(t, e.Delete(context.Background(), p.ID))
	assert.Equal(t, []string{
		"PUT /products/_doc/" + p.ID.String(),
		"DELETE /products/_doc/" + p.ID.String(),
	}, paths)
}
