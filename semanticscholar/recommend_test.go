package semanticscholar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendUsesDirectResultsWhenAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/papers/forpaper/seed", r.URL.Path)
		assert.Equal(t, "all-cs", r.URL.Query().Get("from"))
		w.Write([]byte(`{"recommendedPapers":[{"paperId":"r1"},{"paperId":"r2"},{"paperId":"r3"}]}`))
	}))
	defer server.Close()

	client := testClient(server.URL, 1)
	papers, err := client.Recommend(context.Background(), "seed", 2)
	require.NoError(t, err)

	require.Len(t, papers, 2)
	assert.Equal(t, "r1", papers[0].PaperID)
	assert.Equal(t, "r2", papers[1].PaperID)
}

// fallbackServer simuliert eine Recommendations-API ohne Treffer und
// einen Graph mit References und Citations.
func fallbackServer(t *testing.T, refs, cits []string, citationCounts map[string]int) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/papers/forpaper/seed", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"recommendedPapers":[]}`))
	})
	mux.HandleFunc("/paper/seed/references", func(w http.ResponseWriter, r *http.Request) {
		page := linkedPagePayload(refs, "cited")
		w.Write(page)
	})
	mux.HandleFunc("/paper/seed/citations", func(w http.ResponseWriter, r *http.Request) {
		page := linkedPagePayload(cits, "citing")
		w.Write(page)
	})
	mux.HandleFunc("/paper/batch", func(w http.ResponseWriter, r *http.Request) {
		var req batchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		results := make([]*PaperResult, len(req.IDs))
		for i, id := range req.IDs {
			cc := citationCounts[id]
			results[i] = &PaperResult{PaperID: id, CitationCount: &cc}
		}
		json.NewEncoder(w).Encode(results)
	})
	return httptest.NewServer(mux)
}

func linkedPagePayload(ids []string, kind string) []byte {
	type entry map[string]map[string]string
	entries := make([]entry, 0, len(ids))
	for _, id := range ids {
		key := "citedPaper"
		if kind == "citing" {
			key = "citingPaper"
		}
		entries = append(entries, entry{key: {"paperId": id}})
	}
	payload, _ := json.Marshal(map[string]any{"offset": 0, "data": entries})
	return payload
}

func TestRecommendFallsBackToStructuralCandidates(t *testing.T) {
	server := fallbackServer(t,
		[]string{"ref1", "ref2"},
		[]string{"cit1", "ref1"}, // ref1 doppelt, wird dedupliziert
		map[string]int{"ref1": 5, "ref2": 50, "cit1": 20},
	)
	defer server.Close()

	client := testClient(server.URL, 1)
	papers, err := client.Recommend(context.Background(), "seed", 10)
	require.NoError(t, err)

	require.Len(t, papers, 3)
	assert.Equal(t, "ref2", papers[0].PaperID)
	assert.Equal(t, "cit1", papers[1].PaperID)
	assert.Equal(t, "ref1", papers[2].PaperID)
}

func TestRecommendFallbackTieKeepsFirstSeenOrder(t *testing.T) {
	server := fallbackServer(t,
		[]string{"a", "b"},
		[]string{"c"},
		map[string]int{"a": 10, "b": 10, "c": 10},
	)
	defer server.Close()

	client := testClient(server.URL, 1)
	papers, err := client.Recommend(context.Background(), "seed", 10)
	require.NoError(t, err)

	// References vor Citations, innerhalb stabil.
	require.Len(t, papers, 3)
	assert.Equal(t, "a", papers[0].PaperID)
	assert.Equal(t, "b", papers[1].PaperID)
	assert.Equal(t, "c", papers[2].PaperID)
}

func TestRecommendFallbackFollowsPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/papers/forpaper/seed", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"recommendedPapers":[]}`))
	})
	mux.HandleFunc("/paper/seed/references", func(w http.ResponseWriter, r *http.Request) {
		// Zwei Seiten: offset 0 liefert a und b mit next=2, offset 2
		// liefert c ohne next.
		if r.URL.Query().Get("offset") == "0" {
			w.Write([]byte(`{"offset":0,"next":2,"data":[{"citedPaper":{"paperId":"a"}},{"citedPaper":{"paperId":"b"}}]}`))
			return
		}
		w.Write([]byte(`{"offset":2,"data":[{"citedPaper":{"paperId":"c"}}]}`))
	})
	mux.HandleFunc("/paper/seed/citations", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"offset":0,"data":[]}`))
	})
	mux.HandleFunc("/paper/batch", func(w http.ResponseWriter, r *http.Request) {
		var req batchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		counts := map[string]int{"a": 1, "b": 3, "c": 2}
		results := make([]*PaperResult, len(req.IDs))
		for i, id := range req.IDs {
			cc := counts[id]
			results[i] = &PaperResult{PaperID: id, CitationCount: &cc}
		}
		json.NewEncoder(w).Encode(results)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := testClient(server.URL, 1)
	papers, err := client.Recommend(context.Background(), "seed", 10)
	require.NoError(t, err)

	// Beide Seiten fließen in die Kandidatenmenge ein.
	require.Len(t, papers, 3)
	assert.Equal(t, "b", papers[0].PaperID)
	assert.Equal(t, "c", papers[1].PaperID)
	assert.Equal(t, "a", papers[2].PaperID)
}

func TestRecommendFallbackStopsOnStalledPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/papers/forpaper/seed", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"recommendedPapers":[]}`))
	})
	mux.HandleFunc("/paper/seed/references", func(w http.ResponseWriter, r *http.Request) {
		// Fehlverhalten: next rückt nie vor. Die Seite darf trotzdem nur
		// einmal gelesen werden.
		w.Write([]byte(`{"offset":0,"next":0,"data":[{"citedPaper":{"paperId":"a"}}]}`))
	})
	mux.HandleFunc("/paper/seed/citations", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"offset":0,"data":[]}`))
	})
	mux.HandleFunc("/paper/batch", func(w http.ResponseWriter, r *http.Request) {
		var req batchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		results := make([]*PaperResult, len(req.IDs))
		for i, id := range req.IDs {
			results[i] = &PaperResult{PaperID: id}
		}
		json.NewEncoder(w).Encode(results)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := testClient(server.URL, 1)
	papers, err := client.Recommend(context.Background(), "seed", 10)
	require.NoError(t, err)

	require.Len(t, papers, 1)
	assert.Equal(t, "a", papers[0].PaperID)
}

func TestRecommendFallbackTruncatesToLimit(t *testing.T) {
	server := fallbackServer(t,
		[]string{"a", "b", "c", "d"},
		nil,
		map[string]int{"a": 1, "b": 2, "c": 3, "d": 4},
	)
	defer server.Close()

	client := testClient(server.URL, 1)
	papers, err := client.Recommend(context.Background(), "seed", 2)
	require.NoError(t, err)
	assert.Len(t, papers, 2)
}

func TestRecommendForTopicSendsPositiveAndNegativeSets(t *testing.T) {
	var got topicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/papers/", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"recommendedPapers":[{"paperId":"t1"}]}`))
	}))
	defer server.Close()

	client := testClient(server.URL, 1)
	papers, err := client.RecommendForTopic(context.Background(), []string{"p1"}, []string{"n1"}, 5)
	require.NoError(t, err)

	assert.Equal(t, []string{"p1"}, got.PositivePaperIDs)
	assert.Equal(t, []string{"n1"}, got.NegativePaperIDs)
	require.Len(t, papers, 1)
	assert.Equal(t, "t1", papers[0].PaperID)
}

func TestRecommendForTopicWithoutPositivesIsNoop(t *testing.T) {
	client := testClient("http://unreachable.invalid", 1)
	papers, err := client.RecommendForTopic(context.Background(), nil, nil, 5)
	require.NoError(t, err)
	assert.Nil(t, papers)
}
