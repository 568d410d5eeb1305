package annotate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// annotationServer serves canned MyGene.info query responses and counts the
// requests it receives. Symbols listed in missing return an empty hit list;
// symbols listed in broken return a 500.
func annotationServer(t *testing.T, hits *atomic.Int64, missing, broken map[string]bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		q := r.URL.Query().Get("q")
		var gene string
		if _, err := fmt.Sscanf(q, "symbol:%s", &gene); err != nil {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		if broken[gene] {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if missing[gene] {
			fmt.Fprint(w, `{"hits":[]}`)
			return
		}
		fmt.Fprintf(w, `{"hits":[{"symbol":%[1]q,"name":"%[1]s protein","summary":"essential gene","entrezgene":7157,"ensembl":{"gene":"ENSG0001"}}]}`, gene)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestFetchSuccess verifies annotation lookup and payload mapping, including
// the numeric entrez ID form.
func TestFetchSuccess(t *testing.T) {
	var hits atomic.Int64
	srv := annotationServer(t, &hits, nil, nil)
	f := NewFetcher(srv.URL, "")

	annotations, failed, err := f.Fetch(context.Background(), []string{"TP53", "BRCA1"})
	require.NoError(t, err)
	assert.Empty(t, failed)
	require.Len(t, annotations, 2)

	tp53 := annotations["TP53"]
	assert.Equal(t, "TP53", tp53.Symbol)
	assert.Equal(t, "TP53 protein", tp53.Name)
	assert.Equal(t, "essential gene", tp53.Summary)
	assert.Equal(t, "7157", tp53.EntrezID)
	assert.Equal(t, "ENSG0001", tp53.EnsemblID)
	assert.Equal(t, int64(2), hits.Load())
}

// TestFetchCacheReadThrough verifies that a second fetch is served entirely
// from the file cache without touching the service.
func TestFetchCacheReadThrough(t *testing.T) {
	var hits atomic.Int64
	srv := annotationServer(t, &hits, nil, nil)
	f := NewFetcher(srv.URL, t.TempDir())

	_, failed, err := f.Fetch(context.Background(), []string{"TP53"})
	require.NoError(t, err)
	assert.Empty(t, failed)
	require.Equal(t, int64(1), hits.Load())

	annotations, failed, err := f.Fetch(context.Background(), []string{"TP53"})
	require.NoError(t, err)
	assert.Empty(t, failed)
	assert.Equal(t, "TP53", annotations["TP53"].Symbol)
	assert.Equal(t, int64(1), hits.Load(), "cached gene must not hit the service again")
}

// TestFetchPartialFailure verifies that unresolvable and erroring genes land
// in the failed list while the rest still annotate.
func TestFetchPartialFailure(t *testing.T) {
	var hits atomic.Int64
	srv := annotationServer(t, &hits,
		map[string]bool{"NOT_A_GENE": true},
		map[string]bool{"FLAKY": true})
	f := NewFetcher(srv.URL, "")

	annotations, failed, err := f.Fetch(context.Background(), []string{"TP53", "NOT_A_GENE", "FLAKY"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"NOT_A_GENE", "FLAKY"}, failed)
	require.Len(t, annotations, 1)
	assert.Contains(t, annotations, "TP53")
}

// TestFetchContextCancel verifies that cancellation aborts the batch with an
// error instead of marking the remaining genes failed.
func TestFetchContextCancel(t *testing.T) {
	var hits atomic.Int64
	srv := annotationServer(t, &hits, nil, nil)
	f := NewFetcher(srv.URL, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, failed, err := f.Fetch(ctx, []string{"TP53", "BRCA1"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, failed)
}

// TestCachePathSanitizes verifies that unsafe symbol characters cannot
// escape the cache directory.
func TestCachePathSanitizes(t *testing.T) {
	f := NewFetcher("http://localhost", "/tmp/cache")
	assert.Equal(t, "/tmp/cache/___etc_passwd.json", f.cachePath("../etc/passwd"))
	assert.Equal(t, "/tmp/cache/TP53.json", f.cachePath("TP53"))
}

// TestNewFetcherDefaults verifies the base URL fallback.
func TestNewFetcherDefaults(t *testing.T) {
	f := NewFetcher("", "")
	assert.Equal(t, DefaultBaseURL, f.BaseURL)
	require.NotNil(t, f.Client)
}
