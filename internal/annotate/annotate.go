// Package annotate fetches gene annotations from the MyGene.info service,
// backed by a local JSON file cache so repeated runs stay offline.
package annotate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/schema"
)

// DefaultBaseURL is the public MyGene.info endpoint.
const DefaultBaseURL = "https://mygene.info/v3"

// Fetcher retrieves annotations over HTTP with file-cache read-through.
type Fetcher struct {
	BaseURL  string
	CacheDir string
	Client   *http.Client
}

var _ contract.AnnotationFetcher = &Fetcher{} // Compile-time check

// NewFetcher creates a fetcher. An empty cacheDir disables caching.
func NewFetcher(baseURL, cacheDir string) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Fetcher{
		BaseURL:  baseURL,
		CacheDir: cacheDir,
		Client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// queryResponse mirrors the subset of the MyGene.info query payload we use.
type queryResponse struct {
	Hits []struct {
		Symbol     string `json:"symbol"`
		Name       string `json:"name"`
		Summary    string `json:"summary"`
		EntrezGene any    `json:"entrezgene"`
		Ensembl    struct {
			Gene string `json:"gene"`
		} `json:"ensembl"`
	} `json:"hits"`
}

// Fetch resolves annotations for the given symbols. Genes that cannot be
// resolved are returned in the failed list; only a total transport breakdown
// before the first lookup is reported as an error.
func (f *Fetcher) Fetch(ctx context.Context, genes []string) (map[string]schema.GeneAnnotation, []string, error) {
	annotations := make(map[string]schema.GeneAnnotation, len(genes))
	var failed []string

	for _, gene := range genes {
		if cached, ok := f.readCache(gene); ok {
			annotations[gene] = cached
			continue
		}

		annotation, err := f.fetchOne(ctx, gene)
		if err != nil {
			if ctx.Err() != nil {
				return annotations, failed, ctx.Err()
			}
			failed = append(failed, gene)
			continue
		}
		annotations[gene] = annotation
		f.writeCache(gene, annotation)
	}
	return annotations, failed, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, gene string) (schema.GeneAnnotation, error) {
	endpoint := fmt.Sprintf("%s/query?q=symbol:%s&species=human&fields=symbol,name,summary,entrezgene,ensembl.gene&size=1",
		f.BaseURL, url.QueryEscape(gene))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return schema.GeneAnnotation{}, err
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return schema.GeneAnnotation{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return schema.GeneAnnotation{}, fmt.Errorf("annotation service returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return schema.GeneAnnotation{}, err
	}
	var parsed queryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return schema.GeneAnnotation{}, err
	}
	if len(parsed.Hits) == 0 {
		return schema.GeneAnnotation{}, fmt.Errorf("no annotation hit for %q", gene)
	}

	hit := parsed.Hits[0]
	return schema.GeneAnnotation{
		Symbol:    gene,
		Name:      hit.Name,
		Summary:   hit.Summary,
		EntrezID:  formatEntrez(hit.EntrezGene),
		EnsemblID: hit.Ensembl.Gene,
	}, nil
}

// formatEntrez tolerates the service returning entrez IDs as either numbers
// or strings.
func formatEntrez(v any) string {
	switch id := v.(type) {
	case float64:
		return fmt.Sprintf("%.0f", id)
	case string:
		return id
	default:
		return ""
	}
}

func (f *Fetcher) cachePath(gene string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, gene)
	return filepath.Join(f.CacheDir, safe+".json")
}

func (f *Fetcher) readCache(gene string) (schema.GeneAnnotation, bool) {
	if f.CacheDir == "" {
		return schema.GeneAnnotation{}, false
	}
	data, err := os.ReadFile(f.cachePath(gene))
	if err != nil {
		return schema.GeneAnnotation{}, false
	}
	var annotation schema.GeneAnnotation
	if err := json.Unmarshal(data, &annotation); err != nil {
		return schema.GeneAnnotation{}, false
	}
	return annotation, true
}

func (f *Fetcher) writeCache(gene string, annotation schema.GeneAnnotation) {
	if f.CacheDir == "" {
		return
	}
	if err := os.MkdirAll(f.CacheDir, 0o755); err != nil {
		return
	}
	data, err := json.MarshalIndent(annotation, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(f.cachePath(gene), data, 0o644)
}
