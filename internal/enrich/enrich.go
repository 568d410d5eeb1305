// Package enrich computes pathway over-representation for significant genes
// using the hypergeometric tail test.
package enrich

import (
	"bufio"
	"context"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/screenlab/guidepost/core/algo"
	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/schema"
)

// PathwaySet is one named gene set.
type PathwaySet struct {
	ID     string
	Name   string
	Source string
	Genes  []string
}

// Backend tests hit lists against pathway sets loaded from a GMT file.
type Backend struct {
	sets []PathwaySet
}

var _ contract.EnrichmentBackend = &Backend{} // Compile-time check

// NewBackend loads pathway sets from a GMT file. A missing path yields a
// backend that reports itself unavailable instead of an error, so the
// pipeline can demote enrichment to a warning.
func NewBackend(gmtPath string) *Backend {
	if gmtPath == "" {
		return &Backend{}
	}
	sets, err := LoadGMT(gmtPath)
	if err != nil {
		contract.LogWarn("failed to load pathway file", err)
		return &Backend{}
	}
	return &Backend{sets: sets}
}

// LoadGMT parses the tab-separated GMT gene-set format: one set per line,
// name and description followed by member genes.
func LoadGMT(path string) ([]PathwaySet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var sets []PathwaySet
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			continue
		}
		sets = append(sets, PathwaySet{
			ID:     fields[0],
			Name:   fields[0],
			Source: fields[1],
			Genes:  fields[2:],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sets, nil
}

// IsAvailable reports whether any pathway set is loaded.
func (b *Backend) IsAvailable() bool {
	return len(b.sets) > 0
}

// Run tests the hit genes against every loaded pathway given the full gene
// universe and returns pathways passing the FDR cutoff, strongest first.
func (b *Backend) Run(ctx context.Context, hits, universe []string, cutoff float64) ([]schema.PathwayResult, contract.BackendOutcome) {
	if len(hits) == 0 || len(universe) == 0 {
		return nil, contract.OutcomeSuccess()
	}

	inUniverse := make(map[string]struct{}, len(universe))
	for _, g := range universe {
		inUniverse[g] = struct{}{}
	}
	inHits := make(map[string]struct{}, len(hits))
	for _, g := range hits {
		if _, ok := inUniverse[g]; ok {
			inHits[g] = struct{}{}
		}
	}

	var results []schema.PathwayResult
	for _, set := range b.sets {
		select {
		case <-ctx.Done():
			return nil, contract.OutcomeFromError(ctx.Err())
		default:
		}

		var setSize int
		var overlap []string
		for _, g := range set.Genes {
			if _, ok := inUniverse[g]; !ok {
				continue
			}
			setSize++
			if _, hit := inHits[g]; hit {
				overlap = append(overlap, g)
			}
		}
		if setSize == 0 || len(overlap) == 0 {
			continue
		}

		p := hypergeometricTail(len(inUniverse), setSize, len(inHits), len(overlap))
		sort.Strings(overlap)
		results = append(results, schema.PathwayResult{
			PathwayID: set.ID,
			Name:      set.Name,
			Source:    set.Source,
			PValue:    p,
			Overlap:   len(overlap),
			Genes:     overlap,
		})
	}
	if len(results) == 0 {
		return nil, contract.OutcomeSuccess()
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].PValue < results[j].PValue
	})
	pvalues := make([]float64, len(results))
	for i, r := range results {
		pvalues[i] = r.PValue
	}
	fdr, err := algo.BenjaminiHochberg(pvalues)
	if err != nil {
		return nil, contract.OutcomeFromError(err)
	}

	kept := results[:0]
	for i := range results {
		results[i].FDR = fdr[i]
		if results[i].FDR <= cutoff {
			kept = append(kept, results[i])
		}
	}
	return kept, contract.OutcomeSuccess()
}

// hypergeometricTail computes P(X >= k) for drawing n hits from a universe
// of size total containing setSize pathway members.
func hypergeometricTail(total, setSize, n, k int) float64 {
	upper := setSize
	if n < upper {
		upper = n
	}
	p := 0.0
	for x := k; x <= upper; x++ {
		p += hypergeometricPMF(total, setSize, n, x)
	}
	if p > 1 {
		p = 1
	}
	return p
}

func hypergeometricPMF(total, setSize, n, x int) float64 {
	if x > setSize || n-x > total-setSize {
		return 0
	}
	logP := logChoose(setSize, x) + logChoose(total-setSize, n-x) - logChoose(total, n)
	return math.Exp(logP)
}

func logChoose(n, k int) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	a, _ := math.Lgamma(float64(n + 1))
	b, _ := math.Lgamma(float64(k + 1))
	c, _ := math.Lgamma(float64(n - k + 1))
	return a - b - c
}
