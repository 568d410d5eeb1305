// Package algo implements the gene-scoring mathematics: robust rank
// aggregation, Benjamini-Hochberg correction and the descriptive statistics
// reported alongside gene scores.
package algo

import (
	"math"
	"sort"

	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/schema"
)

// RRAOptions tunes the robust rank aggregation scorer.
type RRAOptions struct {
	// MinGuides is the minimum number of guides a gene needs to be scored.
	MinGuides int
	// HigherIsBetter indicates whether larger fold-change values are stronger
	// hits. The pipeline's sign convention makes this true for both screen
	// directions.
	HigherIsBetter bool
}

// DefaultRRAOptions returns the documented scorer defaults.
func DefaultRRAOptions() RRAOptions {
	return RRAOptions{MinGuides: 2, HigherIsBetter: true}
}

// geneGroup accumulates the guide rows belonging to one gene.
type geneGroup struct {
	gene    string
	ranks   []float64
	log2fcs []float64
	weights []float64
}

// RunRRA converts per-guide log2 fold-changes into gene-level significance
// scores using the RRA order statistic: guides are ranked globally, each
// gene's normalized rank vector is scored against Beta order-statistic
// distributions, and the minimum of those probabilities is the gene p-value.
// Genes whose guides sit consistently near the top of the ranking win over
// genes carried by a single extreme guide.
func RunRRA(records []schema.GuideRecord, opts RRAOptions) (*schema.GeneTable, error) {
	if len(records) == 0 {
		return nil, contract.NewDataContractError("no guide records available for RRA computation")
	}
	if opts.MinGuides < 1 {
		opts.MinGuides = 1
	}

	values := make([]float64, len(records))
	for i, rec := range records {
		values[i] = rec.Log2FoldChange
	}
	ranks := AverageRanks(values, opts.HigherIsBetter)
	totalGuides := len(records)

	// Group guides by gene, preserving first-seen gene order.
	groups := make(map[string]*geneGroup)
	var order []string
	for i, rec := range records {
		g, ok := groups[rec.GeneSymbol]
		if !ok {
			g = &geneGroup{gene: rec.GeneSymbol}
			groups[rec.GeneSymbol] = g
			order = append(order, rec.GeneSymbol)
		}
		g.ranks = append(g.ranks, ranks[i])
		g.log2fcs = append(g.log2fcs, rec.Log2FoldChange)
		g.weights = append(g.weights, rec.Weight)
	}

	rows := make([]schema.GeneRow, 0, len(order))
	for _, gene := range order {
		g := groups[gene]
		if len(g.ranks) < opts.MinGuides {
			continue
		}

		pValue := GenePValue(g.ranks, totalGuides)
		score := math.Inf(1)
		if pValue > 0 {
			score = -math.Log10(pValue)
		}

		rows = append(rows, schema.GeneRow{
			Gene:         gene,
			Score:        score,
			PValue:       pValue,
			NGuides:      len(g.ranks),
			MeanLog2FC:   WeightedMean(g.log2fcs, g.weights),
			MedianLog2FC: Median(g.log2fcs),
			VarLog2FC:    PopulationVariance(g.log2fcs),
		})
	}

	if len(rows) == 0 {
		return nil, contract.NewDataContractError("no genes met the minimum guide requirement for RRA")
	}

	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].PValue < rows[b].PValue
	})

	pvalues := make([]float64, len(rows))
	for i, row := range rows {
		pvalues[i] = row.PValue
	}
	fdr, err := BenjaminiHochberg(pvalues)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].FDR = fdr[i]
		rows[i].Rank = i + 1
	}

	return &schema.GeneTable{Backend: schema.PureBackend, Rows: rows}, nil
}

// GenePValue computes the minimum Beta order-statistic probability for one
// gene's rank vector. Ranks are normalized against the global guide count.
func GenePValue(ranks []float64, totalGuides int) float64 {
	normalized := make([]float64, len(ranks))
	for i, r := range ranks {
		normalized[i] = r / float64(totalGuides)
	}
	sort.Float64s(normalized)

	minP := 1.0
	for i, r := range normalized {
		p := BetaCDF(r, float64(i+1), float64(totalGuides-i))
		if p < minP {
			minP = p
		}
	}
	return minP
}
