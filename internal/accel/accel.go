// Package accel provides the accelerated in-process scorer. It produces the
// same gene table as the pure implementation but fans the per-gene scoring
// out across a worker pool.
package accel

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/screenlab/guidepost/core/algo"
	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/schema"
)

// Scorer scores genes concurrently. Zero workers selects GOMAXPROCS.
type Scorer struct {
	Workers  int
	Disabled bool
}

var _ contract.NativeScorer = &Scorer{} // Compile-time check

// NewScorer creates a scorer with the given pool size.
func NewScorer(workers int) *Scorer {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Scorer{Workers: workers}
}

// IsAvailable reports whether the accelerated path can run.
func (s *Scorer) IsAvailable() bool {
	return !s.Disabled && s.Workers > 0
}

// geneTask is one gene's rank vector plus descriptive inputs.
type geneTask struct {
	index   int
	gene    string
	ranks   []float64
	log2fcs []float64
	weights []float64
}

// Score aggregates guide records into a gene table. The ordering, p-values
// and FDR values are identical to the pure scorer's output; only the
// per-gene computation is parallel.
func (s *Scorer) Score(ctx context.Context, records []schema.GuideRecord, minGuides int, higherIsBetter bool) (*schema.GeneTable, contract.BackendOutcome) {
	if len(records) == 0 {
		err := contract.NewDataContractError("no guide records available for RRA computation")
		return nil, contract.OutcomeFromError(err)
	}
	if minGuides < 1 {
		minGuides = 1
	}

	values := make([]float64, len(records))
	for i, rec := range records {
		values[i] = rec.Log2FoldChange
	}
	ranks := algo.AverageRanks(values, higherIsBetter)
	totalGuides := len(records)

	// Group guides by gene, preserving first-seen gene order.
	grouped := make(map[string]*geneTask)
	var tasks []*geneTask
	for i, rec := range records {
		t, ok := grouped[rec.GeneSymbol]
		if !ok {
			t = &geneTask{gene: rec.GeneSymbol}
			grouped[rec.GeneSymbol] = t
			tasks = append(tasks, t)
		}
		t.ranks = append(t.ranks, ranks[i])
		t.log2fcs = append(t.log2fcs, rec.Log2FoldChange)
		t.weights = append(t.weights, rec.Weight)
	}

	scorable := tasks[:0]
	for _, t := range tasks {
		if len(t.ranks) >= minGuides {
			t.index = len(scorable)
			scorable = append(scorable, t)
		}
	}
	if len(scorable) == 0 {
		err := contract.NewDataContractError("no genes met the minimum guide requirement for RRA")
		return nil, contract.OutcomeFromError(err)
	}

	rows := make([]schema.GeneRow, len(scorable))
	taskCh := make(chan *geneTask)
	var wg sync.WaitGroup
	wg.Add(s.Workers)
	for range s.Workers {
		go func() {
			defer wg.Done()
			for t := range taskCh {
				pValue := algo.GenePValue(t.ranks, totalGuides)
				score := math.Inf(1)
				if pValue > 0 {
					score = -math.Log10(pValue)
				}
				rows[t.index] = schema.GeneRow{
					Gene:         t.gene,
					Score:        score,
					PValue:       pValue,
					NGuides:      len(t.ranks),
					MeanLog2FC:   algo.WeightedMean(t.log2fcs, t.weights),
					MedianLog2FC: algo.Median(t.log2fcs),
					VarLog2FC:    algo.PopulationVariance(t.log2fcs),
				}
			}
		}()
	}

	canceled := false
feed:
	for _, t := range scorable {
		select {
		case <-ctx.Done():
			canceled = true
			break feed
		case taskCh <- t:
		}
	}
	close(taskCh)
	wg.Wait()
	if canceled {
		return nil, contract.BackendOutcome{
			Kind:   contract.OutcomeExecutionFailed,
			Detail: ctx.Err().Error(),
			Err:    ctx.Err(),
		}
	}

	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].PValue < rows[b].PValue
	})
	pvalues := make([]float64, len(rows))
	for i, row := range rows {
		pvalues[i] = row.PValue
	}
	fdr, err := algo.BenjaminiHochberg(pvalues)
	if err != nil {
		return nil, contract.OutcomeFromError(err)
	}
	for i := range rows {
		rows[i].FDR = fdr[i]
		rows[i].Rank = i + 1
	}

	return &schema.GeneTable{Backend: schema.AcceleratedBackend, Rows: rows}, contract.OutcomeSuccess()
}
