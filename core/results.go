package core

import (
	"github.com/screenlab/guidepost/core/algo"
	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/schema"
)

// AssembleResult converts a backend gene table into enriched gene results and
// computes the run summary. The significant-gene count is decided here, after
// the FDR threshold is applied, and is authoritative for the whole run.
func AssembleResult(table *schema.GeneTable, records []schema.GuideRecord, cfg *schema.ExperimentConfig) ([]schema.GeneResult, int, error) {
	if table == nil || len(table.Rows) == 0 {
		return nil, 0, contract.NewDataContractError("gene table is empty; nothing to assemble")
	}

	byGene := make(map[string][]schema.GuideRecord, len(table.Rows))
	for _, rec := range records {
		byGene[rec.GeneSymbol] = append(byGene[rec.GeneSymbol], rec)
	}

	threshold := cfg.Analysis.FDRThreshold
	results := make([]schema.GeneResult, 0, len(table.Rows))
	significant := 0
	for _, row := range table.Rows {
		guides := byGene[row.Gene]
		sig := row.FDR <= threshold
		if sig {
			significant++
		}
		results = append(results, schema.GeneResult{
			GeneSymbol:     row.Gene,
			Score:          row.Score,
			Log2FoldChange: row.MeanLog2FC,
			MedianLog2FC:   row.MedianLog2FC,
			VarLog2FC:      row.VarLog2FC,
			PValue:         row.PValue,
			FDR:            row.FDR,
			Rank:           row.Rank,
			NGuides:        row.NGuides,
			Guides:         guides,
			IsSignificant:  sig,
		})
	}
	return results, significant, nil
}

// ComputeConditionStats summarizes raw library sizes per condition. Columns
// are grouped by the condition label of their sample; conditions keep their
// first-seen order from the experiment config.
func ComputeConditionStats(counts *schema.CountsMatrix, cfg *schema.ExperimentConfig) []schema.ConditionStat {
	type bucket struct {
		condition string
		sizes     []float64
	}
	var order []string
	buckets := make(map[string]*bucket)
	for _, s := range cfg.Samples {
		if !counts.HasColumn(s.ColumnName) {
			continue
		}
		col, _ := counts.Column(s.ColumnName)
		var sum float64
		for _, v := range col {
			sum += float64(v)
		}
		b, ok := buckets[s.Condition]
		if !ok {
			b = &bucket{condition: s.Condition}
			buckets[s.Condition] = b
			order = append(order, s.Condition)
		}
		b.sizes = append(b.sizes, sum)
	}

	stats := make([]schema.ConditionStat, 0, len(order))
	for _, name := range order {
		b := buckets[name]
		min, max := b.sizes[0], b.sizes[0]
		var sum float64
		for _, v := range b.sizes {
			sum += v
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		stats = append(stats, schema.ConditionStat{
			Condition: name,
			Mean:      sum / float64(len(b.sizes)),
			Median:    algo.Median(b.sizes),
			Min:       min,
			Max:       max,
		})
	}
	return stats
}
