package core

import (
	"math"

	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/schema"
)

// DefaultPseudoCount is added to raw counts before normalization so zero
// counts never produce undefined ratios.
const DefaultPseudoCount = 1.0

// NormalizeCPM scales each sample column to counts-per-million after adding
// the pseudo-count. The zero column-sum check cannot trip with a positive
// pseudo-count but guards against misuse.
func NormalizeCPM(counts *schema.CountsMatrix, pseudoCount float64) (*schema.FloatMatrix, error) {
	if counts == nil || counts.NumGuides() == 0 {
		return nil, contract.NewDataContractError("counts matrix is empty; cannot normalize")
	}

	numGuides := len(counts.Guides)
	numCols := len(counts.Columns)

	columnSums := make([]float64, numCols)
	for i := 0; i < numGuides; i++ {
		for j := 0; j < numCols; j++ {
			columnSums[j] += float64(counts.Values[i][j]) + pseudoCount
		}
	}
	for j, sum := range columnSums {
		if sum == 0 {
			return nil, contract.NewDataContractError("zero total counts for sample %q; CPM undefined", counts.Columns[j])
		}
	}

	values := make([][]float64, numGuides)
	for i := 0; i < numGuides; i++ {
		row := make([]float64, numCols)
		for j := 0; j < numCols; j++ {
			row[j] = (float64(counts.Values[i][j]) + pseudoCount) / columnSums[j] * 1e6
		}
		values[i] = row
	}

	return schema.NewFloatMatrix(counts.Guides, counts.Columns, values), nil
}

// ComputeLog2FoldChange computes the per-guide log2 fold-change between the
// mean treatment and mean control CPM. For dropout screens the sign is
// flipped so depleted guides score positive and "larger = stronger hit" holds
// for both screen directions. The returned slice is aligned with cpm.Guides.
func ComputeLog2FoldChange(cpm *schema.FloatMatrix, cfg *schema.ExperimentConfig, pseudoCount float64) ([]float64, error) {
	controlCols := cfg.ControlColumns()
	treatmentCols := cfg.TreatmentColumns()
	if len(controlCols) == 0 || len(treatmentCols) == 0 {
		return nil, contract.NewDataContractError("both control and treatment samples are required for fold-change computation")
	}

	controlIdx, err := resolveColumns(cpm, controlCols)
	if err != nil {
		return nil, err
	}
	treatmentIdx, err := resolveColumns(cpm, treatmentCols)
	if err != nil {
		return nil, err
	}

	flip := cfg.ScreenType == schema.DropoutScreen
	log2fc := make([]float64, len(cpm.Guides))
	for i, row := range cpm.Values {
		control := rowMean(row, controlIdx)
		treatment := rowMean(row, treatmentIdx)
		value := math.Log2((treatment + pseudoCount) / (control + pseudoCount))
		if flip {
			value = -value
		}
		log2fc[i] = value
	}
	return log2fc, nil
}

// BuildGuideRecords joins per-guide fold-changes against the library mapping.
// Guides absent from the library are skipped; guide order follows the matrix.
func BuildGuideRecords(guides []string, log2fc []float64, library *schema.LibraryMap) []schema.GuideRecord {
	records := make([]schema.GuideRecord, 0, len(guides))
	for i, guideID := range guides {
		entry, ok := library.Lookup(guideID)
		if !ok {
			continue
		}
		records = append(records, schema.GuideRecord{
			GuideID:        guideID,
			GeneSymbol:     entry.GeneSymbol,
			Weight:         entry.Weight,
			Log2FoldChange: log2fc[i],
		})
	}
	return records
}

func resolveColumns(m *schema.FloatMatrix, names []string) ([]int, error) {
	idx := make([]int, 0, len(names))
	for _, name := range names {
		j, ok := m.ColumnIndex(name)
		if !ok {
			return nil, contract.NewDataContractError("normalized counts missing expected sample column %q", name)
		}
		idx = append(idx, j)
	}
	return idx, nil
}

func rowMean(row []float64, idx []int) float64 {
	var sum float64
	for _, j := range idx {
		sum += row[j]
	}
	return sum / float64(len(idx))
}
