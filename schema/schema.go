// Package schema has configs, models and shared constants for all parts of guidepost.
package schema

import (
	"fmt"
	"sort"
)

// CountsMatrix is a guide-indexed matrix of raw read counts with one column
// per sequenced sample. Guide identifiers and column names are unique.
type CountsMatrix struct {
	Guides  []string  // Row labels, one per sgRNA
	Columns []string  // Sample column names, in file order
	Values  [][]int64 // Values[i][j] is the count for Guides[i] in Columns[j]

	guideIndex  map[string]int
	columnIndex map[string]int
}

// NewCountsMatrix validates and indexes a counts matrix.
// It rejects empty matrices, duplicate guides or columns, ragged rows and
// negative counts.
func NewCountsMatrix(guides, columns []string, values [][]int64) (*CountsMatrix, error) {
	if len(guides) == 0 || len(columns) == 0 {
		return nil, fmt.Errorf("counts matrix must have at least one guide and one sample column")
	}
	if len(values) != len(guides) {
		return nil, fmt.Errorf("counts matrix has %d rows for %d guides", len(values), len(guides))
	}

	guideIndex := make(map[string]int, len(guides))
	for i, g := range guides {
		if _, dup := guideIndex[g]; dup {
			return nil, fmt.Errorf("duplicate guide_id %q in counts matrix", g)
		}
		guideIndex[g] = i
	}

	columnIndex := make(map[string]int, len(columns))
	for j, c := range columns {
		if _, dup := columnIndex[c]; dup {
			return nil, fmt.Errorf("duplicate sample column %q in counts matrix", c)
		}
		columnIndex[c] = j
	}

	for i, row := range values {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("counts row for guide %q has %d values, expected %d", guides[i], len(row), len(columns))
		}
		for j, v := range row {
			if v < 0 {
				return nil, fmt.Errorf("negative count %d for guide %q in column %q", v, guides[i], columns[j])
			}
		}
	}

	return &CountsMatrix{
		Guides:      guides,
		Columns:     columns,
		Values:      values,
		guideIndex:  guideIndex,
		columnIndex: columnIndex,
	}, nil
}

// NumGuides returns the number of guide rows.
func (m *CountsMatrix) NumGuides() int { return len(m.Guides) }

// HasColumn reports whether the named sample column exists.
func (m *CountsMatrix) HasColumn(name string) bool {
	_, ok := m.columnIndex[name]
	return ok
}

// Column returns the counts for one named sample column in guide order.
func (m *CountsMatrix) Column(name string) ([]int64, bool) {
	j, ok := m.columnIndex[name]
	if !ok {
		return nil, false
	}
	out := make([]int64, len(m.Guides))
	for i := range m.Values {
		out[i] = m.Values[i][j]
	}
	return out, true
}

// HasGuide reports whether the guide exists in the matrix.
func (m *CountsMatrix) HasGuide(guideID string) bool {
	_, ok := m.guideIndex[guideID]
	return ok
}

// FloatMatrix mirrors CountsMatrix for derived floating-point values such as
// CPM-normalized counts.
type FloatMatrix struct {
	Guides  []string
	Columns []string
	Values  [][]float64

	columnIndex map[string]int
}

// NewFloatMatrix builds an indexed float matrix. The caller guarantees the
// guide and column labels came from an already-validated CountsMatrix.
func NewFloatMatrix(guides, columns []string, values [][]float64) *FloatMatrix {
	columnIndex := make(map[string]int, len(columns))
	for j, c := range columns {
		columnIndex[c] = j
	}
	return &FloatMatrix{Guides: guides, Columns: columns, Values: values, columnIndex: columnIndex}
}

// ColumnIndex returns the position of the named column.
func (m *FloatMatrix) ColumnIndex(name string) (int, bool) {
	j, ok := m.columnIndex[name]
	return j, ok
}

// LibraryEntry maps a single guide to its gene with an optional weight.
type LibraryEntry struct {
	GuideID    string
	GeneSymbol string
	Weight     float64
}

// LibraryMap is the guide-to-gene mapping for a screen library.
// Guide identifiers are unique; weights default to 1.0 and are clipped at 0.
type LibraryMap struct {
	Entries []LibraryEntry

	byGuide map[string]int
}

// NewLibraryMap validates and indexes library entries.
func NewLibraryMap(entries []LibraryEntry) (*LibraryMap, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("library must contain at least one guide")
	}
	byGuide := make(map[string]int, len(entries))
	for i := range entries {
		e := &entries[i]
		if e.GuideID == "" || e.GeneSymbol == "" {
			return nil, fmt.Errorf("library entry %d is missing guide_id or gene_symbol", i)
		}
		if _, dup := byGuide[e.GuideID]; dup {
			return nil, fmt.Errorf("duplicate guide_id %q in library", e.GuideID)
		}
		if e.Weight < 0 {
			e.Weight = 0
		}
		byGuide[e.GuideID] = i
	}
	return &LibraryMap{Entries: entries, byGuide: byGuide}, nil
}

// Lookup returns the library entry for a guide.
func (l *LibraryMap) Lookup(guideID string) (LibraryEntry, bool) {
	i, ok := l.byGuide[guideID]
	if !ok {
		return LibraryEntry{}, false
	}
	return l.Entries[i], true
}

// Len returns the number of guides in the library.
func (l *LibraryMap) Len() int { return len(l.Entries) }

// Genes returns the distinct gene symbols in the library, sorted.
func (l *LibraryMap) Genes() []string {
	seen := make(map[string]struct{})
	for _, e := range l.Entries {
		seen[e.GeneSymbol] = struct{}{}
	}
	genes := make([]string, 0, len(seen))
	for g := range seen {
		genes = append(genes, g)
	}
	sort.Strings(genes)
	return genes
}
