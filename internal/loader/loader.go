// Package loader reads and validates the three analysis input files: the
// counts matrix, the guide library, and the experiment metadata.
package loader

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/screenlab/guidepost/internal/contract"
	"github.com/screenlab/guidepost/schema"
)

// guideColumnNames are the accepted header names for the guide ID column.
var guideColumnNames = map[string]struct{}{
	"guide_id": {},
	"sgrna":    {},
	"guide":    {},
}

// LoadCountsMatrix reads a delimited counts file. The first column is the
// guide identifier; every remaining column is a sample of integer counts.
// Tab or comma delimiters are detected from the header line.
func LoadCountsMatrix(path string) (*schema.CountsMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, contract.WrapDataContractError(err, "cannot open counts file %q", path)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.Comma = detectDelimiter(path)
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, contract.WrapDataContractError(err, "malformed counts file %q", path)
	}
	if len(rows) < 2 {
		return nil, contract.NewDataContractError("counts file %q has no data rows", path)
	}

	header := rows[0]
	if len(header) < 2 {
		return nil, contract.NewDataContractError("counts file %q needs a guide column and at least one sample column", path)
	}
	if _, ok := guideColumnNames[strings.ToLower(header[0])]; !ok {
		return nil, contract.NewDataContractError("counts file %q must start with a guide_id column, got %q", path, header[0])
	}

	columns := header[1:]
	guides := make([]string, 0, len(rows)-1)
	values := make([][]int64, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, contract.NewDataContractError("counts row %d has %d fields, expected %d", i+2, len(row), len(header))
		}
		guides = append(guides, row[0])
		counts := make([]int64, len(columns))
		for j, field := range row[1:] {
			v, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
			if err != nil {
				return nil, contract.NewDataContractError("counts row %d column %q: %q is not an integer", i+2, columns[j], field)
			}
			if v < 0 {
				return nil, contract.NewDataContractError("counts row %d column %q: negative count %d", i+2, columns[j], v)
			}
			counts[j] = v
		}
		values = append(values, counts)
	}

	matrix, err := schema.NewCountsMatrix(guides, columns, values)
	if err != nil {
		return nil, contract.WrapDataContractError(err, "invalid counts file %q", path)
	}
	return matrix, nil
}

// LoadLibrary reads a delimited guide library file with columns
// guide_id, gene_symbol and an optional weight.
func LoadLibrary(path string) (*schema.LibraryMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, contract.WrapDataContractError(err, "cannot open library file %q", path)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.Comma = detectDelimiter(path)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, contract.WrapDataContractError(err, "malformed library file %q", path)
	}
	if len(rows) < 2 {
		return nil, contract.NewDataContractError("library file %q has no data rows", path)
	}

	entries := make([]schema.LibraryEntry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < 2 {
			return nil, contract.NewDataContractError("library row %d needs guide_id and gene_symbol", i+2)
		}
		entry := schema.LibraryEntry{
			GuideID:    strings.TrimSpace(row[0]),
			GeneSymbol: strings.TrimSpace(row[1]),
			Weight:     1.0,
		}
		if len(row) > 2 && strings.TrimSpace(row[2]) != "" {
			w, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
			if err != nil {
				return nil, contract.NewDataContractError("library row %d: weight %q is not a number", i+2, row[2])
			}
			entry.Weight = w
		}
		entries = append(entries, entry)
	}

	library, err := schema.NewLibraryMap(entries)
	if err != nil {
		return nil, contract.WrapDataContractError(err, "invalid library file %q", path)
	}
	return library, nil
}

// LoadExperimentConfig reads the experiment metadata JSON. Omitted analysis
// options fall back to the documented defaults.
func LoadExperimentConfig(path string) (*schema.ExperimentConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, contract.WrapDataContractError(err, "cannot open metadata file %q", path)
	}
	defer func() { _ = f.Close() }()

	cfg := &schema.ExperimentConfig{Analysis: schema.DefaultAnalysisOptions()}
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, contract.WrapDataContractError(err, "malformed metadata file %q", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, contract.WrapDataContractError(err, "invalid metadata file %q", path)
	}
	return cfg, nil
}

// detectDelimiter picks tab for .tsv and .txt files, comma otherwise.
func detectDelimiter(path string) rune {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".txt":
		return '\t'
	default:
		return ','
	}
}

// Describe summarizes the inputs for validation output.
func Describe(counts *schema.CountsMatrix, library *schema.LibraryMap, cfg *schema.ExperimentConfig) string {
	return fmt.Sprintf("%d guides x %d samples, %d library entries, %d genes, screen type %s",
		counts.NumGuides(), len(counts.Columns), library.Len(), len(library.Genes()), cfg.ScreenType)
}
