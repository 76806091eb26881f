package tables

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"pathexplorer/domain/core"
	"pathexplorer/domain/result"
	"pathexplorer/ports"

	"github.com/xuri/excelize/v2"
)

// DataReader loads result tables from CSV or Excel files into the common
// record schema.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"

	// defaultKind classifies records when the table has neither an
	// entity_type nor a recognizable database column.
	defaultKind result.SourceKind
}

// NewDataReader creates a reader that handles both Excel and CSV files.
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "csv"
	if ext == ".xlsx" || ext == ".xlsm" {
		fileType = "xlsx"
	}
	return &DataReader{filePath: filePath, fileType: fileType, defaultKind: result.KindPathway}
}

// NewDataReaderForKind creates a reader whose records default to the given
// source kind (used when loading legacy per-source tables).
func NewDataReaderForKind(filePath string, kind result.SourceKind) *DataReader {
	r := NewDataReader(filePath)
	r.defaultKind = kind
	return r
}

// Read loads every record in the table. Rows missing a required field are
// dropped and counted; unparseable numeric cells fail the whole load.
func (r *DataReader) Read() ([]*result.ResultRecord, *ports.LoadReport, error) {
	rows, err := r.rows()
	if err != nil {
		return nil, nil, err
	}
	return r.processRows(rows)
}

// Contrasts lists the distinct contrast names present in the table.
func (r *DataReader) Contrasts() ([]string, error) {
	rows, err := r.rows()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", core.ErrEmptyInput, r.filePath)
	}
	idx := columnIndex(rows[0])
	ci, ok := idx[colContrast]
	if !ok {
		return nil, nil
	}
	seen := map[string]bool{}
	for _, row := range rows[1:] {
		if ci < len(row) {
			if c := strings.TrimSpace(row[ci]); c != "" {
				seen[c] = true
			}
		}
	}
	contrasts := make([]string, 0, len(seen))
	for c := range seen {
		contrasts = append(contrasts, c)
	}
	sort.Strings(contrasts)
	return contrasts, nil
}

func (r *DataReader) rows() ([][]string, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("input file not found: %s", r.filePath)
	}
	switch r.fileType {
	case "xlsx":
		return r.readExcelRows()
	default:
		return r.readCSVRows()
	}
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	log.Printf("[TableLoader] Read %d rows from %s (sheet %s)", len(rows), r.filePath, sheet)
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // ragged rows handled during processing
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	log.Printf("[TableLoader] Read %d rows from %s", len(rows), r.filePath)
	return rows, nil
}

// processRows validates the header and converts data rows into records.
func (r *DataReader) processRows(rows [][]string) ([]*result.ResultRecord, *ports.LoadReport, error) {
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: %s has no header row", core.ErrEmptyInput, r.filePath)
	}

	idx := columnIndex(rows[0])
	for _, required := range requiredColumns {
		if _, ok := idx[required]; !ok {
			return nil, nil, core.NewColumnMissingError(required, r.filePath)
		}
	}
	_, unified := idx[colKind]

	report := &ports.LoadReport{
		File:      r.filePath,
		TotalRows: len(rows) - 1,
		Unified:   unified,
	}

	cell := func(row []string, canonical string) (string, bool) {
		i, ok := idx[canonical]
		if !ok || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	records := make([]*result.ResultRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		rowNum := n + 2 // 1-based, after header

		id, _ := cell(row, colID)
		name, _ := cell(row, colName)
		scoreStr, _ := cell(row, colScore)
		padjStr, _ := cell(row, colPadj)
		if id == "" || name == "" || scoreStr == "" || padjStr == "" {
			report.DroppedRows++
			continue
		}

		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			return nil, nil, core.NewNonNumericError(colScore, rowNum, scoreStr)
		}
		padj, err := strconv.ParseFloat(padjStr, 64)
		if err != nil {
			return nil, nil, core.NewNonNumericError(colPadj, rowNum, padjStr)
		}

		rec := &result.ResultRecord{
			ID:     id,
			Name:   name,
			Score:  score,
			Padj:   padj,
			PValue: padj,
		}
		if v, ok := cell(row, colPValue); ok && v != "" {
			p, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, nil, core.NewNonNumericError(colPValue, rowNum, v)
			}
			rec.PValue = p
		}
		if v, ok := cell(row, colDatabase); ok {
			rec.Database = ReclassifyDatabase(v, id)
		}
		if v, ok := cell(row, colContrast); ok {
			rec.Contrast = v
		}
		if v, ok := cell(row, colSetSize); ok && v != "" {
			if sz, err := strconv.Atoi(v); err == nil {
				rec.SetSize = sz
			}
		}
		if v, ok := cell(row, colLeading); ok && v != "" {
			if sz, err := strconv.Atoi(v); err == nil {
				rec.LeadingEdgeSize = sz
			}
		}
		if v, ok := cell(row, colDirection); ok {
			rec.Direction = v
		}
		if v, ok := cell(row, colGenes); ok {
			rec.Genes = ParseGeneSet(v)
		} else {
			rec.Genes = map[string]struct{}{}
		}
		if rec.LeadingEdgeSize == 0 {
			rec.LeadingEdgeSize = len(rec.Genes)
		}
		if rec.SetSize == 0 {
			rec.SetSize = len(rec.Genes)
		}

		rec.Kind = r.classify(row, idx, rec.Database)
		rec.DisplayName = CleanDisplayName(name)
		rec.Standardize()
		records = append(records, rec)
	}

	report.LoadedRows = len(records)
	log.Printf("[TableLoader] %s: loaded %d records, dropped %d rows missing required fields",
		filepath.Base(r.filePath), report.LoadedRows, report.DroppedRows)
	return records, report, nil
}

func (r *DataReader) classify(row []string, idx map[string]int, database string) result.SourceKind {
	if i, ok := idx[colKind]; ok && i < len(row) {
		if kind, err := result.ParseSourceKind(row[i]); err == nil {
			return kind
		}
	}
	if database != "" {
		return result.KindForDatabase(database)
	}
	return r.defaultKind
}

// LoadTables reads several per-source tables and concatenates their records,
// the legacy mode used before the upstream pipeline emitted a unified table.
// Each entry maps a file path onto the kind its records default to.
func LoadTables(paths map[string]result.SourceKind) ([]*result.ResultRecord, []*ports.LoadReport, error) {
	files := make([]string, 0, len(paths))
	for p := range paths {
		files = append(files, p)
	}
	sort.Strings(files)

	var records []*result.ResultRecord
	var reports []*ports.LoadReport
	for _, p := range files {
		recs, report, err := NewDataReaderForKind(p, paths[p]).Read()
		if err != nil {
			return nil, nil, fmt.Errorf("loading %s: %w", p, err)
		}
		records = append(records, recs...)
		reports = append(reports, report)
	}
	return records, reports, nil
}
