// Package importer loads vocabulary from Excel workbooks and CSV files
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/vocabdash/internal/apperr"
	"github.com/example/vocabdash/internal/metrics"
	"github.com/example/vocabdash/pkg/models"
	"github.com/xuri/excelize/v2"
)

// Format is the type of an import file
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// FormatFromName picks the format from a file extension
func FormatFromName(name string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", apperr.Validation("unsupported file type %q, use .xlsx or .csv", ext)
	}
}

// WordAdder is the part of the word store the importer writes through
type WordAdder interface {
	List(ctx context.Context) ([]models.Word, error)
	Add(ctx context.Context, fields models.WordFields) (*models.Word, error)
}

// Config defines the import configuration
type Config struct {
	FilePath          string
	SheetName         string // empty means the first sheet
	OriginalColumn    string
	TranslationColumn string
	LanguageColumn    string
	ExampleColumn     string // optional
	CategoryColumn    string // optional
	DifficultyColumn  string // optional
	DefaultLanguage   string // used when the language cell is empty
	StartRow          int    // 1-based; 2 skips a header row
}

// DefaultConfig returns the default import configuration
func DefaultConfig() Config {
	return Config{
		OriginalColumn:    "A",
		TranslationColumn: "B",
		LanguageColumn:    "C",
		ExampleColumn:     "D",
		CategoryColumn:    "E",
		DifficultyColumn:  "F",
		StartRow:          2,
	}
}

// Result holds the result of an import operation
type Result struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// ImportWords imports the file at cfg.FilePath
func ImportWords(ctx context.Context, store WordAdder, cfg Config) (*Result, error) {
	format, err := FormatFromName(cfg.FilePath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	return ImportReader(ctx, store, f, format, cfg)
}

// ImportReader imports words read from r. Rows failing validation are
// reported in Result.Errors; a store failure aborts the import.
func ImportReader(ctx context.Context, store WordAdder, r io.Reader, format Format, cfg Config) (*Result, error) {
	cols, err := resolveColumns(cfg)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch format {
	case FormatXLSX:
		rows, err = readExcel(r, cfg.SheetName)
	case FormatCSV:
		rows, err = readCSV(r)
	default:
		err = apperr.Validation("unsupported import format %q", format)
	}
	if err != nil {
		return nil, err
	}

	existing, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(existing))
	for _, w := range existing {
		seen[dedupeKey(w.Original, w.Language)] = true
	}

	start := cfg.StartRow
	if start < 1 {
		start = 1
	}

	result := &Result{Errors: make([]string, 0)}
	defer func() { metrics.WordsImportedTotal.Add(float64(result.Created)) }()

	for i := start - 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		rowNum := i + 1
		result.TotalProcessed++

		fields, err := cols.fields(row, cfg.DefaultLanguage)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", rowNum, apperr.UserMessage(err)))
			continue
		}

		key := dedupeKey(fields.Original, fields.Language)
		if seen[key] {
			result.Skipped++
			continue
		}

		if _, err := store.Add(ctx, fields); err != nil {
			if errors.Is(err, apperr.ErrValidation) {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", rowNum, apperr.UserMessage(err)))
				continue
			}
			return result, fmt.Errorf("import aborted at row %d: %w", rowNum, err)
		}
		seen[key] = true
		result.Created++
	}

	return result, nil
}

func readExcel(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.Validation("failed to open Excel file: %v", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperr.Validation("failed to read sheet %q: %v", sheet, err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperr.Validation("error reading CSV: %v", err)
	}
	return rows, nil
}

type columns struct {
	original, translation, language int
	example, category, difficulty   int // -1 when not mapped
}

func resolveColumns(cfg Config) (columns, error) {
	var cols columns
	required := []struct {
		name string
		dst  *int
	}{
		{cfg.OriginalColumn, &cols.original},
		{cfg.TranslationColumn, &cols.translation},
		{cfg.LanguageColumn, &cols.language},
	}
	for _, c := range required {
		idx, err := columnIndex(c.name)
		if err != nil {
			return cols, err
		}
		if idx < 0 {
			return cols, apperr.Validation("original, translation and language columns are required")
		}
		*c.dst = idx
	}

	optional := []struct {
		name string
		dst  *int
	}{
		{cfg.ExampleColumn, &cols.example},
		{cfg.CategoryColumn, &cols.category},
		{cfg.DifficultyColumn, &cols.difficulty},
	}
	for _, c := range optional {
		idx, err := columnIndex(c.name)
		if err != nil {
			return cols, err
		}
		*c.dst = idx
	}
	return cols, nil
}

// columnIndex converts an Excel column name to a 0-based index, -1 for ""
func columnIndex(name string) (int, error) {
	if strings.TrimSpace(name) == "" {
		return -1, nil
	}
	n, err := excelize.ColumnNameToNumber(strings.TrimSpace(name))
	if err != nil {
		return 0, apperr.Validation("invalid column %q", name)
	}
	return n - 1, nil
}

func (c columns) fields(row []string, defaultLanguage string) (models.WordFields, error) {
	difficulty, err := models.ParseDifficulty(cell(row, c.difficulty))
	if err != nil {
		return models.WordFields{}, apperr.Validation("%v", err)
	}

	language := cell(row, c.language)
	if language == "" {
		language = strings.TrimSpace(defaultLanguage)
	}

	return models.WordFields{
		Original:    cell(row, c.original),
		Translation: cell(row, c.translation),
		Language:    language,
		Example:     cell(row, c.example),
		Category:    cell(row, c.category),
		Difficulty:  difficulty,
	}, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func dedupeKey(original, language string) string {
	return strings.ToLower(strings.TrimSpace(original)) + "\x00" + strings.ToLower(strings.TrimSpace(language))
}
