// Package ingest loads relationship tables and indicator catalogs from files.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TFMV/liquiditymap/catalog"
	"github.com/TFMV/liquiditymap/graph"
	"github.com/TFMV/liquiditymap/models"
)

// ErrUnknownFormat is returned for a file format with no loader
var ErrUnknownFormat = errors.New("unsupported format")

// TableLoader defines the interface that all relationship table loaders implement
type TableLoader interface {
	// Load parses raw bytes into a relationship table
	Load(data []byte) (graph.Table, error)

	// GetName returns the name of the loader
	GetName() string
}

// JSONLoader reads `{"version": ..., "relationships": [...]}` or a bare array
type JSONLoader struct{}

// GetName returns the name of the loader
func (l *JSONLoader) GetName() string {
	return "JSON Loader"
}

// Load parses JSON table data
func (l *JSONLoader) Load(data []byte) (graph.Table, error) {
	var table graph.Table
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &table.Entries); err != nil {
			return graph.Table{}, fmt.Errorf("error parsing JSON: %w", err)
		}
	} else if err := json.Unmarshal(trimmed, &table); err != nil {
		return graph.Table{}, fmt.Errorf("error parsing JSON: %w", err)
	}
	return checkEntries(table)
}

// YAMLLoader reads a table with `version` and `relationships` keys
type YAMLLoader struct{}

// GetName returns the name of the loader
func (l *YAMLLoader) GetName() string {
	return "YAML Loader"
}

// Load parses YAML table data
func (l *YAMLLoader) Load(data []byte) (graph.Table, error) {
	var table graph.Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return graph.Table{}, fmt.Errorf("error parsing YAML: %w", err)
	}
	return checkEntries(table)
}

// CSVLoader reads one relationship per row. The header must name the source and
// target columns; the strength column is optional and defaults to 0.5.
type CSVLoader struct{}

// GetName returns the name of the loader
func (l *CSVLoader) GetName() string {
	return "CSV Loader"
}

// DefaultCSVStrength applies to rows without a strength column
const DefaultCSVStrength = 0.5

// Load parses CSV table data
func (l *CSVLoader) Load(data []byte) (graph.Table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	header, err := reader.Read()
	if err != nil {
		return graph.Table{}, fmt.Errorf("error reading CSV header: %w", err)
	}

	sourceIdx, targetIdx, strengthIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "source", "from", "src":
			sourceIdx = i
		case "target", "to", "dst":
			targetIdx = i
		case "strength", "weight", "value":
			strengthIdx = i
		}
	}
	if sourceIdx == -1 || targetIdx == -1 {
		return graph.Table{}, fmt.Errorf("CSV must contain source and target columns")
	}

	var table graph.Table
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return graph.Table{}, fmt.Errorf("error reading CSV row %d: %w", line, err)
		}

		rel := models.Relationship{
			SourceCode: strings.TrimSpace(row[sourceIdx]),
			TargetCode: strings.TrimSpace(row[targetIdx]),
			Strength:   DefaultCSVStrength,
		}
		if strengthIdx >= 0 && strings.TrimSpace(row[strengthIdx]) != "" {
			rel.Strength, err = strconv.ParseFloat(strings.TrimSpace(row[strengthIdx]), 64)
			if err != nil {
				return graph.Table{}, fmt.Errorf("row %d: invalid strength %q: %w", line, row[strengthIdx], err)
			}
		}
		table.Entries = append(table.Entries, rel)
	}
	return checkEntries(table)
}

// TextLoader reads arrow lines such as `TGA -> ON RRP : 0.8`. Blank lines and lines
// starting with # are skipped; a `# version: x` line sets the table version.
type TextLoader struct{}

// GetName returns the name of the loader
func (l *TextLoader) GetName() string {
	return "Text Loader"
}

// Load parses arrow-notation table data
func (l *TextLoader) Load(data []byte) (graph.Table, error) {
	var table graph.Table
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			if v, ok := strings.CutPrefix(strings.TrimSpace(strings.TrimPrefix(text, "#")), "version:"); ok {
				table.Version = strings.TrimSpace(v)
			}
			continue
		}

		source, rest, ok := strings.Cut(text, "->")
		if !ok {
			return graph.Table{}, fmt.Errorf("line %d: expected 'source -> target'", line)
		}
		rel := models.Relationship{SourceCode: strings.TrimSpace(source), Strength: DefaultCSVStrength}
		target, strength, hasStrength := strings.Cut(rest, ":")
		rel.TargetCode = strings.TrimSpace(target)
		if hasStrength {
			v, err := strconv.ParseFloat(strings.TrimSpace(strength), 64)
			if err != nil {
				return graph.Table{}, fmt.Errorf("line %d: invalid strength %q: %w", line, strength, err)
			}
			rel.Strength = v
		}
		table.Entries = append(table.Entries, rel)
	}
	if err := scanner.Err(); err != nil {
		return graph.Table{}, fmt.Errorf("error reading text table: %w", err)
	}
	return checkEntries(table)
}

func checkEntries(table graph.Table) (graph.Table, error) {
	for i, entry := range table.Entries {
		if err := entry.Validate(); err != nil {
			return graph.Table{}, fmt.Errorf("entry %d: %w", i+1, err)
		}
	}
	return table, nil
}

// GetLoader returns the appropriate loader for the given format
func GetLoader(format string) (TableLoader, error) {
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "json":
		return &JSONLoader{}, nil
	case "yaml", "yml":
		return &YAMLLoader{}, nil
	case "csv":
		return &CSVLoader{}, nil
	case "txt", "text":
		return &TextLoader{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// LoadTableFile reads a relationship table, choosing the loader by file extension.
// A table without a version is named after the file.
func LoadTableFile(path string) (graph.Table, error) {
	loader, err := GetLoader(filepath.Ext(path))
	if err != nil {
		return graph.Table{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return graph.Table{}, fmt.Errorf("failed to read file: %w", err)
	}
	table, err := loader.Load(data)
	if err != nil {
		return graph.Table{}, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if table.Version == "" {
		table.Version = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return table, nil
}

// LoadCatalog parses a JSON or YAML catalog and validates every indicator. Group
// tags are taken from the section each indicator is listed under.
func LoadCatalog(data []byte, format string) (*catalog.Catalog, error) {
	c := &catalog.Catalog{}
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "json":
		if err := json.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("error parsing JSON: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("error parsing YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	tag(c.Onshore, models.GroupOnshore)
	tag(c.Offshore, models.GroupOffshore)
	tag(c.Fed, models.GroupFed)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return c, nil
}

func tag(inds []models.Indicator, group models.Group) {
	for i := range inds {
		inds[i].Group = group
		if inds[i].Value == "" && inds[i].Numeric != nil {
			inds[i].Value = strconv.FormatFloat(*inds[i].Numeric, 'f', -1, 64)
		}
	}
}

// LoadCatalogFile reads a catalog file, choosing the format by extension
func LoadCatalogFile(path string) (*catalog.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	c, err := LoadCatalog(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return c, nil
}
