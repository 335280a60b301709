// Package batch binds CSV rows to render inputs.
//
// A batch CSV has one row per cover. Columns are either reserved
// (template_key, output_name, background_path) or address a template element
// by key:
//
//	text.<key>        text content for a text block
//	text.<key>.color  hex color override for that block
//	slot.<key>        image path (or "qr:<text>") for a slot
//
// Header names are cleaned of surrounding whitespace and of the BOM and
// zero-width characters spreadsheet exports like to prepend, and are matched
// case-insensitively.
package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/matzehuels/coverkit/pkg/errors"
	"github.com/matzehuels/coverkit/pkg/template"
)

// Reserved columns and column prefixes.
const (
	ColTemplateKey    = "template_key"
	ColOutputName     = "output_name"
	ColBackgroundPath = "background_path"

	TextPrefix  = "text."
	SlotPrefix  = "slot."
	ColorSuffix = ".color"
)

// LegacyColumns are column names of the retired fixed-layout schema. They are
// rejected rather than silently ignored.
var LegacyColumns = []string{
	"background", "layout", "layout_key", "output", "screenshot",
	"screenshots", "subtitle", "template", "title",
}

var (
	reserved = []string{ColTemplateKey, ColOutputName, ColBackgroundPath}
	required = []string{ColTemplateKey, ColOutputName}
)

// CleanColumn trims whitespace and strips leading BOM (U+FEFF), zero-width
// space/joiners (U+200B, U+200C, U+200D) and word joiners (U+2060).
func CleanColumn(s string) string {
	return strings.TrimLeft(strings.TrimSpace(s), "\ufeff\u200b\u200c\u200d\u2060")
}

// Row is one data row. Values are keyed by the cleaned column name with its
// original case preserved.
type Row struct {
	Line   int // 1-based data row number, not counting the header
	Values map[string]string
}

// Get returns the value of column name, matched case-insensitively.
func (r Row) Get(name string) (string, bool) {
	if v, ok := r.Values[name]; ok {
		return v, true
	}
	for k, v := range r.Values {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Table is a parsed batch CSV.
type Table struct {
	Header []string // cleaned column names
	Rows   []Row
}

// Read parses a batch CSV. Rows may have fewer or more fields than the header;
// missing fields read as empty and extra fields are dropped.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidCSV, err, "read csv")
	}
	if len(records) < 1 {
		return nil, errors.New(errors.ErrCodeInvalidCSV, "csv has no header")
	}

	t := &Table{}
	for _, h := range records[0] {
		t.Header = append(t.Header, CleanColumn(h))
	}
	for i, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		row := Row{Line: i + 1, Values: make(map[string]string, len(t.Header))}
		for j, col := range t.Header {
			if col == "" {
				continue
			}
			if j < len(rec) {
				row.Values[col] = rec[j]
			} else {
				row.Values[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ReadFile parses the batch CSV at path.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	return Read(f)
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// HeaderReport lists problems with a CSV header. Column names are lowercased
// and sorted.
type HeaderReport struct {
	Missing []string
	Legacy  []string
	Unknown []string
}

// OK reports whether the header has no problems.
func (r HeaderReport) OK() bool {
	return len(r.Missing) == 0 && len(r.Legacy) == 0 && len(r.Unknown) == 0
}

func (r HeaderReport) String() string {
	if r.OK() {
		return "OK"
	}
	var parts []string
	if len(r.Missing) > 0 {
		parts = append(parts, "missing required columns: "+strings.Join(r.Missing, ", "))
	}
	if len(r.Legacy) > 0 {
		parts = append(parts, "legacy columns no longer supported: "+strings.Join(r.Legacy, ", "))
	}
	if len(r.Unknown) > 0 {
		parts = append(parts, "unknown columns: "+strings.Join(r.Unknown, ", "))
	}
	return strings.Join(parts, "; ")
}

// ValidateHeader checks header for missing required columns, legacy columns
// and columns that are neither reserved nor text./slot. prefixed.
func ValidateHeader(header []string) HeaderReport {
	cols := lowerColumns(header)
	var r HeaderReport
	for _, c := range required {
		if !slices.Contains(cols, c) {
			r.Missing = append(r.Missing, c)
		}
	}
	r.Legacy, r.Unknown = classify(cols)
	return r
}

// lowerColumns returns the distinct non-empty cleaned lowercase column names,
// sorted.
func lowerColumns(header []string) []string {
	var cols []string
	for _, h := range header {
		c := strings.ToLower(CleanColumn(h))
		if c != "" && !slices.Contains(cols, c) {
			cols = append(cols, c)
		}
	}
	slices.Sort(cols)
	return cols
}

func classify(cols []string) (legacy, unknown []string) {
	for _, c := range cols {
		switch {
		case slices.Contains(LegacyColumns, c):
			legacy = append(legacy, c)
		case slices.Contains(reserved, c),
			strings.HasPrefix(c, TextPrefix),
			strings.HasPrefix(c, SlotPrefix):
		default:
			unknown = append(unknown, c)
		}
	}
	return legacy, unknown
}

// RowToInput converts a row to a render input. Rows using legacy or unknown
// columns, or with an empty template_key or output_name cell, are rejected
// with an INVALID_CSV error. Cell values are trimmed.
func RowToInput(row Row) (template.RenderInput, error) {
	header := make([]string, 0, len(row.Values))
	for k := range row.Values {
		header = append(header, k)
	}
	legacy, unknown := classify(lowerColumns(header))
	if len(legacy) > 0 {
		return template.RenderInput{}, errors.New(errors.ErrCodeInvalidCSV,
			"row %d uses legacy columns %s; use template_key, output_name, background_path, text.<key>, slot.<key>",
			row.Line, strings.Join(legacy, ", "))
	}
	if len(unknown) > 0 {
		return template.RenderInput{}, errors.New(errors.ErrCodeInvalidCSV,
			"row %d has unsupported columns %s", row.Line, strings.Join(unknown, ", "))
	}

	in := template.RenderInput{
		Texts:      make(map[string]string),
		TextColors: make(map[string]string),
		SlotPaths:  make(map[string]string),
	}
	for col, raw := range row.Values {
		value := strings.TrimSpace(raw)
		low := strings.ToLower(col)
		switch {
		case strings.HasPrefix(low, TextPrefix):
			key := strings.TrimSpace(col[len(TextPrefix):])
			if base, ok := cutSuffixFold(key, ColorSuffix); ok {
				if base = strings.TrimSpace(base); base != "" && value != "" {
					in.TextColors[base] = value
				}
				continue
			}
			if key != "" {
				in.Texts[key] = value
			}
		case strings.HasPrefix(low, SlotPrefix):
			if key := strings.TrimSpace(col[len(SlotPrefix):]); key != "" {
				in.SlotPaths[key] = value
			}
		}
	}

	v, _ := row.Get(ColTemplateKey)
	if in.TemplateKey = strings.TrimSpace(v); in.TemplateKey == "" {
		return template.RenderInput{}, errors.New(errors.ErrCodeInvalidCSV,
			"row %d: missing template_key column or empty cell", row.Line)
	}
	v, _ = row.Get(ColOutputName)
	if in.OutputName = strings.TrimSpace(v); in.OutputName == "" {
		return template.RenderInput{}, errors.New(errors.ErrCodeInvalidCSV,
			"row %d: missing output_name column or empty cell", row.Line)
	}
	v, _ = row.Get(ColBackgroundPath)
	in.BackgroundPath = strings.TrimSpace(v)
	return in, nil
}

func cutSuffixFold(s, suffix string) (string, bool) {
	if len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix) {
		return s[:len(s)-len(suffix)], true
	}
	return s, false
}

// HeaderFor returns the CSV header for def: the reserved columns, then
// text.<key> and text.<key>.color per text block, then slot.<key> per slot,
// in template order.
func HeaderFor(def *template.Definition) []string {
	header := slices.Clone(reserved)
	for _, t := range def.Texts {
		header = append(header, TextPrefix+t.Key, TextPrefix+t.Key+ColorSuffix)
	}
	for _, s := range def.Slots {
		header = append(header, SlotPrefix+s.Key)
	}
	return header
}

// WriteHeader writes the CSV header line for def.
func WriteHeader(w io.Writer, def *template.Definition) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(HeaderFor(def)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	cw.Flush()
	return cw.Error()
}
