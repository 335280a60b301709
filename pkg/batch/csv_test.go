package batch

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/coverkit/pkg/errors"
	"github.com/matzehuels/coverkit/pkg/template"
)

func TestCleanColumn(t *testing.T) {
	tests := map[string]string{
		"template_key":                         "template_key",
		"  output_name ":                       "output_name",
		"\ufefftemplate_key":                   "template_key",
		"\u200b\u2060text.title":               "text.title",
		"\ufeff\u200d slot.shot  ":             " slot.shot",
		"\u200b\u200c\u200d\u2060 output_name": " output_name",
	}
	for in, want := range tests {
		if got := CleanColumn(in); got != want {
			t.Errorf("CleanColumn(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateHeader(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   HeaderReport
	}{
		{
			name:   "valid",
			header: []string{"template_key", "output_name", "background_path", "text.title", "text.title.color", "slot.shot"},
		},
		{
			name:   "bom and case",
			header: []string{"\ufeffTemplate_Key", "OUTPUT_NAME"},
		},
		{
			name:   "missing",
			header: []string{"text.title"},
			want:   HeaderReport{Missing: []string{"template_key", "output_name"}},
		},
		{
			name:   "legacy and unknown",
			header: []string{"template_key", "output_name", "Title", "screenshots", "notes", "extra"},
			want: HeaderReport{
				Legacy:  []string{"screenshots", "title"},
				Unknown: []string{"extra", "notes"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateHeader(tt.header)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ValidateHeader = %+v, want %+v", got, tt.want)
			}
			if got.OK() != tt.want.OK() {
				t.Errorf("OK = %v", got.OK())
			}
		})
	}
}

func TestHeaderReportString(t *testing.T) {
	r := HeaderReport{Missing: []string{"output_name"}, Unknown: []string{"notes"}}
	want := "missing required columns: output_name; unknown columns: notes"
	if got := r.String(); got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
	if (HeaderReport{}).String() != "OK" {
		t.Error("empty report should be OK")
	}
}

func TestRead(t *testing.T) {
	data := "\ufefftemplate_key,output_name,text.title\n" +
		"default,a.png,Hello\n" +
		",,\n" +
		"default,b.png\n" +
		"default,c.png,Hi,extra\n"

	table, err := Read(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(table.Header, []string{"template_key", "output_name", "text.title"}) {
		t.Errorf("header = %q", table.Header)
	}
	if len(table.Rows) != 3 {
		t.Fatalf("rows = %d, want 3 (blank row skipped)", len(table.Rows))
	}
	if table.Rows[1].Line != 3 {
		t.Errorf("line = %d, want 3", table.Rows[1].Line)
	}
	if v := table.Rows[1].Values["text.title"]; v != "" {
		t.Errorf("short row text.title = %q, want empty", v)
	}
	if v := table.Rows[2].Values["text.title"]; v != "Hi" {
		t.Errorf("long row text.title = %q", v)
	}
}

func TestReadEmpty(t *testing.T) {
	if _, err := Read(strings.NewReader("")); !errors.Is(err, errors.ErrCodeInvalidCSV) {
		t.Errorf("err = %v, want INVALID_CSV", err)
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestRowToInput(t *testing.T) {
	row := Row{Line: 1, Values: map[string]string{
		"Template_Key":        " default ",
		"output_name":         "cover.png",
		"background_path":     "",
		"text.title":          "  Hello  ",
		"text.title.color":    "#ff0000",
		"text.subtitle":       "",
		"text.subtitle.COLOR": "",
		"slot.screenshot-1":   "shots/1.png",
		"slot.qr":             "qr:https://example.com",
	}}
	in, err := RowToInput(row)
	if err != nil {
		t.Fatalf("RowToInput: %v", err)
	}
	want := template.RenderInput{
		TemplateKey: "default",
		OutputName:  "cover.png",
		Texts:       map[string]string{"title": "Hello", "subtitle": ""},
		TextColors:  map[string]string{"title": "#ff0000"},
		SlotPaths:   map[string]string{"screenshot-1": "shots/1.png", "qr": "qr:https://example.com"},
	}
	if !reflect.DeepEqual(in, want) {
		t.Errorf("RowToInput =\n%+v\nwant\n%+v", in, want)
	}
}

func TestRowToInputErrors(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		msg    string
	}{
		{"empty template", map[string]string{"template_key": " ", "output_name": "a.png"}, "template_key"},
		{"no output column", map[string]string{"template_key": "default"}, "output_name"},
		{"legacy", map[string]string{"template_key": "default", "output_name": "a.png", "title": "x"}, "legacy"},
		{"unknown", map[string]string{"template_key": "default", "output_name": "a.png", "notes": "x"}, "unsupported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RowToInput(Row{Line: 7, Values: tt.values})
			if !errors.Is(err, errors.ErrCodeInvalidCSV) {
				t.Fatalf("err = %v, want INVALID_CSV", err)
			}
			if !strings.Contains(err.Error(), tt.msg) || !strings.Contains(err.Error(), "row 7") {
				t.Errorf("err = %v, want mention of %q and row 7", err, tt.msg)
			}
		})
	}
}

func TestHeaderFor(t *testing.T) {
	want := []string{
		"template_key", "output_name", "background_path",
		"text.title", "text.title.color",
		"text.subtitle", "text.subtitle.color",
		"slot.screenshot-1",
	}
	if got := HeaderFor(template.Default()); !reflect.DeepEqual(got, want) {
		t.Errorf("HeaderFor = %q", got)
	}

	var buf bytes.Buffer
	if err := WriteHeader(&buf, template.Default()); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != strings.Join(want, ",")+"\n" {
		t.Errorf("WriteHeader = %q", got)
	}
}

func TestExportedHeaderRoundTrips(t *testing.T) {
	def := template.Default()
	path := filepath.Join(t.TempDir(), "batch.csv")
	var buf bytes.Buffer
	if err := WriteHeader(&buf, def); err != nil {
		t.Fatal(err)
	}
	buf.WriteString("default,out.png,,Title,#123456,Sub,,shot.png\n")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if r := ValidateHeader(table.Header); !r.OK() {
		t.Fatalf("exported header invalid: %s", r)
	}
	in, err := RowToInput(table.Rows[0])
	if err != nil {
		t.Fatal(err)
	}
	if in.Texts["title"] != "Title" || in.TextColors["title"] != "#123456" || in.SlotPaths["screenshot-1"] != "shot.png" {
		t.Errorf("input = %+v", in)
	}
	if _, ok := in.TextColors["subtitle"]; ok {
		t.Error("empty color cell should not produce an override")
	}
}
