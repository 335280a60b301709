package template

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/coverkit/pkg/errors"
)

// Format is a template document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Default values applied while parsing.
const (
	DefaultWidth       = 1080
	DefaultHeight      = 1920
	DefaultTextHeight  = 200
	DefaultFontSize    = 42
	DefaultLineSpacing = 1.2
	DefaultTextColor   = "#000000"
	DefaultBackground  = "#ffffff"
)

// FormatFromPath picks a format from a file extension. Unknown extensions are
// treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes a template document. Malformed fields are coerced to defaults
// and reported as warnings; only an undecodable document is an error.
func Parse(data []byte, format Format) (*Definition, []Warning, error) {
	var raw any
	var err error
	if format == FormatYAML {
		err = yaml.Unmarshal(data, &raw)
	} else {
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidTemplate, err, "decode %s template", format)
	}
	m, ok := asMap(raw)
	if !ok {
		return nil, nil, errors.New(errors.ErrCodeInvalidTemplate, "template document must be an object")
	}
	def, warnings := ParseMap(m)
	return def, warnings, nil
}

// ParseMap builds a Definition from a loosely typed document. Numeric fields
// accept numbers or numeric strings.
func ParseMap(m map[string]any) (*Definition, []Warning) {
	p := &parser{}
	def := &Definition{}

	def.Key = firstString(m, "key", "id")
	if def.Key == "" {
		def.Key = "template"
	}
	def.Name = firstString(m, "name")
	if def.Name == "" {
		def.Name = def.Key
	}
	def.Description = firstString(m, "description")

	size := p.ints("size", m["size"], 2, []int{DefaultWidth, DefaultHeight})
	if size[0] <= 0 || size[1] <= 0 {
		p.warn("size", "width and height must be positive, using %dx%d", DefaultWidth, DefaultHeight)
		size = []int{DefaultWidth, DefaultHeight}
	}
	def.Width, def.Height = size[0], size[1]

	bg, _ := asMap(m["background"])
	def.Background = p.background(bg)

	for i, raw := range p.list("slots", m["slots"]) {
		sm, ok := asMap(raw)
		if !ok {
			p.warn(fmt.Sprintf("slots[%d]", i), "slot must be an object, skipped")
			continue
		}
		def.Slots = append(def.Slots, p.slot(fmt.Sprintf("slots[%d]", i), sm, len(def.Slots), def))
	}
	for i, raw := range p.list("texts", m["texts"]) {
		tm, ok := asMap(raw)
		if !ok {
			p.warn(fmt.Sprintf("texts[%d]", i), "text must be an object, skipped")
			continue
		}
		def.Texts = append(def.Texts, p.text(fmt.Sprintf("texts[%d]", i), tm, len(def.Texts), def))
	}
	return def, p.warnings
}

type parser struct {
	warnings []Warning
}

func (p *parser) warn(field, format string, args ...any) {
	p.warnings = append(p.warnings, Warning{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (p *parser) background(m map[string]any) BackgroundConfig {
	bg := BackgroundConfig{
		Kind:    BackgroundKind(firstString(m, "kind")),
		Value:   firstString(m, "value"),
		Opacity: p.number("background.opacity", m["opacity"], 1),
		Center:  [2]float64{0.5, 0.5},
	}
	if bg.Kind == "" {
		bg.Kind = KindColor
	}
	if _, ok := m["value"]; !ok {
		bg.Value = DefaultBackground
	}
	switch bg.Kind {
	case KindColor, KindImage, KindGradient:
	default:
		p.warn("background.kind", "unknown kind %q renders as opaque white", bg.Kind)
	}

	bg.GradientType = GradientType(firstString(m, "gradient_type"))
	bg.Angle = p.number("background.gradient_angle", m["gradient_angle"], 0)
	if c, ok := asList(m["gradient_center"]); ok && len(c) >= 2 {
		x, okx := toFloat(c[0])
		y, oky := toFloat(c[1])
		if okx && oky {
			bg.Center = [2]float64{x, y}
		} else {
			p.warn("background.gradient_center", "expected two numbers, using center")
		}
	}
	for i, raw := range p.list("background.gradient_stops", m["gradient_stops"]) {
		field := fmt.Sprintf("background.gradient_stops[%d]", i)
		sm, ok := asMap(raw)
		if !ok {
			p.warn(field, "stop must be an object, skipped")
			continue
		}
		bg.Stops = append(bg.Stops, GradientStop{
			Color:    firstString(sm, "color"),
			Position: p.number(field+".position", sm["position"], 0),
		})
	}
	return bg
}

func (p *parser) slot(field string, m map[string]any, index int, def *Definition) Slot {
	s := Slot{
		Key:     firstString(m, "key"),
		Fit:     Fit(firstString(m, "fit")),
		Padding: p.integer(field+".padding", m["padding"], 0),
		AlignX:  HAlign(firstString(m, "align_x")),
		AlignY:  VAlign(firstString(m, "align_y")),
		RotateX: p.number(field+".rotate_x", m["rotate_x"], 0),
		RotateY: p.number(field+".rotate_y", m["rotate_y"], 0),
	}
	if s.Key == "" {
		s.Key = fmt.Sprintf("slot-%d", index)
	}
	if _, ok := m["rotation"]; ok {
		s.Rotation = p.number(field+".rotation", m["rotation"], 0)
	} else {
		s.Rotation = p.number(field+".rotate_z", m["rotate_z"], 0)
	}

	b := p.ints(field+".box", m["box"], 4, []int{0, 0, def.Width, def.Height})
	s.Box = p.box(field+".box", b)

	switch s.Fit {
	case FitCover, FitContain:
	case "":
		s.Fit = FitCover
	default:
		p.warn(field+".fit", "unknown fit %q, using cover", s.Fit)
		s.Fit = FitCover
	}
	s.AlignX = p.halign(field+".align_x", s.AlignX, AlignCenter)
	switch s.AlignY {
	case AlignTop, AlignMiddle, AlignBottom:
	case "":
		s.AlignY = AlignMiddle
	default:
		p.warn(field+".align_y", "unknown alignment %q, using center", s.AlignY)
		s.AlignY = AlignMiddle
	}
	if s.Padding < 0 {
		p.warn(field+".padding", "negative padding, using 0")
		s.Padding = 0
	}

	s.Radius = Uniform(max(0, p.integer(field+".radius", m["radius"], 0)))
	if raw, ok := m["radii"]; ok && raw != nil {
		r, ok := parseRadii(raw)
		if !ok {
			p.warn(field+".radii", "expected four non-negative numbers, using 0 for every corner")
		}
		s.Radius = PerCorner(r[0], r[1], r[2], r[3])
	}
	return s
}

func parseRadii(raw any) ([4]int, bool) {
	var r [4]int
	list, ok := asList(raw)
	if !ok || len(list) != 4 {
		return r, false
	}
	for i, v := range list {
		f, ok := toFloat(v)
		if !ok || f < 0 {
			return [4]int{}, false
		}
		r[i] = int(f)
	}
	return r, true
}

func (p *parser) text(field string, m map[string]any, index int, def *Definition) TextBlock {
	t := TextBlock{Key: firstString(m, "key")}
	if t.Key == "" {
		t.Key = fmt.Sprintf("text-%d", index)
	}
	b := p.ints(field+".box", m["box"], 4, []int{0, 0, def.Width, DefaultTextHeight})
	t.Box = p.box(field+".box", b)

	sm, _ := asMap(m["style"])
	sf := field + ".style"
	st := TextStyle{
		Font:        firstString(sm, "font"),
		Size:        p.integer(sf+".size", sm["size"], DefaultFontSize),
		Color:       p.color(sf+".color", sm["color"], DefaultTextColor),
		Align:       p.halign(sf+".align", HAlign(firstString(sm, "align")), AlignLeft),
		MaxWidth:    p.integer(sf+".max_width", sm["max_width"], 0),
		LineSpacing: p.number(sf+".line_spacing", sm["line_spacing"], DefaultLineSpacing),
		StrokeWidth: p.integer(sf+".stroke_width", sm["stroke_width"], 0),
		StrokeFill:  firstString(sm, "stroke_fill"),
	}
	if st.Size <= 0 {
		p.warn(sf+".size", "size must be positive, using %d", DefaultFontSize)
		st.Size = DefaultFontSize
	}
	if st.LineSpacing < 0 {
		p.warn(sf+".line_spacing", "negative line spacing, using 0")
		st.LineSpacing = 0
	}
	if st.MaxWidth < 0 {
		st.MaxWidth = 0
	}
	if st.StrokeWidth < 0 {
		st.StrokeWidth = 0
	}
	if shm, ok := asMap(sm["shadow"]); ok {
		sh := &Shadow{OffsetX: 2, OffsetY: 2, Color: "#00000088"}
		if off := p.ints(sf+".shadow.offset", shm["offset"], 2, []int{2, 2}); len(off) == 2 {
			sh.OffsetX, sh.OffsetY = off[0], off[1]
		}
		if c := firstString(shm, "color"); c != "" {
			sh.Color = c
		}
		sh.Blur = max(0, p.integer(sf+".shadow.blur", shm["blur"], 0))
		st.Shadow = sh
	}
	t.Style = st
	return t
}

func (p *parser) box(field string, b []int) Box {
	box := Box{X: b[0], Y: b[1], W: b[2], H: b[3]}
	if box.W < 1 || box.H < 1 {
		p.warn(field, "width and height must be at least 1")
		box.W, box.H = max(box.W, 1), max(box.H, 1)
	}
	return box
}

func (p *parser) halign(field string, a, def HAlign) HAlign {
	switch a {
	case AlignLeft, AlignCenter, AlignRight:
		return a
	case "":
		return def
	default:
		p.warn(field, "unknown alignment %q, using %s", a, def)
		return def
	}
}

// color keeps '#'-prefixed strings and replaces anything else with def.
func (p *parser) color(field string, v any, def string) string {
	if v == nil {
		return def
	}
	s, ok := v.(string)
	if ok && strings.HasPrefix(s, "#") {
		return s
	}
	p.warn(field, "%v is not a hex color, using %s", v, def)
	return def
}

func (p *parser) number(field string, v any, def float64) float64 {
	if v == nil {
		return def
	}
	f, ok := toFloat(v)
	if !ok {
		p.warn(field, "%v is not a number, using %v", v, def)
		return def
	}
	return f
}

func (p *parser) integer(field string, v any, def int) int {
	if v == nil {
		return def
	}
	f, ok := toFloat(v)
	if !ok {
		p.warn(field, "%v is not a number, using %d", v, def)
		return def
	}
	return int(f)
}

// ints reads a fixed-length numeric list, returning def when absent or malformed.
func (p *parser) ints(field string, v any, n int, def []int) []int {
	if v == nil {
		return def
	}
	list, ok := asList(v)
	if !ok || len(list) != n {
		p.warn(field, "expected a list of %d numbers", n)
		return def
	}
	out := make([]int, n)
	for i, item := range list {
		f, ok := toFloat(item)
		if !ok {
			p.warn(field, "expected a list of %d numbers", n)
			return def
		}
		out[i] = int(f)
	}
	return out
}

func (p *parser) list(field string, v any) []any {
	if v == nil {
		return nil
	}
	list, ok := asList(v)
	if !ok {
		p.warn(field, "expected a list, ignored")
		return nil
	}
	return list
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case nil:
		default:
			return fmt.Sprint(v)
		}
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asList(v any) ([]any, bool) {
	list, ok := v.([]any)
	return list, ok
}

// asMap accepts both JSON-style and YAML-style (interface-keyed) objects.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}
