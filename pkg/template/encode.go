package template

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/coverkit/pkg/errors"
)

// Document is the serialized shape of a template. Its field names match the
// keys [Parse] reads, so Parse(Marshal(d)) reproduces d.
type Document struct {
	Key         string        `json:"key" yaml:"key" bson:"key"`
	Name        string        `json:"name" yaml:"name" bson:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty" bson:"description,omitempty"`
	Size        [2]int        `json:"size" yaml:"size,flow" bson:"size"`
	Background  BackgroundDoc `json:"background" yaml:"background" bson:"background"`
	Slots       []SlotDoc     `json:"slots" yaml:"slots" bson:"slots"`
	Texts       []TextDoc     `json:"texts" yaml:"texts" bson:"texts"`
}

type BackgroundDoc struct {
	Kind           string     `json:"kind" yaml:"kind" bson:"kind"`
	Value          string     `json:"value" yaml:"value" bson:"value"`
	Opacity        float64    `json:"opacity" yaml:"opacity" bson:"opacity"`
	GradientType   string     `json:"gradient_type,omitempty" yaml:"gradient_type,omitempty" bson:"gradient_type,omitempty"`
	GradientStops  []StopDoc  `json:"gradient_stops,omitempty" yaml:"gradient_stops,omitempty" bson:"gradient_stops,omitempty"`
	GradientAngle  *float64   `json:"gradient_angle,omitempty" yaml:"gradient_angle,omitempty" bson:"gradient_angle,omitempty"`
	GradientCenter []float64  `json:"gradient_center,omitempty" yaml:"gradient_center,flow,omitempty" bson:"gradient_center,omitempty"`
}

type StopDoc struct {
	Color    string  `json:"color" yaml:"color" bson:"color"`
	Position float64 `json:"position" yaml:"position" bson:"position"`
}

type SlotDoc struct {
	Key      string  `json:"key" yaml:"key" bson:"key"`
	Box      [4]int  `json:"box" yaml:"box,flow" bson:"box"`
	Radius   int     `json:"radius,omitempty" yaml:"radius,omitempty" bson:"radius,omitempty"`
	Radii    []int   `json:"radii,omitempty" yaml:"radii,flow,omitempty" bson:"radii,omitempty"`
	Fit      string  `json:"fit" yaml:"fit" bson:"fit"`
	Padding  int     `json:"padding" yaml:"padding" bson:"padding"`
	AlignX   string  `json:"align_x" yaml:"align_x" bson:"align_x"`
	AlignY   string  `json:"align_y" yaml:"align_y" bson:"align_y"`
	Rotation float64 `json:"rotation" yaml:"rotation" bson:"rotation"`
	RotateX  float64 `json:"rotate_x,omitempty" yaml:"rotate_x,omitempty" bson:"rotate_x,omitempty"`
	RotateY  float64 `json:"rotate_y,omitempty" yaml:"rotate_y,omitempty" bson:"rotate_y,omitempty"`
}

type TextDoc struct {
	Key   string   `json:"key" yaml:"key" bson:"key"`
	Box   [4]int   `json:"box" yaml:"box,flow" bson:"box"`
	Style StyleDoc `json:"style" yaml:"style" bson:"style"`
}

type StyleDoc struct {
	Font        string     `json:"font,omitempty" yaml:"font,omitempty" bson:"font,omitempty"`
	Size        int        `json:"size" yaml:"size" bson:"size"`
	Color       string     `json:"color" yaml:"color" bson:"color"`
	Align       string     `json:"align" yaml:"align" bson:"align"`
	MaxWidth    int        `json:"max_width,omitempty" yaml:"max_width,omitempty" bson:"max_width,omitempty"`
	LineSpacing float64    `json:"line_spacing" yaml:"line_spacing" bson:"line_spacing"`
	StrokeWidth int        `json:"stroke_width,omitempty" yaml:"stroke_width,omitempty" bson:"stroke_width,omitempty"`
	StrokeFill  string     `json:"stroke_fill,omitempty" yaml:"stroke_fill,omitempty" bson:"stroke_fill,omitempty"`
	Shadow      *ShadowDoc `json:"shadow,omitempty" yaml:"shadow,omitempty" bson:"shadow,omitempty"`
}

type ShadowDoc struct {
	Offset [2]int `json:"offset" yaml:"offset,flow" bson:"offset"`
	Color  string `json:"color" yaml:"color" bson:"color"`
	Blur   int    `json:"blur" yaml:"blur" bson:"blur"`
}

// Encode converts d to its document form.
func Encode(d *Definition) Document {
	doc := Document{
		Key:         d.Key,
		Name:        d.Name,
		Description: d.Description,
		Size:        [2]int{d.Width, d.Height},
		Background: BackgroundDoc{
			Kind:    string(d.Background.Kind),
			Value:   d.Background.Value,
			Opacity: d.Background.Opacity,
		},
		Slots: make([]SlotDoc, 0, len(d.Slots)),
		Texts: make([]TextDoc, 0, len(d.Texts)),
	}

	if bg := d.Background; bg.HasGradient() {
		doc.Background.GradientType = string(bg.GradientType)
		angle := bg.Angle
		doc.Background.GradientAngle = &angle
		doc.Background.GradientCenter = []float64{bg.Center[0], bg.Center[1]}
		for _, s := range bg.Stops {
			doc.Background.GradientStops = append(doc.Background.GradientStops, StopDoc{Color: s.Color, Position: s.Position})
		}
	}

	for _, s := range d.Slots {
		sd := SlotDoc{
			Key:      s.Key,
			Box:      [4]int{s.Box.X, s.Box.Y, s.Box.W, s.Box.H},
			Fit:      string(s.Fit),
			Padding:  s.Padding,
			AlignX:   string(s.AlignX),
			AlignY:   string(s.AlignY),
			Rotation: s.Rotation,
			RotateX:  s.RotateX,
			RotateY:  s.RotateY,
		}
		if s.Radius.IsPerCorner() {
			c := s.Radius.Corners()
			sd.Radii = c[:]
		} else {
			sd.Radius = s.Radius.Value()
		}
		doc.Slots = append(doc.Slots, sd)
	}

	for _, t := range d.Texts {
		st := t.Style
		td := TextDoc{
			Key: t.Key,
			Box: [4]int{t.Box.X, t.Box.Y, t.Box.W, t.Box.H},
			Style: StyleDoc{
				Font:        st.Font,
				Size:        st.Size,
				Color:       st.Color,
				Align:       string(st.Align),
				MaxWidth:    st.MaxWidth,
				LineSpacing: st.LineSpacing,
				StrokeWidth: st.StrokeWidth,
				StrokeFill:  st.StrokeFill,
			},
		}
		if sh := st.Shadow; sh != nil {
			td.Style.Shadow = &ShadowDoc{Offset: [2]int{sh.OffsetX, sh.OffsetY}, Color: sh.Color, Blur: sh.Blur}
		}
		doc.Texts = append(doc.Texts, td)
	}
	return doc
}

// Marshal encodes d in the given format.
func Marshal(d *Definition, format Format) ([]byte, error) {
	doc := Encode(d)
	var (
		data []byte
		err  error
	)
	if format == FormatYAML {
		data, err = yaml.Marshal(doc)
	} else {
		data, err = json.MarshalIndent(doc, "", "  ")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode template %q", d.Key)
	}
	return data, nil
}

// Definition parses the document back into a Definition.
func (doc Document) Definition() (*Definition, []Warning, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "encode template %q", doc.Key)
	}
	return Parse(data, FormatJSON)
}
