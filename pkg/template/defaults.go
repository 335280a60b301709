package template

// Default returns the built-in template written to an empty template
// directory.
func Default() *Definition {
	return &Definition{
		Key:    "default",
		Name:   "Default Cover",
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Background: BackgroundConfig{
			Kind:    KindColor,
			Value:   "#f5f5f5",
			Opacity: 1,
			Center:  [2]float64{0.5, 0.5},
		},
		Slots: []Slot{{
			Key:    "screenshot-1",
			Box:    Box{X: 90, Y: 420, W: 900, H: 1080},
			Radius: Uniform(32),
			Fit:    FitCover,
			AlignX: AlignCenter,
			AlignY: AlignMiddle,
		}},
		Texts: []TextBlock{
			{
				Key:   "title",
				Box:   Box{X: 90, Y: 120, W: 900, H: 180},
				Style: TextStyle{Size: 64, Color: "#111111", Align: AlignLeft, LineSpacing: DefaultLineSpacing},
			},
			{
				Key:   "subtitle",
				Box:   Box{X: 90, Y: 280, W: 900, H: 100},
				Style: TextStyle{Size: 36, Color: "#444444", Align: AlignLeft, LineSpacing: DefaultLineSpacing},
			},
		},
	}
}
