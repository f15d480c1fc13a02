package visual

// Color is one palette entry in CSS notation.
type Color struct {
	Background string `json:"backgroundColor"`
	Border     string `json:"borderColor"`
	R, G, B    uint8  `json:"-"`
}

var palette = [...]Color{
	{"rgba(54, 162, 235, 0.5)", "rgb(54, 162, 235)", 54, 162, 235},
	{"rgba(255, 99, 132, 0.5)", "rgb(255, 99, 132)", 255, 99, 132},
	{"rgba(75, 192, 192, 0.5)", "rgb(75, 192, 192)", 75, 192, 192},
	{"rgba(255, 206, 86, 0.5)", "rgb(255, 206, 86)", 255, 206, 86},
	{"rgba(153, 102, 255, 0.5)", "rgb(153, 102, 255)", 153, 102, 255},
	{"rgba(255, 159, 64, 0.5)", "rgb(255, 159, 64)", 255, 159, 64},
}

// PaletteSize is the number of colours before the palette repeats.
const PaletteSize = len(palette)

// PaletteColor returns the colour for series or slice i. The mapping is
// stable across renders: i and i+PaletteSize share a colour.
func PaletteColor(i int) Color {
	if i < 0 {
		i = -i
	}
	return palette[i%PaletteSize]
}
