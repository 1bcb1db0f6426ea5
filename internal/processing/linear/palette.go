package linear

import "anti-instagram/internal/models"

// Color is a BGR triple in float space
type Color [models.NumChannels]float64

// Reference is a named color the scene is expected to contain
type Reference struct {
	Name  string
	Color Color
}

// Palette is the set of reference colors a fit regresses against
type Palette []Reference

// RoadPalette holds the colors of the road surface and its markings under
// neutral light: asphalt, red stop lines, yellow center line, white edges.
var RoadPalette = Palette{
	{Name: "black", Color: Color{60, 60, 60}},
	{Name: "red", Color: Color{60, 60, 240}},
	{Name: "yellow", Color: Color{50, 240, 240}},
	{Name: "white", Color: Color{240, 240, 240}},
}

func distance2(a, b Color) float64 {
	var d float64
	for c := 0; c < models.NumChannels; c++ {
		diff := a[c] - b[c]
		d += diff * diff
	}
	return d
}
