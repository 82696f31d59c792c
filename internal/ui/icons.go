package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
)

const iconSize = 22

// GetIcon returns the tray icon for the given state. Icons are black on
// transparent so macOS can tint them as template images.
func GetIcon(state string) []byte {
	switch state {
	case "active":
		return GenerateGlobeIcon(true)
	default:
		return GenerateGlobeIcon(false)
	}
}

// GenerateGlobeIcon renders a globe outline. With filled set a dot is drawn in
// the lower right corner to show that a known profile is in use.
func GenerateGlobeIcon(filled bool) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))

	setPx := func(x, y int, a float64) {
		if x < 0 || x >= iconSize || y < 0 || y >= iconSize || a <= 0 {
			return
		}
		if a > 1 {
			a = 1
		}
		old := img.NRGBAAt(x, y).A
		na := uint8(a * 255)
		if na > old {
			img.SetNRGBA(x, y, color.NRGBA{A: na})
		}
	}

	// ring draws an anti-aliased ellipse outline of the given radii and stroke.
	ring := func(cx, cy, rx, ry, stroke float64) {
		for y := 0; y < iconSize; y++ {
			for x := 0; x < iconSize; x++ {
				dx := (float64(x) + 0.5 - cx) / rx
				dy := (float64(y) + 0.5 - cy) / ry
				d := math.Abs(math.Sqrt(dx*dx+dy*dy)-1) * math.Min(rx, ry)
				setPx(x, y, stroke/2+0.5-d)
			}
		}
	}

	const c = 10.0
	ring(c, c, 8.5, 8.5, 1.4)
	ring(c, c, 3.5, 8.5, 1.2)
	for x := 2; x < 19; x++ {
		setPx(x, 10, 1)
	}
	for x := 4; x < 17; x++ {
		setPx(x, 5, 0.8)
		setPx(x, 15, 0.8)
	}

	if filled {
		for y := 14; y < iconSize; y++ {
			for x := 14; x < iconSize; x++ {
				dx := float64(x) + 0.5 - 18
				dy := float64(y) + 0.5 - 18
				setPx(x, y, 3.8-math.Sqrt(dx*dx+dy*dy))
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
