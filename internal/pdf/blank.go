package pdf

import (
	"image"
	"image/color"
)

// whiteCutoff is the 16-bit gray level above which a pixel counts as paper
// rather than ink. Matches a 230/255 whiteness bound on scanner output.
const whiteCutoff = 230 * 257

// Coverage returns the fraction of pixels carrying ink, in [0, 1].
func Coverage(img image.Image) float64 {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}

	inked := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if grayLevel(img.At(x, y)) < whiteCutoff {
				inked++
			}
		}
	}
	return float64(inked) / float64(total)
}

// IsBlank reports whether a page image counts as blank. Coverage strictly
// below the threshold is blank; a page exactly at the threshold is kept. A
// page with no ink at all is blank under any threshold, including zero.
func IsBlank(img image.Image, threshold float64) bool {
	coverage := Coverage(img)
	if coverage == 0 {
		return true
	}
	return coverage < threshold
}

func grayLevel(c color.Color) uint32 {
	r, g, b, _ := c.RGBA()
	// ITU-R BT.601 luma weights.
	return (299*r + 587*g + 114*b) / 1000
}
