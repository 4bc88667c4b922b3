package fingerprint

import (
	"fmt"
	"image"
	"image/color"
	"math/bits"
	"strconv"

	"github.com/disintegration/imaging"
)

// BitLength is the fixed length of a perceptual fingerprint in bits.
const BitLength = 64

// Fingerprint is a 64-bit perceptual difference hash of a document's first
// rendered page. Only similarity-threshold behavior is load-bearing; the exact
// bit layout is internal.
type Fingerprint uint64

// Distance returns the Hamming distance between two fingerprints.
func (f Fingerprint) Distance(other Fingerprint) int {
	return bits.OnesCount64(uint64(f ^ other))
}

// Similarity returns 1 - distance/bitlength, in [0, 1].
func (f Fingerprint) Similarity(other Fingerprint) float64 {
	return 1 - float64(f.Distance(other))/float64(BitLength)
}

// String encodes the fingerprint as 16 lowercase hex characters.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// Parse decodes a fingerprint from its 16-character hex form.
func Parse(s string) (Fingerprint, error) {
	if len(s) != BitLength/4 {
		return 0, fmt.Errorf("fingerprint must be %d hex characters, got %d", BitLength/4, len(s))
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse fingerprint %q: %w", s, err)
	}
	return Fingerprint(v), nil
}

// FromImage computes the difference hash of an image: downsample to a 9x8
// grayscale grid and emit one bit per horizontally adjacent pixel pair. The
// construction is stable under re-compression, rescaling, and minor noise.
func FromImage(img image.Image) Fingerprint {
	const (
		cols = 9
		rows = 8
	)
	small := imaging.Grayscale(imaging.Resize(img, cols, rows, imaging.Lanczos))

	var fp uint64
	bit := 0
	for y := 0; y < rows; y++ {
		for x := 0; x < cols-1; x++ {
			left := luminance(small.At(x, y))
			right := luminance(small.At(x+1, y))
			if left > right {
				fp |= 1 << uint(63-bit)
			}
			bit++
		}
	}
	return Fingerprint(fp)
}

func luminance(c color.Color) uint32 {
	r, _, _, _ := c.RGBA()
	// Grayscale conversion already happened; any channel carries the value.
	return r
}
