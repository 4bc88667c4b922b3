package fingerprint

import (
	"errors"
	"image"
	"image/color"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

// documentImage paints a synthetic page: white background with a few dark
// horizontal bands whose placement is controlled by seed.
func documentImage(w, h int, seed int64) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	rng := rand.New(rand.NewSource(seed))
	for band := 0; band < 12; band++ {
		y := rng.Intn(h - 4)
		x0 := rng.Intn(w / 2)
		x1 := x0 + w/3 + rng.Intn(w/4)
		for yy := y; yy < y+3; yy++ {
			for x := x0; x < x1 && x < w; x++ {
				img.SetGray(x, yy, color.Gray{Y: 0x20})
			}
		}
	}
	return img
}

func TestSelfSimilarityIsOne(t *testing.T) {
	fp := FromImage(documentImage(400, 560, 1))
	if got := fp.Similarity(fp); got != 1.0 {
		t.Fatalf("self similarity = %v, want 1.0", got)
	}
	if fp.Distance(fp) != 0 {
		t.Fatal("self distance must be 0")
	}
}

func TestSimilarityIsSymmetric(t *testing.T) {
	a := FromImage(documentImage(400, 560, 1))
	b := FromImage(documentImage(400, 560, 2))
	if a.Similarity(b) != b.Similarity(a) {
		t.Fatal("similarity must be symmetric")
	}
}

func TestStableUnderRescaling(t *testing.T) {
	original := documentImage(800, 1120, 7)
	rescaled := imaging.Resize(original, 400, 560, imaging.Lanczos)

	a := FromImage(original)
	b := FromImage(rescaled)
	if sim := a.Similarity(b); sim < 0.95 {
		t.Fatalf("rescaled copy similarity = %v, want >= 0.95", sim)
	}
}

func TestDistinctDocumentsDiffer(t *testing.T) {
	a := FromImage(documentImage(400, 560, 3))
	b := FromImage(documentImage(400, 560, 99))
	if sim := a.Similarity(b); sim >= 0.95 {
		t.Fatalf("unrelated documents similarity = %v, want < 0.95", sim)
	}
}

func TestParseRoundTrip(t *testing.T) {
	fp := FromImage(documentImage(400, 560, 5))
	parsed, err := Parse(fp.String())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed != fp {
		t.Fatalf("round trip mismatch: %v != %v", parsed, fp)
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	for _, input := range []string{"", "abc", "zzzzzzzzzzzzzzzz", "0123456789abcdef0"} {
		if _, err := Parse(input); err == nil {
			t.Fatalf("Parse(%q) should fail", input)
		}
	}
}

func TestEngineDecodesImageFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.png")
	if err := imaging.Save(documentImage(400, 560, 11), path); err != nil {
		t.Fatalf("save image: %v", err)
	}

	engine := NewEngine(nil)
	fp, err := engine.Compute(path)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if want := FromImage(documentImage(400, 560, 11)); fp.Similarity(want) < 0.95 {
		t.Fatalf("decoded fingerprint dissimilar to source: %v", fp.Similarity(want))
	}
}

func TestEngineUsesRendererForPDFs(t *testing.T) {
	rendered := documentImage(400, 560, 21)
	engine := NewEngine(func(path string) (image.Image, error) {
		return rendered, nil
	})
	fp, err := engine.Compute("/in/doc.pdf")
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if fp != FromImage(rendered) {
		t.Fatal("engine should fingerprint the rendered page")
	}
}

func TestEngineRendererError(t *testing.T) {
	engine := NewEngine(func(path string) (image.Image, error) {
		return nil, errors.New("boom")
	})
	if _, err := engine.Compute("/in/doc.pdf"); err == nil {
		t.Fatal("expected renderer error to propagate")
	}
}

func TestEngineWithoutRenderer(t *testing.T) {
	engine := NewEngine(nil)
	if _, err := engine.Compute("/in/doc.pdf"); err == nil {
		t.Fatal("expected error when no renderer is configured")
	}
}
