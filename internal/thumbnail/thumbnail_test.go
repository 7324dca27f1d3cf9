package thumbnail_test

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"

	"docmonitor/internal/thumbnail"
)

func writeImage(t *testing.T, path string, w, h int, encode func(*os.File, image.Image) error) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func decodeThumbnail(t *testing.T, encoded string) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("base64: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("thumbnail is not a JPEG: %v", err)
	}
	return img
}

func TestGenerateScalesTIFFToLongestEdge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fax.tiff")
	writeImage(t, path, 400, 200, func(f *os.File, img image.Image) error {
		return tiff.Encode(f, img, nil)
	})

	encoded, err := thumbnail.Generate(path, 100)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	bounds := decodeThumbnail(t, encoded).Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 50 {
		t.Fatalf("unexpected thumbnail size %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestGenerateDoesNotUpscale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.png")
	writeImage(t, path, 40, 30, func(f *os.File, img image.Image) error {
		return png.Encode(f, img)
	})

	encoded, err := thumbnail.Generate(path, 250)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	bounds := decodeThumbnail(t, encoded).Bounds()
	if bounds.Dx() != 40 || bounds.Dy() != 30 {
		t.Fatalf("unexpected thumbnail size %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestGenerateErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := thumbnail.Generate(filepath.Join(dir, "missing.tif"), 100); err == nil {
		t.Fatal("expected error for missing file")
	}

	bogus := filepath.Join(dir, "bogus.pdf")
	if err := os.WriteFile(bogus, []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := thumbnail.Generate(bogus, 100); err == nil {
		t.Fatal("expected error for invalid pdf")
	}
}
