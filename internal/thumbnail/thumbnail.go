// Package thumbnail renders a small JPEG preview of a document's first page.
//
// PDF previews use the first embedded image of page one (scanned and faxed
// PDFs carry the page as a single image). TIFF, PNG and JPEG sources are
// decoded directly.
package thumbnail

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// DefaultSize is the longest edge of a thumbnail in pixels.
const DefaultSize = 250

// ErrNoImage is returned when a PDF's first page has no embedded image.
var ErrNoImage = errors.New("no image on first page")

const jpegQuality = 80

// Generate returns the base64-encoded JPEG preview of path with its longest
// edge at most size pixels. Images are never upscaled.
func Generate(path string, size int) (string, error) {
	if size <= 0 {
		size = DefaultSize
	}
	src, err := firstPage(path)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scale(src, size), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func firstPage(path string) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return firstPDFImage(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

func firstPDFImage(path string) (image.Image, error) {
	pages, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if pages == 0 {
		return nil, ErrNoImage
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	perPage, err := api.ExtractImagesRaw(f, []string{"1"}, conf)
	if err != nil {
		return nil, fmt.Errorf("extract pdf images: %w", err)
	}
	for _, images := range perPage {
		for _, img := range images {
			decoded, _, err := image.Decode(img)
			if err != nil {
				continue
			}
			return decoded, nil
		}
	}
	return nil, ErrNoImage
}

func scale(src image.Image, size int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longest := max(w, h, 1)
	if longest <= size {
		return flatten(src, w, h)
	}
	ratio := float64(size) / float64(longest)
	tw := max(int(float64(w)*ratio+0.5), 1)
	th := max(int(float64(h)*ratio+0.5), 1)

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}

// flatten composites src onto white so transparent areas do not turn black
// in the JPEG.
func flatten(src image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Over)
	return dst
}
