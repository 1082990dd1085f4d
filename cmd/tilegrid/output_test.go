//go:build !nogpu

package main

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.RGBA{R: 26, G: 51, B: 76, A: 255})
	return img
}

func TestWriteImageFormats(t *testing.T) {
	tests := []struct {
		name   string
		decode func(f *os.File) (image.Image, error)
	}{
		{"frame.png", func(f *os.File) (image.Image, error) { return png.Decode(f) }},
		{"frame.BMP", func(f *os.File) (image.Image, error) { return bmp.Decode(f) }},
		{"frame.tiff", func(f *os.File) (image.Image, error) { return tiff.Decode(f) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.name)
			if err := writeImage(path, testImage()); err != nil {
				t.Fatalf("writeImage() = %v", err)
			}
			f, err := os.Open(path)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()
			img, err := tt.decode(f)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 2 {
				t.Errorf("bounds = %v", img.Bounds())
			}
			r, g, b, _ := img.At(1, 1).RGBA()
			if r>>8 != 26 || g>>8 != 51 || b>>8 != 76 {
				t.Errorf("pixel = (%d, %d, %d)", r>>8, g>>8, b>>8)
			}
		})
	}
}

func TestWriteImageErrors(t *testing.T) {
	dir := t.TempDir()
	if err := writeImage(filepath.Join(dir, "frame.jpg"), testImage()); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if err := writeImage(filepath.Join(dir, "frame.png"), nil); !errors.Is(err, errNoFrame) {
		t.Errorf("writeImage(nil) = %v, want errNoFrame", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "frame.jpg")); !os.IsNotExist(err) {
		t.Error("unsupported format should not create a file")
	}
}
