package renderer

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/tiff"
)

// Encode img to a file; the format is selected by the file extension.
func WriteImage(filename string, img image.Image) error {
	start := time.Now()

	var encode func(f *os.File) error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		encode = func(f *os.File) error { return png.Encode(f, img) }
	case ".tif", ".tiff":
		encode = func(f *os.File) error {
			return tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = encode(f); err != nil {
		return fmt.Errorf("renderer: could not encode %s: %s", filename, err.Error())
	}

	logger.Noticef("wrote %s in %d ms", filename, time.Since(start).Nanoseconds()/1000000)
	return nil
}
