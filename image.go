package formpdf

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/jung-kurt/gofpdf"
)

// DetectImageType returns the gofpdf image type ("PNG", "JPG" or "GIF") for
// data, sniffed from its leading bytes.
func DetectImageType(data []byte) (string, error) {
	switch http.DetectContentType(data) {
	case "image/png":
		return "PNG", nil
	case "image/jpeg":
		return "JPG", nil
	case "image/gif":
		return "GIF", nil
	}
	return "", ErrUnsupported
}

// RegisterImageData registers an in-memory image under name and returns its info.
// Registering the same name twice returns the first registration.
func (d *Document) RegisterImageData(name string, data []byte) (*gofpdf.ImageInfoType, error) {
	typ, err := DetectImageType(data)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", name, err)
	}
	info := d.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: typ}, bytes.NewReader(data))
	if d.Err() {
		return nil, d.Error()
	}
	return info, nil
}

// FitBox scales a srcW x srcH image to fit inside boxW x boxH, preserving its
// aspect ratio and never enlarging it beyond its natural size.
func FitBox(srcW, srcH, boxW, boxH float64) (w, h float64) {
	if srcW <= 0 || srcH <= 0 || boxW <= 0 || boxH <= 0 {
		return 0, 0
	}
	scale := boxW / srcW
	if s := boxH / srcH; s < scale {
		scale = s
	}
	if scale > 1 {
		scale = 1
	}
	return srcW * scale, srcH * scale
}
