package signature

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"

	formpdf "github.com/lvillar/formpdf"
)

// MaxDimension is the longest side, in pixels, an embedded signature keeps.
// Larger captures are downscaled before embedding.
const MaxDimension = 1200

// Decode turns a captured signature (a data: URI or bare base64) into raw
// image bytes.
func Decode(data string) ([]byte, error) {
	s := strings.TrimSpace(data)
	if strings.HasPrefix(s, "data:") {
		i := strings.IndexByte(s, ',')
		if i < 0 || !strings.Contains(s[:i], ";base64") {
			return nil, fmt.Errorf("%w: data URI is not base64", formpdf.ErrSignatureImage)
		}
		s = s[i+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", formpdf.ErrSignatureImage, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty image", formpdf.ErrSignatureImage)
	}
	return raw, nil
}

// Normalize returns an image the PDF engine can embed. PNG, JPEG and GIF within
// MaxDimension pass through untouched; WebP, BMP and oversized images are
// re-encoded as PNG, downscaled to MaxDimension on the long side.
func Normalize(raw []byte) ([]byte, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", formpdf.ErrSignatureImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty %s image", formpdf.ErrSignatureImage, format)
	}

	native := format == "png" || format == "jpeg" || format == "gif"
	if native && max(cfg.Width, cfg.Height) <= MaxDimension {
		return raw, nil
	}

	img, err := decode(raw, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", formpdf.ErrSignatureImage, err)
	}
	img = shrink(img, MaxDimension)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: %v", formpdf.ErrSignatureImage, err)
	}
	return buf.Bytes(), nil
}

func decode(raw []byte, format string) (image.Image, error) {
	r := bytes.NewReader(raw)
	switch format {
	case "png":
		return png.Decode(r)
	case "jpeg":
		return jpeg.Decode(r)
	case "gif":
		return gif.Decode(r)
	case "webp":
		return webp.Decode(r)
	case "bmp":
		return bmp.Decode(r)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// shrink scales img down so its longest side is at most limit.
func shrink(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if max(w, h) <= limit {
		return img
	}
	if w >= h {
		h = max(1, h*limit/w)
		w = limit
	} else {
		w = max(1, w*limit/h)
		h = limit
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
