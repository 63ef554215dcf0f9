package formpdf

import "time"

// Option is a functional option for configuring a new document via NewDocument.
type Option func(*documentConfig)

type documentConfig struct {
	orientation  Orientation
	margin       float64
	fontSize     float64
	compress     bool
	creationDate time.Time
	brand        Brand
	palette      Palette
	letterhead   []byte
	draft        string
	pageNumbers  bool
	title        string
}

// Brand is the static brand mark drawn in the left column of every header.
type Brand struct {
	Name string // shown when no logo is set
	Logo []byte // PNG, JPEG or GIF
}

// DefaultCreationDate is stamped into every document unless overridden, so that
// rendering the same report twice yields identical bytes.
var DefaultCreationDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// WithOrientation sets the page orientation.
// Use OrientationPortrait or OrientationLandscape.
func WithOrientation(o Orientation) Option {
	return func(c *documentConfig) {
		if o != "" {
			c.orientation = o
		}
	}
}

// WithMargins sets the page margin in points on all four sides.
func WithMargins(pt float64) Option {
	return func(c *documentConfig) {
		if pt >= 0 {
			c.margin = pt
		}
	}
}

// WithFontSize sets the base font size in points.
func WithFontSize(pt float64) Option {
	return func(c *documentConfig) {
		if pt > 0 {
			c.fontSize = pt
		}
	}
}

// WithCompression toggles stream compression. Tests turn it off to search page
// content directly.
func WithCompression(on bool) Option {
	return func(c *documentConfig) {
		c.compress = on
	}
}

// WithCreationDate fixes the document's internal creation date.
func WithCreationDate(t time.Time) Option {
	return func(c *documentConfig) {
		if !t.IsZero() {
			c.creationDate = t
		}
	}
}

// WithBrand sets the brand mark used by the header block.
func WithBrand(b Brand) Option {
	return func(c *documentConfig) {
		c.brand = b
	}
}

// WithPalette replaces the style-tag palette.
func WithPalette(p Palette) Option {
	return func(c *documentConfig) {
		if p != nil {
			c.palette = p
		}
	}
}

// WithLetterhead draws a PNG, JPEG or GIF image stretched over the whole page
// as the background of every page.
func WithLetterhead(img []byte) Option {
	return func(c *documentConfig) {
		c.letterhead = img
	}
}

// WithDraftWatermark stamps text diagonally across every page, e.g. "BORRADOR".
func WithDraftWatermark(text string) Option {
	return func(c *documentConfig) {
		c.draft = text
	}
}

// WithPageNumbers adds a "Página N de M" footer.
func WithPageNumbers(on bool) Option {
	return func(c *documentConfig) {
		c.pageNumbers = on
	}
}

// WithTitle sets the document title metadata.
func WithTitle(title string) Option {
	return func(c *documentConfig) {
		c.title = title
	}
}
