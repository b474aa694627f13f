// Package fontatlas renders the printable ASCII characters of a fixed size
// bitmap font into a single image, one cell per character, for frontends
// that draw text by copying cells out of a texture.
package fontatlas

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	First  = ' '
	Last   = '~'
	PerRow = 32

	CellW = 7
	CellH = 13

	Width  = PerRow * CellW
	Height = ((Last - First + PerRow) / PerRow) * CellH
)

// Cell returns the part of the atlas holding r. Characters outside the
// atlas map to '?'.
func Cell(r rune) image.Rectangle {
	if r < First || r > Last {
		r = '?'
	}
	i := int(r - First)
	x := (i % PerRow) * CellW
	y := (i / PerRow) * CellH
	return image.Rect(x, y, x+CellW, y+CellH)
}

// Image renders the atlas as white glyphs on a transparent background.
func Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	face := basicfont.Face7x13
	ascent := face.Metrics().Ascent.Ceil()

	d := &font.Drawer{Dst: img, Src: image.White, Face: face}
	for r := rune(First); r <= Last; r++ {
		cell := Cell(r)
		d.Dot = fixed.P(cell.Min.X, cell.Min.Y+ascent)
		d.DrawString(string(r))
	}
	return img
}

// PNG returns the atlas encoded as PNG.
func PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Image()); err != nil {
		return nil, fmt.Errorf("encoding font atlas: %w", err)
	}
	return buf.Bytes(), nil
}
