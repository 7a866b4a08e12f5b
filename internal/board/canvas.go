package board

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// The board draws with two fixed gray paints on a white ground.
var (
	colorBlack = color.Gray{Y: 0}
	colorGrey  = color.Gray{Y: 153} // 60% gray, separators and label ovals
)

// Canvas is a drawing surface over an 8-bit grayscale pixel buffer.
// Every render call allocates its own; a Canvas is never shared across
// calls and is discarded after encoding.
type Canvas struct {
	img *image.Gray
}

// NewCanvas allocates a width x height grayscale buffer initialized to
// full white.
func NewCanvas(width, height int) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrAllocation, width, height)
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	if len(img.Pix) != width*height {
		return nil, fmt.Errorf("%w: %dx%d pixel buffer", ErrAllocation, width, height)
	}

	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}

	return &Canvas{img: img}, nil
}

func (c *Canvas) Width() int  { return c.img.Bounds().Dx() }
func (c *Canvas) Height() int { return c.img.Bounds().Dy() }

// DrawLine draws a one pixel line between two points. Points outside
// the buffer are clipped by the underlying image.
func (c *Canvas) DrawLine(x1, y1, x2, y2 int, col color.Gray) {
	dx := float64(x2 - x1)
	dy := float64(y2 - y1)

	steps := math.Max(math.Abs(dx), math.Abs(dy))
	if steps < 1 {
		c.img.SetGray(x1, y1, col)
		return
	}

	for i := 0.0; i <= steps; i++ {
		t := i / steps
		c.img.SetGray(x1+int(dx*t+0.5), y1+int(dy*t+0.5), col)
	}
}

// FillOval fills the ellipse inscribed in r.
func (c *Canvas) FillOval(r image.Rectangle, col color.Gray) {
	rx := float64(r.Dx()) / 2
	ry := float64(r.Dy()) / 2
	if rx <= 0 || ry <= 0 {
		return
	}

	cx := float64(r.Min.X+r.Max.X) / 2
	cy := float64(r.Min.Y+r.Max.Y) / 2

	for dy := -ry; dy <= ry; dy++ {
		yn := dy / ry
		xExtent := rx * math.Sqrt(1-yn*yn)
		for dx := -xExtent; dx <= xExtent; dx++ {
			c.img.SetGray(int(cx+dx), int(cy+dy), col)
		}
	}
}

// DrawText draws blob with its baseline origin at (x, y).
func (c *Canvas) DrawText(blob *TextBlob, x, y int, col color.Gray) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: blob.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(blob.text)
}

// Rotate90 returns a new height x width canvas holding this canvas's
// pixels under a translate-by-(height, 0) then rotate-90 transform.
// This turns a portrait framebuffer into the landscape orientation a
// Kindle panel expects without the layout code knowing about rotation.
func (c *Canvas) Rotate90() (*Canvas, error) {
	w := c.Width()
	h := c.Height()

	dst, err := NewCanvas(h, w)
	if err != nil {
		return nil, err
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.img.SetGray(h-1-y, x, c.img.GrayAt(x, y))
		}
	}

	return dst, nil
}

// EncodePNG serializes the buffer losslessly. This is the single exit
// point for both the board and error pipelines, so both produce
// identical image container semantics.
func (c *Canvas) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, c.img); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return buf.Bytes(), nil
}
