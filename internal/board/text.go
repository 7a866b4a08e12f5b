package board

import (
	"fmt"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Font sizes are fixed: bold 24pt for board content, regular 36pt and
// 12pt for the error image headline and detail lines.
const (
	boardFontSize    = 24
	headlineFontSize = 36
	detailFontSize   = 12
)

// fontSet holds the parsed typefaces shared by all render calls. Parsed
// fonts are immutable and safe to share; faces are built per call
// because font.Face is not safe for concurrent use.
type fontSet struct {
	bold    *opentype.Font
	regular *opentype.Font
}

func loadFonts() (*fontSet, error) {
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("%w: bold: %v", ErrTypeface, err)
	}

	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("%w: regular: %v", ErrTypeface, err)
	}

	return &fontSet{bold: bold, regular: regular}, nil
}

func newFace(fnt *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %.0fpt face: %v", ErrTypeface, size, err)
	}
	return face, nil
}

// TextBlob is a measured string ready for placement: the text, the face
// it was shaped against, its tight bounding box relative to the
// baseline origin, and its advance width.
type TextBlob struct {
	text    string
	face    font.Face
	bounds  image.Rectangle
	advance int
}

// MeasureText shapes text against face and returns its blob.
func MeasureText(face font.Face, text string) (*TextBlob, error) {
	if face == nil {
		return nil, fmt.Errorf("%w: no face for %q", ErrDraw, text)
	}

	b, adv := font.BoundString(face, text)
	return &TextBlob{
		text:    text,
		face:    face,
		bounds:  image.Rect(b.Min.X.Floor(), b.Min.Y.Floor(), b.Max.X.Ceil(), b.Max.Y.Ceil()),
		advance: adv.Ceil(),
	}, nil
}

// Width returns the tight glyph-run width.
func (b *TextBlob) Width() int { return b.bounds.Dx() }

// BoundsAt returns the bounding box translated to a baseline origin at
// (x, y).
func (b *TextBlob) BoundsAt(x, y int) image.Rectangle {
	return b.bounds.Add(image.Pt(x, y))
}
