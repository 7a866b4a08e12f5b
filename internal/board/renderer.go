package board

import (
	"errors"
	"strconv"
	"strings"

	"github.com/inkboard/board-renderer/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/image/font"
)

// Layout constants. The fixed vertical rhythm keeps the board stable
// regardless of how many departures each section carries.
const (
	topMargin       = 38 // first baseline of each panel
	labelInset      = 20 // left margin for line labels
	separatorInset  = 40 // inner margin for the light line separators
	lineAdvance     = 40 // cursor advance after a non-last line
	lastLineAdvance = 15 // cursor advance after the last line of a section
	sectionGap      = 28 // cursor advance after the section separator
	separatorDrop   = 15 // separator offset below the current baseline
)

// Error image geometry.
const (
	errorTextX     = 100
	errorHeadlineY = 200
	errorDetailY   = 250
	errorLineStep  = 20
)

// Renderer produces departure board images. It is safe for concurrent
// use: every render call allocates its own canvas and faces, and the
// shared parsed fonts are immutable.
type Renderer struct {
	fonts  *fontSet
	logger *zap.Logger
}

// NewRenderer parses the embedded typefaces once and returns a renderer
// logging through logger.
func NewRenderer(logger *zap.Logger) (*Renderer, error) {
	fonts, err := loadFonts()
	if err != nil {
		return nil, err
	}

	return &Renderer{
		fonts:  fonts,
		logger: logger,
	}, nil
}

// renderImage allocates a fresh canvas, runs draw against it, applies
// the Kindle rotation, and encodes the result as PNG. Both the board
// and error pipelines funnel through here.
func (r *Renderer) renderImage(target models.RenderTarget, layout *models.LayoutConfig, draw func(*Canvas) error) ([]byte, error) {
	canvas, err := NewCanvas(layout.Width, layout.Height)
	if err != nil {
		return nil, err
	}

	if err := draw(canvas); err != nil {
		return nil, err
	}

	if target == models.TargetKindle {
		canvas, err = canvas.Rotate90()
		if err != nil {
			return nil, err
		}
	}

	return canvas.EncodePNG()
}

// RenderBoard draws the two-panel departure board for stops as laid out
// by layout and returns it as PNG bytes.
func (r *Renderer) RenderBoard(target models.RenderTarget, stops models.StopData, layout *models.LayoutConfig) ([]byte, error) {
	face, err := newFace(r.fonts.bold, boardFontSize)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	halfway := layout.Width / 2

	return r.renderImage(target, layout, func(canvas *Canvas) error {
		y := topMargin
		for _, section := range layout.Left.Sections {
			if err := r.drawSection(canvas, face, stops, layout, section, 0, halfway, &y); err != nil {
				return err
			}
		}

		y = topMargin
		for _, section := range layout.Right.Sections {
			if err := r.drawSection(canvas, face, stops, layout, section, halfway, layout.Width, &y); err != nil {
				return err
			}
		}

		return nil
	})
}

// drawSection renders one (agency, direction) section between x1 and
// x2, advancing the panel's vertical cursor. A section whose pair is
// absent from the data is skipped with a warning and the cursor left
// untouched; missing data must degrade the board, not kill it.
func (r *Renderer) drawSection(
	canvas *Canvas,
	face font.Face,
	stops models.StopData,
	layout *models.LayoutConfig,
	section models.SectionSpec,
	x1, x2 int,
	y *int,
) error {
	agency, ok := stops[section.Agency]
	if !ok {
		r.logger.Warn("missing data for expected agency",
			zap.String("agency", section.Agency))
		return nil
	}

	lines, ok := agency[section.Direction]
	if !ok {
		r.logger.Warn("missing data for expected direction within agency",
			zap.String("agency", section.Agency),
			zap.String("direction", section.Direction))
		return nil
	}

	// Right panel sections carry the full-height column divider.
	if x1 > 0 {
		canvas.DrawLine(x1, 0, x1, layout.Height, colorBlack)
	}

	for idx, entry := range lines {
		x := x1 + labelInset

		nameBlob, err := MeasureText(face, entry.Line.Line)
		if err != nil {
			return err
		}
		canvas.FillOval(nameBlob.BoundsAt(x, *y), colorGrey)
		canvas.DrawText(nameBlob, x, *y, colorBlack)

		destBlob, err := MeasureText(face, entry.Line.Destination)
		if err != nil {
			return err
		}
		canvas.DrawText(destBlob, x+nameBlob.Width(), *y, colorBlack)

		timeBlob, err := MeasureText(face, formatMinutes(entry.Upcoming))
		if err != nil {
			return err
		}
		canvas.DrawText(timeBlob, x2-timeBlob.Width(), *y, colorBlack)

		if idx < len(lines)-1 {
			canvas.DrawLine(x1+separatorInset, *y+separatorDrop, x2-separatorInset, *y+separatorDrop, colorGrey)
			*y += lineAdvance
		} else {
			*y += lastLineAdvance
		}
	}

	canvas.DrawLine(x1, *y, x2, *y, colorBlack)
	*y += sectionGap

	return nil
}

// RenderError paints a degraded-mode image carrying err's cause chain,
// one message per line. It shares the canvas, rotation, and encode path
// with RenderBoard so the output stays format compatible with normal
// boards. There is no further fallback below this.
func (r *Renderer) RenderError(target models.RenderTarget, layout *models.LayoutConfig, cause error) ([]byte, error) {
	headlineFace, err := newFace(r.fonts.regular, headlineFontSize)
	if err != nil {
		return nil, err
	}
	defer headlineFace.Close()

	detailFace, err := newFace(r.fonts.regular, detailFontSize)
	if err != nil {
		return nil, err
	}
	defer detailFace.Close()

	return r.renderImage(target, layout, func(canvas *Canvas) error {
		headline, err := MeasureText(headlineFace, "ERROR")
		if err != nil {
			return err
		}
		canvas.DrawText(headline, errorTextX, errorHeadlineY, colorBlack)

		y := errorDetailY
		for e := cause; e != nil; e = errors.Unwrap(e) {
			blob, err := MeasureText(detailFace, e.Error())
			if err != nil {
				return err
			}
			canvas.DrawText(blob, errorTextX, y, colorBlack)
			y += errorLineStep
		}

		return nil
	})
}

// formatMinutes joins the minutes-until values in feed order: arrivals
// in 3 and 11 minutes become "3, 11 min".
func formatMinutes(upcoming []models.Upcoming) string {
	parts := make([]string, len(upcoming))
	for i, u := range upcoming {
		parts[i] = strconv.Itoa(u.Minutes)
	}
	return strings.Join(parts, ", ") + " min"
}
