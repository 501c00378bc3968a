package app

import (
	"fmt"
	"image"
	"math"

	"github.com/golang/freetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	dpi     float64 = 72
	size    float64 = 16
	spacing float64 = 1.4
)

type Annotator struct {
	context *freetype.Context
}

func NewAnnotator() (*Annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	context := freetype.NewContext()
	context.SetDPI(dpi)
	context.SetFont(parsedFont)
	context.SetFontSize(size)
	context.SetSrc(image.White)
	context.SetHinting(font.HintingFull)

	return &Annotator{context: context}, nil
}

// Annotate writes the given lines into the top-left margin of the image.
func (a *Annotator) Annotate(img *image.RGBA, lines []string) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	lineHeight := int(math.Round(size * spacing))
	for i, line := range lines {
		pt := freetype.Pt(10, 10+(i+1)*lineHeight)
		if _, err := a.context.DrawString(line, pt); err != nil {
			return fmt.Errorf("drawing annotation %d: %w", i, err)
		}
	}

	return nil
}
