// Package compositor turns a scene description into pixels. The engine only
// depends on the Renderer interface; the built-in renderer draws a plain
// chat mockup good enough for previews and golden tests, and a richer
// implementation can be swapped in without touching the timing core.
package compositor

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/ivlev/chat2video/internal/scene"
)

// Renderer produces the frame for one moment in time.
type Renderer interface {
	RenderFrame(sc scene.Scene, t float64) (image.Image, error)
}

var (
	colorBackground = color.RGBA{R: 0x12, G: 0x12, B: 0x16, A: 0xff}
	colorCard       = color.RGBA{R: 0x1f, G: 0x1f, B: 0x28, A: 0xff}
	colorPartner    = color.RGBA{R: 0x3a, G: 0x3a, B: 0x44, A: 0xff}
	colorSelf       = color.RGBA{R: 0x2e, G: 0x7c, B: 0xf6, A: 0xff}
	colorMedia      = color.RGBA{R: 0x55, G: 0x58, B: 0x62, A: 0xff}
	colorText       = color.RGBA{R: 0xf2, G: 0xf2, B: 0xf2, A: 0xff}
	colorMuted      = color.RGBA{R: 0x9a, G: 0x9a, B: 0xa4, A: 0xff}
)

// fill paints a solid rectangle, alpha-composited over what is already there.
func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// scaleAlpha multiplies a color's alpha by opacity for fade effects.
func scaleAlpha(c color.RGBA, opacity float64) color.RGBA {
	if opacity >= 1.0 {
		return c
	}
	if opacity < 0 {
		opacity = 0
	}
	return color.RGBA{
		R: uint8(float64(c.R) * opacity),
		G: uint8(float64(c.G) * opacity),
		B: uint8(float64(c.B) * opacity),
		A: uint8(float64(c.A) * opacity),
	}
}
