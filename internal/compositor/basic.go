package compositor

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/chat2video/internal/scene"
	"github.com/ivlev/chat2video/internal/script"
	"github.com/ivlev/chat2video/internal/system"
)

// Basic renders flat chat frames: title card, message bubbles, typing dots,
// divider captions. It approximates the camera push-in by enlarging the
// bubble layout instead of resampling pixels.
type Basic struct {
	Width  int
	Height int
	Script *script.Script

	face font.Face
}

// NewBasic creates the built-in renderer for one script.
func NewBasic(width, height int, s *script.Script) *Basic {
	return &Basic{
		Width:  width,
		Height: height,
		Script: s,
		face:   basicfont.Face7x13,
	}
}

// RenderFrame implements Renderer. It is a pure function of the scene: the
// renderer keeps no state between frames.
func (b *Basic) RenderFrame(sc scene.Scene, t float64) (image.Image, error) {
	img := system.GetFrame(image.Rect(0, 0, b.Width, b.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)

	if sc.Phase == scene.PhaseIntro {
		b.drawIntro(img, sc)
		return img, nil
	}

	b.drawConversation(img, sc)
	return img, nil
}

// drawIntro paints the title card with the scene's opacity and scale.
func (b *Basic) drawIntro(img *image.RGBA, sc scene.Scene) {
	if sc.IntroOpacity <= 0 {
		return
	}

	cardW := int(float64(b.Width) * 0.8 * sc.IntroScale)
	cardH := int(float64(b.Height) * 0.22 * sc.IntroScale)
	x0 := (b.Width - cardW) / 2
	y0 := (b.Height - cardH) / 2

	fill(img, image.Rect(x0, y0, x0+cardW, y0+cardH), scaleAlpha(colorCard, sc.IntroOpacity))
	b.drawTextCentered(img, b.Script.IntroText, b.Width/2, b.Height/2, scaleAlpha(colorText, sc.IntroOpacity))
}

// drawConversation lays out the visible tail of the conversation from the
// bottom of the screen upward, the way a phone shows the latest messages.
func (b *Basic) drawConversation(img *image.RGBA, sc scene.Scene) {
	bubbleH := 110
	gap := 26
	if sc.CameraZoomed {
		bubbleH = 126
		gap = 30
	}

	y := b.Height - 220

	if sc.Typing.Active {
		b.drawBubble(img, image.Rect(60, y-bubbleH, 60+220, y), colorPartner, 1.0)
		b.drawTextCentered(img, "• • •", 60+110, y-bubbleH/2, colorMuted)
		y -= bubbleH + gap
	}

	for i := len(sc.Visible) - 1; i >= 0 && y-bubbleH > 160; i-- {
		m := sc.Visible[i]
		ev := &b.Script.Events[m.Index]

		if ev.IsDivider() {
			b.drawTextCentered(img, ev.Text, b.Width/2, y-bubbleH/2, colorMuted)
			y -= bubbleH + gap
			continue
		}

		side := b.Script.SenderSide(ev.Sender)
		w := b.bubbleWidth(ev)
		h := bubbleH
		c := colorSelf
		x0 := b.Width - 60 - w
		if side == script.SideLeft {
			c = colorPartner
			x0 = 60
		}
		if ev.IsMedia() {
			c = colorMedia
			w = int(float64(b.Width) * 0.6 * m.PopScale)
			h = int(float64(bubbleH) * 2.2 * m.PopScale)
			if side == script.SideRight {
				x0 = b.Width - 60 - w
			}
		}

		yOff := int(m.PopOffset)
		b.drawBubble(img, image.Rect(x0, y-h+yOff, x0+w, y+yOff), c, m.PopOpacity)
		if ev.Text != "" {
			b.drawTextCentered(img, ev.Text, x0+w/2, y-h/2+yOff, scaleAlpha(colorText, m.PopOpacity))
		}
		y -= h + gap
	}

	if sc.OverlayText != "" {
		fill(img, image.Rect(0, 140, b.Width, 230), colorCard)
		b.drawTextCentered(img, sc.OverlayText, b.Width/2, 185, colorText)
	}
}

func (b *Basic) bubbleWidth(ev *script.Event) int {
	w := 160 + 14*ev.Length()
	max := int(float64(b.Width) * 0.72)
	if w > max {
		w = max
	}
	return w
}

func (b *Basic) drawBubble(img *image.RGBA, r image.Rectangle, c color.RGBA, opacity float64) {
	fill(img, r, scaleAlpha(c, opacity))
}

func (b *Basic) drawTextCentered(img *image.RGBA, text string, cx, cy int, c color.RGBA) {
	if text == "" {
		return
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: b.face,
	}
	w := d.MeasureString(text)
	d.Dot = fixed.P(cx-w.Round()/2, cy+4)
	d.DrawString(text)
}
