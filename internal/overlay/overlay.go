// Package overlay paints authorization boxes and identity labels over the
// video surface. Every call produces a fresh paint; nothing accumulates
// across frames.
package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/dormwatch/dormwatch/internal/authz"
	"github.com/dormwatch/dormwatch/internal/capture"
)

const (
	borderWidth = 3
	labelPadX   = 4
	labelPadY   = 3
)

var (
	authorizedColor   = color.RGBA{R: 0x22, G: 0xc5, B: 0x5e, A: 0xff}
	unauthorizedColor = color.RGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}
	labelTextColor    = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Render paints all faces onto a transparent canvas of the displayed size.
// Rectangles are scaled from native to displayed coordinates with
// independent X/Y factors, so aspect distortion between the two sizes is
// reproduced, not corrected. Authorized faces are green, unauthorized red.
func Render(faces []authz.FaceStatus, native, display capture.Size) *image.RGBA {
	if display.Width <= 0 || display.Height <= 0 {
		display = native
	}
	img := image.NewRGBA(image.Rect(0, 0, max(display.Width, 1), max(display.Height, 1)))

	sx, sy := 1.0, 1.0
	if native.Width > 0 {
		sx = float64(display.Width) / float64(native.Width)
	}
	if native.Height > 0 {
		sy = float64(display.Height) / float64(native.Height)
	}

	for _, f := range faces {
		boxColor := unauthorizedColor
		if f.Authorized {
			boxColor = authorizedColor
		}

		d := f.Detection
		box := image.Rect(
			int(float64(d.X)*sx),
			int(float64(d.Y)*sy),
			int(float64(d.X+d.Width)*sx),
			int(float64(d.Y+d.Height)*sy),
		)
		drawBorder(img, box, boxColor)
		drawLabel(img, box, d.Label(), boxColor)
	}
	return img
}

// EncodePNG encodes a rendered overlay for transport.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("could not encode overlay: %w", err)
	}
	return buf.Bytes(), nil
}

// drawBorder paints a rectangle outline as four filled strips.
func drawBorder(img *image.RGBA, box image.Rectangle, c color.RGBA) {
	src := &image.Uniform{C: c}
	strips := []image.Rectangle{
		image.Rect(box.Min.X, box.Min.Y, box.Max.X, box.Min.Y+borderWidth),
		image.Rect(box.Min.X, box.Max.Y-borderWidth, box.Max.X, box.Max.Y),
		image.Rect(box.Min.X, box.Min.Y, box.Min.X+borderWidth, box.Max.Y),
		image.Rect(box.Max.X-borderWidth, box.Min.Y, box.Max.X, box.Max.Y),
	}
	for _, s := range strips {
		draw.Draw(img, s.Intersect(img.Bounds()), src, image.Point{}, draw.Src)
	}
}

// drawLabel paints an opaque identity tag anchored above the box. When the
// box touches the top edge and the tag would need off-surface space, the
// tag drops inside the top of the box instead.
func drawLabel(img *image.RGBA, box image.Rectangle, text string, c color.RGBA) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, text).Ceil()
	tagW := textWidth + 2*labelPadX
	tagH := face.Metrics().Height.Ceil() + 2*labelPadY

	tag := image.Rect(box.Min.X, box.Min.Y-tagH, box.Min.X+tagW, box.Min.Y)
	if tag.Min.Y < img.Bounds().Min.Y {
		tag = image.Rect(box.Min.X, box.Min.Y, box.Min.X+tagW, box.Min.Y+tagH)
	}

	draw.Draw(img, tag.Intersect(img.Bounds()), &image.Uniform{C: c}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: labelTextColor},
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(tag.Min.X + labelPadX),
			Y: fixed.I(tag.Min.Y + labelPadY + face.Metrics().Ascent.Ceil()),
		},
	}
	drawer.DrawString(text)
}
