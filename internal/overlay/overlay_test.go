package overlay

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/dormwatch/dormwatch/internal/authz"
	"github.com/dormwatch/dormwatch/internal/capture"
	"github.com/dormwatch/dormwatch/internal/detect"
)

func face(x, y, w, h int, identity string, authorized bool) authz.FaceStatus {
	return authz.FaceStatus{
		Detection:  detect.Detection{X: x, Y: y, Width: w, Height: h, MatchedIdentity: identity},
		Authorized: authorized,
	}
}

func TestRenderScalesAxesIndependently(t *testing.T) {
	native := capture.Size{Width: 100, Height: 100}
	display := capture.Size{Width: 200, Height: 50}

	// sx=2.0, sy=0.5: box (10,20)-(40,60) native maps to (20,10)-(80,30).
	img := Render([]authz.FaceStatus{face(10, 20, 30, 40, "Alice", true)}, native, display)

	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 50 {
		t.Fatalf("canvas should match the displayed size, got %v", img.Bounds())
	}
	if got := img.RGBAAt(20, 10); got != authorizedColor {
		t.Errorf("expected scaled top-left border pixel at (20,10), got %v", got)
	}
	if got := img.RGBAAt(79, 29); got != authorizedColor {
		t.Errorf("expected scaled bottom-right border pixel at (79,29), got %v", got)
	}
	// Inside the box, past the border and the label tag, the canvas stays
	// transparent.
	if got := img.RGBAAt(72, 20); got != (color.RGBA{}) {
		t.Errorf("box interior should stay transparent, got %v", got)
	}
}

func TestRenderColorsByAuthorization(t *testing.T) {
	size := capture.Size{Width: 200, Height: 200}
	faces := []authz.FaceStatus{
		face(10, 50, 40, 40, "Alice", true),
		face(100, 50, 40, 40, detect.UnknownIdentity, false),
	}

	img := Render(faces, size, size)

	if got := img.RGBAAt(11, 51); got != authorizedColor {
		t.Errorf("authorized face should be framed green, got %v", got)
	}
	if got := img.RGBAAt(101, 51); got != unauthorizedColor {
		t.Errorf("unauthorized face should be framed red, got %v", got)
	}
}

func TestRenderEmptyIsTransparent(t *testing.T) {
	img := Render(nil, capture.Size{Width: 32, Height: 32}, capture.Size{Width: 32, Height: 32})

	for i, px := range img.Pix {
		if px != 0 {
			t.Fatalf("expected a fully transparent canvas, non-zero byte at %d", i)
		}
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	size := capture.Size{Width: 120, Height: 90}
	faces := []authz.FaceStatus{face(5, 30, 50, 40, "Alice", true)}

	first := Render(faces, size, size)
	second := Render(faces, size, size)

	if !bytes.Equal(first.Pix, second.Pix) {
		t.Error("repeated renders of the same input must paint identical images")
	}
}

func TestRenderLabelAboveBox(t *testing.T) {
	size := capture.Size{Width: 200, Height: 200}
	img := Render([]authz.FaceStatus{face(20, 60, 50, 50, "Alice", true)}, size, size)

	// The tag sits directly above the box top edge.
	if got := img.RGBAAt(22, 58); got != authorizedColor {
		t.Errorf("expected label background above the box, got %v", got)
	}
}

func TestRenderLabelFallsInsideBoxAtTopEdge(t *testing.T) {
	size := capture.Size{Width: 200, Height: 200}
	img := Render([]authz.FaceStatus{face(20, 0, 50, 50, "Alice", false)}, size, size)

	// No room above the box: the tag drops inside its top instead. Pick a
	// pixel below the border strip but within the tag height.
	if got := img.RGBAAt(22, borderWidth+2); got != unauthorizedColor {
		t.Errorf("expected label background inside the box top, got %v", got)
	}
}

func TestRenderFallsBackToNativeSize(t *testing.T) {
	img := Render(nil, capture.Size{Width: 64, Height: 48}, capture.Size{})

	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Errorf("zero display size should fall back to native, got %v", img.Bounds())
	}
}

func TestEncodePNG(t *testing.T) {
	img := Render(nil, capture.Size{Width: 8, Height: 8}, capture.Size{Width: 8, Height: 8})

	data, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("encoded bytes are not a PNG stream")
	}
}
