package capture

import (
	"image"
	"image/color"
	"sync"
)

// Pattern is a synthetic device producing a moving gradient. It stands in
// for a real camera in tests and in the snapshot command's --pattern mode.
type Pattern struct {
	width, height int

	mu     sync.Mutex
	open   bool
	frames int
}

// NewPattern creates a pattern device with a fixed native resolution.
func NewPattern(width, height int) *Pattern {
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 480
	}
	return &Pattern{width: width, height: height}
}

func (p *Pattern) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = true
	return nil
}

func (p *Pattern) ReadFrame() (image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return nil, ErrNoFrame
	}
	p.frames++
	shift := uint8(p.frames * 16)

	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	for y := 0; y < p.height; y++ {
		for x := 0; x < p.width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x) + shift,
				G: uint8(y),
				B: uint8(x+y) - shift,
				A: 0xff,
			})
		}
	}
	return img, nil
}

func (p *Pattern) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = false
	return nil
}

// Frames returns how many frames have been read. Test helper.
func (p *Pattern) Frames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}
