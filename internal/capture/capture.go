// Package capture owns the camera device handle. A Source exposes the live
// frame surface plus its native resolution (intrinsic pixels of the feed)
// and displayed resolution (on-screen size reported by the UI layer), which
// may differ and change independently.
package capture

import (
	"errors"
	"fmt"
	"image"
	"sync"
)

var (
	// ErrDeviceUnavailable means camera permission was denied or no device
	// exists. Fatal to starting a session, recoverable by user retry.
	ErrDeviceUnavailable = errors.New("camera device unavailable")

	// ErrNotLive means a frame was requested while the source is released.
	ErrNotLive = errors.New("camera is not live")

	// ErrNoFrame means the device produced no frame for this read.
	ErrNoFrame = errors.New("no frame available")
)

// Size is a pixel width/height pair.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Size) valid() bool { return s.Width > 0 && s.Height > 0 }

// Device is a camera backend: a webcam in production, a synthetic pattern
// in tests and demos.
type Device interface {
	Open() error
	ReadFrame() (image.Image, error)
	Close() error
}

// Source holds exclusive access to one Device and tracks the native and
// displayed resolutions. Acquire while already live is a no-op; Release is
// idempotent.
type Source struct {
	mu      sync.Mutex
	device  Device
	live    bool
	native  Size
	display Size
}

// NewSource wraps a device. The device is not opened until Acquire.
func NewSource(device Device) *Source {
	return &Source{device: device}
}

// Acquire opens the camera device. Idle is the only state that actually
// opens hardware; acquiring while live leaves everything unchanged.
func (s *Source) Acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.live {
		return nil
	}
	if err := s.device.Open(); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	s.live = true
	return nil
}

// Release stops the underlying device and clears the surface reference.
// Safe to call repeatedly.
func (s *Source) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live {
		return
	}
	_ = s.device.Close()
	s.live = false
	s.native = Size{}
}

// Live reports whether the camera is currently acquired.
func (s *Source) Live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// Frame reads the current frame at native resolution and updates the native
// size from its bounds.
func (s *Source) Frame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live {
		return nil, ErrNotLive
	}
	img, err := s.device.ReadFrame()
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	s.native = Size{Width: b.Dx(), Height: b.Dy()}
	return img, nil
}

// NativeSize returns the intrinsic pixel size of the feed. Zero until the
// first frame has been read.
func (s *Source) NativeSize() Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.native
}

// DisplaySize returns the on-screen size of the rendering surface. Falls
// back to the native size until the UI layer reports one.
func (s *Source) DisplaySize() Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.display.valid() {
		return s.display
	}
	return s.native
}

// SetDisplaySize records the displayed resolution. The UI layer calls this
// on layout changes; invalid sizes are ignored.
func (s *Source) SetDisplaySize(sz Size) {
	if !sz.valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.display = sz
}
