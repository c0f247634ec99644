package capture

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Webcam reads frames from a local camera through OpenCV.
type Webcam struct {
	deviceID int

	mu  sync.Mutex
	cam *gocv.VideoCapture
}

// NewWebcam creates a webcam device for the given OpenCV device id
// (typically 0 for the first camera).
func NewWebcam(deviceID int) *Webcam {
	return &Webcam{deviceID: deviceID}
}

// Open acquires the camera handle.
func (w *Webcam) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cam != nil {
		return nil
	}
	cam, err := gocv.OpenVideoCapture(w.deviceID)
	if err != nil {
		return fmt.Errorf("could not open camera %d: %w", w.deviceID, err)
	}
	if !cam.IsOpened() {
		_ = cam.Close()
		return fmt.Errorf("camera %d did not open", w.deviceID)
	}
	w.cam = cam
	return nil
}

// ReadFrame grabs one frame and converts it to an image.Image.
func (w *Webcam) ReadFrame() (image.Image, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cam == nil {
		return nil, errors.New("camera is not open")
	}

	mat := gocv.NewMat()
	defer mat.Close()

	if ok := w.cam.Read(&mat); !ok || mat.Empty() {
		return nil, ErrNoFrame
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("could not convert frame: %w", err)
	}
	return img, nil
}

// Close stops the underlying hardware tracks.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cam == nil {
		return nil
	}
	err := w.cam.Close()
	w.cam = nil
	return err
}
