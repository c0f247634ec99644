package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dormwatch/dormwatch/internal/capture"
	"github.com/dormwatch/dormwatch/internal/config"
	"github.com/dormwatch/dormwatch/internal/matcher"
	"github.com/dormwatch/dormwatch/internal/monitor"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture frames and print what the matching service detects",
	Long: `Acquire the camera, capture a few warm-up frames, send the last one to
the face-matching service and print the detections. Useful for checking the
camera and service wiring before starting the server.`,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().Int("frames", 10, "Number of warm-up frames to capture")
	snapshotCmd.Flags().Bool("pattern", false, "Use a synthetic test pattern instead of a real camera")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Matcher.URL == "" {
		return errors.New("MATCHER_URL environment variable is required")
	}
	match, err := matcher.New(cfg.Matcher.URL, time.Duration(cfg.Matcher.TimeoutSeconds)*time.Second)
	if err != nil {
		return fmt.Errorf("creating matcher client: %w", err)
	}

	frames, _ := cmd.Flags().GetInt("frames")
	if frames < 1 {
		frames = 1
	}

	var device capture.Device
	if usePattern, _ := cmd.Flags().GetBool("pattern"); usePattern {
		device = capture.NewPattern(640, 480)
	} else {
		device = capture.NewWebcam(cfg.Camera.DeviceID)
	}

	source := capture.NewSource(device)
	if err := source.Acquire(); err != nil {
		return err
	}
	defer source.Release()

	// Cameras need a few reads before exposure settles; keep the last frame.
	bar := progressbar.Default(int64(frames), "capturing")
	var last []byte
	for i := 0; i < frames; i++ {
		frame, err := source.Frame()
		if err != nil {
			return fmt.Errorf("reading frame %d: %w", i+1, err)
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: monitor.DefaultJPEGQuality}); err != nil {
			return fmt.Errorf("encoding frame: %w", err)
		}
		last = buf.Bytes()
		_ = bar.Add(1)
	}

	native := source.NativeSize()
	fmt.Printf("Captured %d frame(s) at %dx%d\n", frames, native.Width, native.Height)

	dets, err := match.ProcessFrame(context.Background(), last)
	if err != nil {
		return fmt.Errorf("matching service: %w", err)
	}

	if len(dets) == 0 {
		fmt.Println("No faces detected")
		return nil
	}
	fmt.Printf("Detected %d face(s):\n", len(dets))
	for _, d := range dets {
		fmt.Printf("  %-24s score=%.2f box=(%d,%d %dx%d)\n",
			d.Label(), d.MatchScore, d.X, d.Y, d.Width, d.Height)
	}
	return nil
}
