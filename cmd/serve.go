package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dormwatch/dormwatch/internal/alert"
	"github.com/dormwatch/dormwatch/internal/capture"
	"github.com/dormwatch/dormwatch/internal/config"
	"github.com/dormwatch/dormwatch/internal/matcher"
	"github.com/dormwatch/dormwatch/internal/monitor"
	"github.com/dormwatch/dormwatch/internal/people"
	"github.com/dormwatch/dormwatch/internal/rooms"
	"github.com/dormwatch/dormwatch/internal/web"
	"github.com/dormwatch/dormwatch/internal/web/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the access-control display server",
	Long: `Start the Dormwatch server.
The server exposes camera and monitoring controls, the room directory,
people search and a WebSocket stream of per-frame authorization state.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Bool("pattern", false, "Use a synthetic test pattern instead of a real camera")
}

// buildDirectory seeds the permanent rooms from configuration.
func buildDirectory(cfg *config.Config) (*rooms.Directory, error) {
	seedData, err := cfg.RoomSeed()
	if err != nil {
		return nil, err
	}
	seed, err := rooms.ParseSeed(seedData)
	if err != nil {
		return nil, err
	}

	dir := rooms.NewDirectory()
	if err := dir.Seed(seed); err != nil {
		return nil, fmt.Errorf("seeding rooms: %w", err)
	}
	fmt.Printf("Seeded %d permanent room(s)\n", len(seed.Rooms))
	return dir, nil
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port, _ := cmd.Flags().GetInt("port")
	host, _ := cmd.Flags().GetString("host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Matcher.URL == "" {
		return errors.New("MATCHER_URL environment variable is required")
	}

	match, err := matcher.New(cfg.Matcher.URL, time.Duration(cfg.Matcher.TimeoutSeconds)*time.Second)
	if err != nil {
		return fmt.Errorf("creating matcher client: %w", err)
	}

	var ppl *people.Client
	if cfg.People.URL != "" {
		ppl, err = people.New(cfg.People.URL, time.Duration(cfg.Matcher.TimeoutSeconds)*time.Second)
		if err != nil {
			return fmt.Errorf("creating people client: %w", err)
		}
	}

	dir, err := buildDirectory(cfg)
	if err != nil {
		return err
	}

	var device capture.Device
	if usePattern, _ := cmd.Flags().GetBool("pattern"); usePattern {
		fmt.Println("Using synthetic test pattern as camera source")
		device = capture.NewPattern(640, 480)
	} else {
		device = capture.NewWebcam(cfg.Camera.DeviceID)
	}
	source := capture.NewSource(device)

	hub := handlers.NewHub()

	opts := monitor.Options{
		Interval:    time.Duration(cfg.Monitor.IntervalMS) * time.Millisecond,
		JPEGQuality: cfg.Monitor.JPEGQuality,
		OnUpdate:    hub.BroadcastStatus,
	}

	var emitter *alert.Emitter
	if cfg.MQTT.BrokerURL != "" {
		emitter, err = alert.NewEmitter(cfg.MQTT.BrokerURL, cfg.MQTT.ClientID, cfg.MQTT.Topic)
		if err != nil {
			return fmt.Errorf("connecting alert emitter: %w", err)
		}
		defer emitter.Close()
		opts.OnThreat = emitter.ThreatChanged
		fmt.Printf("Threat alerts enabled (MQTT %s)\n", cfg.MQTT.BrokerURL)
	}

	mon := monitor.New(source, match, dir, opts)
	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(port, host, hub, mon, dir, ppl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		mon.StopCamera()

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Dormwatch on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
