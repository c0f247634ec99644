package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
)

//go:embed rooms.yaml
var roomsYAML []byte

type Config struct {
	Matcher Matcher
	People  People
	Camera  Camera
	Monitor Monitor
	Rooms   Rooms
	MQTT    MQTT
}

type Matcher struct {
	URL            string
	TimeoutSeconds int // timeout for one matching call (default 10)
}

type People struct {
	URL string // defaults to the matcher URL (the matching backend serves both)
}

type Camera struct {
	DeviceID int // OpenCV device id (default 0)
}

type Monitor struct {
	IntervalMS  int // pause after each completed sample (default 500)
	JPEGQuality int // lossy encoding quality for sampled frames (default 80)
}

type Rooms struct {
	SeedFile string // optional path overriding the embedded permanent-room seed
}

type MQTT struct {
	BrokerURL string // empty disables alerting
	ClientID  string
	Topic     string
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func Load() *Config {
	cfg := &Config{
		Matcher: Matcher{
			URL:            os.Getenv("MATCHER_URL"),
			TimeoutSeconds: envInt("MATCHER_TIMEOUT_SECONDS", 10),
		},
		People: People{
			URL: os.Getenv("PEOPLE_URL"),
		},
		Camera: Camera{
			DeviceID: envInt("CAMERA_DEVICE_ID", 0),
		},
		Monitor: Monitor{
			IntervalMS:  envInt("MONITOR_INTERVAL_MS", 500),
			JPEGQuality: envInt("MONITOR_JPEG_QUALITY", 80),
		},
		Rooms: Rooms{
			SeedFile: os.Getenv("ROOMS_SEED_FILE"),
		},
		MQTT: MQTT{
			BrokerURL: os.Getenv("MQTT_BROKER_URL"),
			ClientID:  os.Getenv("MQTT_CLIENT_ID"),
			Topic:     os.Getenv("MQTT_TOPIC"),
		},
	}
	if cfg.People.URL == "" {
		cfg.People.URL = cfg.Matcher.URL
	}
	return cfg
}

// RoomSeed returns the permanent-room seed document: the configured seed
// file when set, the embedded default otherwise.
func (c *Config) RoomSeed() ([]byte, error) {
	if c.Rooms.SeedFile == "" {
		return roomsYAML, nil
	}
	data, err := os.ReadFile(c.Rooms.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("could not read room seed file: %w", err)
	}
	return data, nil
}
