package rooms

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Seed is the static permanent-room configuration loaded before the monitor
// can activate a room.
type Seed struct {
	Rooms []SeedRoom `yaml:"rooms"`
}

// SeedRoom describes one permanent room in the seed file.
type SeedRoom struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Members []string `yaml:"members"`
}

// ParseSeed parses a YAML seed document.
func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("could not parse room seed: %w", err)
	}
	return seed, nil
}
