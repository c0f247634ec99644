package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dormwatch/dormwatch/internal/config"
	"github.com/dormwatch/dormwatch/internal/rooms"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Print the seeded permanent rooms",
	Long: `Parse the permanent-room seed (embedded default or ROOMS_SEED_FILE) and
print the resulting directory. Rooms created through the API live only in
server memory and do not appear here.`,
	RunE: runRooms,
}

func init() {
	rootCmd.AddCommand(roomsCmd)
}

func runRooms(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	seedData, err := cfg.RoomSeed()
	if err != nil {
		return err
	}
	seed, err := rooms.ParseSeed(seedData)
	if err != nil {
		return err
	}

	dir := rooms.NewDirectory()
	if err := dir.Seed(seed); err != nil {
		return fmt.Errorf("seeding rooms: %w", err)
	}

	for _, room := range dir.List() {
		fmt.Printf("%s (%s)\n", room.Name, room.ID)
		if len(room.Members) == 0 {
			fmt.Println("  no members")
			continue
		}
		fmt.Printf("  %s\n", strings.Join(room.Members, ", "))
	}
	return nil
}
