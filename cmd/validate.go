package cmd

import (
	"fmt"
	"strings"

	"github.com/osada/npcmind/pkg/npc"
	"github.com/spf13/cobra"
)

// validateCmd checks config and roster files without starting the simulation
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and roster files",
	Long: `Validate loads the configuration and the NPC roster through the same
code paths the run command uses and reports what it finds. Nothing is
started and nothing is written.`,
	RunE: runValidate,
}

// runValidate executes the validation logic
func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	fmt.Println("config: OK")
	fmt.Printf("  logging      level=%s format=%s output=%s\n",
		cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	fmt.Printf("  simulation   tick=%s scale=%.0fx start_hour=%d seed=%d\n",
		cfg.Simulation.TickInterval, cfg.Simulation.TimeScale,
		cfg.Simulation.StartHour, cfg.Simulation.Seed)
	fmt.Printf("  memory       episodic_capacity=%d consolidation=%.0fs decay=%.3f\n",
		cfg.Memory.EpisodicCapacity, cfg.Memory.ConsolidationInterval, cfg.Memory.DecayRate)
	fmt.Printf("  persistence  enabled=%t state_dir=%s journal=%t autosave=%s\n",
		cfg.Persistence.Enabled, cfg.Persistence.StateDir,
		cfg.Persistence.JournalEnabled, cfg.Persistence.AutosaveInterval)

	if cfg.Roster.Path == "" {
		fmt.Println("roster: not configured")
		return nil
	}

	roster, err := npc.LoadRoster(cfg.Roster.Path)
	if err != nil {
		return fmt.Errorf("roster: %w", err)
	}
	fmt.Printf("roster: OK (%s)\n", cfg.Roster.Path)
	fmt.Printf("  npcs=%d schedule_templates=%d watch=%t\n",
		len(roster.NPCs), len(roster.ScheduleTemplates), cfg.Roster.Watch)
	for _, def := range roster.NPCs {
		traits := strings.Join(def.Personality, ",")
		if traits == "" {
			traits = "-"
		}
		fmt.Printf("  %-12s %-20s role=%-10s location=%-14s traits=%s\n",
			def.ID, def.Name, def.Role, def.Location, traits)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
