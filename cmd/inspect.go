package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/osada/npcmind/internal/config"
	"github.com/osada/npcmind/internal/logger"
	"github.com/osada/npcmind/pkg/npc"
	"github.com/osada/npcmind/pkg/persist"
	"github.com/osada/npcmind/pkg/types"
	"github.com/spf13/cobra"
)

var (
	inspectSnapshot string
	inspectSource   string
)

// inspectCmd prints saved state without starting the simulation
var inspectCmd = &cobra.Command{
	Use:   "inspect [npc-id]",
	Short: "Print NPC state from a snapshot or the roster",
	Long: `Inspect reads the latest snapshot (or the one given with --snapshot)
and prints its contents as indented JSON. With an npc-id argument only
that NPC's state is printed.

With --from roster the roster file is read instead, which is useful for
checking what an NPC will look like before any simulation has run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

// npcListEntry is one row of the no-argument listing
type npcListEntry struct {
	ID       string  `json:"id"`
	Name     string  `json:"name,omitempty"`
	Role     string  `json:"role,omitempty"`
	State    string  `json:"state,omitempty"`
	Location string  `json:"location"`
	Health   float64 `json:"health,omitempty"`
	Gold     int     `json:"gold"`
}

// worldSummary is the no-argument snapshot view
type worldSummary struct {
	Version  int            `json:"version"`
	SavedAt  time.Time      `json:"saved_at"`
	SimTime  float64        `json:"sim_time"`
	Hour     int            `json:"hour"`
	Events   int            `json:"events"`
	NPCCount int            `json:"npc_count"`
	NPCs     []npcListEntry `json:"npcs"`
}

// runInspect executes the inspection logic
func runInspect(cmd *cobra.Command, args []string) error {
	// Keep stdout clean for JSON; diagnostics go to stderr
	logCfg := config.DefaultLoggingConfig()
	logCfg.Level = "warn"
	logCfg.Output = "stderr"
	if logLevel != "" {
		logCfg.Level = logLevel
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return err
	}
	rootLog = log

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	var npcID string
	if len(args) == 1 {
		npcID = args[0]
	}

	switch inspectSource {
	case "snapshot":
		return inspectFromSnapshot(cfg, npcID)
	case "roster":
		return inspectFromRoster(cfg, npcID)
	default:
		return types.NewError(types.ErrCodeInvalidArgument,
			fmt.Sprintf("unknown source: %s (must be snapshot or roster)", inspectSource))
	}
}

// inspectFromSnapshot prints state out of a saved world snapshot
func inspectFromSnapshot(cfg *config.Config, npcID string) error {
	store, err := persist.NewSnapshotStore(cfg.Persistence, rootLog)
	if err != nil {
		return err
	}
	defer store.Close()

	path := inspectSnapshot
	if path == "" {
		latest, err := store.Latest()
		if err != nil {
			return err
		}
		path = latest
	}

	snap, err := store.Load(path)
	if err != nil {
		return err
	}

	if npcID != "" {
		state, ok := snap.NPCs[npcID]
		if !ok {
			return types.NewError(types.ErrCodeNotFound,
				fmt.Sprintf("npc %s not in snapshot %s", npcID, path))
		}
		return printJSON(state)
	}

	summary := worldSummary{
		Version:  snap.Version,
		SavedAt:  snap.SavedAt,
		SimTime:  snap.SimTime,
		Hour:     types.HourOf(snap.SimTime),
		Events:   len(snap.Events),
		NPCCount: len(snap.NPCs),
	}
	for _, state := range snap.NPCs {
		summary.NPCs = append(summary.NPCs, npcListEntry{
			ID:       state.ID,
			State:    string(state.State),
			Location: state.Location,
			Health:   state.Combat.Health,
			Gold:     state.Gold,
		})
	}
	sortListEntries(summary.NPCs)
	return printJSON(summary)
}

// inspectFromRoster prints definitions out of the roster file
func inspectFromRoster(cfg *config.Config, npcID string) error {
	if cfg.Roster.Path == "" {
		return types.NewError(types.ErrCodeFailedPrecondition, "no roster configured")
	}

	roster, err := npc.LoadRoster(cfg.Roster.Path)
	if err != nil {
		return err
	}

	if npcID != "" {
		def, ok := roster.Find(npcID)
		if !ok {
			return types.NewError(types.ErrCodeNotFound,
				fmt.Sprintf("npc %s not in roster %s", npcID, cfg.Roster.Path))
		}
		return printJSON(def)
	}

	entries := make([]npcListEntry, 0, len(roster.NPCs))
	for _, def := range roster.NPCs {
		entries = append(entries, npcListEntry{
			ID:       def.ID,
			Name:     def.Name,
			Role:     def.Role,
			Location: def.Location,
			Gold:     def.Gold,
		})
	}
	sortListEntries(entries)
	return printJSON(entries)
}

// sortListEntries orders listings by id
func sortListEntries(entries []npcListEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
}

// printJSON writes a value to stdout as indented JSON
func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func init() {
	inspectCmd.Flags().StringVar(&inspectSnapshot, "snapshot", "",
		"Snapshot file path (default: latest in the state directory)")
	inspectCmd.Flags().StringVar(&inspectSource, "from", "snapshot",
		"Where to read from: snapshot or roster")

	rootCmd.AddCommand(inspectCmd)
}
