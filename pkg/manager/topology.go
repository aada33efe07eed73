package manager

// defaultConnections is the standard prison layout. Game integrations
// replace it through SetTopology; behaviors that move NPCs around use the
// same room names.
func defaultConnections() map[string][]string {
	return map[string][]string{
		"cell_block":    {"corridor_main", "showers", "bathroom"},
		"corridor_main": {"cell_block", "main_hall", "guard_room", "infirmary", "solitary"},
		"main_hall":     {"corridor_main", "mess_hall", "library", "chapel", "main_gate", "common_room"},
		"mess_hall":     {"main_hall", "kitchen"},
		"kitchen":       {"mess_hall", "storage", "garbage"},
		"storage":       {"kitchen", "storage_room"},
		"storage_room":  {"storage", "cell_basement"},
		"cell_basement": {"storage_room", "dungeon"},
		"dungeon":       {"cell_basement"},
		"garbage":       {"kitchen", "courtyard"},
		"guard_room":    {"corridor_main", "armory", "warden_office"},
		"warden_office": {"guard_room"},
		"armory":        {"guard_room"},
		"infirmary":     {"corridor_main"},
		"solitary":      {"corridor_main"},
		"library":       {"main_hall"},
		"chapel":        {"main_hall"},
		"common_room":   {"main_hall", "exercise_yard"},
		"exercise_yard": {"common_room", "courtyard", "workshop"},
		"courtyard":     {"exercise_yard", "main_gate", "laundry_room", "garbage", "fountain"},
		"fountain":      {"courtyard"},
		"workshop":      {"exercise_yard"},
		"laundry_room":  {"courtyard"},
		"main_gate":     {"main_hall", "courtyard", "watchtower"},
		"watchtower":    {"main_gate"},
		"showers":       {"cell_block"},
		"bathroom":      {"cell_block"},
	}
}

// defaultDarkLocations never see daylight regardless of the hour
func defaultDarkLocations() map[string]bool {
	return map[string]bool{
		"dungeon":       true,
		"cell_basement": true,
		"storage_room":  true,
	}
}
