package behavior

import (
	"github.com/osada/npcmind/internal/config"
	"github.com/osada/npcmind/pkg/npc"
)

// cond and act keep tree assembly readable.
func cond(name string, pred Predicate) *Condition { return NewCondition(name, pred) }

func act(name string, fn ActionFunc) *Action { return NewAction(name, fn) }

// anyOf succeeds when at least one predicate does.
func anyOf(preds ...Predicate) Predicate {
	return func(n *npc.NPC, ctx *npc.Context) bool {
		for _, p := range preds {
			if p(n, ctx) {
				return true
			}
		}
		return false
	}
}

// blackboardFlag reads a boolean flag from the shared blackboard.
func blackboardFlag(key string) Predicate {
	return func(n *npc.NPC, ctx *npc.Context) bool {
		if ctx.Blackboard == nil {
			return false
		}
		flag, _ := ctx.Blackboard[key].(bool)
		return flag
	}
}

// buildCriticalTree covers threats that override everything else. A brave
// NPC is more likely to stand and fight, everyone else tends to run.
func buildCriticalTree(n *npc.NPC) Node {
	var fightOrFlight *Probability
	if n.Traits.Has(npc.TraitBrave) {
		fightOrFlight = NewProbability("fight_or_flight", act("defend", defendSelf), 0.7)
	} else {
		fightOrFlight = NewProbability("fight_or_flight", act("flee", flee), 0.3)
	}

	lifeThreat := NewParallel("life_threat_response", 1, 1,
		NewSequence("attack_response",
			cond("is_under_attack", isUnderAttack),
			fightOrFlight,
		),
		NewSequence("critical_injury",
			cond("is_critically_injured", isCriticallyInjured),
			act("seek_medical_help", seekMedicalHelp),
		),
		NewSequence("environmental_threat",
			cond("is_environmental_danger", isEnvironmentalDanger),
			act("evacuate", evacuate),
		),
	)

	return NewSelector("critical_responses", lifeThreat)
}

// buildNeedsTree handles hunger, energy and thirst. The whole block bails
// out when the NPC comes under attack or an emergency flag is raised.
func buildNeedsTree(cfg config.BehaviorConfig) Node {
	napCooldown := cfg.NapCooldown
	if napCooldown <= 0 {
		napCooldown = config.DefaultNapCooldown
	}

	hunger := NewSelector("hunger_management",
		NewSequence("extreme_hunger",
			cond("is_starving", hungerAbove(90)),
			act("desperate_food_search", desperateFoodSearch),
		),
		NewSequence("scheduled_meal",
			cond("is_meal_time", isMealTime),
			cond("is_hungry", isHungry),
			act("go_to_mess_hall", goToMessHall),
			act("eat_meal", eatMeal),
			act("socialize_during_meal", mealSocializing),
		),
		NewSequence("opportunistic_eating",
			cond("food_available", anyOf(hasFood, blackboardFlag("food_nearby"))),
			cond("moderately_hungry", hungerAbove(40)),
			act("eat_available_food", eatAvailableFood),
		),
	)

	energy := NewSelector("energy_management",
		NewSequence("collapse",
			cond("about_to_collapse", energyBelow(5)),
			act("collapse", collapseAction),
		),
		NewSequence("scheduled_sleep",
			NewTimeGated("night_time", cond("is_tired", isTired), 22, 6),
			act("go_to_bed", goToSleepingArea),
			act("sleep", sleepAction),
		),
		NewSequence("power_nap",
			cond("very_tired_daytime", func(n *npc.NPC, ctx *npc.Context) bool {
				return n.Energy < 20 && ctx.Hour >= 6 && ctx.Hour < 22
			}),
			NewCooldown("nap_cooldown", act("take_nap", takePowerNap), napCooldown),
		),
	)

	thirst := NewSequence("thirst_management",
		cond("is_thirsty", isThirsty),
		act("find_water", findWater),
		act("drink", drinkWater),
	)

	return NewInterruptableSequence("physical_needs",
		anyOf(isUnderAttack, blackboardFlag("emergency")),
		hunger, energy, thirst,
	)
}

// buildScheduleTree models the daily rhythm of the prison: sleep phases,
// three meals, a work shift and evening social hours.
func buildScheduleTree(cfg config.BehaviorConfig) Node {
	breakCooldown := cfg.WorkBreakCooldown
	if breakCooldown <= 0 {
		breakCooldown = config.DefaultWorkBreakCooldown
	}

	sleep := NewSequence("sleep_system",
		NewSequence("bedtime_routine",
			NewTimeGated("pre_sleep_time", cond("getting_tired", energyBelow(40)), 21, 23),
			act("evening_hygiene", eveningRoutine),
			act("go_to_bed", goToSleepingArea),
		),
		NewSequence("deep_sleep",
			NewTimeGated("night_hours", cond("is_sleeping", isSleepingState), 23, 5),
			act("sleep_deeply", deepSleep),
		),
		NewSequence("wake_routine",
			NewTimeGated("wake_time", cond("time_to_wake", alwaysTrue), 5, 7),
			act("wake_up", wakeUp),
			act("morning_routine", morningRoutine),
		),
	)

	meals := NewSelector("meal_system",
		NewSequence("breakfast",
			NewTimeGated("breakfast_time", cond("is_hungry_morning", hungerAbove(30)), 6, 8),
			act("go_to_breakfast", goToMessHall),
			act("eat_breakfast", eatMeal),
			NewProbability("breakfast_social", act("morning_chat", mealSocializing), 0.6),
		),
		NewSequence("lunch",
			NewTimeGated("lunch_time", cond("is_hungry_noon", hungerAbove(40)), 11, 14),
			act("go_to_lunch", goToMessHall),
			act("eat_lunch", eatMeal),
			act("lunch_social", mealSocializing),
		),
		NewSequence("dinner",
			NewTimeGated("dinner_time", cond("is_hungry_evening", hungerAbove(35)), 17, 19),
			act("go_to_dinner", goToMessHall),
			act("eat_dinner", eatMeal),
			act("dinner_social", extendedSocializing),
		),
	)

	work := NewInterruptableSequence("work_system",
		anyOf(isUnderAttack, blackboardFlag("work_emergency")),
		NewSequence("work_assignment",
			NewTimeGated("work_hours", cond("is_work_time", isWorkTime), 8, 17),
			cond("not_too_tired", energyAbove(20)),
			act("get_assignment", getWorkAssignment),
			act("do_work", performWork),
			NewCooldown("work_break", act("take_break", takeWorkBreak), breakCooldown),
		),
	)

	social := NewSelector("social_system",
		NewSequence("planned_social",
			NewTimeGated("social_hours", cond("is_social_time", isSocialTime), 19, 22),
			cond("wants_to_socialize", wantsToSocialize),
			act("find_friends", findSocialGroup),
			act("group_activity", engageInGroupActivity),
		),
		NewSequence("spontaneous_social",
			cond("opportunity_to_socialize", func(n *npc.NPC, ctx *npc.Context) bool {
				return canWorkTogether(n, ctx) && n.Rand().Float64() < 0.3
			}),
			NewProbability("mood_for_chat", act("spontaneous_chat", socialize), 0.5),
		),
	)

	return NewSelector("advanced_schedule", sleep, meals, work, social)
}

func buildGoalTree() Node {
	return NewSelector("goal_system",
		NewSequence("urgent_goals",
			cond("has_urgent_goal", hasUrgentGoal),
			act("pursue_urgent_goal", pursueUrgentGoal),
		),
		NewSequence("longterm_goals",
			cond("has_active_goal", hasActiveGoal),
			act("work_on_goal", workOnGoal),
		),
	)
}

func buildDefaultTree() Node {
	return NewRandomSelector("default_behavior",
		act("intelligent_rest", restAction),
		act("explore", exploreArea),
		act("observe_surroundings", observeEnvironment),
		act("maintain_equipment", maintainItems),
		act("personal_time", personalActivity),
	)
}

// BuildTree assembles the full behavior tree for one NPC. The layering is
// fixed: critical responses outrank needs, needs outrank the schedule, role
// duties slot in between, and personality, habits and emotional reactions
// color whatever is left before the idle fallback.
func BuildTree(n *npc.NPC, cfg config.BehaviorConfig) Node {
	priorityRoot := NewPriority("priority_root")

	priorityRoot.AddChild(buildCriticalTree(n), 100)
	priorityRoot.AddChild(buildNeedsTree(cfg), 80)
	priorityRoot.AddChild(buildScheduleTree(cfg), 60)
	priorityRoot.AddChild(buildGoalTree(), 50)

	switch n.Role {
	case npc.RoleWarden:
		priorityRoot.AddChild(buildWardenTree(n), 70)
	case npc.RoleGuard:
		priorityRoot.AddChild(buildGuardTree(n), 70)
	case npc.RolePrisoner:
		priorityRoot.AddChild(buildPrisonerTree(n), 65)
	case npc.RoleCreature:
		priorityRoot.AddChild(buildCreatureTree(n), 60)
	}

	if personality := buildPersonalityTree(n); personality != nil {
		priorityRoot.AddChild(personality, 40)
	}

	priorityRoot.AddChild(buildHabitTree(n), 30)
	priorityRoot.AddChild(buildEmotionalReactionTree(n), 35)
	priorityRoot.AddChild(buildDefaultTree(), 10)

	return NewBlackboard("root", priorityRoot)
}

// TreeBrain runs a behavior tree once per tick.
type TreeBrain struct {
	root Node
}

// NewTreeBrain wraps a built tree as an npc.Brain.
func NewTreeBrain(root Node) *TreeBrain {
	return &TreeBrain{root: root}
}

// Tick executes the tree. The returned status is deliberately dropped;
// a tick where every branch fails is a valid idle tick.
func (b *TreeBrain) Tick(n *npc.NPC, ctx *npc.Context) {
	b.root.Execute(n, ctx)
}
