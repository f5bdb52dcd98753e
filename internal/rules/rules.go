// Package rules holds the read-only scoring parameters of every minigame and
// the official team roster of the tournament.
package rules

import (
	"errors"
	"fmt"
)

// Table maps every game type to its scoring parameters. A Table is never
// mutated after it has been loaded.
type Table struct {
	Bingo          BingoRules          `yaml:"bingo"`
	ParkourChase   ParkourChaseRules   `yaml:"parkour_chase"`
	BattleBox      BattleBoxRules      `yaml:"battle_box"`
	TNTRun         TNTRunRules         `yaml:"tntrun"`
	SkyBrawl       SkyBrawlRules       `yaml:"skywars"`
	HotCod         HotCodRules         `yaml:"hot_cod"`
	RunawayWarrior RunawayWarriorRules `yaml:"runaway_warrior"`
	DodgingBolt    DodgingBoltRules    `yaml:"dodging_bolt"`

	// RoundMultipliers weights authoritative scores by tournament round.
	RoundMultipliers map[int]float64 `yaml:"round_multipliers"`
}

type BingoRules struct {
	// TeamPlacement is indexed by claim rank, 1st team to find an item first.
	TeamPlacement []int `yaml:"team_placement"`
	PlayerBonus   int   `yaml:"player_bonus"`
}

type ParkourChaseRules struct {
	Chaser struct {
		KillBonus           int `yaml:"kill_bonus"`
		CompleteElimination int `yaml:"complete_elimination"`
	} `yaml:"chaser"`

	Escaper struct {
		SurvivalBonus int `yaml:"survival_bonus"`
		TimeBonus     int `yaml:"time_bonus"`
		// TimeInterval is in seconds.
		TimeInterval int `yaml:"time_interval"`
	} `yaml:"escaper"`
}

type BattleBoxRules struct {
	Kill int `yaml:"kill"`
	Win  int `yaml:"win"`
}

type TNTRunRules struct {
	Survival       int   `yaml:"survival"`
	PlacementBonus []int `yaml:"placement_bonus"`
}

type SkyBrawlRules struct {
	Kill         int `yaml:"kill"`
	Survival     int `yaml:"survival"`
	LastStanding int `yaml:"last_standing"`
}

type HotCodRules struct {
	FirstHolderBonus int `yaml:"first_holder_bonus"`
	Survival         int `yaml:"survival"`
}

type RunawayWarriorRules struct {
	Checkpoints struct {
		TwoStar   int   `yaml:"two_star"`
		ThreeStar []int `yaml:"three_star"`
		FourStar  []int `yaml:"four_star"`
		FiveStar  []int `yaml:"five_star"`
	} `yaml:"checkpoints"`
}

type DodgingBoltRules struct {
	Elimination    int `yaml:"elimination"`
	WinsToChampion int `yaml:"wins_to_champion"`
	Rounds         int `yaml:"rounds"`
}

// Default returns the parameters used by the tournament when no rule file
// overrides them.
func Default() Table {
	var t Table

	t.Bingo.TeamPlacement = []int{50, 40, 30, 25, 20, 15, 10, 5}
	t.Bingo.PlayerBonus = 20

	t.ParkourChase.Chaser.KillBonus = 6
	t.ParkourChase.Chaser.CompleteElimination = 30
	t.ParkourChase.Escaper.SurvivalBonus = 20
	t.ParkourChase.Escaper.TimeBonus = 2
	t.ParkourChase.Escaper.TimeInterval = 10

	t.BattleBox = BattleBoxRules{Kill: 15, Win: 40}

	t.TNTRun = TNTRunRules{Survival: 4, PlacementBonus: []int{30, 20, 10}}

	t.SkyBrawl = SkyBrawlRules{Kill: 40, Survival: 10, LastStanding: 50}

	t.HotCod = HotCodRules{FirstHolderBonus: 10, Survival: 15}

	t.RunawayWarrior.Checkpoints.TwoStar = 2
	t.RunawayWarrior.Checkpoints.ThreeStar = []int{5, 10, 10, 15, 20}
	t.RunawayWarrior.Checkpoints.FourStar = []int{10, 15, 20, 25, 30}
	t.RunawayWarrior.Checkpoints.FiveStar = []int{15, 20, 25, 30, 50}

	t.DodgingBolt = DodgingBoltRules{Elimination: 50, WinsToChampion: 3, Rounds: 5}

	t.RoundMultipliers = map[int]float64{
		1: 1.0,
		2: 1.5,
		3: 1.5,
		4: 2.0,
		5: 2.0,
		6: 2.5,
		7: 3.0,
	}

	return t
}

// RoundMultiplier returns the weight of the given round, 1.0 if the round is
// not configured.
func (t Table) RoundMultiplier(round int) float64 {
	if m, ok := t.RoundMultipliers[round]; ok {
		return m
	}

	return 1.0
}

// Pick returns values[i], reusing the last element past the end of the list.
// An empty list yields 0.
func Pick(values []int, i int) int {
	if len(values) == 0 {
		return 0
	}
	if i < 0 {
		i = 0
	}

	return values[min(i, len(values)-1)]
}

// Validate rejects tables that could make a provisional score decrease.
func (t Table) Validate() error {
	var errs []error
	check := func(name string, values ...int) {
		for _, v := range values {
			if v < 0 {
				errs = append(errs, fmt.Errorf("%s: negative value %d", name, v))
				return
			}
		}
	}

	check("bingo.team_placement", t.Bingo.TeamPlacement...)
	check("bingo.player_bonus", t.Bingo.PlayerBonus)
	check("parkour_chase.chaser", t.ParkourChase.Chaser.KillBonus, t.ParkourChase.Chaser.CompleteElimination)
	check("parkour_chase.escaper", t.ParkourChase.Escaper.SurvivalBonus, t.ParkourChase.Escaper.TimeBonus)
	check("battle_box", t.BattleBox.Kill, t.BattleBox.Win)
	check("tntrun.survival", t.TNTRun.Survival)
	check("tntrun.placement_bonus", t.TNTRun.PlacementBonus...)
	check("skywars", t.SkyBrawl.Kill, t.SkyBrawl.Survival, t.SkyBrawl.LastStanding)
	check("hot_cod", t.HotCod.FirstHolderBonus, t.HotCod.Survival)
	check("runaway_warrior.checkpoints.two_star", t.RunawayWarrior.Checkpoints.TwoStar)
	check("runaway_warrior.checkpoints.three_star", t.RunawayWarrior.Checkpoints.ThreeStar...)
	check("runaway_warrior.checkpoints.four_star", t.RunawayWarrior.Checkpoints.FourStar...)
	check("runaway_warrior.checkpoints.five_star", t.RunawayWarrior.Checkpoints.FiveStar...)
	check("dodging_bolt.elimination", t.DodgingBolt.Elimination)

	nonEmpty := func(name string, values []int) {
		if len(values) == 0 {
			errs = append(errs, fmt.Errorf("%s: must not be empty", name))
		}
	}

	nonEmpty("bingo.team_placement", t.Bingo.TeamPlacement)
	nonEmpty("tntrun.placement_bonus", t.TNTRun.PlacementBonus)
	nonEmpty("runaway_warrior.checkpoints.three_star", t.RunawayWarrior.Checkpoints.ThreeStar)
	nonEmpty("runaway_warrior.checkpoints.four_star", t.RunawayWarrior.Checkpoints.FourStar)
	nonEmpty("runaway_warrior.checkpoints.five_star", t.RunawayWarrior.Checkpoints.FiveStar)

	if t.ParkourChase.Escaper.TimeInterval <= 0 {
		errs = append(errs, fmt.Errorf("parkour_chase.escaper.time_interval: must be positive, got %d", t.ParkourChase.Escaper.TimeInterval))
	}
	if t.DodgingBolt.WinsToChampion <= 0 {
		errs = append(errs, fmt.Errorf("dodging_bolt.wins_to_champion: must be positive, got %d", t.DodgingBolt.WinsToChampion))
	}
	for r, m := range t.RoundMultipliers {
		if m < 0 {
			errs = append(errs, fmt.Errorf("round_multipliers[%d]: negative multiplier %v", r, m))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("rules: invalid table: %w", errors.Join(errs...))
	}

	return nil
}
