package engine

import (
	"slices"
	"time"
)

// AuxState is the game-type specific part of a session. The set of
// implementations is closed: one state per GameType.
type AuxState interface {
	gameType() GameType
}

func newAuxState(t GameType) AuxState {
	switch t {
	case GameBingo:
		return &BingoState{Claims: make(map[string][]string)}
	case GameParkourChase:
		return &ParkourChaseState{
			ChaserCounts: make(map[string]int),
			Tagged:       make(map[string]bool),
		}
	case GameBattleBox:
		return &BattleBoxState{
			Kills: make(map[string]int),
			Wins:  make(map[string]int),
		}
	case GameTNTRun:
		return &TNTRunState{}
	case GameSkyBrawl:
		return &SkyBrawlState{Eliminated: make(map[string]bool)}
	case GameHotCod:
		return &HotCodState{Deaths: make(map[string][]string)}
	case GameRunawayWarrior:
		return &RunawayWarriorState{
			Checkpoints: make(map[string][]string),
			TierCounts:  make(map[string]map[Tier]int),
			Routes:      make(map[string]string),
		}
	case GameDodgingBolt:
		return &DodgingBoltState{Wins: make(map[string]int)}
	}

	return nil
}

// BingoState records, per item, the ad-hoc teams that claimed it in order.
type BingoState struct {
	Claims map[string][]string
}

func (*BingoState) gameType() GameType { return GameBingo }

// ParkourChaseState holds the current round of a chase.
type ParkourChaseState struct {
	Chasers      []string
	ChaserCounts map[string]int
	Tagged       map[string]bool
	RoundStart   time.Time
	Running      bool
	Rounds       int
}

func (*ParkourChaseState) gameType() GameType { return GameParkourChase }

func (st *ParkourChaseState) isChaser(p string) bool {
	return slices.Contains(st.Chasers, p)
}

type BattleBoxState struct {
	Kills map[string]int
	Wins  map[string]int
}

func (*BattleBoxState) gameType() GameType { return GameBattleBox }

// TNTRunState keeps the fall order of the current round, first faller first.
type TNTRunState struct {
	Eliminated []string
	Round      int
	Over       bool
}

func (*TNTRunState) gameType() GameType { return GameTNTRun }

// Position returns the 1-based elimination position of p in the current
// round, 0 while p is still standing.
func (st *TNTRunState) Position(p string) int {
	return slices.Index(st.Eliminated, p) + 1
}

type SkyBrawlState struct {
	Eliminated map[string]bool
}

func (*SkyBrawlState) gameType() GameType { return GameSkyBrawl }

// HotCodState tracks deaths per arena. An arena is the ad-hoc team grouping
// the players were placed in.
type HotCodState struct {
	FirstHolder string
	Deaths      map[string][]string
}

func (*HotCodState) gameType() GameType { return GameHotCod }

func (st *HotCodState) dead(arena, p string) bool {
	return slices.Contains(st.Deaths[arena], p)
}

// Tier is the difficulty of a runaway warrior checkpoint.
type Tier int

const (
	TierTwoStar Tier = iota + 2
	TierThreeStar
	TierFourStar
	TierFiveStar
)

type RunawayWarriorState struct {
	Checkpoints map[string][]string
	TierCounts  map[string]map[Tier]int
	// Routes is the completion route per player: simple, normal or hard.
	Routes map[string]string
}

func (*RunawayWarriorState) gameType() GameType { return GameRunawayWarrior }

// DodgingBoltState is the best-of-N final. Leader is the team that reached
// the highest win count first.
type DodgingBoltState struct {
	Wins     map[string]int
	Rounds   int
	Leader   string
	Champion string
}

func (*DodgingBoltState) gameType() GameType { return GameDodgingBolt }
