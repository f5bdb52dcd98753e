package engine

import (
	"strings"
)

// GameType identifies the minigame a session is scored with.
type GameType string

const (
	GameBingo          GameType = "bingo"
	GameParkourChase   GameType = "parkour_chase"
	GameBattleBox      GameType = "battle_box"
	GameTNTRun         GameType = "tntrun"
	GameSkyBrawl       GameType = "skywars"
	GameHotCod         GameType = "hot_cod"
	GameRunawayWarrior GameType = "runaway_warrior"
	GameDodgingBolt    GameType = "dodging_bolt"
)

// Event kinds sent by the minigame servers.
const (
	KindItemFound        = "Item_Found"
	KindChaserSelected   = "Chaser_Selected"
	KindRoundStart       = "Round_Start"
	KindPlayerTagged     = "Player_Tagged"
	KindRoundOver        = "Round_Over"
	KindKill             = "Kill"
	KindWoolWin          = "Wool_Win"
	KindPlayerFall       = "Player_Fall"
	KindFall             = "Fall"
	KindCodPassed        = "Cod_Passed"
	KindDeath            = "Death"
	KindCheckpoint       = "Checkpoint"
	KindPlayerFinish     = "Player_Finish"
	KindPlayerEliminated = "Player_Eliminated"
	KindRoundWin         = "Round_Win"
	KindTournamentEnd    = "Tournament_End"
)

var gameTypes = map[string]GameType{
	"bingo":           GameBingo,
	"bingo_speed":     GameBingo,
	"parkour_chase":   GameParkourChase,
	"battle_box":      GameBattleBox,
	"tntrun":          GameTNTRun,
	"tnt_run":         GameTNTRun,
	"tnt_spleef":      GameTNTRun,
	"skywars":         GameSkyBrawl,
	"sky_brawl":       GameSkyBrawl,
	"hot_cod":         GameHotCod,
	"runaway_warrior": GameRunawayWarrior,
	"dodging_bolt":    GameDodgingBolt,
}

// ParseGameType resolves a game type name or one of its aliases.
func ParseGameType(s string) (GameType, bool) {
	t, ok := gameTypes[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

// GameTypeFromID guesses the game type of an instance id such as
// "bingo_speed_round1" from its longest known prefix. An id without a known
// prefix is returned as an unknown type.
func GameTypeFromID(id string) GameType {
	parts := strings.Split(id, "_")
	for n := len(parts); n > 0; n-- {
		if t, ok := ParseGameType(strings.Join(parts[:n], "_")); ok {
			return t
		}
	}

	return GameType(id)
}

// Known reports whether the engine has a handler for t.
func (t GameType) Known() bool {
	switch t {
	case GameBingo, GameParkourChase, GameBattleBox, GameTNTRun,
		GameSkyBrawl, GameHotCod, GameRunawayWarrior, GameDodgingBolt:
		return true
	}

	return false
}
