package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/livescore/internal/rules"
)

func TestTable_RoundMultiplier(t *testing.T) {
	tab := rules.Default()

	assert.Equal(t, 1.0, tab.RoundMultiplier(1))
	assert.Equal(t, 2.5, tab.RoundMultiplier(6))
	assert.Equal(t, 3.0, tab.RoundMultiplier(7))
	assert.Equal(t, 1.0, tab.RoundMultiplier(999), "unconfigured round should weigh exactly 1.0")
	assert.Equal(t, 1.0, rules.Table{}.RoundMultiplier(2), "empty table should weigh every round 1.0")
}

func TestPick(t *testing.T) {
	tests := map[string]struct {
		values []int
		index  int
		want   int
	}{
		"first element": {
			values: []int{5, 10, 15},
			index:  0,
			want:   5,
		},
		"last element": {
			values: []int{5, 10, 15},
			index:  2,
			want:   15,
		},
		"past the end reuses the last element": {
			values: []int{5, 10, 15},
			index:  7,
			want:   15,
		},
		"negative index clamps to the first element": {
			values: []int{5, 10, 15},
			index:  -1,
			want:   5,
		},
		"empty list yields zero": {
			values: nil,
			index:  0,
			want:   0,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, rules.Pick(tt.values, tt.index))
		})
	}
}

func TestParse(t *testing.T) {
	tests := map[string]struct {
		doc    string
		assert func(t *testing.T, tr *rules.Tournament, err error)
	}{
		"empty document should keep defaults": {
			doc: ``,
			assert: func(t *testing.T, tr *rules.Tournament, err error) {
				require.NoError(t, err)
				assert.Equal(t, rules.Default(), tr.Table)
				assert.Empty(t, tr.Roster.Teams())
			},
		},

		"overrides should only replace the given parameters": {
			doc: `
teams:
  - id: RED
    name: Red Rabbits
    color: "#ff0000"
    players: [A, B]
  - id: BLUE
    players: [C]
scoring:
  bingo:
    player_bonus: 25
  tntrun:
    placement_bonus: [12, 6]
round_multipliers:
  8: 4.0
`,
			assert: func(t *testing.T, tr *rules.Tournament, err error) {
				require.NoError(t, err)

				assert.Equal(t, 25, tr.Table.Bingo.PlayerBonus)
				assert.Equal(t, []int{50, 40, 30, 25, 20, 15, 10, 5}, tr.Table.Bingo.TeamPlacement)
				assert.Equal(t, []int{12, 6}, tr.Table.TNTRun.PlacementBonus)
				assert.Equal(t, 4, tr.Table.TNTRun.Survival)
				assert.Equal(t, 4.0, tr.Table.RoundMultiplier(8))
				assert.Equal(t, 1.5, tr.Table.RoundMultiplier(2))

				team, ok := tr.Roster.OfficialTeam("B")
				require.True(t, ok)
				assert.Equal(t, "RED", team)
				assert.Equal(t, []string{"A", "B"}, tr.Roster.Players("RED"))

				red, ok := tr.Roster.Team("RED")
				require.True(t, ok)
				assert.Equal(t, "#ff0000", red.Color)

				_, ok = tr.Roster.OfficialTeam("Z")
				assert.False(t, ok)
			},
		},

		"negative bonus should be rejected": {
			doc: `
scoring:
  battle_box:
    kill: -5
`,
			assert: func(t *testing.T, _ *rules.Tournament, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "battle_box")
			},
		},

		"zero time interval should be rejected": {
			doc: `
scoring:
  parkour_chase:
    escaper:
      time_interval: 0
`,
			assert: func(t *testing.T, _ *rules.Tournament, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "time_interval")
			},
		},

		"empty placement list should be rejected": {
			doc: `
scoring:
  bingo:
    team_placement: []
`,
			assert: func(t *testing.T, _ *rules.Tournament, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "team_placement")
			},
		},

		"player in two teams should be rejected": {
			doc: `
teams:
  - id: RED
    players: [A]
  - id: BLUE
    players: [A]
`,
			assert: func(t *testing.T, _ *rules.Tournament, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), `player "A"`)
			},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			tr, err := rules.Parse([]byte(tt.doc))
			tt.assert(t, tr, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	tr, err := rules.LoadFile("../../deploy/tournament.yaml")
	require.NoError(t, err)

	assert.Len(t, tr.Roster.Teams(), 2)
	assert.Equal(t, 3, tr.Table.DodgingBolt.WinsToChampion)
	assert.Equal(t, 3.0, tr.Table.RoundMultiplier(7))

	_, err = rules.LoadFile("missing.yaml")
	assert.Error(t, err)
}
