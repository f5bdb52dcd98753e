package engine

import (
	"slices"

	"github.com/victornm/livescore/internal/rules"
)

func (t *turn) bingo() {
	st := t.s.Aux.(*BingoState)

	switch t.ev.Kind {
	case KindItemFound:
		item, team := t.ev.Detail, t.ev.Team
		if item == "" || team == "" {
			t.warnf("bingo: item found without item or team")
			return
		}

		if slices.Contains(st.Claims[item], team) {
			t.summarize("%s already claimed %s", team, item)
			return
		}

		st.Claims[item] = append(st.Claims[item], team)
		rank := len(st.Claims[item])

		t.awardTeam(team, rules.Pick(t.rules.Bingo.TeamPlacement, rank-1))
		t.award(t.ev.Player, t.rules.Bingo.PlayerBonus)
		t.summarize("%s found %s for %s, rank %d", t.ev.Player, item, team, rank)

	default:
		t.unknownKind()
	}
}
