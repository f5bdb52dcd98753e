package engine

import (
	"slices"

	"github.com/victornm/livescore/internal/rules"
)

func (t *turn) tntRun() {
	st := t.s.Aux.(*TNTRunState)

	switch t.ev.Kind {
	case KindRoundStart:
		st.Eliminated = nil
		st.Over = false
		st.Round++
		t.summarize("round %d started", st.Round)

	case KindPlayerFall:
		p := t.ev.Player
		if p == "" {
			t.warnf("tntrun: fall without player")
			return
		}
		if st.Position(p) > 0 {
			t.warnf("tntrun: %s already fell", p)
			return
		}

		st.Eliminated = append(st.Eliminated, p)
		for _, other := range t.s.Players() {
			if st.Position(other) == 0 {
				t.award(other, t.rules.TNTRun.Survival)
			}
		}
		t.summarize("%s fell at position %d", p, st.Position(p))

	case KindRoundOver:
		if st.Over {
			t.warnf("tntrun: round %d is already over", st.Round)
			return
		}
		st.Over = true

		ranking := st.ranking(t.s.Players())
		n := min(3, len(t.rules.TNTRun.PlacementBonus), len(ranking))
		for i := range n {
			t.award(ranking[i], rules.Pick(t.rules.TNTRun.PlacementBonus, i))
		}
		if n > 0 {
			t.summarize("%s survived longest", ranking[0])
		}

	default:
		t.unknownKind()
	}
}

// ranking orders players by survival: those still standing in roster order,
// then the fallen from last to first.
func (st *TNTRunState) ranking(players []string) []string {
	var out []string
	for _, p := range players {
		if st.Position(p) == 0 {
			out = append(out, p)
		}
	}

	fallen := slices.Clone(st.Eliminated)
	slices.Reverse(fallen)

	return append(out, fallen...)
}
