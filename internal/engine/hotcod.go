package engine

func (t *turn) hotCod() {
	st := t.s.Aux.(*HotCodState)

	switch t.ev.Kind {
	case KindCodPassed:
		if st.FirstHolder != "" || t.ev.Player == "" {
			return
		}

		st.FirstHolder = t.ev.Player
		t.award(t.ev.Player, t.rules.HotCod.FirstHolderBonus)
		t.summarize("%s holds the cod first", t.ev.Player)

	case KindDeath:
		p := t.ev.Player
		arena := t.ev.Team
		if arena == "" {
			arena, _ = t.s.TeamOf(p)
		}
		if p == "" || arena == "" {
			t.warnf("hot_cod: death without player or arena")
			return
		}
		if st.dead(arena, p) {
			t.warnf("hot_cod: %s already died in %s", p, arena)
			return
		}

		st.Deaths[arena] = append(st.Deaths[arena], p)
		for _, other := range t.s.Members(arena) {
			if other != p && !st.dead(arena, other) {
				t.award(other, t.rules.HotCod.Survival)
			}
		}
		t.summarize("%s exploded in %s", p, arena)

	default:
		t.unknownKind()
	}
}
