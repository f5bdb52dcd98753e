package engine

func (t *turn) skyBrawl() {
	st := t.s.Aux.(*SkyBrawlState)

	switch t.ev.Kind {
	case KindKill:
		t.award(t.ev.Player, t.rules.SkyBrawl.Kill)
		if victim := t.ev.Detail; victim != "" {
			st.Eliminated[victim] = true
		}
		t.summarize("%s killed %s", t.ev.Player, t.ev.Detail)

	case KindFall:
		p := t.ev.Player
		if p == "" {
			t.warnf("skywars: fall without player")
			return
		}
		if st.Eliminated[p] {
			t.warnf("skywars: %s is already out", p)
			return
		}

		st.Eliminated[p] = true
		for _, other := range t.s.Players() {
			if !st.Eliminated[other] {
				t.award(other, t.rules.SkyBrawl.Survival)
			}
		}
		t.summarize("%s fell into the void", p)

	case KindRoundOver:
		var n int
		for _, p := range t.s.Players() {
			if !st.Eliminated[p] {
				t.award(p, t.rules.SkyBrawl.LastStanding)
				n++
			}
		}
		t.summarize("%d players standing", n)

	default:
		t.unknownKind()
	}
}
