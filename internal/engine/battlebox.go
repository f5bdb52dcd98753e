package engine

func (t *turn) battleBox() {
	st := t.s.Aux.(*BattleBoxState)

	switch t.ev.Kind {
	case KindKill:
		t.award(t.ev.Player, t.rules.BattleBox.Kill)
		st.Kills[t.ev.Player]++
		t.summarize("%s killed %s", t.ev.Player, t.ev.Detail)

	case KindWoolWin:
		if t.ev.Team == "" {
			t.warnf("battle_box: wool win without team")
			return
		}

		// every member of the winning team, not only the reporter
		for _, p := range t.s.Members(t.ev.Team) {
			t.award(p, t.rules.BattleBox.Win)
		}
		st.Wins[t.ev.Team]++
		t.summarize("%s won the box", t.ev.Team)

	default:
		t.unknownKind()
	}
}
