package engine

func (t *turn) dodgingBolt() {
	st := t.s.Aux.(*DodgingBoltState)
	cfg := t.rules.DodgingBolt

	switch t.ev.Kind {
	case KindPlayerEliminated, KindRoundWin:
		if st.Champion != "" {
			t.warnf("dodging_bolt: %s ignored, %s is already champion", t.ev.Kind, st.Champion)
			return
		}
	}

	switch t.ev.Kind {
	case KindPlayerEliminated:
		t.award(t.ev.Player, cfg.Elimination)
		t.summarize("%s eliminated %s", t.ev.Player, t.ev.Detail)

	case KindRoundWin:
		team := t.ev.Team
		if team == "" {
			t.warnf("dodging_bolt: round win without team")
			return
		}

		st.Rounds++
		st.Wins[team]++
		if st.Wins[team] > st.Wins[st.Leader] {
			st.Leader = team
		}

		switch {
		case st.Wins[team] >= cfg.WinsToChampion:
			st.Champion = team
		case cfg.Rounds > 0 && st.Rounds >= cfg.Rounds:
			st.Champion = st.Leader
		}

		if st.Champion != "" {
			t.summarize("%s is champion after %d rounds", st.Champion, st.Rounds)
			return
		}
		t.summarize("%s won round %d (%d wins)", team, st.Rounds, st.Wins[team])

	case KindTournamentEnd:
		if st.Champion == "" {
			st.Champion = st.Leader
			if t.ev.Detail != "" {
				st.Champion = t.ev.Detail
			}
		}
		t.summarize("tournament over, champion %s", st.Champion)

	default:
		t.unknownKind()
	}
}
