package engine

import "time"

func (t *turn) parkourChase() {
	st := t.s.Aux.(*ParkourChaseState)
	esc := t.rules.ParkourChase.Escaper
	chaser := t.rules.ParkourChase.Chaser

	switch t.ev.Kind {
	case KindChaserSelected:
		if t.ev.Player == "" {
			t.warnf("parkour_chase: chaser selected without player")
			return
		}
		if !st.isChaser(t.ev.Player) {
			st.Chasers = append(st.Chasers, t.ev.Player)
			st.ChaserCounts[t.ev.Player]++
		}
		t.summarize("%s is chasing", t.ev.Player)

	case KindRoundStart:
		st.Running = true
		st.RoundStart = t.now
		st.Tagged = make(map[string]bool)
		st.Rounds++
		t.summarize("round %d started", st.Rounds)

	case KindPlayerTagged:
		victim := t.ev.Detail
		if victim != "" {
			if st.Tagged[victim] {
				t.warnf("parkour_chase: %s was already tagged", victim)
				return
			}
			st.Tagged[victim] = true
		} else {
			t.warnf("parkour_chase: tag by %s without victim", t.ev.Player)
		}

		t.award(t.ev.Player, chaser.KillBonus)
		t.summarize("%s tagged %s", t.ev.Player, victim)

	case KindRoundOver:
		defer func() {
			st.Chasers = nil
			st.Running = false
		}()

		if !st.Running {
			t.warnf("parkour_chase: round over without round start")
			return
		}

		elapsed := max(t.now.Sub(st.RoundStart), 0)
		intervals := int(elapsed.Seconds()) / esc.TimeInterval
		bonus := esc.SurvivalBonus + intervals*esc.TimeBonus

		var escapers, survivors int
		for _, p := range t.s.Players() {
			if st.isChaser(p) {
				continue
			}
			escapers++
			if st.Tagged[p] {
				continue
			}
			survivors++
			t.award(p, bonus)
		}

		if escapers > 0 && survivors == 0 {
			for _, c := range st.Chasers {
				t.award(c, chaser.CompleteElimination)
			}
			t.summarize("chasers cleared the round")
			return
		}
		t.summarize("%d of %d escapers survived %s", survivors, escapers, elapsed.Truncate(time.Second))

	default:
		t.unknownKind()
	}
}
