package engine

import (
	"strings"

	"github.com/victornm/livescore/internal/rules"
)

// checkpointTier maps a checkpoint id to its lane difficulty. Unknown lanes
// count as the main lane.
func checkpointTier(id string) Tier {
	switch {
	case strings.HasPrefix(id, "sub1"):
		return TierThreeStar
	case strings.HasPrefix(id, "sub2"):
		return TierFourStar
	case strings.HasPrefix(id, "sub3"):
		return TierFiveStar
	}

	return TierTwoStar
}

func (t *turn) runawayWarrior() {
	st := t.s.Aux.(*RunawayWarriorState)
	cp := t.rules.RunawayWarrior.Checkpoints
	p := t.ev.Player

	switch t.ev.Kind {
	case KindCheckpoint:
		if p == "" {
			t.warnf("runaway_warrior: checkpoint without player")
			return
		}

		st.Checkpoints[p] = append(st.Checkpoints[p], t.ev.Detail)
		if st.TierCounts[p] == nil {
			st.TierCounts[p] = make(map[Tier]int)
		}

		tier := checkpointTier(t.ev.Detail)
		done := st.TierCounts[p][tier]
		st.TierCounts[p][tier]++

		var pts int
		switch tier {
		case TierTwoStar:
			pts = cp.TwoStar
		case TierThreeStar:
			pts = rules.Pick(cp.ThreeStar, done)
		case TierFourStar:
			pts = rules.Pick(cp.FourStar, done)
		case TierFiveStar:
			pts = rules.Pick(cp.FiveStar, done)
		}

		t.award(p, pts)
		t.summarize("%s passed %s (%d star #%d)", p, t.ev.Detail, tier, done+1)

	case KindPlayerFinish:
		if p == "" {
			t.warnf("runaway_warrior: finish without player")
			return
		}

		st.Routes[p] = t.ev.Detail
		t.summarize("%s finished the %s route", p, t.ev.Detail)

	default:
		t.unknownKind()
	}
}
