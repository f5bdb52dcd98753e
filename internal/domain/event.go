package domain

const (
	EventNameSnapshotUpdated = "snapshot.updated"
	EventNameTournamentReset = "tournament.reset"
)

type EventSnapshotUpdated struct {
	Snapshot Snapshot
}

func (EventSnapshotUpdated) Name() string { return EventNameSnapshotUpdated }

type EventTournamentReset struct {
	Snapshot Snapshot
}

func (EventTournamentReset) Name() string { return EventNameTournamentReset }
