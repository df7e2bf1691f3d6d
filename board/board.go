// Package board implements the mission lifecycle and point allocation
// rules of the mission board. Storage is reached only through the
// interfaces in ports.go.
package board

import "go.uber.org/zap"

// Deps are the collaborators a Board is built from.
type Deps struct {
	Missions MissionStore
	Brawlers BrawlerDirectory
	Roster   CrewRoster
	Crew     CrewStore
	Sink     EventSink
}

// Board bundles the mission services around one shared PointLedger so that
// both completion paths award through the same entry point.
type Board struct {
	Ledger    *PointLedger
	Lifecycle *Lifecycle
	Catalog   *Catalog
	Viewing   *Viewing
	Crew      *CrewOperation
}

// New wires a Board.
func New(deps Deps, rules Rules, logger *zap.Logger) *Board {
	rules = rules.withDefaults()
	sink := deps.Sink
	if sink == nil {
		sink = NopSink
	}
	ledger := NewPointLedger(deps.Brawlers, deps.Roster, rules.DailyPointCap, sink, logger)
	return &Board{
		Ledger:    ledger,
		Lifecycle: NewLifecycle(deps.Missions, deps.Roster, ledger, sink, logger),
		Catalog:   NewCatalog(deps.Missions, deps.Roster, ledger, rules, sink, logger),
		Viewing:   NewViewing(deps.Missions, deps.Roster),
		Crew:      NewCrewOperation(deps.Missions, deps.Roster, deps.Crew, rules, sink, logger),
	}
}
