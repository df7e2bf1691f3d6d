package board

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/kasuganosora/missionboard/model"
	"go.uber.org/zap"
)

func nopLogger() *zap.Logger { return zap.NewNop() }

var errBackend = errors.New("backend unavailable")

// fakeBackend implements every storage port in memory.
type fakeBackend struct {
	mu       sync.Mutex
	nextID   int64
	missions map[int64]*model.Mission
	crew     map[int64][]int64
	brawlers map[int64]*model.Brawler
	earned   map[int64]int
	daily    map[int64]int

	// loseRace makes conditional writes report that nothing matched.
	loseRace bool
	// failPointsFor makes AddPoints fail for that brawler.
	failPointsFor int64
	addCalls      []int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		missions: make(map[int64]*model.Mission),
		crew:     make(map[int64][]int64),
		brawlers: make(map[int64]*model.Brawler),
		earned:   make(map[int64]int),
		daily:    make(map[int64]int),
	}
}

func (f *fakeBackend) addBrawler(ids ...int64) {
	for _, id := range ids {
		f.brawlers[id] = &model.Brawler{ID: id, Username: "b", DisplayName: "b"}
	}
}

func (f *fakeBackend) seed(m model.Mission, crew ...int64) *model.Mission {
	f.nextID++
	if m.ID == 0 {
		m.ID = f.nextID
	}
	f.missions[m.ID] = &m
	f.crew[m.ID] = append([]int64(nil), crew...)
	return &m
}

func (f *fakeBackend) points(id int64) int { return f.brawlers[id].TotalPoints }

// ---- MissionStore ----

func (f *fakeBackend) Add(_ context.Context, m *model.Mission) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m.ID = f.nextID
	cp := *m
	f.missions[m.ID] = &cp
	return m.ID, nil
}

func (f *fakeBackend) Edit(_ context.Context, id int64, expected model.MissionStatus, ch MissionChanges) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.missions[id]
	if !ok || f.loseRace || m.Status != expected || len(f.crew[id]) > 0 {
		return false, nil
	}
	if ch.Name != nil {
		m.Name = *ch.Name
	}
	if ch.Description != nil {
		m.Description = ch.Description
	}
	if ch.Status != nil {
		m.Status = *ch.Status
	}
	if ch.MaxCrew != nil {
		m.MaxCrew = *ch.MaxCrew
	}
	if ch.Difficulty != nil {
		m.Difficulty = *ch.Difficulty
	}
	if ch.BasePoints != nil {
		m.BasePoints = *ch.BasePoints
	}
	if ch.DueDate != nil {
		m.DueDate = ch.DueDate
	}
	return true, nil
}

func (f *fakeBackend) Remove(_ context.Context, id, chiefID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.missions[id]
	if !ok || f.loseRace || m.ChiefID != chiefID || len(f.crew[id]) > 0 {
		return false, nil
	}
	delete(f.missions, id)
	return true, nil
}

func (f *fakeBackend) GetOne(_ context.Context, id int64) (*model.Mission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.missions[id]
	if !ok {
		return nil, NotFound("Mission %d not found", id)
	}
	cp := *m
	return &cp, nil
}

func (f *fakeBackend) GetAll(_ context.Context, filter Filter) ([]MissionWithCrew, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []MissionWithCrew
	for id := int64(1); id <= f.nextID; id++ {
		m, ok := f.missions[id]
		if !ok {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(m.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		if filter.ChiefID != 0 && m.ChiefID != filter.ChiefID {
			continue
		}
		out = append(out, MissionWithCrew{Mission: *m, CrewCount: len(f.crew[id])})
	}
	return out, nil
}

func (f *fakeBackend) GetJoined(_ context.Context, brawlerID int64) ([]MissionWithCrew, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []MissionWithCrew
	for id := int64(1); id <= f.nextID; id++ {
		m, ok := f.missions[id]
		if !ok {
			continue
		}
		joined := m.ChiefID == brawlerID
		for _, c := range f.crew[id] {
			joined = joined || c == brawlerID
		}
		if joined {
			out = append(out, MissionWithCrew{Mission: *m, CrewCount: len(f.crew[id])})
		}
	}
	return out, nil
}

func (f *fakeBackend) Transition(_ context.Context, t Transition) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.missions[t.MissionID]
	if !ok || f.loseRace || m.ChiefID != t.ChiefID {
		return false, nil
	}
	from := false
	for _, s := range t.From {
		from = from || m.Status == s
	}
	if !from {
		return false, nil
	}
	if t.RequireCrew {
		n := len(f.crew[t.MissionID])
		if n == 0 || n >= m.MaxCrew {
			return false, nil
		}
	}
	m.Status = t.To
	return true, nil
}

// ---- BrawlerDirectory ----

func (f *fakeBackend) FindByID(_ context.Context, id int64) (*model.Brawler, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.brawlers[id]
	if !ok {
		return nil, NotFound("Brawler %d not found", id)
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBackend) AddPoints(_ context.Context, id int64, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == f.failPointsFor {
		return errBackend
	}
	b, ok := f.brawlers[id]
	if !ok {
		return NotFound("Brawler %d not found", id)
	}
	b.TotalPoints += delta
	f.addCalls = append(f.addCalls, id)
	return nil
}

// ---- CrewRoster ----

func (f *fakeBackend) CrewCounting(_ context.Context, missionID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.crew[missionID]), nil
}

func (f *fakeBackend) CrewIDs(_ context.Context, missionID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.crew[missionID]...), nil
}

func (f *fakeBackend) CrewMembers(_ context.Context, missionID int64) ([]model.Brawler, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Brawler
	for _, id := range f.crew[missionID] {
		if b, ok := f.brawlers[id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBackend) DailyEarnedPoints(_ context.Context, brawlerID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.earned[brawlerID], nil
}

func (f *fakeBackend) DailyInteractionCount(_ context.Context, brawlerID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.daily[brawlerID], nil
}

// ---- CrewStore ----

func (f *fakeBackend) Join(_ context.Context, missionID, brawlerID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.missions[missionID]
	if !ok || f.loseRace || m.Status != model.MissionOpen || len(f.crew[missionID]) >= m.MaxCrew {
		return false, nil
	}
	f.crew[missionID] = append(f.crew[missionID], brawlerID)
	return true, nil
}

func (f *fakeBackend) Leave(_ context.Context, missionID, brawlerID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := f.crew[missionID]
	for i, id := range ids {
		if id == brawlerID {
			f.crew[missionID] = append(ids[:i], ids[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBackend) IsMember(_ context.Context, missionID, brawlerID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.crew[missionID] {
		if id == brawlerID {
			return true, nil
		}
	}
	return false, nil
}

// recordingSink captures events for assertions.
type recordingSink struct {
	mu      sync.Mutex
	changes []MissionEvent
	awards  []Award
}

func (s *recordingSink) MissionChanged(_ context.Context, ev MissionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes = append(s.changes, ev)
}

func (s *recordingSink) PointsAwarded(_ context.Context, a Award) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.awards = append(s.awards, a)
}

func newTestBoard(f *fakeBackend, sink EventSink) *Board {
	return New(Deps{Missions: f, Brawlers: f, Roster: f, Crew: f, Sink: sink}, DefaultRules(), nopLogger())
}
