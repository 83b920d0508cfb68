package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/packrun/packrun/server/gameerr"
	"github.com/packrun/packrun/server/leaderboard"
	"github.com/packrun/packrun/server/loot"
	"github.com/packrun/packrun/server/model"
)

type fakeSink struct {
	added   []leaderboard.Record
	failAdd error // when set, Add returns this error instead of recording
}

func (f *fakeSink) Add(_ context.Context, name string, score int, playTime float64) error {
	if f.failAdd != nil {
		return f.failAdd
	}
	f.added = append(f.added, leaderboard.Record{Name: name, Score: score, PlayTimeSecs: playTime})
	return nil
}

func (f *fakeSink) Get(_ context.Context, start, maxItems int) ([]leaderboard.Record, error) {
	if start >= len(f.added) {
		return nil, nil
	}
	end := start + maxItems
	if end > len(f.added) {
		end = len(f.added)
	}
	return f.added[start:end], nil
}

func singleRoadMap(id string) *model.Map {
	return &model.Map{
		ID:       id,
		Name:     "test map",
		Roads:    []model.Road{{Start: mgl64.Vec2{0, 0}, End: mgl64.Vec2{10, 0}}},
		Offices:  []model.Office{{ID: "office-1", Pos: mgl64.Vec2{6, 0}}},
		LootTypes: []model.LootType{{Value: 5}},
		DogSpeed: 10,
		BagSize:  3,
	}
}

func newTestManager(t *testing.T, m *model.Map, sink RetirementSink) *Manager {
	t.Helper()
	return newTestManagerWithRetirement(t, m, sink, time.Minute)
}

func newTestManagerWithRetirement(t *testing.T, m *model.Map, sink RetirementSink, retirement time.Duration) *Manager {
	t.Helper()
	mgr := New(Config{
		Maps:             map[string]*model.Map{m.ID: m},
		MapOrder:         []string{m.ID},
		LootConfig:       loot.Config{}, // zero probability: no auto-spawn
		RetirementPeriod: retirement,
		Retirement:       sink,
	})
	t.Cleanup(mgr.Close)
	return mgr
}

func TestJoinUnknownMap(t *testing.T) {
	mgr := newTestManager(t, singleRoadMap("map1"), &fakeSink{})
	if _, err := mgr.Join("nope", "alice"); err != gameerr.ErrMapNotFound {
		t.Fatalf("Join() err = %v, want ErrMapNotFound", err)
	}
}

func TestJoinEmptyName(t *testing.T) {
	mgr := newTestManager(t, singleRoadMap("map1"), &fakeSink{})
	if _, err := mgr.Join("map1", ""); err != gameerr.ErrInvalidName {
		t.Fatalf("Join() err = %v, want ErrInvalidName", err)
	}
}

func TestPickupThenDeliver(t *testing.T) {
	mp := singleRoadMap("map1")
	mgr := newTestManager(t, mp, &fakeSink{})

	j, err := mgr.Join("map1", "rex")
	if err != nil {
		t.Fatalf("Join() error: %v", err)
	}

	<-mgr.Exec(func(m *Manager) {
		s := m.sessions["map1"]
		s.lost = append(s.lost, model.LostObject{Type: 0, Pos: mgl64.Vec2{3, 0}})
	})

	if err := mgr.SetDirection(j.Token, model.DirEast); err != nil {
		t.Fatalf("SetDirection() error: %v", err)
	}

	if err := mgr.Tick(context.Background(), time.Second); err != nil {
		t.Fatalf("Tick() error: %v", err)
	}

	st, err := mgr.State(j.Token)
	if err != nil {
		t.Fatalf("State() error: %v", err)
	}
	if len(st.Lost) != 0 {
		t.Fatalf("lost objects = %v, want empty", st.Lost)
	}
	if len(st.Dogs) != 1 {
		t.Fatalf("dogs = %d, want 1", len(st.Dogs))
	}
	d := st.Dogs[0]
	if len(d.Bag) != 0 {
		t.Errorf("bag = %v, want empty after delivery", d.Bag)
	}
	if d.Score != 5 {
		t.Errorf("score = %d, want 5", d.Score)
	}
}

func TestAFKRetirement(t *testing.T) {
	mp := singleRoadMap("map1")
	sink := &fakeSink{}
	mgr := newTestManagerWithRetirement(t, mp, sink, 5*time.Second)

	j, err := mgr.Join("map1", "idle")
	if err != nil {
		t.Fatalf("Join() error: %v", err)
	}

	if err := mgr.Tick(context.Background(), 6*time.Second); err != nil {
		t.Fatalf("Tick() error: %v", err)
	}

	if _, err := mgr.State(j.Token); err != gameerr.ErrTokenUnknown {
		t.Fatalf("State() after retirement err = %v, want ErrTokenUnknown", err)
	}
	if len(sink.added) != 1 {
		t.Fatalf("retirement records = %d, want 1", len(sink.added))
	}
	if sink.added[0].Name != "idle" {
		t.Errorf("retired record name = %q, want %q", sink.added[0].Name, "idle")
	}

	recs, err := mgr.Records(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("Records() error: %v", err)
	}
	if len(recs) != 1 || recs[0].Name != "idle" {
		t.Fatalf("Records() = %v, want one record for idle", recs)
	}
}

func TestAFKRetirementLeaderboardFailureAbortsTick(t *testing.T) {
	mp := singleRoadMap("map1")
	sink := &fakeSink{failAdd: errors.New("connection refused")}
	mgr := newTestManagerWithRetirement(t, mp, sink, 5*time.Second)

	j, err := mgr.Join("map1", "idle")
	if err != nil {
		t.Fatalf("Join() error: %v", err)
	}

	err = mgr.Tick(context.Background(), 6*time.Second)
	if !errors.Is(err, gameerr.ErrInternal) {
		t.Fatalf("Tick() err = %v, want gameerr.ErrInternal", err)
	}

	if len(sink.added) != 0 {
		t.Fatalf("retirement records = %d, want 0 on failed write", len(sink.added))
	}

	// The dog must still be seated: the failed leaderboard write should not
	// have committed the token/dog removal.
	if _, err := mgr.State(j.Token); err != nil {
		t.Fatalf("State() after failed retirement err = %v, want dog still seated", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	mp := singleRoadMap("map1")
	mgr := newTestManager(t, mp, &fakeSink{})

	j, err := mgr.Join("map1", "rex")
	if err != nil {
		t.Fatalf("Join() error: %v", err)
	}
	if err := mgr.SetDirection(j.Token, model.DirEast); err != nil {
		t.Fatalf("SetDirection() error: %v", err)
	}
	snap := mgr.Snapshot()

	mgr2 := newTestManager(t, mp, &fakeSink{})
	if err := mgr2.Restore(snap); err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	st, err := mgr2.State(j.Token)
	if err != nil {
		t.Fatalf("State() after restore error: %v", err)
	}
	if len(st.Dogs) != 1 || st.Dogs[0].Name != "rex" {
		t.Fatalf("restored dogs = %v, want one dog named rex", st.Dogs)
	}
}
