package collision

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func vec(x, y float64) mgl64.Vec2 { return mgl64.Vec2{x, y} }

func TestFindGatherEventsEmptyProvider(t *testing.T) {
	events := FindGatherEvents(nil, nil)
	if len(events) != 0 {
		t.Fatalf("expected no events, got %v", events)
	}
}

func TestFindGatherEventsStationaryGatherer(t *testing.T) {
	gatherers := []Gatherer{{Start: vec(0, 0), End: vec(0, 0), Width: 0.3}}
	items := []Item{{Pos: vec(0, 0), Width: 0.1}}
	events := FindGatherEvents(gatherers, items)
	if len(events) != 0 {
		t.Fatalf("expected no events for stationary gatherer, got %v", events)
	}
}

func TestFindGatherEventsLinearCollisionWithOffset(t *testing.T) {
	gatherers := []Gatherer{{Start: vec(0, 0), End: vec(10, 0), Width: 0.5}}
	items := []Item{
		{Pos: vec(2, 0), Width: 0.1},
		{Pos: vec(5, 0.3), Width: 0.1},
		{Pos: vec(5, 2), Width: 0.1},
		{Pos: vec(-1, 0), Width: 0.1},
	}
	events := FindGatherEvents(gatherers, items)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %v", len(events), events)
	}
	if events[0].ItemIdx != 0 || !closeEnough(events[0].Time, 0.2) {
		t.Errorf("event 0 = %+v, want item 0 at t=0.2", events[0])
	}
	if events[1].ItemIdx != 1 || !closeEnough(events[1].Time, 0.5) {
		t.Errorf("event 1 = %+v, want item 1 at t=0.5", events[1])
	}
}

func TestFindGatherEventsChronologicalSortTieBreak(t *testing.T) {
	gatherers := []Gatherer{{Start: vec(0, 0), End: vec(10, 0), Width: 0}}
	items := []Item{
		{Pos: vec(8, 0), Width: 0},
		{Pos: vec(2, 0), Width: 0},
	}
	events := FindGatherEvents(gatherers, items)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ItemIdx != 1 || !closeEnough(events[0].Time, 0.2) {
		t.Errorf("first event = %+v, want item 1 at t=0.2", events[0])
	}
	if events[1].ItemIdx != 0 || !closeEnough(events[1].Time, 0.8) {
		t.Errorf("second event = %+v, want item 0 at t=0.8", events[1])
	}
}

func closeEnough(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
