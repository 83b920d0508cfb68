// Package collision detects continuous-time collection events between
// moving gatherers (dogs) and stationary items (loot and office deliveries)
// over the course of one tick.
//
// Grounded on the original collision_detector.cpp: TryCollectPoint computes
// the projection ratio and squared perpendicular distance of an item onto a
// gatherer's motion segment; FindGatherEvents emits one event per
// (gatherer, item) pair whose projection falls within [0, 1] and whose
// perpendicular distance is within the combined collection radius, sorted
// by (time, gatherer index, item index) for determinism.
package collision

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Gatherer is one moving collector over the course of a tick.
type Gatherer struct {
	Start, End mgl64.Vec2
	Width      float64
}

// Item is a stationary collectible. Items with index >= the number of loot
// items represent office delivery points, per the convention callers use
// when building the Item slice (loot items first, offices appended after).
type Item struct {
	Pos   mgl64.Vec2
	Width float64
}

// Event is one (gatherer, item) collection at a point in the gatherer's
// motion, expressed as a fraction of the tick ([0, 1]).
type Event struct {
	GathererIdx int
	ItemIdx     int
	Time        float64
}

// tryCollect computes the projection ratio and squared perpendicular
// distance of item c onto segment a->b.
func tryCollect(a, b, c mgl64.Vec2) (projRatio, sqDistance float64) {
	u := c.Sub(a)
	v := b.Sub(a)
	uDotV := u.Dot(v)
	uLen2 := u.Dot(u)
	vLen2 := v.Dot(v)
	projRatio = uDotV / vLen2
	sqDistance = uLen2 - (uDotV*uDotV)/vLen2
	return
}

func isCollected(projRatio, sqDistance, radius float64) bool {
	return projRatio >= 0 && projRatio <= 1 && sqDistance <= radius*radius
}

// FindGatherEvents returns every collection event between gatherers and
// items, sorted by (Time, GathererIdx, ItemIdx). Gatherers whose Start
// equals End (no movement this tick) never collect anything, matching the
// original's skip-stationary-gatherers rule.
func FindGatherEvents(gatherers []Gatherer, items []Item) []Event {
	var events []Event
	for gi, g := range gatherers {
		if g.Start == g.End {
			continue
		}
		for ii, it := range items {
			projRatio, sqDistance := tryCollect(g.Start, g.End, it.Pos)
			radius := g.Width + it.Width
			if math.IsNaN(projRatio) || math.IsNaN(sqDistance) {
				continue
			}
			if isCollected(projRatio, sqDistance, radius) {
				events = append(events, Event{GathererIdx: gi, ItemIdx: ii, Time: projRatio})
			}
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Time != events[j].Time {
			return events[i].Time < events[j].Time
		}
		if events[i].GathererIdx != events[j].GathererIdx {
			return events[i].GathererIdx < events[j].GathererIdx
		}
		return events[i].ItemIdx < events[j].ItemIdx
	})
	return events
}
