// Package roadindex builds a fast legal-position index over a map's road
// graph and answers "clamp this move against the roads crossing this row or
// column" queries for the game loop.
//
// Grounded on the original GameSession::NormalizeIntervals /
// GetHorizontalInterval / GetVerticalInterval / CalculatePosition
// (player.cpp): roads are bucketed by their rounded off-axis coordinate,
// widened by HalfWidth at both ends, sorted, and merged, so a per-tick clamp
// query is a bucket lookup plus a binary search instead of a scan over every
// road on the map.
package roadindex

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/packrun/packrun/server/model"
)

// HalfWidth is the margin by which every road is widened on each side and
// at each end: a dog may legally stand up to HalfWidth away from the
// centre line of a road it is on.
const HalfWidth = 0.4

// Interval is an inclusive legal range [A, B] along one axis.
type Interval struct {
	A, B float64
}

func (iv Interval) contains(v float64) bool { return v >= iv.A-1e-9 && v <= iv.B+1e-9 }

// Index answers legal-position queries for one map's road graph.
type Index struct {
	horizontal map[int][]Interval // keyed by rounded Y, intervals sorted by A
	vertical   map[int][]Interval // keyed by rounded X, intervals sorted by A
}

// Build constructs an Index from a map's road list.
func Build(roads []model.Road) *Index {
	idx := &Index{
		horizontal: map[int][]Interval{},
		vertical:   map[int][]Interval{},
	}
	rawH := map[int][]Interval{}
	rawV := map[int][]Interval{}
	for _, r := range roads {
		if r.IsHorizontal() {
			y := round(r.Start.Y())
			a, b := r.Start.X(), r.End.X()
			if a > b {
				a, b = b, a
			}
			rawH[y] = append(rawH[y], Interval{a - HalfWidth, b + HalfWidth})
		}
		if r.IsVertical() {
			x := round(r.Start.X())
			a, b := r.Start.Y(), r.End.Y()
			if a > b {
				a, b = b, a
			}
			rawV[x] = append(rawV[x], Interval{a - HalfWidth, b + HalfWidth})
		}
	}
	for k, ivs := range rawH {
		idx.horizontal[k] = normalize(ivs)
	}
	for k, ivs := range rawV {
		idx.vertical[k] = normalize(ivs)
	}
	return idx
}

func round(v float64) int { return int(math.Round(v)) }

// normalize sorts intervals by (A, B) and merges any that touch or overlap.
func normalize(ivs []Interval) []Interval {
	sort.Slice(ivs, func(i, j int) bool {
		if ivs[i].A != ivs[j].A {
			return ivs[i].A < ivs[j].A
		}
		return ivs[i].B < ivs[j].B
	})
	out := ivs[:0:0]
	for _, iv := range ivs {
		if n := len(out); n > 0 && iv.A <= out[n-1].B {
			if iv.B > out[n-1].B {
				out[n-1].B = iv.B
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// horizontalAt returns the interval of legal X values for a dog standing at
// rounded row y, falling back to [x-HalfWidth, x+HalfWidth] if no road
// interval on that row contains x.
func (idx *Index) horizontalAt(y, x float64) Interval {
	return lookup(idx.horizontal, y, x)
}

// verticalAt returns the interval of legal Y values for a dog standing at
// rounded column x, falling back to [y-HalfWidth, y+HalfWidth] if no road
// interval on that column contains y.
func (idx *Index) verticalAt(x, y float64) Interval {
	return lookup(idx.vertical, x, y)
}

func lookup(buckets map[int][]Interval, key, probe float64) Interval {
	ivs, ok := buckets[round(key)]
	if ok {
		i := sort.Search(len(ivs), func(i int) bool { return ivs[i].B >= probe })
		if i < len(ivs) && ivs[i].contains(probe) {
			return ivs[i]
		}
	}
	return Interval{probe - HalfWidth, probe + HalfWidth}
}

// Clamp advances a dog from pos by vel*dt, clamping the result against the
// road(s) crossing the dog's current row and column, and zeroing the
// returned velocity on the clamped axis (the dog stops dead against the
// edge of the road, as the original CalculatePosition does via StopDog).
func (idx *Index) Clamp(pos, vel mgl64.Vec2, dir model.Direction, dt float64) (newPos, newVel mgl64.Vec2) {
	target := mgl64.Vec2{pos.X() + vel.X()*dt, pos.Y() + vel.Y()*dt}
	newPos, newVel = target, vel

	switch dir {
	case model.DirNorth:
		vIv := idx.verticalAt(pos.X(), pos.Y())
		if target.Y() < vIv.A {
			newPos = mgl64.Vec2{target.X(), vIv.A}
			newVel = mgl64.Vec2{0, 0}
		}
	case model.DirSouth:
		vIv := idx.verticalAt(pos.X(), pos.Y())
		if target.Y() > vIv.B {
			newPos = mgl64.Vec2{target.X(), vIv.B}
			newVel = mgl64.Vec2{0, 0}
		}
	case model.DirWest:
		hIv := idx.horizontalAt(pos.Y(), pos.X())
		if target.X() < hIv.A {
			newPos = mgl64.Vec2{hIv.A, target.Y()}
			newVel = mgl64.Vec2{0, 0}
		}
	case model.DirEast:
		hIv := idx.horizontalAt(pos.Y(), pos.X())
		if target.X() > hIv.B {
			newPos = mgl64.Vec2{hIv.B, target.Y()}
			newVel = mgl64.Vec2{0, 0}
		}
	}
	return newPos, newVel
}

// LegalPosition reports whether pos sits within the merged road intervals
// for its row or column. Only real road intervals count; the off-road
// fallback interval of the clamp lookups does not.
func (idx *Index) LegalPosition(pos mgl64.Vec2) bool {
	for _, iv := range idx.horizontal[round(pos.Y())] {
		if iv.contains(pos.X()) {
			return true
		}
	}
	for _, iv := range idx.vertical[round(pos.X())] {
		if iv.contains(pos.Y()) {
			return true
		}
	}
	return false
}
