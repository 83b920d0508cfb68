package roadindex

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/packrun/packrun/server/model"
)

// Clamp bounds are the road's endpoints widened by HalfWidth on each side
// (the same padding the road index applies when building buckets), so a
// dog walking off the end of a road with no continuation stops at
// roadEnd+HalfWidth, not at the bare endpoint.
func TestClampAtDeadEnd(t *testing.T) {
	idx := Build([]model.Road{{Start: mgl64.Vec2{0, 0}, End: mgl64.Vec2{10, 0}}})
	pos := mgl64.Vec2{9.9, 0}
	vel := model.DirEast.Velocity(2)
	newPos, newVel := idx.Clamp(pos, vel, model.DirEast, 1)
	wantX := 10 + HalfWidth
	if newPos.X() != wantX || newPos.Y() != 0 {
		t.Fatalf("newPos = %v, want (%v, 0)", newPos, wantX)
	}
	if newVel != (mgl64.Vec2{}) {
		t.Fatalf("newVel = %v, want zero", newVel)
	}
}

func TestLegalPositionOnRoad(t *testing.T) {
	idx := Build([]model.Road{{Start: mgl64.Vec2{0, 0}, End: mgl64.Vec2{10, 0}}})
	if !idx.LegalPosition(mgl64.Vec2{5, 0}) {
		t.Fatal("expected (5,0) to be legal")
	}
	if idx.LegalPosition(mgl64.Vec2{5, 5}) {
		t.Fatal("expected (5,5) to be illegal")
	}
}

func TestNormalizeMergesTouchingIntervals(t *testing.T) {
	merged := normalize([]Interval{{0, 5}, {5, 10}, {20, 25}})
	if len(merged) != 2 {
		t.Fatalf("normalize() produced %d intervals, want 2: %v", len(merged), merged)
	}
	if merged[0].A != 0 || merged[0].B != 10 {
		t.Errorf("first merged interval = %v, want [0,10]", merged[0])
	}
	if merged[1].A != 20 || merged[1].B != 25 {
		t.Errorf("second merged interval = %v, want [20,25]", merged[1])
	}
}
