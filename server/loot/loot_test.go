package loot

import (
	"testing"
	"time"
)

type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

func TestGenerateDeterministic(t *testing.T) {
	g := New(Config{Period: time.Second, Probability: 1}, constSource(1.0))
	got := g.Generate(time.Second, 0, 1)
	if got != 1 {
		t.Fatalf("Generate() = %d, want 1", got)
	}
}

func TestGenerateNoLootersNoSpawn(t *testing.T) {
	g := New(Config{Period: time.Second, Probability: 1}, constSource(1.0))
	if got := g.Generate(time.Second, 0, 0); got != 0 {
		t.Fatalf("Generate() with zero looters = %d, want 0", got)
	}
}

func TestGenerateCapsAtLooterCount(t *testing.T) {
	g := New(Config{Period: time.Second, Probability: 1}, constSource(1.0))
	got := g.Generate(time.Second, 0, 3)
	if got != 3 {
		t.Fatalf("Generate() = %d, want capped at 3", got)
	}
}

func TestGenerateZeroWhenLostMeetsLooters(t *testing.T) {
	g := New(Config{Period: time.Second, Probability: 1}, constSource(1.0))
	if got := g.Generate(time.Second, 2, 2); got != 0 {
		t.Fatalf("Generate() with L==G = %d, want 0", got)
	}
}
