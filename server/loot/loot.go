// Package loot implements the time-weighted stochastic loot spawn formula:
// given an elapsed interval, a configured probability-per-period, the
// number of currently-lost objects L and the number of active looters G,
// it decides how many new loot units should appear this tick.
//
// Grounded on the original LootGenerator::Generate: the per-period
// probability p is converted to an effective probability for the elapsed
// interval via p_eff = 1 - (1-p)^(dt/period), the expected new-unit count
// is floor(p_eff * (G - L)), and a fractional remainder is resolved with
// one extra Bernoulli draw against an injected RNG so the generator's
// output is reproducible under test.
package loot

import (
	"math"
	"time"
)

// Config is the tunable shape of the generator, read once from map
// configuration.
type Config struct {
	Period      time.Duration
	Probability float64
}

// Source is the generator's random source, satisfied by *rand.Rand so
// callers can inject a seeded source for deterministic tests.
type Source interface {
	Float64() float64
}

// Generator produces new loot unit counts tick by tick.
type Generator struct {
	cfg Config
	rnd Source
}

// New builds a Generator with the given configuration and random source.
func New(cfg Config, rnd Source) *Generator {
	return &Generator{cfg: cfg, rnd: rnd}
}

// Generate returns the number of new loot units that should spawn given an
// elapsed duration dt, the current count of lost (uncollected) objects L,
// and the number of active looters G. It returns 0 if there are no active
// looters or the period is non-positive.
func (g *Generator) Generate(dt time.Duration, lost, looters int) int {
	if looters <= 0 || g.cfg.Period <= 0 {
		return 0
	}
	if lost >= looters {
		return 0
	}
	ratio := float64(dt) / float64(g.cfg.Period)
	pEff := 1 - math.Pow(1-g.cfg.Probability, ratio)
	capacity := float64(looters - lost)
	expected := pEff * capacity
	need := int(math.Floor(expected))
	frac := expected - float64(need)
	if frac > 0 && g.rnd.Float64() < frac {
		need++
	}
	if need > looters-lost {
		need = looters - lost
	}
	return need
}
