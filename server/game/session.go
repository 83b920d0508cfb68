package game

import (
	"math/rand"
	"time"

	"github.com/brentp/intintmap"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/packrun/packrun/server/collision"
	"github.com/packrun/packrun/server/loot"
	"github.com/packrun/packrun/server/model"
	"github.com/packrun/packrun/server/roadindex"
)

// PlayerRadius is half the width of a dog's collection hitbox.
const PlayerRadius = 0.3

// ItemRadius is the collection radius of a lost object lying on the ground.
const ItemRadius = 0.0

// BaseRadius is the collection radius of an office delivery point.
const BaseRadius = 0.25

// Session holds the live, mutable state of one map's game world: its dogs,
// lost objects, and the per-map road index and loot generator. A Session is
// only ever touched from the Manager's strand goroutine.
//
// Grounded on the original GameSession (player.h/.cpp): per-map dog roster,
// lost-object list, lazily-built road interval index, and the tick pipeline
// GenerateLoot -> ProcessTickMove -> ProcessGatherEvent -> CheckAfk.
type Session struct {
	mapID string
	m     *model.Map
	roads *roadindex.Index
	loot  *loot.Generator

	dogs        []*model.Dog
	dogIdx      *intintmap.Map // dog id -> index into dogs
	lost        []model.LostObject
	nextDogID   int
	spawnRand   *rand.Rand
	lootPosRand *rand.Rand
}

func newSession(m *model.Map, lootGen *loot.Generator, seed int64) *Session {
	s := &Session{
		mapID:       m.ID,
		m:           m,
		roads:       roadindex.Build(m.Roads),
		loot:        lootGen,
		dogIdx:      intintmap.New(16, 0.75),
		spawnRand:   rand.New(rand.NewSource(seed)),
		lootPosRand: rand.New(rand.NewSource(seed + 1)),
	}
	return s
}

func (s *Session) reindex() {
	s.dogIdx = intintmap.New(len(s.dogs)+4, 0.75)
	for i, d := range s.dogs {
		s.dogIdx.Put(int64(d.ID), int64(i))
	}
}

func (s *Session) dogByID(id int) (*model.Dog, bool) {
	i, ok := s.dogIdx.Get(int64(id))
	if !ok {
		return nil, false
	}
	return s.dogs[i], true
}

// AddDog adds a new dog to the session, placing it at the map's default
// spawn point or, when randomize is set, at a uniformly random point along
// a uniformly random road.
func (s *Session) AddDog(name string, randomize bool) *model.Dog {
	var pos mgl64.Vec2
	if len(s.m.Roads) > 0 {
		if randomize {
			pos = s.randomRoadPosition()
		} else {
			pos = s.m.Roads[0].Start
		}
	}
	d := &model.Dog{
		ID:   s.nextDogID,
		Name: name,
		Pos:  pos,
		Dir:  model.DirNone,
	}
	s.nextDogID++
	s.dogs = append(s.dogs, d)
	s.reindex()
	return d
}

func (s *Session) randomRoadPosition() mgl64.Vec2 {
	r := s.m.Roads[s.spawnRand.Intn(len(s.m.Roads))]
	t := s.spawnRand.Float64()
	return mgl64.Vec2{
		r.Start.X() + t*(r.End.X()-r.Start.X()),
		r.Start.Y() + t*(r.End.Y()-r.Start.Y()),
	}
}

// DeleteDog removes a dog from the session's roster by id.
func (s *Session) DeleteDog(id int) {
	for i, d := range s.dogs {
		if d.ID == id {
			s.dogs = append(s.dogs[:i], s.dogs[i+1:]...)
			s.reindex()
			return
		}
	}
}

// SetDirection sets a dog's heading and resulting velocity at the map's
// configured speed (zero heading stops the dog without changing Dir's
// rendering value, matching StopDog's semantics of zeroing speed only).
func (s *Session) SetDirection(id int, dir model.Direction) bool {
	d, ok := s.dogByID(id)
	if !ok {
		return false
	}
	if dir == model.DirNone {
		d.Speed = mgl64.Vec2{0, 0}
		return true
	}
	d.Dir = dir
	d.Speed = dir.Velocity(s.m.DogSpeed)
	return true
}

// generateLoot spawns new lost objects for the elapsed tick, skipping when
// there are no dogs or no loot types defined on the map.
func (s *Session) generateLoot(dt time.Duration) {
	if len(s.dogs) == 0 || len(s.m.LootTypes) == 0 {
		return
	}
	need := s.loot.Generate(dt, len(s.lost), len(s.dogs))
	for i := 0; i < need; i++ {
		typ := s.lootPosRand.Intn(len(s.m.LootTypes))
		pos := s.randomRoadPosition()
		s.lost = append(s.lost, model.LostObject{Type: typ, Pos: pos})
	}
}

// tickMove advances every dog's position by one tick, clamped to its
// current road segment.
func (s *Session) tickMove(dt time.Duration) (starts, ends []mgl64.Vec2) {
	seconds := dt.Seconds()
	starts = make([]mgl64.Vec2, len(s.dogs))
	ends = make([]mgl64.Vec2, len(s.dogs))
	for i, d := range s.dogs {
		starts[i] = d.Pos
		newPos, newVel := s.roads.Clamp(d.Pos, d.Speed, d.Dir, seconds)
		d.Pos = newPos
		d.Speed = newVel
		ends[i] = newPos
	}
	return starts, ends
}

// processGather resolves collection events for the tick's motion:
// pickups of lost objects and base deliveries of bagged items, in
// chronological order.
func (s *Session) processGather(starts, ends []mgl64.Vec2) {
	if len(s.dogs) == 0 {
		return
	}
	gatherers := make([]collision.Gatherer, len(s.dogs))
	for i := range s.dogs {
		gatherers[i] = collision.Gatherer{Start: starts[i], End: ends[i], Width: PlayerRadius}
	}
	items := make([]collision.Item, 0, len(s.lost)+len(s.m.Offices))
	for _, lo := range s.lost {
		items = append(items, collision.Item{Pos: lo.Pos, Width: ItemRadius})
	}
	baseStart := len(items)
	for _, off := range s.m.Offices {
		items = append(items, collision.Item{Pos: off.Pos, Width: BaseRadius})
	}

	events := collision.FindGatherEvents(gatherers, items)
	var collectedLost []int
	for _, ev := range events {
		d := s.dogs[ev.GathererIdx]
		if ev.ItemIdx >= baseStart {
			if len(d.Bag) == 0 {
				continue
			}
			for _, item := range d.Bag {
				d.Score += s.lootValue(item.Type)
			}
			d.Bag = d.Bag[:0]
			continue
		}
		lo := &s.lost[ev.ItemIdx]
		if lo.Collected {
			continue
		}
		if len(d.Bag) >= s.m.BagSize {
			continue
		}
		d.Bag = append(d.Bag, model.BagItem{ID: ev.ItemIdx, Type: lo.Type})
		lo.Collected = true
		collectedLost = append(collectedLost, ev.ItemIdx)
	}
	if len(collectedLost) > 0 {
		s.removeCollected()
	}
}

func (s *Session) lootValue(typ int) int {
	if typ < 0 || typ >= len(s.m.LootTypes) {
		return 0
	}
	return s.m.LootTypes[typ].Value
}

func (s *Session) removeCollected() {
	out := s.lost[:0]
	for _, lo := range s.lost {
		if !lo.Collected {
			out = append(out, lo)
		}
	}
	s.lost = out
}

// checkAFK advances play/AFK timers for every dog and returns the ids of
// dogs that have crossed the retirement threshold this tick.
func (s *Session) checkAFK(dt time.Duration, retirement time.Duration) []int {
	var retired []int
	secs := dt.Seconds()
	for _, d := range s.dogs {
		d.PlayTime += secs
		if d.Speed == (mgl64.Vec2{}) {
			d.AFKTime += secs
			if time.Duration(d.AFKTime*float64(time.Second)) >= retirement {
				retired = append(retired, d.ID)
			}
		} else {
			d.AFKTime = 0
		}
	}
	return retired
}
