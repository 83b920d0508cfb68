// Package game implements the session manager: the single-owner actor that
// owns every map's Session, serializes all mutation through one
// transaction queue (the "strand"), drives the tick pipeline, mints and
// resolves player tokens, and retires AFK players to a leaderboard sink.
//
// Grounded on the teacher's server/world/world.go transaction-queue actor
// (queue chan transaction / handleTransactions) and server/world/tick.go's
// ticker (time.NewTicker driving Exec once per tick), and on the original
// GameSessionManager (player.h/.cpp) for the domain operations themselves.
package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/packrun/packrun/server/gameerr"
	"github.com/packrun/packrun/server/game/internal/txguard"
	"github.com/packrun/packrun/server/leaderboard"
	"github.com/packrun/packrun/server/loot"
	"github.com/packrun/packrun/server/model"
)

// RetirementSink receives a record for every player who retires from AFK
// timeout, regardless of score, and serves ranked pagination for the
// records endpoint. Satisfied by *leaderboard.Sink.
type RetirementSink interface {
	Add(ctx context.Context, name string, score int, playTimeSeconds float64) error
	Get(ctx context.Context, start, maxItems int) ([]leaderboard.Record, error)
}

// PlayerKey identifies a registered player's seat within a session.
type PlayerKey struct {
	MapID string
	DogID int
}

// transaction is a unit of work run on the Manager's strand goroutine.
type transaction func(m *Manager)

// Config configures a Manager at construction time.
type Config struct {
	Maps             map[string]*model.Map // by id
	MapOrder         []string              // load order, for deterministic listing
	LootConfig       loot.Config
	Randomize        bool
	RetirementPeriod time.Duration
	Retirement       RetirementSink
	Log              *zap.Logger
	Seed             int64
	// OnTick, if set, is called once per Tick after every session has been
	// advanced, mirroring the original's listener_->OnTick(ms) call at the
	// end of ProcessTick. It runs on the strand goroutine itself, so it
	// must build the snapshot by calling snap, which reads state directly,
	// rather than calling back into Exec.
	// Used to drive periodic snapshot saves.
	OnTick func(dt time.Duration, snap func() Snapshot)
}

// Manager owns every map's Session and is the sole place game state is
// mutated. Every exported method that reads or changes game state submits
// a transaction and blocks for its result; callers on other goroutines
// never see partial state. Exec and Close manage the strand itself, and
// Maps and MapByID read the immutable map configuration directly.
type Manager struct {
	conf Config
	log  *zap.Logger

	queue        chan transaction
	queueClosing chan struct{}
	closeOnce    sync.Once
	running      sync.WaitGroup

	sessions     map[string]*Session
	sessionOrder []string // insertion order, iterated for tick/snapshot determinism
	players      map[Token]PlayerKey

	rngSeed int64
}

// New constructs a Manager and starts its strand goroutine.
func New(conf Config) *Manager {
	if conf.Log == nil {
		conf.Log = zap.NewNop()
	}
	m := &Manager{
		conf:         conf,
		log:          conf.Log,
		queue:        make(chan transaction, 64),
		queueClosing: make(chan struct{}),
		sessions:     make(map[string]*Session),
		players:      make(map[Token]PlayerKey),
		rngSeed:      conf.Seed,
	}
	m.running.Add(1)
	go m.handleTransactions()
	return m
}

func (m *Manager) handleTransactions() {
	defer m.running.Done()
	for {
		select {
		case tx := <-m.queue:
			tx(m)
		case <-m.queueClosing:
			return
		}
	}
}

// Exec submits f to run on the strand goroutine and returns a channel that
// closes once f has run. It panics with txguard.ClosedPanicMessage if
// called after Close; wrap calls through txguard.Run/Value to turn that
// into a clean false/zero-value result instead.
func (m *Manager) Exec(f func(m *Manager)) <-chan struct{} {
	done := make(chan struct{})
	select {
	case m.queue <- func(m *Manager) {
		defer close(done)
		f(m)
	}:
	case <-m.queueClosing:
		panic(txguard.ClosedPanicMessage)
	}
	return done
}

// Close stops the strand goroutine and waits for it to exit. Further Exec
// calls panic; use txguard to guard callers that might race shutdown.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.queueClosing)
	})
	m.running.Wait()
}

// execGuarded runs f on the strand like Exec, but converts the panic Exec
// raises after Close into a plain false return instead of letting it climb
// into the calling goroutine (an HTTP handler racing shutdown, most often).
func (m *Manager) execGuarded(f func(m *Manager)) bool {
	return txguard.Run(func() {
		<-m.Exec(f)
	})
}

func (m *Manager) sessionFor(mapID string) (*Session, error) {
	if s, ok := m.sessions[mapID]; ok {
		return s, nil
	}
	mp, ok := m.conf.Maps[mapID]
	if !ok {
		return nil, gameerr.ErrMapNotFound
	}
	lootSeed := m.rngSeed
	spawnSeed := m.rngSeed + 1<<32
	s := newSession(mp, loot.New(m.conf.LootConfig, rand.New(rand.NewSource(lootSeed))), spawnSeed)
	m.rngSeed++
	m.sessions[mapID] = s
	m.sessionOrder = append(m.sessionOrder, mapID)
	return s, nil
}

// Join result is returned by Manager.Join.
type Join struct {
	Token Token
	DogID int
}

// Join registers a new player with the given display name on mapID,
// spawning a dog and minting a fresh token. It is safe to call
// concurrently; the work runs on the strand.
func (m *Manager) Join(mapID, name string) (Join, error) {
	type result struct {
		j   Join
		err error
	}
	var r result
	if ok := m.execGuarded(func(m *Manager) {
		if name == "" {
			r.err = gameerr.ErrInvalidName
			return
		}
		s, err := m.sessionFor(mapID)
		if err != nil {
			r.err = err
			return
		}
		d := s.AddDog(name, m.conf.Randomize)
		tok := newToken()
		m.players[tok] = PlayerKey{MapID: mapID, DogID: d.ID}
		r.j = Join{Token: tok, DogID: d.ID}
	}); !ok {
		return Join{}, gameerr.ErrInternal
	}
	return r.j, r.err
}

func (m *Manager) resolve(tok Token) (PlayerKey, error) {
	pk, ok := m.players[tok]
	if !ok {
		return PlayerKey{}, gameerr.ErrTokenUnknown
	}
	return pk, nil
}

// SetDirection sets the heading of the dog owned by tok.
func (m *Manager) SetDirection(tok Token, dir model.Direction) error {
	var err error
	if ok := m.execGuarded(func(m *Manager) {
		pk, e := m.resolve(tok)
		if e != nil {
			err = e
			return
		}
		s := m.sessions[pk.MapID]
		s.SetDirection(pk.DogID, dir)
	}); !ok {
		return gameerr.ErrInternal
	}
	return err
}

// MapState is the rendered state of one session for the HTTP state
// endpoint: every dog and every lost object currently on the map.
type MapState struct {
	Dogs []model.Dog
	Lost []model.LostObject
}

// State returns the current state of the map the player identified by tok
// is on.
func (m *Manager) State(tok Token) (MapState, error) {
	var st MapState
	var err error
	if ok := m.execGuarded(func(m *Manager) {
		pk, e := m.resolve(tok)
		if e != nil {
			err = e
			return
		}
		s := m.sessions[pk.MapID]
		for _, d := range s.dogs {
			st.Dogs = append(st.Dogs, *d)
		}
		st.Lost = append(st.Lost, s.lost...)
	}); !ok {
		return MapState{}, gameerr.ErrInternal
	}
	return st, err
}

// Players returns the dog id -> name roster for the map the player
// identified by tok is on.
func (m *Manager) Players(tok Token) (map[int]string, error) {
	var out map[int]string
	var err error
	if ok := m.execGuarded(func(m *Manager) {
		pk, e := m.resolve(tok)
		if e != nil {
			err = e
			return
		}
		s := m.sessions[pk.MapID]
		out = make(map[int]string, len(s.dogs))
		for _, d := range s.dogs {
			out[d.ID] = d.Name
		}
	}); !ok {
		return nil, gameerr.ErrInternal
	}
	return out, err
}

// Tick advances every session by dt: loot generation, movement, gather
// resolution, and AFK retirement, in that order per session, matching the
// original ProcessTick pipeline. A leaderboard write failure during
// retirement aborts the remainder of the tick (including the OnTick
// snapshot hook) and is returned wrapped in gameerr.ErrInternal, rather
// than being silently dropped.
func (m *Manager) Tick(ctx context.Context, dt time.Duration) error {
	var err error
	if ok := m.execGuarded(func(m *Manager) {
		for _, mapID := range m.sessionOrder {
			s := m.sessions[mapID]
			s.generateLoot(dt)
			starts, ends := s.tickMove(dt)
			s.processGather(starts, ends)
			retired := s.checkAFK(dt, m.conf.RetirementPeriod)
			for _, id := range retired {
				if rerr := m.retire(ctx, s, id); rerr != nil {
					err = rerr
					return
				}
			}
		}
		if m.conf.OnTick != nil {
			m.conf.OnTick(dt, m.snapshotLocked)
		}
	}); !ok {
		return gameerr.ErrInternal
	}
	return err
}

// ListedMap is the summary shape returned by the maps listing endpoint.
type ListedMap struct {
	ID   string
	Name string
}

// Maps returns every loaded map's id and name, in load order. Map data is
// immutable once loaded, so this reads conf directly without going through
// the strand.
func (m *Manager) Maps() []ListedMap {
	out := make([]ListedMap, 0, len(m.conf.MapOrder))
	for _, id := range m.conf.MapOrder {
		mp := m.conf.Maps[id]
		out = append(out, ListedMap{ID: mp.ID, Name: mp.Name})
	}
	return out
}

// MapByID returns the full, immutable map configuration for id.
func (m *Manager) MapByID(id string) (*model.Map, bool) {
	mp, ok := m.conf.Maps[id]
	return mp, ok
}

// Records delegates to the configured RetirementSink's ranked pagination,
// running on the strand like every other state access.
func (m *Manager) Records(ctx context.Context, start, maxItems int) ([]leaderboard.Record, error) {
	var recs []leaderboard.Record
	var err error
	if ok := m.execGuarded(func(m *Manager) {
		if m.conf.Retirement == nil {
			return
		}
		recs, err = m.conf.Retirement.Get(ctx, start, maxItems)
	}); !ok {
		return nil, gameerr.ErrInternal
	}
	return recs, err
}

// retire appends dogID's final record to the leaderboard sink, then removes
// its token and dog. The leaderboard write happens first and gates the
// removal: if it fails, the player stays seated and the error propagates
// as gameerr.ErrInternal instead of the retirement being silently dropped.
func (m *Manager) retire(ctx context.Context, s *Session, dogID int) error {
	d, ok := s.dogByID(dogID)
	if !ok {
		return nil
	}
	name, score, playTime := d.Name, d.Score, d.PlayTime
	if m.conf.Retirement != nil {
		if err := m.conf.Retirement.Add(ctx, name, score, playTime); err != nil {
			m.log.Error("retirement record failed", zap.String("name", name), zap.Error(err))
			return fmt.Errorf("%w: retirement record for %q: %v", gameerr.ErrInternal, name, err)
		}
	}
	var tok Token
	for t, pk := range m.players {
		if pk.MapID == s.mapID && pk.DogID == dogID {
			tok = t
			break
		}
	}
	delete(m.players, tok)
	s.DeleteDog(dogID)
	return nil
}
