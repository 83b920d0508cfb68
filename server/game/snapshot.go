package game

import (
	"github.com/packrun/packrun/server/gameerr"
	"github.com/packrun/packrun/server/model"
)

// Snapshot is the full persistable state of a Manager: every session's
// dogs and lost objects, plus the token-to-seat registry, in a shape ready
// for JSON encoding by the snapshot package.
//
// Grounded on the original SerState/SerSessionState/SerPlayer
// (infrastructure.h/.cpp).
type Snapshot struct {
	Sessions []SessionSnapshot
	Players  []PlayerSnapshot
}

// SessionSnapshot is one map's persisted session state.
type SessionSnapshot struct {
	MapID     string
	NextDogID int
	Dogs      []model.Dog
	Lost      []model.LostObject
}

// PlayerSnapshot is one persisted token-to-seat binding.
type PlayerSnapshot struct {
	Token Token
	MapID string
	DogID int
}

// Snapshot captures the Manager's full state for persistence. It returns
// the zero Snapshot if the Manager has already been closed.
func (m *Manager) Snapshot() Snapshot {
	var snap Snapshot
	m.execGuarded(func(m *Manager) {
		snap = m.snapshotLocked()
	})
	return snap
}

// snapshotLocked builds a Snapshot assuming the caller is already running
// on the strand goroutine (inside an Exec callback) — used by OnTick hooks
// that must not re-enter Exec from within a transaction.
func (m *Manager) snapshotLocked() Snapshot {
	var snap Snapshot
	for _, mapID := range m.sessionOrder {
		s := m.sessions[mapID]
		ss := SessionSnapshot{MapID: mapID, NextDogID: s.nextDogID}
		for _, d := range s.dogs {
			ss.Dogs = append(ss.Dogs, *d)
		}
		ss.Lost = append(ss.Lost, s.lost...)
		snap.Sessions = append(snap.Sessions, ss)
	}
	for tok, pk := range m.players {
		snap.Players = append(snap.Players, PlayerSnapshot{Token: tok, MapID: pk.MapID, DogID: pk.DogID})
	}
	return snap
}

// Restore loads a previously captured Snapshot back into the Manager. It
// must be called before the Manager starts serving requests or ticking;
// restoring into a live session is not supported. Restore returns a
// *gameerr.RestoreError if a player references a dog that no snapshot
// session actually restored.
func (m *Manager) Restore(snap Snapshot) error {
	var err error
	if ok := m.execGuarded(func(m *Manager) {
		for _, ss := range snap.Sessions {
			if _, ok := m.conf.Maps[ss.MapID]; !ok {
				continue
			}
			s, e := m.sessionFor(ss.MapID)
			if e != nil {
				err = e
				return
			}
			s.nextDogID = ss.NextDogID
			s.dogs = s.dogs[:0]
			for i := range ss.Dogs {
				d := ss.Dogs[i]
				s.dogs = append(s.dogs, &d)
			}
			s.reindex()
			s.lost = append([]model.LostObject(nil), ss.Lost...)
		}
		for _, ps := range snap.Players {
			s, ok := m.sessions[ps.MapID]
			if !ok {
				err = &gameerr.RestoreError{MapID: ps.MapID, DogID: ps.DogID}
				return
			}
			if _, ok := s.dogByID(ps.DogID); !ok {
				err = &gameerr.RestoreError{MapID: ps.MapID, DogID: ps.DogID}
				return
			}
			m.players[ps.Token] = PlayerKey{MapID: ps.MapID, DogID: ps.DogID}
		}
	}); !ok {
		return gameerr.ErrInternal
	}
	return err
}
