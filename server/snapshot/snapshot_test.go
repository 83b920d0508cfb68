package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/packrun/packrun/server/game"
	"github.com/packrun/packrun/server/model"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	snap := game.Snapshot{
		Sessions: []game.SessionSnapshot{
			{
				MapID:     "map1",
				NextDogID: 1,
				Dogs: []model.Dog{
					{ID: 0, Name: "rex", Score: 3},
				},
			},
		},
		Players: []game.PlayerSnapshot{
			{Token: "abc", MapID: "map1", DogID: 0},
		},
	}

	if err := Save(path, snap); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(got.Sessions) != 1 || got.Sessions[0].MapID != "map1" {
		t.Fatalf("Load() sessions = %v", got.Sessions)
	}
	if len(got.Sessions[0].Dogs) != 1 || got.Sessions[0].Dogs[0].Name != "rex" {
		t.Fatalf("Load() dogs = %v", got.Sessions[0].Dogs)
	}
	if len(got.Players) != 1 || got.Players[0].Token != "abc" {
		t.Fatalf("Load() players = %v", got.Players)
	}
}

func TestLoadMissingFileIsNoOp(t *testing.T) {
	dir := t.TempDir()
	got, err := Load(filepath.Join(dir, "absent.json"))
	if err != nil {
		t.Fatalf("Load() error on missing file: %v", err)
	}
	if len(got.Sessions) != 0 || len(got.Players) != 0 {
		t.Fatalf("Load() on missing file = %+v, want zero value", got)
	}
}

func TestOnTickRespectsNonPositivePeriod(t *testing.T) {
	l := &Listener{Path: filepath.Join(t.TempDir(), "state.json"), Period: 0}
	called := false
	l.OnTick(1, func() game.Snapshot {
		called = true
		return game.Snapshot{}
	})
	if called {
		t.Fatal("OnTick with zero period should not build a snapshot")
	}
}
