// Package snapshot persists a game.Manager's state to a JSON file on a
// fixed period, writing to a temporary file and renaming it over the
// target so a crash mid-write never leaves a torn file behind.
//
// Grounded on the original SerializingListener::TrySaveToFile
// (infrastructure.cpp): write to path+".tmp", then std::filesystem::rename
// onto the real path — os.Rename gives the same atomic-on-same-filesystem
// guarantee in Go.
package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/packrun/packrun/server/game"
)

// Listener periodically saves a Manager's state to Path. A zero or
// negative Period disables saving entirely, matching the original's
// save_period_<=0 no-op rule.
//
// Listener.OnTick matches the signature the game package's Manager.Config
// expects for its OnTick hook: it is invoked on the Manager's own strand
// goroutine, so Save must take an already-built Snapshot rather than
// calling back into Manager.Exec (which would deadlock against the very
// transaction that is invoking the hook).
type Listener struct {
	Path   string
	Period time.Duration
	Log    *zap.Logger

	sinceLastSave time.Duration
}

// OnTick is called once per tick with the elapsed duration and a thunk
// that builds the current Snapshot; it accumulates time since the last
// save and triggers a save once Period has elapsed.
func (l *Listener) OnTick(dt time.Duration, snap func() game.Snapshot) {
	if l.Period <= 0 || l.Path == "" {
		return
	}
	l.sinceLastSave += dt
	if l.sinceLastSave < l.Period {
		return
	}
	l.sinceLastSave = 0
	if err := Save(l.Path, snap()); err != nil {
		log := l.Log
		if log == nil {
			log = zap.NewNop()
		}
		log.Error("snapshot save failed", zap.Error(err))
	}
}

// Save writes snap to path via a temp-file-then-rename sequence.
func Save(path string, snap game.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads a previously saved Snapshot from path. It returns
// (zero-value, nil) if the file does not exist, matching the original
// TryLoadFromFile's no-op-on-absence behavior.
func Load(path string) (game.Snapshot, error) {
	var snap game.Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return snap, nil
		}
		return snap, err
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, err
	}
	return snap, nil
}

// EnsureDir creates the parent directory of path if it does not exist, so
// a fresh deployment's first save doesn't fail on a missing directory.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
