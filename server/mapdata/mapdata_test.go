package mapdata

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `{
  "defaultDogSpeed": 2,
  "defaultBagCapacity": 4,
  "dogRetirementTime": 45,
  "lootGeneratorConfig": { "period": 2.5, "probability": 0.4 },
  "maps": [
    {
      "id": "map1",
      "name": "First map",
      "roads": [{"x0": 0, "y0": 0, "x1": 10}],
      "buildings": [{"X": 1, "Y": 1, "W": 2, "H": 2}],
      "offices": [{"id": "office-1", "X": 6, "Y": 0, "offsetX": 0, "offsetY": 1}],
      "lootTypes": [{"value": 10, "name": "key"}]
    },
    {
      "id": "map2",
      "name": "Second map",
      "dogSpeed": 5,
      "bagCapacity": 1,
      "roads": [{"x0": 0, "y0": 0, "y1": 5}]
    }
  ]
}`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		t.Fatalf("write sample config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	loaded, err := Load(writeSample(t))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(loaded.Maps) != 2 {
		t.Fatalf("Maps = %d, want 2", len(loaded.Maps))
	}

	m1 := loaded.Maps["map1"]
	if m1.DogSpeed != 2 {
		t.Errorf("map1 DogSpeed = %v, want default 2", m1.DogSpeed)
	}
	if m1.BagSize != 4 {
		t.Errorf("map1 BagSize = %v, want default 4", m1.BagSize)
	}
	if len(m1.LootTypes) != 1 || m1.LootTypes[0].Value != 10 {
		t.Errorf("map1 LootTypes = %v", m1.LootTypes)
	}
	if len(m1.Offices) != 1 || m1.Offices[0].ID != "office-1" {
		t.Errorf("map1 Offices = %v", m1.Offices)
	}

	m2 := loaded.Maps["map2"]
	if m2.DogSpeed != 5 {
		t.Errorf("map2 DogSpeed = %v, want override 5", m2.DogSpeed)
	}
	if m2.BagSize != 1 {
		t.Errorf("map2 BagSize = %v, want override 1", m2.BagSize)
	}

	if loaded.RetirementPeriod.Seconds() != 45 {
		t.Errorf("RetirementPeriod = %v, want 45s", loaded.RetirementPeriod)
	}
	if loaded.LootConfig.Probability != 0.4 {
		t.Errorf("LootConfig.Probability = %v, want 0.4", loaded.LootConfig.Probability)
	}
}

func TestLoadDuplicateMapIDFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	dup := `{"maps":[{"id":"a","roads":[]},{"id":"a","roads":[]}]}`
	if err := os.WriteFile(path, []byte(dup), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load() with duplicate map id should fail")
	}
}

func TestLoadDefaultRetirementTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"maps":[]}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.RetirementPeriod.Seconds() != 60 {
		t.Fatalf("RetirementPeriod = %v, want default 60s", loaded.RetirementPeriod)
	}
}
