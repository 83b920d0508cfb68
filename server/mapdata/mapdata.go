// Package mapdata loads the game configuration file: the list of maps
// (roads, buildings, offices, loot types, per-map speed/bag overrides) plus
// the game-wide loot generator configuration and AFK retirement threshold.
//
// Grounded on the original json_loader.cpp: the same field names
// (roads/buildings/offices/x0/y0/x1/y1/x/y/w/h/id/offsetX/offsetY/maps/
// name/defaultDogSpeed/dogSpeed/lootTypes/lootGeneratorConfig/period/
// probability/defaultBagCapacity/bagCapacity/dogRetirementTime), the same
// default-then-per-map-override resolution for speed and bag capacity, and
// the same 60-second default retirement time when the key is absent.
package mapdata

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/packrun/packrun/server/loot"
	"github.com/packrun/packrun/server/model"
)

// Loaded is everything read from one game configuration file.
type Loaded struct {
	Maps             map[string]*model.Map
	MapOrder         []string
	LootConfig       loot.Config
	RetirementPeriod time.Duration
}

type fileRoad struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 *float64 `json:"x1"`
	Y1 *float64 `json:"y1"`
}

type fileBuilding struct {
	X, Y, W, H int
}

type fileOffice struct {
	ID      string `json:"id"`
	X       float64
	Y       float64
	OffsetX int `json:"offsetX"`
	OffsetY int `json:"offsetY"`
}

type fileLootGenConfig struct {
	Period      float64 `json:"period"`
	Probability float64 `json:"probability"`
}

type fileMap struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Roads            []fileRoad       `json:"roads"`
	Buildings        []fileBuilding   `json:"buildings"`
	Offices          []fileOffice     `json:"offices"`
	DogSpeed         *float64         `json:"dogSpeed"`
	BagCapacity      *int             `json:"bagCapacity"`
	LootTypes        []map[string]any `json:"lootTypes"`
}

type fileRoot struct {
	Maps                []fileMap         `json:"maps"`
	DefaultDogSpeed     *float64          `json:"defaultDogSpeed"`
	DefaultBagCapacity  *int              `json:"defaultBagCapacity"`
	LootGeneratorConfig fileLootGenConfig `json:"lootGeneratorConfig"`
	DogRetirementTime   *float64          `json:"dogRetirementTime"`
}

// Load reads and parses the game configuration file at path.
func Load(path string) (*Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mapdata: read %s: %w", path, err)
	}
	var root fileRoot
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("mapdata: parse %s: %w", path, err)
	}

	defaultSpeed := 1.0
	if root.DefaultDogSpeed != nil {
		defaultSpeed = *root.DefaultDogSpeed
	}
	defaultBag := 3
	if root.DefaultBagCapacity != nil {
		defaultBag = *root.DefaultBagCapacity
	}

	out := &Loaded{
		Maps: make(map[string]*model.Map, len(root.Maps)),
		LootConfig: loot.Config{
			Period:      time.Duration(root.LootGeneratorConfig.Period * float64(time.Second)),
			Probability: root.LootGeneratorConfig.Probability,
		},
		RetirementPeriod: 60 * time.Second,
	}
	if root.DogRetirementTime != nil {
		out.RetirementPeriod = time.Duration(*root.DogRetirementTime * float64(time.Second))
	}

	for _, fm := range root.Maps {
		if _, dup := out.Maps[fm.ID]; dup {
			return nil, fmt.Errorf("mapdata: duplicate map id %q", fm.ID)
		}
		m := &model.Map{
			ID:       fm.ID,
			Name:     fm.Name,
			DogSpeed: defaultSpeed,
			BagSize:  defaultBag,
		}
		if fm.DogSpeed != nil {
			m.DogSpeed = *fm.DogSpeed
		}
		if fm.BagCapacity != nil {
			m.BagSize = *fm.BagCapacity
		}
		for _, fr := range fm.Roads {
			start := mgl64.Vec2{fr.X0, fr.Y0}
			end := start
			if fr.X1 != nil {
				end = mgl64.Vec2{*fr.X1, fr.Y0}
			} else if fr.Y1 != nil {
				end = mgl64.Vec2{fr.X0, *fr.Y1}
			}
			m.Roads = append(m.Roads, model.Road{Start: start, End: end})
		}
		for _, fb := range fm.Buildings {
			m.Buildings = append(m.Buildings, model.Building{X: fb.X, Y: fb.Y, Width: fb.W, Height: fb.H})
		}
		seenOffice := map[string]bool{}
		for _, fo := range fm.Offices {
			if seenOffice[fo.ID] {
				return nil, fmt.Errorf("mapdata: duplicate office id %q on map %q", fo.ID, fm.ID)
			}
			seenOffice[fo.ID] = true
			m.Offices = append(m.Offices, model.Office{
				ID:      fo.ID,
				Pos:     mgl64.Vec2{fo.X, fo.Y},
				OffsetX: fo.OffsetX,
				OffsetY: fo.OffsetY,
			})
		}
		for _, lt := range fm.LootTypes {
			value := 0
			if v, ok := lt["value"]; ok {
				switch n := v.(type) {
				case float64:
					value = int(n)
				}
			}
			m.LootTypes = append(m.LootTypes, model.LootType{Value: value, Extra: lt})
		}
		out.Maps[fm.ID] = m
		out.MapOrder = append(out.MapOrder, fm.ID)
	}
	return out, nil
}
