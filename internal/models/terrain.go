package models

import (
	"fmt"
	"strings"
)

type Terrain string

const (
	TerrainMountains Terrain = "Mountains"
	TerrainHighway   Terrain = "Highway"
	TerrainTrail     Terrain = "Trail"
	TerrainBeach     Terrain = "Beach"
	TerrainUrban     Terrain = "Urban"
)

var terrainEmoji = map[Terrain]string{
	TerrainMountains: "⛰",
	TerrainHighway:   "🛣",
	TerrainTrail:     "🌲",
	TerrainBeach:     "🌊",
	TerrainUrban:     "🏙",
}

// Terrains returns the terrain filters in display order
func Terrains() []Terrain {
	return []Terrain{TerrainMountains, TerrainHighway, TerrainTrail, TerrainBeach, TerrainUrban}
}

// ParseTerrain matches case-insensitively against the known terrains
func ParseTerrain(s string) (Terrain, error) {
	s = strings.TrimSpace(s)
	for _, t := range Terrains() {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown terrain %q", s)
}

func (t Terrain) Valid() bool {
	_, ok := terrainEmoji[t]
	return ok
}

func (t Terrain) Emoji() string {
	if e, ok := terrainEmoji[t]; ok {
		return e
	}
	return "🛣"
}
