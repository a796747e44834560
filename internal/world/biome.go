package world

import (
	"image/color"
	"math"
)

// Biome classifies a cell by water, elevation and moisture.
type Biome uint8

const (
	BiomeOcean Biome = iota
	BiomeLake
	BiomeMarsh
	BiomeIce
	BiomeBeach
	BiomeSnow
	BiomeTundra
	BiomeBare
	BiomeScorched
	BiomeTaiga
	BiomeShrubland
	BiomeTemperateDesert
	BiomeHighTemperateDesert
	BiomeTemperateRainForest
	BiomeTemperateDeciduousForest
	BiomeHighTemperateDeciduousForest
	BiomeGrassland
	BiomeSubtropicalDesert
	BiomeTropicalRainForest
	BiomeTropicalSeasonalForest
)

type biomeInfo struct {
	name  string
	color color.NRGBA
}

func rgb(hex uint32) color.NRGBA {
	return color.NRGBA{R: uint8(hex >> 16), G: uint8(hex >> 8), B: uint8(hex), A: 0xff}
}

var biomeTable = [...]biomeInfo{
	BiomeOcean:                        {"Ocean", rgb(0x44447a)},
	BiomeLake:                         {"Lake", rgb(0x336699)},
	BiomeMarsh:                        {"Marsh", rgb(0x2f6666)},
	BiomeIce:                          {"Ice", rgb(0x99ffff)},
	BiomeBeach:                        {"Beach", rgb(0xa09077)},
	BiomeSnow:                         {"Snow", rgb(0xffffff)},
	BiomeTundra:                       {"Tundra", rgb(0xbbbbaa)},
	BiomeBare:                         {"Bare", rgb(0x888888)},
	BiomeScorched:                     {"Scorched", rgb(0x555555)},
	BiomeTaiga:                        {"Taiga", rgb(0x99aa77)},
	BiomeShrubland:                    {"Shrubland", rgb(0x889977)},
	BiomeTemperateDesert:              {"Temperate Desert", rgb(0xc9d29b)},
	BiomeHighTemperateDesert:          {"High Temperate Desert", rgb(0xbdc499)},
	BiomeTemperateRainForest:          {"Temperate Rain Forest", rgb(0x448855)},
	BiomeTemperateDeciduousForest:     {"Temperate Deciduous Forest", rgb(0x679459)},
	BiomeHighTemperateDeciduousForest: {"High Temperate Deciduous Forest", rgb(0x4a773d)},
	BiomeGrassland:                    {"Grassland", rgb(0x88aa55)},
	BiomeSubtropicalDesert:            {"Subtropical Desert", rgb(0xd2b98b)},
	BiomeTropicalRainForest:           {"Tropical Rain Forest", rgb(0x337755)},
	BiomeTropicalSeasonalForest:       {"Tropical Seasonal Forest", rgb(0x559944)},
}

// BiomeName returns a human-readable biome name.
func BiomeName(b Biome) string {
	if int(b) < len(biomeTable) {
		return biomeTable[b].name
	}
	return "Unknown"
}

// BiomeColor returns the biome's map color.
func BiomeColor(b Biome) color.NRGBA {
	if int(b) < len(biomeTable) {
		return biomeTable[b].color
	}
	return color.NRGBA{A: 0xff}
}

// ClassifyBiome picks a biome. For land, elevation is the height above sea
// level normalized to [0, 1]; for water it is the raw elevation. moisture
// is in [0, 1].
func ClassifyBiome(water, lake, coast bool, elevation, moisture float64) Biome {
	switch {
	case water && !lake:
		return BiomeOcean
	case water:
		if elevation < 0.1 {
			return BiomeMarsh
		}
		if elevation > 0.8 {
			return BiomeIce
		}
		return BiomeLake
	case coast:
		return BiomeBeach
	case elevation > 0.8:
		switch {
		case moisture > 0.5:
			return BiomeSnow
		case moisture > 0.33:
			return BiomeTundra
		case moisture > 0.16:
			return BiomeBare
		}
		return BiomeScorched
	case elevation > 0.6:
		switch {
		case moisture > 0.66:
			return BiomeTaiga
		case moisture > 0.33:
			return BiomeShrubland
		}
		return BiomeHighTemperateDesert
	case elevation > 0.45:
		switch {
		case moisture > 0.83:
			return BiomeTemperateRainForest
		case moisture > 0.5:
			return BiomeHighTemperateDeciduousForest
		case moisture > 0.16:
			return BiomeGrassland
		}
		return BiomeTemperateDesert
	case elevation > 0.3:
		switch {
		case moisture > 0.83:
			return BiomeTemperateRainForest
		case moisture > 0.5:
			return BiomeTemperateDeciduousForest
		case moisture > 0.16:
			return BiomeGrassland
		}
		return BiomeTemperateDesert
	}
	switch {
	case moisture > 0.66:
		return BiomeTropicalRainForest
	case moisture > 0.33:
		return BiomeTropicalSeasonalForest
	case moisture > 0.16:
		return BiomeGrassland
	}
	return BiomeSubtropicalDesert
}

func (g *Graph) biomeOf(ci int) Biome {
	c := &g.Centers[ci]
	elevation := 0.0
	if c.IsWater {
		elevation = c.Elevation
	} else if span := g.maxElevation - SeaLevel; span > 0 && c.Elevation > SeaLevel {
		elevation = math.Sqrt(min(1, (c.Elevation-SeaLevel)/span))
	}
	return ClassifyBiome(c.IsWater, c.IsLake, c.IsCoast, elevation, c.Moisture)
}
