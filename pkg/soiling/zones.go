package soiling

import "math"

// ZonePosition identifies a cell of the 3x3 panel grid.
type ZonePosition int

const (
	ZoneTopLeft ZonePosition = iota
	ZoneTop
	ZoneTopRight
	ZoneLeft
	ZoneCenter
	ZoneRight
	ZoneBottomLeft
	ZoneBottom
	ZoneBottomRight
)

// ZoneOrder lists zones row by row.
var ZoneOrder = []ZonePosition{
	ZoneTopLeft, ZoneTop, ZoneTopRight,
	ZoneLeft, ZoneCenter, ZoneRight,
	ZoneBottomLeft, ZoneBottom, ZoneBottomRight,
}

var zoneLabels = map[ZonePosition]string{
	ZoneTopLeft:     "TL",
	ZoneTop:         "T",
	ZoneTopRight:    "TR",
	ZoneLeft:        "L",
	ZoneCenter:      "Center",
	ZoneRight:       "R",
	ZoneBottomLeft:  "BL",
	ZoneBottom:      "B",
	ZoneBottomRight: "BR",
}

func (z ZonePosition) String() string { return zoneLabels[z] }

// ZoneData holds per-zone tile statistics.
type ZoneData struct {
	Label     string
	MeanScore float64
	MaxScore  float64
	TileCount int
	Category  DirtCategory
}

// ZoneSummary is the 3x3 breakdown of a tile scoring run.
type ZoneSummary struct {
	Zones    map[ZonePosition]ZoneData
	Dirtiest ZonePosition
	Cleanest ZonePosition
	// Spread is the gap between the dirtiest and cleanest zone means,
	// in score points; large values point at localized soiling.
	Spread float64
	// Reliable is false when some zone received no tile.
	Reliable bool
}

// SummarizeZones assigns each tile to the zone containing its center and
// computes per-zone statistics. Returns nil for an empty score map.
func SummarizeZones(sm ScoreMap, width, height int) *ZoneSummary {
	if len(sm.Tiles) == 0 || width <= 0 || height <= 0 {
		return nil
	}

	zoneScores := make(map[ZonePosition][]float64, len(ZoneOrder))
	half := float64(sm.TileSize) / 2
	for _, t := range sm.Tiles {
		cx := float64(t.Position.X) + half
		cy := float64(t.Position.Y) + half
		pos := classifyZone(cx, cy, float64(width), float64(height))
		zoneScores[pos] = append(zoneScores[pos], t.Score)
	}

	summary := &ZoneSummary{
		Zones:    make(map[ZonePosition]ZoneData, len(ZoneOrder)),
		Reliable: true,
	}
	best, worst := math.MaxFloat64, -1.0
	for _, pos := range ZoneOrder {
		zd := computeZoneData(pos, zoneScores[pos])
		summary.Zones[pos] = zd
		if zd.TileCount == 0 {
			summary.Reliable = false
			continue
		}
		if zd.MeanScore > worst {
			worst = zd.MeanScore
			summary.Dirtiest = pos
		}
		if zd.MeanScore < best {
			best = zd.MeanScore
			summary.Cleanest = pos
		}
	}
	if worst >= 0 {
		summary.Spread = worst - best
	}
	return summary
}

func classifyZone(x, y, width, height float64) ZonePosition {
	col := min(int(x*3/width), 2)
	row := min(int(y*3/height), 2)
	grid := [3][3]ZonePosition{
		{ZoneTopLeft, ZoneTop, ZoneTopRight},
		{ZoneLeft, ZoneCenter, ZoneRight},
		{ZoneBottomLeft, ZoneBottom, ZoneBottomRight},
	}
	return grid[row][col]
}

func computeZoneData(pos ZonePosition, scores []float64) ZoneData {
	zd := ZoneData{Label: zoneLabels[pos], TileCount: len(scores)}
	if len(scores) == 0 {
		return zd
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
		zd.MaxScore = math.Max(zd.MaxScore, s)
	}
	zd.MeanScore = sum / float64(len(scores))
	zd.Category = Classify(zd.MeanScore)
	return zd
}
