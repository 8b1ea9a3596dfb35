package watcher

import (
	"math"
	"sort"
	"strings"

	"crypto_tracker/internal/models"
)

const (
	heatmapSize    = 50
	tileMinPx      = 60
	tileMaxPx      = 180
	pxPerBlockChar = 30
)

// HeatTile is one coin on the heatmap.
type HeatTile struct {
	Coin   models.Coin
	Size   int // nominal tile edge in pixels, from 60 to 180
	Bucket int // 0 (>= +10%) through 7 (< -10%)
}

// BuildHeatmap takes the top coins by market cap; tile size scales with the
// square root of the coin's share of the largest cap.
func BuildHeatmap(coins []models.Coin) []HeatTile {
	sorted := append([]models.Coin(nil), coins...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MarketCap > sorted[j].MarketCap
	})
	if len(sorted) > heatmapSize {
		sorted = sorted[:heatmapSize]
	}
	if len(sorted) == 0 {
		return nil
	}

	maxCap := sorted[0].MarketCap
	if maxCap <= 0 {
		maxCap = 1
	}

	tiles := make([]HeatTile, len(sorted))
	for i, c := range sorted {
		ratio := math.Sqrt(math.Max(c.MarketCap, 0) / maxCap)
		size := int(math.Round(ratio * tileMaxPx))
		if size < tileMinPx {
			size = tileMinPx
		}
		tiles[i] = HeatTile{Coin: c, Size: size, Bucket: heatBucket(c.PriceChangePercentage24h)}
	}
	return tiles
}

func heatBucket(pct float64) int {
	switch {
	case pct >= 10:
		return 0
	case pct >= 5:
		return 1
	case pct >= 2:
		return 2
	case pct >= 0:
		return 3
	case pct >= -2:
		return 4
	case pct >= -5:
		return 5
	case pct >= -10:
		return 6
	}
	return 7
}

// heatGlyph repeats the theme's up/down marker by bucket intensity.
func heatGlyph(bucket int, up, down string) string {
	if bucket <= 3 {
		return strings.Repeat(up, 4-bucket)
	}
	return strings.Repeat(down, bucket-3)
}

// blockBar draws a bar whose length tracks the tile size.
func blockBar(size int) string {
	return strings.Repeat("█", size/pxPerBlockChar)
}
