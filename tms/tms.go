// Package tms implements the subset of OGC TileMatrixSet math needed to
// align COGs on a web tiling scheme: named scheme lookup, tile indexing,
// tile bounds, and zoom/resolution conversions.
package tms

import (
	"fmt"
	"math"
)

// earthCircumference is the WGS84 equatorial circumference in meters.
const earthCircumference = 40075016.685578488

// ZoomStrategy selects the integer zoom level when the native resolution
// falls between two zoom levels. Lower picks the coarser level
// (subsampling), Upper the finer one (oversampling), Auto the closest.
type ZoomStrategy string

const (
	ZoomAuto  ZoomStrategy = "auto"
	ZoomLower ZoomStrategy = "lower"
	ZoomUpper ZoomStrategy = "upper"
)

// A Tile addresses a single cell of a tile matrix.
type Tile struct {
	X, Y, Z int
}

// A TileMatrixSet is a quad-tree pyramid of square tiles over a planar CRS.
type TileMatrixSet struct {
	ID       string
	CRS      string
	EPSG     int
	TileSize int
	MaxZoom  int

	originX, originY float64 // top-left corner of the zoom 0 matrix
	rootResolution   float64 // meters per pixel at zoom 0
}

var registry = map[string]*TileMatrixSet{
	"WebMercatorQuad": {
		ID:             "WebMercatorQuad",
		CRS:            "EPSG:3857",
		EPSG:           3857,
		TileSize:       256,
		MaxZoom:        24,
		originX:        -earthCircumference / 2,
		originY:        earthCircumference / 2,
		rootResolution: earthCircumference / 256,
	},
}

// Get returns the named tile matrix set.
func Get(name string) (*TileMatrixSet, error) {
	t, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown tile matrix set %q", name)
	}
	return t, nil
}

// Default returns the WebMercatorQuad scheme.
func Default() *TileMatrixSet {
	return registry["WebMercatorQuad"]
}

// Resolution returns the ground resolution in CRS units per pixel at zoom.
func (t *TileMatrixSet) Resolution(zoom int) float64 {
	return t.rootResolution / math.Exp2(float64(zoom))
}

// MatrixSize returns the number of tiles along one axis at zoom.
func (t *TileMatrixSet) MatrixSize(zoom int) int {
	return 1 << uint(zoom)
}

// Bounds returns the scheme's full extent as minx,miny,maxx,maxy.
func (t *TileMatrixSet) Bounds() [4]float64 {
	span := t.rootResolution * float64(t.TileSize)
	return [4]float64{t.originX, t.originY - span, t.originX + span, t.originY}
}

// Tile returns the tile containing the CRS point x,y at the given zoom.
// Points on or beyond the scheme's edge are clamped to the edge tile.
func (t *TileMatrixSet) Tile(x, y float64, zoom int) Tile {
	span := t.Resolution(zoom) * float64(t.TileSize)
	tx := int(math.Floor((x - t.originX) / span))
	ty := int(math.Floor((t.originY - y) / span))
	max := t.MatrixSize(zoom) - 1
	if tx < 0 {
		tx = 0
	}
	if tx > max {
		tx = max
	}
	if ty < 0 {
		ty = 0
	}
	if ty > max {
		ty = max
	}
	return Tile{X: tx, Y: ty, Z: zoom}
}

// TileBounds returns the CRS extent of a tile as minx,miny,maxx,maxy.
func (t *TileMatrixSet) TileBounds(tile Tile) [4]float64 {
	span := t.Resolution(tile.Z) * float64(t.TileSize)
	minx := t.originX + float64(tile.X)*span
	maxy := t.originY - float64(tile.Y)*span
	return [4]float64{minx, maxy - span, minx + span, maxy}
}

// ZoomForRes returns the zoom level matching a target ground resolution,
// arbitrated by the given strategy when the resolution falls between two
// levels.
func (t *TileMatrixSet) ZoomForRes(res float64, strategy ZoomStrategy) (int, error) {
	if strategy == "" {
		strategy = ZoomAuto
	}
	zoom := t.MaxZoom
	matrixRes := t.Resolution(t.MaxZoom)
	for z := 0; z <= t.MaxZoom; z++ {
		matrixRes = t.Resolution(z)
		if res > matrixRes || math.Abs(res-matrixRes)/matrixRes <= 1e-8 {
			zoom = z
			break
		}
	}
	if zoom == 0 || math.Abs(res-matrixRes)/matrixRes <= 1e-8 {
		return zoom, nil
	}
	switch strategy {
	case ZoomLower:
		return zoom - 1, nil
	case ZoomUpper:
		return zoom, nil
	case ZoomAuto:
		if t.Resolution(zoom-1)/res < res/matrixRes {
			return zoom - 1, nil
		}
		return zoom, nil
	default:
		return 0, fmt.Errorf("invalid zoom level strategy %q", strategy)
	}
}
