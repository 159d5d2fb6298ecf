package cogeo

import (
	"math"
	"testing"

	"github.com/airbusgeo/cogeo/tms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNativeResolution(t *testing.T) {
	res := nativeResolution([4]float64{0, 0, 2560, 1280}, 256, 256)
	assert.InDelta(t, 10, res, 1e-12)
}

// shrink returns the extent of a tile pulled in by a few meters on every
// side, so corner points fall strictly inside the tile.
func shrunkTileBounds(scheme *tms.TileMatrixSet, tile tms.Tile) [4]float64 {
	b := scheme.TileBounds(tile)
	return [4]float64{b[0] + 10, b[1] + 10, b[2] - 10, b[3] - 10}
}

func TestAlignGridSnapsToTile(t *testing.T) {
	scheme := tms.Default()
	tile := tms.Tile{X: 10, Y: 20, Z: 6}
	tileBounds := scheme.TileBounds(tile)
	bounds := shrunkTileBounds(scheme, tile)

	// native resolution two zoom levels below the tile's own
	width := 4 * scheme.TileSize
	height := 4 * scheme.TileSize

	grid, err := alignGrid(bounds, width, height, scheme, tms.ZoomAuto, -1, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, grid.zoom)
	assert.Equal(t, 1024, grid.width)
	assert.Equal(t, 1024, grid.height)
	for i := range tileBounds {
		assert.InDelta(t, tileBounds[i], grid.bounds[i], 1e-5, "bound %d", i)
	}
}

func TestAlignGridAlignedLevels(t *testing.T) {
	scheme := tms.Default()
	tile := tms.Tile{X: 10, Y: 20, Z: 6}
	bounds := shrunkTileBounds(scheme, tile)

	grid, err := alignGrid(bounds, 1024, 1024, scheme, tms.ZoomAuto, -1, 2)
	require.NoError(t, err)
	assert.Equal(t, 8, grid.zoom)
	assert.Equal(t, 2, grid.alignedLevels)

	// output origin sits on a zoom 6 tile corner
	res := scheme.Resolution(8)
	span6 := scheme.Resolution(6) * float64(scheme.TileSize)
	b := scheme.Bounds()
	dx := (grid.bounds[0] - b[0]) / span6
	assert.InDelta(t, dx, math.Round(dx), 1e-9)
	dy := (b[3] - grid.bounds[3]) / span6
	assert.InDelta(t, dy, math.Round(dy), 1e-9)

	// dimensions cover whole base tiles at the max zoom resolution
	assert.Equal(t, 0, grid.width%(scheme.TileSize*4))
	assert.InDelta(t, grid.bounds[0]+float64(grid.width)*res, grid.bounds[2], 1e-6)
	assert.InDelta(t, grid.bounds[3]-float64(grid.height)*res, grid.bounds[1], 1e-6)
}

func TestAlignGridPinnedZoom(t *testing.T) {
	scheme := tms.Default()
	tile := tms.Tile{X: 10, Y: 20, Z: 6}
	bounds := shrunkTileBounds(scheme, tile)

	grid, err := alignGrid(bounds, 1024, 1024, scheme, tms.ZoomAuto, 9, 0)
	require.NoError(t, err)
	assert.Equal(t, 9, grid.zoom)
	assert.Equal(t, 2048, grid.width)
	assert.Equal(t, 2048, grid.height)
}

func TestAlignGridZoomStrategy(t *testing.T) {
	scheme := tms.Default()
	tile := tms.Tile{X: 0, Y: 0, Z: 4}
	bounds := shrunkTileBounds(scheme, tile)

	// resolution halfway between zoom 6 and 7
	pixels := int(float64(4*scheme.TileSize) / 0.75)

	lower, err := alignGrid(bounds, pixels, pixels, scheme, tms.ZoomLower, -1, 0)
	require.NoError(t, err)
	upper, err := alignGrid(bounds, pixels, pixels, scheme, tms.ZoomUpper, -1, 0)
	require.NoError(t, err)
	assert.Equal(t, lower.zoom+1, upper.zoom)
}

func TestAlignGridExcessiveAlignedLevels(t *testing.T) {
	scheme := tms.Default()
	bounds := shrunkTileBounds(scheme, tms.Tile{X: 0, Y: 0, Z: 1})
	_, err := alignGrid(bounds, 512, 512, scheme, tms.ZoomAuto, 2, 5)
	assert.Error(t, err)
}
