package tms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	scheme, err := Get("WebMercatorQuad")
	require.NoError(t, err)
	assert.Equal(t, "EPSG:3857", scheme.CRS)
	assert.Equal(t, 3857, scheme.EPSG)
	assert.Equal(t, 256, scheme.TileSize)
	assert.Equal(t, Default(), scheme)

	_, err = Get("NoSuchScheme")
	assert.Error(t, err)
}

func TestResolution(t *testing.T) {
	scheme := Default()
	assert.InDelta(t, 156543.03392804097, scheme.Resolution(0), 1e-6)
	assert.InDelta(t, 156543.03392804097/2, scheme.Resolution(1), 1e-6)
	assert.InDelta(t, 156543.03392804097/1024, scheme.Resolution(10), 1e-9)
}

func TestBounds(t *testing.T) {
	b := Default().Bounds()
	assert.InDelta(t, -20037508.342789244, b[0], 1e-6)
	assert.InDelta(t, -20037508.342789244, b[1], 1e-6)
	assert.InDelta(t, 20037508.342789244, b[2], 1e-6)
	assert.InDelta(t, 20037508.342789244, b[3], 1e-6)
}

func TestTileAndBounds(t *testing.T) {
	scheme := Default()

	// origin corner
	tile := scheme.Tile(-20037508.34, 20037508.34, 4)
	assert.Equal(t, Tile{X: 0, Y: 0, Z: 4}, tile)

	// center point falls in the first tile of the bottom-right quadrant
	tile = scheme.Tile(1, -1, 4)
	assert.Equal(t, Tile{X: 8, Y: 8, Z: 4}, tile)

	// out-of-scheme points clamp to the edge
	tile = scheme.Tile(25e6, -25e6, 2)
	assert.Equal(t, Tile{X: 3, Y: 3, Z: 2}, tile)

	bounds := scheme.TileBounds(Tile{X: 0, Y: 0, Z: 1})
	assert.InDelta(t, -20037508.342789244, bounds[0], 1e-6)
	assert.InDelta(t, 0, bounds[1], 1e-6)
	assert.InDelta(t, 0, bounds[2], 1e-6)
	assert.InDelta(t, 20037508.342789244, bounds[3], 1e-6)

	// a tile contains its own upper-left corner
	for _, tc := range []Tile{{X: 3, Y: 5, Z: 4}, {X: 0, Y: 0, Z: 0}, {X: 100, Y: 30, Z: 9}} {
		b := scheme.TileBounds(tc)
		assert.Equal(t, tc, scheme.Tile(b[0]+1e-3, b[3]-1e-3, tc.Z))
	}
}

func TestZoomForRes(t *testing.T) {
	scheme := Default()

	type tc struct {
		res      float64
		strategy ZoomStrategy
		zoom     int
	}
	cases := []tc{
		// exact matches, strategy irrelevant
		{scheme.Resolution(0), ZoomAuto, 0},
		{scheme.Resolution(7), ZoomAuto, 7},
		{scheme.Resolution(7), ZoomLower, 7},
		{scheme.Resolution(7), ZoomUpper, 7},
		// coarser than zoom 0 clamps to 0
		{scheme.Resolution(0) * 4, ZoomAuto, 0},
		// halfway between 6 and 7
		{scheme.Resolution(6) * 0.75, ZoomLower, 6},
		{scheme.Resolution(6) * 0.75, ZoomUpper, 7},
		// barely finer than zoom 6: auto stays at 6
		{scheme.Resolution(6) * 0.99, ZoomAuto, 6},
		// barely coarser than zoom 7: auto picks 7
		{scheme.Resolution(7) * 1.01, ZoomAuto, 7},
	}
	for _, c := range cases {
		zoom, err := scheme.ZoomForRes(c.res, c.strategy)
		require.NoError(t, err)
		assert.Equal(t, c.zoom, zoom, "res=%g strategy=%s", c.res, c.strategy)
	}

	_, err := scheme.ZoomForRes(10, ZoomStrategy("nope"))
	assert.Error(t, err)
}
