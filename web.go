package cogeo

import (
	"fmt"

	"github.com/airbusgeo/cogeo/tms"
	"github.com/airbusgeo/godal"
)

// webGrid describes the warped-view geometry of a web-optimized output:
// bounds snapped to the tile grid at the base zoom, pixel size matching the
// max zoom resolution.
type webGrid struct {
	bounds        [4]float64 // minx,miny,maxx,maxy in scheme CRS
	width, height int
	zoom          int // max zoom
	alignedLevels int
}

// boundsInEPSG returns the dataset extent reprojected to the given EPSG
// code, as minx,miny,maxx,maxy.
func boundsInEPSG(ds *godal.Dataset, epsg int) ([4]float64, error) {
	sr, err := godal.NewSpatialRefFromEPSG(epsg)
	if err != nil {
		return [4]float64{}, fmt.Errorf("epsg:%d: %w", epsg, err)
	}
	defer sr.Close()
	bounds, err := ds.Bounds(sr)
	if err != nil {
		return [4]float64{}, fmt.Errorf("bounds: %w", err)
	}
	return bounds, nil
}

// nativeResolution approximates the ground resolution of a raster from its
// reprojected extent and pixel dimensions.
func nativeResolution(bounds [4]float64, width, height int) float64 {
	resx := (bounds[2] - bounds[0]) / float64(width)
	resy := (bounds[3] - bounds[1]) / float64(height)
	if resx > resy {
		return resx
	}
	return resy
}

// alignGrid snaps a raster extent onto the tiling scheme. bounds must
// already be expressed in the scheme CRS. The output window starts on a
// tile corner at zoom-alignedLevels and spans a whole number of tiles, so
// every block of the final pyramid down to alignedLevels overviews falls
// exactly on a scheme tile. pinnedZoom < 0 derives the max zoom from the
// native resolution using the given strategy.
func alignGrid(bounds [4]float64, width, height int, scheme *tms.TileMatrixSet, strategy tms.ZoomStrategy, pinnedZoom, alignedLevels int) (webGrid, error) {
	if alignedLevels < 0 {
		alignedLevels = 0
	}
	zoom := pinnedZoom
	if zoom < 0 {
		var err error
		zoom, err = scheme.ZoomForRes(nativeResolution(bounds, width, height), strategy)
		if err != nil {
			return webGrid{}, err
		}
	}
	baseZoom := zoom - alignedLevels
	if baseZoom < 0 {
		return webGrid{}, fmt.Errorf("aligned levels %d exceed zoom level %d", alignedLevels, zoom)
	}

	ul := scheme.Tile(bounds[0], bounds[3], baseZoom)
	lr := scheme.Tile(bounds[2], bounds[1], baseZoom)
	origin := scheme.TileBounds(ul)
	res := scheme.Resolution(zoom)

	factor := 1 << uint(alignedLevels)
	w := (lr.X - ul.X + 1) * scheme.TileSize * factor
	h := (lr.Y - ul.Y + 1) * scheme.TileSize * factor

	return webGrid{
		bounds: [4]float64{
			origin[0],
			origin[3] - float64(h)*res,
			origin[0] + float64(w)*res,
			origin[3],
		},
		width:         w,
		height:        h,
		zoom:          zoom,
		alignedLevels: alignedLevels,
	}, nil
}

// webOptimizedGrid computes the aligned warp geometry for a dataset.
func webOptimizedGrid(ds *godal.Dataset, scheme *tms.TileMatrixSet, strategy tms.ZoomStrategy, pinnedZoom, alignedLevels int) (webGrid, error) {
	bounds, err := boundsInEPSG(ds, scheme.EPSG)
	if err != nil {
		return webGrid{}, err
	}
	str := ds.Structure()
	return alignGrid(bounds, str.SizeX, str.SizeY, scheme, strategy, pinnedZoom, alignedLevels)
}
