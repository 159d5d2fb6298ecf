package cogeo

import (
	"fmt"

	"github.com/airbusgeo/cogeo/tms"
	"github.com/airbusgeo/godal"
)

// GDAL mask flag bits, as returned by Band.MaskFlags.
const (
	maskFlagAllValid   = 0x01
	maskFlagPerDataset = 0x02
	maskFlagAlpha      = 0x04
	maskFlagNoData     = 0x08
)

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// maximumOverviewLevel returns the number of overview levels needed before
// the decimated raster fits under minsize pixels in one dimension.
func maximumOverviewLevel(width, height, minsize int) int {
	nlevel := 0
	overview := 1
	for minInt(width/overview, height/overview) > minsize {
		overview *= 2
		nlevel++
	}
	return nlevel
}

// overviewSequence returns the decimation factors 2,4,...,2^level.
func overviewSequence(level int) []int {
	if level <= 0 {
		return nil
	}
	seq := make([]int, level)
	for i := range seq {
		seq[i] = 2 << uint(i)
	}
	return seq
}

// hasAlphaBand reports whether the dataset exposes transparency through an
// alpha band.
func hasAlphaBand(ds *godal.Dataset) bool {
	for _, b := range ds.Bands() {
		if b.ColorInterp() == godal.CIAlpha || b.MaskFlags()&maskFlagAlpha != 0 {
			return true
		}
	}
	return false
}

// hasMaskBand reports whether the dataset carries a per-dataset mask band.
func hasMaskBand(ds *godal.Dataset) bool {
	for _, b := range ds.Bands() {
		if b.MaskFlags()&maskFlagPerDataset != 0 {
			return true
		}
	}
	return false
}

// nonAlphaIndexes returns the 1-based indices of all non-alpha bands.
func nonAlphaIndexes(ds *godal.Dataset) []int {
	var idx []int
	for i, b := range ds.Bands() {
		if b.ColorInterp() != godal.CIAlpha {
			idx = append(idx, i+1)
		}
	}
	return idx
}

// datasetZooms computes the tiling-scheme zoom range covered by a dataset:
// the max zoom whose ground resolution is closest to the dataset's native
// resolution, and the min zoom obtained by walking the overview pyramid up
// from it.
func datasetZooms(ds *godal.Dataset, scheme *tms.TileMatrixSet) (minZoom, maxZoom int, err error) {
	bounds, err := boundsInEPSG(ds, scheme.EPSG)
	if err != nil {
		return 0, 0, fmt.Errorf("reproject bounds: %w", err)
	}
	str := ds.Structure()
	res := nativeResolution(bounds, str.SizeX, str.SizeY)
	maxZoom, err = scheme.ZoomForRes(res, tms.ZoomAuto)
	if err != nil {
		return 0, 0, err
	}
	minZoom = maxZoom - maximumOverviewLevel(str.SizeX, str.SizeY, scheme.TileSize)
	if minZoom < 0 {
		minZoom = 0
	}
	return minZoom, maxZoom, nil
}
