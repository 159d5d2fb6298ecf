package cogeo

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	godal.RegisterAll()
}

// newTestDataset creates a georeferenced byte dataset in /vsimem.
func newTestDataset(t *testing.T, width, height, bands int) *godal.Dataset {
	t.Helper()
	name := fmt.Sprintf("/vsimem/src-%s-%dx%d.tif", t.Name(), width, height)
	ds, err := godal.Create(godal.GTiff, name, bands, godal.Byte, width, height)
	require.NoError(t, err)
	t.Cleanup(func() {
		ds.Close()
		_ = godal.VSIUnlink(name)
	})
	require.NoError(t, ds.SetGeoTransform([6]float64{0, 10, 0, 0, 0, -10}))
	sr, err := godal.NewSpatialRefFromEPSG(3857)
	require.NoError(t, err)
	defer sr.Close()
	wkt, err := sr.WKT()
	require.NoError(t, err)
	require.NoError(t, ds.SetProjection(wkt))

	buf := make([]uint8, width*height)
	for i := range buf {
		buf[i] = uint8(i % 255)
	}
	for _, b := range ds.Bands() {
		require.NoError(t, b.Write(0, 0, buf, width, height))
	}
	return ds
}

func hasWarning(warnings []Warning, code WarningCode) bool {
	for _, w := range warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

func TestTranslateDeflate(t *testing.T) {
	src := newTestDataset(t, 1024, 1024, 1)
	dst := filepath.Join(t.TempDir(), "out.tif")
	profile, err := GetProfile("deflate")
	require.NoError(t, err)

	result, err := Translate(DatasetSource(src), dst, profile, InMemory(true))
	require.NoError(t, err)
	assert.Equal(t, 1024, result.Width)
	assert.Equal(t, 1024, result.Height)
	assert.Equal(t, []int{2}, result.Overviews)
	assert.Empty(t, result.Warnings)

	report, err := Validate(dst)
	require.NoError(t, err)
	assert.True(t, report.Valid, "errors: %v", report.Errors)

	rec, err := Info(dst)
	require.NoError(t, err)
	assert.True(t, rec.Profile.Tiled)
	assert.Equal(t, "DEFLATE", rec.Compression)
	assert.Equal(t, "uint8", rec.Profile.Dtype)
	assert.Len(t, rec.IFDs, 2)
	assert.Equal(t, 0, rec.IFDs[0].Decimation)
	assert.Equal(t, 2, rec.IFDs[1].Decimation)
}

func TestTranslateNodataWithoutMask(t *testing.T) {
	src := newTestDataset(t, 512, 512, 1)
	dst := filepath.Join(t.TempDir(), "out.tif")
	profile, err := GetProfile("deflate")
	require.NoError(t, err)

	result, err := Translate(DatasetSource(src), dst, profile, NoData(42))
	require.NoError(t, err)
	assert.False(t, hasWarning(result.Warnings, WarnLossyTransparency))

	rec, err := Info(dst)
	require.NoError(t, err)
	assert.False(t, rec.Profile.InternalMask)
	require.NotNil(t, rec.Profile.Nodata)
	assert.Equal(t, 42.0, *rec.Profile.Nodata)
}

func TestTranslateSmallRasterUntiled(t *testing.T) {
	src := newTestDataset(t, 32, 32, 1)
	dst := filepath.Join(t.TempDir(), "out.tif")
	profile, err := GetProfile("deflate")
	require.NoError(t, err)

	result, err := Translate(DatasetSource(src), dst, profile)
	require.NoError(t, err)
	assert.True(t, hasWarning(result.Warnings, WarnIncompatibleBlockSize))
	assert.Empty(t, result.Overviews)

	report, err := Validate(dst)
	require.NoError(t, err)
	assert.True(t, report.Valid, "errors: %v", report.Errors)

	rec, err := Info(dst)
	require.NoError(t, err)
	assert.False(t, rec.Profile.Tiled)
	assert.Len(t, rec.IFDs, 1)
}

func TestTranslateBlockSizeShrinks(t *testing.T) {
	src := newTestDataset(t, 100, 100, 1)
	dst := filepath.Join(t.TempDir(), "out.tif")
	profile, err := GetProfile("deflate")
	require.NoError(t, err)

	result, err := Translate(DatasetSource(src), dst, profile)
	require.NoError(t, err)
	assert.True(t, hasWarning(result.Warnings, WarnIncompatibleBlockSize))
	assert.Equal(t, []int{2}, result.Overviews)

	rec, err := Info(dst)
	require.NoError(t, err)
	assert.Equal(t, [2]int{64, 64}, rec.IFDs[0].Blocksize)
}

func TestTranslateOverviewLevel(t *testing.T) {
	src := newTestDataset(t, 512, 512, 1)
	dst := filepath.Join(t.TempDir(), "out.tif")
	profile, err := GetProfile("deflate")
	require.NoError(t, err)
	profile.BlockXSize = 64
	profile.BlockYSize = 64

	result, err := Translate(DatasetSource(src), dst, profile, OverviewLevel(2))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, result.Overviews)

	rec, err := Info(dst)
	require.NoError(t, err)
	require.Len(t, rec.IFDs, 3)
	assert.Equal(t, 2, rec.IFDs[1].Decimation)
	assert.Equal(t, 4, rec.IFDs[2].Decimation)
}

func TestTranslateJPEGWithNodataGetsMask(t *testing.T) {
	src := newTestDataset(t, 512, 512, 1)
	dst := filepath.Join(t.TempDir(), "out.tif")
	profile, err := GetProfile("jpeg")
	require.NoError(t, err)

	result, err := Translate(DatasetSource(src), dst, profile, NoData(0))
	require.NoError(t, err)
	assert.True(t, hasWarning(result.Warnings, WarnLossyTransparency))
	assert.True(t, hasWarning(result.Warnings, WarnPhotometricOverride))

	rec, err := Info(dst)
	require.NoError(t, err)
	assert.True(t, rec.Profile.InternalMask)
	assert.Nil(t, rec.Profile.Nodata)
	assert.Equal(t, "JPEG", rec.Compression)
}

func TestTranslateColormapMultibandFails(t *testing.T) {
	src := newTestDataset(t, 64, 64, 3)
	dst := filepath.Join(t.TempDir(), "out.tif")
	profile, err := GetProfile("deflate")
	require.NoError(t, err)

	ct := godal.ColorTable{Entries: [][4]int16{{0, 0, 0, 255}, {255, 255, 255, 255}}}
	_, err = Translate(DatasetSource(src), dst, profile, Colormap(ct))
	require.Error(t, err)
	var incompat IncompatibleOptionsError
	assert.True(t, errors.As(err, &incompat))
}

func TestTranslateIndexes(t *testing.T) {
	src := newTestDataset(t, 128, 128, 3)
	dst := filepath.Join(t.TempDir(), "out.tif")
	profile, err := GetProfile("deflate")
	require.NoError(t, err)

	result, err := Translate(DatasetSource(src), dst, profile, Indexes(1))
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	rec, err := Info(dst)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Profile.Bands)

	_, err = Translate(DatasetSource(src), dst, profile, Indexes(4))
	assert.Error(t, err)
}

func TestTranslateFromPath(t *testing.T) {
	src := newTestDataset(t, 256, 256, 1)
	srcPath := filepath.Join(t.TempDir(), "src.tif")
	srcFile, err := src.Translate(srcPath, nil, godal.GTiff)
	require.NoError(t, err)
	require.NoError(t, srcFile.Close())

	dst := filepath.Join(t.TempDir(), "out.tif")
	profile, err := GetProfile("lzw")
	require.NoError(t, err)
	result, err := Translate(PathSource(srcPath), dst, profile)
	require.NoError(t, err)
	assert.Equal(t, 256, result.Width)

	report, err := Validate(dst)
	require.NoError(t, err)
	assert.True(t, report.Valid, "errors: %v", report.Errors)
}
