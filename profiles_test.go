package cogeo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProfile(t *testing.T) {
	jpeg, err := GetProfile("jpeg")
	require.NoError(t, err)
	assert.Equal(t, CompressionJPEG, jpeg.Compression)
	assert.Equal(t, "YCBCR", jpeg.Photometric)
	assert.Equal(t, 512, jpeg.BlockXSize)
	assert.True(t, jpeg.Tiled)

	raw, err := GetProfile("raw")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, raw.Compression)

	lerc, err := GetProfile("lerc_deflate")
	require.NoError(t, err)
	assert.Equal(t, "DEFLATE", lerc.Extras["ADDITIONAL_COMPRESSION"])
	assert.Equal(t, "0", lerc.Extras["MAX_Z_ERROR"])

	_, err = GetProfile("bzip")
	assert.Error(t, err)
}

func TestGetProfileReturnsCopy(t *testing.T) {
	p1, err := GetProfile("lerc")
	require.NoError(t, err)
	p1.Extras["MAX_Z_ERROR"] = "12"
	p1.BlockXSize = 16

	p2, err := GetProfile("lerc")
	require.NoError(t, err)
	assert.Equal(t, "0", p2.Extras["MAX_Z_ERROR"])
	assert.Equal(t, 512, p2.BlockXSize)
}

func TestProfileNames(t *testing.T) {
	names := ProfileNames()
	assert.Contains(t, names, "jpeg")
	assert.Contains(t, names, "deflate")
	assert.Contains(t, names, "raw")
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
}

func TestCreationOptions(t *testing.T) {
	deflate, err := GetProfile("deflate")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"TILED=YES", "BLOCKXSIZE=512", "BLOCKYSIZE=512",
		"COMPRESS=DEFLATE", "INTERLEAVE=PIXEL",
	}, deflate.CreationOptions())

	jpeg, err := GetProfile("jpeg")
	require.NoError(t, err)
	assert.Contains(t, jpeg.CreationOptions(), "PHOTOMETRIC=YCBCR")

	untiled := Profile{Compression: CompressionLZW}
	assert.Equal(t, []string{"COMPRESS=LZW"}, untiled.CreationOptions())
}

func TestCompressionLossy(t *testing.T) {
	assert.True(t, CompressionJPEG.Lossy())
	assert.True(t, CompressionWEBP.Lossy())
	assert.False(t, CompressionDeflate.Lossy())
	assert.False(t, CompressionNone.Lossy())
}

func TestWarningString(t *testing.T) {
	w := Warning{Code: WarnLossyTransparency, Message: "mask it"}
	assert.Equal(t, "LossyTransparency: mask it", w.String())
}
