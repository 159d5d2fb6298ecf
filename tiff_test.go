package cogeo

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIFDOffsetsClassic(t *testing.T) {
	buf := buildTIFF(t, pyramid3, cogOrder3, 16)
	order, bigtiff, offsets, err := ifdOffsets(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, "II", order)
	assert.False(t, bigtiff)
	require.Len(t, offsets, 3)
	assert.Equal(t, uint64(24), offsets[0])
	assert.Less(t, offsets[0], offsets[1])
	assert.Less(t, offsets[1], offsets[2])
}

func TestIFDOffsetsBigTIFF(t *testing.T) {
	// minimal bigtiff: header, one IFD with a single tag
	le := binary.LittleEndian
	buf := make([]byte, 16+8+20+8)
	copy(buf, []byte{'I', 'I', 43, 0, 8, 0, 0, 0})
	le.PutUint64(buf[8:], 16)   // first IFD offset
	le.PutUint64(buf[16:], 1)   // entry count
	le.PutUint16(buf[24:], 256) // ImageWidth
	le.PutUint16(buf[26:], 4)   // LONG
	le.PutUint64(buf[28:], 1)
	le.PutUint64(buf[36:], 512)
	le.PutUint64(buf[44:], 0) // end of chain

	order, bigtiff, offsets, err := ifdOffsets(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, "II", order)
	assert.True(t, bigtiff)
	assert.Equal(t, []uint64{16}, offsets)
}

func TestIFDOffsetsRejectsGarbage(t *testing.T) {
	_, _, _, err := ifdOffsets(bytes.NewReader([]byte("certainly not a tiff")))
	assert.Error(t, err)

	// valid order marker, bogus version
	_, _, _, err = ifdOffsets(bytes.NewReader([]byte{'M', 'M', 0, 99, 0, 0, 0, 8}))
	assert.Error(t, err)
}

func TestParseTIFFStructure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.tif")
	require.NoError(t, os.WriteFile(path, buildTIFF(t, pyramid3, cogOrder3, 0), 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	st, err := parseTIFFStructure(f)
	require.NoError(t, err)
	require.Len(t, st.levels, 3)

	main := st.main()
	assert.Equal(t, uint64(1024), main.ImageWidth)
	assert.Equal(t, uint64(1024), main.ImageLength)
	assert.True(t, main.tiled())
	assert.False(t, main.isReduced())
	assert.NotZero(t, main.firstBlockOffset())

	ovr := st.overviews()
	require.Len(t, ovr, 2)
	assert.Equal(t, uint64(512), ovr[0].ImageWidth)
	assert.Equal(t, uint64(256), ovr[1].ImageWidth)
	assert.True(t, ovr[0].isReduced())
}

func TestParseGDALMetadata(t *testing.T) {
	payload := `<GDALMetadata>
  <Item name="DESCRIPTION" sample="0" role="description">red edge</Item>
  <Item name="SCALE" sample="0" role="scale">0.0001</Item>
  <Item name="OFFSET" sample="0" role="offset">-0.1</Item>
  <Item name="SCALE" sample="2" role="scale">2</Item>
  <Item name="AREA_OR_POINT">Area</Item>
</GDALMetadata>`
	md, err := parseGDALMetadata(payload)
	require.NoError(t, err)

	b0 := md.band(0)
	assert.Equal(t, "red edge", b0.description)
	assert.InDelta(t, 0.0001, b0.scale, 1e-12)
	assert.InDelta(t, -0.1, b0.offset, 1e-12)

	b1 := md.band(1)
	assert.Equal(t, 1.0, b1.scale)
	assert.Equal(t, 0.0, b1.offset)
	assert.Empty(t, b1.description)

	b2 := md.band(2)
	assert.Equal(t, 2.0, b2.scale)

	_, err = parseGDALMetadata("<not-xml")
	assert.Error(t, err)
}
