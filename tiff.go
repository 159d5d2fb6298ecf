package cogeo

import (
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/tiff"
	_ "github.com/google/tiff/bigtiff"
)

const (
	subfileTypeReducedImage = 1
	subfileTypeMask         = 4
)

// levelIFD is the subset of TIFF tags needed to audit the layout of one
// image level.
type levelIFD struct {
	SubfileType               uint32   `tiff:"field,tag=254"`
	ImageWidth                uint64   `tiff:"field,tag=256"`
	ImageLength               uint64   `tiff:"field,tag=257"`
	BitsPerSample             []uint16 `tiff:"field,tag=258"`
	Compression               uint16   `tiff:"field,tag=259"`
	PhotometricInterpretation uint16   `tiff:"field,tag=262"`
	StripOffsets              []uint64 `tiff:"field,tag=273"`
	SamplesPerPixel           uint16   `tiff:"field,tag=277"`
	PlanarConfiguration       uint16   `tiff:"field,tag=284"`
	TileWidth                 uint16   `tiff:"field,tag=322"`
	TileLength                uint16   `tiff:"field,tag=323"`
	TileOffsets               []uint64 `tiff:"field,tag=324"`
	GDALMetaData              string   `tiff:"field,tag=42112"`
	NoData                    string   `tiff:"field,tag=42113"`

	// byte offset of the IFD itself, from the offset chain walk
	offset uint64
}

func (l levelIFD) isMask() bool {
	return l.SubfileType&subfileTypeMask == subfileTypeMask
}

func (l levelIFD) isReduced() bool {
	return l.SubfileType&subfileTypeReducedImage == subfileTypeReducedImage
}

func (l levelIFD) tiled() bool {
	return l.TileWidth > 0
}

// firstBlockOffset returns the file offset of the first data block of the
// level, or 0 when the level carries no data.
func (l levelIFD) firstBlockOffset() uint64 {
	if len(l.TileOffsets) > 0 {
		return l.TileOffsets[0]
	}
	if len(l.StripOffsets) > 0 {
		return l.StripOffsets[0]
	}
	return 0
}

// tiffStructure is the parsed layout of a TIFF file: its IFD chain in file
// order, with each directory's own byte offset.
type tiffStructure struct {
	levels []levelIFD
}

func (t *tiffStructure) main() levelIFD {
	return t.levels[0]
}

// overviews returns the reduced-resolution levels, skipping mask levels.
func (t *tiffStructure) overviews() []levelIFD {
	var ovr []levelIFD
	for _, l := range t.levels[1:] {
		if l.isReduced() && !l.isMask() {
			ovr = append(ovr, l)
		}
	}
	return ovr
}

// parseTIFFStructure walks the IFD chain twice: once at the byte level to
// record directory offsets, once through the tag parser to decode field
// payloads.
func parseTIFFStructure(r tiff.ReadAtReadSeeker) (*tiffStructure, error) {
	_, _, offsets, err := ifdOffsets(r)
	if err != nil {
		return nil, err
	}
	if len(offsets) == 0 {
		return nil, fmt.Errorf("tiff has no image directory")
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	tif, err := tiff.Parse(r, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("parse tiff: %w", err)
	}
	tifds := tif.IFDs()
	if len(tifds) != len(offsets) {
		return nil, fmt.Errorf("inconsistent IFD chain: %d directories, %d offsets", len(tifds), len(offsets))
	}
	st := &tiffStructure{levels: make([]levelIFD, len(tifds))}
	for i := range tifds {
		if err := tiff.UnmarshalIFD(tifds[i], &st.levels[i]); err != nil {
			return nil, fmt.Errorf("ifd %d: %w", i, err)
		}
		st.levels[i].offset = offsets[i]
	}
	return st, nil
}

const maxIFDCount = 65536

// ifdOffsets reads the classic or BigTIFF header and follows the directory
// chain, returning the byte offset of every IFD in chain order.
func ifdOffsets(r io.ReadSeeker) (order string, bigtiff bool, offsets []uint64, err error) {
	if _, err = r.Seek(0, io.SeekStart); err != nil {
		return "", false, nil, err
	}
	var hdr [16]byte
	if _, err = io.ReadFull(r, hdr[:8]); err != nil {
		return "", false, nil, fmt.Errorf("read header: %w", err)
	}
	var bo binary.ByteOrder
	order = string(hdr[:2])
	switch order {
	case "II":
		bo = binary.LittleEndian
	case "MM":
		bo = binary.BigEndian
	default:
		return "", false, nil, fmt.Errorf("invalid byte order %q", order)
	}
	var next uint64
	switch bo.Uint16(hdr[2:4]) {
	case 42:
		next = uint64(bo.Uint32(hdr[4:8]))
	case 43:
		bigtiff = true
		if bo.Uint16(hdr[4:6]) != 8 || bo.Uint16(hdr[6:8]) != 0 {
			return "", false, nil, fmt.Errorf("invalid bigtiff header")
		}
		if _, err = io.ReadFull(r, hdr[8:16]); err != nil {
			return "", false, nil, fmt.Errorf("read header: %w", err)
		}
		next = bo.Uint64(hdr[8:16])
	default:
		return "", false, nil, fmt.Errorf("invalid tiff version")
	}

	for next != 0 {
		if len(offsets) >= maxIFDCount {
			return "", false, nil, fmt.Errorf("ifd chain loop detected")
		}
		offsets = append(offsets, next)
		if _, err = r.Seek(int64(next), io.SeekStart); err != nil {
			return "", false, nil, err
		}
		var count, entrySize uint64
		if bigtiff {
			if _, err = io.ReadFull(r, hdr[:8]); err != nil {
				return "", false, nil, fmt.Errorf("ifd at %d: %w", next, err)
			}
			count, entrySize = bo.Uint64(hdr[:8]), 20
		} else {
			if _, err = io.ReadFull(r, hdr[:2]); err != nil {
				return "", false, nil, fmt.Errorf("ifd at %d: %w", next, err)
			}
			count, entrySize = uint64(bo.Uint16(hdr[:2])), 12
		}
		if _, err = r.Seek(int64(count*entrySize), io.SeekCurrent); err != nil {
			return "", false, nil, err
		}
		if bigtiff {
			if _, err = io.ReadFull(r, hdr[:8]); err != nil {
				return "", false, nil, fmt.Errorf("ifd at %d: %w", next, err)
			}
			next = bo.Uint64(hdr[:8])
		} else {
			if _, err = io.ReadFull(r, hdr[:4]); err != nil {
				return "", false, nil, fmt.Errorf("ifd at %d: %w", next, err)
			}
			next = uint64(bo.Uint32(hdr[:4]))
		}
	}
	return order, bigtiff, offsets, nil
}

// bandMeta is the per-band content of the GDAL metadata tag.
type bandMeta struct {
	scale, offset float64
	description   string
}

type bandMetaTag struct {
	bands map[int]bandMeta
}

// band returns the metadata of the 0-based band, with neutral scale/offset
// defaults.
func (m *bandMetaTag) band(i int) bandMeta {
	bm, ok := m.bands[i]
	if !ok {
		return bandMeta{scale: 1}
	}
	if bm.scale == 0 {
		bm.scale = 1
	}
	return bm
}

// parseGDALMetadata decodes the XML payload of TIFF tag 42112.
func parseGDALMetadata(payload string) (*bandMetaTag, error) {
	var doc struct {
		Items []struct {
			Name   string `xml:"name,attr"`
			Sample string `xml:"sample,attr"`
			Role   string `xml:"role,attr"`
			Value  string `xml:",chardata"`
		} `xml:"Item"`
	}
	if err := xml.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("decode GDAL metadata: %w", err)
	}
	md := &bandMetaTag{bands: map[int]bandMeta{}}
	for _, item := range doc.Items {
		if item.Sample == "" {
			continue
		}
		band, err := strconv.Atoi(item.Sample)
		if err != nil {
			continue
		}
		bm := md.bands[band]
		switch item.Role {
		case "scale":
			bm.scale, _ = strconv.ParseFloat(item.Value, 64)
		case "offset":
			bm.offset, _ = strconv.ParseFloat(item.Value, 64)
		case "description":
			bm.description = item.Value
		default:
			continue
		}
		md.bands[band] = bm
	}
	return md, nil
}

// readBandMetaTag extracts per-band scale/offset/description from the GDAL
// metadata tag of a TIFF file.
func readBandMetaTag(path string) (*bandMetaTag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := parseTIFFStructure(f)
	if err != nil {
		return nil, err
	}
	if st.main().GDALMetaData == "" {
		return &bandMetaTag{bands: map[int]bandMeta{}}, nil
	}
	return parseGDALMetadata(st.main().GDALMetaData)
}
