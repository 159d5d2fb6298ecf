package cogeo

import (
	"fmt"
	"os"

	"github.com/airbusgeo/cogeo/tms"
	"github.com/airbusgeo/godal"
)

var compressionNames = map[uint16]string{
	1:     "NONE",
	5:     "LZW",
	7:     "JPEG",
	8:     "DEFLATE",
	32773: "PACKBITS",
	32946: "DEFLATE",
	34887: "LERC",
	34925: "LZMA",
	50000: "ZSTD",
	50001: "WEBP",
}

var photometricNames = map[uint16]string{
	0:  "MINISWHITE",
	1:  "MINISBLACK",
	2:  "RGB",
	3:  "PALETTE",
	4:  "MASK",
	5:  "SEPARATED",
	6:  "YCBCR",
	8:  "CIELAB",
	9:  "ICCLAB",
	10: "ITULAB",
}

// IFDInfo describes one image level of the file.
type IFDInfo struct {
	Level      int    `json:"level"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Blocksize  [2]int `json:"blocksize"`
	Decimation int    `json:"decimation"`
}

// GeoInfo describes the georeferencing of the file.
type GeoInfo struct {
	CRS         string     `json:"crs"`
	BoundingBox [4]float64 `json:"bounding_box"`
	Origin      [2]float64 `json:"origin"`
	Resolution  [2]float64 `json:"resolution"`
	MinZoom     int        `json:"min_zoom"`
	MaxZoom     int        `json:"max_zoom"`
}

// ProfileInfo describes the raster profile of the file.
type ProfileInfo struct {
	Bands        int       `json:"bands"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Tiled        bool      `json:"tiled"`
	Dtype        string    `json:"dtype"`
	Interleave   string    `json:"interleave"`
	AlphaBand    bool      `json:"alpha_band"`
	InternalMask bool      `json:"internal_mask"`
	Nodata       *float64  `json:"nodata"`
	ColorInterp  []string  `json:"colorinterp"`
	ColorMap     bool      `json:"colormap"`
	Scales       []float64 `json:"scales"`
	Offsets      []float64 `json:"offsets"`
}

// BandMetadata describes one band of the file.
type BandMetadata struct {
	Description string            `json:"description,omitempty"`
	ColorInterp string            `json:"colorinterp"`
	Scale       float64           `json:"scale"`
	Offset      float64           `json:"offset"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// InfoRecord aggregates everything known about a GeoTIFF: COG validity,
// raster profile, georeferencing, tags and per-level layout.
type InfoRecord struct {
	Path        string                       `json:"path"`
	Driver      string                       `json:"driver"`
	COG         bool                         `json:"cog"`
	Compression string                       `json:"compression,omitempty"`
	ColorSpace  string                       `json:"color_space,omitempty"`
	Errors      []string                     `json:"cog_errors,omitempty"`
	Warnings    []string                     `json:"cog_warnings,omitempty"`
	Profile     ProfileInfo                  `json:"profile"`
	Geo         GeoInfo                      `json:"geo"`
	Tags        map[string]map[string]string `json:"tags"`
	Bands       []BandMetadata               `json:"band_metadata"`
	IFDs        []IFDInfo                    `json:"ifds"`
}

func dtypeName(dt godal.DataType) string {
	switch dt {
	case godal.Byte:
		return "uint8"
	case godal.Int16:
		return "int16"
	case godal.UInt16:
		return "uint16"
	case godal.Int32:
		return "int32"
	case godal.UInt32:
		return "uint32"
	case godal.Float32:
		return "float32"
	case godal.Float64:
		return "float64"
	default:
		return dt.String()
	}
}

func domainTitle(ns string) string {
	switch ns {
	case "":
		return "Image Metadata"
	case "IMAGE_STRUCTURE":
		return "Image Structure"
	default:
		return ns
	}
}

// Info audits and introspects a GeoTIFF.
func Info(path string, opts ...ValidateOption) (*InfoRecord, error) {
	report, err := Validate(path, opts...)
	if err != nil {
		return nil, err
	}

	rec := &InfoRecord{
		Path:     path,
		Driver:   "GTiff",
		COG:      report.Valid,
		Errors:   report.Errors,
		Warnings: report.Warnings,
		Tags:     map[string]map[string]string{},
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	st, stErr := parseTIFFStructure(f)
	f.Close()
	if stErr != nil {
		return nil, fmt.Errorf("%s: %w", path, stErr)
	}

	main := st.main()
	if name, ok := compressionNames[main.Compression]; ok && main.Compression != 1 {
		rec.Compression = name
	}
	if name, ok := photometricNames[main.PhotometricInterpretation]; ok {
		rec.ColorSpace = name
	}
	interleave := "PIXEL"
	if main.PlanarConfiguration == 2 {
		interleave = "BAND"
	}

	rec.IFDs = append(rec.IFDs, IFDInfo{
		Level:     0,
		Width:     int(main.ImageWidth),
		Height:    int(main.ImageLength),
		Blocksize: [2]int{int(main.TileWidth), int(main.TileLength)},
	})
	for i, ovr := range st.overviews() {
		dec := 1
		if ovr.ImageWidth > 0 {
			dec = int(main.ImageWidth / ovr.ImageWidth)
		}
		rec.IFDs = append(rec.IFDs, IFDInfo{
			Level:      i + 1,
			Width:      int(ovr.ImageWidth),
			Height:     int(ovr.ImageLength),
			Blocksize:  [2]int{int(ovr.TileWidth), int(ovr.TileLength)},
			Decimation: dec,
		})
	}

	bandMD := &bandMetaTag{bands: map[int]bandMeta{}}
	if main.GDALMetaData != "" {
		if md, err := parseGDALMetadata(main.GDALMetaData); err == nil {
			bandMD = md
		}
	}

	ds, err := godal.Open(path, godal.RasterOnly())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer ds.Close()

	str := ds.Structure()
	rec.Profile = ProfileInfo{
		Bands:        str.NBands,
		Width:        str.SizeX,
		Height:       str.SizeY,
		Tiled:        main.tiled(),
		Dtype:        dtypeName(str.DataType),
		Interleave:   interleave,
		AlphaBand:    hasAlphaBand(ds),
		InternalMask: hasMaskBand(ds),
	}
	bands := ds.Bands()
	if nd, ok := bands[0].NoData(); ok {
		rec.Profile.Nodata = &nd
	}
	rec.Profile.ColorMap = len(bands[0].ColorTable().Entries) > 0
	for i, b := range bands {
		bm := bandMD.band(i)
		rec.Profile.ColorInterp = append(rec.Profile.ColorInterp, b.ColorInterp().Name())
		rec.Profile.Scales = append(rec.Profile.Scales, bm.scale)
		rec.Profile.Offsets = append(rec.Profile.Offsets, bm.offset)
		rec.Bands = append(rec.Bands, BandMetadata{
			Description: bm.description,
			ColorInterp: b.ColorInterp().Name(),
			Scale:       bm.scale,
			Offset:      bm.offset,
			Metadata:    b.Metadatas(),
		})
	}

	if tags := ds.Metadatas(); len(tags) > 0 {
		rec.Tags[domainTitle("")] = tags
	}
	for _, ns := range ds.MetadataDomains() {
		if ns == "" || ns == "DERIVED_SUBDATASETS" {
			continue
		}
		if tags := ds.Metadatas(godal.Domain(ns)); len(tags) > 0 {
			rec.Tags[domainTitle(ns)] = tags
		}
	}

	if gt, err := ds.GeoTransform(); err == nil {
		rec.Geo.Origin = [2]float64{gt[0], gt[3]}
		rec.Geo.Resolution = [2]float64{gt[1], gt[5]}
	}
	if bounds, err := ds.Bounds(); err == nil {
		rec.Geo.BoundingBox = bounds
	}
	if sr := ds.SpatialRef(); sr != nil {
		if code := sr.AuthorityCode(""); code != "" {
			rec.Geo.CRS = fmt.Sprintf("%s:%s", sr.AuthorityName(""), code)
		}
		sr.Close()
	}
	if minz, maxz, err := datasetZooms(ds, tms.Default()); err == nil {
		rec.Geo.MinZoom = minz
		rec.Geo.MaxZoom = maxz
	}

	return rec, nil
}
