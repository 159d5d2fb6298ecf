package cogeo

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/airbusgeo/cogeo/tms"
	"github.com/airbusgeo/godal"
	"github.com/google/uuid"
)

// DefaultInMemoryThreshold is the pixel count (width*height) under which the
// intermediate dataset is staged in /vsimem/ instead of a temporary file
// next to the destination. 10980 is the width of a Sentinel-2 10m tile.
const DefaultInMemoryThreshold = 10980 * 10980

// A Source designates the raster to translate: either a path (opened and
// closed by the pipeline) or an already-open dataset (never closed by the
// pipeline).
type Source struct {
	path string
	ds   *godal.Dataset
}

// PathSource translates the raster at path. Any path the engine can open
// works, including registered VSI prefixes.
func PathSource(path string) Source { return Source{path: path} }

// DatasetSource translates an already-open dataset. The caller keeps
// ownership of the handle.
func DatasetSource(ds *godal.Dataset) Source { return Source{ds: ds} }

// Name returns the path of the source, or a placeholder for open datasets.
func (s Source) Name() string {
	if s.path != "" {
		return s.path
	}
	return "<dataset>"
}

func (s Source) open() (ds *godal.Dataset, owned bool, err error) {
	if s.ds != nil {
		return s.ds, false, nil
	}
	if s.path == "" {
		return nil, false, fmt.Errorf("empty source")
	}
	ds, err = godal.Open(s.path, godal.RasterOnly())
	if err != nil {
		return nil, false, fmt.Errorf("open %s: %w", s.path, err)
	}
	return ds, true, nil
}

type translateConfig struct {
	indexes            []int
	nodata             *float64
	dtype              godal.DataType
	addMask            bool
	overviewLevel      int
	overviewResampling godal.ResamplingAlg
	resampling         godal.ResamplingAlg

	webOptimized  bool
	scheme        *tms.TileMatrixSet
	zoomStrategy  tms.ZoomStrategy
	zoomLevel     int
	alignedLevels int

	inMemory          *bool
	inMemoryThreshold int64

	configOptions         []string
	numThreads            int
	intermediateComp      Compression
	allowIntermediateComp bool
	forwardBandTags       bool
	forwardNSTags         bool
	colormap              *godal.ColorTable
	additionalMetadata    map[string]string
	useCOGDriver          bool
}

// TranslateOption alters the behavior of Translate.
type TranslateOption func(*translateConfig) error

// Indexes restricts the translation to the given 1-based source bands.
func Indexes(indexes ...int) TranslateOption {
	return func(c *translateConfig) error {
		if len(indexes) == 0 {
			return incompatibleOptions("Indexes requires at least one band")
		}
		c.indexes = append([]int(nil), indexes...)
		return nil
	}
}

// NoData overrides the nodata masking value of the source.
func NoData(nd float64) TranslateOption {
	return func(c *translateConfig) error {
		c.nodata = &nd
		return nil
	}
}

// DType overrides the output pixel data type.
func DType(dt godal.DataType) TranslateOption {
	return func(c *translateConfig) error {
		c.dtype = dt
		return nil
	}
}

// AddMask forces transparency into an internal mask band, dropping any
// nodata value or alpha band from the output samples.
func AddMask() TranslateOption {
	return func(c *translateConfig) error {
		c.addMask = true
		return nil
	}
}

// OverviewLevel pins the number of overview levels. 0 disables overviews.
// The default infers the level from the raster and block size.
func OverviewLevel(level int) TranslateOption {
	return func(c *translateConfig) error {
		if level < 0 {
			return incompatibleOptions("overview level cannot be negative")
		}
		c.overviewLevel = level
		return nil
	}
}

// OverviewResampling selects the resampling kernel used to build overviews.
func OverviewResampling(alg godal.ResamplingAlg) TranslateOption {
	return func(c *translateConfig) error {
		c.overviewResampling = alg
		return nil
	}
}

// Resampling selects the resampling kernel used by the warped view.
func Resampling(alg godal.ResamplingAlg) TranslateOption {
	return func(c *translateConfig) error {
		c.resampling = alg
		return nil
	}
}

// WebOptimized aligns the output on the tiling scheme so that its internal
// tiles match scheme tiles at the computed zoom level.
func WebOptimized() TranslateOption {
	return func(c *translateConfig) error {
		c.webOptimized = true
		return nil
	}
}

// Scheme selects the tile matrix set used by WebOptimized. Default is
// WebMercatorQuad.
func Scheme(scheme *tms.TileMatrixSet) TranslateOption {
	return func(c *translateConfig) error {
		if scheme == nil {
			return incompatibleOptions("nil tile matrix set")
		}
		c.scheme = scheme
		return nil
	}
}

// ZoomLevelStrategy arbitrates the zoom level when the native resolution
// falls between two levels.
func ZoomLevelStrategy(strategy tms.ZoomStrategy) TranslateOption {
	return func(c *translateConfig) error {
		c.zoomStrategy = strategy
		return nil
	}
}

// ZoomLevel pins the max zoom level, bypassing the strategy.
func ZoomLevel(zoom int) TranslateOption {
	return func(c *translateConfig) error {
		if zoom < 0 {
			return incompatibleOptions("zoom level cannot be negative")
		}
		c.zoomLevel = zoom
		return nil
	}
}

// AlignedLevels sets the number of overview levels whose tiles must also
// fall on scheme tile boundaries.
func AlignedLevels(levels int) TranslateOption {
	return func(c *translateConfig) error {
		if levels < 0 {
			return incompatibleOptions("aligned levels cannot be negative")
		}
		c.alignedLevels = levels
		return nil
	}
}

// InMemory forces the staging dataset in memory (true) or on disk (false),
// bypassing the pixel-count threshold.
func InMemory(inMemory bool) TranslateOption {
	return func(c *translateConfig) error {
		c.inMemory = &inMemory
		return nil
	}
}

// InMemoryThreshold overrides the pixel count under which staging happens
// in memory.
func InMemoryThreshold(pixels int64) TranslateOption {
	return func(c *translateConfig) error {
		if pixels <= 0 {
			return incompatibleOptions("in-memory threshold must be positive")
		}
		c.inMemoryThreshold = pixels
		return nil
	}
}

// ConfigOptions passes KEY=VALUE engine configuration options to every step
// of the pipeline.
func ConfigOptions(opts ...string) TranslateOption {
	return func(c *translateConfig) error {
		c.configOptions = append(c.configOptions, opts...)
		return nil
	}
}

// NumThreads sets the engine worker count for compression and warping.
func NumThreads(n int) TranslateOption {
	return func(c *translateConfig) error {
		if n <= 0 {
			return incompatibleOptions("thread count must be positive")
		}
		c.numThreads = n
		return nil
	}
}

// AllowIntermediateCompression compresses the staging dataset with the
// given codec, trading CPU for reduced temporary disk usage.
func AllowIntermediateCompression(codec Compression) TranslateOption {
	return func(c *translateConfig) error {
		c.allowIntermediateComp = true
		if codec != CompressionNone {
			c.intermediateComp = codec
		}
		return nil
	}
}

// ForwardBandTags copies per-band metadata from the source.
func ForwardBandTags() TranslateOption {
	return func(c *translateConfig) error {
		c.forwardBandTags = true
		return nil
	}
}

// ForwardNamespaceTags copies non-default metadata domains from the source,
// except engine-internal ones.
func ForwardNamespaceTags() TranslateOption {
	return func(c *translateConfig) error {
		c.forwardNSTags = true
		return nil
	}
}

// Colormap writes the given color table on the (single) output band.
func Colormap(ct godal.ColorTable) TranslateOption {
	return func(c *translateConfig) error {
		c.colormap = &ct
		return nil
	}
}

// AdditionalMetadata merges extra key/value pairs into the output dataset
// tags.
func AdditionalMetadata(md map[string]string) TranslateOption {
	return func(c *translateConfig) error {
		if c.additionalMetadata == nil {
			c.additionalMetadata = map[string]string{}
		}
		for k, v := range md {
			c.additionalMetadata[k] = v
		}
		return nil
	}
}

// UseCOGDriver delegates the final copy to the engine's native COG driver
// (GDAL >= 3.1) instead of the GTiff COPY_SRC_OVERVIEWS path.
func UseCOGDriver() TranslateOption {
	return func(c *translateConfig) error {
		c.useCOGDriver = true
		return nil
	}
}

// TranslateResult describes the produced COG.
type TranslateResult struct {
	Path          string
	Width, Height int
	// Overviews holds the decimation factor of each overview level built.
	Overviews []int
	// Warnings lists the recoverable incompatibilities that were downgraded
	// with adjusted parameters.
	Warnings []Warning
}

// Translate creates a Cloud Optimized GeoTIFF at dstPath from src, using
// profile as the output creation parameters. The pipeline stages the full
// raster (pixels, mask, overviews, tags) in a temporary dataset and then
// copies it in COG layout; the staging dataset is removed on every exit
// path.
func Translate(src Source, dstPath string, profile Profile, opts ...TranslateOption) (*TranslateResult, error) {
	cfg := translateConfig{
		overviewLevel:      -1,
		zoomLevel:          -1,
		alignedLevels:      -1,
		overviewResampling: godal.Nearest,
		resampling:         godal.Nearest,
		scheme:             tms.Default(),
		zoomStrategy:       tms.ZoomAuto,
		inMemoryThreshold:  DefaultInMemoryThreshold,
		intermediateComp:   CompressionDeflate,
	}
	for _, o := range opts {
		if err := o(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.numThreads > 0 {
		cfg.configOptions = append(cfg.configOptions,
			fmt.Sprintf("GDAL_NUM_THREADS=%d", cfg.numThreads))
	}

	srcDS, owned, err := src.open()
	if err != nil {
		return nil, err
	}
	if owned {
		defer srcDS.Close()
	}

	var warnings []Warning
	warnf := func(code WarningCode, format string, a ...interface{}) {
		warnings = append(warnings, Warning{Code: code, Message: fmt.Sprintf(format, a...)})
	}

	str := srcDS.Structure()
	indexes := cfg.indexes
	if len(indexes) == 0 {
		indexes = make([]int, str.NBands)
		for i := range indexes {
			indexes[i] = i + 1
		}
	}
	for _, b := range indexes {
		if b < 1 || b > str.NBands {
			return nil, incompatibleOptions("band index %d out of range [1,%d]", b, str.NBands)
		}
	}

	nodata := cfg.nodata
	if nodata == nil {
		if nd, ok := srcDS.Bands()[0].NoData(); ok {
			nodata = &nd
		}
	}
	dtype := cfg.dtype
	if dtype == godal.Unknown {
		dtype = str.DataType
	}
	alpha := hasAlphaBand(srcDS)
	mask := hasMaskBand(srcDS)

	if cfg.colormap != nil && len(indexes) > 1 {
		return nil, incompatibleOptions("cannot add a colormap for multiple bands data")
	}

	addMask := cfg.addMask
	if !addMask && (nodata != nil || alpha) && profile.Compression == CompressionJPEG {
		warnf(WarnLossyTransparency, "nodata/alpha band will be translated to an internal mask band")
		addMask = true
		if len(indexes) != 1 && len(indexes) != 3 {
			indexes = nonAlphaIndexes(srcDS)
		}
	}

	overviewLevel := cfg.overviewLevel
	tilesize := minInt(profile.BlockXSize, profile.BlockYSize)
	if str.SizeX < tilesize || str.SizeY < tilesize {
		tilesize = 1 << uint(math.Log2(float64(minInt(str.SizeX, str.SizeY))))
		if tilesize < 64 {
			warnf(WarnIncompatibleBlockSize,
				"raster has dimension < 64px, output COG cannot be tiled and overviews cannot be added")
			profile.Tiled = false
			profile.BlockXSize = 0
			profile.BlockYSize = 0
			overviewLevel = 0
		} else {
			warnf(WarnIncompatibleBlockSize,
				"block size is bigger than raster size, setting block size to %d", tilesize)
			profile.BlockXSize = tilesize
			profile.BlockYSize = tilesize
		}
	}

	switches := []string{"-of", "VRT", "-r", cfg.resampling.String()}
	addAlpha := true
	if nodata != nil {
		addAlpha = false
		nd := fmt.Sprintf("%g", *nodata)
		switches = append(switches, "-srcnodata", nd, "-dstnodata", nd)
	}
	if alpha {
		addAlpha = false
	}
	if addAlpha {
		switches = append(switches, "-dstalpha")
	}
	if dtype != str.DataType {
		switches = append(switches, "-ot", dtype.String())
	}

	var grid webGrid
	webWarp := cfg.webOptimized && !cfg.useCOGDriver
	if webWarp {
		grid, err = webOptimizedGrid(srcDS, cfg.scheme, cfg.zoomStrategy, cfg.zoomLevel, cfg.alignedLevels)
		if err != nil {
			return nil, fmt.Errorf("web-optimized alignment: %w", err)
		}
		switches = append(switches,
			"-t_srs", cfg.scheme.CRS,
			"-te", fmt.Sprintf("%.17g", grid.bounds[0]), fmt.Sprintf("%.17g", grid.bounds[1]),
			fmt.Sprintf("%.17g", grid.bounds[2]), fmt.Sprintf("%.17g", grid.bounds[3]),
			"-ts", fmt.Sprintf("%d", grid.width), fmt.Sprintf("%d", grid.height))
	}

	vrt, err := srcDS.Warp("", switches, godal.ConfigOption(cfg.configOptions...))
	if err != nil {
		return nil, fmt.Errorf("warped view: %w", err)
	}
	defer vrt.Close()

	vstr := vrt.Structure()
	if profile.Photometric == "YCBCR" && len(indexes) == 1 {
		warnf(WarnPhotometricOverride,
			"PHOTOMETRIC=YCBCR not supported on a 1-band raster and has been set to MINISBLACK")
		profile.Photometric = "MINISBLACK"
	}

	stagingOpts := stagingCreationOptions(profile, cfg.allowIntermediateComp, cfg.intermediateComp)

	inMemory := int64(vstr.SizeX)*int64(vstr.SizeY) < cfg.inMemoryThreshold
	if cfg.inMemory != nil {
		inMemory = *cfg.inMemory
	}
	tmpName, cleanup := stagingTarget(dstPath, inMemory)
	defer cleanup()

	tmpDS, err := godal.Create(godal.GTiff, tmpName, len(indexes), dtype, vstr.SizeX, vstr.SizeY,
		godal.CreationOption(stagingOpts...), godal.ConfigOption(cfg.configOptions...))
	if err != nil {
		return nil, fmt.Errorf("create staging dataset: %w", err)
	}
	tmpOpen := true
	defer func() {
		if tmpOpen {
			tmpDS.Close()
		}
	}()

	gt, err := vrt.GeoTransform()
	if err == nil {
		if err := tmpDS.SetGeoTransform(gt); err != nil {
			return nil, fmt.Errorf("set geotransform: %w", err)
		}
	}
	if proj := vrt.Projection(); proj != "" {
		if err := tmpDS.SetProjection(proj); err != nil {
			return nil, fmt.Errorf("set projection: %w", err)
		}
	}
	if nodata != nil && !addMask {
		if err := tmpDS.SetNoData(*nodata); err != nil {
			return nil, fmt.Errorf("set nodata: %w", err)
		}
	}

	if err := transferColorInfo(vrt, tmpDS, indexes, cfg.colormap, warnf); err != nil {
		return nil, err
	}

	withMask := addMask || mask
	if withMask {
		if _, err := tmpDS.CreateMaskBand(maskFlagPerDataset,
			godal.ConfigOption("GDAL_TIFF_INTERNAL_MASK=YES")); err != nil {
			return nil, fmt.Errorf("create mask band: %w", err)
		}
	}

	if err := copyBlocks(vrt, tmpDS, indexes, dtype, withMask); err != nil {
		return nil, err
	}

	if overviewLevel < 0 {
		overviewLevel = maximumOverviewLevel(vstr.SizeX, vstr.SizeY, tilesize)
	}
	decimations := overviewSequence(overviewLevel)
	if len(decimations) > 0 {
		if err := tmpDS.BuildOverviews(godal.Levels(decimations...),
			godal.Resampling(cfg.overviewResampling),
			godal.ConfigOption(cfg.configOptions...)); err != nil {
			return nil, fmt.Errorf("build overviews: %w", err)
		}
	}

	if err := transferTags(srcDS, tmpDS, src, indexes, &cfg); err != nil {
		return nil, err
	}
	if err := tmpDS.SetMetadata("OVR_RESAMPLING_ALG",
		strings.ToUpper(cfg.overviewResampling.String())); err != nil {
		return nil, fmt.Errorf("set overview resampling tag: %w", err)
	}
	for k, v := range cfg.additionalMetadata {
		if err := tmpDS.SetMetadata(k, v); err != nil {
			return nil, fmt.Errorf("set metadata %s: %w", k, err)
		}
	}

	finalCO := profile.CreationOptions()
	if webWarp {
		finalCO = append(finalCO,
			fmt.Sprintf("@TILING_SCHEME_NAME=%s", cfg.scheme.ID),
			fmt.Sprintf("@TILING_SCHEME_ZOOM_LEVEL=%d", grid.zoom))
		if grid.alignedLevels > 0 {
			finalCO = append(finalCO,
				fmt.Sprintf("@TILING_SCHEME_ALIGNED_LEVELS=%d", grid.alignedLevels))
		}
	}

	var out *godal.Dataset
	if cfg.useCOGDriver {
		co, err := cogDriverOptions(profile, tilesize, addMask, &cfg, warnf)
		if err != nil {
			return nil, err
		}
		out, err = tmpDS.Translate(dstPath, nil,
			godal.DriverName("COG"),
			godal.CreationOption(co...),
			godal.ConfigOption(cfg.configOptions...))
		if err != nil {
			return nil, fmt.Errorf("COG driver copy: %w", err)
		}
	} else {
		finalCO = append(finalCO, "COPY_SRC_OVERVIEWS=YES")
		out, err = tmpDS.Translate(dstPath, nil,
			godal.GTiff,
			godal.CreationOption(finalCO...),
			godal.ConfigOption(append([]string{"GDAL_TIFF_INTERNAL_MASK=YES"}, cfg.configOptions...)...))
		if err != nil {
			return nil, fmt.Errorf("final copy: %w", err)
		}
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", dstPath, err)
	}
	tmpOpen = false
	if err := tmpDS.Close(); err != nil {
		return nil, fmt.Errorf("close staging dataset: %w", err)
	}

	return &TranslateResult{
		Path:      dstPath,
		Width:     vstr.SizeX,
		Height:    vstr.SizeY,
		Overviews: decimations,
		Warnings:  warnings,
	}, nil
}

// stagingCreationOptions renders the creation options of the intermediate
// dataset: same layout as the output but uncompressed, unless intermediate
// compression was allowed.
func stagingCreationOptions(profile Profile, compress bool, codec Compression) []string {
	staging := profile
	staging.Compression = CompressionNone
	staging.Photometric = ""
	staging.Predictor = 0
	staging.Extras = nil
	if compress {
		staging.Compression = codec
	}
	return staging.CreationOptions()
}

// stagingTarget returns the name of the staging dataset and a cleanup
// function removing it. In-memory staging lives in /vsimem/; on-disk
// staging is a sibling of the destination so the final copy stays on the
// same filesystem.
func stagingTarget(dstPath string, inMemory bool) (string, func()) {
	id := uuid.New().String()
	if inMemory {
		name := "/vsimem/" + id + ".tif"
		return name, func() { _ = godal.VSIUnlink(name) }
	}
	dir := filepath.Dir(dstPath)
	if strings.Contains(dstPath, "://") || strings.HasPrefix(dstPath, "/vsi") {
		dir = os.TempDir()
	}
	name := filepath.Join(dir, id+".tmp.tif")
	return name, func() { _ = os.Remove(name) }
}

// transferColorInfo propagates color interpretation and color tables from
// the warped view to the staging dataset.
func transferColorInfo(vrt, tmp *godal.Dataset, indexes []int, colormap *godal.ColorTable, warnf func(WarningCode, string, ...interface{})) error {
	vrtBands := vrt.Bands()
	tmpBands := tmp.Bands()

	if len(indexes) == 1 && vrtBands[indexes[0]-1].ColorInterp() != godal.CIPalette {
		if err := tmpBands[0].SetColorInterp(godal.CIGray); err != nil {
			return fmt.Errorf("set color interpretation: %w", err)
		}
	} else {
		for i, b := range indexes {
			if err := tmpBands[i].SetColorInterp(vrtBands[b-1].ColorInterp()); err != nil {
				return fmt.Errorf("set color interpretation: %w", err)
			}
		}
	}

	if colormap != nil {
		if tmpBands[0].ColorInterp() != godal.CIPalette {
			if err := tmpBands[0].SetColorInterp(godal.CIPalette); err != nil {
				return fmt.Errorf("set color interpretation: %w", err)
			}
			warnf(WarnColorinterpOverride, "dataset color interpretation was set to palette")
		}
		if err := tmpBands[0].SetColorTable(*colormap); err != nil {
			return fmt.Errorf("set color table: %w", err)
		}
	} else if tmpBands[0].ColorInterp() == godal.CIPalette {
		ct := vrtBands[indexes[0]-1].ColorTable()
		if len(ct.Entries) == 0 {
			warnf(WarnMissingColormap,
				"dataset has palette color interpretation but is missing colormap information")
		} else if err := tmpBands[0].SetColorTable(ct); err != nil {
			return fmt.Errorf("set color table: %w", err)
		}
	}
	return nil
}

// copyBlocks streams the warped view into the staging dataset one block
// window at a time, including the dataset mask when present.
func copyBlocks(vrt, tmp *godal.Dataset, indexes []int, dtype godal.DataType, withMask bool) error {
	srcBands := make([]int, len(indexes))
	for i, b := range indexes {
		srcBands[i] = b - 1
	}
	vrtMask := vrt.Bands()[0].MaskBand()
	tmpMask := tmp.Bands()[0].MaskBand()

	str := tmp.Structure()
	for block, ok := str.FirstBlock(), true; ok; block, ok = block.Next() {
		buf, err := pixelBuffer(dtype, block.W*block.H*len(indexes))
		if err != nil {
			return err
		}
		if err := vrt.Read(block.X0, block.Y0, buf, block.W, block.H, godal.Bands(srcBands...)); err != nil {
			return fmt.Errorf("read block %d,%d: %w", block.X0, block.Y0, err)
		}
		if err := tmp.Write(block.X0, block.Y0, buf, block.W, block.H); err != nil {
			return fmt.Errorf("write block %d,%d: %w", block.X0, block.Y0, err)
		}
		if withMask {
			mbuf := make([]uint8, block.W*block.H)
			if err := vrtMask.Read(block.X0, block.Y0, mbuf, block.W, block.H); err != nil {
				return fmt.Errorf("read mask block %d,%d: %w", block.X0, block.Y0, err)
			}
			if err := tmpMask.Write(block.X0, block.Y0, mbuf, block.W, block.H); err != nil {
				return fmt.Errorf("write mask block %d,%d: %w", block.X0, block.Y0, err)
			}
		}
	}
	return nil
}

func pixelBuffer(dtype godal.DataType, n int) (interface{}, error) {
	switch dtype {
	case godal.Byte:
		return make([]uint8, n), nil
	case godal.Int16:
		return make([]int16, n), nil
	case godal.UInt16:
		return make([]uint16, n), nil
	case godal.Int32:
		return make([]int32, n), nil
	case godal.UInt32:
		return make([]uint32, n), nil
	case godal.Float32:
		return make([]float32, n), nil
	case godal.Float64:
		return make([]float64, n), nil
	default:
		return nil, fmt.Errorf("unsupported data type %s", dtype)
	}
}

// transferTags copies dataset tags, band descriptions, band scale/offset
// and, on request, band tags and foreign metadata domains from the source
// to the staging dataset.
func transferTags(src, tmp *godal.Dataset, source Source, indexes []int, cfg *translateConfig) error {
	for k, v := range src.Metadatas() {
		if err := tmp.SetMetadata(k, v); err != nil {
			return fmt.Errorf("set metadata %s: %w", k, err)
		}
	}

	srcBands := src.Bands()
	tmpBands := tmp.Bands()
	if cfg.forwardBandTags {
		for i, b := range indexes {
			for k, v := range srcBands[b-1].Metadatas() {
				if err := tmpBands[i].SetMetadata(k, v); err != nil {
					return fmt.Errorf("set band %d metadata %s: %w", b, k, err)
				}
			}
		}
	}

	if cfg.forwardNSTags {
		for _, ns := range src.MetadataDomains() {
			if ns == "" || ns == "DERIVED_SUBDATASETS" || ns == "IMAGE_STRUCTURE" {
				continue
			}
			for k, v := range src.Metadatas(godal.Domain(ns)) {
				if err := tmp.SetMetadata(k, v, godal.Domain(ns)); err != nil {
					return fmt.Errorf("set %s metadata %s: %w", ns, k, err)
				}
			}
		}
	}

	// Descriptions and scale/offset are read back from the GeoTIFF metadata
	// tag when the source is a file; non-TIFF sources keep engine defaults.
	if source.path != "" {
		if md, err := readBandMetaTag(source.path); err == nil {
			for i, b := range indexes {
				bm := md.band(b - 1)
				if bm.description != "" {
					if err := tmpBands[i].SetDescription(bm.description); err != nil {
						return fmt.Errorf("set band %d description: %w", b, err)
					}
				}
				if bm.scale != 1 || bm.offset != 0 {
					if err := tmpBands[i].SetScaleOffset(bm.scale, bm.offset); err != nil {
						return fmt.Errorf("set band %d scale/offset: %w", b, err)
					}
				}
			}
		}
	}
	return nil
}

// cogDriverOptions consolidates profile and alignment parameters into the
// native COG driver's creation options.
func cogDriverOptions(profile Profile, tilesize int, addMask bool, cfg *translateConfig, warnf func(WarningCode, string, ...interface{})) ([]string, error) {
	version := godal.Version()
	if version.Major() < 3 || (version.Major() == 3 && version.Minor() < 1) {
		return nil, fmt.Errorf("GDAL 3.1 or above required to use the COG driver")
	}

	var co []string
	if profile.Compression != CompressionNone {
		co = append(co, fmt.Sprintf("COMPRESS=%s", profile.Compression))
	}
	if profile.Predictor > 0 {
		co = append(co, fmt.Sprintf("PREDICTOR=%d", profile.Predictor))
	}
	for k, v := range profile.Extras {
		co = append(co, fmt.Sprintf("%s=%s", k, v))
	}
	co = append(co,
		fmt.Sprintf("BLOCKSIZE=%d", tilesize),
		fmt.Sprintf("OVERVIEW_RESAMPLING=%s", strings.ToUpper(cfg.overviewResampling.String())),
		fmt.Sprintf("WARP_RESAMPLING=%s", strings.ToUpper(cfg.resampling.String())))

	if cfg.webOptimized {
		scheme := cfg.scheme.ID
		if scheme == "WebMercatorQuad" {
			scheme = "GoogleMapsCompatible"
		}
		co = append(co, fmt.Sprintf("TILING_SCHEME=%s", scheme))
		if cfg.zoomLevel >= 0 {
			if version.Major() == 3 && version.Minor() < 5 {
				warnf(WarnZoomLevelIgnored, "ZOOM_LEVEL option is only available with GDAL >= 3.5")
			} else {
				co = append(co, fmt.Sprintf("ZOOM_LEVEL=%d", cfg.zoomLevel))
			}
		}
		co = append(co, fmt.Sprintf("ZOOM_LEVEL_STRATEGY=%s", strings.ToUpper(string(cfg.zoomStrategy))))
		if cfg.alignedLevels >= 0 {
			// the COG driver counts resolution levels, not overview levels
			co = append(co, fmt.Sprintf("ALIGNED_LEVELS=%d", cfg.alignedLevels+1))
		}
	}

	if addMask && profile.Compression != CompressionJPEG {
		warnf(WarnCOGDriverMaskAlpha, "with the COG driver, mask band will be translated to an alpha band")
	}
	return co, nil
}
