package main

import (
	"fmt"
	"strings"

	"github.com/airbusgeo/cogeo"
	"github.com/airbusgeo/cogeo/tms"
	"github.com/airbusgeo/godal"
	"github.com/alessio/shellescape"
	shellwords "github.com/mattn/go-shellwords"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var resamplingAlgs = map[string]godal.ResamplingAlg{
	"nearest":     godal.Nearest,
	"bilinear":    godal.Bilinear,
	"cubic":       godal.Cubic,
	"cubicspline": godal.CubicSpline,
	"lanczos":     godal.Lanczos,
	"average":     godal.Average,
	"mode":        godal.Mode,
	"gauss":       godal.Gauss,
}

var dataTypes = map[string]godal.DataType{
	"uint8":   godal.Byte,
	"int16":   godal.Int16,
	"uint16":  godal.UInt16,
	"int32":   godal.Int32,
	"uint32":  godal.UInt32,
	"float32": godal.Float32,
	"float64": godal.Float64,
}

func newCreateCommand(cfg *cliConfig) *cobra.Command {
	var (
		profileName        string
		blocksize          int
		indexes            []int
		nodata             string
		dtype              string
		addMask            bool
		overviewLevel      int
		overviewResampling string
		resampling         string
		webOptimized       bool
		zoomStrategy       string
		zoomLevel          int
		alignedLevels      int
		inMemory           bool
		copts              []string
		configOpts         []string
		forwardBandTags    bool
		forwardNSTags      bool
		tempCompression    string
		useCOGDriver       bool
		threads            int
		quiet              bool
	)

	var profile cogeo.Profile
	var translateOpts []cogeo.TranslateOption

	cmd := &cobra.Command{
		Use:   "create SOURCE DESTINATION",
		Short: "create a Cloud Optimized GeoTIFF",
		Args:  cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			profile, err = cogeo.GetProfile(profileName)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("blocksize") {
				profile.BlockXSize = blocksize
				profile.BlockYSize = blocksize
			}
			for _, co := range copts {
				fields, err := shellwords.Parse(co)
				if err != nil {
					return fmt.Errorf("invalid creation option %q: %w", co, err)
				}
				for _, f := range fields {
					if err := applyCreationOption(&profile, f); err != nil {
						return err
					}
				}
			}

			if len(indexes) > 0 {
				translateOpts = append(translateOpts, cogeo.Indexes(indexes...))
			}
			if nodata != "" {
				nd, err := parseNoData(nodata)
				if err != nil {
					return err
				}
				translateOpts = append(translateOpts, cogeo.NoData(nd))
			}
			if dtype != "" {
				dt, ok := dataTypes[strings.ToLower(dtype)]
				if !ok {
					return fmt.Errorf("invalid dtype %q", dtype)
				}
				translateOpts = append(translateOpts, cogeo.DType(dt))
			}
			if addMask {
				translateOpts = append(translateOpts, cogeo.AddMask())
			}
			if cmd.Flags().Changed("overview-level") {
				translateOpts = append(translateOpts, cogeo.OverviewLevel(overviewLevel))
			}
			ovrAlg, ok := resamplingAlgs[strings.ToLower(overviewResampling)]
			if !ok {
				return fmt.Errorf("invalid overview resampling %q", overviewResampling)
			}
			translateOpts = append(translateOpts, cogeo.OverviewResampling(ovrAlg))
			alg, ok := resamplingAlgs[strings.ToLower(resampling)]
			if !ok {
				return fmt.Errorf("invalid resampling %q", resampling)
			}
			translateOpts = append(translateOpts, cogeo.Resampling(alg))

			if webOptimized {
				translateOpts = append(translateOpts, cogeo.WebOptimized())
			}
			switch strategy := tms.ZoomStrategy(strings.ToLower(zoomStrategy)); strategy {
			case tms.ZoomAuto, tms.ZoomLower, tms.ZoomUpper:
				translateOpts = append(translateOpts, cogeo.ZoomLevelStrategy(strategy))
			default:
				return fmt.Errorf("invalid zoom level strategy %q", zoomStrategy)
			}
			if cmd.Flags().Changed("zoom-level") {
				translateOpts = append(translateOpts, cogeo.ZoomLevel(zoomLevel))
			}
			if cmd.Flags().Changed("aligned-levels") {
				translateOpts = append(translateOpts, cogeo.AlignedLevels(alignedLevels))
			}
			if cmd.Flags().Changed("in-memory") {
				translateOpts = append(translateOpts, cogeo.InMemory(inMemory))
			}
			if cfg.InMemoryThreshold > 0 {
				translateOpts = append(translateOpts, cogeo.InMemoryThreshold(cfg.InMemoryThreshold))
			}
			if len(configOpts) > 0 {
				translateOpts = append(translateOpts, cogeo.ConfigOptions(configOpts...))
			}
			if forwardBandTags {
				translateOpts = append(translateOpts, cogeo.ForwardBandTags())
			}
			if forwardNSTags {
				translateOpts = append(translateOpts, cogeo.ForwardNamespaceTags())
			}
			if cmd.Flags().Changed("temporary-compression") {
				translateOpts = append(translateOpts,
					cogeo.AllowIntermediateCompression(cogeo.Compression(strings.ToUpper(tempCompression))))
			}
			if useCOGDriver {
				translateOpts = append(translateOpts, cogeo.UseCOGDriver())
			}
			if threads == 0 && cfg.NumThreads > 0 {
				threads = cfg.NumThreads
			}
			if threads > 0 {
				translateOpts = append(translateOpts, cogeo.NumThreads(threads))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			src, dst := args[0], args[1]
			if quiet {
				log.SetLevel(logrus.ErrorLevel)
			}
			log.Debugf("creation options: %s", shellescape.QuoteCommand(profile.CreationOptions()))
			log.Infof("reading input: %s", src)
			result, err := cogeo.Translate(cogeo.PathSource(src), dst, profile, translateOpts...)
			if err != nil {
				return err
			}
			for _, w := range result.Warnings {
				log.Warn(w.String())
			}
			log.Infof("wrote %s (%dx%d, overviews %v)",
				result.Path, result.Width, result.Height, result.Overviews)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&profileName, "cog-profile", "p", "deflate",
		fmt.Sprintf("COG profile, one of %s", strings.Join(cogeo.ProfileNames(), ", ")))
	flags.IntVar(&blocksize, "blocksize", 0, "overwrite profile block size")
	flags.IntSliceVarP(&indexes, "bidx", "b", nil, "band indexes to copy")
	flags.StringVar(&nodata, "nodata", "", "set nodata masking value for input dataset")
	flags.StringVar(&dtype, "dtype", "", "output data type")
	flags.BoolVar(&addMask, "add-mask", false, "force output dataset creation with an internal mask")
	flags.IntVar(&overviewLevel, "overview-level", -1, "overview level (default inferred from data size)")
	flags.StringVar(&overviewResampling, "overview-resampling", "nearest", "overview creation resampling algorithm")
	flags.StringVarP(&resampling, "resampling", "r", "nearest", "warp resampling algorithm")
	flags.BoolVarP(&webOptimized, "web-optimized", "w", false, "create a web-optimized cogeo")
	flags.StringVar(&zoomStrategy, "zoom-level-strategy", "auto", "strategy to determine zoom level (auto, lower, upper)")
	flags.IntVar(&zoomLevel, "zoom-level", -1, "zoom level number (default inferred from data)")
	flags.IntVar(&alignedLevels, "aligned-levels", -1, "number of overview levels aligned with the tiling scheme")
	flags.BoolVar(&inMemory, "in-memory", false, "force processing raster in memory")
	flags.StringArrayVar(&copts, "co", nil, "creation options, e.g. \"COMPRESS=LZW PREDICTOR=2\"")
	flags.StringArrayVar(&configOpts, "config", nil, "GDAL configuration options")
	flags.BoolVar(&forwardBandTags, "forward-band-tags", false, "forward band tags to output bands")
	flags.BoolVar(&forwardNSTags, "forward-ns-tags", false, "forward namespace tags to output dataset")
	flags.StringVar(&tempCompression, "temporary-compression", "DEFLATE", "compress the intermediate dataset with this codec")
	flags.BoolVar(&useCOGDriver, "use-cog-driver", false, "use the native COG driver (requires GDAL >= 3.1)")
	flags.IntVar(&threads, "threads", 0, "engine worker threads")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")

	return cmd
}

// applyCreationOption folds one KEY=VALUE creation option into the profile.
// An empty value resets the key.
func applyCreationOption(p *cogeo.Profile, opt string) error {
	k, v, found := strings.Cut(opt, "=")
	if !found {
		return fmt.Errorf("invalid creation option %q, expected KEY=VALUE", opt)
	}
	k = strings.ToUpper(k)
	switch k {
	case "COMPRESS":
		p.Compression = cogeo.Compression(strings.ToUpper(v))
	case "INTERLEAVE":
		p.Interleave = strings.ToUpper(v)
	case "TILED":
		p.Tiled = strings.EqualFold(v, "YES") || strings.EqualFold(v, "TRUE")
	case "BLOCKXSIZE", "BLOCKYSIZE":
		return fmt.Errorf("%s creation option not allowed, use --blocksize", k)
	case "PHOTOMETRIC":
		p.Photometric = strings.ToUpper(v)
	case "PREDICTOR":
		var pred int
		if _, err := fmt.Sscanf(v, "%d", &pred); err != nil {
			return fmt.Errorf("invalid PREDICTOR value %q", v)
		}
		p.Predictor = pred
	default:
		if p.Extras == nil {
			p.Extras = map[string]string{}
		}
		if v == "" {
			delete(p.Extras, k)
		} else {
			p.Extras[k] = v
		}
	}
	return nil
}

func parseNoData(s string) (float64, error) {
	var nd float64
	if _, err := fmt.Sscanf(s, "%g", &nd); err != nil {
		return 0, fmt.Errorf("invalid nodata value %q", s)
	}
	return nd, nil
}
