package cogeo

import (
	"fmt"
	"math"
	"os"
)

// DefaultMainIFDOffsetBound is the maximum byte offset of the main IFD for
// a file to qualify as a COG. 300 bytes leaves room for the header and the
// ghost area written by the GTiff driver.
const DefaultMainIFDOffsetBound = 300

type validateConfig struct {
	strict             bool
	mainIFDOffsetBound uint64
}

// ValidateOption alters the behavior of Validate.
type ValidateOption func(*validateConfig)

// Strict downgrades no finding: warnings invalidate the file too.
func Strict() ValidateOption {
	return func(c *validateConfig) { c.strict = true }
}

// MainIFDOffsetBound overrides the maximum main IFD byte offset.
func MainIFDOffsetBound(n uint64) ValidateOption {
	return func(c *validateConfig) { c.mainIFDOffsetBound = n }
}

// ValidationReport lists the findings of a structural audit. Errors are
// layout defects that break the cloud-optimized contract; warnings are
// departures from best practice that still allow efficient access.
type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate audits the internal layout of a GeoTIFF against the COG
// contract: directories at the head of the file, tiled levels, properly
// ordered overviews and data blocks. Findings are reported as data; the
// returned error is non-nil only when the file cannot be read at all.
func Validate(path string, opts ...ValidateOption) (ValidationReport, error) {
	cfg := validateConfig{mainIFDOffsetBound: DefaultMainIFDOffsetBound}
	for _, o := range opts {
		o(&cfg)
	}

	report := ValidationReport{}
	errf := func(format string, a ...interface{}) {
		report.Errors = append(report.Errors, fmt.Sprintf(format, a...))
	}
	warnf := func(format string, a ...interface{}) {
		report.Warnings = append(report.Warnings, fmt.Sprintf(format, a...))
	}

	f, err := os.Open(path)
	if err != nil {
		return report, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	st, err := parseTIFFStructure(f)
	if err != nil {
		report.Errors = append(report.Errors, "the file is not a supported TIFF variant")
		return report, nil
	}

	if _, err := os.Stat(path + ".ovr"); err == nil {
		errf("overviews found in external .ovr file, they should be internal")
	}

	main := st.main()
	overviews := st.overviews()

	if main.ImageWidth > 512 && main.ImageLength > 512 {
		if !main.tiled() {
			errf("the file is greater than 512x512, it is recommended to use internal tiling")
		}
		if len(overviews) == 0 {
			warnf("the file is greater than 512x512, it is recommended to include internal overviews")
		}
	}

	if main.offset > cfg.mainIFDOffsetBound {
		errf("the offset of the main IFD is %d, it should be below %d", main.offset, cfg.mainIFDOffsetBound)
	}

	prevDecimation := 0
	for i, ovr := range overviews {
		if ovr.ImageWidth == 0 || ovr.ImageLength == 0 {
			errf("overview of index %d has an invalid size", i)
			continue
		}
		decimation := int(math.Round(float64(main.ImageWidth) / float64(ovr.ImageWidth)))
		if decimation < 2 {
			errf("overview of index %d has an invalid decimation %d", i, decimation)
		} else if decimation < prevDecimation {
			errf("overviews should be sorted from larger to smaller")
			prevDecimation = decimation
		} else {
			prevDecimation = decimation
		}
		if ovr.ImageWidth > 512 && ovr.ImageLength > 512 && !ovr.tiled() {
			errf("overview of index %d is not tiled", i)
		}
	}

	// IFD offsets must grow along the chain, masks included.
	for i := 1; i < len(st.levels); i++ {
		if st.levels[i].offset <= st.levels[i-1].offset {
			errf("the offset of the IFD of index %d is %d, whereas it should be greater than the one before (%d)",
				i, st.levels[i].offset, st.levels[i-1].offset)
		}
	}

	checkDataOrder(main, overviews, errf)

	report.Valid = len(report.Errors) == 0 && !(cfg.strict && len(report.Warnings) > 0)
	return report, nil
}

// checkDataOrder verifies that pixel data is laid out smallest overview
// first and main image last, each level's first block sitting after its own
// IFD and after the data of the next smaller level.
func checkDataOrder(main levelIFD, overviews []levelIFD, errf func(string, ...interface{})) {
	levels := append([]levelIFD{main}, overviews...)
	data := make([]uint64, len(levels))
	for i, l := range levels {
		data[i] = l.firstBlockOffset()
	}

	last := len(levels) - 1
	if data[last] != 0 && data[last] < levels[last].offset {
		if last == 0 {
			errf("the first block of image data should be after its IFD")
		} else {
			errf("the first block of the smallest overview should be after its IFD")
		}
	}
	for i := last - 1; i >= 1; i-- {
		if data[i] != 0 && data[i+1] != 0 && data[i] < data[i+1] {
			errf("the data of overview of index %d should be after the one of index %d", i-1, i)
		}
	}
	if len(levels) >= 2 && data[0] != 0 && data[1] != 0 && data[0] < data[1] {
		errf("the data of the main resolution image should be after the data of its overviews")
	}
}
