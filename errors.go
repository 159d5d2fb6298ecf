package cogeo

import "fmt"

// IncompatibleOptionsError reports a combination of user-supplied translate
// options that can never produce a valid dataset. It is raised before any
// I/O happens.
type IncompatibleOptionsError struct {
	msg string
}

func (err IncompatibleOptionsError) Error() string {
	return err.msg
}

func incompatibleOptions(format string, a ...interface{}) IncompatibleOptionsError {
	return IncompatibleOptionsError{msg: fmt.Sprintf(format, a...)}
}

// WarningCode identifies a class of recoverable translate diagnostics.
type WarningCode string

const (
	// WarnIncompatibleBlockSize is emitted when the raster is smaller than
	// the requested block size and tiling parameters had to be adjusted or
	// dropped.
	WarnIncompatibleBlockSize WarningCode = "IncompatibleBlockRasterSize"
	// WarnLossyTransparency is emitted when nodata/alpha transparency is
	// converted to an internal mask band to keep it out of lossy-compressed
	// pixel data.
	WarnLossyTransparency WarningCode = "LossyTransparency"
	// WarnPhotometricOverride is emitted when an invalid photometric
	// interpretation is replaced.
	WarnPhotometricOverride WarningCode = "PhotometricOverride"
	// WarnColorinterpOverride is emitted when a user colormap forces the
	// first band to palette interpretation.
	WarnColorinterpOverride WarningCode = "ColorinterpOverride"
	// WarnMissingColormap is emitted when a palette band carries no usable
	// color table.
	WarnMissingColormap WarningCode = "MissingColormap"
	// WarnCOGDriverMaskAlpha is emitted when the native COG driver will
	// translate a mask band to an alpha band.
	WarnCOGDriverMaskAlpha WarningCode = "COGDriverMaskAlpha"
	// WarnZoomLevelIgnored is emitted when the engine is too old to honor a
	// pinned zoom level on the native COG driver path.
	WarnZoomLevelIgnored WarningCode = "ZoomLevelIgnored"
)

// A Warning is a recoverable incompatibility that was downgraded with
// adjusted parameters. Warnings are data on the translate result, not
// errors: the pipeline always continues past them.
type Warning struct {
	Code    WarningCode
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}
