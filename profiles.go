package cogeo

import (
	"fmt"
	"sort"
)

// Compression is a TIFF compression codec name as understood by the GTiff
// and COG drivers.
type Compression string

const (
	CompressionNone     Compression = ""
	CompressionJPEG     Compression = "JPEG"
	CompressionWEBP     Compression = "WEBP"
	CompressionZSTD     Compression = "ZSTD"
	CompressionLZW      Compression = "LZW"
	CompressionDeflate  Compression = "DEFLATE"
	CompressionPackBits Compression = "PACKBITS"
	CompressionLZMA     Compression = "LZMA"
	CompressionLERC     Compression = "LERC"
)

// Lossy reports whether the codec discards pixel values, in which case
// transparency must travel in a mask band rather than in the samples.
func (c Compression) Lossy() bool {
	return c == CompressionJPEG || c == CompressionWEBP
}

// A Profile is a bundle of GTiff creation parameters used as translation
// defaults. Values returned by GetProfile are copies: mutating one never
// affects the registry.
type Profile struct {
	Compression Compression
	Interleave  string
	Tiled       bool
	BlockXSize  int
	BlockYSize  int
	Photometric string
	Predictor   int
	// Extras holds codec-specific creation options (quality, zlevel, ...)
	// that have no dedicated field.
	Extras map[string]string
}

func baseProfile(c Compression) Profile {
	return Profile{
		Compression: c,
		Interleave:  "PIXEL",
		Tiled:       true,
		BlockXSize:  512,
		BlockYSize:  512,
	}
}

func lercProfile(extra map[string]string) Profile {
	p := baseProfile(CompressionLERC)
	p.Extras = map[string]string{"MAX_Z_ERROR": "0"}
	for k, v := range extra {
		p.Extras[k] = v
	}
	return p
}

var profiles = map[string]func() Profile{
	"jpeg": func() Profile {
		p := baseProfile(CompressionJPEG)
		p.Photometric = "YCBCR"
		return p
	},
	"webp":     func() Profile { return baseProfile(CompressionWEBP) },
	"zstd":     func() Profile { return baseProfile(CompressionZSTD) },
	"lzw":      func() Profile { return baseProfile(CompressionLZW) },
	"deflate":  func() Profile { return baseProfile(CompressionDeflate) },
	"packbits": func() Profile { return baseProfile(CompressionPackBits) },
	"lzma":     func() Profile { return baseProfile(CompressionLZMA) },
	"lerc":     func() Profile { return lercProfile(nil) },
	"lerc_deflate": func() Profile {
		return lercProfile(map[string]string{"ADDITIONAL_COMPRESSION": "DEFLATE"})
	},
	"lerc_zstd": func() Profile {
		return lercProfile(map[string]string{"ADDITIONAL_COMPRESSION": "ZSTD"})
	},
	"raw": func() Profile { return baseProfile(CompressionNone) },
}

// GetProfile returns a copy of the named creation profile.
func GetProfile(name string) (Profile, error) {
	f, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%q is not a valid COG profile name", name)
	}
	return f(), nil
}

// ProfileNames returns the sorted names of all registered profiles.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CreationOptions renders the profile as GDAL creation-option strings.
func (p Profile) CreationOptions() []string {
	var co []string
	if p.Tiled {
		co = append(co, "TILED=YES",
			fmt.Sprintf("BLOCKXSIZE=%d", p.BlockXSize),
			fmt.Sprintf("BLOCKYSIZE=%d", p.BlockYSize))
	}
	if p.Compression != CompressionNone {
		co = append(co, fmt.Sprintf("COMPRESS=%s", p.Compression))
	}
	if p.Interleave != "" {
		co = append(co, fmt.Sprintf("INTERLEAVE=%s", p.Interleave))
	}
	if p.Photometric != "" {
		co = append(co, fmt.Sprintf("PHOTOMETRIC=%s", p.Photometric))
	}
	if p.Predictor > 0 {
		co = append(co, fmt.Sprintf("PREDICTOR=%d", p.Predictor))
	}
	keys := make([]string, 0, len(p.Extras))
	for k := range p.Extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		co = append(co, fmt.Sprintf("%s=%s", k, p.Extras[k]))
	}
	return co
}
