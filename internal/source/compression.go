package source

import (
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression identifies the compression wrapped around a source.
type Compression int

// Supported compression formats.
const (
	CompressionNone Compression = iota
	CompressionGZ
	CompressionBZ2
	CompressionXZ
	CompressionZSTD
)

func (c Compression) String() string {
	switch c {
	case CompressionGZ:
		return "gzip"
	case CompressionBZ2:
		return "bzip2"
	case CompressionXZ:
		return "xz"
	case CompressionZSTD:
		return "zstd"
	default:
		return "none"
	}
}

var compressionExts = map[string]Compression{
	".gz":   CompressionGZ,
	".gzip": CompressionGZ,
	".bz2":  CompressionBZ2,
	".xz":   CompressionXZ,
	".zst":  CompressionZSTD,
	".zstd": CompressionZSTD,
}

// Compressions lists the formats decompressed transparently.
var Compressions = []Compression{CompressionGZ, CompressionBZ2, CompressionXZ, CompressionZSTD}

// Extensions returns the file extensions that select c, sorted.
func (c Compression) Extensions() []string {
	var exts []string
	for ext, cc := range compressionExts {
		if cc == c {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

func compressionFromName(name string) Compression {
	if c, ok := compressionExts[strings.ToLower(path.Ext(name))]; ok {
		return c
	}
	return CompressionNone
}

// decompress wraps rc with a decoder for c. The returned closer releases
// both the decoder and rc.
func decompress(rc io.ReadCloser, c Compression) (io.Reader, func() error, error) {
	switch c {
	case CompressionGZ:
		gz, err := gzip.NewReader(rc)
		if err != nil {
			_ = rc.Close()
			return nil, nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return gz, func() error {
			_ = gz.Close()
			return rc.Close()
		}, nil
	case CompressionBZ2:
		return bzip2.NewReader(rc), rc.Close, nil
	case CompressionXZ:
		xr, err := xz.NewReader(rc)
		if err != nil {
			_ = rc.Close()
			return nil, nil, fmt.Errorf("failed to open xz stream: %w", err)
		}
		return xr, rc.Close, nil
	case CompressionZSTD:
		dec, err := zstd.NewReader(rc)
		if err != nil {
			_ = rc.Close()
			return nil, nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		return dec, func() error {
			dec.Close()
			return rc.Close()
		}, nil
	default:
		return rc, rc.Close, nil
	}
}
