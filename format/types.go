package format

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/arloliu/sensorpipe/errs"
)

type (
	Format          uint8
	CompressionType uint8
)

const (
	Auto Format = 0x0 // Auto selects the format from the source name.
	JSON Format = 0x1 // JSON represents one object or array of objects per line.
	CSV  Format = 0x2 // CSV represents a header row followed by RFC4180 data rows.

	CompressionAuto CompressionType = 0x0 // CompressionAuto selects compression from the file suffix.
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
	CompressionGzip CompressionType = 0x5 // CompressionGzip represents gzip compression.
)

var compressionSuffixes = map[string]CompressionType{
	".zst":  CompressionZstd,
	".zstd": CompressionZstd,
	".s2":   CompressionS2,
	".lz4":  CompressionLZ4,
	".gz":   CompressionGzip,
}

func (f Format) String() string {
	switch f {
	case Auto:
		return "Auto"
	case JSON:
		return "JSON"
	case CSV:
		return "CSV"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionAuto:
		return "Auto"
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionGzip:
		return "Gzip"
	default:
		return "Unknown"
	}
}

// ParseFormat converts a configuration string ("", "auto", "json", "csv") to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "json", "ndjson", "jsonl":
		return JSON, nil
	case "csv":
		return CSV, nil
	default:
		return Auto, fmt.Errorf("%w: %q", errs.ErrUnknownFormat, s)
	}
}

// ParseCompression converts a configuration string to a CompressionType.
func ParseCompression(s string) (CompressionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return CompressionAuto, nil
	case "none", "off":
		return CompressionNone, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	case "lz4":
		return CompressionLZ4, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	default:
		return CompressionAuto, fmt.Errorf("%w: %q", errs.ErrUnknownCompression, s)
	}
}

// DetectCompression returns the compression implied by the file name suffix,
// or CompressionNone when the suffix is not a known compression extension.
func DetectCompression(path string) CompressionType {
	if c, ok := compressionSuffixes[strings.ToLower(filepath.Ext(path))]; ok {
		return c
	}

	return CompressionNone
}

// DetectFormat returns CSV when the file extension is ".csv" and JSON otherwise.
//
// A compression suffix is stripped first, so "readings.csv.zst" is detected as CSV.
func DetectFormat(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := compressionSuffixes[ext]; ok {
		ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(path, filepath.Ext(path))))
	}
	if ext == ".csv" {
		return CSV
	}

	return JSON
}
