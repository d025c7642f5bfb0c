package tabular

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

type fileFormat int

const (
	formatUnknown fileFormat = iota
	formatCSV
	formatXLSX
	formatXLS
)

var (
	zipMagic  = []byte{0x50, 0x4B, 0x03, 0x04}
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// sniff classifies the content from its leading bytes and cross-checks the
// verdict against the file extension. A mismatch (say a .xlsx that is not a
// ZIP container) fails rather than mis-parsing bytes as the wrong format.
func sniff(filename string, data []byte) (fileFormat, error) {
	format := classify(data)
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".xlsx":
		if format != formatXLSX {
			return formatUnknown, fmt.Errorf("%w: %q does not contain an xlsx workbook", ErrUnreadableFormat, filepath.Base(filename))
		}
	case ".xls":
		if format != formatXLS && format != formatXLSX {
			return formatUnknown, fmt.Errorf("%w: %q does not contain an Excel workbook", ErrUnreadableFormat, filepath.Base(filename))
		}
	case ".csv", ".tsv", ".txt", "":
		if format != formatCSV {
			return formatUnknown, fmt.Errorf("%w: %q does not contain text", ErrUnreadableFormat, filepath.Base(filename))
		}
	default:
		// Unrecognized extension: trust the content sniff alone.
	}

	if format == formatUnknown {
		return formatUnknown, ErrUnreadableFormat
	}
	return format, nil
}

func classify(data []byte) fileFormat {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return formatXLSX
	case bytes.HasPrefix(data, ole2Magic):
		return formatXLS
	case looksLikeText(data):
		return formatCSV
	default:
		return formatUnknown
	}
}

// looksLikeText samples the head of the file and checks the printable
// ratio. UTF-16 BOMs short-circuit since their NUL bytes would otherwise
// drag the ratio down.
func looksLikeText(data []byte) bool {
	if bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		return true
	}

	sample := data
	if len(sample) > 512 {
		sample = sample[:512]
	}
	printable := 0
	for _, b := range sample {
		if b >= 0x20 || b == '\t' || b == '\n' || b == '\r' {
			printable++
		}
	}
	return float64(printable)/float64(len(sample)) >= 0.85
}
