// Package encoding normalizes uploaded statement bytes to UTF-8. Bank
// exports arrive in whatever charset the bank's core system speaks, so the
// CSV tokenizer never sees raw bytes directly.
package encoding

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	textencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// ToUTF8 decodes data to UTF-8.
//
// Detection order:
//  1. BOM (UTF-8 BOM stripped, UTF-16 LE/BE decoded)
//  2. content already valid UTF-8 is returned as-is
//  3. chardet heuristic for the common single-byte charsets
//  4. Windows-1252 fallback
func ToUTF8(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], nil
	case bytes.HasPrefix(data, bomUTF16LE):
		return decode(data, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM))
	case bytes.HasPrefix(data, bomUTF16BE):
		return decode(data, unicode.UTF16(unicode.BigEndian, unicode.UseBOM))
	}

	if utf8.Valid(data) {
		return data, nil
	}

	detector := chardet.NewTextDetector()
	if result, err := detector.DetectBest(data); err == nil {
		switch result.Charset {
		case "UTF-8":
			return data, nil
		case "ISO-8859-1", "windows-1252":
			return decode(data, charmap.Windows1252)
		case "ISO-8859-9":
			return decode(data, charmap.ISO8859_9)
		case "ISO-8859-15":
			return decode(data, charmap.ISO8859_15)
		}
	}

	return decode(data, charmap.Windows1252)
}

func decode(data []byte, enc textencoding.Encoding) ([]byte, error) {
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("decode to utf-8: %w", err)
	}
	return out, nil
}
