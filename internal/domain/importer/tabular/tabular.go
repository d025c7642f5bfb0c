// Package tabular turns an uploaded statement file (CSV, TSV or XLSX) into
// a uniform header-and-rows matrix. It sniffs the real content format,
// decodes charsets, detects the delimiter, and guesses whether the first
// row is a header.
package tabular

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pocketledger/pocketledger/internal/domain/importer/dates"
)

// MaxFileSize is the upload cap enforced before any parsing.
const MaxFileSize = 10 << 20

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrFileTooLarge     = errors.New("file exceeds the 10 MB import limit")
	ErrUnreadableFormat = errors.New("unreadable file format")
	ErrNoColumns        = errors.New("no columns detected")
)

// HeaderSource records how the header verdict was reached. Auto-matching of
// saved mappings only trusts auto-detected headers.
type HeaderSource string

const (
	HeaderSourceAuto   HeaderSource = "auto"
	HeaderSourceManual HeaderSource = "manual"
)

// ParsedFile is the uniform matrix produced from an upload. Headers are
// unique by position, not necessarily by text. The raw matrix is retained
// so a header-verdict override can re-derive headers and rows without
// re-parsing the file.
type ParsedFile struct {
	Headers           []string
	Rows              [][]string
	HasHeader         bool
	DetectedHasHeader bool
	HeaderSource      HeaderSource

	matrix [][]string
}

// Parse validates, sniffs and parses an uploaded file. filename is used
// only for the extension cross-check.
func Parse(filename string, data []byte) (*ParsedFile, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if len(data) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	format, err := sniff(filename, data)
	if err != nil {
		return nil, err
	}

	var matrix [][]string
	switch format {
	case formatCSV:
		matrix, err = readCSV(data)
	case formatXLSX:
		matrix, err = readXLSX(data)
	case formatXLS:
		err = fmt.Errorf("%w: legacy .xls workbooks are not supported, re-export as .xlsx or .csv", ErrUnreadableFormat)
	default:
		err = ErrUnreadableFormat
	}
	if err != nil {
		return nil, err
	}

	matrix = squareOff(matrix)
	if len(matrix) == 0 || len(matrix[0]) == 0 {
		return nil, ErrNoColumns
	}

	hasHeader := detectHeaderRow(matrix)
	f := &ParsedFile{
		HasHeader:         hasHeader,
		DetectedHasHeader: hasHeader,
		HeaderSource:      HeaderSourceAuto,
		matrix:            matrix,
	}
	f.Headers, f.Rows = derive(matrix, hasHeader)
	return f, nil
}

// WithHasHeader returns a copy with the header verdict overridden, headers
// and rows re-derived from the retained matrix. The receiver is unchanged.
func (f *ParsedFile) WithHasHeader(hasHeader bool) *ParsedFile {
	out := &ParsedFile{
		HasHeader:         hasHeader,
		DetectedHasHeader: f.DetectedHasHeader,
		HeaderSource:      HeaderSourceManual,
		matrix:            f.matrix,
	}
	out.Headers, out.Rows = derive(f.matrix, hasHeader)
	return out
}

func derive(matrix [][]string, hasHeader bool) (headers []string, rows [][]string) {
	if hasHeader {
		return matrix[0], matrix[1:]
	}
	return generatedHeaders(len(matrix[0])), matrix
}

// generatedHeaders produces placeholder names "Column A", "Column B", ...
// continuing with "Column AA" past the alphabet, spreadsheet style.
func generatedHeaders(n int) []string {
	headers := make([]string, n)
	for i := range headers {
		headers[i] = "Column " + columnLetters(i)
	}
	return headers
}

func columnLetters(i int) string {
	var b []byte
	for i >= 0 {
		b = append([]byte{byte('A' + i%26)}, b...)
		i = i/26 - 1
	}
	return string(b)
}

// squareOff pads or truncates every row to the width of the widest row and
// drops rows that are entirely empty.
func squareOff(matrix [][]string) [][]string {
	width := 0
	for _, row := range matrix {
		if len(row) > width {
			width = len(row)
		}
	}

	out := make([][]string, 0, len(matrix))
	for _, row := range matrix {
		if allEmpty(row) {
			continue
		}
		uniform := make([]string, width)
		copy(uniform, row)
		out = append(out, uniform)
	}
	return out
}

func allEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// headerVocabulary are column names commonly seen in bank exports. A single
// hit in row 0 settles the header question.
var headerVocabulary = []string{
	"date", "amount", "description", "memo", "payee", "merchant", "account",
	"category", "debit", "credit", "type", "currency", "balance", "value",
}

// detectHeaderRow guesses whether row 0 is a header. Keyword hits decide
// immediately; otherwise row 0 and row 1 are compared on how many of their
// cells parse as a date or a number, and the more data-like row 0 looks,
// the less likely it is a header. Ambiguity resolves to "has header"; the
// verdict stays user-overridable either way.
func detectHeaderRow(matrix [][]string) bool {
	row0 := matrix[0]
	for _, cell := range row0 {
		lowered := strings.ToLower(cell)
		for _, kw := range headerVocabulary {
			if strings.Contains(lowered, kw) {
				return true
			}
		}
	}

	var row1 []string
	if len(matrix) > 1 {
		row1 = matrix[1]
	}
	d0, d1 := dataLikeness(row0), dataLikeness(row1)
	if d0 > d1 {
		return false
	}
	if d0 == 0 && d1 > 0 {
		return false
	}
	return true
}

// dataLikeness counts cells that parse as a number or a date.
func dataLikeness(row []string) int {
	n := 0
	for _, cell := range row {
		s := strings.TrimSpace(cell)
		if s == "" {
			continue
		}
		if _, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
			n++
			continue
		}
		if _, ok := dates.ParseLoose(s); ok {
			n++
		}
	}
	return n
}
