package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	internalencoding "github.com/pocketledger/pocketledger/internal/encoding"
)

// delimiterCandidates in priority order; ties go to the earlier candidate.
var delimiterCandidates = []rune{';', '\t', ',', '|'}

func readCSV(data []byte) ([][]string, error) {
	decoded, err := internalencoding.ToUTF8(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFormat, err)
	}

	text := strings.ReplaceAll(string(decoded), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = detectDelimiter(text)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var matrix [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableFormat, err)
		}
		matrix = append(matrix, record)
	}
	return matrix, nil
}

// detectDelimiter counts candidate delimiters on the first non-empty line
// and picks the most frequent, defaulting to comma.
func detectDelimiter(text string) rune {
	line := firstNonEmptyLine(text)
	best, bestCount := ',', 0
	for _, d := range delimiterCandidates {
		if count := strings.Count(line, string(d)); count > bestCount {
			best, bestCount = d, count
		}
	}
	return best
}

func firstNonEmptyLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}
