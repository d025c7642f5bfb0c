package tabular

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParse_CSVWithHeader(t *testing.T) {
	data := []byte("Date,Description,Amount\n2023-10-01,Coffee,-4.50\n2023-10-05,Lunch,-12.50\n")

	f, err := Parse("statement.csv", data)
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Description", "Amount"}, f.Headers)
	require.Len(t, f.Rows, 2)
	assert.Equal(t, []string{"2023-10-01", "Coffee", "-4.50"}, f.Rows[0])
	assert.True(t, f.HasHeader)
	assert.True(t, f.DetectedHasHeader)
	assert.Equal(t, HeaderSourceAuto, f.HeaderSource)
}

func TestParse_SizeLimits(t *testing.T) {
	_, err := Parse("empty.csv", nil)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = Parse("huge.csv", make([]byte, MaxFileSize+1))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestParse_ExtensionContentMismatch(t *testing.T) {
	// Plain text claiming to be a workbook must not be mis-parsed.
	_, err := Parse("statement.xlsx", []byte("Date,Amount\n2023-10-01,5\n"))
	assert.ErrorIs(t, err, ErrUnreadableFormat)

	// ZIP bytes claiming to be CSV.
	zip := append([]byte{0x50, 0x4B, 0x03, 0x04}, make([]byte, 64)...)
	_, err = Parse("statement.csv", zip)
	assert.ErrorIs(t, err, ErrUnreadableFormat)
}

func TestParse_BinaryGarbage(t *testing.T) {
	garbage := bytes.Repeat([]byte{0x00, 0x01, 0x02, 0x9f}, 64)
	_, err := Parse("dump.bin", garbage)
	assert.ErrorIs(t, err, ErrUnreadableFormat)
}

func TestParse_LegacyXLSRejected(t *testing.T) {
	ole2 := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 128)...)
	_, err := Parse("statement.xls", ole2)
	require.ErrorIs(t, err, ErrUnreadableFormat)
	assert.Contains(t, err.Error(), "re-export")
}

func TestParse_SemicolonDelimiter(t *testing.T) {
	data := []byte("Date;Description;Amount\n2023-10-01;Coffee;-4,50\n")

	f, err := Parse("export.csv", data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Description", "Amount"}, f.Headers)
	assert.Equal(t, []string{"2023-10-01", "Coffee", "-4,50"}, f.Rows[0])
}

func TestParse_TabDelimiter(t *testing.T) {
	data := []byte("Date\tDescription\tAmount\n2023-10-01\tCoffee\t-4.50\n")

	f, err := Parse("export.tsv", data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Description", "Amount"}, f.Headers)
}

func TestParse_QuotingBOMAndBlankLines(t *testing.T) {
	data := []byte("\xEF\xBB\xBFDate,Description,Amount\r\n" +
		"2023-10-01,\"Store \"\"North\"\", main st\",-4.50\r\n" +
		"\r\n" +
		"2023-10-05,Lunch,-12.50\r\n")

	f, err := Parse("statement.csv", data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Description", "Amount"}, f.Headers)
	require.Len(t, f.Rows, 2)
	assert.Equal(t, `Store "North", main st`, f.Rows[0][1])
}

func TestParse_RaggedRowsSquaredOff(t *testing.T) {
	data := []byte("Date,Description,Amount\n2023-10-01,Coffee\n2023-10-05,Lunch,-12.50,extra\n")

	f, err := Parse("statement.csv", data)
	require.NoError(t, err)
	// Widest row wins; everything is padded to 4 columns.
	require.Len(t, f.Headers, 4)
	assert.Equal(t, []string{"2023-10-01", "Coffee", "", ""}, f.Rows[0])
	assert.Equal(t, []string{"2023-10-05", "Lunch", "-12.50", "extra"}, f.Rows[1])
}

func TestParse_HeadersWithoutKeywordsButTextual(t *testing.T) {
	// No vocabulary hit; row 0 is all text, row 1 is data-like. The
	// comparison classifies row 0 as data and placeholders are generated.
	data := []byte("Quando,Cosa,Quanto\n2023-10-01,Coffee,-4.50\n")

	f, err := Parse("statement.csv", data)
	require.NoError(t, err)
	assert.False(t, f.HasHeader)
	assert.Equal(t, []string{"Column A", "Column B", "Column C"}, f.Headers)
	require.Len(t, f.Rows, 2)
}

func TestParse_NoHeaderDetectedForDataRow(t *testing.T) {
	// Row 0 is more data-like than row 1 (which has a blank amount), so
	// it is classified as data.
	data := []byte("2023-10-01,Coffee,-4.50\n2023-10-05,Lunch,\n")

	f, err := Parse("statement.csv", data)
	require.NoError(t, err)
	assert.False(t, f.HasHeader)
	assert.False(t, f.DetectedHasHeader)
	assert.Equal(t, []string{"Column A", "Column B", "Column C"}, f.Headers)
	require.Len(t, f.Rows, 2)
}

func TestParse_SingleDataRowHasNoHeader(t *testing.T) {
	f, err := Parse("statement.csv", []byte("2023-10-01,Coffee,-4.50\n"))
	require.NoError(t, err)
	assert.False(t, f.HasHeader)
	require.Len(t, f.Rows, 1)
}

func TestParse_EquallyDataLikeRowsDefaultToHeader(t *testing.T) {
	// Ambiguous shape; the bias is "has header" and the user can toggle.
	data := []byte("2023-10-01,Coffee,-4.50\n2023-10-05,Lunch,-12.50\n")

	f, err := Parse("statement.csv", data)
	require.NoError(t, err)
	assert.True(t, f.HasHeader)
}

func TestWithHasHeader_Override(t *testing.T) {
	data := []byte("2023-10-01,Coffee,-4.50\n2023-10-05,Lunch,\n")

	f, err := Parse("statement.csv", data)
	require.NoError(t, err)
	require.False(t, f.HasHeader)

	forced := f.WithHasHeader(true)
	assert.Equal(t, []string{"2023-10-01", "Coffee", "-4.50"}, forced.Headers)
	require.Len(t, forced.Rows, 1)
	assert.Equal(t, HeaderSourceManual, forced.HeaderSource)
	assert.False(t, forced.DetectedHasHeader)

	// The original is untouched and the override round-trips.
	assert.False(t, f.HasHeader)
	back := forced.WithHasHeader(false)
	assert.Equal(t, []string{"Column A", "Column B", "Column C"}, back.Headers)
	require.Len(t, back.Rows, 2)
}

func TestParse_XLSX(t *testing.T) {
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &[]interface{}{"Date", "Description", "Amount"}))
	require.NoError(t, wb.SetSheetRow(sheet, "A2", &[]interface{}{"2023-10-01", "Coffee", "-4.50"}))

	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	f, err := Parse("statement.xlsx", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Description", "Amount"}, f.Headers)
	require.Len(t, f.Rows, 1)
	assert.True(t, f.HasHeader)
}

func TestParse_Windows1252CSV(t *testing.T) {
	data := []byte("Date,Description,Amount\n2023-10-01,Caf\xe9,-4.50\n")

	f, err := Parse("statement.csv", data)
	require.NoError(t, err)
	assert.Equal(t, "Café", f.Rows[0][1])
}

func TestColumnLetters(t *testing.T) {
	assert.Equal(t, "A", columnLetters(0))
	assert.Equal(t, "Z", columnLetters(25))
	assert.Equal(t, "AA", columnLetters(26))
	assert.Equal(t, "AB", columnLetters(27))
}

func TestParse_OnlyBlankLines(t *testing.T) {
	_, err := Parse("statement.csv", []byte("\n\n  \n"))
	assert.ErrorIs(t, err, ErrNoColumns)
}

func TestDetectDelimiter_DefaultsToComma(t *testing.T) {
	assert.Equal(t, ',', detectDelimiter("singlecolumn\nvalue\n"))
	assert.Equal(t, ';', detectDelimiter("a;b;c\n"))
	assert.Equal(t, '|', detectDelimiter("a|b|c|d\n"))
	assert.Equal(t, ',', detectDelimiter(strings.Repeat("x", 3)))
}
