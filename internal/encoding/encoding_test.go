package encoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToUTF8_PassthroughASCII(t *testing.T) {
	in := []byte("date,description,amount\n2024-01-01,Coffee,-4.50\n")
	out, err := ToUTF8(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestToUTF8_StripsUTF8BOM(t *testing.T) {
	in := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Date,Amount")...)
	out, err := ToUTF8(in)
	require.NoError(t, err)
	assert.Equal(t, []byte("Date,Amount"), out)
}

func TestToUTF8_UTF16LE(t *testing.T) {
	// "Café" as UTF-16 LE with BOM.
	in := []byte{0xFF, 0xFE, 'C', 0x00, 'a', 0x00, 'f', 0x00, 0xE9, 0x00}
	out, err := ToUTF8(in)
	require.NoError(t, err)
	assert.Equal(t, "Café", string(out))
}

func TestToUTF8_UTF16BE(t *testing.T) {
	in := []byte{0xFE, 0xFF, 0x00, 'C', 0x00, 'a', 0x00, 'f', 0x00, 0xE9}
	out, err := ToUTF8(in)
	require.NoError(t, err)
	assert.Equal(t, "Café", string(out))
}

func TestToUTF8_Windows1252Fallback(t *testing.T) {
	// 0xE9 is é in Windows-1252 and invalid as a standalone UTF-8 byte.
	in := []byte("Caf\xe9 R\xe9sidence")
	out, err := ToUTF8(in)
	require.NoError(t, err)
	assert.Equal(t, "Café Résidence", string(out))
}

func TestToUTF8_ValidUTF8Untouched(t *testing.T) {
	in := []byte("Überweisung — Miete")
	out, err := ToUTF8(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
