package encoding_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clairehq/claire/internal/encoding"
)

func decode(t *testing.T, input []byte) string {
	t.Helper()

	r, err := encoding.NewUTF8Reader(bytes.NewReader(input))
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(got)
}

func TestNewUTF8Reader_UTF8Passthrough(t *testing.T) {
	input := "Date;Description;Amount\n2025-06-01;Café São Jorge;-12,50\n"
	assert.Equal(t, input, decode(t, []byte(input)))
}

func TestNewUTF8Reader_UTF8BOMStripped(t *testing.T) {
	content := "Date;Description;Amount\n"
	input := append([]byte{0xEF, 0xBB, 0xBF}, content...)
	assert.Equal(t, content, decode(t, input))
}

func TestNewUTF8Reader_Windows1252(t *testing.T) {
	// "Virement reçu\n" in Windows-1252: ç = 0xE7.
	input := []byte{'V', 'i', 'r', 'e', 'm', 'e', 'n', 't', ' ', 'r', 'e', 0xE7, 'u', '\n'}
	assert.Equal(t, "Virement reçu\n", decode(t, input))
}

func TestNewUTF8Reader_UTF16LE(t *testing.T) {
	content := "Date,Amount\n"
	input := []byte{0xFF, 0xFE}

	for _, r := range content {
		input = append(input, byte(r), 0x00)
	}

	assert.Equal(t, content, decode(t, input))
}
