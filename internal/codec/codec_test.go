package codec

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// altEncode produces a GUID in the relay's alternate alphabet.
func altEncode(b []byte) string {
	std := base64.StdEncoding.EncodeToString(b)
	std = strings.TrimRight(std, "=")

	var out strings.Builder
	for _, ch := range std {
		idx := strings.IndexRune(base64Std, ch)
		out.WriteByte(base64Alt[idx])
	}

	return out.String()
}

func TestDecodeOpaqueID(t *testing.T) {
	cases := [][]byte{
		{0x00},
		{0xde, 0xad, 0xbe, 0xef},
		{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		[]byte("raknet-guid"),
	}

	for _, want := range cases {
		got, err := DecodeOpaqueID(altEncode(want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestDecodeOpaqueIDMatchesStandardDecode(t *testing.T) {
	raw := []byte{0x7f, 0x00, 0x42, 0x99, 0x10, 0xab}
	alt := altEncode(raw)

	std := base64.StdEncoding.EncodeToString(raw)
	want, err := base64.StdEncoding.DecodeString(std)
	require.NoError(t, err)

	got, err := DecodeOpaqueID(alt)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeOpaqueIDGarbage(t *testing.T) {
	_, err := DecodeOpaqueID("!!!not base64 at all!!!")
	assert.Error(t, err)
}

func TestDecodeFixedText(t *testing.T) {
	// Fixed-width buffer: name, NUL terminator, then garbage bytes
	buf := append([]byte("Vet Strat 1v1"), 0x00, 0xff, 0xfe, 0x41)
	enc := base64.StdEncoding.EncodeToString(buf)

	assert.Equal(t, "Vet Strat 1v1", DecodeFixedText(enc))
}

func TestDecodeFixedTextWindows1252(t *testing.T) {
	// 0xE9 is é in Windows-1252
	buf := append([]byte("Caf"), 0xe9, 0x00)
	enc := base64.StdEncoding.EncodeToString(buf)

	assert.Equal(t, "Café", DecodeFixedText(enc))
}

func TestDecodeFixedTextURLSafeAndNoise(t *testing.T) {
	buf := append([]byte("A/B+C"), 0x00)
	enc := base64.URLEncoding.EncodeToString(buf)
	noisy := " " + enc[:3] + "\n" + enc[3:] + "\t"

	assert.Equal(t, "A/B+C", DecodeFixedText(noisy))
}

func TestDecodeFixedTextProperties(t *testing.T) {
	inputs := []string{
		"  Host Game  ",
		"\x01control\x02chars\x03",
		"plain",
	}

	for _, in := range inputs {
		padded := append([]byte(in), 0x00, 0x00, 0x00)
		got := DecodeFixedText(base64.StdEncoding.EncodeToString(padded))

		assert.Equal(t, strings.TrimSpace(got), got)
		for _, r := range got {
			assert.True(t, r == ' ' || (r > 0x1f && r != 0x7f), "non-printable rune %q in %q", r, got)
		}
		assert.NotContains(t, got, "\x00")
	}
}

func TestDecodeFixedTextTotalFailure(t *testing.T) {
	assert.Equal(t, "", DecodeFixedText(""))
	assert.Equal(t, "", DecodeFixedText("!!!"))
}
