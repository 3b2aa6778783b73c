// Package codec decodes the two micro-formats used by the RakNet-style lobby
// relay: an alternate-alphabet base64 used for opaque 64-bit identifiers, and
// base64-wrapped fixed-width NUL-padded Windows-1252 text fields.
//
// All functions are pure and side-effect free. Decode failures degrade to raw
// or empty values at the call site; nothing here panics on garbage input.
package codec

import (
	"bytes"
	"encoding/base64"
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
)

// The relay encodes GUIDs with a shifted alphabet: `@123456789` stands in for
// `A..J` in the high positions and `-_` replaces `+/`.
const (
	base64Std = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	base64Alt = "@123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"
)

var altToStd = func() map[rune]rune {
	m := make(map[rune]rune, len(base64Alt))
	for i, ch := range base64Alt {
		m[ch] = rune(base64Std[i])
	}
	return m
}()

// DecodeOpaqueID decodes a relay GUID written in the alternate base64
// alphabet and returns its raw bytes. Characters outside the alternate
// alphabet pass through untranslated, matching the relay's own behaviour.
// The caller is expected to fall back to the raw string on error.
func DecodeOpaqueID(s string) ([]byte, error) {
	var b strings.Builder
	b.Grow(len(s) + 3)
	for _, ch := range s {
		if std, ok := altToStd[ch]; ok {
			b.WriteRune(std)
		} else {
			b.WriteRune(ch)
		}
	}

	return base64.StdEncoding.DecodeString(pad4(b.String()))
}

// DecodeFixedText decodes a base64-wrapped, fixed-width, NUL-padded text
// field (session titles, player names). The decoded buffer is Windows-1252;
// everything after the first NUL is buffer garbage and is dropped. Returns
// an empty string on total failure — callers treat empty as "no name".
func DecodeFixedText(s string) string {
	cleaned := sanitizeBase64(s)
	if cleaned == "" {
		return ""
	}

	raw := lenientDecode(pad4(cleaned))
	if len(raw) == 0 {
		return ""
	}

	// Truncate at the NUL terminator of the fixed-size buffer
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		decoded = raw
	}

	out := strings.Map(func(r rune) rune {
		if r != ' ' && !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, string(decoded))

	return strings.TrimSpace(out)
}

// sanitizeBase64 strips everything outside the base64 alphabet and
// normalizes URL-safe characters to standard.
func sanitizeBase64(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		switch {
		case ch >= 'A' && ch <= 'Z', ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9', ch == '+', ch == '/':
			b.WriteRune(ch)
		case ch == '-':
			b.WriteByte('+')
		case ch == '_':
			b.WriteByte('/')
		}
	}

	return b.String()
}

// lenientDecode base64-decodes as much of the input as possible, keeping the
// bytes produced before any corrupt sequence instead of failing outright.
func lenientDecode(s string) []byte {
	out, err := io.ReadAll(base64.NewDecoder(base64.StdEncoding, strings.NewReader(s)))
	if err != nil && len(out) == 0 {
		return nil
	}

	return out
}

// pad4 right-pads with '=' to a multiple of 4 characters.
func pad4(s string) string {
	if rem := len(s) % 4; rem != 0 {
		return s + strings.Repeat("=", 4-rem)
	}

	return s
}
