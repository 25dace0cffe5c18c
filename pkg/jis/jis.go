// Package jis decodes the text stored on the Japanese driver's-license chip.
//
// Text fields are JIS X 0208 (kanji/kana, two bytes per character) or
// JIS X 0201 Roman (one byte per character) without the leading escape
// sequence a full ISO-2022-JP stream would carry. Decode restores that
// escape for the requested Profile and runs the ISO-2022-JP decoder, so
// escapes embedded in the field (mixed-width punctuation) are honoured too.
package jis

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
)

// Profile selects the character set a field starts in.
type Profile int

const (
	// Wide is JIS X 0208: names, addresses and other free text.
	Wide Profile = iota
	// Narrow is JIS X 0201 Roman / ASCII: numbers and codes.
	Narrow
)

var escapes = map[Profile][]byte{
	Wide:   {0x1B, '$', 'B'},
	Narrow: {0x1B, '(', 'B'},
}

func (p Profile) String() string {
	switch p {
	case Wide:
		return "wide (JIS X 0208)"
	case Narrow:
		return "narrow (JIS X 0201)"
	default:
		return fmt.Sprintf("Profile(%d)", int(p))
	}
}

// DecodeError reports bytes that do not form valid text in the given profile.
// Raw holds the field as read; the message leaves it out because fields
// carry personal data.
type DecodeError struct {
	Profile Profile
	Raw     []byte
	Reason  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("jis: cannot decode %s field of %d bytes: %s", e.Profile, len(e.Raw), e.Reason)
}

// Decode converts a raw field to a string, starting in profile p.
func Decode(b []byte, p Profile) (string, error) {
	esc, ok := escapes[p]
	if !ok {
		return "", &DecodeError{Profile: p, Raw: b, Reason: "unknown profile"}
	}

	src := make([]byte, 0, len(esc)+len(b))
	src = append(src, esc...)
	src = append(src, b...)

	return decodeWith(japanese.ISO2022JP, src, b, p)
}

// DecodePlain decodes a field stored with a single-byte table and no escape
// sequences, such as the format version code in the common data file.
func DecodePlain(b []byte) (string, error) {
	return decodeWith(japanese.ShiftJIS, b, b, Narrow)
}

func decodeWith(enc encoding.Encoding, src, raw []byte, p Profile) (string, error) {
	out, err := enc.NewDecoder().Bytes(src)
	if err != nil {
		return "", &DecodeError{Profile: p, Raw: raw, Reason: err.Error()}
	}
	// The x/text decoders substitute U+FFFD instead of failing; JIS X 0208
	// has no such character, so its presence means malformed input.
	if i := bytes.IndexRune(out, utf8.RuneError); i >= 0 {
		return "", &DecodeError{Profile: p, Raw: raw, Reason: "invalid byte sequence"}
	}
	return string(out), nil
}
