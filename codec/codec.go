// Package codec handles character-encoding conversion for container text.
//
// Container-resident text is stored in the container's own encoding
// (historically CP932); tool inputs are UTF-8. Everything that crosses
// that boundary goes through this package.
package codec

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// Fixed tool conventions: inputs are authored in UTF-8, legacy
// containers carry CP932 text.
const (
	DefaultInputEncoding     = "UTF-8"
	DefaultContainerEncoding = "CP932"
)

// ErrUnknownEncoding is returned when an encoding name cannot be resolved.
var ErrUnknownEncoding = errors.New("unknown encoding")

// aliases maps normalized encoding names that the IANA index does not
// resolve (or resolves differently than this tool requires) onto their
// encodings. CP932 text in the wild is Shift JIS for our purposes.
var aliases = map[string]encoding.Encoding{
	"cp932":       japanese.ShiftJIS,
	"ms932":       japanese.ShiftJIS,
	"windows-31j": japanese.ShiftJIS,
	"sjis":        japanese.ShiftJIS,
	"shift-jis":   japanese.ShiftJIS,
	"shift_jis":   japanese.ShiftJIS,
	"utf-8":       unicode.UTF8,
	"utf8":        unicode.UTF8,
}

// Lookup resolves an encoding name, case-insensitively. Tool-specific
// aliases are checked first, then the IANA registry.
func Lookup(name string) (encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if enc, ok := aliases[key]; ok {
		return enc, nil
	}
	enc, err := ianaindex.IANA.Encoding(key)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// Converter converts text between two named encodings.
type Converter struct {
	from     encoding.Encoding
	to       encoding.Encoding
	identity bool
}

// NewConverter builds a converter from src to dst. Both names must
// resolve via Lookup.
func NewConverter(src, dst string) (*Converter, error) {
	from, err := Lookup(src)
	if err != nil {
		return nil, err
	}
	to, err := Lookup(dst)
	if err != nil {
		return nil, err
	}
	return &Converter{from: from, to: to, identity: from == to}, nil
}

// Convert re-encodes s from the source to the target encoding.
// Characters with no representation in the target encoding are
// substituted with the target's replacement character rather than
// failing, so conversion never fails on text content; an error here
// means the source bytes were not valid in the source encoding.
func (c *Converter) Convert(s string) (string, error) {
	if c.identity || s == "" {
		return s, nil
	}
	decoded, err := c.from.NewDecoder().String(s)
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	out, err := encoding.ReplaceUnsupported(c.to.NewEncoder()).String(decoded)
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	return out, nil
}

// Decoder returns a function decoding text from the named encoding to
// UTF-8. Used for reading container-resident names.
func Decoder(name string) (func(string) (string, error), error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return func(s string) (string, error) {
		return enc.NewDecoder().String(s)
	}, nil
}

// Encoder returns a function encoding UTF-8 text into the named
// encoding, substituting unmappable characters. Used for storing tool
// input text into the container.
func Encoder(name string) (func(string) (string, error), error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return func(s string) (string, error) {
		return encoding.ReplaceUnsupported(enc.NewEncoder()).String(s)
	}, nil
}
