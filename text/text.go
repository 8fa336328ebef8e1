// Package text merges string and message table replacements into an
// image. Files hold one entry per line:
//
//	; comment
//	s[0] = "replacement string"
//	m[12] = "message text"
//
// An index inside the table replaces that entry; an index equal to the
// table length appends.
package text

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ainkit/ainkit/ain"
)

// ErrBadText tags all text-file errors.
var ErrBadText = errors.New("bad text file")

// Merger applies text files to an image. Encode converts UTF-8 file
// text into the container encoding; nil means identity.
type Merger struct {
	Encode func(string) (string, error)
}

// Merge reads the text file at path and applies it to img.
func (m *Merger) Merge(path string, img *ain.Image) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadText, err)
	}
	return m.MergeBytes(data, path, img)
}

// MergeBytes applies one text document to img. name is used in
// diagnostics only.
func (m *Merger) MergeBytes(data []byte, name string, img *ain.Image) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(nil, 1<<20)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == ';' {
			continue
		}
		table, index, value, err := parseLine(line)
		if err != nil {
			return fmt.Errorf("%w: %s:%d: %v", ErrBadText, name, lineno, err)
		}
		if m.Encode != nil {
			if value, err = m.Encode(value); err != nil {
				return fmt.Errorf("%w: %s:%d: encode: %v", ErrBadText, name, lineno, err)
			}
		}
		if table == 's' {
			err = img.SetString(index, value)
		} else {
			err = img.SetMessage(index, value)
		}
		if err != nil {
			return fmt.Errorf("%w: %s:%d: %v", ErrBadText, name, lineno, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadText, name, err)
	}
	return nil
}

// parseLine splits `s[N] = "..."` into its parts. line has already
// been trimmed and is known to be non-empty.
func parseLine(line string) (table byte, index int, value string, err error) {
	table = line[0]
	if table != 's' && table != 'm' {
		return 0, 0, "", fmt.Errorf("expected s[...] or m[...], got %q", line)
	}
	rest := line[1:]
	if len(rest) == 0 || rest[0] != '[' {
		return 0, 0, "", fmt.Errorf("expected [ after %q", string(table))
	}
	close := strings.IndexByte(rest, ']')
	if close < 0 {
		return 0, 0, "", errors.New("missing ]")
	}
	index, err = strconv.Atoi(rest[1:close])
	if err != nil || index < 0 {
		return 0, 0, "", fmt.Errorf("bad index %q", rest[1:close])
	}
	rest = strings.TrimSpace(rest[close+1:])
	if len(rest) == 0 || rest[0] != '=' {
		return 0, 0, "", errors.New("expected = after index")
	}
	rest = strings.TrimSpace(rest[1:])
	value, tail, err := unquote(rest)
	if err != nil {
		return 0, 0, "", err
	}
	tail = strings.TrimSpace(tail)
	if tail != "" && tail[0] != ';' {
		return 0, 0, "", fmt.Errorf("trailing %q after string", tail)
	}
	return table, index, value, nil
}

// unquote decodes one leading double-quoted string and returns the
// remainder of the line. Escapes: \n \t \r \" \\ \xNN.
func unquote(s string) (string, string, error) {
	if len(s) == 0 || s[0] != '"' {
		return "", "", errors.New("expected a quoted string")
	}
	var out strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		switch c {
		case '"':
			return out.String(), s[i+1:], nil
		case '\\':
			if i+1 >= len(s) {
				return "", "", errors.New("unterminated escape")
			}
			i++
			switch s[i] {
			case 'n':
				out.WriteByte('\n')
			case 't':
				out.WriteByte('\t')
			case 'r':
				out.WriteByte('\r')
			case '"':
				out.WriteByte('"')
			case '\\':
				out.WriteByte('\\')
			case 'x':
				if i+2 >= len(s) {
					return "", "", errors.New("truncated \\x escape")
				}
				b, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
				if err != nil {
					return "", "", fmt.Errorf("bad \\x escape %q", s[i+1:i+3])
				}
				out.WriteByte(byte(b))
				i += 2
			default:
				return "", "", fmt.Errorf("unknown escape \\%c", s[i])
			}
		default:
			out.WriteByte(c)
		}
		i++
	}
	return "", "", errors.New("unterminated string")
}
