package jsondoc

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Reactor receives structural parse events from the tokenizer in
// document order. No callback is re-entered before it returns; a
// non-nil error aborts the scan immediately.
//
// Container values are announced through DictionaryItem/ArrayItem as
// shells (kind and start offset) before their contents, followed by
// DictionaryStart or ArrayStart, the nested events, and ContainerEnd
// carrying the full byte span.
type Reactor interface {
	DictionaryStart() error
	ArrayStart() error
	ContainerEnd(v Value) error
	DictionaryItem(key string, v Value) error
	ArrayItem(v Value) error
	TopLevelScalar() error
}

// scanner is a recursive descent tokenizer for the JSON input. It
// tracks byte offsets so that values can report positions and so that
// stream payloads can later be decoded from raw input ranges.
type scanner struct {
	data []byte
	pos  int
	r    Reactor
}

// scan tokenizes data and pushes events into r. Syntax errors and
// errors returned by r abort the scan.
func scan(data []byte, r Reactor) error {
	s := &scanner{data: data, r: r}
	s.skipWhitespace()
	if s.pos >= len(s.data) {
		return fmt.Errorf("jsondoc: empty input")
	}
	if err := s.scanValue(nil); err != nil {
		return err
	}
	s.skipWhitespace()
	if s.pos < len(s.data) {
		return fmt.Errorf("jsondoc: trailing data at offset %d", s.pos)
	}
	return nil
}

// skipWhitespace advances past JSON whitespace.
func (s *scanner) skipWhitespace() {
	for s.pos < len(s.data) {
		switch s.data[s.pos] {
		case ' ', '\t', '\n', '\r':
			s.pos++
		default:
			return
		}
	}
}

// scanValue parses one value. For scalars, emit (if non-nil) receives
// the complete value; a nil emit marks the document root, where a
// scalar is a structural error. For containers, emit receives the
// shell before the open event.
func (s *scanner) scanValue(emit func(Value) error) error {
	s.skipWhitespace()
	if s.pos >= len(s.data) {
		return fmt.Errorf("jsondoc: unexpected end of input at offset %d", s.pos)
	}

	start := int64(s.pos)
	b := s.data[s.pos]

	switch {
	case b == '{':
		return s.scanDict(emit, start)
	case b == '[':
		return s.scanArray(emit, start)
	case b == '"':
		str, err := s.scanString()
		if err != nil {
			return err
		}
		v := Value{Kind: KindString, Str: str, Start: start, End: int64(s.pos)}
		return s.emitScalar(emit, v)
	case b == 't', b == 'f':
		val, err := s.scanKeyword()
		if err != nil {
			return err
		}
		v := Value{Kind: KindBool, Bool: val == "true", Start: start, End: int64(s.pos)}
		return s.emitScalar(emit, v)
	case b == 'n':
		if _, err := s.scanKeyword(); err != nil {
			return err
		}
		return s.emitScalar(emit, Value{Kind: KindNull, Start: start, End: int64(s.pos)})
	case b == '-' || (b >= '0' && b <= '9'):
		num, err := s.scanNumber()
		if err != nil {
			return err
		}
		v := Value{Kind: KindNumber, Str: num, Start: start, End: int64(s.pos)}
		return s.emitScalar(emit, v)
	default:
		return fmt.Errorf("jsondoc: unexpected character %q at offset %d", b, s.pos)
	}
}

// emitScalar delivers a complete scalar to its item callback, or
// reports a top-level scalar when there is none.
func (s *scanner) emitScalar(emit func(Value) error, v Value) error {
	if emit == nil {
		return s.r.TopLevelScalar()
	}
	return emit(v)
}

// scanDict parses { "key": value, ... }, emitting the shell, the open
// event, one DictionaryItem per member, and the close event.
func (s *scanner) scanDict(emit func(Value) error, start int64) error {
	if emit != nil {
		if err := emit(Value{Kind: KindDict, Start: start}); err != nil {
			return err
		}
	}
	if err := s.r.DictionaryStart(); err != nil {
		return err
	}
	s.pos++ // '{'

	first := true
	for {
		s.skipWhitespace()
		if s.pos >= len(s.data) {
			return fmt.Errorf("jsondoc: unterminated dictionary at offset %d", start)
		}
		if s.data[s.pos] == '}' {
			s.pos++
			break
		}
		if !first {
			if s.data[s.pos] != ',' {
				return fmt.Errorf("jsondoc: expected ',' or '}' at offset %d", s.pos)
			}
			s.pos++
			s.skipWhitespace()
		}
		first = false
		if s.pos >= len(s.data) || s.data[s.pos] != '"' {
			return fmt.Errorf("jsondoc: expected dictionary key at offset %d", s.pos)
		}
		key, err := s.scanString()
		if err != nil {
			return err
		}
		s.skipWhitespace()
		if s.pos >= len(s.data) || s.data[s.pos] != ':' {
			return fmt.Errorf("jsondoc: expected ':' at offset %d", s.pos)
		}
		s.pos++
		if err := s.scanValue(func(v Value) error {
			return s.r.DictionaryItem(key, v)
		}); err != nil {
			return err
		}
	}
	return s.r.ContainerEnd(Value{Kind: KindDict, Start: start, End: int64(s.pos)})
}

// scanArray parses [ value, ... ].
func (s *scanner) scanArray(emit func(Value) error, start int64) error {
	if emit != nil {
		if err := emit(Value{Kind: KindArray, Start: start}); err != nil {
			return err
		}
	}
	if err := s.r.ArrayStart(); err != nil {
		return err
	}
	s.pos++ // '['

	first := true
	for {
		s.skipWhitespace()
		if s.pos >= len(s.data) {
			return fmt.Errorf("jsondoc: unterminated array at offset %d", start)
		}
		if s.data[s.pos] == ']' {
			s.pos++
			break
		}
		if !first {
			if s.data[s.pos] != ',' {
				return fmt.Errorf("jsondoc: expected ',' or ']' at offset %d", s.pos)
			}
			s.pos++
		}
		first = false
		if err := s.scanValue(s.r.ArrayItem); err != nil {
			return err
		}
	}
	return s.r.ContainerEnd(Value{Kind: KindArray, Start: start, End: int64(s.pos)})
}

// scanString parses a quoted string, decoding escapes. The scanner
// position ends one past the closing quote, so the value's span
// includes both delimiters.
func (s *scanner) scanString() (string, error) {
	start := s.pos
	s.pos++ // '"'

	var buf strings.Builder
	for s.pos < len(s.data) {
		b := s.data[s.pos]
		switch {
		case b == '"':
			s.pos++
			return buf.String(), nil
		case b == '\\':
			s.pos++
			if s.pos >= len(s.data) {
				return "", fmt.Errorf("jsondoc: unterminated escape at offset %d", s.pos)
			}
			esc := s.data[s.pos]
			s.pos++
			switch esc {
			case '"', '\\', '/':
				buf.WriteByte(esc)
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'u':
				r, err := s.scanUnicodeEscape()
				if err != nil {
					return "", err
				}
				buf.WriteRune(r)
			default:
				return "", fmt.Errorf("jsondoc: invalid escape %q at offset %d", esc, s.pos-1)
			}
		case b < 0x20:
			return "", fmt.Errorf("jsondoc: raw control character in string at offset %d", s.pos)
		default:
			buf.WriteByte(b)
			s.pos++
		}
	}
	return "", fmt.Errorf("jsondoc: unterminated string at offset %d", start)
}

// scanUnicodeEscape parses the four hex digits after "\u", combining
// surrogate pairs when a second escape follows.
func (s *scanner) scanUnicodeEscape() (rune, error) {
	hi, err := s.scanHex4()
	if err != nil {
		return 0, err
	}
	r := rune(hi)
	if utf16.IsSurrogate(r) {
		if s.pos+1 < len(s.data) && s.data[s.pos] == '\\' && s.data[s.pos+1] == 'u' {
			s.pos += 2
			lo, err := s.scanHex4()
			if err != nil {
				return 0, err
			}
			if combined := utf16.DecodeRune(r, rune(lo)); combined != utf8.RuneError {
				return combined, nil
			}
			return utf8.RuneError, nil
		}
		return utf8.RuneError, nil
	}
	return r, nil
}

// scanHex4 parses four hex digits.
func (s *scanner) scanHex4() (int, error) {
	if s.pos+4 > len(s.data) {
		return 0, fmt.Errorf("jsondoc: truncated unicode escape at offset %d", s.pos)
	}
	v := 0
	for i := 0; i < 4; i++ {
		d := unhexDigit(s.data[s.pos+i])
		if d < 0 {
			return 0, fmt.Errorf("jsondoc: invalid unicode escape at offset %d", s.pos)
		}
		v = v<<4 | d
	}
	s.pos += 4
	return v, nil
}

// unhexDigit returns the numeric value of a hex digit, or -1.
func unhexDigit(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	default:
		return -1
	}
}

// scanNumber consumes a JSON number and returns its textual form
// unchanged, preserving the source precision.
func (s *scanner) scanNumber() (string, error) {
	start := s.pos
	if s.data[s.pos] == '-' {
		s.pos++
	}
	digits := 0
	for s.pos < len(s.data) && s.data[s.pos] >= '0' && s.data[s.pos] <= '9' {
		s.pos++
		digits++
	}
	if digits == 0 {
		return "", fmt.Errorf("jsondoc: invalid number at offset %d", start)
	}
	if s.pos < len(s.data) && s.data[s.pos] == '.' {
		s.pos++
		frac := 0
		for s.pos < len(s.data) && s.data[s.pos] >= '0' && s.data[s.pos] <= '9' {
			s.pos++
			frac++
		}
		if frac == 0 {
			return "", fmt.Errorf("jsondoc: invalid number at offset %d", start)
		}
	}
	if s.pos < len(s.data) && (s.data[s.pos] == 'e' || s.data[s.pos] == 'E') {
		s.pos++
		if s.pos < len(s.data) && (s.data[s.pos] == '+' || s.data[s.pos] == '-') {
			s.pos++
		}
		exp := 0
		for s.pos < len(s.data) && s.data[s.pos] >= '0' && s.data[s.pos] <= '9' {
			s.pos++
			exp++
		}
		if exp == 0 {
			return "", fmt.Errorf("jsondoc: invalid number at offset %d", start)
		}
	}
	return string(s.data[start:s.pos]), nil
}

// scanKeyword consumes true, false, or null.
func (s *scanner) scanKeyword() (string, error) {
	start := s.pos
	for s.pos < len(s.data) && s.data[s.pos] >= 'a' && s.data[s.pos] <= 'z' {
		s.pos++
	}
	kw := string(s.data[start:s.pos])
	switch kw {
	case "true", "false", "null":
		return kw, nil
	}
	return "", fmt.Errorf("jsondoc: invalid token %q at offset %d", kw, start)
}
