package html

import "strings"

// Byte-level pre-scan of a document's first kilobyte to guess its
// character encoding, per the WHATWG "prescan a byte stream to determine
// its encoding" algorithm. The scanner works on raw bytes only; nothing
// is decoded.

// preScanWindow is how far into the byte stream the pre-scan may look.
const preScanWindow = 1024

// scanOutcome is the three-way result every pre-scan step can have:
// the pattern matched, it did not match, or the scan ran past the end of
// the window. Window exhaustion ends the whole scan with no result.
type scanOutcome int

const (
	scanNoMatch scanOutcome = iota
	scanMatched
	scanWindowExhausted
)

var (
	asciiWhitespace = []byte{0x09, 0x0A, 0x0C, 0x0D, 0x20}
	whitespaceOrGT  = []byte{0x09, 0x0A, 0x0C, 0x0D, 0x20, '>'}
	whitespaceOrSl  = []byte{0x09, 0x0A, 0x0C, 0x0D, 0x20, '/'}
	asciiLetters    = letterBytes()
)

func letterBytes() []byte {
	var s []byte
	for b := byte('A'); b <= 'Z'; b++ {
		s = append(s, b, b+0x20)
	}
	return s
}

func isWhitespaceByte(b byte) bool {
	return b == 0x09 || b == 0x0A || b == 0x0C || b == 0x0D || b == 0x20
}

func toLowerByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 0x20
	}
	return b
}

type preScanner struct {
	cur   *Cursor
	pos   int
	limit int
}

// PreScan inspects up to the first 1024 buffered bytes of the cursor and
// returns the encoding they declare, if any. Nothing is consumed. The
// caller is expected to have filled the lookahead with PeekMax first;
// only already-buffered bytes are considered.
func PreScan(cur *Cursor) (Encoding, bool) {
	s := &preScanner{cur: cur, limit: cur.PeekLen()}
	if s.limit > preScanWindow {
		s.limit = preScanWindow
	}
	if enc, ok := s.scan(); ok {
		return enc, true
	}
	return s.xmlEncoding()
}

func (s *preScanner) byteAt(i int) (byte, bool) {
	if i >= s.limit {
		return 0, false
	}
	return s.cur.PeekN(i)
}

func (s *preScanner) contains(pattern []byte) scanOutcome {
	if s.pos+len(pattern) > s.limit {
		return scanWindowExhausted
	}
	if s.cur.ContainsBytes(s.pos, pattern) {
		return scanMatched
	}
	return scanNoMatch
}

func (s *preScanner) matches(alternatives [][]byte) scanOutcome {
	if s.pos+len(alternatives) > s.limit {
		return scanWindowExhausted
	}
	if s.cur.MatchesSequence(s.pos, alternatives) {
		return scanMatched
	}
	return scanNoMatch
}

func (s *preScanner) scan() (Encoding, bool) {
	s.pos = 0

	// UTF-16 XML prologues: "<?x" with alternating zero bytes.
	switch s.contains([]byte{0x3C, 0x00, 0x3F, 0x00, 0x78, 0x00}) {
	case scanMatched:
		return UTF16LE, true
	case scanWindowExhausted:
		return 0, false
	}
	switch s.contains([]byte{0x00, 0x3C, 0x00, 0x3F, 0x00, 0x78}) {
	case scanMatched:
		return UTF16BE, true
	case scanWindowExhausted:
		return 0, false
	}

	metaOpen := [][]byte{
		{'<'},
		{'M', 'm'},
		{'E', 'e'},
		{'T', 't'},
		{'A', 'a'},
		whitespaceOrSl,
	}

	for {
		if s.pos >= s.limit {
			return 0, false
		}

		if out := s.contains([]byte("<!--")); out == scanWindowExhausted {
			return 0, false
		} else if out == scanMatched {
			// Skip the comment verbatim up to its terminator.
			for {
				out := s.contains([]byte("-->"))
				if out == scanWindowExhausted {
					return 0, false
				}
				if out == scanMatched {
					break
				}
				s.pos++
			}
			s.pos += 2 // now at the terminating '>'
		} else if out := s.matches(metaOpen); out == scanWindowExhausted {
			return 0, false
		} else if out == scanMatched {
			s.pos += 5 // at the whitespace or slash after "<meta"
			enc, out := s.metaCharset()
			if out == scanMatched {
				return enc, true
			}
			if out == scanWindowExhausted {
				return 0, false
			}
			// Inconclusive meta tag: resume scanning from the next byte.
		} else if out := s.matches([][]byte{{'<'}, asciiLetters}); out == scanWindowExhausted {
			return 0, false
		} else if other := s.matches([][]byte{{'<'}, {'/'}, asciiLetters}); out == scanMatched || other == scanMatched {
			// Any other start or end tag: skip its name, then drain its
			// attributes without looking at them.
			for {
				out := s.matches([][]byte{whitespaceOrGT})
				if out == scanWindowExhausted {
					return 0, false
				}
				if out == scanMatched {
					break
				}
				s.pos++
			}
			for {
				_, _, out := s.getAttribute()
				if out == scanWindowExhausted {
					return 0, false
				}
				if out == scanNoMatch {
					break
				}
			}
		} else if other == scanWindowExhausted {
			return 0, false
		} else if out := s.matches([][]byte{{'<'}, {'!', '/', '?'}}); out == scanWindowExhausted {
			return 0, false
		} else if out == scanMatched {
			// Markup declaration or processing instruction: skip to '>'.
			for {
				out := s.contains([]byte{'>'})
				if out == scanWindowExhausted {
					return 0, false
				}
				if out == scanMatched {
					break
				}
				s.pos++
			}
		}

		s.pos++
	}
}

// Tri-state pragma requirement for the meta charset algorithm.
type pragmaState int

const (
	pragmaUnset pragmaState = iota
	pragmaRequired
	pragmaNotRequired
)

// metaCharset runs the attribute list of a <meta> tag through the
// charset-discovery steps. It reports scanMatched only when the tag
// conclusively declares an encoding.
func (s *preScanner) metaCharset() (Encoding, scanOutcome) {
	seen := make(map[string]bool)
	gotPragma := false
	needPragma := pragmaUnset
	var charset Encoding
	charsetSet := false

	for {
		name, value, out := s.getAttribute()
		if out == scanWindowExhausted {
			return 0, scanWindowExhausted
		}
		if out == scanNoMatch {
			break
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case "http-equiv":
			if value == "content-type" {
				gotPragma = true
			}
		case "content":
			if enc, ok := encodingFromMetaContent(value); ok && !charsetSet {
				charset, charsetSet = enc, true
				needPragma = pragmaRequired
			}
		case "charset":
			enc, err := ParseEncodingLabel(value)
			charset, charsetSet = enc, err == nil
			needPragma = pragmaNotRequired
		}
	}

	if needPragma == pragmaUnset {
		return 0, scanNoMatch
	}
	if needPragma == pragmaRequired && !gotPragma {
		return 0, scanNoMatch
	}
	if !charsetSet {
		return 0, scanNoMatch
	}
	if charset.isUTF16() {
		charset = UTF8
	}
	if charset == XUserDefined {
		charset = Windows1252
	}
	return charset, scanMatched
}

// getAttribute is the byte-level "get an attribute" sub-algorithm. It
// returns scanMatched with a (possibly value-less) attribute, scanNoMatch
// when the tag has no further attributes, or scanWindowExhausted. ASCII
// upper-case is folded to lower-case in both names and values.
func (s *preScanner) getAttribute() (name, value string, out scanOutcome) {
	// Skip leading slashes and whitespace.
	for {
		out := s.matches([][]byte{whitespaceOrSl})
		if out == scanWindowExhausted {
			return "", "", scanWindowExhausted
		}
		if out != scanMatched {
			break
		}
		s.pos++
	}

	switch s.contains([]byte{'>'}) {
	case scanWindowExhausted:
		return "", "", scanWindowExhausted
	case scanMatched:
		return "", "", scanNoMatch
	}

	var nameB, valueB []byte

parseName:
	for {
		b, ok := s.byteAt(s.pos)
		if !ok {
			return "", "", scanWindowExhausted
		}
		switch {
		case b == '=' && len(nameB) > 0:
			s.pos++
			break parseName
		case isWhitespaceByte(b):
			// Whitespace after the name: an optional '=' decides whether
			// a value follows.
			for {
				out := s.matches([][]byte{asciiWhitespace})
				if out == scanWindowExhausted {
					return "", "", scanWindowExhausted
				}
				if out != scanMatched {
					break
				}
				s.pos++
			}
			switch s.contains([]byte{'='}) {
			case scanWindowExhausted:
				return "", "", scanWindowExhausted
			case scanNoMatch:
				return string(nameB), "", scanMatched
			}
			s.pos++
			break parseName
		case b == '/' || b == '>':
			return string(nameB), "", scanMatched
		default:
			nameB = append(nameB, toLowerByte(b))
			s.pos++
		}
	}

	// Skip whitespace before the value.
	for {
		out := s.matches([][]byte{asciiWhitespace})
		if out == scanWindowExhausted {
			return "", "", scanWindowExhausted
		}
		if out != scanMatched {
			break
		}
		s.pos++
	}

	b, ok := s.byteAt(s.pos)
	if !ok {
		return "", "", scanWindowExhausted
	}
	switch {
	case b == '"' || b == '\'':
		quote := b
		for {
			s.pos++
			b, ok := s.byteAt(s.pos)
			if !ok {
				return "", "", scanWindowExhausted
			}
			if b == quote {
				s.pos++
				return string(nameB), string(valueB), scanMatched
			}
			valueB = append(valueB, toLowerByte(b))
		}
	case b == '>':
		return string(nameB), "", scanMatched
	default:
		valueB = append(valueB, toLowerByte(b))
		s.pos++
	}

	// Unquoted value: runs to the next whitespace or '>'.
	for {
		b, ok := s.byteAt(s.pos)
		if !ok {
			return "", "", scanWindowExhausted
		}
		if isWhitespaceByte(b) || b == '>' {
			return string(nameB), string(valueB), scanMatched
		}
		valueB = append(valueB, toLowerByte(b))
		s.pos++
	}
}

// encodingFromMetaContent extracts an encoding label from the value of a
// meta element's content attribute, e.g. "text/html; charset=utf-8".
// The value is expected to be lower-case already.
func encodingFromMetaContent(value string) (Encoding, bool) {
	pos := 0
	for {
		i := strings.Index(value[pos:], "charset")
		if i < 0 {
			return 0, false
		}
		pos += i + len("charset")
		for pos < len(value) && isWhitespaceByte(value[pos]) {
			pos++
		}
		if pos >= len(value) {
			return 0, false
		}
		if value[pos] != '=' {
			// A stray "charset" token; keep looking after it.
			continue
		}
		pos++
		for pos < len(value) && isWhitespaceByte(value[pos]) {
			pos++
		}
		if pos >= len(value) {
			return 0, false
		}

		var label string
		if q := value[pos]; q == '"' || q == '\'' {
			end := strings.IndexByte(value[pos+1:], q)
			if end < 0 {
				return 0, false
			}
			label = value[pos+1 : pos+1+end]
		} else {
			end := pos
			for end < len(value) && !isWhitespaceByte(value[end]) && value[end] != ';' {
				end++
			}
			label = value[pos:end]
		}
		enc, err := ParseEncodingLabel(label)
		if err != nil {
			return 0, false
		}
		return enc, true
	}
}

// xmlEncoding is the fallback applied when no <meta> charset was found:
// an encoding declaration in an XML prolog, e.g.
// <?xml version="1.0" encoding="ISO-8859-2"?>.
func (s *preScanner) xmlEncoding() (Encoding, bool) {
	s.pos = 0

	if s.contains([]byte("<?xml")) != scanMatched {
		return 0, false
	}

	// The declaration must close inside the window.
	closed := false
	for i := s.pos; i < s.limit; i++ {
		if b, ok := s.byteAt(i); ok && b == '>' {
			closed = true
			break
		}
	}
	if !closed {
		return 0, false
	}

	for {
		out := s.contains([]byte("encoding"))
		if out == scanWindowExhausted {
			return 0, false
		}
		if out == scanMatched {
			break
		}
		s.pos++
	}
	s.pos += len("encoding")

	for {
		b, ok := s.byteAt(s.pos)
		if !ok {
			return 0, false
		}
		if b > 0x20 {
			break
		}
		s.pos++
	}
	if b, ok := s.byteAt(s.pos); !ok || b != '=' {
		return 0, false
	}
	s.pos++
	for {
		b, ok := s.byteAt(s.pos)
		if !ok {
			return 0, false
		}
		if b > 0x20 {
			break
		}
		s.pos++
	}

	quote, ok := s.byteAt(s.pos)
	if !ok || (quote != '"' && quote != '\'') {
		return 0, false
	}
	s.pos++

	var label []byte
	for {
		b, ok := s.byteAt(s.pos)
		if !ok {
			return 0, false
		}
		if b == quote {
			break
		}
		if b < 0x20 {
			return 0, false
		}
		label = append(label, b)
		s.pos++
	}

	enc, err := ParseEncodingLabel(string(label))
	if err != nil {
		return 0, false
	}
	if enc.isUTF16() {
		enc = UTF8
	}
	if enc == XUserDefined {
		enc = Windows1252
	}
	return enc, true
}
