package html

import (
	"bytes"

	xhtml "golang.org/x/net/html"
	"golang.org/x/text/transform"
)

// maxEntityLen is longer than any named character reference.
const maxEntityLen = 32

// An EntityDecoder is a transform.Transformer that replaces HTML
// character references (&amp;, &#233;, &#x1F600;) with the characters
// they name. Text that is not part of a reference passes through
// unchanged.
type EntityDecoder struct {
	transform.NopResetter
}

func (EntityDecoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if src[nSrc] != '&' {
			run := src[nSrc:]
			if i := bytes.IndexByte(run, '&'); i >= 0 {
				run = run[:i]
			}
			n := copy(dst[nDst:], run)
			nDst += n
			nSrc += n
			if n < len(run) {
				return nDst, nSrc, transform.ErrShortDst
			}
			continue
		}

		end := nSrc + 1
		for end < len(src) && end-nSrc < maxEntityLen {
			b := src[end]
			if b == ';' {
				end++
				break
			}
			if !isEntityByte(b, end-nSrc) {
				break
			}
			end++
		}
		if end == len(src) && !atEOF && end-nSrc < maxEntityLen {
			// The reference may continue in the next chunk.
			return nDst, nSrc, transform.ErrShortSrc
		}

		decoded := xhtml.UnescapeString(string(src[nSrc:end]))
		if nDst+len(decoded) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], decoded)
		nSrc = end
	}
	return nDst, nSrc, nil
}

// isEntityByte reports whether b can appear at offset i of a character
// reference (offset 0 is the ampersand itself).
func isEntityByte(b byte, i int) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '#':
		return i == 1
	default:
		return false
	}
}

// UnescapeEntities replaces the character references in s.
func UnescapeEntities(s string) string {
	out, _, err := transform.String(EntityDecoder{}, s)
	if err != nil {
		return s
	}
	return out
}

// Unescape returns a copy of the token with character references in its
// data and attribute values replaced.
func (t Token) Unescape() Token {
	t.Data = UnescapeEntities(t.Data)
	if t.Attr != nil {
		attrs := make(map[string]string, len(t.Attr))
		for k, v := range t.Attr {
			attrs[k] = UnescapeEntities(v)
		}
		t.Attr = attrs
	}
	return t
}
