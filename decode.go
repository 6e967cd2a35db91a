package html

import (
	"errors"
	"io"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"
)

// Decoding errors. The first two describe malformed byte sequences and
// are recoverable by policy (the lossy decode path substitutes U+FFFD);
// the last three are content validity errors: the bytes decoded cleanly
// but the resulting scalar is not allowed in an HTML input stream.
var (
	ErrUnexpectedEOF = errors.New("html: byte stream ended inside a multi-byte sequence")
	ErrInvalidData   = errors.New("html: byte sequence is not valid for the encoding")
	ErrSurrogate     = errors.New("html: surrogate code point in input stream")
	ErrNoncharacter  = errors.New("html: noncharacter in input stream")
	ErrControl       = errors.New("html: disallowed control character in input stream")

	ErrUnsupportedEncoding = errors.New("html: no decoder available for encoding")
)

// A DecodedChar is one Unicode scalar value together with the exact raw
// bytes that produced it.
type DecodedChar struct {
	R     rune
	Bytes []byte
}

// A Decoder reads the next scalar value from a cursor. At a clean end of
// stream it returns io.EOF. On a decoding error the offending bytes are
// consumed and returned in DecodedChar.Bytes so the caller can account
// for them.
type Decoder interface {
	Decode(c *Cursor) (DecodedChar, error)
}

// NewDecoder returns a decoder for the given encoding.
func NewDecoder(e Encoding) (Decoder, error) {
	switch e {
	case UTF8:
		return utf8Decoder{}, nil
	case UTF16BE:
		return utf16Decoder{bigEndian: true}, nil
	case UTF16LE:
		return utf16Decoder{}, nil
	case Replacement:
		return &replacementDecoder{}, nil
	case IBM866:
		return singleByteDecoder{charmap.CodePage866}, nil
	case ISO8859_2:
		return singleByteDecoder{charmap.ISO8859_2}, nil
	case ISO8859_3:
		return singleByteDecoder{charmap.ISO8859_3}, nil
	case ISO8859_4:
		return singleByteDecoder{charmap.ISO8859_4}, nil
	case ISO8859_5:
		return singleByteDecoder{charmap.ISO8859_5}, nil
	case ISO8859_6:
		return singleByteDecoder{charmap.ISO8859_6}, nil
	case ISO8859_7:
		return singleByteDecoder{charmap.ISO8859_7}, nil
	case ISO8859_8, ISO8859_8I:
		// The -I variant differs only in bidi presentation, not in its
		// byte-to-scalar mapping.
		return singleByteDecoder{charmap.ISO8859_8}, nil
	case ISO8859_10:
		return singleByteDecoder{charmap.ISO8859_10}, nil
	case ISO8859_13:
		return singleByteDecoder{charmap.ISO8859_13}, nil
	case ISO8859_14:
		return singleByteDecoder{charmap.ISO8859_14}, nil
	case ISO8859_15:
		return singleByteDecoder{charmap.ISO8859_15}, nil
	case ISO8859_16:
		return singleByteDecoder{charmap.ISO8859_16}, nil
	case KOI8R:
		return singleByteDecoder{charmap.KOI8R}, nil
	case KOI8U:
		return singleByteDecoder{charmap.KOI8U}, nil
	case Macintosh:
		return singleByteDecoder{charmap.Macintosh}, nil
	case Windows874:
		return singleByteDecoder{charmap.Windows874}, nil
	case Windows1250:
		return singleByteDecoder{charmap.Windows1250}, nil
	case Windows1251:
		return singleByteDecoder{charmap.Windows1251}, nil
	case Windows1252:
		return singleByteDecoder{charmap.Windows1252}, nil
	case Windows1253:
		return singleByteDecoder{charmap.Windows1253}, nil
	case Windows1254:
		return singleByteDecoder{charmap.Windows1254}, nil
	case Windows1255:
		return singleByteDecoder{charmap.Windows1255}, nil
	case Windows1256:
		return singleByteDecoder{charmap.Windows1256}, nil
	case Windows1257:
		return singleByteDecoder{charmap.Windows1257}, nil
	case Windows1258:
		return singleByteDecoder{charmap.Windows1258}, nil
	case XMacCyrillic:
		return singleByteDecoder{charmap.MacintoshCyrillic}, nil
	case XUserDefined:
		return singleByteDecoder{charmap.XUserDefined}, nil
	case GBK:
		return multiByteDecoder{simplifiedchinese.GBK}, nil
	case GB18030:
		return multiByteDecoder{simplifiedchinese.GB18030}, nil
	case Big5:
		return multiByteDecoder{traditionalchinese.Big5}, nil
	case EUCJP:
		return multiByteDecoder{japanese.EUCJP}, nil
	case ISO2022JP:
		return multiByteDecoder{japanese.ISO2022JP}, nil
	case ShiftJIS:
		return multiByteDecoder{japanese.ShiftJIS}, nil
	case EUCKR:
		return multiByteDecoder{korean.EUCKR}, nil
	}
	return nil, ErrUnsupportedEncoding
}

// validateScalar enforces the input-stream validity rules on a decoded
// scalar: no surrogates, no noncharacters, and no C0/C1 controls other
// than ASCII whitespace.
func validateScalar(r rune) error {
	switch {
	case r >= 0xD800 && r <= 0xDFFF:
		return ErrSurrogate
	case r >= 0xFDD0 && r <= 0xFDEF, r&0xFFFE == 0xFFFE:
		return ErrNoncharacter
	case r == 0x09, r == 0x0A, r == 0x0C, r == 0x0D:
		return nil
	case r < 0x20, r == 0x7F, r >= 0x80 && r <= 0x9F:
		return ErrControl
	}
	return nil
}

// eofOrErr maps an exhausted cursor to either a clean EOF or the fatal
// underlying I/O error.
func eofOrErr(c *Cursor) error {
	if err := c.Err(); err != nil {
		return err
	}
	return io.EOF
}

// utf8Decoder decodes UTF-8 one scalar at a time. Unlike unicode/utf8 it
// reconstructs the code point before validating it, so a surrogate
// encoded with valid sequence structure is reported as ErrSurrogate
// rather than collapsing into a generic decode failure.
type utf8Decoder struct{}

// utf8Min is the smallest code point representable by a sequence of the
// given length; anything below it is an overlong encoding.
var utf8Min = [5]rune{0, 0, 0x80, 0x800, 0x10000}

func (utf8Decoder) Decode(c *Cursor) (DecodedChar, error) {
	b0, ok := c.Peek()
	if !ok {
		return DecodedChar{}, eofOrErr(c)
	}

	var size int
	var r rune
	switch {
	case b0&0x80 == 0:
		size, r = 1, rune(b0)
	case b0&0xE0 == 0xC0:
		size, r = 2, rune(b0&0x1F)
	case b0&0xF0 == 0xE0:
		size, r = 3, rune(b0&0x0F)
	case b0&0xF8 == 0xF0:
		size, r = 4, rune(b0&0x07)
	default:
		// A continuation byte or an invalid lead byte.
		return DecodedChar{Bytes: consume(c, 1)}, ErrInvalidData
	}

	for i := 1; i < size; i++ {
		b, ok := c.PeekN(i)
		if !ok {
			if err := c.Err(); err != nil {
				return DecodedChar{}, err
			}
			return DecodedChar{Bytes: consume(c, i)}, ErrUnexpectedEOF
		}
		if b&0xC0 != 0x80 {
			return DecodedChar{Bytes: consume(c, i)}, ErrInvalidData
		}
		r = r<<6 | rune(b&0x3F)
	}

	raw := consume(c, size)
	if r < utf8Min[size] || r > unicode.MaxRune {
		return DecodedChar{Bytes: raw}, ErrInvalidData
	}
	if err := validateScalar(r); err != nil {
		return DecodedChar{Bytes: raw}, err
	}
	return DecodedChar{R: r, Bytes: raw}, nil
}

// singleByteDecoder maps one byte to one scalar through an x/text
// character map.
type singleByteDecoder struct {
	m *charmap.Charmap
}

func (d singleByteDecoder) Decode(c *Cursor) (DecodedChar, error) {
	b, ok := c.Peek()
	if !ok {
		return DecodedChar{}, eofOrErr(c)
	}
	raw := consume(c, 1)
	r := d.m.DecodeByte(b)
	if r == utf8.RuneError {
		return DecodedChar{Bytes: raw}, ErrInvalidData
	}
	if err := validateScalar(r); err != nil {
		return DecodedChar{Bytes: raw}, err
	}
	return DecodedChar{R: r, Bytes: raw}, nil
}

// utf16Decoder decodes UTF-16 code units in either byte order, pairing
// surrogates itself so that lone surrogates surface as ErrSurrogate.
type utf16Decoder struct {
	bigEndian bool
}

func (d utf16Decoder) unit(c *Cursor, offset int) (rune, bool) {
	b0, ok0 := c.PeekN(offset)
	b1, ok1 := c.PeekN(offset + 1)
	if !ok0 || !ok1 {
		return 0, false
	}
	if d.bigEndian {
		return rune(b0)<<8 | rune(b1), true
	}
	return rune(b1)<<8 | rune(b0), true
}

func (d utf16Decoder) Decode(c *Cursor) (DecodedChar, error) {
	if _, ok := c.Peek(); !ok {
		return DecodedChar{}, eofOrErr(c)
	}

	u, ok := d.unit(c, 0)
	if !ok {
		if err := c.Err(); err != nil {
			return DecodedChar{}, err
		}
		return DecodedChar{Bytes: consume(c, 1)}, ErrUnexpectedEOF
	}

	switch {
	case u >= 0xDC00 && u <= 0xDFFF:
		// A low surrogate with no preceding high surrogate.
		return DecodedChar{Bytes: consume(c, 2)}, ErrSurrogate
	case u >= 0xD800 && u <= 0xDBFF:
		u2, ok := d.unit(c, 2)
		if !ok {
			if err := c.Err(); err != nil {
				return DecodedChar{}, err
			}
			return DecodedChar{Bytes: consume(c, 4)}, ErrUnexpectedEOF
		}
		raw := consume(c, 4)
		if u2 < 0xDC00 || u2 > 0xDFFF {
			return DecodedChar{Bytes: raw}, ErrSurrogate
		}
		r := 0x10000 + (u-0xD800)<<10 + (u2 - 0xDC00)
		if err := validateScalar(r); err != nil {
			return DecodedChar{Bytes: raw}, err
		}
		return DecodedChar{R: r, Bytes: raw}, nil
	}

	raw := consume(c, 2)
	if err := validateScalar(u); err != nil {
		return DecodedChar{Bytes: raw}, err
	}
	return DecodedChar{R: u, Bytes: raw}, nil
}

// multiByteDecoder adapts an x/text multi-byte encoding to the one-scalar
// Decode contract by feeding it growing prefixes of the lookahead until a
// scalar comes out.
type multiByteDecoder struct {
	enc encoding.Encoding
}

// maxMultiByteSeq bounds the prefix search; no supported encoding needs
// more bytes than this to produce its first scalar, escape sequences
// included.
const maxMultiByteSeq = 16

func (d multiByteDecoder) Decode(c *Cursor) (DecodedChar, error) {
	if _, ok := c.Peek(); !ok {
		return DecodedChar{}, eofOrErr(c)
	}

	dec := d.enc.NewDecoder()
	var dst [4 * utf8.UTFMax]byte
	for n := 1; n <= maxMultiByteSeq; n++ {
		src := c.PeekSlice(n)
		atEOF := len(src) < n

		dec.Reset()
		nDst, nSrc, err := dec.Transform(dst[:], src, atEOF)
		if nDst > 0 {
			r, _ := utf8.DecodeRune(dst[:nDst])
			if r == utf8.RuneError {
				// x/text decoders substitute U+FFFD for malformed input
				// instead of reporting it. At the end of the stream the
				// substitution stands for a truncated sequence.
				if atEOF {
					return DecodedChar{Bytes: consume(c, len(src))}, ErrUnexpectedEOF
				}
				return DecodedChar{Bytes: consume(c, nSrc)}, ErrInvalidData
			}
			raw := consume(c, nSrc)
			if err := validateScalar(r); err != nil {
				return DecodedChar{Bytes: raw}, err
			}
			return DecodedChar{R: r, Bytes: raw}, nil
		}
		if atEOF {
			return DecodedChar{Bytes: consume(c, len(src))}, ErrUnexpectedEOF
		}
		if err != nil && err != transform.ErrShortSrc && err != transform.ErrShortDst {
			return DecodedChar{Bytes: consume(c, 1)}, ErrInvalidData
		}
	}
	return DecodedChar{Bytes: consume(c, 1)}, ErrInvalidData
}

// replacementDecoder implements the replacement encoding: the entire
// stream decodes to a single U+FFFD.
type replacementDecoder struct {
	emitted bool
}

func (d *replacementDecoder) Decode(c *Cursor) (DecodedChar, error) {
	if _, ok := c.Peek(); !ok {
		return DecodedChar{}, eofOrErr(c)
	}
	if !d.emitted {
		d.emitted = true
		return DecodedChar{R: utf8.RuneError, Bytes: consume(c, 1)}, nil
	}
	// Drain whatever remains; it carries no more content.
	for {
		if _, ok := c.Next(); !ok {
			break
		}
	}
	return DecodedChar{}, eofOrErr(c)
}
