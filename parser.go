package html

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Confidence records how sure the parser is about the encoding it is
// using. A tentative encoding may still be overridden by an in-document
// <meta> declaration; a certain one may not.
type Confidence int

const (
	Tentative Confidence = iota
	Certain
	Irrelevant
)

func (c Confidence) String() string {
	switch c {
	case Tentative:
		return "tentative"
	case Certain:
		return "certain"
	case Irrelevant:
		return "irrelevant"
	default:
		return fmt.Sprintf("Confidence(%d)", int(c))
	}
}

// ParserOptions carries the out-of-band encoding hints available when a
// document is opened. All fields are optional.
type ParserOptions struct {
	// UserCharset is an encoding label the user explicitly selected.
	UserCharset string

	// TransportCharset is the charset parameter from the transport
	// layer, e.g. a Content-Type header.
	TransportCharset string

	// ParentEncoding is the encoding of the embedding document, for
	// frames and iframes.
	ParentEncoding *Encoding

	// History supplies the encoding recorded on a prior visit to
	// DocumentURL.
	History     *EncodingHistory
	DocumentURL string

	// DetectEncoding, if set, is invoked with the buffered document
	// prefix as a last resort before falling back to UTF-8. It stands
	// in for frequency analysis of the byte stream.
	DetectEncoding func(prefix []byte) (Encoding, bool)
}

// A Parser decodes a byte stream into characters under a sniffed
// encoding, tracking how confident it is in the choice and reacting to
// late <meta> declarations.
type Parser struct {
	encoding   Encoding
	confidence Confidence
	resolved   bool

	cursor  *Cursor
	decoder Decoder
	opts    ParserOptions

	// readBytes holds every byte consumed through DecodeChar, so that a
	// late encoding change can check whether the two encodings agree on
	// the prefix already processed.
	readBytes []byte
}

func NewParser(r io.Reader) *Parser {
	return NewParserWithOptions(r, ParserOptions{})
}

func NewParserWithOptions(r io.Reader, opts ParserOptions) *Parser {
	return &Parser{
		encoding:   UTF8,
		confidence: Tentative,
		cursor:     NewCursor(r),
		opts:       opts,
	}
}

// NewParserWithEncoding returns a parser locked to a known encoding. No
// sniffing happens and in-document declarations are ignored.
func NewParserWithEncoding(r io.Reader, enc Encoding) *Parser {
	p := NewParserWithOptions(r, ParserOptions{})
	p.encoding = enc
	p.confidence = Certain
	p.resolved = true
	return p
}

func (p *Parser) Encoding() Encoding     { return p.encoding }
func (p *Parser) Confidence() Confidence { return p.confidence }

// DetermineEncoding resolves the document's encoding by precedence: byte
// order mark, user override, pre-scan of the first kilobyte, transport
// charset, parent document, prior-visit history, frequency detection,
// and finally UTF-8. A BOM is consumed and never reaches the caller as
// content.
func (p *Parser) DetermineEncoding() (Encoding, Confidence) {
	if p.resolved {
		return p.encoding, p.confidence
	}
	p.resolved = true
	defer func() {
		if p.opts.History != nil {
			p.opts.History.Remember(p.opts.DocumentURL, p.encoding)
		}
	}()

	p.cursor.PeekMax(preScanWindow)

	if p.cursor.ContainsBytes(0, []byte{0xEF, 0xBB, 0xBF}) {
		consume(p.cursor, 3)
		p.encoding, p.confidence = UTF8, Certain
		return p.encoding, p.confidence
	}
	if p.cursor.ContainsBytes(0, []byte{0xFE, 0xFF}) {
		consume(p.cursor, 2)
		p.encoding, p.confidence = UTF16BE, Certain
		return p.encoding, p.confidence
	}
	if p.cursor.ContainsBytes(0, []byte{0xFF, 0xFE}) {
		consume(p.cursor, 2)
		p.encoding, p.confidence = UTF16LE, Certain
		return p.encoding, p.confidence
	}

	if enc, err := ParseEncodingLabel(p.opts.UserCharset); p.opts.UserCharset != "" && err == nil {
		p.encoding, p.confidence = enc, Certain
		return p.encoding, p.confidence
	}

	if enc, ok := PreScan(p.cursor); ok {
		p.encoding, p.confidence = enc, Tentative
		return p.encoding, p.confidence
	}

	if enc, err := ParseEncodingLabel(p.opts.TransportCharset); p.opts.TransportCharset != "" && err == nil {
		p.encoding, p.confidence = enc, Certain
		return p.encoding, p.confidence
	}

	if p.opts.ParentEncoding != nil && !p.opts.ParentEncoding.isUTF16() {
		p.encoding, p.confidence = *p.opts.ParentEncoding, Tentative
		return p.encoding, p.confidence
	}

	if enc, ok := p.opts.History.Lookup(p.opts.DocumentURL); ok {
		p.encoding, p.confidence = enc, Tentative
		return p.encoding, p.confidence
	}

	if p.opts.DetectEncoding != nil {
		if enc, ok := p.opts.DetectEncoding(p.cursor.PeekSlice(preScanWindow)); ok {
			p.encoding, p.confidence = enc, Tentative
			return p.encoding, p.confidence
		}
	}

	p.encoding, p.confidence = UTF8, Tentative
	return p.encoding, p.confidence
}

// A ParseError reports a well-formed but invalid character in the input:
// a surrogate, a noncharacter, or a forbidden control.
type ParseError struct {
	Err    error
	Offset int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid character at offset %d: %v", e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// A RestartError tells the caller to reopen the byte stream and parse
// again with the encoding it names.
type RestartError struct {
	Encoding Encoding
}

func (e *RestartError) Error() string {
	return fmt.Sprintf("encoding changed to %v, restart required", e.Encoding)
}

// DecodeChar decodes and returns the next character of the document.
// Malformed byte sequences are replaced with U+FFFD; valid sequences
// that encode an invalid character produce a ParseError. The end of the
// document is io.EOF.
func (p *Parser) DecodeChar() (rune, error) {
	if !p.resolved {
		p.DetermineEncoding()
	}
	if p.decoder == nil {
		d, err := NewDecoder(p.encoding)
		if err != nil {
			return 0, err
		}
		p.decoder = d
	}

	dc, err := p.decoder.Decode(p.cursor)
	p.readBytes = append(p.readBytes, dc.Bytes...)
	switch {
	case err == nil:
		return dc.R, nil
	case err == io.EOF:
		if cerr := p.cursor.Err(); cerr != nil {
			return 0, cerr
		}
		return 0, io.EOF
	case errors.Is(err, ErrInvalidData) || errors.Is(err, ErrUnexpectedEOF):
		return utf8.RuneError, nil
	case errors.Is(err, ErrSurrogate) || errors.Is(err, ErrNoncharacter) || errors.Is(err, ErrControl):
		return 0, &ParseError{Err: err, Offset: p.cursor.BytesRead() - len(dc.Bytes)}
	default:
		return 0, err
	}
}

// ChangeEncoding applies the rules for a charset declaration discovered
// while the document is already being parsed. Depending on the current
// state it may be ignored, adopted in place, or require a restart, which
// is reported as a RestartError.
func (p *Parser) ChangeEncoding(newEnc Encoding) error {
	if p.confidence != Tentative {
		return nil
	}

	// A stream already decoding as UTF-16 got there from a BOM or
	// equally reliable signal; the declaration is stale.
	if p.encoding.isUTF16() {
		p.confidence = Certain
		return nil
	}
	if newEnc.isUTF16() {
		newEnc = UTF8
	}
	if newEnc == XUserDefined {
		newEnc = Windows1252
	}

	if newEnc == p.encoding {
		p.confidence = Certain
		return nil
	}

	if decodesIdentically(p.readBytes, p.encoding, newEnc) {
		p.encoding = newEnc
		p.confidence = Certain
		p.decoder = nil
		return nil
	}

	return &RestartError{Encoding: newEnc}
}

// decodesIdentically reports whether the two encodings produce the same
// characters for the given prefix.
func decodesIdentically(prefix []byte, a, b Encoding) bool {
	if len(prefix) == 0 {
		return true
	}
	ra, ok := decodeAll(prefix, a)
	if !ok {
		return false
	}
	rb, ok := decodeAll(prefix, b)
	if !ok {
		return false
	}
	if len(ra) != len(rb) {
		return false
	}
	for i := range ra {
		if ra[i] != rb[i] {
			return false
		}
	}
	return true
}

// decodeAll lossily decodes data under enc.
func decodeAll(data []byte, enc Encoding) ([]rune, bool) {
	d, err := NewDecoder(enc)
	if err != nil {
		return nil, false
	}
	cur := NewCursor(strings.NewReader(string(data)))
	var out []rune
	for {
		dc, err := d.Decode(cur)
		if err == io.EOF {
			return out, true
		}
		if err != nil {
			if len(dc.Bytes) == 0 {
				return nil, false
			}
			out = append(out, utf8.RuneError)
			continue
		}
		out = append(out, dc.R)
	}
}

// A Document is the result of a complete parse.
type Document struct {
	Encoding   Encoding
	Confidence Confidence
	Tokens     []Token
}

// TryParse resolves the encoding, decodes the whole stream, and lexes it
// into tokens. A <meta> charset declaration encountered in the token
// stream is fed through ChangeEncoding; if that demands a restart, the
// RestartError is returned and the caller should fetch the bytes again
// and parse with NewParserWithEncoding.
func (p *Parser) TryParse() (*Document, error) {
	p.DetermineEncoding()

	var sb strings.Builder
	for {
		r, err := p.DecodeChar()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		sb.WriteRune(r)
	}

	lx := NewStringLexer(sb.String())
	var tokens []Token
	for {
		tok, err := lx.NextToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if tok.Type == StartTagToken || tok.Type == SelfClosingTagToken {
			if tok.Data == "meta" {
				if err := p.applyMetaToken(tok); err != nil {
					return nil, err
				}
			}
		}
		tokens = append(tokens, tok)
		if tok.Type == EOFToken {
			break
		}
	}

	return &Document{
		Encoding:   p.encoding,
		Confidence: p.confidence,
		Tokens:     tokens,
	}, nil
}

func (p *Parser) applyMetaToken(tok Token) error {
	if v, ok := tok.Attr["charset"]; ok {
		if enc, err := ParseEncodingLabel(v); err == nil {
			return p.ChangeEncoding(enc)
		}
		return nil
	}
	if !strings.EqualFold(tok.Attr["http-equiv"], "content-type") {
		return nil
	}
	content, ok := tok.Attr["content"]
	if !ok {
		return nil
	}
	if enc, ok := encodingFromMetaContent(strings.ToLower(content)); ok {
		return p.ChangeEncoding(enc)
	}
	return nil
}
