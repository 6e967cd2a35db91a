package html

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// TokenType identifies the kind of a lexed token.
type TokenType int

const (
	DoctypeToken TokenType = iota
	CommentToken
	StartTagToken
	EndTagToken
	SelfClosingTagToken
	TextToken
	EOFToken
)

func (t TokenType) String() string {
	switch t {
	case DoctypeToken:
		return "Doctype"
	case CommentToken:
		return "Comment"
	case StartTagToken:
		return "StartTag"
	case EndTagToken:
		return "EndTag"
	case SelfClosingTagToken:
		return "SelfClosingTag"
	case TextToken:
		return "Text"
	case EOFToken:
		return "EOF"
	default:
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
}

// A Span is a half-open range of character positions in the source.
type Span struct {
	Start, End int
}

func (s Span) String() string { return fmt.Sprintf("[%d, %d)", s.Start, s.End) }

// A Token is a single lexed unit of the document. Data holds the tag or
// doctype name (lower-cased), comment body, or text run. Attr is nil for
// tokens that cannot carry attributes.
type Token struct {
	Type TokenType
	Data string
	Attr map[string]string
	Span Span
}

func (t Token) String() string {
	if t.Type == EOFToken {
		return fmt.Sprintf("%v %v", t.Type, t.Span)
	}
	return fmt.Sprintf("%v %q %v", t.Type, t.Data, t.Span)
}

// Lexing errors. A SyntaxError wraps one of these with the position it
// was found at.
var (
	ErrMalformedDoctype    = errors.New("malformed doctype")
	ErrMalformedTag        = errors.New("malformed tag")
	ErrUnterminatedComment = errors.New("unterminated comment")
)

type SyntaxError struct {
	Err error
	Pos int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v at position %d", e.Err, e.Pos)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// A CharReader yields the decoded characters of a document one at a
// time, with arbitrary lookahead. Pos counts characters consumed. A
// clean end of input is ok == false with a nil Err; an I/O failure on
// the underlying source is sticky and reported by Err.
type CharReader interface {
	NextChar() (rune, bool)
	PeekChar(n int) (rune, bool)
	Pos() int
	Err() error
}

// stringReader reads characters from a fully decoded, in-memory
// document.
type stringReader struct {
	runes []rune
	pos   int
}

func newStringReader(s string) *stringReader {
	return &stringReader{runes: []rune(s)}
}

func (r *stringReader) NextChar() (rune, bool) {
	if r.pos >= len(r.runes) {
		return 0, false
	}
	c := r.runes[r.pos]
	r.pos++
	return c, true
}

func (r *stringReader) PeekChar(n int) (rune, bool) {
	if r.pos+n >= len(r.runes) {
		return 0, false
	}
	return r.runes[r.pos+n], true
}

func (r *stringReader) Pos() int { return r.pos }

func (r *stringReader) Err() error { return nil }

// streamReader reads UTF-8 characters incrementally from an io.Reader,
// buffering lookahead the same way Cursor buffers bytes, with the same
// sticky treatment of I/O failures.
type streamReader struct {
	src    *bufio.Reader
	peeked []rune
	pos    int
	err    error
}

func newStreamReader(r io.Reader) *streamReader {
	return &streamReader{src: bufio.NewReader(r)}
}

func (r *streamReader) fill(n int) bool {
	for len(r.peeked) < n {
		if r.err != nil {
			return false
		}
		c, _, err := r.src.ReadRune()
		if err != nil {
			if err != io.EOF {
				r.err = err
			}
			return false
		}
		r.peeked = append(r.peeked, c)
	}
	return true
}

func (r *streamReader) NextChar() (rune, bool) {
	if !r.fill(1) {
		return 0, false
	}
	c := r.peeked[0]
	r.peeked = r.peeked[1:]
	r.pos++
	return c, true
}

func (r *streamReader) PeekChar(n int) (rune, bool) {
	if !r.fill(n + 1) {
		return 0, false
	}
	return r.peeked[n], true
}

func (r *streamReader) Pos() int { return r.pos }

func (r *streamReader) Err() error { return r.err }

// A Lexer splits a character source into tokens. It is strict: input
// that is not well formed produces a SyntaxError rather than a
// best-effort token.
type Lexer struct {
	src     CharReader
	sentEOF bool
}

func NewLexer(src CharReader) *Lexer { return &Lexer{src: src} }

func NewStringLexer(s string) *Lexer { return NewLexer(newStringReader(s)) }

func NewStreamLexer(r io.Reader) *Lexer { return NewLexer(newStreamReader(r)) }

func (l *Lexer) peekString(s string) bool {
	for i, want := range []rune(s) {
		c, ok := l.src.PeekChar(i)
		if !ok || c != want {
			return false
		}
	}
	return true
}

func (l *Lexer) peekStringFold(s string) bool {
	for i, want := range []rune(s) {
		c, ok := l.src.PeekChar(i)
		if !ok || unicode.ToLower(c) != unicode.ToLower(want) {
			return false
		}
	}
	return true
}

func (l *Lexer) consume(n int) {
	for i := 0; i < n; i++ {
		l.src.NextChar()
	}
}

// syntaxErr wraps err with the current position. An I/O failure on the
// source takes precedence: a stream cut off mid-token is a read error,
// not malformed markup.
func (l *Lexer) syntaxErr(err error) error {
	if ioErr := l.src.Err(); ioErr != nil {
		return ioErr
	}
	return &SyntaxError{Err: err, Pos: l.src.Pos()}
}

// NextToken returns the next token of the document. Whitespace between
// tokens is skipped. After the end of input a single EOF token is
// returned; every call after that returns io.EOF.
func (l *Lexer) NextToken() (Token, error) {
	if l.sentEOF {
		return Token{}, io.EOF
	}

	for {
		c, ok := l.src.PeekChar(0)
		if !ok {
			if err := l.src.Err(); err != nil {
				return Token{}, err
			}
			l.sentEOF = true
			pos := l.src.Pos()
			return Token{Type: EOFToken, Span: Span{pos, pos}}, nil
		}
		if !unicode.IsSpace(c) {
			break
		}
		l.src.NextChar()
	}

	switch {
	case l.peekString("<!--"):
		return l.comment()
	case l.peekStringFold("<!doctype"):
		return l.doctype()
	case l.peekString("</"):
		return l.endTag()
	case l.peekString("<"):
		return l.startTag()
	default:
		return l.text()
	}
}

func (l *Lexer) comment() (Token, error) {
	start := l.src.Pos()
	l.consume(len("<!--"))
	var body strings.Builder
	for {
		if l.peekString("-->") {
			l.consume(len("-->"))
			return Token{
				Type: CommentToken,
				Data: body.String(),
				Span: Span{start, l.src.Pos()},
			}, nil
		}
		c, ok := l.src.NextChar()
		if !ok {
			return Token{}, l.syntaxErr(ErrUnterminatedComment)
		}
		body.WriteRune(c)
	}
}

func (l *Lexer) doctype() (Token, error) {
	start := l.src.Pos()
	l.consume(len("<!doctype"))

	// Exactly one space, then the literal name.
	c, ok := l.src.PeekChar(0)
	if !ok || c != ' ' {
		return Token{}, l.syntaxErr(ErrMalformedDoctype)
	}
	l.src.NextChar()

	var name strings.Builder
	for {
		c, ok := l.src.NextChar()
		if !ok {
			return Token{}, l.syntaxErr(ErrMalformedDoctype)
		}
		if c == '>' {
			break
		}
		name.WriteRune(c)
	}
	if !strings.EqualFold(name.String(), "html") {
		return Token{}, l.syntaxErr(ErrMalformedDoctype)
	}
	return Token{
		Type: DoctypeToken,
		Data: "html",
		Span: Span{start, l.src.Pos()},
	}, nil
}

func (l *Lexer) endTag() (Token, error) {
	start := l.src.Pos()
	l.consume(len("</"))
	var name strings.Builder
	for {
		c, ok := l.src.NextChar()
		if !ok {
			return Token{}, l.syntaxErr(ErrMalformedTag)
		}
		if c == '>' {
			break
		}
		if !isASCIILetter(c) && !unicode.IsSpace(c) {
			return Token{}, l.syntaxErr(ErrMalformedTag)
		}
		name.WriteRune(c)
	}
	data := strings.ToLower(strings.TrimSpace(name.String()))
	if data == "" || strings.ContainsFunc(data, unicode.IsSpace) {
		return Token{}, l.syntaxErr(ErrMalformedTag)
	}
	return Token{
		Type: EndTagToken,
		Data: data,
		Span: Span{start, l.src.Pos()},
	}, nil
}

func (l *Lexer) startTag() (Token, error) {
	start := l.src.Pos()
	l.consume(1) // '<'

	c, ok := l.src.PeekChar(0)
	if !ok || !isASCIILetter(c) {
		return Token{}, l.syntaxErr(ErrMalformedTag)
	}

	var name strings.Builder
	for {
		c, ok := l.src.PeekChar(0)
		if !ok {
			return Token{}, l.syntaxErr(ErrMalformedTag)
		}
		if unicode.IsSpace(c) || c == '/' || c == '>' {
			break
		}
		name.WriteRune(unicode.ToLower(c))
		l.src.NextChar()
	}

	attrs := make(map[string]string)
	for {
		c, ok := l.src.PeekChar(0)
		if !ok {
			return Token{}, l.syntaxErr(ErrMalformedTag)
		}
		switch {
		case unicode.IsSpace(c):
			l.src.NextChar()
		case c == '>':
			l.src.NextChar()
			return Token{
				Type: StartTagToken,
				Data: name.String(),
				Attr: attrs,
				Span: Span{start, l.src.Pos()},
			}, nil
		case c == '/':
			l.src.NextChar()
			c, ok := l.src.PeekChar(0)
			if !ok || c != '>' {
				return Token{}, l.syntaxErr(ErrMalformedTag)
			}
			l.src.NextChar()
			return Token{
				Type: SelfClosingTagToken,
				Data: name.String(),
				Attr: attrs,
				Span: Span{start, l.src.Pos()},
			}, nil
		default:
			aname, aval, err := l.attribute()
			if err != nil {
				return Token{}, err
			}
			// First declaration of an attribute wins.
			if _, dup := attrs[aname]; !dup {
				attrs[aname] = aval
			}
		}
	}
}

// attribute lexes one attribute inside a start tag. Names are folded to
// lower case; values keep their case. A bare name yields the empty
// value.
func (l *Lexer) attribute() (name, value string, err error) {
	var nameB strings.Builder

parseName:
	for {
		c, ok := l.src.PeekChar(0)
		if !ok {
			return "", "", l.syntaxErr(ErrMalformedTag)
		}
		switch {
		case c == '=' && nameB.Len() > 0:
			l.src.NextChar()
			break parseName
		case unicode.IsSpace(c):
			for {
				c, ok := l.src.PeekChar(0)
				if !ok {
					return "", "", l.syntaxErr(ErrMalformedTag)
				}
				if !unicode.IsSpace(c) {
					break
				}
				l.src.NextChar()
			}
			c, ok := l.src.PeekChar(0)
			if !ok {
				return "", "", l.syntaxErr(ErrMalformedTag)
			}
			if c != '=' {
				return nameB.String(), "", nil
			}
			l.src.NextChar()
			break parseName
		case c == '/' || c == '>':
			return nameB.String(), "", nil
		default:
			nameB.WriteRune(unicode.ToLower(c))
			l.src.NextChar()
		}
	}

	for {
		c, ok := l.src.PeekChar(0)
		if !ok {
			return "", "", l.syntaxErr(ErrMalformedTag)
		}
		if !unicode.IsSpace(c) {
			break
		}
		l.src.NextChar()
	}

	var valueB strings.Builder
	c, ok := l.src.PeekChar(0)
	if !ok {
		return "", "", l.syntaxErr(ErrMalformedTag)
	}
	if c == '"' || c == '\'' {
		quote := c
		l.src.NextChar()
		for {
			c, ok := l.src.NextChar()
			if !ok {
				return "", "", l.syntaxErr(ErrMalformedTag)
			}
			if c == quote {
				return nameB.String(), valueB.String(), nil
			}
			valueB.WriteRune(c)
		}
	}

	for {
		c, ok := l.src.PeekChar(0)
		if !ok {
			return "", "", l.syntaxErr(ErrMalformedTag)
		}
		if unicode.IsSpace(c) || c == '>' {
			return nameB.String(), valueB.String(), nil
		}
		if c == '/' {
			// A trailing slash closes the tag; anywhere else it is part
			// of the value, as in href=/about.
			if next, ok := l.src.PeekChar(1); ok && next == '>' {
				return nameB.String(), valueB.String(), nil
			}
		}
		valueB.WriteRune(c)
		l.src.NextChar()
	}
}

func (l *Lexer) text() (Token, error) {
	start := l.src.Pos()
	var body strings.Builder
	for {
		c, ok := l.src.PeekChar(0)
		if !ok || c == '<' {
			break
		}
		body.WriteRune(c)
		l.src.NextChar()
	}
	if err := l.src.Err(); err != nil {
		return Token{}, err
	}
	return Token{
		Type: TextToken,
		Data: strings.TrimSpace(body.String()),
		Span: Span{start, l.src.Pos()},
	}, nil
}

func isASCIILetter(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
