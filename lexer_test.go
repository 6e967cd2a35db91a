package html

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func collectTokens(t *testing.T, lx *Lexer) []Token {
	t.Helper()
	var tokens []Token
	for {
		tok, err := lx.NextToken()
		if err == io.EOF {
			return tokens
		}
		if err != nil {
			t.Fatalf("NextToken: %v", err)
		}
		tokens = append(tokens, tok)
	}
}

func TestLexerBasicDocument(t *testing.T) {
	const doc = `<!DOCTYPE html>
<html>
<body>
<!-- greeting -->
<p class="intro">Hello, world</p>
<br/>
</body>
</html>`

	tokens := collectTokens(t, NewStringLexer(doc))

	type want struct {
		typ  TokenType
		data string
	}
	wants := []want{
		{DoctypeToken, "html"},
		{StartTagToken, "html"},
		{StartTagToken, "body"},
		{CommentToken, " greeting "},
		{StartTagToken, "p"},
		{TextToken, "Hello, world"},
		{EndTagToken, "p"},
		{SelfClosingTagToken, "br"},
		{EndTagToken, "body"},
		{EndTagToken, "html"},
		{EOFToken, ""},
	}
	if len(tokens) != len(wants) {
		t.Fatalf("got %d tokens; want %d: %v", len(tokens), len(wants), tokens)
	}
	for i, w := range wants {
		if tokens[i].Type != w.typ || tokens[i].Data != w.data {
			t.Errorf("token %d = %v; want %v %q", i, tokens[i], w.typ, w.data)
		}
	}
}

func TestLexerStringAndStreamAgree(t *testing.T) {
	const doc = `<!DOCTYPE html><p id="x">caf&eacute; — こんにちは</p>`

	fromString := collectTokens(t, NewStringLexer(doc))
	fromStream := collectTokens(t, NewStreamLexer(strings.NewReader(doc)))

	if len(fromString) != len(fromStream) {
		t.Fatalf("token counts differ: %d vs %d", len(fromString), len(fromStream))
	}
	for i := range fromString {
		a, b := fromString[i], fromStream[i]
		if a.Type != b.Type || a.Data != b.Data || a.Span != b.Span {
			t.Errorf("token %d differs: %v vs %v", i, a, b)
		}
	}
}

func TestLexerAttributes(t *testing.T) {
	tokens := collectTokens(t, NewStringLexer(
		`<input TYPE="text" value='a b' disabled data-n=42 action=/submit>`))

	if len(tokens) != 2 || tokens[0].Type != StartTagToken {
		t.Fatalf("unexpected tokens: %v", tokens)
	}
	tok := tokens[0]
	if tok.Data != "input" {
		t.Fatalf("tag name = %q; want input", tok.Data)
	}
	want := map[string]string{
		"type":     "text",
		"value":    "a b",
		"disabled": "",
		"data-n":   "42",
		"action":   "/submit",
	}
	if len(tok.Attr) != len(want) {
		t.Fatalf("attrs = %v; want %v", tok.Attr, want)
	}
	for k, v := range want {
		if tok.Attr[k] != v {
			t.Errorf("attr %q = %q; want %q", k, tok.Attr[k], v)
		}
	}
}

func TestLexerAttributeValueKeepsCase(t *testing.T) {
	tokens := collectTokens(t, NewStringLexer(`<a HREF="MixedCase">x</a>`))
	if got := tokens[0].Attr["href"]; got != "MixedCase" {
		t.Fatalf("href = %q; want MixedCase", got)
	}
}

func TestLexerDuplicateAttributeFirstWins(t *testing.T) {
	tokens := collectTokens(t, NewStringLexer(`<a href="1" href="2">x</a>`))
	if got := tokens[0].Attr["href"]; got != "1" {
		t.Fatalf("href = %q; want 1", got)
	}
}

func TestLexerSelfClosingWithAttributes(t *testing.T) {
	tokens := collectTokens(t, NewStringLexer(`<img src="logo.png" alt='' />`))
	tok := tokens[0]
	if tok.Type != SelfClosingTagToken || tok.Data != "img" {
		t.Fatalf("token = %v; want self-closing img", tok)
	}
	if tok.Attr["src"] != "logo.png" || tok.Attr["alt"] != "" {
		t.Fatalf("attrs = %v", tok.Attr)
	}
}

func TestLexerEndTagWhitespace(t *testing.T) {
	tokens := collectTokens(t, NewStringLexer(`<p>x</ p >`))
	last := tokens[len(tokens)-2]
	if last.Type != EndTagToken || last.Data != "p" {
		t.Fatalf("token = %v; want end tag p", last)
	}
}

func TestLexerDoctypeCaseInsensitive(t *testing.T) {
	tokens := collectTokens(t, NewStringLexer(`<!DoCtYpE HTML>`))
	if tokens[0].Type != DoctypeToken || tokens[0].Data != "html" {
		t.Fatalf("token = %v; want doctype html", tokens[0])
	}
}

func TestLexerSyntaxErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		err   error
	}{
		{"doctype wrong name", `<!doctype htm>`, ErrMalformedDoctype},
		{"doctype without space", `<!doctypehtml>`, ErrMalformedDoctype},
		{"doctype tab separator", "<!doctype\thtml>", ErrMalformedDoctype},
		{"doctype double space", `<!doctype  html>`, ErrMalformedDoctype},
		{"doctype trailing space", `<!doctype html >`, ErrMalformedDoctype},
		{"unterminated comment", `<!-- never closed`, ErrUnterminatedComment},
		{"tag starts with digit", `<1div>`, ErrMalformedTag},
		{"end tag with digit", `</di5v>`, ErrMalformedTag},
		{"empty end tag", `</>`, ErrMalformedTag},
		{"end tag split name", `</d iv>`, ErrMalformedTag},
		{"unterminated tag", `<p class="x"`, ErrMalformedTag},
		{"slash without gt", `<br/x>`, ErrMalformedTag},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			lx := NewStringLexer(c.input)
			var err error
			for err == nil {
				_, err = lx.NextToken()
			}
			if !errors.Is(err, c.err) {
				t.Fatalf("err = %v; want %v", err, c.err)
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v; want *SyntaxError", err)
			}
		})
	}
}

func TestLexerTextTrimming(t *testing.T) {
	tokens := collectTokens(t, NewStringLexer("<p>  spaced out  </p>"))
	if tokens[1].Type != TextToken || tokens[1].Data != "spaced out" {
		t.Fatalf("text token = %v; want %q", tokens[1], "spaced out")
	}
}

func TestLexerEntitiesKeptVerbatim(t *testing.T) {
	tokens := collectTokens(t, NewStringLexer("<p>a &amp; b</p>"))
	if tokens[1].Data != "a &amp; b" {
		t.Fatalf("text = %q; references must not be decoded during lexing", tokens[1].Data)
	}
}

func TestLexerSingleEOFToken(t *testing.T) {
	lx := NewStringLexer("  ")
	tok, err := lx.NextToken()
	if err != nil || tok.Type != EOFToken {
		t.Fatalf("got %v, %v; want EOF token", tok, err)
	}
	if _, err := lx.NextToken(); err != io.EOF {
		t.Fatalf("second call err = %v; want io.EOF", err)
	}
	if _, err := lx.NextToken(); err != io.EOF {
		t.Fatalf("third call err = %v; want io.EOF", err)
	}
}

// A read failure mid-document must surface as the I/O error, never as a
// clean EOF token or a syntax error.
func TestLexerStreamReadError(t *testing.T) {
	ioErr := errors.New("connection reset")

	t.Run("between tokens", func(t *testing.T) {
		lx := NewStreamLexer(io.MultiReader(
			strings.NewReader("<p>partial"), failingReader{ioErr}))

		tok, err := lx.NextToken()
		if err != nil || tok.Type != StartTagToken || tok.Data != "p" {
			t.Fatalf("first token = %v, %v; want start tag p", tok, err)
		}
		_, err = lx.NextToken()
		if !errors.Is(err, ioErr) {
			t.Fatalf("err = %v; want %v", err, ioErr)
		}
		// The error sticks.
		if _, err := lx.NextToken(); !errors.Is(err, ioErr) {
			t.Fatalf("repeated call err = %v; want %v", err, ioErr)
		}
	})

	t.Run("inside a tag", func(t *testing.T) {
		lx := NewStreamLexer(io.MultiReader(
			strings.NewReader(`<p class="x`), failingReader{ioErr}))

		_, err := lx.NextToken()
		if !errors.Is(err, ioErr) {
			t.Fatalf("err = %v; want %v, not a syntax error", err, ioErr)
		}
	})

	t.Run("clean eof is not an error", func(t *testing.T) {
		lx := NewStreamLexer(strings.NewReader("<p>done</p>"))
		tokens := collectTokens(t, lx)
		if tokens[len(tokens)-1].Type != EOFToken {
			t.Fatalf("tokens = %v; want trailing EOF token", tokens)
		}
	})
}

func TestLexerSpansCountCharacters(t *testing.T) {
	// Multi-byte characters advance the position by one, not by their
	// encoded length.
	tokens := collectTokens(t, NewStringLexer("<p>é€</p>"))
	if want := (Span{3, 5}); tokens[1].Span != want {
		t.Fatalf("text span = %v; want %v", tokens[1].Span, want)
	}
	if want := (Span{5, 9}); tokens[2].Span != want {
		t.Fatalf("end tag span = %v; want %v", tokens[2].Span, want)
	}
}
