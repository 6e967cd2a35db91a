package html

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

func TestParseContentType(t *testing.T) {
	cases := []struct {
		header string
		want   ContentType
	}{
		{"text/html", ContentType{MediaType: "text/html"}},
		{"text/html; charset=utf-8", ContentType{"text/html", "utf-8"}},
		{"text/html; charset=UTF-8", ContentType{"text/html", "utf-8"}},
		{`text/html; charset="Windows-1252"`, ContentType{"text/html", "windows-1252"}},
		{"application/xhtml+xml;charset=iso-8859-2", ContentType{"application/xhtml+xml", "iso-8859-2"}},
		{"", ContentType{}},
		{"not a media type at all;;;", ContentType{}},
	}
	for _, c := range cases {
		if got := ParseContentType(c.header); got != c.want {
			t.Errorf("ParseContentType(%q) = %+v; want %+v", c.header, got, c.want)
		}
	}
}

func fetchBody(t *testing.T, handler http.HandlerFunc) *Page {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	page, err := NewClient(ClientConfig{}).Fetch(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { page.Body.Close() })
	return page
}

func TestFetchPlain(t *testing.T) {
	page := fetchBody(t, func(w http.ResponseWriter, r *http.Request) {
		if ae := r.Header.Get("Accept-Encoding"); ae != "br, gzip, deflate" {
			t.Errorf("Accept-Encoding = %q", ae)
		}
		if ua := r.Header.Get("User-Agent"); ua != defaultUserAgent {
			t.Errorf("User-Agent = %q; want %q", ua, defaultUserAgent)
		}
		w.Header().Set("Content-Type", "text/html; charset=koi8-r")
		io.WriteString(w, "<p>hello</p>")
	})

	if page.StatusCode != http.StatusOK {
		t.Errorf("status = %d", page.StatusCode)
	}
	if page.ContentType.Charset != "koi8-r" {
		t.Errorf("charset = %q; want koi8-r", page.ContentType.Charset)
	}
	body, err := io.ReadAll(page.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "<p>hello</p>" {
		t.Errorf("body = %q", body)
	}
}

func TestFetchGzip(t *testing.T) {
	page := fetchBody(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		io.WriteString(gz, "<p>compressed</p>")
	})

	body, err := io.ReadAll(page.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "<p>compressed</p>" {
		t.Errorf("body = %q", body)
	}
}

func TestFetchBrotli(t *testing.T) {
	page := fetchBody(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		bw := brotli.NewWriter(w)
		defer bw.Close()
		io.WriteString(bw, "<p>small</p>")
	})

	body, err := io.ReadAll(page.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "<p>small</p>" {
		t.Errorf("body = %q", body)
	}
}

func TestFetchDeflate(t *testing.T) {
	page := fetchBody(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "deflate")
		fw, err := flate.NewWriter(w, flate.DefaultCompression)
		if err != nil {
			t.Error(err)
			return
		}
		defer fw.Close()
		io.WriteString(fw, "<p>deflated</p>")
	})

	body, err := io.ReadAll(page.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "<p>deflated</p>" {
		t.Errorf("body = %q", body)
	}
}

func TestFetchUnsupportedEncoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "zstd")
		io.WriteString(w, "x")
	}))
	defer srv.Close()

	if _, err := NewClient(ClientConfig{}).Fetch(srv.URL); err == nil {
		t.Fatal("Fetch accepted an unsupported Content-Encoding")
	}
}

// Fetching and sniffing end to end: the transport charset feeds the
// parser when the document itself declares nothing.
func TestFetchIntoParser(t *testing.T) {
	page := fetchBody(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1252")
		w.Write([]byte("<p>caf\xe9</p>"))
	})

	p := NewParserWithOptions(page.Body, ParserOptions{
		TransportCharset: page.ContentType.Charset,
	})
	doc, err := p.TryParse()
	if err != nil {
		t.Fatal(err)
	}
	if doc.Encoding != Windows1252 || doc.Confidence != Certain {
		t.Fatalf("got %v, %v; want windows-1252, certain", doc.Encoding, doc.Confidence)
	}
	var text string
	for _, tok := range doc.Tokens {
		if tok.Type == TextToken {
			text = tok.Data
		}
	}
	if text != "café" {
		t.Fatalf("text = %q; want café", text)
	}
}
