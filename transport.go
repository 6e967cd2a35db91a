package html

import (
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

// ClientConfig controls how documents are fetched over HTTP.
type ClientConfig struct {
	// ConnectTimeout bounds the TCP connection attempt.
	ConnectTimeout time.Duration

	// Timeout bounds the whole request, headers and body included.
	Timeout time.Duration

	UserAgent string
}

const defaultUserAgent = "bowser/1.0"

// A Client fetches documents, transparently undoing transfer
// compression so that callers always see the document's own bytes.
type Client struct {
	hc        *http.Client
	userAgent string
}

func NewClient(conf ClientConfig) *Client {
	if conf.ConnectTimeout == 0 {
		conf.ConnectTimeout = 10 * time.Second
	}
	if conf.Timeout == 0 {
		conf.Timeout = 60 * time.Second
	}
	if conf.UserAgent == "" {
		conf.UserAgent = defaultUserAgent
	}

	dialer := &net.Dialer{
		Timeout:   conf.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: conf.ConnectTimeout,
		// The body is decompressed by hand so that the charset sniff
		// sees the same bytes a browser would.
		DisableCompression: true,
	}

	return &Client{
		hc: &http.Client{
			Transport: transport,
			Timeout:   conf.Timeout,
		},
		userAgent: conf.UserAgent,
	}
}

// A ContentType is the parsed Content-Type header of a response.
type ContentType struct {
	MediaType string
	Charset   string
}

// ParseContentType splits a Content-Type header value into its media
// type and charset parameter. The charset is folded to lower case; a
// missing or unparseable header yields empty fields.
func ParseContentType(header string) ContentType {
	if header == "" {
		return ContentType{}
	}
	mt, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ContentType{}
	}
	return ContentType{
		MediaType: mt,
		Charset:   strings.ToLower(params["charset"]),
	}
}

// A Page is a fetched document, its body still compressed-transport
// free but otherwise untouched.
type Page struct {
	URL         string
	StatusCode  int
	ContentType ContentType
	Body        io.ReadCloser
}

// Fetch retrieves the document at url. The caller owns Body and must
// close it.
func (c *Client) Fetch(url string) (*Page, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Encoding", "br, gzip, deflate")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}

	body, err := decompressedBody(resp)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}

	return &Page{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: ParseContentType(resp.Header.Get("Content-Type")),
		Body:        body,
	}, nil
}

// decompressedBody wraps the response body in the decoder its
// Content-Encoding calls for.
func decompressedBody(resp *http.Response) (io.ReadCloser, error) {
	switch ce := resp.Header.Get("Content-Encoding"); ce {
	case "", "identity":
		return resp.Body, nil
	case "br":
		return readCloser{brotli.NewReader(resp.Body), resp.Body}, nil
	case "gzip":
		gzr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		return readCloser{gzr, resp.Body}, nil
	case "deflate":
		return readCloser{flate.NewReader(resp.Body), resp.Body}, nil
	default:
		return nil, fmt.Errorf("unsupported Content-Encoding %q", ce)
	}
}

type readCloser struct {
	io.Reader
	io.Closer
}
