// Bowser fetches a web page, sniffs its character encoding, and prints
// the token stream.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/parsekit/html"
)

var (
	configFile  = flag.String("config", "", "path to YAML configuration file")
	userCharset = flag.String("charset", "", "character encoding chosen by the user, overriding detection")
	showSpans   = flag.Bool("spans", false, "print source spans alongside tokens")
	unescape    = flag.Bool("unescape", false, "decode character references in token data")
)

type config struct {
	UserAgent      string `yaml:"user_agent"`
	Timeout        string `yaml:"timeout"`
	ConnectTimeout string `yaml:"connect_timeout"`
	Charset        string `yaml:"charset"`
	HistorySize    int64  `yaml:"history_size"`
}

func loadConfig(path string) (*config, error) {
	c := &config{HistorySize: 1024}
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing %s: %v", path, err)
	}
	return c, nil
}

func duration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] url-or-file\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	target := flag.Arg(0)

	conf, err := loadConfig(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	if *userCharset != "" {
		conf.Charset = *userCharset
	}

	body, transportCharset, err := fetch(target, conf)
	if err != nil {
		log.Fatal(err)
	}

	history, err := html.NewEncodingHistory(conf.HistorySize)
	if err != nil {
		log.Fatal(err)
	}
	defer history.Close()

	opts := html.ParserOptions{
		UserCharset:      conf.Charset,
		TransportCharset: transportCharset,
		History:          history,
		DocumentURL:      target,
	}

	doc, err := parse(body, opts)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("encoding: %v (%v)\n", doc.Encoding, doc.Confidence)
	for _, tok := range doc.Tokens {
		if *unescape {
			tok = tok.Unescape()
		}
		if *showSpans {
			fmt.Println(tok)
		} else {
			printToken(tok)
		}
	}
}

// fetch returns the raw document bytes and the charset declared by the
// transport, if any. A target without a scheme is read as a local file.
func fetch(target string, conf *config) ([]byte, string, error) {
	if !strings.Contains(target, "://") {
		data, err := os.ReadFile(target)
		return data, "", err
	}

	connectTimeout, err := duration(conf.ConnectTimeout)
	if err != nil {
		return nil, "", fmt.Errorf("connect_timeout: %v", err)
	}
	timeout, err := duration(conf.Timeout)
	if err != nil {
		return nil, "", fmt.Errorf("timeout: %v", err)
	}

	client := html.NewClient(html.ClientConfig{
		ConnectTimeout: connectTimeout,
		Timeout:        timeout,
		UserAgent:      conf.UserAgent,
	})
	page, err := client.Fetch(target)
	if err != nil {
		return nil, "", err
	}
	defer page.Body.Close()

	data, err := io.ReadAll(page.Body)
	if err != nil {
		return nil, "", err
	}
	return data, page.ContentType.Charset, nil
}

// parse runs the document through the sniffing parser, restarting once
// with the declared encoding if a late <meta> invalidates the first
// pass.
func parse(body []byte, opts html.ParserOptions) (*html.Document, error) {
	p := html.NewParserWithOptions(bytes.NewReader(body), opts)
	doc, err := p.TryParse()

	var restart *html.RestartError
	if errors.As(err, &restart) {
		p = html.NewParserWithEncoding(bytes.NewReader(body), restart.Encoding)
		doc, err = p.TryParse()
	}
	return doc, err
}

func printToken(tok html.Token) {
	switch tok.Type {
	case html.DoctypeToken:
		fmt.Printf("doctype %s\n", tok.Data)
	case html.CommentToken:
		fmt.Printf("comment %q\n", tok.Data)
	case html.StartTagToken, html.SelfClosingTagToken:
		fmt.Printf("open    <%s>", tok.Data)
		for k, v := range tok.Attr {
			fmt.Printf(" %s=%q", k, v)
		}
		fmt.Println()
	case html.EndTagToken:
		fmt.Printf("close   </%s>\n", tok.Data)
	case html.TextToken:
		fmt.Printf("text    %q\n", tok.Data)
	case html.EOFToken:
		fmt.Println("eof")
	}
}
