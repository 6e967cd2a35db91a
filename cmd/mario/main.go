// Mario serves a handful of test pages in assorted encodings, for
// exercising bowser and the sniffing code against a live server.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

var listen = flag.String("listen", "localhost:8080", "address to serve on")

func main() {
	flag.Parse()

	http.HandleFunc("/", index)
	http.HandleFunc("/utf8", utf8Page)
	http.HandleFunc("/meta-1252", meta1252Page)
	http.HandleFunc("/sjis", sjisPage)
	http.HandleFunc("/gzip", gzipPage)
	http.HandleFunc("/late-meta", lateMetaPage)

	log.Printf("serving test pages on http://%s/", *listen)
	log.Fatal(http.ListenAndServe(*listen, nil))
}

func index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<body>
<p>Test pages:</p>
<p><a href=/utf8>utf8</a> declared in the Content-Type header</p>
<p><a href=/meta-1252>meta-1252</a> windows-1252, declared only in a meta tag</p>
<p><a href=/sjis>sjis</a> Shift_JIS, declared in a meta http-equiv pragma</p>
<p><a href=/gzip>gzip</a> gzip transfer encoding</p>
<p><a href=/late-meta>late-meta</a> meta charset beyond the prescan window</p>
</body>
</html>
`)
}

func utf8Page(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<!DOCTYPE html><p>café — こんにちは</p>")
}

func meta1252Page(w http.ResponseWriter, r *http.Request) {
	page := `<!DOCTYPE html><meta charset="windows-1252"><p>café costs €5</p>`
	encoded, err := charmap.Windows1252.NewEncoder().String(page)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, encoded)
}

func sjisPage(w http.ResponseWriter, r *http.Request) {
	page := `<!DOCTYPE html><meta http-equiv="Content-Type" content="text/html; charset=shift_jis"><p>こんにちは</p>`
	encoded, err := japanese.ShiftJIS.NewEncoder().String(page)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, encoded)
}

func gzipPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Encoding", "gzip")
	gz := gzip.NewWriter(w)
	defer gz.Close()
	fmt.Fprint(gz, "<!DOCTYPE html><p>compressed café</p>")
}

// lateMetaPage pads a kilobyte of comment before its meta charset, so
// the prescan misses it and the declaration is only seen by the full
// parse.
func lateMetaPage(w http.ResponseWriter, r *http.Request) {
	page := "<!DOCTYPE html><!-- " + strings.Repeat("x", 1100) + ` --><meta charset="windows-1252"><p>caf` + "\xe9" + "</p>"
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, page)
}
