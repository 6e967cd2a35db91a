package html

import "testing"

func TestEncodingHistory(t *testing.T) {
	h, err := NewEncodingHistory(64)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	const url = "http://example.test/a"

	if _, ok := h.Lookup(url); ok {
		t.Fatal("Lookup hit before anything was remembered")
	}

	h.Remember(url, ShiftJIS)
	if enc, ok := h.Lookup(url); !ok || enc != ShiftJIS {
		t.Fatalf("Lookup = %v, %v; want Shift_JIS, true", enc, ok)
	}

	// A later resolution overwrites the earlier one.
	h.Remember(url, UTF8)
	if enc, ok := h.Lookup(url); !ok || enc != UTF8 {
		t.Fatalf("Lookup after update = %v, %v; want UTF-8, true", enc, ok)
	}

	if _, ok := h.Lookup("http://example.test/other"); ok {
		t.Fatal("Lookup hit for a URL that was never recorded")
	}
}

func TestEncodingHistoryNilSafe(t *testing.T) {
	var h *EncodingHistory
	h.Remember("http://example.test/", UTF8)
	if _, ok := h.Lookup("http://example.test/"); ok {
		t.Fatal("nil history returned a hit")
	}

	h2, err := NewEncodingHistory(8)
	if err != nil {
		t.Fatal(err)
	}
	defer h2.Close()
	h2.Remember("", Windows1252)
	if _, ok := h2.Lookup(""); ok {
		t.Fatal("empty URL must not be recorded")
	}
}
