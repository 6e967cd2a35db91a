package html

import (
	"errors"
	"strings"
	"testing"
)

func TestParseEncodingLabel(t *testing.T) {
	cases := []struct {
		label string
		want  Encoding
	}{
		{"utf-8", UTF8},
		{"UTF-8", UTF8},
		{"unicode-1-1-utf-8", UTF8},
		{"  utf-8  ", UTF8},
		{"\tUTF8\n", UTF8},
		{"l1", Windows1252},
		{"latin1", Windows1252},
		{"ascii", Windows1252},
		{"us-ascii", Windows1252},
		{"iso-8859-1", Windows1252},
		{"windows-1252", Windows1252},
		{"cp866", IBM866},
		{"latin2", ISO8859_2},
		{"iso-8859-8-i", ISO8859_8I},
		{"logical", ISO8859_8I},
		{"visual", ISO8859_8},
		{"koi8-r", KOI8R},
		{"koi8-ru", KOI8U},
		{"mac", Macintosh},
		{"x-mac-roman", Macintosh},
		{"dos-874", Windows874},
		{"tis-620", Windows874},
		{"x-cp1250", Windows1250},
		{"cyrillic", ISO8859_5},
		{"arabic", ISO8859_6},
		{"greek", ISO8859_7},
		{"hebrew", ISO8859_8},
		{"x-mac-ukrainian", XMacCyrillic},
		{"gbk", GBK},
		{"gb2312", GBK},
		{"chinese", GBK},
		{"gb18030", GB18030},
		{"big5", Big5},
		{"big5-hkscs", Big5},
		{"euc-jp", EUCJP},
		{"iso-2022-jp", ISO2022JP},
		{"shift_jis", ShiftJIS},
		{"sjis", ShiftJIS},
		{"ms932", ShiftJIS},
		{"euc-kr", EUCKR},
		{"korean", EUCKR},
		{"csiso2022kr", Replacement},
		{"hz-gb-2312", Replacement},
		{"utf-16", UTF16LE},
		{"utf-16le", UTF16LE},
		{"utf-16be", UTF16BE},
		{"x-user-defined", XUserDefined},
	}
	for _, c := range cases {
		got, err := ParseEncodingLabel(c.label)
		if err != nil {
			t.Errorf("ParseEncodingLabel(%q): %v", c.label, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseEncodingLabel(%q) = %v; want %v", c.label, got, c.want)
		}
	}
}

func TestParseEncodingLabelUnknown(t *testing.T) {
	for _, label := range []string{"", "utf-9", "binary", "klingon", "utf 8", "utf-8 x"} {
		if _, err := ParseEncodingLabel(label); !errors.Is(err, ErrUnknownEncoding) {
			t.Errorf("ParseEncodingLabel(%q) err = %v; want ErrUnknownEncoding", label, err)
		}
	}
}

// Every canonical name is itself a label for its encoding, so the table
// must round-trip.
func TestCanonicalNamesRoundTrip(t *testing.T) {
	for i := range canonicalNames {
		enc := Encoding(i)
		got, err := ParseEncodingLabel(enc.String())
		if err != nil {
			t.Errorf("canonical name %q is not a recognized label: %v", enc.String(), err)
			continue
		}
		if got != enc {
			t.Errorf("ParseEncodingLabel(%q) = %v; want %v", enc.String(), got, enc)
		}
	}
}

func TestLabelTableShape(t *testing.T) {
	if len(canonicalNames) != 40 {
		t.Errorf("len(canonicalNames) = %d; want 40", len(canonicalNames))
	}
	if len(encodingLabels) < 200 {
		t.Errorf("len(encodingLabels) = %d; want at least 200", len(encodingLabels))
	}
	for label, enc := range encodingLabels {
		if label != strings.ToLower(label) {
			t.Errorf("label %q is not lower-case", label)
		}
		if int(enc) < 0 || int(enc) >= len(canonicalNames) {
			t.Errorf("label %q maps to out-of-range encoding %d", label, int(enc))
		}
	}
}

func TestIsUTF16(t *testing.T) {
	for enc, want := range map[Encoding]bool{
		UTF16BE: true,
		UTF16LE: true,
		UTF8:    false,
		GB18030: false,
	} {
		if got := enc.isUTF16(); got != want {
			t.Errorf("%v.isUTF16() = %v; want %v", enc, got, want)
		}
	}
}
