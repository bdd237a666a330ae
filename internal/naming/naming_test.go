package naming

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExt(t *testing.T) {
	cases := map[string]string{
		"video/mp4":                           "mp4",
		"audio/mp4":                           "m4a",
		"video/webm":                          "webm",
		"audio/webm; codecs=\"opus\"":         "webm",
		"video/3gpp":                          "3gp",
		"video/unknown":                       "unknown",
		"":                                    "mp4",
		"video/mp4; codecs=\"avc1, mp4a\"":    "mp4",
		"VIDEO/MP4":                           "mp4",
		"garbage":                             "mp4",
		"audio/mp4; codecs=\"mp4a.40.2\"; x=": "m4a",
	}
	for in, want := range cases {
		if got := Ext(in); got != want {
			t.Fatalf("%q -> %q (want %q)", in, got, want)
		}
	}
}

func TestFileName_Basics(t *testing.T) {
	got := FileName("Hello:/\\*?\"<>| World", "video/mp4")
	if got != "Hello_ World.mp4" {
		t.Fatalf("got %q", got)
	}
}

func TestFileName_Defaults(t *testing.T) {
	if got := FileName("", ""); got != "video.mp4" {
		t.Fatalf("got %q", got)
	}
	if got := FileName("...", "audio/mp4"); got != "video.m4a" {
		t.Fatalf("got %q", got)
	}
}

func TestBase_Long(t *testing.T) {
	title := strings.Repeat("a", 200)
	if got := Base(title); len(got) != MaxBaseLength {
		t.Fatalf("len = %d", len(got))
	}
}

func TestBase_LongMultibyte(t *testing.T) {
	title := strings.Repeat("é", 100) // 200 bytes
	got := Base(title)
	if len(got) > MaxBaseLength {
		t.Fatalf("too long: %d", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
}

func TestBase_Normalises(t *testing.T) {
	decomposed := "Cafe\u0301"
	if got := Base(decomposed); got != "Caf\u00e9" {
		t.Fatalf("got %q", got)
	}
}

func TestBase_LongWithInvalidUTF8(t *testing.T) {
	got := Base("ab\xffcd" + strings.Repeat("x", 200))

	if len(got) != MaxBaseLength {
		t.Errorf("len = %d, want %d", len(got), MaxBaseLength)
	}
	if !utf8.ValidString(got) {
		t.Errorf("result is not valid UTF-8: %q", got)
	}
	if !strings.HasPrefix(got, "ab_cdxxx") {
		t.Errorf("invalid bytes should be replaced in place, got %q", got[:10])
	}
}
