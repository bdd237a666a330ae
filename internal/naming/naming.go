// Package naming derives on-disk file names for downloaded streams.
package naming

import (
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxBaseLength caps the file name base in bytes, leaving room for the extension.
	MaxBaseLength = 120
	// DefaultExt is used when the MIME type is missing or unusable.
	DefaultExt = "mp4"
	// DefaultName replaces a blank title.
	DefaultName = "video"
)

var (
	unsafeChars = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)
	extByMime   = map[string]string{
		"video/mp4":  "mp4",
		"audio/mp4":  "m4a",
		"video/webm": "webm",
		"audio/webm": "webm",
		"video/3gpp": "3gp",
	}
)

// Ext returns the file extension (without dot) for a stream MIME type such as
// `video/mp4; codecs="avc1.64001F, mp4a.40.2"`.
func Ext(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return DefaultExt
	}
	base, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		// tolerate sloppy parameters, the media type itself is what matters
		base = strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	}
	if ext, ok := extByMime[base]; ok {
		return ext
	}
	if _, sub, ok := strings.Cut(base, "/"); ok && sub != "" {
		return sub
	}
	return DefaultExt
}

// Base turns a video title into a file name base that is safe on every
// platform: NFC-normalised, no path separators or reserved characters, and
// no longer than MaxBaseLength bytes.
func Base(title string) string {
	name := norm.NFC.String(strings.ToValidUTF8(strings.TrimSpace(title), "_"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")
	if len(name) > MaxBaseLength {
		name = name[:MaxBaseLength]
		// don't leave half a rune behind
		for !utf8.ValidString(name) {
			name = name[:len(name)-1]
		}
		name = strings.TrimRight(name, " .")
	}
	if name == "" {
		name = DefaultName
	}
	return name
}

// FileName combines Base and Ext.
func FileName(title, mimeType string) string {
	return filepath.Clean(Base(title) + "." + Ext(mimeType))
}
