package formats

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"
)

var heightRe = regexp.MustCompile(`([0-9]{3,4})p`)

func mediaType(format *youtube.Format) (string, string) {
	mime := strings.ToLower(strings.TrimSpace(format.MimeType))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	typ, sub, _ := strings.Cut(mime, "/")
	return typ, sub
}

// mimeSubtypeEquals checks that MIME subtype (e.g., mp4, webm) equals desiredExt.
// The desiredExt is case-insensitive and may start with a dot.
func mimeSubtypeEquals(format *youtube.Format, desiredExt string) bool {
	desired := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(desiredExt)), ".")
	_, sub := mediaType(format)
	return sub == desired
}

// height prefers the reported pixel height and falls back to the quality label.
func height(format *youtube.Format) int {
	if format.Height > 0 {
		return format.Height
	}
	m := heightRe.FindStringSubmatch(format.QualityLabel)
	if len(m) >= 2 {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return v
		}
	}
	return 0
}

func bitrate(format *youtube.Format) int {
	if format.AverageBitrate > 0 {
		return format.AverageBitrate
	}
	return format.Bitrate
}

// isProgressive reports formats that carry both video and audio.
func isProgressive(format *youtube.Format) bool {
	typ, _ := mediaType(format)
	return typ == "video" && format.AudioChannels > 0
}

// isAudioOnly reports formats without a video track.
func isAudioOnly(format *youtube.Format) bool {
	typ, _ := mediaType(format)
	return typ == "audio"
}

// betterByHeightThenBitrate compares two formats and returns true when candidate is better than current
// using height as primary criterion and bitrate as a tiebreaker.
func betterByHeightThenBitrate(candidate, current *youtube.Format) bool {
	ch, cur := height(candidate), height(current)
	if ch != cur {
		return ch > cur
	}
	return bitrate(candidate) > bitrate(current)
}

// betterByBitrate is the audio counterpart of betterByHeightThenBitrate.
func betterByBitrate(candidate, current *youtube.Format) bool {
	return bitrate(candidate) > bitrate(current)
}
