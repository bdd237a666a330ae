// Package formats picks the stream behind each menu choice from the formats
// the extraction library reports for a video.
//
// Progressive formats (video with an audio track) are used for the best and
// worst choices so the result plays without muxing. MP4 is preferred over
// other containers, matching what most players handle.
package formats

import (
	"github.com/kkdai/youtube/v2"
)

// PreferredSubtype is the container tried first for every choice.
const PreferredSubtype = "mp4"

// Highest returns the progressive format with the greatest height, using
// bitrate as a tiebreaker. It returns nil when there is no progressive format.
func Highest(list youtube.FormatList) *youtube.Format {
	return pick(list, isProgressive, betterByHeightThenBitrate)
}

// Lowest returns the progressive format with the smallest height, using
// bitrate as a tiebreaker. It returns nil when there is no progressive format.
func Lowest(list youtube.FormatList) *youtube.Format {
	return pick(list, isProgressive, func(candidate, current *youtube.Format) bool {
		return betterByHeightThenBitrate(current, candidate)
	})
}

// AudioOnly returns the audio-only format with the highest bitrate, or nil.
func AudioOnly(list youtube.FormatList) *youtube.Format {
	return pick(list, isAudioOnly, betterByBitrate)
}

// pick filters list with keep, narrows to PreferredSubtype when possible and
// returns the winner under better.
func pick(list youtube.FormatList, keep func(*youtube.Format) bool, better func(candidate, current *youtube.Format) bool) *youtube.Format {
	var all, preferred []*youtube.Format
	for i := range list {
		f := &list[i]
		if !keep(f) {
			continue
		}
		all = append(all, f)
		if mimeSubtypeEquals(f, PreferredSubtype) {
			preferred = append(preferred, f)
		}
	}
	candidates := preferred
	if len(candidates) == 0 {
		candidates = all
	}
	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	for _, f := range candidates[1:] {
		if better(f, best) {
			best = f
		}
	}
	return best
}
