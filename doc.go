// Package ytpick resolves a YouTube link, shows its metadata and downloads
// the quality the user picks from a small console menu.
//
// Metadata and stream retrieval are delegated to github.com/kkdai/youtube/v2.
// This package adds stream selection (best, worst, audio only), file naming
// and the progress and completion hooks that drive the console output.
package ytpick
