// Package errs holds the sentinel errors shared across ytpick packages.
//
// Callers wrap them with fmt.Errorf("...: %w", err) and test with errors.Is.
package errs

import (
	"errors"
)

var (
	// ErrInvalidState indicates inconsistent data reported by the extraction
	// library, such as a stream with a zero total size.
	ErrInvalidState = errors.New("invalid state")
	// ErrConfig indicates a menu or flag configuration that cannot be used.
	ErrConfig = errors.New("configuration error")
	// ErrInvalidURL indicates that the input is not a recognisable YouTube video link.
	ErrInvalidURL = errors.New("invalid youtube url")
	// ErrNoStream indicates that no stream matches the requested quality.
	ErrNoStream = errors.New("no suitable stream")
	// ErrVideoUnavailable indicates that the requested video cannot be accessed.
	ErrVideoUnavailable = errors.New("video unavailable")
	// ErrPrivate indicates that the video is private and cannot be downloaded.
	ErrPrivate = errors.New("video is private")
	// ErrAgeRestricted indicates that the video requires a signed-in, age-verified account.
	ErrAgeRestricted = errors.New("age restricted")
	// ErrRateLimited indicates throttling or rate limiting by the remote service.
	ErrRateLimited = errors.New("rate limited")
)
