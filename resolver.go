package ytpick

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/ytget/ytpick/downloader"
	"github.com/ytget/ytpick/errs"
	"github.com/ytget/ytpick/internal/logger"
	"github.com/ytget/ytpick/internal/naming"
	"github.com/ytget/ytpick/youtube/formats"
)

// videoClient is the part of youtube.Client the resolver uses.
type videoClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// ProgressFunc receives the stream size and the bytes still to come. A
// returned error aborts the download.
type ProgressFunc func(totalSize, bytesRemaining int64) error

// CompleteFunc receives the path of a finished download.
type CompleteFunc func(path string)

// Resolver turns links into VideoInfo values whose streams report through
// the registered hooks.
type Resolver struct {
	client       videoClient
	onProgress   ProgressFunc
	onComplete   CompleteFunc
	rateLimitBps int64
}

// NewResolver creates a Resolver backed by a default youtube.Client.
func NewResolver() *Resolver {
	return &Resolver{client: &youtube.Client{}}
}

// WithHTTPClient sets the HTTP client used for metadata and media requests.
func (r *Resolver) WithHTTPClient(c *http.Client) *Resolver {
	r.client = &youtube.Client{HTTPClient: c}
	return r
}

// WithProgress registers the progress hook for every stream of resolved videos.
func (r *Resolver) WithProgress(f ProgressFunc) *Resolver {
	r.onProgress = f
	return r
}

// WithComplete registers the completion hook for every stream of resolved videos.
func (r *Resolver) WithComplete(f CompleteFunc) *Resolver {
	r.onComplete = f
	return r
}

// WithRateLimit caps download speed in bytes per second. Zero disables limiting.
func (r *Resolver) WithRateLimit(bytesPerSecond int64) *Resolver {
	if bytesPerSecond < 0 {
		bytesPerSecond = 0
	}
	r.rateLimitBps = bytesPerSecond
	return r
}

// Resolve fetches metadata for a video link or bare video ID.
func (r *Resolver) Resolve(ctx context.Context, videoURL string) (*VideoInfo, error) {
	videoID, err := extractVideoID(videoURL)
	if err != nil {
		return nil, err
	}
	log := logger.WithComponent(logger.ComponentResolver).With(logger.Fields{"id": videoID})
	log.Debug("resolving video")

	video, err := r.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("get video %s: %w", videoID, mapError(err))
	}
	log.Info("video metadata received", logger.Fields{
		"title":   video.Title,
		"formats": len(video.Formats),
	})

	return &VideoInfo{
		ID:       video.ID,
		Title:    video.Title,
		Author:   video.Author,
		Duration: video.Duration,
		Views:    video.Views,
		video:    video,
		resolver: r,
	}, nil
}

// VideoInfo is a read-only view of a resolved video.
type VideoInfo struct {
	ID       string
	Title    string
	Author   string
	Duration time.Duration
	Views    int

	video    *youtube.Video
	resolver *Resolver
}

// HighestResolution returns the best progressive stream.
func (v *VideoInfo) HighestResolution() (*Stream, error) {
	return v.stream("highest resolution", formats.Highest)
}

// LowestResolution returns the smallest progressive stream.
func (v *VideoInfo) LowestResolution() (*Stream, error) {
	return v.stream("lowest resolution", formats.Lowest)
}

// AudioOnly returns the best audio-only stream.
func (v *VideoInfo) AudioOnly() (*Stream, error) {
	return v.stream("audio only", formats.AudioOnly)
}

func (v *VideoInfo) stream(kind string, pick func(youtube.FormatList) *youtube.Format) (*Stream, error) {
	f := pick(v.video.Formats)
	if f == nil {
		return nil, fmt.Errorf("%s stream for %s: %w", kind, v.ID, errs.ErrNoStream)
	}
	logger.WithComponent(logger.ComponentResolver).Debug("stream selected", map[string]interface{}{
		"kind":    kind,
		"itag":    f.ItagNo,
		"mime":    f.MimeType,
		"quality": f.QualityLabel,
	})
	return &Stream{Format: f, video: v}, nil
}

// Stream is one downloadable encoding of a video.
type Stream struct {
	Format *youtube.Format
	video  *VideoInfo
}

// Filesize returns the size announced in the metadata, 0 when unknown.
func (s *Stream) Filesize() int64 {
	return s.Format.ContentLength
}

// FileName returns the name the stream is stored under.
func (s *Stream) FileName() string {
	return naming.FileName(s.video.Title, s.Format.MimeType)
}

// Download stores the stream in dir and returns the platform-native path of
// the written file. The progress hook runs after every write; the completion
// hook runs once the file is in place.
func (s *Stream) Download(ctx context.Context, dir string) (string, error) {
	r := s.video.resolver
	outputPath := filepath.Join(dir, s.FileName())

	body, size, err := r.client.GetStreamContext(ctx, s.video.video, s.Format)
	if err != nil {
		return "", fmt.Errorf("open stream: %w", mapError(err))
	}
	defer func() { _ = body.Close() }()
	if size <= 0 {
		size = s.Filesize()
	}

	var report func(downloader.Progress) error
	if r.onProgress != nil {
		report = func(p downloader.Progress) error {
			return r.onProgress(p.TotalSize, p.Remaining())
		}
	}
	if err := downloader.New(report, r.rateLimitBps).Download(ctx, body, size, outputPath); err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	if r.onComplete != nil {
		r.onComplete(outputPath)
	}
	return outputPath, nil
}

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// extractVideoID accepts watch, youtu.be, shorts, embed and live links as
// well as a bare 11 character video ID.
func extractVideoID(videoURL string) (string, error) {
	videoURL = strings.TrimSpace(videoURL)
	if videoIDRe.MatchString(videoURL) {
		return videoURL, nil
	}

	u, err := url.Parse(videoURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%q: %w", videoURL, errs.ErrInvalidURL)
	}

	var id string
	switch host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."); host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtube-nocookie.com":
		path := strings.Trim(u.Path, "/")
		switch {
		case path == "watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(path, "shorts/"),
			strings.HasPrefix(path, "embed/"),
			strings.HasPrefix(path, "live/"),
			strings.HasPrefix(path, "v/"):
			_, id, _ = strings.Cut(path, "/")
		}
	}

	if !videoIDRe.MatchString(id) {
		return "", fmt.Errorf("%q: %w", videoURL, errs.ErrInvalidURL)
	}
	return id, nil
}

// mapError attaches the matching errs sentinel to a library error, keeping
// the original in the chain.
func mapError(err error) error {
	var sentinel error
	var playability *youtube.ErrPlayabiltyStatus
	var status youtube.ErrUnexpectedStatusCode

	switch {
	case errors.Is(err, youtube.ErrVideoPrivate):
		sentinel = errs.ErrPrivate
	case errors.Is(err, youtube.ErrLoginRequired):
		sentinel = errs.ErrAgeRestricted
	case errors.Is(err, youtube.ErrNotPlayableInEmbed):
		sentinel = errs.ErrVideoUnavailable
	case errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		sentinel = errs.ErrInvalidURL
	case errors.As(err, &playability):
		sentinel = errs.ErrVideoUnavailable
		if strings.Contains(strings.ToLower(playability.Reason), "private") {
			sentinel = errs.ErrPrivate
		}
	case errors.As(err, &status):
		if int(status) == http.StatusTooManyRequests {
			sentinel = errs.ErrRateLimited
		}
	}

	if sentinel == nil {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
