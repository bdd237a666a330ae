// Package downloader writes a media stream to disk, reporting progress and
// optionally throttling throughput.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/ytget/ytpick/internal/logger"
)

const (
	temporaryFileSuffix = ".tmp"    // suffix for the file being written
	copyBufferSizeBytes = 32 * 1024 // 32KB
	dirPermissions      = 0o755
)

// ErrEmptyDownload is returned when the stream ends before any byte arrives.
var ErrEmptyDownload = errors.New("empty download: 0 bytes written")

// Progress holds information about download progress.
type Progress struct {
	TotalSize      int64
	DownloadedSize int64
}

// Remaining returns the number of bytes still expected.
func (p Progress) Remaining() int64 {
	return p.TotalSize - p.DownloadedSize
}

// Percent returns completion in [0, 100], or 0 when the size is unknown.
func (p Progress) Percent() float64 {
	if p.TotalSize <= 0 {
		return 0
	}
	return float64(p.DownloadedSize) / float64(p.TotalSize) * 100
}

// Downloader copies streams to files.
type Downloader struct {
	// ProgressFunc is called after every write. A non-nil error aborts the download.
	ProgressFunc func(Progress) error

	limiter *rate.Limiter
}

// New creates a downloader. bytesPerSecond <= 0 disables rate limiting.
func New(progressFunc func(Progress) error, bytesPerSecond int64) *Downloader {
	d := &Downloader{ProgressFunc: progressFunc}
	if bytesPerSecond > 0 {
		burst := copyBufferSizeBytes
		if bytesPerSecond < int64(burst) {
			burst = int(bytesPerSecond)
		}
		d.limiter = rate.NewLimiter(rate.Limit(bytesPerSecond), burst)
	}
	return d
}

// Download reads body until EOF into outputPath. totalSize is the size
// announced by the source and is passed through to ProgressFunc unchanged.
//
// Data is written to outputPath+".tmp" and renamed once complete. A failed
// download leaves the temporary file in place.
func (d *Downloader) Download(ctx context.Context, body io.Reader, totalSize int64, outputPath string) error {
	log := logger.WithComponent(logger.ComponentDownloader)
	log.Info("starting download", map[string]interface{}{
		"path": outputPath,
		"size": humanize.IBytes(uint64(max(totalSize, 0))),
	})

	if err := os.MkdirAll(filepath.Dir(outputPath), dirPermissions); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmpPath := outputPath + temporaryFileSuffix
	outFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = outFile.Close() }()

	var burst int
	if d.limiter != nil {
		burst = d.limiter.Burst()
	}

	buf := make([]byte, copyBufferSizeBytes)
	if burst > 0 && burst < len(buf) {
		buf = buf[:burst]
	}
	downloaded := int64(0)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, werr := outFile.Write(buf[:n]); werr != nil {
				return fmt.Errorf("failed to write chunk: %w", werr)
			}
			downloaded += int64(n)
			if d.ProgressFunc != nil {
				if perr := d.ProgressFunc(Progress{TotalSize: totalSize, DownloadedSize: downloaded}); perr != nil {
					return perr
				}
			}
			if d.limiter != nil {
				if werr := d.limiter.WaitN(ctx, n); werr != nil {
					return werr
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("failed to read stream: %w", rerr)
		}
	}

	if downloaded == 0 {
		_ = outFile.Close()
		_ = os.Remove(tmpPath)
		return ErrEmptyDownload
	}
	if totalSize > 0 && downloaded != totalSize {
		log.Warn("size mismatch", map[string]interface{}{
			"expected": totalSize,
			"got":      downloaded,
		})
	}
	if err := outFile.Close(); err != nil {
		return fmt.Errorf("failed to flush output file: %w", err)
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		return fmt.Errorf("failed to finalise output file: %w", err)
	}

	log.Info("download finished", map[string]interface{}{
		"path": outputPath,
		"size": humanize.IBytes(uint64(downloaded)),
	})
	return nil
}
