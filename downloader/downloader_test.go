package downloader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"
)

func TestDownload_WritesFileAndReportsProgress(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), copyBufferSizeBytes*2+10)
	out := filepath.Join(t.TempDir(), "nested", "video.mp4")

	var reports []Progress
	d := New(func(p Progress) error {
		reports = append(reports, p)
		return nil
	}, 0)

	if err := d.Download(context.Background(), bytes.NewReader(payload), int64(len(payload)), out); err != nil {
		t.Fatalf("Download: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("content mismatch: %d bytes, want %d", len(got), len(payload))
	}
	if _, err := os.Stat(out + temporaryFileSuffix); !os.IsNotExist(err) {
		t.Errorf("temporary file should be renamed away, stat err = %v", err)
	}

	if len(reports) < 3 {
		t.Fatalf("expected at least 3 progress reports, got %d", len(reports))
	}
	last := reports[len(reports)-1]
	if last.Remaining() != 0 || last.Percent() != 100 {
		t.Errorf("last report = %+v, want complete", last)
	}
	for i := 1; i < len(reports); i++ {
		if reports[i].DownloadedSize <= reports[i-1].DownloadedSize {
			t.Fatalf("progress must be monotonic: %+v then %+v", reports[i-1], reports[i])
		}
	}
}

func TestDownload_SmallReads(t *testing.T) {
	out := filepath.Join(t.TempDir(), "a.m4a")
	calls := 0
	d := New(func(p Progress) error { calls++; return nil }, 0)

	err := d.Download(context.Background(), iotest.OneByteReader(strings.NewReader("abcde")), 5, out)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if calls != 5 {
		t.Errorf("expected one report per read, got %d", calls)
	}
}

func TestDownload_Empty(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.mp4")
	d := New(nil, 0)

	err := d.Download(context.Background(), strings.NewReader(""), 0, out)
	if !errors.Is(err, ErrEmptyDownload) {
		t.Fatalf("expected ErrEmptyDownload, got %v", err)
	}
	if _, err := os.Stat(out + temporaryFileSuffix); !os.IsNotExist(err) {
		t.Errorf("empty temporary file should be removed")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("no output file expected")
	}
}

func TestDownload_ReadErrorKeepsPartialFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "broken.mp4")
	boom := errors.New("connection reset")
	body := io.MultiReader(strings.NewReader("partial"), iotest.ErrReader(boom))

	err := New(nil, 0).Download(context.Background(), body, 100, out)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
	data, statErr := os.ReadFile(out + temporaryFileSuffix)
	if statErr != nil {
		t.Fatalf("partial file should stay on disk: %v", statErr)
	}
	if string(data) != "partial" {
		t.Errorf("partial content = %q", data)
	}
}

func TestDownload_ProgressErrorAborts(t *testing.T) {
	out := filepath.Join(t.TempDir(), "abort.mp4")
	stop := errors.New("stop")
	d := New(func(Progress) error { return stop }, 0)

	err := d.Download(context.Background(), strings.NewReader("data"), 4, out)
	if !errors.Is(err, stop) {
		t.Fatalf("expected progress error, got %v", err)
	}
}

func TestDownload_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(nil, 0).Download(ctx, strings.NewReader("data"), 4, filepath.Join(t.TempDir(), "c.mp4"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDownload_RateLimit(t *testing.T) {
	out := filepath.Join(t.TempDir(), "slow.mp4")
	payload := bytes.Repeat([]byte("y"), 3000)
	d := New(nil, 1000) // 1000 B/s, burst 1000

	start := time.Now()
	if err := d.Download(context.Background(), bytes.NewReader(payload), int64(len(payload)), out); err != nil {
		t.Fatalf("Download: %v", err)
	}
	// first 1000 bytes pass on the initial burst, the remaining 2000 need ~2s
	if elapsed := time.Since(start); elapsed < 1500*time.Millisecond {
		t.Errorf("rate limit not applied, took %v", elapsed)
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		p         Progress
		remaining int64
		percent   float64
	}{
		{Progress{TotalSize: 200, DownloadedSize: 100}, 100, 50},
		{Progress{TotalSize: 200, DownloadedSize: 200}, 0, 100},
		{Progress{TotalSize: 0, DownloadedSize: 10}, -10, 0},
	}
	for _, tt := range tests {
		if got := tt.p.Remaining(); got != tt.remaining {
			t.Errorf("%+v Remaining() = %d, want %d", tt.p, got, tt.remaining)
		}
		if got := tt.p.Percent(); got != tt.percent {
			t.Errorf("%+v Percent() = %v, want %v", tt.p, got, tt.percent)
		}
	}
}
