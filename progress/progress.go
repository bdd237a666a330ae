// Package progress renders a single-line, in-place download progress bar.
package progress

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/ytget/ytpick/errs"
	"github.com/ytget/ytpick/internal/console"
	"github.com/ytget/ytpick/internal/logger"
	"github.com/ytget/ytpick/internal/paths"
)

const (
	// BarWidth is the number of cells in the bar.
	BarWidth = 20

	filledCell = "#"
	emptyCell  = " "
)

// Reporter receives download callbacks and redraws the current console line.
// It is the only writer to the console while a download runs.
type Reporter struct {
	con *console.Console
	mu  sync.Mutex
}

// NewReporter returns a Reporter drawing on con.
func NewReporter(con *console.Console) *Reporter {
	return &Reporter{con: con}
}

// Percent returns the completed share of totalSize in [0, 100]. It fails with
// errs.ErrInvalidState when totalSize is not positive or bytesRemaining
// exceeds totalSize. A stream longer than announced (negative remaining)
// reads as 100%.
func Percent(totalSize, bytesRemaining int64) (float64, error) {
	if totalSize <= 0 {
		return 0, fmt.Errorf("progress: total size %d: %w", totalSize, errs.ErrInvalidState)
	}
	if bytesRemaining < 0 {
		return 100, nil
	}
	if bytesRemaining > totalSize {
		return 0, fmt.Errorf("progress: %d bytes remaining of %d: %w", bytesRemaining, totalSize, errs.ErrInvalidState)
	}
	return float64(totalSize-bytesRemaining) * 100 / float64(totalSize), nil
}

// Bar returns the BarWidth-wide bar for percent, with half cells rounded to even.
func Bar(percent float64) string {
	filled := int(math.RoundToEven(percent * BarWidth / 100))
	filled = min(max(filled, 0), BarWidth)
	return strings.Repeat(filledCell, filled) + strings.Repeat(emptyCell, BarWidth-filled)
}

// OnProgress redraws the bar as `\r  > [bar] NN.NN%` without a newline.
func (r *Reporter) OnProgress(totalSize, bytesRemaining int64) error {
	percent, err := Percent(totalSize, bytesRemaining)
	if err != nil {
		logger.WithComponent(logger.ComponentProgress).Error("inconsistent progress", map[string]interface{}{
			"total":     totalSize,
			"remaining": bytesRemaining,
		})
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, err = fmt.Fprintf(r.con, "\r  > [%s] %.2f%%", r.con.Paint(Bar(percent), console.Green), percent)
	return err
}

// OnComplete replaces the bar with the final path and ends the line.
func (r *Reporter) OnComplete(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.con, "\rdownload complete! -> %s \n\n", r.con.Paint(paths.Display(path), console.LightBlue))
}
