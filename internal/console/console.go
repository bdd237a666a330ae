// Package console owns the process-wide terminal formatting state.
//
// A Console is created once at startup and lives until the process exits;
// it needs no teardown.
package console

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
)

// Color is a tag naming one of the colours used on the console.
type Color int

const (
	Default Color = iota
	Red
	Green
	Yellow
	Blue
	Cyan
	LightBlue
)

var attributes = map[Color]color.Attribute{
	Red:       color.FgRed,
	Green:     color.FgGreen,
	Yellow:    color.FgYellow,
	Blue:      color.FgBlue,
	Cyan:      color.FgCyan,
	LightBlue: color.FgHiBlue,
}

// Console writes to a terminal, colouring text on request.
type Console struct {
	out     io.Writer
	noColor bool
	palette map[Color]*color.Color
}

// New returns a Console writing to out. A nil out means standard output,
// wrapped so ANSI sequences also work on Windows terminals.
func New(out io.Writer, noColor bool) *Console {
	if out == nil {
		out = colorable.NewColorableStdout()
	}
	palette := make(map[Color]*color.Color, len(attributes))
	for tag, attr := range attributes {
		c := color.New(attr)
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
		palette[tag] = c
	}
	return &Console{out: out, noColor: noColor, palette: palette}
}

// Stdout returns the console used by the command-line program. Colour is
// dropped when stdout is not a terminal or NO_COLOR is set.
func Stdout(noColor bool) *Console {
	return New(colorable.NewColorableStdout(), noColor || color.NoColor || os.Getenv("NO_COLOR") != "")
}

// Writer returns the underlying output.
func (c *Console) Writer() io.Writer {
	return c.out
}

// Paint wraps text in the colour and a reset sequence.
func (c *Console) Paint(text string, tag Color) string {
	p, ok := c.palette[tag]
	if !ok {
		return text
	}
	return p.Sprint(text)
}

// Write implements io.Writer.
func (c *Console) Write(p []byte) (int, error) {
	return c.out.Write(p)
}
