// Package menu presents a colourised single-key choice on the console and
// runs the download bound to the chosen option.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ytget/ytpick/errs"
	"github.com/ytget/ytpick/internal/console"
	"github.com/ytget/ytpick/internal/logger"
)

// CancelKey selects the cancel entry appended to every menu.
const CancelKey = 'c'

const (
	cancelLabel = "cancel"
	promptHead  = "\ndownload: "
	separator   = " | "
	badInput    = "  > Bad input. Try again."
)

// Stream is a downloadable handle returned by an option's action.
type Stream interface {
	// Download stores the stream in dir and returns the written file path.
	Download(ctx context.Context, dir string) (string, error)
}

// Option is one menu entry. The first character of Label is its hotkey.
type Option struct {
	Label      string
	Color      console.Color
	ActionName string
	Action     func() (Stream, error)
}

// Key returns the option's hotkey.
func (o Option) Key() rune {
	r, _ := utf8.DecodeRuneInString(o.Label)
	return r
}

// Validate checks that every option has a label and an action and that no two
// hotkeys collide, the cancel key included.
func Validate(options []Option) error {
	seen := map[rune]string{CancelKey: cancelLabel}
	for _, o := range options {
		if o.Label == "" {
			return fmt.Errorf("menu option with empty label: %w", errs.ErrConfig)
		}
		if o.Action == nil {
			return fmt.Errorf("menu option %q has no action: %w", o.Label, errs.ErrConfig)
		}
		if prev, ok := seen[o.Key()]; ok {
			return fmt.Errorf("menu options %q and %q share hotkey %q: %w", prev, o.Label, o.Key(), errs.ErrConfig)
		}
		seen[o.Key()] = o.Label
	}
	return nil
}

// Menu reads selections from in and writes prompts to the console.
type Menu struct {
	con         *console.Console
	in          *bufio.Reader
	destination string
}

// New returns a Menu that downloads chosen streams into destination.
func New(con *console.Console, in io.Reader, destination string) *Menu {
	br, ok := in.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(in)
	}
	return &Menu{con: con, in: br, destination: destination}
}

// Present shows options plus cancel, keeps asking until one valid hotkey is
// entered and returns it. For any key but CancelKey it prints what is being
// downloaded, calls that option's Action once and Download once on the result.
//
// Options are expected to have distinct hotkeys (see Validate); when they do
// not, the first matching option wins. Errors from the action or the download
// are returned as they are. io.EOF is returned when input ends.
func (m *Menu) Present(ctx context.Context, subject string, options ...Option) (rune, error) {
	log := logger.WithComponent(logger.ComponentMenu)
	prompt := m.prompt(options)

	var pick rune
	for first := true; ; first = false {
		if !first {
			fmt.Fprintln(m.con, badInput)
		}
		fmt.Fprint(m.con, prompt)

		line, err := m.readLine()
		if err != nil {
			return 0, err
		}
		if key, ok := match(line, options); ok {
			pick = key
			break
		}
		log.Debug("rejected selection", map[string]interface{}{"input": line})
	}

	if pick == CancelKey {
		log.Info("selection cancelled")
		return pick, nil
	}

	opt := options[indexOf(pick, options)]
	fmt.Fprintf(m.con, "\nDownloading %s of %s\n",
		m.con.Paint(strings.ToUpper(opt.ActionName), opt.Color),
		m.con.Paint(subject, console.Cyan))
	log.Info("option selected", map[string]interface{}{"action": opt.ActionName, "subject": subject})

	stream, err := opt.Action()
	if err != nil {
		return pick, err
	}
	path, err := stream.Download(ctx, m.destination)
	if err != nil {
		return pick, err
	}
	log.Debug("stream stored", map[string]interface{}{"path": path})
	return pick, nil
}

// prompt renders `\ndownload: (b)est | (w)orst | (c)ancel: `, each entry in
// its own colour.
func (m *Menu) prompt(options []Option) string {
	all := make([]Option, 0, len(options)+1)
	all = append(all, options...)
	all = append(all, Option{Label: cancelLabel, Color: console.Red})

	entries := make([]string, 0, len(all))
	for _, o := range all {
		_, size := utf8.DecodeRuneInString(o.Label)
		entries = append(entries, m.con.Paint(fmt.Sprintf("(%s)%s", o.Label[:size], o.Label[size:]), o.Color))
	}
	return m.con.Paint(promptHead, console.Red) + strings.Join(entries, separator) + ": "
}

// readLine returns the next input line. A final line without a newline is
// still returned; io.EOF comes back only once nothing is left.
func (m *Menu) readLine() (string, error) {
	line, err := m.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return line, nil
		}
		return "", err
	}
	return line, nil
}

// match reports whether the trimmed line is exactly one valid hotkey.
func match(line string, options []Option) (rune, bool) {
	line = strings.TrimSpace(line)
	key, size := utf8.DecodeRuneInString(line)
	if line == "" || size != len(line) {
		return 0, false
	}
	if key == CancelKey {
		return key, true
	}
	return key, indexOf(key, options) >= 0
}

func indexOf(key rune, options []Option) int {
	for i, o := range options {
		if o.Key() == key {
			return i
		}
	}
	return -1
}
