package menu

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/ytpick/errs"
	"github.com/ytget/ytpick/internal/console"
)

type fakeStream struct {
	dirs []string
	path string
	err  error
}

func (s *fakeStream) Download(_ context.Context, dir string) (string, error) {
	s.dirs = append(s.dirs, dir)
	return s.path, s.err
}

type recorder struct {
	calls  map[string]int
	stream *fakeStream
}

func newRecorder() *recorder {
	return &recorder{calls: map[string]int{}, stream: &fakeStream{path: "/tmp/x.mp4"}}
}

func (r *recorder) action(name string) func() (Stream, error) {
	return func() (Stream, error) {
		r.calls[name]++
		return r.stream, nil
	}
}

func (r *recorder) total() int {
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

func (r *recorder) options() []Option {
	return []Option{
		{Label: "best", Color: console.Green, ActionName: "best quality", Action: r.action("best")},
		{Label: "worst", Color: console.Yellow, ActionName: "lowest quality", Action: r.action("worst")},
		{Label: "audio", Color: console.Blue, ActionName: "audio only", Action: r.action("audio")},
	}
}

func newMenu(input, dest string) (*Menu, *bytes.Buffer) {
	var out bytes.Buffer
	return New(console.New(&out, true), strings.NewReader(input), dest), &out
}

func TestPresent_AcceptsEachHotkey(t *testing.T) {
	for _, key := range []string{"b", "w", "a"} {
		t.Run(key, func(t *testing.T) {
			rec := newRecorder()
			m, _ := newMenu(key+"\n", "/home/me/Downloads")

			got, err := m.Present(context.Background(), "https://youtu.be/x", rec.options()...)

			require.NoError(t, err)
			assert.Equal(t, rune(key[0]), got)
			assert.Equal(t, 1, rec.total(), "exactly one action")
			assert.Equal(t, []string{"/home/me/Downloads"}, rec.stream.dirs, "exactly one download")
		})
	}
}

func TestPresent_RoutesToBoundAction(t *testing.T) {
	rec := newRecorder()
	m, _ := newMenu("w\n", "/d")

	_, err := m.Present(context.Background(), "link", rec.options()...)

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"worst": 1}, rec.calls)
}

func TestPresent_Cancel(t *testing.T) {
	rec := newRecorder()
	m, out := newMenu("c\n", "/d")

	got, err := m.Present(context.Background(), "link", rec.options()...)

	require.NoError(t, err)
	assert.Equal(t, CancelKey, got)
	assert.Zero(t, rec.total())
	assert.Empty(t, rec.stream.dirs)
	assert.NotContains(t, out.String(), "Downloading")
}

func TestPresent_RejectsInvalidInputAndLoops(t *testing.T) {
	rec := newRecorder()
	// uppercase, multi-char, unknown key, blank, then a padded valid one
	m, out := newMenu("B\nbest\nx\n\n  a  \n", "/d")

	got, err := m.Present(context.Background(), "link", rec.options()...)

	require.NoError(t, err)
	assert.Equal(t, 'a', got)
	assert.Equal(t, 4, strings.Count(out.String(), "  > Bad input. Try again.\n"))
	assert.Equal(t, 5, strings.Count(out.String(), "\ndownload: "))
	assert.Equal(t, map[string]int{"audio": 1}, rec.calls)
}

func TestPresent_AcceptsExactlyValidKeys(t *testing.T) {
	valid := map[string]bool{"b": true, "w": true, "a": true, "c": true}
	candidates := []string{"a", "b", "c", "d", "w", "A", "B", "C", "W", "z", "0", "é", "bw", "-"}
	for _, in := range candidates {
		_, ok := match(in, newRecorder().options())
		assert.Equal(t, valid[in], ok, "input %q", in)
	}
}

func TestPresent_PromptFormat(t *testing.T) {
	rec := newRecorder()
	m, out := newMenu("c\n", "/d")

	_, err := m.Present(context.Background(), "link", rec.options()...)

	require.NoError(t, err)
	assert.Equal(t, "\ndownload: (b)est | (w)orst | (a)udio | (c)ancel: ", out.String())
}

func TestPresent_Confirmation(t *testing.T) {
	rec := newRecorder()
	m, out := newMenu("b\n", "/d")

	_, err := m.Present(context.Background(), "https://youtu.be/abc", rec.options()...)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "\nDownloading BEST QUALITY of https://youtu.be/abc\n")
}

func TestPresent_EmptyOptionsOffersOnlyCancel(t *testing.T) {
	m, out := newMenu("b\nc\n", "/d")

	got, err := m.Present(context.Background(), "link")

	require.NoError(t, err)
	assert.Equal(t, CancelKey, got)
	assert.Contains(t, out.String(), "\ndownload: (c)ancel: ")
	assert.Contains(t, out.String(), "Bad input")
}

func TestPresent_EOF(t *testing.T) {
	rec := newRecorder()
	m, _ := newMenu("x\n", "/d")

	_, err := m.Present(context.Background(), "link", rec.options()...)

	assert.ErrorIs(t, err, io.EOF)
	assert.Zero(t, rec.total())
}

func TestPresent_LastLineWithoutNewline(t *testing.T) {
	rec := newRecorder()
	m, _ := newMenu("a", "/d")

	got, err := m.Present(context.Background(), "link", rec.options()...)

	require.NoError(t, err)
	assert.Equal(t, 'a', got)
}

func TestPresent_PropagatesActionError(t *testing.T) {
	noStream := errors.New("no audio")
	opts := []Option{{Label: "audio", ActionName: "audio only", Action: func() (Stream, error) {
		return nil, noStream
	}}}
	m, _ := newMenu("a\n", "/d")

	got, err := m.Present(context.Background(), "link", opts...)

	assert.Equal(t, 'a', got)
	assert.ErrorIs(t, err, noStream)
}

func TestPresent_PropagatesDownloadError(t *testing.T) {
	rec := newRecorder()
	rec.stream.err = errors.New("connection reset")
	m, _ := newMenu("b\n", "/d")

	_, err := m.Present(context.Background(), "link", rec.options()...)

	assert.ErrorIs(t, err, rec.stream.err)
	assert.Len(t, rec.stream.dirs, 1)
}

func TestPresent_NativeDestinationPassedThrough(t *testing.T) {
	rec := newRecorder()
	m, _ := newMenu("b\n", `C:\Users\me\Downloads`)

	_, err := m.Present(context.Background(), "link", rec.options()...)

	require.NoError(t, err)
	assert.Equal(t, []string{`C:\Users\me\Downloads`}, rec.stream.dirs)
}

func TestPresent_DuplicateHotkeyFirstWins(t *testing.T) {
	rec := newRecorder()
	opts := []Option{
		{Label: "best", ActionName: "one", Action: rec.action("one")},
		{Label: "bass", ActionName: "two", Action: rec.action("two")},
	}
	m, _ := newMenu("b\n", "/d")

	_, err := m.Present(context.Background(), "link", opts...)

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"one": 1}, rec.calls)
}

func TestValidate(t *testing.T) {
	noop := func() (Stream, error) { return nil, nil }
	tests := []struct {
		name    string
		options []Option
		wantErr bool
	}{
		{"none", nil, false},
		{"distinct", newRecorder().options(), false},
		{"duplicate", []Option{{Label: "best", Action: noop}, {Label: "bass", Action: noop}}, true},
		{"collides with cancel", []Option{{Label: "compact", Action: noop}}, true},
		{"empty label", []Option{{Label: "", Action: noop}}, true},
		{"no action", []Option{{Label: "best"}}, true},
		{"case differs", []Option{{Label: "best", Action: noop}, {Label: "Best", Action: noop}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.options)
			if tt.wantErr {
				assert.ErrorIs(t, err, errs.ErrConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOptionKey(t *testing.T) {
	assert.Equal(t, 'b', Option{Label: "best"}.Key())
	assert.Equal(t, 'é', Option{Label: "énorme"}.Key())
}
