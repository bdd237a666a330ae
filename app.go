package ytpick

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ytget/ytpick/internal/console"
	"github.com/ytget/ytpick/internal/logger"
	"github.com/ytget/ytpick/menu"
)

const (
	linkPrompt = "Youtube link: "
	farewell   = "Bye...\n\n"
)

// App is the interactive flow: ask for a link, show its metadata and let the
// user pick what to download.
type App struct {
	con         *console.Console
	in          *bufio.Reader
	resolver    *Resolver
	destination string
}

// NewApp creates an App reading answers from in and saving into destination.
func NewApp(con *console.Console, in io.Reader, resolver *Resolver, destination string) *App {
	br, ok := in.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(in)
	}
	return &App{con: con, in: br, resolver: resolver, destination: destination}
}

// Run executes one link-to-download session. Cancelling from the menu is
// not an error.
func (a *App) Run(ctx context.Context) error {
	log := logger.WithComponent(logger.ComponentApp)

	fmt.Fprint(a.con, linkPrompt)
	link, err := a.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || link == "") {
		return fmt.Errorf("read link: %w", err)
	}

	link = strings.TrimSpace(link)
	info, err := a.resolver.Resolve(ctx, link)
	if err != nil {
		return err
	}
	a.printInfo(info)

	options := []menu.Option{
		{Label: "best", Color: console.Green, ActionName: "best quality", Action: streamAction(info.HighestResolution)},
		{Label: "worst", Color: console.Yellow, ActionName: "lowest quality", Action: streamAction(info.LowestResolution)},
		{Label: "audio", Color: console.Blue, ActionName: "audio only", Action: streamAction(info.AudioOnly)},
	}
	if err := menu.Validate(options); err != nil {
		return err
	}

	key, err := menu.New(a.con, a.in, a.destination).Present(ctx, link, options...)
	if err != nil {
		return err
	}
	log.Info("menu finished", map[string]interface{}{"key": string(key), "id": info.ID})

	fmt.Fprint(a.con, farewell)
	return nil
}

func (a *App) printInfo(info *VideoInfo) {
	label := func(s string) string { return a.con.Paint(s, console.Red) }
	fmt.Fprintf(a.con, "%s%s\n", label("title:  "), info.Title)
	fmt.Fprintf(a.con, "%s%.2f minutes\n", label("length: "), info.Duration.Minutes())
	fmt.Fprintf(a.con, "%s%.2f million\n", label("views:  "), float64(info.Views)/1e6)
	fmt.Fprintf(a.con, "%s%s\n", label("author: "), info.Author)
}

// streamAction adapts a stream selector to a menu action.
func streamAction(pick func() (*Stream, error)) func() (menu.Stream, error) {
	return func() (menu.Stream, error) {
		s, err := pick()
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
