package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ytget/ytpick"
	"github.com/ytget/ytpick/client"
	"github.com/ytget/ytpick/internal/console"
	"github.com/ytget/ytpick/internal/logger"
	"github.com/ytget/ytpick/internal/paths"
	"github.com/ytget/ytpick/progress"
)

type options struct {
	output    string
	timeout   time.Duration
	retries   int
	userAgent string
	proxy     string
	rateLimit int64
	noColor   bool
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	os.Exit(run(context.Background(), opts, os.Stdin, console.Stdout(opts.noColor), os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var (
		opts     options
		flagRate string
		flagSet  = flag.NewFlagSet("ytpick", flag.ContinueOnError)
	)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&opts.output, "output", "", "Destination directory (default: your Downloads folder)")
	flagSet.DurationVar(&opts.timeout, "http-timeout", 30*time.Second, "Timeout waiting for HTTP response headers (e.g., 30s, 1m)")
	flagSet.IntVar(&opts.retries, "retries", 3, "HTTP retries for transient errors")
	flagSet.StringVar(&opts.userAgent, "ua", "", "Override User-Agent header")
	flagSet.StringVar(&opts.proxy, "proxy", "", "Proxy URL (http/https/socks5)")
	flagSet.StringVar(&flagRate, "rate-limit", "", "Download rate limit (e.g., 2MiB/s, 500KiB/s)")
	flagSet.BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")

	flagSet.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags]\n", flagSet.Name())
		fmt.Fprintln(stderr, "\nReads a YouTube link from stdin and downloads the chosen quality.")
		fmt.Fprintln(stderr, "\nFlags:")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return opts, err
	}
	if flagSet.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(flagSet.Args(), " "))
		flagSet.Usage()
		return opts, errors.New("unexpected arguments")
	}

	rate, err := parseRate(flagRate)
	if err != nil {
		fmt.Fprintf(stderr, "invalid -rate-limit %q: %v\n", flagRate, err)
		return opts, err
	}
	opts.rateLimit = rate
	return opts, nil
}

// run wires the application and returns the process exit code.
func run(ctx context.Context, opts options, stdin io.Reader, con *console.Console, stderr io.Writer) int {
	logCfg, err := logger.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Error: logging: %v\n", err)
		return 1
	}
	if err := logCfg.ValidateConfig(); err != nil {
		fmt.Fprintf(stderr, "Error: logging: %v\n", err)
		return 1
	}
	l, err := logger.CreateLoggerFromConfig(logCfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: logging: %v\n", err)
		return 1
	}
	logger.SetGlobalLogger(l)

	dest := opts.output
	if dest == "" {
		if dest, err = paths.DownloadsDir(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	c := client.NewWith(client.Config{
		Timeout:   opts.timeout,
		Retries:   opts.retries,
		UserAgent: opts.userAgent,
		ProxyURL:  opts.proxy,
	})
	reporter := progress.NewReporter(con)
	resolver := ytpick.NewResolver().
		WithHTTPClient(c.HTTPClient).
		WithProgress(reporter.OnProgress).
		WithComplete(reporter.OnComplete).
		WithRateLimit(opts.rateLimit)

	if err := ytpick.NewApp(con, stdin, resolver, dest).Run(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// parseRate parses strings like "2MiB/s", "500KiB/s" or "1000000" into bytes
// per second. An empty string disables limiting.
func parseRate(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.HasSuffix(strings.ToLower(s), "/s") {
		s = strings.TrimSpace(s[:len(s)-2])
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errors.New("rate must be positive")
	}
	return int64(n), nil
}
