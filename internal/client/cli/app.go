package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/treasurehunt/internal/client/client"
	"github.com/dmitrijs2005/treasurehunt/internal/client/config"
	"github.com/dmitrijs2005/treasurehunt/internal/common"
	"github.com/fatih/color"
)

var (
	success = color.New(color.FgGreen).SprintFunc()
	failure = color.New(color.FgRed).SprintFunc()
	notice  = color.New(color.FgYellow).SprintFunc()
)

type App struct {
	config   *config.Config
	client   *client.Client
	reader   *bufio.Reader
	out      io.Writer
	progress bool
	ended    bool
}

// NewApp connects to the configured server.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	cl, err := client.Dial(ctx, c.ServerEndpointAddr, c.DialTimeout)
	if err != nil {
		return nil, err
	}
	return newApp(c, cl, os.Stdin, os.Stdout, stdoutIsTerminal()), nil
}

func newApp(c *config.Config, cl *client.Client, in io.Reader, out io.Writer, progress bool) *App {
	return &App{
		config:   c,
		client:   cl,
		reader:   bufio.NewReader(in),
		out:      out,
		progress: progress,
	}
}

// Run prints the greeting and serves the REPL until the quest ends.
func (a *App) Run(ctx context.Context) {
	defer a.client.Close()

	for _, l := range a.client.Greeting() {
		printlnFn(l)
	}
	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) status() string {
	return fmt.Sprintf("(%s)", a.config.ServerEndpointAddr)
}

func (a *App) wrapper(label string) (client.WrapFunc, func()) {
	if !a.progress {
		return nil, func() {}
	}
	p := &progress{out: a.out, label: label}
	return p.wrap, p.finish
}

func (a *App) Treasure(ctx context.Context, path string) error {
	wrap, finish := a.wrapper(filepath.Base(path))
	stored, err := client.UploadFile(ctx, a.client, path, wrap)
	finish()

	switch {
	case err == nil:
		printlnFn(success(fmt.Sprintf("TREASURE BURIED! (%s)", stored)))
	case errors.Is(err, os.ErrNotExist):
		printlnFn(failure("TREASURE NOT FOUND!"))
	case errors.Is(err, common.ErrorIntegrity):
		printlnFn(failure("TREASURE CORRUPTED! Upload failed."))
	default:
		printlnFn(failure("Upload failed: " + err.Error()))
	}
	return err
}

func (a *App) Reveal(ctx context.Context, name string) error {
	dest := filepath.Join(a.config.DownloadDir, name)
	if _, err := os.Stat(dest); err == nil {
		if !Confirm(a.reader, fmt.Sprintf("%s already exists. Overwrite?", dest), a.out) {
			printlnFn(notice("Skipped."))
			return nil
		}
	}

	wrap, finish := a.wrapper(name)
	path, err := client.DownloadFile(ctx, a.client, name, a.config.DownloadDir, wrap)
	finish()

	switch {
	case err == nil:
		printlnFn(success(fmt.Sprintf("TREASURE UNEARTHED! (%s)", path)))
	case errors.Is(err, common.ErrorNotFound):
		printlnFn(failure("TREASURE NOT FOUND!"))
	case errors.Is(err, common.ErrorIntegrity):
		printlnFn(failure("TREASURE CORRUPTED! Download failed."))
	case errors.Is(err, common.ErrorShortTransfer):
		printlnFn(notice("Download interrupted; run reveal again to resume."))
	default:
		printlnFn(failure("Download failed: " + err.Error()))
	}
	return err
}

func (a *App) Map(ctx context.Context) error {
	names, err := a.client.List(ctx)
	if err != nil {
		printlnFn(failure("Listing failed: " + err.Error()))
		return err
	}
	if len(names) == 0 {
		printlnFn("No treasures available.")
		return nil
	}
	printlnFn("Buried Treasures:")
	printlnFn(strings.Join(names, "\n"))
	return nil
}

func (a *App) EndQuest(ctx context.Context) error {
	if a.ended {
		return nil
	}
	a.ended = true

	farewell, err := a.client.End(ctx)
	if err != nil {
		printlnFn("Connection closed.")
		return err
	}
	printlnFn(farewell)
	return nil
}
