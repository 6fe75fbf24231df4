package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/treasurehunt/internal/client/client"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Treasure(ctx context.Context, path string) error
	Reveal(ctx context.Context, name string) error
	Map(ctx context.Context) error
	EndQuest(ctx context.Context) error
}

const helpText = "Available commands: treasure <path>, reveal <name>, map, endquest, help"

// runREPL reads commands from reader and dispatches them to a until the
// quest ends, input runs out, or the connection is lost.
//
// Verbs are case-insensitive. Everything after the verb is taken verbatim
// (trimmed) as the path or name, so names may contain spaces. Errors from
// handlers are reported by the handlers themselves; the loop only stops
// when the connection is gone.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("th %s> ", statusFn()))
		raw, err := reader.ReadString('\n')
		if err != nil && raw == "" {
			_ = a.EndQuest(ctx)
			return
		}

		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		verb, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		err = nil
		switch strings.ToLower(verb) {
		case "help":
			printlnFn(helpText)

		case "treasure", "upload":
			if arg == "" {
				printlnFn("INVALID COMMAND! Usage: treasure <path>")
				continue
			}
			err = a.Treasure(ctx, arg)

		case "reveal", "download":
			if arg == "" {
				printlnFn("INVALID COMMAND! Usage: reveal <name>")
				continue
			}
			err = a.Reveal(ctx, arg)

		case "map", "list":
			err = a.Map(ctx)

		case "endquest", "exit", "quit":
			_ = a.EndQuest(ctx)
			return

		case "end":
			if strings.EqualFold(arg, "quest") {
				_ = a.EndQuest(ctx)
				return
			}
			printlnFn("INVALID COMMAND!", line)

		default:
			printlnFn("INVALID COMMAND!", verb)
		}

		if errors.Is(err, client.ErrClosed) {
			printlnFn("Connection closed.")
			return
		}
	}
}
