package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/treasurehunt/internal/common"
)

// Kind tags the variant held by a Command.
type Kind int

const (
	KindUnknown Kind = iota
	KindTreasure
	KindReveal
	KindMap
	KindEndQuest
)

func (k Kind) String() string {
	switch k {
	case KindTreasure:
		return VerbTreasure
	case KindReveal:
		return VerbReveal
	case KindMap:
		return VerbMap
	case KindEndQuest:
		return VerbEndQuest
	default:
		return "UNKNOWN"
	}
}

const (
	VerbTreasure = "TREASURE"
	VerbReveal   = "REVEAL"
	VerbMap      = "MAP"
	VerbEndQuest = "ENDQUEST"
)

// Command is one parsed control line. Only the fields of its Kind are set:
// TREASURE uses Name, Size and Digest; REVEAL uses Name and Offset.
type Command struct {
	Kind   Kind
	Name   string
	Size   int64
	Digest string
	Offset int64
	Raw    string
}

// ParseError reports a malformed control line. Kind names the verb that was
// recognised (KindUnknown when the verb itself was not).
type ParseError struct {
	Kind   Kind
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s command: %s", e.Kind, e.Reason)
}

func (e *ParseError) Unwrap() error { return common.ErrorProtocol }

// Reply is the status line a server sends back for this error.
func (e *ParseError) Reply() string {
	switch e.Kind {
	case KindTreasure:
		return ReplyInvalidTreasure
	case KindReveal:
		return ReplyInvalidReveal
	default:
		return ReplyInvalidCommand
	}
}

// Parse turns one control line (without its terminator) into a Command.
//
// The verb is case-insensitive. TREASURE and REVEAL arguments are split from
// the right, so file names may contain spaces. ENDQUEST is also accepted
// with whitespace inside it ("END QUEST").
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	cmd := Command{Raw: line}

	if strings.EqualFold(strings.Join(strings.Fields(line), ""), VerbEndQuest) {
		cmd.Kind = KindEndQuest
		return cmd, nil
	}

	verb, rest := splitVerb(line)

	switch strings.ToUpper(verb) {
	case VerbTreasure:
		return parseTreasure(cmd, rest)
	case VerbReveal:
		return parseReveal(cmd, rest)
	case VerbMap:
		if rest != "" {
			return cmd, &ParseError{Kind: KindMap, Reason: "unexpected arguments"}
		}
		cmd.Kind = KindMap
		return cmd, nil
	case "":
		return cmd, &ParseError{Kind: KindUnknown, Reason: "empty line"}
	default:
		return cmd, &ParseError{Kind: KindUnknown, Reason: fmt.Sprintf("unknown verb %q", verb)}
	}
}

func parseTreasure(cmd Command, rest string) (Command, error) {
	fields := rsplit(rest, 2)
	if len(fields) != 3 || fields[0] == "" {
		return cmd, &ParseError{Kind: KindTreasure, Reason: "want <name> <size> <digest>"}
	}

	size, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || size < 0 {
		return cmd, &ParseError{Kind: KindTreasure, Reason: fmt.Sprintf("bad size %q", fields[1])}
	}

	cmd.Kind = KindTreasure
	cmd.Name = fields[0]
	cmd.Size = size
	cmd.Digest = fields[2]
	return cmd, nil
}

func parseReveal(cmd Command, rest string) (Command, error) {
	if rest == "" {
		return cmd, &ParseError{Kind: KindReveal, Reason: "want <name> [offset]"}
	}

	fields := rsplit(rest, 1)
	cmd.Name = fields[0]

	if len(fields) == 2 {
		offset, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || offset < 0 {
			return cmd, &ParseError{Kind: KindReveal, Reason: fmt.Sprintf("bad offset %q", fields[1])}
		}
		cmd.Offset = offset
	}

	if cmd.Name == "" {
		return cmd, &ParseError{Kind: KindReveal, Reason: "empty name"}
	}

	cmd.Kind = KindReveal
	return cmd, nil
}

// splitVerb cuts line at the first run of whitespace.
func splitVerb(line string) (string, string) {
	i := strings.IndexFunc(line, isSpace)
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimLeftFunc(line[i:], isSpace)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}

// rsplit splits s on single spaces from the right, at most n times.
func rsplit(s string, n int) []string {
	parts := make([]string, 0, n+1)
	for len(parts) < n {
		i := strings.LastIndexByte(s, ' ')
		if i < 0 {
			break
		}
		parts = append(parts, s[i+1:])
		s = s[:i]
	}
	parts = append(parts, s)

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return parts
}

// FormatTreasure renders an upload request line (without terminator).
func FormatTreasure(name string, size int64, digest string) string {
	return fmt.Sprintf("%s %s %d %s", VerbTreasure, name, size, digest)
}

// FormatReveal renders a download request line. Offset 0 is omitted unless
// the name contains a space, which would otherwise be read as the offset
// separator.
func FormatReveal(name string, offset int64) string {
	if offset > 0 || strings.Contains(name, " ") {
		return fmt.Sprintf("%s %s %d", VerbReveal, name, offset)
	}
	return VerbReveal + " " + name
}
