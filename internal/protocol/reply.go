package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/treasurehunt/internal/common"
)

// Fixed server replies.
const (
	ReplyCorrupted       = "TREASURE CORRUPTED! Upload failed."
	ReplyInvalidTreasure = "INVALID TREASURE COMMAND!"
	ReplyNotFound        = "TREASURE NOT FOUND!"
	ReplyInvalidReveal   = "INVALID REVEAL COMMAND!"
	ReplyNoFiles         = "No files available."
	ReplyFarewell        = "QUEST ENDED! Safe travels, adventurer."
	ReplyInvalidCommand  = "INVALID COMMAND!"

	buriedPrefix = "TREASURE BURIED! ("
	readyPrefix  = "READY "
)

// Greeting is the banner sent on accept. It ends with an empty line.
var Greeting = []string{
	"Welcome to Treasure Hunt!",
	"Choose an option:",
	"1. TREASURE <filename> <size> <sha256> (Upload)",
	"2. REVEAL <filename> [offset] (Download)",
	"3. MAP (List Files)",
	"4. END QUEST (Exit)",
}

func Buried(name string) string {
	return buriedPrefix + name + ")"
}

func Ready(size int64, digest string) string {
	return fmt.Sprintf("%s%d %s", readyPrefix, size, digest)
}

// ParseBuried extracts the stored name from a success reply.
func ParseBuried(line string) (string, bool) {
	if !strings.HasPrefix(line, buriedPrefix) || !strings.HasSuffix(line, ")") {
		return "", false
	}
	return line[len(buriedPrefix) : len(line)-1], true
}

// ParseReady extracts size and digest from a READY reply.
func ParseReady(line string) (int64, string, error) {
	if !strings.HasPrefix(line, readyPrefix) {
		return 0, "", fmt.Errorf("%w: %q", common.ErrorUnknownReply, line)
	}

	fields := strings.Fields(line[len(readyPrefix):])
	if len(fields) != 2 {
		return 0, "", fmt.Errorf("%w: %q", common.ErrorUnknownReply, line)
	}

	size, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || size < 0 {
		return 0, "", fmt.Errorf("%w: size %q", common.ErrorInvalidSize, fields[0])
	}

	return size, fields[1], nil
}
