package protocol

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/dmitrijs2005/treasurehunt/internal/common"
)

// MaxLineLength bounds a single control line, terminator included.
const MaxLineLength = 4096

// ReadLine reads one "\n"-terminated line and strips the terminator (and a
// preceding "\r"). Bytes after the newline stay buffered in r, so payload
// that follows a command is not lost.
//
// A line longer than max is consumed up to its newline and reported as
// common.ErrorLineTooLong. A final unterminated line before EOF is returned
// as is; io.EOF is returned only when nothing was read.
func ReadLine(r *bufio.Reader, max int) (string, error) {
	var sb strings.Builder
	tooLong := false

	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if sb.Len()+len(chunk) > max {
				tooLong = true
				sb.Reset()
			} else {
				sb.Write(chunk)
			}
		}

		switch {
		case err == nil:
			if tooLong {
				return "", common.ErrorLineTooLong
			}
			return trimEOL(sb.String()), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if tooLong {
				return "", common.ErrorLineTooLong
			}
			if sb.Len() == 0 {
				return "", io.EOF
			}
			return trimEOL(sb.String()), nil
		default:
			return "", err
		}
	}
}

func trimEOL(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

// ReadBlock reads lines until an empty line and returns them.
func ReadBlock(r *bufio.Reader, max int) ([]string, error) {
	var lines []string
	for {
		line, err := ReadLine(r, max)
		if err != nil {
			return lines, err
		}
		if line == "" {
			return lines, nil
		}
		lines = append(lines, line)
	}
}

// WriteLine writes s followed by "\n".
func WriteLine(w io.Writer, s string) error {
	_, err := io.WriteString(w, s+"\n")
	return err
}

// WriteBlock writes each line and the terminating empty line.
func WriteBlock(w io.Writer, lines []string) error {
	for _, l := range lines {
		if err := WriteLine(w, l); err != nil {
			return err
		}
	}
	return WriteLine(w, "")
}
