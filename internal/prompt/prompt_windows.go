//go:build windows

package prompt

import (
	"fmt"
	"io"
	"os"
)

const ctrlD = 0x04

type windowsConfirmer struct {
	in  io.Reader
	out io.Writer
}

// New returns the platform Confirmer reading from stdin.
func New() Confirmer {
	return NewWithStreams(os.Stdin, os.Stdout)
}

// NewWithStreams returns a Confirmer on explicit streams, for testing.
func NewWithStreams(in io.Reader, out io.Writer) Confirmer {
	return &windowsConfirmer{in: in, out: out}
}

// ConfirmOrSkip reads 'y' to post, 'n' to skip, ^D to abort. A cooked
// console only delivers input after enter, so the choice byte arrives with
// a line ending attached; the '\r'/'\n' case below absorbs it so it is not
// mistaken for the next prompt's answer.
func (c *windowsConfirmer) ConfirmOrSkip() (bool, error) {
	fmt.Fprintf(c.out, "\nPress 'y' to post, 'n' to skip, or ^D to exit.\n")
	buf := make([]byte, 1)
	for {
		n, err := c.in.Read(buf)
		if err != nil {
			return false, ErrAborted
		}
		if n == 0 {
			continue
		}
		switch buf[0] {
		case 'y':
			return true, nil
		case 'n':
			return false, nil
		case ctrlD:
			return false, ErrAborted
		case '\r', '\n':
			// Ignore line endings left over from a previous prompt.
		default:
			fmt.Fprintf(c.out, "Invalid choice. Press 'y' to continue or 'n' to skip or ^D to abort.\n")
		}
	}
}
