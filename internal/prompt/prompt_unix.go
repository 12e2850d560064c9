//go:build !windows

package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
)

type unixConfirmer struct {
	out io.Writer
	// lines receives one value per line read from the input and is closed
	// when the input ends. A single reader feeds it for the confirmer's
	// lifetime, so an enter press that arrives after a skip is delivered
	// to the next prompt instead of being lost to an abandoned read.
	lines chan struct{}
}

// New returns the platform Confirmer reading from stdin.
func New() Confirmer {
	return NewWithStreams(os.Stdin, os.Stdout)
}

// NewWithStreams returns a Confirmer on explicit streams, for testing.
func NewWithStreams(in io.Reader, out io.Writer) Confirmer {
	c := &unixConfirmer{out: out, lines: make(chan struct{})}
	go func() {
		r := bufio.NewReader(in)
		for {
			if _, err := r.ReadString('\n'); err != nil {
				close(c.lines)
				return
			}
			c.lines <- struct{}{}
		}
	}()
	return c
}

// ConfirmOrSkip posts on enter and skips on SIGINT. EOF aborts the run.
func (c *unixConfirmer) ConfirmOrSkip() (bool, error) {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	defer signal.Stop(sigc)

	fmt.Fprintf(c.out, "\nPress enter to continue or 'Ctrl-C' to skip.\n")

	select {
	case <-sigc:
		return false, nil
	case _, ok := <-c.lines:
		if !ok {
			return false, ErrAborted
		}
		return true, nil
	}
}
