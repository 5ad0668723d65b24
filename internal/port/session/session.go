// Package session defines the port for one interactive terminal session.
package session

import "context"

// Options configures a new session.
type Options struct {
	// Dir is the working directory, already expanded and validated.
	Dir string
	// Cols and Rows set the initial terminal size.
	Cols uint16
	Rows uint16
	// Env entries are appended to the inherited environment.
	Env []string
}

// Session owns exactly one pseudo-terminal-backed child process. Writes are
// serialized internally, so methods are safe to call from multiple viewers.
type Session interface {
	// Write sends raw bytes to the terminal.
	Write(p []byte) error

	// Resize forwards a terminal size change.
	Resize(cols, rows uint16) error

	// Kill terminates the process. Idempotent: killing an already-exited
	// session is not an error.
	Kill() error

	// Output yields raw output chunks as they arrive. Closed after exit.
	Output() <-chan []byte

	// Done is closed once the process has exited (OS-level exit event).
	Done() <-chan struct{}

	// ExitCode is valid once Done is closed; -1 before that.
	ExitCode() int
}

// Starter creates sessions. The supervisor depends on this rather than on a
// concrete PTY implementation so it can be tested without real processes.
type Starter interface {
	Start(ctx context.Context, opts Options) (Session, error)
}
