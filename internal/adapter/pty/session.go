// Package pty implements the session port with a real pseudo-terminal.
package pty

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/creack/pty"

	"github.com/Strob0t/AgentGuild/internal/port/session"
)

const outputChanSize = 256

// Starter creates PTY-backed sessions running the platform shell.
type Starter struct {
	// Shell overrides the login shell. Empty means $SHELL, then /bin/bash.
	Shell string
}

// Start allocates a pseudo-terminal and launches an interactive shell in it.
func (s Starter) Start(ctx context.Context, opts session.Options) (session.Session, error) {
	shell := s.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/bash"
	}

	cmd := exec.Command(shell)
	cmd.Dir = opts.Dir
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
		"FORCE_COLOR=1",
	)
	cmd.Env = append(cmd.Env, opts.Env...)

	cols, rows := opts.Cols, opts.Rows
	if cols == 0 {
		cols = 120
	}
	if rows == 0 {
		rows = 32
	}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: cols, Rows: rows})
	if err != nil {
		return nil, fmt.Errorf("start pty: %w", err)
	}

	sess := &Session{
		ptmx: ptmx,
		cmd:  cmd,
		out:  make(chan []byte, outputChanSize),
		done: make(chan struct{}),
	}
	sess.exitCode.Store(-1)
	go sess.readLoop()
	go sess.wait(ctx)
	return sess, nil
}

// Session owns one shell process behind a PTY. The write mutex is the
// per-session serialization point required for concurrent viewers.
type Session struct {
	ptmx *os.File
	cmd  *exec.Cmd

	mu   sync.Mutex // serializes Write and Resize against the PTY fd
	out  chan []byte
	done chan struct{}

	killOnce sync.Once
	exitCode atomic.Int32
}

// Write sends raw bytes to the terminal.
func (s *Session) Write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.ptmx.Write(p); err != nil {
		return fmt.Errorf("pty write: %w", err)
	}
	return nil
}

// Resize forwards a terminal size change to the PTY.
func (s *Session) Resize(cols, rows uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := pty.Setsize(s.ptmx, &pty.Winsize{Cols: cols, Rows: rows}); err != nil {
		return fmt.Errorf("pty resize: %w", err)
	}
	return nil
}

// Kill terminates the shell process. Idempotent; the exit itself surfaces
// through Done via the OS-level wait, not here.
func (s *Session) Kill() error {
	s.killOnce.Do(func() {
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
	})
	return nil
}

// Output yields raw output chunks. Closed once the PTY reaches EOF.
func (s *Session) Output() <-chan []byte { return s.out }

// Done is closed when the process has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// readLoop pumps PTY output into the channel. On Linux the read fails with
// EIO once the child exits; that is the normal end of stream.
func (s *Session) readLoop() {
	defer close(s.out)
	buf := make([]byte, 4096)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.out <- chunk
		}
		if err != nil {
			return
		}
	}
}

// ExitCode returns the process exit code, or -1 before exit.
func (s *Session) ExitCode() int { return int(s.exitCode.Load()) }

func (s *Session) wait(ctx context.Context) {
	err := s.cmd.Wait()
	code := -1
	if s.cmd.ProcessState != nil {
		code = s.cmd.ProcessState.ExitCode()
	}
	s.exitCode.Store(int32(code))
	_ = s.ptmx.Close()
	close(s.done)
	if err != nil && ctx.Err() == nil {
		slog.Debug("session process exited", "error", err)
	}
}
