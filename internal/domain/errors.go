// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidWorkingDirectory indicates a spawn request named a directory
// that does not exist after home expansion.
var ErrInvalidWorkingDirectory = errors.New("invalid working directory")

// ErrSessionGone indicates the target session has already exited or been removed.
var ErrSessionGone = errors.New("session gone")
