// Package store persists rooms. Both implementations give the session layer
// the four primitives it needs: insert with a uniqueness check, conditional
// read-modify-write, delete, and idle sweeping.
package store

import (
	"errors"
	"time"
)

var (
	// ErrCodeTaken is returned by Insert when the room code already exists.
	ErrCodeTaken = errors.New("room code already in use")
	// ErrConflict is returned by Update when the room kept changing under
	// every attempt.
	ErrConflict = errors.New("room changed concurrently")
)

// updateAttempts bounds the compare-and-swap retry loop.
const updateAttempts = 8

func stamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
