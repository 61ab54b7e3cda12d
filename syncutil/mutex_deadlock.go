//go:build deadlock
// +build deadlock

// Package syncutil provides the mutex types used by the ledger. Building with
// -tags deadlock swaps in github.com/sasha-s/go-deadlock so a lock taken twice
// on one call path is reported instead of hanging.
package syncutil

import "github.com/sasha-s/go-deadlock"

type Mutex struct {
	deadlock.Mutex
}

type RWMutex struct {
	deadlock.RWMutex
}
