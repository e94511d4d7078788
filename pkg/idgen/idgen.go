// Package idgen provides ports.IDGenerator implementations.
package idgen

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// UUID mints random (v4) UUIDs.
type UUID struct{}

// NewUUID returns the production generator.
func NewUUID() UUID { return UUID{} }

// NewID returns a fresh UUID string.
func (UUID) NewID() string { return uuid.New().String() }

// Sequence mints "<prefix>-<n>" ids with n counting from 1. Safe for concurrent use.
// It is meant for fixtures and tests where ids must be predictable.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequence creates a Sequence with the given prefix.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix, next: 1}
}

// NewID returns the next id in the sequence.
func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("%s-%d", s.prefix, s.next)
	s.next++
	return id
}
