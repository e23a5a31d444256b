package graph

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces new entity ids.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator generates random UUIDv4 ids.
type UUIDGenerator struct{}

// NewID implements IDGenerator.
func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// SequenceGenerator generates "<prefix><n>" ids with n counting from 1.
// It is safe for concurrent use.
type SequenceGenerator struct {
	Prefix string
	n      atomic.Uint64
}

// NewSequence returns a SequenceGenerator with the given prefix.
func NewSequence(prefix string) *SequenceGenerator {
	return &SequenceGenerator{Prefix: prefix}
}

// NewID implements IDGenerator.
func (g *SequenceGenerator) NewID() string {
	return fmt.Sprintf("%s%d", g.Prefix, g.n.Add(1))
}
