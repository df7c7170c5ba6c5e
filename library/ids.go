package library

import (
	"strconv"

	"github.com/google/uuid"
)

// IDGenerator produces loan ids. Lending skips any id already in use, so a
// generator only has to be unique enough, not globally unique.
type IDGenerator interface {
	NextID() string
}

// SequenceGenerator yields prefix1, prefix2, ...
type SequenceGenerator struct {
	prefix string
	last   int
}

// NewSequenceGenerator starts counting after last.
func NewSequenceGenerator(prefix string, last int) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix, last: last}
}

func (g *SequenceGenerator) NextID() string {
	g.last++
	return g.prefix + strconv.Itoa(g.last)
}

// UUIDGenerator yields random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NextID() string { return uuid.NewString() }
