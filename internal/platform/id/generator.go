package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const defaultIDBytes = 8

// Generator creates short opaque ids used to correlate log lines of one run.
type Generator interface {
	NewID() (string, error)
}

type RandomGenerator struct {
	size int
}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{size: defaultIDBytes}
}

// NewID returns size random bytes hex encoded.
func (g *RandomGenerator) NewID() (string, error) {
	size := g.size
	if size <= 0 {
		size = defaultIDBytes
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
