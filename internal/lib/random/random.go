package random

import (
	"crypto/rand"
	"encoding/binary"
)

// NewSeed returns seed material for a math/rand source, drawn from the OS
// entropy pool.
func NewSeed() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand only fails if the OS entropy source is broken
		panic(err)
	}

	return int64(binary.LittleEndian.Uint64(b[:]))
}
