package idhash

import (
	"crypto/sha256"
	"encoding/binary"

	"capex-lab/internal/domain"
)

// ComputePopulationDigest computes a SHA256 digest of a population's content.
// Formula: SHA256(len | count_0 | count_1 | ... ) with little-endian uint32 counts.
// Two populations share a digest only if every trader has the same account count.
func ComputePopulationDigest(p domain.Population) [sha256.Size]byte {
	h := sha256.New()

	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(p.Len()))
	h.Write(buf[:])

	// Chunked writes keep hashing of large populations allocation free.
	var chunk [4 * 1024]byte
	n := 0
	for i := 0; i < p.Len(); i++ {
		binary.LittleEndian.PutUint32(chunk[n:], uint32(p.At(i)))
		n += 4
		if n == len(chunk) {
			h.Write(chunk[:])
			n = 0
		}
	}
	if n > 0 {
		h.Write(chunk[:n])
	}

	var out [sha256.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}
