// Package bases encodes nucleotides in two bits and packs them four per byte.
package bases

import (
	"fmt"
	"strings"

	"github.com/sanonone/readgraph/pkg/core/types"
)

// Base is a nucleotide coded as A=0, C=1, G=2, T=3. The complement is 3-b.
type Base uint8

const (
	A Base = iota
	C
	G
	T
)

const symbols = "ACGT"

// Char returns the upper-case letter for b.
func (b Base) Char() byte { return symbols[b&3] }

// Complement returns the Watson-Crick partner.
func (b Base) Complement() Base { return 3 - (b & 3) }

// FromChar decodes one letter, case-insensitive.
func FromChar(c byte) (Base, error) {
	switch c {
	case 'A', 'a':
		return A, nil
	case 'C', 'c':
		return C, nil
	case 'G', 'g':
		return G, nil
	case 'T', 't':
		return T, nil
	}
	return 0, fmt.Errorf("base %q is not one of ACGT: %w", c, types.ErrInvalidArgument)
}

// PackedLen is the number of bytes needed for n bases.
func PackedLen(n uint64) uint64 {
	return (n + 3) / 4
}

// Get reads base i from a packed buffer. Base i lives in byte i/4, bits 2*(i%4).
func Get(packed []byte, i uint64) Base {
	return Base(packed[i>>2]>>((i&3)<<1)) & 3
}

// Pack encodes an ACGT string. Any other letter is an error.
func Pack(seq string) ([]byte, error) {
	out := make([]byte, PackedLen(uint64(len(seq))))
	for i := 0; i < len(seq); i++ {
		b, err := FromChar(seq[i])
		if err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
		out[i>>2] |= byte(b) << ((i & 3) << 1)
	}
	return out, nil
}

// AppendPacked appends n bases, starting at base offset start of packed, to dst as letters.
func AppendPacked(dst []byte, packed []byte, start, n uint64) []byte {
	for i := start; i < start+n; i++ {
		dst = append(dst, Get(packed, i).Char())
	}
	return dst
}

// AppendPackedReverseComplement appends the reverse complement of the same span.
func AppendPackedReverseComplement(dst []byte, packed []byte, start, n uint64) []byte {
	for i := start + n; i > start; i-- {
		dst = append(dst, Get(packed, i-1).Complement().Char())
	}
	return dst
}

// ReverseComplement returns the reverse complement of an ACGT string.
// Letters outside ACGT map to N.
func ReverseComplement(seq string) string {
	var sb strings.Builder
	sb.Grow(len(seq))
	for i := len(seq) - 1; i >= 0; i-- {
		b, err := FromChar(seq[i])
		if err != nil {
			sb.WriteByte('N')
			continue
		}
		sb.WriteByte(b.Complement().Char())
	}
	return sb.String()
}
