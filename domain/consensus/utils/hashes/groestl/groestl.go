// Package groestl implements the Grøstl-512 hash function as submitted to
// the final round of the SHA-3 competition.
package groestl

import "encoding/binary"

const (
	// Size is the size of a Grøstl-512 digest in bytes
	Size = 64

	// BlockSize is the block size of Grøstl-512 in bytes
	BlockSize = 128

	rows    = 8
	columns = BlockSize / rows
	rounds  = 14
)

// state is the 8x16 byte matrix the permutations work on. Input bytes are
// mapped column by column.
type state [rows][columns]byte

var (
	shiftsP = [rows]int{0, 1, 2, 3, 4, 5, 6, 11}
	shiftsQ = [rows]int{1, 3, 5, 11, 0, 2, 4, 6}

	// mixCoefficients is the first row of the circulant MixBytes matrix
	mixCoefficients = [rows]byte{2, 2, 3, 4, 5, 3, 5, 7}
)

func stateFromBytes(b []byte) state {
	var s state
	for k := 0; k < BlockSize; k++ {
		s[k%rows][k/rows] = b[k]
	}
	return s
}

func (s *state) bytes() [BlockSize]byte {
	var b [BlockSize]byte
	for k := 0; k < BlockSize; k++ {
		b[k] = s[k%rows][k/rows]
	}
	return b
}

func (s *state) xor(other *state) {
	for i := 0; i < rows; i++ {
		for j := 0; j < columns; j++ {
			s[i][j] ^= other[i][j]
		}
	}
}

func permutationP(s *state) {
	for round := 0; round < rounds; round++ {
		for j := 0; j < columns; j++ {
			s[0][j] ^= byte(j<<4) ^ byte(round)
		}
		subBytes(s)
		shiftBytes(s, &shiftsP)
		mixBytes(s)
	}
}

func permutationQ(s *state) {
	for round := 0; round < rounds; round++ {
		for i := 0; i < rows; i++ {
			for j := 0; j < columns; j++ {
				s[i][j] ^= 0xff
			}
		}
		for j := 0; j < columns; j++ {
			s[rows-1][j] ^= byte(j<<4) ^ byte(round)
		}
		subBytes(s)
		shiftBytes(s, &shiftsQ)
		mixBytes(s)
	}
}

func subBytes(s *state) {
	for i := 0; i < rows; i++ {
		for j := 0; j < columns; j++ {
			s[i][j] = sbox[s[i][j]]
		}
	}
}

func shiftBytes(s *state, shifts *[rows]int) {
	var row [columns]byte
	for i := 0; i < rows; i++ {
		shift := shifts[i]
		for j := 0; j < columns; j++ {
			row[j] = s[i][(j+shift)%columns]
		}
		s[i] = row
	}
}

func mixBytes(s *state) {
	var column [rows]byte
	for j := 0; j < columns; j++ {
		for i := 0; i < rows; i++ {
			column[i] = s[i][j]
		}
		for i := 0; i < rows; i++ {
			var result byte
			for k := 0; k < rows; k++ {
				result ^= gfMultiply(mixCoefficients[(k-i+rows)%rows], column[k])
			}
			s[i][j] = result
		}
	}
}

// gfMultiply multiplies a and b in GF(2^8) with the AES polynomial
func gfMultiply(a, b byte) byte {
	var product byte
	for b != 0 {
		if b&1 != 0 {
			product ^= a
		}
		highBit := a & 0x80
		a <<= 1
		if highBit != 0 {
			a ^= 0x1b
		}
		b >>= 1
	}
	return product
}

// compress applies f(h, m) = P(h ^ m) ^ Q(m) ^ h
func compress(h *state, block []byte) {
	m := stateFromBytes(block)
	p := *h
	p.xor(&m)
	permutationP(&p)
	permutationQ(&m)
	h.xor(&p)
	h.xor(&m)
}

// Sum512 returns the Grøstl-512 digest of data
func Sum512(data []byte) [Size]byte {
	var h state
	// The initial value encodes the digest size in bits
	h[(BlockSize-2)%rows][(BlockSize-2)/rows] = Size * 8 >> 8

	blockCount := (len(data) + 1 + 8 + BlockSize - 1) / BlockSize
	padded := make([]byte, blockCount*BlockSize)
	copy(padded, data)
	padded[len(data)] = 0x80
	binary.BigEndian.PutUint64(padded[len(padded)-8:], uint64(blockCount))

	for offset := 0; offset < len(padded); offset += BlockSize {
		compress(&h, padded[offset:offset+BlockSize])
	}

	output := h
	permutationP(&output)
	output.xor(&h)
	outputBytes := output.bytes()

	var digest [Size]byte
	copy(digest[:], outputBytes[BlockSize-Size:])
	return digest
}
