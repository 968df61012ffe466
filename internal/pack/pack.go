// Package pack implements the printable-alphabet packing collaborator
// described in spec.md §6: a fixed 64-symbol alphabet, 6 bits per
// character, most-significant-bit first. Packing is not self-delimiting;
// the coder's own finish() terminator bit is what lets Unpack's consumer
// (coder.Decoder) know where real content ends.
package pack

import (
	"bytes"
	"fmt"

	"github.com/icza/bitio"
	"github.com/mewkiz/pkg/errutil"
)

// Alphabet is the 64-symbol printable alphabet: A-Z, a-z, 0-9, +, /.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var charIndex = func() map[byte]uint64 {
	m := make(map[byte]uint64, len(Alphabet))
	for i := 0; i < len(Alphabet); i++ {
		m[Alphabet[i]] = uint64(i)
	}
	return m
}()

// ErrInvalidCiphertext is returned by Unpack when the input contains a byte
// outside Alphabet.
var ErrInvalidCiphertext = errutil.New("pack: invalid ciphertext character")

// Pack packs a logical bit stream (one byte per bit, value 0 or 1) into a
// printable string: trailing zero bits are stripped, the remainder is
// zero-padded to a multiple of six, and each six-bit group becomes one
// alphabet character.
func Pack(bits []byte) string {
	n := len(bits)
	for n > 0 && bits[n-1] == 0 {
		n--
	}
	bits = bits[:n]

	padded := n
	if rem := padded % 6; rem != 0 {
		padded += 6 - rem
	}

	buf := new(bytes.Buffer)
	bw := bitio.NewWriter(buf)
	for i := 0; i < padded; i++ {
		var bit bool
		if i < n {
			bit = bits[i] != 0
		}
		if err := bw.WriteBool(bit); err != nil {
			panic(fmt.Sprintf("pack: in-memory bit writer failed: %v", err)) // unreachable: bytes.Buffer never errors
		}
	}
	if err := bw.Close(); err != nil {
		panic(fmt.Sprintf("pack: in-memory bit writer failed: %v", err))
	}

	br := bitio.NewReader(bytes.NewReader(buf.Bytes()))
	out := make([]byte, padded/6)
	for i := range out {
		v, err := br.ReadBits(6)
		if err != nil {
			panic(fmt.Sprintf("pack: in-memory bit reader failed: %v", err))
		}
		out[i] = Alphabet[v]
	}
	return string(out)
}

// Unpack is the inverse of Pack: each character expands to six bits,
// most-significant-bit first, with no padding expected on read. Unpack
// validates every byte of s against Alphabet before decoding any of it.
func Unpack(s string) ([]byte, error) {
	for i := 0; i < len(s); i++ {
		if _, ok := charIndex[s[i]]; !ok {
			return nil, fmt.Errorf("%w: byte %d (%q) at offset %d", ErrInvalidCiphertext, s[i], rune(s[i]), i)
		}
	}

	buf := new(bytes.Buffer)
	bw := bitio.NewWriter(buf)
	for i := 0; i < len(s); i++ {
		if err := bw.WriteBits(charIndex[s[i]], 6); err != nil {
			panic(fmt.Sprintf("pack: in-memory bit writer failed: %v", err))
		}
	}
	if err := bw.Close(); err != nil {
		panic(fmt.Sprintf("pack: in-memory bit writer failed: %v", err))
	}

	nbits := len(s) * 6
	br := bitio.NewReader(bytes.NewReader(buf.Bytes()))
	out := make([]byte, nbits)
	for i := range out {
		bit, err := br.ReadBool()
		if err != nil {
			panic(fmt.Sprintf("pack: in-memory bit reader failed: %v", err))
		}
		if bit {
			out[i] = 1
		}
	}
	return out, nil
}
